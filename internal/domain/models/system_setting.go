package models

import "time"

// SystemSetting 系统设置，全局单行记录
type SystemSetting struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	OrganizationName      string    `gorm:"type:varchar(100)" json:"organization_name"`
	Timezone              string    `gorm:"type:varchar(50)" json:"timezone"`
	TwoFactorEnabled      bool      `json:"two_factor_enabled"`
	SessionTimeoutEnabled bool      `json:"session_timeout_enabled"`
	SessionTimeoutMinutes int       `json:"session_timeout_minutes"`
	WelcomeTitle          string    `gorm:"type:varchar(100)" json:"welcome_title"`
	WelcomeSubtitle       string    `gorm:"type:varchar(100)" json:"welcome_subtitle"`
	WelcomeDescription    string    `gorm:"type:varchar(1000)" json:"welcome_description"`
	CopyrightText         string    `gorm:"type:varchar(200)" json:"copyright_text"`
	SupportContact        string    `gorm:"type:varchar(100)" json:"support_contact"`
	HelpCenterURL         string    `gorm:"type:varchar(200)" json:"help_center_url"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
