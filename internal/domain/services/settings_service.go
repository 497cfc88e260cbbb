package services

import (
	"errors"

	"gorm.io/gorm"

	"visitpulse-http-service/internal/domain/models"
)

// SystemSettingRequest 更新系统设置的输入，nil 字段保持原值
type SystemSettingRequest struct {
	OrganizationName      *string `json:"organization_name"`
	Timezone              *string `json:"timezone"`
	TwoFactorEnabled      *bool   `json:"two_factor_enabled"`
	SessionTimeoutEnabled *bool   `json:"session_timeout_enabled"`
	SessionTimeoutMinutes *int    `json:"session_timeout_minutes"`
	WelcomeTitle          *string `json:"welcome_title"`
	WelcomeSubtitle       *string `json:"welcome_subtitle"`
	WelcomeDescription    *string `json:"welcome_description"`
	CopyrightText         *string `json:"copyright_text"`
	SupportContact        *string `json:"support_contact"`
	HelpCenterURL         *string `json:"help_center_url"`
}

// InterfaceSettingsService 定义系统设置服务接口
type InterfaceSettingsService interface {
	GetSettings() (*models.SystemSetting, error)
	UpdateSettings(req *SystemSettingRequest) (*models.SystemSetting, error)
}

// SettingsService 维护全局单行系统设置，首次读取时按缺省值建行
type SettingsService struct {
	DB *gorm.DB
}

// NewSettingsService 创建一个新的系统设置服务
func NewSettingsService(db *gorm.DB) InterfaceSettingsService {
	return &SettingsService{DB: db}
}

func defaultSettings() *models.SystemSetting {
	return &models.SystemSetting{
		OrganizationName:      "VisitPulse",
		Timezone:              "UTC",
		SessionTimeoutEnabled: true,
		SessionTimeoutMinutes: 30,
		WelcomeTitle:          "欢迎来访",
		WelcomeSubtitle:       "访客通行管理系统",
	}
}

// GetSettings 读取系统设置，首次调用时落缺省行
func (s *SettingsService) GetSettings() (*models.SystemSetting, error) {
	var setting models.SystemSetting
	err := s.DB.First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = *defaultSettings()
		if err := s.DB.Create(&setting).Error; err != nil {
			return nil, err
		}
		return &setting, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// UpdateSettings 部分更新系统设置，只覆盖请求里出现的字段
func (s *SettingsService) UpdateSettings(req *SystemSettingRequest) (*models.SystemSetting, error) {
	setting, err := s.GetSettings()
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.OrganizationName != nil {
		updates["organization_name"] = *req.OrganizationName
	}
	if req.Timezone != nil {
		updates["timezone"] = *req.Timezone
	}
	if req.TwoFactorEnabled != nil {
		updates["two_factor_enabled"] = *req.TwoFactorEnabled
	}
	if req.SessionTimeoutEnabled != nil {
		updates["session_timeout_enabled"] = *req.SessionTimeoutEnabled
	}
	if req.SessionTimeoutMinutes != nil {
		updates["session_timeout_minutes"] = *req.SessionTimeoutMinutes
	}
	if req.WelcomeTitle != nil {
		updates["welcome_title"] = *req.WelcomeTitle
	}
	if req.WelcomeSubtitle != nil {
		updates["welcome_subtitle"] = *req.WelcomeSubtitle
	}
	if req.WelcomeDescription != nil {
		updates["welcome_description"] = *req.WelcomeDescription
	}
	if req.CopyrightText != nil {
		updates["copyright_text"] = *req.CopyrightText
	}
	if req.SupportContact != nil {
		updates["support_contact"] = *req.SupportContact
	}
	if req.HelpCenterURL != nil {
		updates["help_center_url"] = *req.HelpCenterURL
	}

	if len(updates) > 0 {
		if err := s.DB.Model(setting).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return setting, nil
}
