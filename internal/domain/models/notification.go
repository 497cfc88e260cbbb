package models

import "time"

// NotificationChannel represents the delivery channel of a notification
type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelSMS   NotificationChannel = "sms"
)

// 通知投递状态
const (
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// Notification 通知记录，引擎只写不读
type Notification struct {
	ID      uint                `gorm:"primaryKey" json:"id"`
	UserID  uint                `gorm:"index;not null" json:"user_id"`
	VisitID *uint               `gorm:"index" json:"visit_id"`
	Channel NotificationChannel `gorm:"type:varchar(20);not null" json:"channel"`
	Message string              `gorm:"type:varchar(500);not null" json:"message"`
	Status  string              `gorm:"type:varchar(20)" json:"status"`
	SentAt  time.Time           `json:"sent_at"`

	// Relations
	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Visit *Visit `gorm:"foreignKey:VisitID" json:"visit,omitempty"`
}
