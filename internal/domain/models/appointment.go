package models

import "time"

// AppointmentKind represents how an appointment was created
type AppointmentKind string

const (
	AppointmentKindPlanned AppointmentKind = "planned" // 访客预约，需审批
	AppointmentKindDirect  AppointmentKind = "direct"  // 临时来访，由安保直接登记
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending  AppointmentStatus = "pending"
	AppointmentStatusApproved AppointmentStatus = "approved"
	AppointmentStatusRejected AppointmentStatus = "rejected"
	AppointmentStatusArchived AppointmentStatus = "archived"
)

// Appointment 预约记录。状态只沿 pending→approved/rejected、approved→archived 流转。
type Appointment struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Code       string            `gorm:"type:varchar(16);uniqueIndex;not null" json:"code"` // 预约码，创建后不可变
	VisitorID  uint              `gorm:"index;not null" json:"visitor_id"`
	HostUserID *uint             `gorm:"index" json:"host_user_id"` // 被访员工账户，可为空
	Date       time.Time         `gorm:"type:date;not null;index" json:"date"`
	TimeOfDay  string            `gorm:"type:varchar(5);not null" json:"time_of_day"` // HH:MM
	Reason     string            `gorm:"type:varchar(255)" json:"reason"`
	HostName   string            `gorm:"type:varchar(100)" json:"host_name"` // 被访人姓名
	Department string            `gorm:"type:varchar(100)" json:"department"`
	Kind       AppointmentKind   `gorm:"type:varchar(20);not null" json:"kind"`
	Status     AppointmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`

	// Relations
	Visitor *Visitor `gorm:"foreignKey:VisitorID" json:"visitor,omitempty"`
	Host    *User    `gorm:"foreignKey:HostUserID" json:"host,omitempty"`
	Visit   *Visit   `gorm:"foreignKey:AppointmentID" json:"visit,omitempty"`
}
