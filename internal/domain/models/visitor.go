package models

import "time"

// Visitor 访客档案，是访客账户的一对一扩展记录。
// user_id 上的唯一索引保证并发的 find-or-create 不会产生重复档案。
type Visitor struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Company      string    `gorm:"type:varchar(100)" json:"company"`
	IDNumber     string    `gorm:"type:varchar(50)" json:"id_number"`      // 证件号码
	PlateNumber  string    `gorm:"type:varchar(20)" json:"plate_number"`   // 车牌号
	VisitorType  string    `gorm:"type:varchar(20)" json:"visitor_type"`   // 访客类型：external/partner
	ScanDocument string    `gorm:"type:varchar(255)" json:"scan_document"` // 证件扫描件链接
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Appointments []Appointment `gorm:"foreignKey:VisitorID" json:"appointments,omitempty"`
}
