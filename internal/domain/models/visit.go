package models

import "time"

// VisitStatus represents the status of an on-site visit
type VisitStatus string

const (
	VisitStatusScheduled VisitStatus = "scheduled"
	VisitStatusOngoing   VisitStatus = "ongoing"
	VisitStatusCompleted VisitStatus = "completed"
)

// Visit 实际来访记录，与预约一对一。
// appointment_id 上的唯一索引保证一条预约不会产生两条来访。
type Visit struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	AppointmentID uint        `gorm:"uniqueIndex;not null" json:"appointment_id"`
	Date          time.Time   `gorm:"type:date;not null;index" json:"date"`
	ArrivedAt     *time.Time  `json:"arrived_at"`  // 实际到达时间
	DepartedAt    *time.Time  `json:"departed_at"` // 实际离开时间，一经写入不再清空
	Status        VisitStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	AgentID       *uint       `gorm:"index" json:"agent_id"` // 经办安保人员
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	// Relations
	Appointment *Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
	Agent       *User        `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
}
