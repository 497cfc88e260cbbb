package services

import (
	"time"

	"gorm.io/gorm"

	"visitpulse-http-service/internal/domain/models"
)

// DashboardStats 管理员总览统计
type DashboardStats struct {
	TotalUsers           int64            `json:"total_users"`
	UsersByRole          map[string]int64 `json:"users_by_role"`
	TotalAppointments    int64            `json:"total_appointments"`
	AppointmentsByStatus map[string]int64 `json:"appointments_by_status"`
	AppointmentsToday    int64            `json:"appointments_today"`
	ActiveVisits         int64            `json:"active_visits"`
	CompletedVisits      int64            `json:"completed_visits"`
	VisitsByDepartment   map[string]int64 `json:"visits_by_department"`
	MinVisitDurationMin  float64          `json:"min_visit_duration_minutes"`
	AvgVisitDurationMin  float64          `json:"avg_visit_duration_minutes"`
	MaxVisitDurationMin  float64          `json:"max_visit_duration_minutes"`
}

// InterfaceStatsService 定义统计服务接口
type InterfaceStatsService interface {
	GetDashboardStats() (*DashboardStats, error)
}

// StatsService 汇总管理员总览页需要的各项统计
type StatsService struct {
	DB *gorm.DB
}

// NewStatsService 创建一个新的统计服务
func NewStatsService(db *gorm.DB) InterfaceStatsService {
	return &StatsService{DB: db}
}

type groupCount struct {
	Key   string
	Total int64
}

// GetDashboardStats 计算总览统计。
// 来访时长基于已结束的来访逐条计算，数据库方言无关。
func (s *StatsService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{
		UsersByRole:          map[string]int64{},
		AppointmentsByStatus: map[string]int64{},
		VisitsByDepartment:   map[string]int64{},
	}

	if err := s.DB.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}

	var roleCounts []groupCount
	if err := s.DB.Model(&models.User{}).
		Select("role AS `key`, COUNT(*) AS total").
		Group("role").Scan(&roleCounts).Error; err != nil {
		return nil, err
	}
	for _, rc := range roleCounts {
		stats.UsersByRole[rc.Key] = rc.Total
	}

	if err := s.DB.Model(&models.Appointment{}).Count(&stats.TotalAppointments).Error; err != nil {
		return nil, err
	}

	var statusCounts []groupCount
	if err := s.DB.Model(&models.Appointment{}).
		Select("status AS `key`, COUNT(*) AS total").
		Group("status").Scan(&statusCounts).Error; err != nil {
		return nil, err
	}
	for _, sc := range statusCounts {
		stats.AppointmentsByStatus[sc.Key] = sc.Total
	}

	if err := s.DB.Model(&models.Appointment{}).
		Where("date = ?", models.DateOf(time.Now())).
		Count(&stats.AppointmentsToday).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Model(&models.Visit{}).
		Where("status = ?", models.VisitStatusOngoing).
		Count(&stats.ActiveVisits).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Visit{}).
		Where("status = ?", models.VisitStatusCompleted).
		Count(&stats.CompletedVisits).Error; err != nil {
		return nil, err
	}

	var deptCounts []groupCount
	if err := s.DB.Model(&models.Visit{}).
		Select("appointments.department AS `key`, COUNT(*) AS total").
		Joins("JOIN appointments ON appointments.id = visits.appointment_id").
		Group("appointments.department").Scan(&deptCounts).Error; err != nil {
		return nil, err
	}
	for _, dc := range deptCounts {
		stats.VisitsByDepartment[dc.Key] = dc.Total
	}

	if err := s.computeDurations(stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// computeDurations 统计已结束来访的最短/平均/最长停留时长（分钟）
func (s *StatsService) computeDurations(stats *DashboardStats) error {
	var visits []models.Visit
	if err := s.DB.Where("status = ? AND arrived_at IS NOT NULL AND departed_at IS NOT NULL",
		models.VisitStatusCompleted).Find(&visits).Error; err != nil {
		return err
	}
	if len(visits) == 0 {
		return nil
	}

	var total float64
	min := -1.0
	max := 0.0
	for _, v := range visits {
		minutes := v.DepartedAt.Sub(*v.ArrivedAt).Minutes()
		total += minutes
		if min < 0 || minutes < min {
			min = minutes
		}
		if minutes > max {
			max = minutes
		}
	}
	stats.MinVisitDurationMin = min
	stats.AvgVisitDurationMin = total / float64(len(visits))
	stats.MaxVisitDurationMin = max
	return nil
}
