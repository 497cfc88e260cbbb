package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"visitpulse-http-service/internal/domain/models"
	"visitpulse-http-service/internal/infrastructure/config"
)

// InterfaceVisitService 定义来访服务接口
type InterfaceVisitService interface {
	CreateForAppointment(tx *gorm.DB, appointment *models.Appointment, agentID *uint) (*models.Visit, error)
	RecordArrival(appointmentID uint, agent *models.User) (*models.Visit, error)
	RecordDeparture(visitID uint, agent *models.User) (*models.Visit, error)
	GetByID(id uint) (*models.Visit, error)
	ListActive() ([]models.Visit, error)
	ListHistory() ([]models.Visit, error)
	ListByDate(date time.Time) ([]models.Visit, error)
}

// VisitService 提供来访生命周期相关的服务
type VisitService struct {
	DB           *gorm.DB
	Config       *config.Config
	Notification InterfaceNotificationService
	GateEvents   InterfaceGateEventService
}

// NewVisitService 创建一个新的来访服务
func NewVisitService(db *gorm.DB, cfg *config.Config, notification InterfaceNotificationService, gateEvents InterfaceGateEventService) InterfaceVisitService {
	return &VisitService{
		DB:           db,
		Config:       cfg,
		Notification: notification,
		GateEvents:   gateEvents,
	}
}

// CreateForAppointment 为预约创建唯一的来访记录。
// 仅由预约审批和临时登记调用，不对外暴露。
// 预约类型为 direct 时来访直接进入 ongoing 并记下到达时间。
func (s *VisitService) CreateForAppointment(tx *gorm.DB, appointment *models.Appointment, agentID *uint) (*models.Visit, error) {
	if tx == nil {
		tx = s.DB
	}

	visit := models.Visit{
		AppointmentID: appointment.ID,
		Date:          appointment.Date,
		Status:        models.VisitStatusScheduled,
		AgentID:       agentID,
	}

	if appointment.Kind == models.AppointmentKindDirect {
		now := time.Now()
		visit.Status = models.VisitStatusOngoing
		visit.ArrivedAt = &now
	}

	if err := tx.Create(&visit).Error; err != nil {
		return nil, err
	}
	return &visit, nil
}

// RecordArrival 登记访客到达。按预约ID定位来访记录。
// 来访缺失说明上游数据不一致，已在进行或已结束的来访不允许重复登记到达。
func (s *VisitService) RecordArrival(appointmentID uint, agent *models.User) (*models.Visit, error) {
	var appointment models.Appointment
	if err := s.DB.First(&appointment, appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 预约 %d", ErrNotFound, appointmentID)
		}
		return nil, err
	}

	var visit models.Visit
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("appointment_id = ?", appointmentID).First(&visit).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: 预约 %d 没有关联的来访记录", ErrConflict, appointmentID)
			}
			return err
		}

		now := time.Now()
		// 条件更新：只有 scheduled 状态能登记到达，并发的重复登记只会成功一次
		result := tx.Model(&models.Visit{}).
			Where("id = ? AND status = ?", visit.ID, models.VisitStatusScheduled).
			Updates(map[string]interface{}{
				"status":     models.VisitStatusOngoing,
				"arrived_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: 来访 %d 当前状态为 %s，不允许登记到达", ErrConflict, visit.ID, visit.Status)
		}

		visit.Status = models.VisitStatusOngoing
		visit.ArrivedAt = &now
		if agent != nil && visit.AgentID == nil {
			if err := tx.Model(&models.Visit{}).Where("id = ?", visit.ID).Update("agent_id", agent.ID).Error; err != nil {
				return err
			}
			visit.AgentID = &agent.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyVisitor(&appointment, "您的来访已开始。", &visit)
	s.GateEvents.PublishVisitEvent(GateEventVisitStarted, map[string]interface{}{
		"visit_id":       visit.ID,
		"appointment_id": appointment.ID,
		"code":           appointment.Code,
	})

	return &visit, nil
}

// RecordDeparture 登记访客离开。按来访ID定位。
// 必须先有到达时间；离开时间一经写入不再清空。
func (s *VisitService) RecordDeparture(visitID uint, agent *models.User) (*models.Visit, error) {
	var visit models.Visit
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&visit, visitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: 来访 %d", ErrNotFound, visitID)
			}
			return err
		}

		if visit.ArrivedAt == nil {
			return fmt.Errorf("%w: 来访 %d 尚未登记到达", ErrConflict, visitID)
		}

		now := time.Now()
		result := tx.Model(&models.Visit{}).
			Where("id = ? AND status = ?", visitID, models.VisitStatusOngoing).
			Updates(map[string]interface{}{
				"status":      models.VisitStatusCompleted,
				"departed_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: 来访 %d 当前状态为 %s，不允许登记离开", ErrConflict, visitID, visit.Status)
		}

		visit.Status = models.VisitStatusCompleted
		visit.DepartedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	var appointment models.Appointment
	if err := s.DB.First(&appointment, visit.AppointmentID).Error; err == nil {
		s.notifyVisitor(&appointment, "您的来访已结束。", &visit)
		s.GateEvents.PublishVisitEvent(GateEventVisitEnded, map[string]interface{}{
			"visit_id":       visit.ID,
			"appointment_id": appointment.ID,
			"code":           appointment.Code,
		})
	}

	return &visit, nil
}

// GetByID 根据ID获取来访记录
func (s *VisitService) GetByID(id uint) (*models.Visit, error) {
	var visit models.Visit
	if err := s.DB.Preload("Appointment").Preload("Agent").First(&visit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 来访 %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &visit, nil
}

// ListActive 获取所有进行中的来访
func (s *VisitService) ListActive() ([]models.Visit, error) {
	var visits []models.Visit
	err := s.DB.Preload("Appointment").Preload("Appointment.Visitor").Preload("Appointment.Visitor.User").
		Where("status = ?", models.VisitStatusOngoing).
		Find(&visits).Error
	return visits, err
}

// ListHistory 获取全部来访记录，不按状态过滤，排序由展示层决定
func (s *VisitService) ListHistory() ([]models.Visit, error) {
	var visits []models.Visit
	err := s.DB.Preload("Appointment").Preload("Appointment.Visitor").Preload("Appointment.Visitor.User").
		Find(&visits).Error
	return visits, err
}

// ListByDate 获取指定日期的来访
func (s *VisitService) ListByDate(date time.Time) ([]models.Visit, error) {
	var visits []models.Visit
	err := s.DB.Preload("Appointment").
		Where("date = ?", models.DateOf(date)).
		Find(&visits).Error
	return visits, err
}

// notifyVisitor 给预约的访客账户发通知，失败在通知服务内部吞掉
func (s *VisitService) notifyVisitor(appointment *models.Appointment, message string, visit *models.Visit) {
	var visitor models.Visitor
	if err := s.DB.Preload("User").First(&visitor, appointment.VisitorID).Error; err != nil {
		return
	}
	var visitID *uint
	if visit != nil {
		visitID = &visit.ID
	}
	s.Notification.Send(visitor.User, message, models.NotificationChannelEmail, visitID)
}
