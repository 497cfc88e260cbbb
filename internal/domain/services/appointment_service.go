package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"visitpulse-http-service/internal/domain/models"
	"visitpulse-http-service/internal/infrastructure/config"
	"visitpulse-http-service/pkg/utils"
)

// AppointmentRequest 表示创建/修改预约的输入
type AppointmentRequest struct {
	Date       time.Time `json:"date"`
	TimeOfDay  string    `json:"time_of_day"`
	Reason     string    `json:"reason"`
	HostName   string    `json:"host_name"`
	Department string    `json:"department"`
	HostUserID *uint     `json:"host_user_id"`
	Phone      string    `json:"phone"`     // 可选，顺带更新账户电话
	IDNumber   string    `json:"id_number"` // 可选，顺带更新档案证件号
}

// DirectAppointmentRequest 表示安保登记临时来访的输入
type DirectAppointmentRequest struct {
	AppointmentRequest
	VisitorID   *uint  `json:"visitor_id"`   // 已知访客档案ID
	Email       string `json:"email"`        // 或按邮箱定位/建档
	VisitorName string `json:"visitor_name"` // 建档时使用的姓名
}

// HostStatistics 被访员工名下的预约统计
type HostStatistics struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
}

// InterfaceAppointmentService 定义预约生命周期服务接口
type InterfaceAppointmentService interface {
	CreatePlanned(visitorUser *models.User, req *AppointmentRequest) (*models.Appointment, error)
	CreateDirect(agent *models.User, req *DirectAppointmentRequest) (*models.Appointment, error)
	Approve(id uint, actor *models.User) (*models.Appointment, error)
	Reject(id uint, actor *models.User) (*models.Appointment, error)
	Update(id uint, visitorUser *models.User, req *AppointmentRequest) (*models.Appointment, error)
	Delete(id uint, visitorUser *models.User) error
	GetByID(id uint) (*models.Appointment, error)
	GetByIDForVisitor(id uint, visitorUser *models.User) (*models.Appointment, error)
	GetByCode(code string) (*models.Appointment, error)
	ListForVisitor(visitorUser *models.User) ([]models.Appointment, error)
	ListPending() ([]models.Appointment, error)
	ListApprovedToday() ([]models.Appointment, error)
	ListForHostToday(host *models.User) ([]models.Appointment, error)
	ListForHostUpcoming(host *models.User) ([]models.Appointment, error)
	ListForHostHistory(host *models.User) ([]models.Appointment, error)
	ListAll() ([]models.Appointment, error)
	CountByStatus(status models.AppointmentStatus) (int64, error)
	GetHostStatistics(host *models.User) (*HostStatistics, error)
	ArchiveExpired() (int, error)
}

// AppointmentService 提供预约生命周期相关的服务。
// 所有操作都显式接收操作者账户，先校验角色和当前状态再落库。
type AppointmentService struct {
	DB             *gorm.DB
	Config         *config.Config
	visitorService InterfaceVisitorService
	visitService   InterfaceVisitService
	Notification   InterfaceNotificationService
	GateEvents     InterfaceGateEventService
	cache          InterfaceRedisService
}

// NewAppointmentService 创建一个新的预约服务
func NewAppointmentService(
	db *gorm.DB,
	cfg *config.Config,
	visitorService InterfaceVisitorService,
	visitService InterfaceVisitService,
	notification InterfaceNotificationService,
	gateEvents InterfaceGateEventService,
	cache InterfaceRedisService,
) InterfaceAppointmentService {
	return &AppointmentService{
		DB:             db,
		Config:         cfg,
		visitorService: visitorService,
		visitService:   visitService,
		Notification:   notification,
		GateEvents:     gateEvents,
		cache:          cache,
	}
}

// invalidateCode 预约状态变化后作废门岗核验缓存，缓存不可用时忽略失败
func (s *AppointmentService) invalidateCode(code string) {
	if s.cache == nil || code == "" {
		return
	}
	if err := s.cache.InvalidateAppointment(code); err != nil {
		log.Printf("[Appointment] 作废预约码缓存 %s 失败: %v", code, err)
	}
}

// canReview 审批/拒绝预约的角色门槛
func canReview(actor *models.User) bool {
	switch actor.Role {
	case models.RoleSecretary, models.RoleAdmin, models.RoleAgent:
		return true
	}
	return false
}

// 1 CreatePlanned 访客发起预约申请，进入待审批状态
func (s *AppointmentService) CreatePlanned(visitorUser *models.User, req *AppointmentRequest) (*models.Appointment, error) {
	if visitorUser.Role != models.RoleVisitor {
		return nil, fmt.Errorf("%w: 只有访客可以申请预约", ErrForbidden)
	}
	if req.Date.IsZero() || req.TimeOfDay == "" {
		return nil, fmt.Errorf("%w: 预约日期和时间不能为空", ErrValidation)
	}

	var appointment *models.Appointment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// 顺带更新账户电话
		if strings.TrimSpace(req.Phone) != "" {
			if err := tx.Model(&models.User{}).Where("id = ?", visitorUser.ID).Update("phone", req.Phone).Error; err != nil {
				return err
			}
		}

		visitor, err := s.visitorService.FindOrCreateByUserID(tx, visitorUser.ID)
		if err != nil {
			return err
		}

		// 顺带更新证件号
		if strings.TrimSpace(req.IDNumber) != "" {
			if err := tx.Model(visitor).Update("id_number", req.IDNumber).Error; err != nil {
				return err
			}
		}

		code, err := s.generateCode(tx)
		if err != nil {
			return err
		}

		appointment = &models.Appointment{
			Code:       code,
			VisitorID:  visitor.ID,
			HostUserID: req.HostUserID,
			Date:       models.DateOf(req.Date),
			TimeOfDay:  req.TimeOfDay,
			Reason:     req.Reason,
			HostName:   req.HostName,
			Department: req.Department,
			Kind:       models.AppointmentKindPlanned,
			Status:     models.AppointmentStatusPending,
		}
		return tx.Create(appointment).Error
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

// 2 CreateDirect 安保登记临时来访：预约直接进入已批准，来访立即开始。
// 访客定位顺序：档案ID → 邮箱（未知邮箱建新账户）→ 按时间戳合成占位账户。
func (s *AppointmentService) CreateDirect(agent *models.User, req *DirectAppointmentRequest) (*models.Appointment, error) {
	if agent.Role != models.RoleAgent {
		return nil, fmt.Errorf("%w: 只有安保人员可以登记临时来访", ErrForbidden)
	}

	var appointment *models.Appointment
	var visitorUser *models.User

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		visitor, user, err := s.resolveVisitor(tx, req)
		if err != nil {
			return err
		}
		visitorUser = user

		// 顺带更新证件号
		if strings.TrimSpace(req.IDNumber) != "" {
			if err := tx.Model(visitor).Update("id_number", req.IDNumber).Error; err != nil {
				return err
			}
		}

		code, err := s.generateCode(tx)
		if err != nil {
			return err
		}

		// 缺省日期/时间取当前时刻
		date := req.Date
		if date.IsZero() {
			date = time.Now()
		}
		timeOfDay := req.TimeOfDay
		if timeOfDay == "" {
			timeOfDay = time.Now().Format("15:04")
		}

		appointment = &models.Appointment{
			Code:       code,
			VisitorID:  visitor.ID,
			HostUserID: req.HostUserID,
			Date:       models.DateOf(date),
			TimeOfDay:  timeOfDay,
			Reason:     req.Reason,
			HostName:   req.HostName,
			Department: req.Department,
			Kind:       models.AppointmentKindDirect,
			Status:     models.AppointmentStatusApproved, // 跳过待审批
		}
		if err := tx.Create(appointment).Error; err != nil {
			return err
		}

		// 立即创建进行中的来访
		_, err = s.visitService.CreateForAppointment(tx, appointment, &agent.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// 占位邮箱不发通知，真实邮箱的发送失败也被吞掉
	if visitorUser != nil && !utils.IsWalkInEmail(visitorUser.Email) {
		s.Notification.Send(visitorUser, "欢迎光临，您的来访已开始。", models.NotificationChannelEmail, nil)
	}

	return appointment, nil
}

// resolveVisitor 为临时来访定位或建立访客身份
func (s *AppointmentService) resolveVisitor(tx *gorm.DB, req *DirectAppointmentRequest) (*models.Visitor, *models.User, error) {
	// 情况1：已知访客档案ID
	if req.VisitorID != nil {
		var visitor models.Visitor
		if err := tx.Preload("User").First(&visitor, *req.VisitorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, fmt.Errorf("%w: 访客档案 %d", ErrNotFound, *req.VisitorID)
			}
			return nil, nil, err
		}
		return &visitor, visitor.User, nil
	}

	// 情况2：按邮箱定位，未知邮箱则建新账户
	if strings.TrimSpace(req.Email) != "" {
		var user models.User
		err := tx.Where("email = ?", req.Email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			firstName, lastName := splitVisitorName(req.VisitorName)
			user = models.User{
				FirstName: firstName,
				LastName:  lastName,
				Email:     req.Email,
				Phone:     req.Phone,
				Password:  s.Config.DefaultVisitorPassword,
				Role:      models.RoleVisitor,
			}
			if err := tx.Create(&user).Error; err != nil {
				return nil, nil, err
			}
		} else if err != nil {
			return nil, nil, err
		}

		visitor, err := s.visitorService.FindOrCreateByUserID(tx, user.ID)
		if err != nil {
			return nil, nil, err
		}
		return visitor, &user, nil
	}

	// 情况3：无任何身份信息，合成占位账户以便照常跟踪
	firstName, lastName := splitVisitorName(req.VisitorName)
	user := models.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     utils.GenerateWalkInEmail(),
		Phone:     req.Phone,
		Password:  s.Config.DefaultVisitorPassword,
		Role:      models.RoleVisitor,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, nil, err
	}
	visitor, err := s.visitorService.FindOrCreateByUserID(tx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return visitor, &user, nil
}

// 3 Approve 审批通过预约并创建待到访的来访记录。
// 状态前置条件放进 UPDATE 的 WHERE 里，并发审批只会成功一次，其余返回冲突。
func (s *AppointmentService) Approve(id uint, actor *models.User) (*models.Appointment, error) {
	if !canReview(actor) {
		return nil, fmt.Errorf("%w: 您没有审批预约的权限", ErrForbidden)
	}

	var appointment models.Appointment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&appointment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: 预约 %d", ErrNotFound, id)
			}
			return err
		}

		result := tx.Model(&models.Appointment{}).
			Where("id = ? AND status = ?", id, models.AppointmentStatusPending).
			Update("status", models.AppointmentStatusApproved)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: 预约 %d 当前状态为 %s，不是待审批", ErrConflict, id, appointment.Status)
		}
		appointment.Status = models.AppointmentStatusApproved

		// 创建关联的来访记录（待到访）
		_, err := s.visitService.CreateForAppointment(tx, &appointment, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCode(appointment.Code)
	s.notifyVisitor(&appointment, "您的预约已通过审批，预约码："+appointment.Code)
	s.GateEvents.PublishVisitEvent(GateEventAppointmentApproved, map[string]interface{}{
		"appointment_id": appointment.ID,
		"code":           appointment.Code,
		"date":           appointment.Date.Format("2006-01-02"),
	})

	return &appointment, nil
}

// 4 Reject 拒绝预约。只有待审批的预约可以被拒绝，
// 已批准的预约走归档流程而不是事后拒绝。
func (s *AppointmentService) Reject(id uint, actor *models.User) (*models.Appointment, error) {
	if !canReview(actor) {
		return nil, fmt.Errorf("%w: 您没有拒绝预约的权限", ErrForbidden)
	}

	var appointment models.Appointment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&appointment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: 预约 %d", ErrNotFound, id)
			}
			return err
		}

		result := tx.Model(&models.Appointment{}).
			Where("id = ? AND status = ?", id, models.AppointmentStatusPending).
			Update("status", models.AppointmentStatusRejected)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: 预约 %d 当前状态为 %s，不是待审批", ErrConflict, id, appointment.Status)
		}
		appointment.Status = models.AppointmentStatusRejected
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCode(appointment.Code)
	s.notifyVisitor(&appointment, "很抱歉，您的预约申请未通过审批。")
	return &appointment, nil
}

// 5 Update 访客修改自己的待审批预约，只覆盖非空字段
func (s *AppointmentService) Update(id uint, visitorUser *models.User, req *AppointmentRequest) (*models.Appointment, error) {
	var appointment models.Appointment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		appt, err := s.loadOwned(tx, id, visitorUser)
		if err != nil {
			return err
		}
		if appt.Status != models.AppointmentStatusPending {
			return fmt.Errorf("%w: 只有待审批的预约可以修改", ErrConflict)
		}

		updates := map[string]interface{}{}
		if !req.Date.IsZero() {
			updates["date"] = models.DateOf(req.Date)
		}
		if req.TimeOfDay != "" {
			updates["time_of_day"] = req.TimeOfDay
		}
		if req.Reason != "" {
			updates["reason"] = req.Reason
		}
		if req.HostName != "" {
			updates["host_name"] = req.HostName
		}
		if req.Department != "" {
			updates["department"] = req.Department
		}
		if req.HostUserID != nil {
			updates["host_user_id"] = *req.HostUserID
		}

		if len(updates) > 0 {
			if err := tx.Model(appt).Updates(updates).Error; err != nil {
				return err
			}
		}
		appointment = *appt
		return tx.First(&appointment, id).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCode(appointment.Code)
	return &appointment, nil
}

// 6 Delete 访客取消自己的待审批预约，物理删除
func (s *AppointmentService) Delete(id uint, visitorUser *models.User) error {
	var code string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		appt, err := s.loadOwned(tx, id, visitorUser)
		if err != nil {
			return err
		}
		if appt.Status != models.AppointmentStatusPending {
			return fmt.Errorf("%w: 已处理的预约不能删除", ErrConflict)
		}
		code = appt.Code
		return tx.Delete(appt).Error
	})
	if err != nil {
		return err
	}

	s.invalidateCode(code)
	return nil
}

// loadOwned 加载预约并校验归属
func (s *AppointmentService) loadOwned(tx *gorm.DB, id uint, visitorUser *models.User) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := tx.Preload("Visitor").First(&appointment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 预约 %d", ErrNotFound, id)
		}
		return nil, err
	}
	if appointment.Visitor == nil || appointment.Visitor.UserID != visitorUser.ID {
		return nil, fmt.Errorf("%w: 只能操作自己的预约", ErrForbidden)
	}
	return &appointment, nil
}

// 7 GetByID 获取预约详情（秘书/管理员使用，不校验归属）
func (s *AppointmentService) GetByID(id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	err := s.DB.Preload("Visitor").Preload("Visitor.User").Preload("Visit").First(&appointment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 预约 %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &appointment, nil
}

// 8 GetByIDForVisitor 访客查看自己的预约详情
func (s *AppointmentService) GetByIDForVisitor(id uint, visitorUser *models.User) (*models.Appointment, error) {
	appointment, err := s.loadOwned(s.DB, id, visitorUser)
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

// 9 GetByCode 按预约码查找，用于二维码核验
func (s *AppointmentService) GetByCode(code string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := s.DB.Preload("Visitor").Preload("Visitor.User").Preload("Visit").
		Where("code = ?", code).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 预约码 %s 无效或已过期", ErrNotFound, code)
		}
		return nil, err
	}
	return &appointment, nil
}

// 10 ListForVisitor 访客查看自己的全部预约
func (s *AppointmentService) ListForVisitor(visitorUser *models.User) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.DB.Preload("Visit").
		Joins("JOIN visitors ON visitors.id = appointments.visitor_id").
		Where("visitors.user_id = ?", visitorUser.ID).
		Find(&appointments).Error
	return appointments, err
}

// 11 ListPending 待审批的预约（秘书工作台）
func (s *AppointmentService) ListPending() ([]models.Appointment, error) {
	return s.listByStatus(models.AppointmentStatusPending)
}

// 12 ListApprovedToday 今天已批准的预约（秘书工作台）
func (s *AppointmentService) ListApprovedToday() ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.DB.Preload("Visitor").Preload("Visitor.User").
		Where("status = ? AND date = ?", models.AppointmentStatusApproved, models.DateOf(time.Now())).
		Find(&appointments).Error
	return appointments, err
}

// 13 ListForHostToday 被访员工今天的已批准预约
func (s *AppointmentService) ListForHostToday(host *models.User) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.DB.Preload("Visitor").Preload("Visitor.User").
		Where("host_user_id = ? AND status = ? AND date = ?", host.ID, models.AppointmentStatusApproved, models.DateOf(time.Now())).
		Find(&appointments).Error
	return appointments, err
}

// 14 ListForHostUpcoming 被访员工未来的已批准预约
func (s *AppointmentService) ListForHostUpcoming(host *models.User) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.DB.Preload("Visitor").Preload("Visitor.User").
		Where("host_user_id = ? AND status = ? AND date > ?", host.ID, models.AppointmentStatusApproved, models.DateOf(time.Now())).
		Find(&appointments).Error
	return appointments, err
}

// 15 ListForHostHistory 被访员工的历史预约（日期已过，不限状态）
func (s *AppointmentService) ListForHostHistory(host *models.User) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.DB.Preload("Visitor").Preload("Visitor.User").
		Where("host_user_id = ? AND date < ?", host.ID, models.DateOf(time.Now())).
		Find(&appointments).Error
	return appointments, err
}

// 16 ListAll 全部预约（管理员）
func (s *AppointmentService) ListAll() ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.DB.Preload("Visitor").Preload("Visitor.User").Preload("Visit").Find(&appointments).Error
	return appointments, err
}

// CountByStatus 按状态统计预约数
func (s *AppointmentService) CountByStatus(status models.AppointmentStatus) (int64, error) {
	var total int64
	err := s.DB.Model(&models.Appointment{}).Where("status = ?", status).Count(&total).Error
	return total, err
}

// GetHostStatistics 被访员工名下的预约统计
func (s *AppointmentService) GetHostStatistics(host *models.User) (*HostStatistics, error) {
	stats := &HostStatistics{}
	base := s.DB.Model(&models.Appointment{}).Where("host_user_id = ?", host.ID)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("status = ?", models.AppointmentStatusPending).Count(&stats.Pending).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("status = ?", models.AppointmentStatusApproved).Count(&stats.Approved).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// 17 ArchiveExpired 归档日期已过但从未到访的已批准预约。
// 每行独立处理，单行失败不影响其余行；过滤条件排除了已归档行，当天重复执行是空操作。
// 只看预约状态，不关心关联来访是否结束：场地过期与来访完成是两件事。
func (s *AppointmentService) ArchiveExpired() (int, error) {
	today := models.DateOf(time.Now())

	var expired []models.Appointment
	if err := s.DB.Where("status = ? AND date < ?", models.AppointmentStatusApproved, today).
		Find(&expired).Error; err != nil {
		return 0, err
	}

	archived := 0
	for _, appointment := range expired {
		result := s.DB.Model(&models.Appointment{}).
			Where("id = ? AND status = ?", appointment.ID, models.AppointmentStatusApproved).
			Update("status", models.AppointmentStatusArchived)
		if result.Error != nil {
			// 单行失败不阻塞批处理
			log.Printf("[Appointment] 归档预约 %d 失败: %v", appointment.ID, result.Error)
			continue
		}
		if result.RowsAffected > 0 {
			s.invalidateCode(appointment.Code)
			archived++
		}
	}
	return archived, nil
}

// listByStatus 按状态列出预约
func (s *AppointmentService) listByStatus(status models.AppointmentStatus) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.DB.Preload("Visitor").Preload("Visitor.User").
		Where("status = ?", status).
		Find(&appointments).Error
	return appointments, err
}

// generateCode 生成全局唯一的8位预约码
func (s *AppointmentService) generateCode(tx *gorm.DB) (string, error) {
	for i := 0; i < 5; i++ {
		code := utils.GenerateAppointmentCode()
		var count int64
		if err := tx.Model(&models.Appointment{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("生成预约码失败: 多次重试仍然冲突")
}

// notifyVisitor 给预约的访客账户发通知
func (s *AppointmentService) notifyVisitor(appointment *models.Appointment, message string) {
	var visitor models.Visitor
	if err := s.DB.Preload("User").First(&visitor, appointment.VisitorID).Error; err != nil {
		return
	}
	s.Notification.Send(visitor.User, message, models.NotificationChannelEmail, nil)
}

// splitVisitorName 将全名拆分为名和姓
func splitVisitorName(fullName string) (string, string) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fullName = "访客"
	}
	parts := strings.SplitN(fullName, " ", 2)
	if len(parts) == 1 {
		return parts[0], "-"
	}
	return parts[0], parts[1]
}
