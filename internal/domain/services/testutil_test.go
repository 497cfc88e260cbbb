package services

import (
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"visitpulse-http-service/internal/domain/models"
	"visitpulse-http-service/internal/infrastructure/config"
)

// sentNotification 记录一次通知调用
type sentNotification struct {
	UserID  uint
	Email   string
	Message string
	Channel models.NotificationChannel
}

// stubNotificationService 只记录调用，不触碰任何外部系统
type stubNotificationService struct {
	Sent []sentNotification
}

func (s *stubNotificationService) Connect() error { return nil }
func (s *stubNotificationService) Disconnect()    {}
func (s *stubNotificationService) Send(user *models.User, message string, channel models.NotificationChannel, visitID *uint) {
	if user == nil {
		return
	}
	s.Sent = append(s.Sent, sentNotification{
		UserID:  user.ID,
		Email:   user.Email,
		Message: message,
		Channel: channel,
	})
}

// stubGateEventService 只记录事件类型
type stubGateEventService struct {
	Events []string
}

func (s *stubGateEventService) Connect() error { return nil }
func (s *stubGateEventService) Disconnect()    {}
func (s *stubGateEventService) PublishVisitEvent(eventType string, payload map[string]interface{}) {
	s.Events = append(s.Events, eventType)
}

// stubRedisService 进程内的预约码缓存替身，记录作废调用
type stubRedisService struct {
	store       map[string]*models.Appointment
	Invalidated []string
}

func newStubRedisService() *stubRedisService {
	return &stubRedisService{store: map[string]*models.Appointment{}}
}

func (s *stubRedisService) Set(key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (s *stubRedisService) Get(key string, dest interface{}) error {
	return errors.New("cache miss")
}

func (s *stubRedisService) Delete(key string) error { return nil }

func (s *stubRedisService) CacheAppointmentByCode(appointment *models.Appointment, expiration time.Duration) error {
	s.store[appointment.Code] = appointment
	return nil
}

func (s *stubRedisService) GetAppointmentByCode(code string) (*models.Appointment, error) {
	if appointment, ok := s.store[code]; ok {
		return appointment, nil
	}
	return nil, errors.New("cache miss")
}

func (s *stubRedisService) InvalidateAppointment(code string) error {
	delete(s.store, code)
	s.Invalidated = append(s.Invalidated, code)
	return nil
}

// testEnv 一套接在内存数据库上的完整服务
type testEnv struct {
	DB            *gorm.DB
	Config        *config.Config
	Users         InterfaceUserService
	Visitors      InterfaceVisitorService
	Visits        InterfaceVisitService
	Appointments  InterfaceAppointmentService
	Settings      InterfaceSettingsService
	Stats         InterfaceStatsService
	Notifications *stubNotificationService
	GateEvents    *stubGateEventService
	Cache         *stubRedisService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// 内存库必须限制为单连接，否则每个连接各开一个空库
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Visitor{},
		&models.Appointment{},
		&models.Visit{},
		&models.Notification{},
		&models.SystemSetting{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	cfg := &config.Config{
		JWTSecretKey:           "test-secret",
		DefaultAdminPassword:   "admin-test",
		DefaultVisitorPassword: "123456",
	}

	notifications := &stubNotificationService{}
	gateEvents := &stubGateEventService{}
	cache := newStubRedisService()

	visitors := NewVisitorService(db, cfg)
	users := NewUserService(db, cfg, visitors)
	visits := NewVisitService(db, cfg, notifications, gateEvents)
	appointments := NewAppointmentService(db, cfg, visitors, visits, notifications, gateEvents, cache)

	return &testEnv{
		DB:            db,
		Config:        cfg,
		Users:         users,
		Visitors:      visitors,
		Visits:        visits,
		Appointments:  appointments,
		Settings:      NewSettingsService(db),
		Stats:         NewStatsService(db),
		Notifications: notifications,
		GateEvents:    gateEvents,
		Cache:         cache,
	}
}

// createUser 建一个指定角色的账户
func (e *testEnv) createUser(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "password123",
		Role:      role,
		Active:    true,
	}
	if err := e.DB.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

// createVisitorWithProfile 建访客账户并补齐档案
func (e *testEnv) createVisitorWithProfile(t *testing.T, email string) (*models.User, *models.Visitor) {
	t.Helper()

	user := e.createUser(t, email, models.RoleVisitor)
	visitor, err := e.Visitors.FindOrCreateByUserID(nil, user.ID)
	if err != nil {
		t.Fatalf("create visitor profile: %v", err)
	}
	return user, visitor
}

// createPendingAppointment 为访客建一条待审批预约
func (e *testEnv) createPendingAppointment(t *testing.T, visitorUser *models.User, date time.Time) *models.Appointment {
	t.Helper()

	appointment, err := e.Appointments.CreatePlanned(visitorUser, &AppointmentRequest{
		Date:      date,
		TimeOfDay: "10:00",
		Reason:    "business meeting",
	})
	if err != nil {
		t.Fatalf("create planned appointment: %v", err)
	}
	return appointment
}
