package container

import (
	"log"
	"sync"

	"gorm.io/gorm"

	"visitpulse-http-service/internal/domain/services"
	"visitpulse-http-service/internal/infrastructure/config"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config

	// 基础服务
	jwtService   services.InterfaceJWTService
	redisService services.InterfaceRedisService

	// 外发通道
	notificationService services.InterfaceNotificationService
	gateEventService    services.InterfaceGateEventService

	// 业务服务
	userService        services.InterfaceUserService
	visitorService     services.InterfaceVisitorService
	visitService       services.InterfaceVisitService
	appointmentService services.InterfaceAppointmentService
	settingsService    services.InterfaceSettingsService
	statsService       services.InterfaceStatsService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config)
	c.redisService = services.NewRedisService(c.config)

	// 初始化外发通道，连接失败降级为只落库/只日志
	c.notificationService = services.NewNotificationService(c.db, c.config)
	if err := c.notificationService.Connect(); err != nil {
		log.Printf("RabbitMQ连接失败: %v，通知将只落库不投递", err)
	}

	c.gateEventService = services.NewGateEventService(c.config)
	if err := c.gateEventService.Connect(); err != nil {
		log.Printf("MQTT服务连接失败: %v，门岗事件将不广播", err)
	}

	// 初始化业务服务
	c.visitorService = services.NewVisitorService(c.db, c.config)
	c.userService = services.NewUserService(c.db, c.config, c.visitorService)
	c.visitService = services.NewVisitService(c.db, c.config, c.notificationService, c.gateEventService)
	c.appointmentService = services.NewAppointmentService(
		c.db, c.config,
		c.visitorService, c.visitService,
		c.notificationService, c.gateEventService,
		c.redisService,
	)
	c.settingsService = services.NewSettingsService(c.db)
	c.statsService = services.NewStatsService(c.db)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "notification":
		return c.notificationService
	case "gate_event":
		return c.gateEventService
	case "user":
		return c.userService
	case "visitor":
		return c.visitorService
	case "visit":
		return c.visitService
	case "appointment":
		return c.appointmentService
	case "settings":
		return c.settingsService
	case "stats":
		return c.statsService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Shutdown 关闭外发通道连接
func (c *ServiceContainer) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.notificationService != nil {
		c.notificationService.Disconnect()
	}
	if c.gateEventService != nil {
		c.gateEventService.Disconnect()
	}
}
