package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "visitpulse-http-service/docs"
	"visitpulse-http-service/internal/app/controllers"
	"visitpulse-http-service/internal/app/middleware"
	"visitpulse-http-service/internal/domain/models"
	"visitpulse-http-service/internal/domain/services/container"
	"visitpulse-http-service/internal/infrastructure/config"
	"visitpulse-http-service/internal/infrastructure/database"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config, pool *database.ConnectionPool) (*gin.Engine, *container.ServiceContainer) {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})

	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg, db)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerRoutes(r, serviceContainer, pool)
	return r, serviceContainer
}

// registerRoutes 配置所有API路由
func registerRoutes(r *gin.Engine, c *container.ServiceContainer, pool *database.ConnectionPool) {
	api := r.Group("/api")

	registerPublicRoutes(api, c, pool)
	registerVisitorRoutes(api, c)
	registerSecretaryRoutes(api, c)
	registerAgentRoutes(api, c)
	registerEmployeeRoutes(api, c)
	registerAdminRoutes(api, c)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(api *gin.RouterGroup, c *container.ServiceContainer, pool *database.ConnectionPool) {
	// 每秒10个请求，最多突发20个
	api.Use(middleware.IPRateLimiter(10, 20))

	// 健康检查路由
	health := controllers.NewHealthCheckController(pool)
	api.GET("/ping", health.Ping)
	api.GET("/health", health.Ping) // 兼容Docker健康检查

	// 认证路由，登录口单独收紧限流
	api.POST("/auth/login", middleware.LoginRateLimiter(1, 5), controllers.HandleAuthFunc(c, "login"))
	api.POST("/auth/register", controllers.HandleAuthFunc(c, "register"))

	// 欢迎页公开设置
	api.GET("/settings", middleware.Cache(5*time.Minute), controllers.HandleAdminFunc(c, "getPublicSettings"))
}

// registerVisitorRoutes 注册访客侧路由
func registerVisitorRoutes(api *gin.RouterGroup, c *container.ServiceContainer) {
	visitor := api.Group("/")
	visitor.Use(middleware.Authenticate())

	visitor.GET("/auth/me", controllers.HandleAuthFunc(c, "getCurrentUser"))

	appointments := visitor.Group("/appointments")
	appointments.Use(middleware.RequireRoles(models.RoleVisitor))
	appointments.POST("", controllers.HandleAppointmentFunc(c, "createAppointment"))
	appointments.GET("", controllers.HandleAppointmentFunc(c, "getMyAppointments"))
	appointments.GET("/:id", controllers.HandleAppointmentFunc(c, "getAppointment"))
	appointments.PUT("/:id", controllers.HandleAppointmentFunc(c, "updateAppointment"))
	appointments.DELETE("/:id", controllers.HandleAppointmentFunc(c, "deleteAppointment"))

	profile := visitor.Group("/visitors")
	profile.Use(middleware.RequireRoles(models.RoleVisitor))
	profile.PUT("/profile", controllers.HandleAppointmentFunc(c, "updateMyProfile"))
}

// registerSecretaryRoutes 注册秘书工作台路由
func registerSecretaryRoutes(api *gin.RouterGroup, c *container.ServiceContainer) {
	secretary := api.Group("/secretary")
	secretary.Use(middleware.Authenticate())
	secretary.Use(middleware.RequireRoles(models.RoleSecretary, models.RoleAdmin))

	secretary.GET("/appointments/pending", controllers.HandleSecretaryFunc(c, "getPendingAppointments"))
	secretary.GET("/appointments/today", controllers.HandleSecretaryFunc(c, "getApprovedToday"))
	secretary.GET("/appointments/:id", controllers.HandleSecretaryFunc(c, "getAppointmentDetail"))
	secretary.POST("/appointments/:id/approve", controllers.HandleSecretaryFunc(c, "approveAppointment"))
	secretary.POST("/appointments/:id/reject", controllers.HandleSecretaryFunc(c, "rejectAppointment"))
	secretary.GET("/visitors/search", controllers.HandleSecretaryFunc(c, "searchVisitors"))
}

// registerAgentRoutes 注册门岗路由
func registerAgentRoutes(api *gin.RouterGroup, c *container.ServiceContainer) {
	agent := api.Group("/agent")
	agent.Use(middleware.Authenticate())
	agent.Use(middleware.RequireRoles(models.RoleAgent, models.RoleAdmin))

	agent.POST("/walk-ins", controllers.HandleAgentFunc(c, "createWalkIn"))
	agent.GET("/appointments/code/:code", controllers.HandleAgentFunc(c, "verifyCode"))
	agent.POST("/appointments/:id/arrival", controllers.HandleAgentFunc(c, "recordArrival"))
	agent.POST("/appointments/:id/approve", controllers.HandleSecretaryFunc(c, "approveAppointment"))
	agent.POST("/appointments/:id/reject", controllers.HandleSecretaryFunc(c, "rejectAppointment"))
	agent.POST("/visits/:id/departure", controllers.HandleAgentFunc(c, "recordDeparture"))
	agent.GET("/visits/active", controllers.HandleAgentFunc(c, "getActiveVisits"))
	agent.GET("/visits/history", controllers.HandleAgentFunc(c, "getVisitHistory"))
	agent.GET("/visits", controllers.HandleAgentFunc(c, "getVisitsByDate"))
}

// registerEmployeeRoutes 注册被访员工路由
func registerEmployeeRoutes(api *gin.RouterGroup, c *container.ServiceContainer) {
	employee := api.Group("/employee")
	employee.Use(middleware.Authenticate())
	employee.Use(middleware.RequireRoles(models.RoleEmployee, models.RoleAdmin))

	employee.GET("/appointments/today", controllers.HandleEmployeeFunc(c, "getTodayAppointments"))
	employee.GET("/appointments/upcoming", controllers.HandleEmployeeFunc(c, "getUpcomingAppointments"))
	employee.GET("/appointments/history", controllers.HandleEmployeeFunc(c, "getAppointmentHistory"))
	employee.GET("/statistics", controllers.HandleEmployeeFunc(c, "getMyStatistics"))
}

// registerAdminRoutes 注册管理员路由
func registerAdminRoutes(api *gin.RouterGroup, c *container.ServiceContainer) {
	admin := api.Group("/admin")
	admin.Use(middleware.Authenticate())
	admin.Use(middleware.RequireRoles(models.RoleAdmin))

	admin.GET("/users", controllers.HandleAdminFunc(c, "getUsers"))
	admin.POST("/users", controllers.HandleAdminFunc(c, "createUser"))
	admin.GET("/appointments", controllers.HandleAdminFunc(c, "getAllAppointments"))
	admin.POST("/appointments/archive", controllers.HandleAdminFunc(c, "triggerArchive"))
	admin.GET("/stats", middleware.Cache(30*time.Second), controllers.HandleAdminFunc(c, "getDashboardStats"))
	admin.GET("/settings", middleware.Cache(5*time.Minute), controllers.HandleAdminFunc(c, "getSettings"))
	admin.PUT("/settings", controllers.HandleAdminFunc(c, "updateSettings"))
}
