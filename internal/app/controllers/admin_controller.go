package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"visitpulse-http-service/internal/app/middleware"
	"visitpulse-http-service/internal/domain/models"
	"visitpulse-http-service/internal/domain/services"
	"visitpulse-http-service/internal/domain/services/container"
	"visitpulse-http-service/internal/error/code"
	"visitpulse-http-service/internal/error/response"
)

// InterfaceAdminController 定义管理员控制器接口
type InterfaceAdminController interface {
	GetUsers()
	CreateUser()
	GetAllAppointments()
	GetDashboardStats()
	GetSettings()
	GetPublicSettings()
	UpdateSettings()
	TriggerArchive()
}

// AdminController 处理管理员侧的请求
type AdminController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAdminController 创建一个新的管理员控制器
func NewAdminController(ctx *gin.Context, container *container.ServiceContainer) *AdminController {
	return &AdminController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateUserRequest 表示管理员创建账户请求
type CreateUserRequest struct {
	FirstName string `json:"first_name" binding:"required" example:"四"`
	LastName  string `json:"last_name" binding:"required" example:"李"`
	Email     string `json:"email" binding:"required,email" example:"secretary@example.com"`
	Phone     string `json:"phone" example:"13812345678"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role" binding:"required" example:"secretary"`
}

// 1 GetUsers 分页获取用户列表
// @Summary      用户列表
// @Tags         Admin
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/users [get]
func (c *AdminController) GetUsers() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	users, total, err := userService.GetAllUsers(page, pageSize)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取用户列表失败", nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        users,
	})
}

// 2 CreateUser 创建账户（秘书/门岗/员工等）
// @Summary      创建账户
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "账户信息"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /admin/users [post]
func (c *AdminController) CreateUser() {
	var req CreateUserRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	role := models.Role(req.Role)
	switch role {
	case models.RoleVisitor, models.RoleEmployee, models.RoleSecretary, models.RoleAgent, models.RoleAdmin:
	default:
		response.ParamError(c.Ctx, "无效的角色: "+req.Role)
		return
	}

	actor := middleware.GetActor(c.Ctx)
	userService := c.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.CreateUser(&models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		Role:      role,
	}, actor.Role)
	if err != nil {
		respondServiceError(c.Ctx, err, code.ErrUserNotFound, code.ErrUserAlreadyExist)
		return
	}

	response.Success(c.Ctx, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
	})
}

// 3 GetAllAppointments 全部预约
// @Summary      全部预约
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/appointments [get]
func (c *AdminController) GetAllAppointments() {
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointments, err := appointmentService.ListAll()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取预约列表失败", nil)
		return
	}

	response.Success(c.Ctx, appointments)
}

// 4 GetDashboardStats 总览统计
// @Summary      总览统计
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/stats [get]
func (c *AdminController) GetDashboardStats() {
	statsService := c.Container.GetService("stats").(services.InterfaceStatsService)
	stats, err := statsService.GetDashboardStats()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取统计失败", nil)
		return
	}

	response.Success(c.Ctx, stats)
}

// 5 GetSettings 系统设置
// @Summary      系统设置
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/settings [get]
func (c *AdminController) GetSettings() {
	settingsService := c.Container.GetService("settings").(services.InterfaceSettingsService)
	settings, err := settingsService.GetSettings()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取系统设置失败", nil)
		return
	}

	response.Success(c.Ctx, settings)
}

// GetPublicSettings 欢迎页需要的公开设置子集，免认证
// @Summary      公开设置
// @Tags         Public
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /settings [get]
func (c *AdminController) GetPublicSettings() {
	settingsService := c.Container.GetService("settings").(services.InterfaceSettingsService)
	settings, err := settingsService.GetSettings()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取系统设置失败", nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"organization_name":   settings.OrganizationName,
		"welcome_title":       settings.WelcomeTitle,
		"welcome_subtitle":    settings.WelcomeSubtitle,
		"welcome_description": settings.WelcomeDescription,
		"copyright_text":      settings.CopyrightText,
		"support_contact":     settings.SupportContact,
		"help_center_url":     settings.HelpCenterURL,
	})
}

// 6 UpdateSettings 更新系统设置
// @Summary      更新系统设置
// @Description  只覆盖请求里出现的字段
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body services.SystemSettingRequest true "设置内容"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/settings [put]
func (c *AdminController) UpdateSettings() {
	var req services.SystemSettingRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	settingsService := c.Container.GetService("settings").(services.InterfaceSettingsService)
	settings, err := settingsService.UpdateSettings(&req)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新系统设置失败", nil)
		return
	}

	// 设置读接口挂了缓存，更新后主动作废
	middleware.PurgeCache()
	response.Success(c.Ctx, settings)
}

// 7 TriggerArchive 手动触发过期预约归档
// @Summary      手动归档
// @Description  归档日期已过但从未到访的已批准预约，与每日定时任务同一逻辑
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/appointments/archive [post]
func (c *AdminController) TriggerArchive() {
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	archived, err := appointmentService.ArchiveExpired()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "归档失败", nil)
		return
	}

	response.Success(c.Ctx, gin.H{"archived": archived})
}

// HandleAdminFunc 返回一个处理管理员请求的Gin处理函数
func HandleAdminFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAdminController(ctx, container)

		switch method {
		case "getUsers":
			controller.GetUsers()
		case "createUser":
			controller.CreateUser()
		case "getAllAppointments":
			controller.GetAllAppointments()
		case "getDashboardStats":
			controller.GetDashboardStats()
		case "getSettings":
			controller.GetSettings()
		case "getPublicSettings":
			controller.GetPublicSettings()
		case "updateSettings":
			controller.UpdateSettings()
		case "triggerArchive":
			controller.TriggerArchive()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
