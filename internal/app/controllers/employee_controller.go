package controllers

import (
	"github.com/gin-gonic/gin"

	"visitpulse-http-service/internal/app/middleware"
	"visitpulse-http-service/internal/domain/services"
	"visitpulse-http-service/internal/domain/services/container"
	"visitpulse-http-service/internal/error/code"
	"visitpulse-http-service/internal/error/response"
)

// InterfaceEmployeeController 定义被访员工控制器接口
type InterfaceEmployeeController interface {
	GetTodayAppointments()
	GetUpcomingAppointments()
	GetAppointmentHistory()
	GetMyStatistics()
}

// EmployeeController 处理被访员工侧的请求
type EmployeeController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewEmployeeController 创建一个新的员工控制器
func NewEmployeeController(ctx *gin.Context, container *container.ServiceContainer) *EmployeeController {
	return &EmployeeController{
		Ctx:       ctx,
		Container: container,
	}
}

// 1 GetTodayAppointments 今天名下的已批准预约
// @Summary      今日访客
// @Tags         Employee
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /employee/appointments/today [get]
func (c *EmployeeController) GetTodayAppointments() {
	actor := middleware.GetActor(c.Ctx)
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointments, err := appointmentService.ListForHostToday(actor)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取今日访客失败", nil)
		return
	}

	response.Success(c.Ctx, appointments)
}

// 2 GetUpcomingAppointments 未来名下的已批准预约
// @Summary      即将来访
// @Tags         Employee
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /employee/appointments/upcoming [get]
func (c *EmployeeController) GetUpcomingAppointments() {
	actor := middleware.GetActor(c.Ctx)
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointments, err := appointmentService.ListForHostUpcoming(actor)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取即将来访失败", nil)
		return
	}

	response.Success(c.Ctx, appointments)
}

// 3 GetAppointmentHistory 历史名下预约
// @Summary      历史访客
// @Tags         Employee
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /employee/appointments/history [get]
func (c *EmployeeController) GetAppointmentHistory() {
	actor := middleware.GetActor(c.Ctx)
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointments, err := appointmentService.ListForHostHistory(actor)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取历史访客失败", nil)
		return
	}

	response.Success(c.Ctx, appointments)
}

// 4 GetMyStatistics 名下预约统计
// @Summary      我的访客统计
// @Tags         Employee
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /employee/statistics [get]
func (c *EmployeeController) GetMyStatistics() {
	actor := middleware.GetActor(c.Ctx)
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	stats, err := appointmentService.GetHostStatistics(actor)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取统计失败", nil)
		return
	}

	response.Success(c.Ctx, stats)
}

// HandleEmployeeFunc 返回一个处理员工侧请求的Gin处理函数
func HandleEmployeeFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewEmployeeController(ctx, container)

		switch method {
		case "getTodayAppointments":
			controller.GetTodayAppointments()
		case "getUpcomingAppointments":
			controller.GetUpcomingAppointments()
		case "getAppointmentHistory":
			controller.GetAppointmentHistory()
		case "getMyStatistics":
			controller.GetMyStatistics()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
