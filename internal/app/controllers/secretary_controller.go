package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"visitpulse-http-service/internal/app/middleware"
	"visitpulse-http-service/internal/domain/services"
	"visitpulse-http-service/internal/domain/services/container"
	"visitpulse-http-service/internal/error/code"
	"visitpulse-http-service/internal/error/response"
)

// InterfaceSecretaryController 定义秘书工作台控制器接口
type InterfaceSecretaryController interface {
	GetPendingAppointments()
	GetApprovedToday()
	GetAppointmentDetail()
	ApproveAppointment()
	RejectAppointment()
	SearchVisitors()
}

// SecretaryController 处理预约审批相关的请求
type SecretaryController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewSecretaryController 创建一个新的秘书控制器
func NewSecretaryController(ctx *gin.Context, container *container.ServiceContainer) *SecretaryController {
	return &SecretaryController{
		Ctx:       ctx,
		Container: container,
	}
}

// 1 GetPendingAppointments 待审批的预约列表
// @Summary      待审批预约
// @Tags         Secretary
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /secretary/appointments/pending [get]
func (c *SecretaryController) GetPendingAppointments() {
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointments, err := appointmentService.ListPending()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取待审批预约失败", nil)
		return
	}

	response.Success(c.Ctx, appointments)
}

// 2 GetApprovedToday 今天已批准的预约列表
// @Summary      今日已批准预约
// @Tags         Secretary
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /secretary/appointments/today [get]
func (c *SecretaryController) GetApprovedToday() {
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointments, err := appointmentService.ListApprovedToday()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取今日预约失败", nil)
		return
	}

	response.Success(c.Ctx, appointments)
}

// 3 GetAppointmentDetail 预约详情
// @Summary      预约详情
// @Tags         Secretary
// @Produce      json
// @Param        id path int true "预约ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /secretary/appointments/{id} [get]
func (c *SecretaryController) GetAppointmentDetail() {
	idUint, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的预约ID")
		return
	}

	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointment, err := appointmentService.GetByID(uint(idUint))
	if err != nil {
		respondServiceError(c.Ctx, err, code.ErrAppointmentNotFound, code.ErrAppointmentStateConflict)
		return
	}

	response.Success(c.Ctx, appointment)
}

// 4 ApproveAppointment 审批通过预约
// @Summary      审批通过
// @Description  预约进入已批准状态并创建待到访的来访记录
// @Tags         Secretary
// @Produce      json
// @Param        id path int true "预约ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /secretary/appointments/{id}/approve [post]
func (c *SecretaryController) ApproveAppointment() {
	idUint, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的预约ID")
		return
	}

	actor := middleware.GetActor(c.Ctx)
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointment, err := appointmentService.Approve(uint(idUint), actor)
	if err != nil {
		respondServiceError(c.Ctx, err, code.ErrAppointmentNotFound, code.ErrAppointmentStateConflict)
		return
	}

	response.Success(c.Ctx, appointment)
}

// 5 RejectAppointment 拒绝预约
// @Summary      拒绝预约
// @Tags         Secretary
// @Produce      json
// @Param        id path int true "预约ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /secretary/appointments/{id}/reject [post]
func (c *SecretaryController) RejectAppointment() {
	idUint, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的预约ID")
		return
	}

	actor := middleware.GetActor(c.Ctx)
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointment, err := appointmentService.Reject(uint(idUint), actor)
	if err != nil {
		respondServiceError(c.Ctx, err, code.ErrAppointmentNotFound, code.ErrAppointmentStateConflict)
		return
	}

	response.Success(c.Ctx, appointment)
}

// 6 SearchVisitors 按姓名或邮箱搜索访客
// @Summary      搜索访客
// @Tags         Secretary
// @Produce      json
// @Param        q query string true "搜索关键字"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /secretary/visitors/search [get]
func (c *SecretaryController) SearchVisitors() {
	query := c.Ctx.Query("q")
	if query == "" {
		response.ParamError(c.Ctx, "搜索关键字不能为空")
		return
	}

	visitorService := c.Container.GetService("visitor").(services.InterfaceVisitorService)
	visitors, err := visitorService.Search(query)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "搜索访客失败", nil)
		return
	}

	response.Success(c.Ctx, visitors)
}

// HandleSecretaryFunc 返回一个处理秘书工作台请求的Gin处理函数
func HandleSecretaryFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewSecretaryController(ctx, container)

		switch method {
		case "getPendingAppointments":
			controller.GetPendingAppointments()
		case "getApprovedToday":
			controller.GetApprovedToday()
		case "getAppointmentDetail":
			controller.GetAppointmentDetail()
		case "approveAppointment":
			controller.ApproveAppointment()
		case "rejectAppointment":
			controller.RejectAppointment()
		case "searchVisitors":
			controller.SearchVisitors()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
