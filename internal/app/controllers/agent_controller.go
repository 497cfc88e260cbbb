package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"visitpulse-http-service/internal/app/middleware"
	"visitpulse-http-service/internal/domain/services"
	"visitpulse-http-service/internal/domain/services/container"
	"visitpulse-http-service/internal/error/code"
	"visitpulse-http-service/internal/error/response"
)

// InterfaceAgentController 定义门岗控制器接口
type InterfaceAgentController interface {
	CreateWalkIn()
	VerifyCode()
	RecordArrival()
	RecordDeparture()
	GetActiveVisits()
	GetVisitHistory()
	GetVisitsByDate()
}

// AgentController 处理门岗登记相关的请求
type AgentController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAgentController 创建一个新的门岗控制器
func NewAgentController(ctx *gin.Context, container *container.ServiceContainer) *AgentController {
	return &AgentController{
		Ctx:       ctx,
		Container: container,
	}
}

// WalkInRequest 表示临时来访登记请求
type WalkInRequest struct {
	VisitorID   *uint  `json:"visitor_id" example:"5"`
	Email       string `json:"email" binding:"omitempty,email" example:"visitor@example.com"`
	VisitorName string `json:"visitor_name" example:"张 三"`
	Phone       string `json:"phone" example:"13812345678"`
	IDNumber    string `json:"id_number" example:"110101199001011234"`
	Reason      string `json:"reason" binding:"required" example:"临时拜访"`
	HostName    string `json:"host_name" example:"王经理"`
	Department  string `json:"department" example:"市场部"`
	HostUserID  *uint  `json:"host_user_id" example:"3"`
}

// 1 CreateWalkIn 登记临时来访
// @Summary      登记临时来访
// @Description  访客定位顺序：档案ID → 邮箱 → 占位账户；预约直接批准且来访立即开始
// @Tags         Agent
// @Accept       json
// @Produce      json
// @Param        request body WalkInRequest true "登记信息"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /agent/walk-ins [post]
func (c *AgentController) CreateWalkIn() {
	var req WalkInRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	actor := middleware.GetActor(c.Ctx)
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointment, err := appointmentService.CreateDirect(actor, &services.DirectAppointmentRequest{
		AppointmentRequest: services.AppointmentRequest{
			Reason:     req.Reason,
			HostName:   req.HostName,
			Department: req.Department,
			HostUserID: req.HostUserID,
			Phone:      req.Phone,
			IDNumber:   req.IDNumber,
		},
		VisitorID:   req.VisitorID,
		Email:       req.Email,
		VisitorName: req.VisitorName,
	})
	if err != nil {
		respondServiceError(c.Ctx, err, code.ErrVisitorNotFound, code.ErrAppointmentStateConflict)
		return
	}

	response.Success(c.Ctx, appointment)
}

// 2 VerifyCode 核验预约码
// @Summary      核验预约码
// @Tags         Agent
// @Produce      json
// @Param        code path string true "预约码"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /agent/appointments/code/{code} [get]
func (c *AgentController) VerifyCode() {
	codeParam := c.Ctx.Param("code")
	if codeParam == "" {
		response.ParamError(c.Ctx, "预约码不能为空")
		return
	}

	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)

	// 先走缓存，未命中再查库并回填
	redisService := c.Container.GetService("redis").(services.InterfaceRedisService)
	if cached, err := redisService.GetAppointmentByCode(codeParam); err == nil {
		response.Success(c.Ctx, cached)
		return
	}

	appointment, err := appointmentService.GetByCode(codeParam)
	if err != nil {
		respondServiceError(c.Ctx, err, code.ErrAppointmentCodeInvalid, code.ErrAppointmentStateConflict)
		return
	}

	_ = redisService.CacheAppointmentByCode(appointment, 5*time.Minute)
	response.Success(c.Ctx, appointment)
}

// 3 RecordArrival 登记访客到达
// @Summary      登记到达
// @Description  来访从待到访进入进行中，重复登记返回冲突
// @Tags         Agent
// @Produce      json
// @Param        id path int true "预约ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /agent/appointments/{id}/arrival [post]
func (c *AgentController) RecordArrival() {
	idUint, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的预约ID")
		return
	}

	actor := middleware.GetActor(c.Ctx)
	visitService := c.Container.GetService("visit").(services.InterfaceVisitService)
	visit, err := visitService.RecordArrival(uint(idUint), actor)
	if err != nil {
		respondServiceError(c.Ctx, err, code.ErrAppointmentNotFound, code.ErrVisitStateConflict)
		return
	}

	response.Success(c.Ctx, visit)
}

// 4 RecordDeparture 登记访客离开
// @Summary      登记离开
// @Description  来访从进行中进入已结束，未登记到达的来访返回冲突
// @Tags         Agent
// @Produce      json
// @Param        id path int true "来访ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /agent/visits/{id}/departure [post]
func (c *AgentController) RecordDeparture() {
	idUint, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的来访ID")
		return
	}

	actor := middleware.GetActor(c.Ctx)
	visitService := c.Container.GetService("visit").(services.InterfaceVisitService)
	visit, err := visitService.RecordDeparture(uint(idUint), actor)
	if err != nil {
		respondServiceError(c.Ctx, err, code.ErrVisitNotFound, code.ErrVisitStateConflict)
		return
	}

	response.Success(c.Ctx, visit)
}

// 5 GetActiveVisits 在场来访列表
// @Summary      在场来访
// @Tags         Agent
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /agent/visits/active [get]
func (c *AgentController) GetActiveVisits() {
	visitService := c.Container.GetService("visit").(services.InterfaceVisitService)
	visits, err := visitService.ListActive()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取在场来访失败", nil)
		return
	}

	response.Success(c.Ctx, visits)
}

// 6 GetVisitHistory 历史来访列表
// @Summary      历史来访
// @Tags         Agent
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /agent/visits/history [get]
func (c *AgentController) GetVisitHistory() {
	visitService := c.Container.GetService("visit").(services.InterfaceVisitService)
	visits, err := visitService.ListHistory()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取历史来访失败", nil)
		return
	}

	response.Success(c.Ctx, visits)
}

// 7 GetVisitsByDate 按日期查来访
// @Summary      按日期查来访
// @Tags         Agent
// @Produce      json
// @Param        date query string true "日期 YYYY-MM-DD"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /agent/visits [get]
func (c *AgentController) GetVisitsByDate() {
	dateParam := c.Ctx.Query("date")
	date, err := time.Parse("2006-01-02", dateParam)
	if err != nil {
		response.ParamError(c.Ctx, "日期格式应为 YYYY-MM-DD")
		return
	}

	visitService := c.Container.GetService("visit").(services.InterfaceVisitService)
	visits, err := visitService.ListByDate(date)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取来访列表失败", nil)
		return
	}

	response.Success(c.Ctx, visits)
}

// HandleAgentFunc 返回一个处理门岗请求的Gin处理函数
func HandleAgentFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAgentController(ctx, container)

		switch method {
		case "createWalkIn":
			controller.CreateWalkIn()
		case "verifyCode":
			controller.VerifyCode()
		case "recordArrival":
			controller.RecordArrival()
		case "recordDeparture":
			controller.RecordDeparture()
		case "getActiveVisits":
			controller.GetActiveVisits()
		case "getVisitHistory":
			controller.GetVisitHistory()
		case "getVisitsByDate":
			controller.GetVisitsByDate()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
