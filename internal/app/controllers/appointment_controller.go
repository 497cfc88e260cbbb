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

// InterfaceAppointmentController 定义访客预约控制器接口
type InterfaceAppointmentController interface {
	CreateAppointment()
	GetMyAppointments()
	GetAppointment()
	UpdateAppointment()
	DeleteAppointment()
	UpdateMyProfile()
}

// AppointmentController 处理访客侧预约相关的请求
type AppointmentController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAppointmentController 创建一个新的预约控制器
func NewAppointmentController(ctx *gin.Context, container *container.ServiceContainer) *AppointmentController {
	return &AppointmentController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateAppointmentRequest 表示创建预约请求
type CreateAppointmentRequest struct {
	Date       string `json:"date" binding:"required" example:"2025-06-18"` // YYYY-MM-DD
	TimeOfDay  string `json:"time_of_day" binding:"required" example:"14:30"`
	Reason     string `json:"reason" binding:"required" example:"商务洽谈"`
	HostName   string `json:"host_name" example:"王经理"`
	Department string `json:"department" example:"市场部"`
	HostUserID *uint  `json:"host_user_id" example:"3"`
	Phone      string `json:"phone" example:"13812345678"`
	IDNumber   string `json:"id_number" example:"110101199001011234"`
}

// UpdateAppointmentRequest 表示修改预约请求，空字段保持原值
type UpdateAppointmentRequest struct {
	Date       string `json:"date" example:"2025-06-19"`
	TimeOfDay  string `json:"time_of_day" example:"15:00"`
	Reason     string `json:"reason"`
	HostName   string `json:"host_name"`
	Department string `json:"department"`
	HostUserID *uint  `json:"host_user_id"`
}

// VisitorProfileRequest 表示访客档案更新请求
type VisitorProfileRequest struct {
	Company      string `json:"company" example:"某某科技"`
	IDNumber     string `json:"id_number" example:"110101199001011234"`
	PlateNumber  string `json:"plate_number" example:"京A12345"`
	VisitorType  string `json:"visitor_type" example:"business"`
	ScanDocument string `json:"scan_document"`
}

// parseDate 解析 YYYY-MM-DD 日期参数
func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// 1 CreateAppointment 访客发起预约申请
// @Summary      创建预约
// @Description  访客发起预约申请，进入待审批状态
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        request body CreateAppointmentRequest true "预约信息"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /appointments [post]
func (c *AppointmentController) CreateAppointment() {
	var req CreateAppointmentRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	date, ok := parseDate(req.Date)
	if !ok {
		response.ParamError(c.Ctx, "日期格式应为 YYYY-MM-DD")
		return
	}

	actor := middleware.GetActor(c.Ctx)
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointment, err := appointmentService.CreatePlanned(actor, &services.AppointmentRequest{
		Date:       date,
		TimeOfDay:  req.TimeOfDay,
		Reason:     req.Reason,
		HostName:   req.HostName,
		Department: req.Department,
		HostUserID: req.HostUserID,
		Phone:      req.Phone,
		IDNumber:   req.IDNumber,
	})
	if err != nil {
		respondServiceError(c.Ctx, err, code.ErrAppointmentNotFound, code.ErrAppointmentStateConflict)
		return
	}

	response.Success(c.Ctx, appointment)
}

// 2 GetMyAppointments 获取当前访客的全部预约
// @Summary      我的预约列表
// @Tags         Appointment
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /appointments [get]
func (c *AppointmentController) GetMyAppointments() {
	actor := middleware.GetActor(c.Ctx)
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointments, err := appointmentService.ListForVisitor(actor)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取预约列表失败", nil)
		return
	}

	response.Success(c.Ctx, appointments)
}

// 3 GetAppointment 获取自己的预约详情
// @Summary      预约详情
// @Tags         Appointment
// @Produce      json
// @Param        id path int true "预约ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /appointments/{id} [get]
func (c *AppointmentController) GetAppointment() {
	idUint, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的预约ID")
		return
	}

	actor := middleware.GetActor(c.Ctx)
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointment, err := appointmentService.GetByIDForVisitor(uint(idUint), actor)
	if err != nil {
		respondServiceError(c.Ctx, err, code.ErrAppointmentNotFound, code.ErrAppointmentStateConflict)
		return
	}

	response.Success(c.Ctx, appointment)
}

// 4 UpdateAppointment 修改自己的待审批预约
// @Summary      修改预约
// @Description  只有待审批的预约可以修改，空字段保持原值
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        id path int true "预约ID"
// @Param        request body UpdateAppointmentRequest true "修改内容"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /appointments/{id} [put]
func (c *AppointmentController) UpdateAppointment() {
	idUint, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的预约ID")
		return
	}

	var req UpdateAppointmentRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	date, ok := parseDate(req.Date)
	if !ok {
		response.ParamError(c.Ctx, "日期格式应为 YYYY-MM-DD")
		return
	}

	actor := middleware.GetActor(c.Ctx)
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	appointment, err := appointmentService.Update(uint(idUint), actor, &services.AppointmentRequest{
		Date:       date,
		TimeOfDay:  req.TimeOfDay,
		Reason:     req.Reason,
		HostName:   req.HostName,
		Department: req.Department,
		HostUserID: req.HostUserID,
	})
	if err != nil {
		respondServiceError(c.Ctx, err, code.ErrAppointmentNotFound, code.ErrAppointmentStateConflict)
		return
	}

	response.Success(c.Ctx, appointment)
}

// 5 DeleteAppointment 取消自己的待审批预约
// @Summary      取消预约
// @Tags         Appointment
// @Produce      json
// @Param        id path int true "预约ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /appointments/{id} [delete]
func (c *AppointmentController) DeleteAppointment() {
	idUint, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的预约ID")
		return
	}

	actor := middleware.GetActor(c.Ctx)
	appointmentService := c.Container.GetService("appointment").(services.InterfaceAppointmentService)
	if err := appointmentService.Delete(uint(idUint), actor); err != nil {
		respondServiceError(c.Ctx, err, code.ErrAppointmentNotFound, code.ErrAppointmentStateConflict)
		return
	}

	response.Success(c.Ctx, gin.H{"deleted": true})
}

// 6 UpdateMyProfile 更新当前访客的档案
// @Summary      更新访客档案
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        request body VisitorProfileRequest true "档案信息"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /visitors/profile [put]
func (c *AppointmentController) UpdateMyProfile() {
	var req VisitorProfileRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	updates := map[string]interface{}{}
	if req.Company != "" {
		updates["company"] = req.Company
	}
	if req.IDNumber != "" {
		updates["id_number"] = req.IDNumber
	}
	if req.PlateNumber != "" {
		updates["plate_number"] = req.PlateNumber
	}
	if req.VisitorType != "" {
		updates["visitor_type"] = req.VisitorType
	}
	if req.ScanDocument != "" {
		updates["scan_document"] = req.ScanDocument
	}

	actor := middleware.GetActor(c.Ctx)
	visitorService := c.Container.GetService("visitor").(services.InterfaceVisitorService)
	visitor, err := visitorService.UpdateProfile(actor.ID, updates)
	if err != nil {
		respondServiceError(c.Ctx, err, code.ErrVisitorNotFound, code.ErrUserAlreadyExist)
		return
	}

	response.Success(c.Ctx, visitor)
}

// HandleAppointmentFunc 返回一个处理访客预约请求的Gin处理函数
func HandleAppointmentFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAppointmentController(ctx, container)

		switch method {
		case "createAppointment":
			controller.CreateAppointment()
		case "getMyAppointments":
			controller.GetMyAppointments()
		case "getAppointment":
			controller.GetAppointment()
		case "updateAppointment":
			controller.UpdateAppointment()
		case "deleteAppointment":
			controller.DeleteAppointment()
		case "updateMyProfile":
			controller.UpdateMyProfile()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
