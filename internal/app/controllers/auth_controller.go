package controllers

import (
	"github.com/gin-gonic/gin"

	"visitpulse-http-service/internal/app/middleware"
	"visitpulse-http-service/internal/domain/models"
	"visitpulse-http-service/internal/domain/services"
	"visitpulse-http-service/internal/domain/services/container"
	"visitpulse-http-service/internal/error/code"
	"visitpulse-http-service/internal/error/response"
	"visitpulse-http-service/pkg/utils"
)

// InterfaceAuthController 定义认证控制器接口
type InterfaceAuthController interface {
	Login()
	Register()
	GetCurrentUser()
}

// AuthController 处理认证相关的请求
type AuthController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAuthController 创建一个新的认证控制器
func NewAuthController(ctx *gin.Context, container *container.ServiceContainer) *AuthController {
	return &AuthController{
		Ctx:       ctx,
		Container: container,
	}
}

// LoginRequest 表示登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"visitor@example.com"`
	Password string `json:"password" binding:"required" example:"123456"`
}

// RegisterRequest 表示访客注册请求
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required" example:"三"`
	LastName  string `json:"last_name" binding:"required" example:"张"`
	Email     string `json:"email" binding:"required,email" example:"visitor@example.com"`
	Phone     string `json:"phone" example:"13812345678"`
	Password  string `json:"password" binding:"required,min=6" example:"123456"`
}

// Login 用户登录
// @Summary      用户登录
// @Description  使用邮箱和密码登录，返回JWT令牌
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "登录信息"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/login [post]
func (c *AuthController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.FindByEmail(req.Email)
	if err != nil {
		// 不区分账户不存在和密码错误
		response.FailWithMessage(c.Ctx, code.ErrUserPasswordIncorrect, "邮箱或密码错误", nil)
		return
	}

	if !user.Active {
		response.FailWithMessage(c.Ctx, code.ErrPermissionDenied, "账户已被停用", nil)
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		response.FailWithMessage(c.Ctx, code.ErrUserPasswordIncorrect, "邮箱或密码错误", nil)
		return
	}

	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)
	token, err := jwtService.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}

	response.Success(c.Ctx, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"email":      user.Email,
			"role":       user.Role,
		},
	})
}

// Register 访客自助注册
// @Summary      访客注册
// @Description  注册新的访客账户并自动建立访客档案
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "注册信息"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /auth/register [post]
func (c *AuthController) Register() {
	var req RegisterRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.RegisterVisitor(&models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
	})
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

// GetCurrentUser 获取当前登录用户信息
// @Summary      当前用户
// @Description  返回令牌对应的账户信息及访客档案
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/me [get]
func (c *AuthController) GetCurrentUser() {
	actor := middleware.GetActor(c.Ctx)
	if actor == nil {
		response.Unauthorized(c.Ctx)
		return
	}

	result := gin.H{
		"id":         actor.ID,
		"first_name": actor.FirstName,
		"last_name":  actor.LastName,
		"full_name":  actor.FullName(),
		"email":      actor.Email,
		"phone":      actor.Phone,
		"role":       actor.Role,
	}

	// 访客附带档案信息
	if actor.Role == models.RoleVisitor {
		visitorService := c.Container.GetService("visitor").(services.InterfaceVisitorService)
		if profile, err := visitorService.GetProfile(actor.ID); err == nil {
			result["visitor_profile"] = profile
		}
	}

	response.Success(c.Ctx, result)
}

// HandleAuthFunc 返回一个处理认证请求的Gin处理函数
func HandleAuthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAuthController(ctx, container)

		switch method {
		case "login":
			controller.Login()
		case "register":
			controller.Register()
		case "getCurrentUser":
			controller.GetCurrentUser()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
