package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"visitpulse-http-service/internal/domain/services"
	"visitpulse-http-service/internal/error/code"
	"visitpulse-http-service/internal/error/response"
)

// ErrorResponse 统一错误响应体（swagger文档用）
type ErrorResponse struct {
	Code    int         `json:"code" example:"100001"`
	Message string      `json:"message" example:"未知错误"`
	Data    interface{} `json:"data,omitempty"`
}

// respondServiceError 把服务层哨兵错误映射为统一响应。
// notFoundCode/conflictCode 按调用方的业务域传入。
func respondServiceError(ctx *gin.Context, err error, notFoundCode, conflictCode int) {
	switch {
	case errors.Is(err, services.ErrValidation):
		response.ParamError(ctx, err.Error())
	case errors.Is(err, services.ErrForbidden):
		response.FailWithMessage(ctx, code.ErrPermissionDenied, err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		response.FailWithMessage(ctx, notFoundCode, err.Error(), nil)
	case errors.Is(err, services.ErrConflict):
		response.FailWithMessage(ctx, conflictCode, err.Error(), nil)
	default:
		response.FailWithMessage(ctx, code.ErrDatabase, "数据库操作失败", nil)
	}
}
