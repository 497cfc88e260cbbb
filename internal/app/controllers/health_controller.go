package controllers

import (
	"github.com/gin-gonic/gin"

	"visitpulse-http-service/internal/error/response"
	"visitpulse-http-service/internal/infrastructure/database"
)

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	Pool *database.ConnectionPool
}

// NewHealthCheckController 创建健康检查控制器实例
func NewHealthCheckController(pool *database.ConnectionPool) *HealthCheckController {
	return &HealthCheckController{Pool: pool}
}

// Ping 健康检查端点
func (h *HealthCheckController) Ping(c *gin.Context) {
	dbStatus := "healthy"
	if h.Pool != nil {
		if err := h.Pool.HealthCheck(); err != nil {
			dbStatus = "unhealthy"
		}
	}

	response.Success(c, gin.H{
		"status":   "healthy",
		"database": dbStatus,
		"message":  "pong",
	})
}
