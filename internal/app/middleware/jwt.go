package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visitpulse-http-service/internal/domain/models"
	"visitpulse-http-service/internal/domain/services"
	"visitpulse-http-service/internal/infrastructure/config"
)

var (
	jwtService services.InterfaceJWTService
	authDB     *gorm.DB
)

// InitAuthMiddleware 初始化认证中间件
func InitAuthMiddleware(cfg *config.Config, db *gorm.DB) {
	jwtService = services.NewJWTService(cfg)
	authDB = db
}

// extractToken 从授权头中提取token
func extractToken(authHeader string) string {
	// 检查并移除 "Bearer " 前缀
	if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    401,
		"message": message,
		"data":    nil,
	})
	c.Abort()
}

// Authenticate 通用认证中间件。
// 校验令牌后从数据库加载操作者账户放进上下文，被停用的账户直接拒绝。
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		tokenString := extractToken(authHeader)
		claims, err := jwtService.ExtractClaims(tokenString)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		var actor models.User
		if err := authDB.First(&actor, claims.UserID).Error; err != nil {
			abortUnauthorized(c, "账户不存在或已被删除")
			return
		}
		if !actor.Active {
			abortUnauthorized(c, "账户已被停用")
			return
		}

		c.Set("userID", actor.ID)
		c.Set("role", string(actor.Role))
		c.Set("actor", &actor)
		c.Next()
	}
}

// RequireRoles 校验操作者角色，须在 Authenticate 之后挂载
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("actor")
		if !exists {
			abortUnauthorized(c, "Authorization header is required")
			return
		}
		actor := value.(*models.User)

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": "Insufficient permissions: requires " + rolesLabel(roles),
			"data":    nil,
		})
		c.Abort()
	}
}

// GetActor 从上下文取出已认证的操作者账户
func GetActor(c *gin.Context) *models.User {
	value, exists := c.Get("actor")
	if !exists {
		return nil
	}
	return value.(*models.User)
}

func rolesLabel(roles []models.Role) string {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	return strings.Join(names, "|") + " role"
}
