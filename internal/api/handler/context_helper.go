package handler

import (
	"github.com/gin-gonic/gin"

	"sipat/backend/pkg/response"
)

// MustGetOperadorID 从 Gin 上下文中安全提取 operador_id。
// 如果 JWT 中间件未正确注入 operador_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetOperadorID(c *gin.Context) (string, bool) {
	v, exists := c.Get("operador_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRol 从 Gin 上下文中安全提取 rol。
func MustGetRol(c *gin.Context) (string, bool) {
	v, exists := c.Get("rol")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}
