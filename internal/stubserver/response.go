package stubserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 所有接口使用扁平的 {success, message, ...} 结构，便于前端统一判断

type failBody struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// success 返回成功响应，body 需要自带 success 字段
func success(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}

// fail 返回业务失败（HTTP 200 + success=false）
func fail(c *gin.Context, message string) {
	c.JSON(http.StatusOK, failBody{Success: false, Message: message})
}

// badRequest 返回 400 错误（请求参数错误）
func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, failBody{Success: false, Message: message})
}

// notFound 返回 404 错误（资源不存在）
func notFound(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusNotFound, failBody{Success: false, Message: message})
}
