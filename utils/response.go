package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RespondSuccess 统一成功响应格式
func RespondSuccess(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": data,
		"meta": meta,
	})
}

// RespondError 统一错误响应格式
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"code":  status,
		"error": message,
	})
}
