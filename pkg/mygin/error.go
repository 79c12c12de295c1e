package mygin

import (
	"github.com/gin-gonic/gin"

	"github.com/vigilohq/vigilo/model"
)

// ShowError 输出统一的错误响应并终止后续 handler
func ShowError(c *gin.Context, code int, msg string) {
	c.JSON(code, model.Response{
		Code:    uint64(code),
		Message: msg,
	})
	c.Abort()
}
