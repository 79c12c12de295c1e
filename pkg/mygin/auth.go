package mygin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/service/singleton"
)

// Authorize 校验 Authorization 头中的 Bearer Token，
// 通过后将所属用户写入上下文
func Authorize() func(*gin.Context) {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer"))
		if token == "" {
			ShowError(c, http.StatusUnauthorized, "此接口需要认证")
			return
		}

		var t model.ApiToken
		if err := singleton.DB.Where("token = ?", token).First(&t).Error; err != nil {
			ShowError(c, http.StatusUnauthorized, "无效的访问令牌")
			return
		}
		var u model.User
		if err := singleton.DB.First(&u, t.UserID).Error; err != nil {
			ShowError(c, http.StatusUnauthorized, "令牌对应的用户不存在")
			return
		}
		c.Set(model.CtxKeyAuthorizedUser, &u)
		c.Next()
	}
}

// GetAuthorizedUser 从上下文取出已认证用户
func GetAuthorizedUser(c *gin.Context) *model.User {
	u, ok := c.Get(model.CtxKeyAuthorizedUser)
	if !ok {
		return nil
	}
	return u.(*model.User)
}
