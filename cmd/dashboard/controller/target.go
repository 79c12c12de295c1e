package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/pkg/mygin"
	"github.com/vigilohq/vigilo/service/singleton"
)

// listTargets 当前用户拥有或订阅的目标及其缓存状态
func listTargets(c *gin.Context) {
	u := mygin.GetAuthorizedUser(c)

	var watchedIDs []uint64
	if err := singleton.DB.Model(&model.WatchListItem{}).
		Where("user_id = ?", u.ID).Pluck("target_id", &watchedIDs).Error; err != nil {
		mygin.ShowError(c, http.StatusInternalServerError, "查询失败")
		return
	}
	watched := make(map[uint64]bool, len(watchedIDs))
	for _, id := range watchedIDs {
		watched[id] = true
	}

	targets := singleton.Targets(func(t *model.Target) bool {
		return t.UserID == u.ID || watched[t.ID]
	})
	c.JSON(http.StatusOK, model.Response{Result: targets})
}
