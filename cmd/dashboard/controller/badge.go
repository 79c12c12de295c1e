package controller

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/service/singleton"
)

// badge 返回目标当前缓存状态的 SVG 徽章。
// 未知 slug 首次访问时登记为待确认目标（显式契约，见 RegisterPendingBySlug）
func badge(c *gin.Context) {
	slug := c.Param("slug")

	var target *model.Target
	singleton.TargetLock.RLock()
	for _, t := range singleton.TargetList {
		if t.Slug == slug {
			target = t
			break
		}
	}
	singleton.TargetLock.RUnlock()

	status := model.StatusUnknown
	if target == nil {
		if _, err := singleton.RegisterPendingBySlug(slug); err != nil {
			log.Printf("VIGILO>> badge 自动注册 %s 失败：%v", slug, err)
		}
	} else {
		status = target.LastStatus
	}

	c.Header("Cache-Control", "no-cache, max-age=0")
	c.Data(http.StatusOK, "image/svg+xml; charset=utf-8", []byte(renderBadgeSVG(status)))
}

func badgeColor(status int) string {
	switch status {
	case model.StatusUp:
		return "#2ECC71"
	case model.StatusSlow:
		return "#F1C40F"
	case model.StatusDown, model.StatusDead:
		return "#E74C3C"
	default:
		return "#95A5A6"
	}
}

func renderBadgeSVG(status int) string {
	label := model.StatusToString(status)
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="96" height="20" role="img">`+
		`<rect width="50" height="20" fill="#555"/>`+
		`<rect x="50" width="46" height="20" fill="%s"/>`+
		`<g fill="#fff" text-anchor="middle" font-family="Verdana,sans-serif" font-size="11">`+
		`<text x="25" y="14">status</text>`+
		`<text x="73" y="14">%s</text>`+
		`</g></svg>`, badgeColor(status), label)
}
