package controller

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/pkg/mygin"
	"github.com/vigilohq/vigilo/service/botstats"
	"github.com/vigilohq/vigilo/service/singleton"
)

const maxVisitsPerRequest = 100

type botVisitEntry struct {
	BotName     string `json:"bot_name" binding:"required"`
	BotCategory string `json:"bot_category"`
	Path        string `json:"path"`
	UserAgent   string `json:"user_agent"`
	Timestamp   int64  `json:"timestamp"`
}

type botVisitForm struct {
	Domain string          `json:"domain" binding:"required"`
	Visits []botVisitEntry `json:"visits" binding:"required"`
}

// createBotVisits 批量上报爬虫访问。未登记的爬虫名静默丢弃
func createBotVisits(c *gin.Context) {
	u := mygin.GetAuthorizedUser(c)

	var form botVisitForm
	if err := c.ShouldBindJSON(&form); err != nil {
		mygin.ShowError(c, http.StatusBadRequest, "请求体格式错误")
		return
	}
	if len(form.Visits) > maxVisitsPerRequest {
		mygin.ShowError(c, http.StatusBadRequest, "单次最多上报 100 条")
		return
	}

	var rows []model.BotVisit
	for _, v := range form.Visits {
		name := strings.ToLower(v.BotName)
		category, known := model.BotRegistry[name]
		if !known {
			continue
		}
		if v.BotCategory != "" {
			category = v.BotCategory
		}
		visitedAt := time.Now()
		if v.Timestamp > 0 {
			visitedAt = time.Unix(v.Timestamp, 0)
		}
		rows = append(rows, model.BotVisit{
			UserID:      u.ID,
			Domain:      form.Domain,
			BotName:     name,
			BotCategory: category,
			Path:        v.Path,
			UserAgent:   v.UserAgent,
			VisitedAt:   visitedAt,
		})
	}
	if len(rows) > 0 {
		if err := singleton.DB.Create(&rows).Error; err != nil {
			mygin.ShowError(c, http.StatusInternalServerError, "写入失败")
			return
		}
	}

	c.JSON(http.StatusOK, model.Response{
		Result: gin.H{"accepted": len(rows), "dropped": len(form.Visits) - len(rows)},
	})
}

// listBotVisits 查询小时聚合数据。可选过滤条件统一由
// 同一个查询组合而成，不为每种组合单写语句
func listBotVisits(c *gin.Context) {
	u := mygin.GetAuthorizedUser(c)

	q := singleton.DB.Model(&model.BotVisitHourly{}).Where("user_id = ?", u.ID)
	for column, value := range map[string]string{
		"domain":       c.Query("domain"),
		"bot_name":     c.Query("bot_name"),
		"bot_category": c.Query("bot_category"),
		"path":         c.Query("path"),
	} {
		if value != "" {
			q = q.Where(column+" = ?", value)
		}
	}
	if from, err := strconv.ParseInt(c.Query("from"), 10, 64); err == nil {
		q = q.Where("hour_bucket >= ?", time.Unix(from, 0))
	}
	if to, err := strconv.ParseInt(c.Query("to"), 10, 64); err == nil {
		q = q.Where("hour_bucket < ?", time.Unix(to, 0))
	}

	var rows []model.BotVisitHourly
	if err := q.Order("hour_bucket DESC").Limit(1000).Find(&rows).Error; err != nil {
		mygin.ShowError(c, http.StatusInternalServerError, "查询失败")
		return
	}
	c.JSON(http.StatusOK, model.Response{Result: rows})
}

// aiVisibility AI 可见度评分
func aiVisibility(c *gin.Context) {
	u := mygin.GetAuthorizedUser(c)

	domain := c.Query("domain")
	if domain == "" {
		mygin.ShowError(c, http.StatusBadRequest, "缺少 domain 参数")
		return
	}
	days := 7
	if c.Query("days") == "30" {
		days = 30
	}

	score, err := botstats.VisibilityScore(singleton.DB, u.ID, domain, days, time.Now())
	if err != nil {
		mygin.ShowError(c, http.StatusInternalServerError, "评分计算失败")
		return
	}
	c.JSON(http.StatusOK, model.Response{Result: score})
}
