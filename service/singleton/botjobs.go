package singleton

import (
	"fmt"
	"log"
	"time"

	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/service/botstats"
)

// RunBotRollup 爬虫访问小时聚合任务
func RunBotRollup() {
	if err := botstats.Rollup(DB, time.Now()); err != nil {
		log.Println("VIGILO>> 爬虫访问聚合失败：", err)
	}
}

// CheckCrawlerSilence 指定爬虫超过静默窗口未出现时向域名所属用户告警，
// 同类告警受冷却期约束
func CheckCrawlerSilence() {
	type lastSeenRow struct {
		UserID   uint64
		Domain   string
		LastSeen time.Time
	}
	var rows []lastSeenRow
	if err := DB.Model(&model.BotVisitHourly{}).
		Select("user_id, domain, MAX(hour_bucket) AS last_seen").
		Where("bot_name = ?", Conf.CrawlerSilenceBot).
		Group("user_id, domain").Scan(&rows).Error; err != nil {
		log.Println("VIGILO>> 查询爬虫最近访问失败：", err)
		return
	}

	silence := time.Duration(Conf.CrawlerSilenceHours) * time.Hour
	for _, row := range rows {
		if time.Since(row.LastSeen) < silence {
			continue
		}
		text := fmt.Sprintf("[%s] %s 已连续 %d 小时未访问 %s",
			model.AlertTypeCrawlerSilence, Conf.CrawlerSilenceBot,
			Conf.CrawlerSilenceHours, row.Domain)
		SendCooldownAlert(row.UserID, row.Domain, model.AlertTypeCrawlerSilence, text)
	}
}
