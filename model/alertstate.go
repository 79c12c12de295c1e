package model

import "time"

const AlertTypeCrawlerSilence = "crawler_silence"

// AlertState 非状态变更类告警（如爬虫 48 小时未访问）的去重状态，
// 每个 (用户, 域名, 告警类型) 记录最近一次告警时间，冷却期内不重复告警
type AlertState struct {
	Common
	UserID      uint64    `json:"user_id" gorm:"uniqueIndex:idx_alert_state"`
	Domain      string    `json:"domain" gorm:"uniqueIndex:idx_alert_state"`
	AlertType   string    `json:"alert_type" gorm:"uniqueIndex:idx_alert_state"`
	LastAlertAt time.Time `json:"last_alert_at"`
}
