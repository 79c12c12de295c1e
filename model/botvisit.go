package model

import "time"

const BotCategoryAICrawler = "ai_crawler"

// BotRegistry 已知爬虫 UA 名称到分类的映射，未登记的名称在入库时直接丢弃
var BotRegistry = map[string]string{
	"googlebot":       "search",
	"bingbot":         "search",
	"duckduckbot":     "search",
	"yandexbot":       "search",
	"baiduspider":     "search",
	"gptbot":          BotCategoryAICrawler,
	"claudebot":       BotCategoryAICrawler,
	"perplexitybot":   BotCategoryAICrawler,
	"google-extended": BotCategoryAICrawler,
	"ccbot":           BotCategoryAICrawler,
	"bytespider":      BotCategoryAICrawler,
	"amazonbot":       BotCategoryAICrawler,
	"applebot":        BotCategoryAICrawler,
}

// AIBotNames 返回 ai_crawler 分类下的全部爬虫名
func AIBotNames() []string {
	var names []string
	for name, category := range BotRegistry {
		if category == BotCategoryAICrawler {
			names = append(names, name)
		}
	}
	return names
}

// BotVisit 单次爬虫访问的原始记录，小时聚合后删除
type BotVisit struct {
	ID          uint64    `gorm:"primaryKey" json:"id,omitempty"`
	CreatedAt   time.Time `gorm:"index;<-:create" json:"created_at"`
	UserID      uint64    `gorm:"index" json:"user_id"`
	Domain      string    `json:"domain"`
	BotName     string    `json:"bot_name"`
	BotCategory string    `json:"bot_category"`
	Path        string    `json:"path"`
	UserAgent   string    `json:"user_agent,omitempty"`
	VisitedAt   time.Time `json:"visited_at"`
}

// BotVisitHourly 小时聚合行，冲突时访问数累加
type BotVisitHourly struct {
	ID          uint64    `gorm:"primaryKey" json:"id,omitempty"`
	UserID      uint64    `gorm:"uniqueIndex:idx_bot_hourly" json:"user_id"`
	Domain      string    `gorm:"uniqueIndex:idx_bot_hourly" json:"domain"`
	BotName     string    `gorm:"uniqueIndex:idx_bot_hourly" json:"bot_name"`
	BotCategory string    `json:"bot_category"`
	Path        string    `gorm:"uniqueIndex:idx_bot_hourly" json:"path"`
	HourBucket  time.Time `gorm:"uniqueIndex:idx_bot_hourly;index" json:"hour_bucket"`
	VisitCount  uint64    `json:"visit_count"`
}
