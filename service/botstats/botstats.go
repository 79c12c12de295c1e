// Package botstats 爬虫访问的小时聚合与 AI 可见度评分
package botstats

import (
	"math"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vigilohq/vigilo/model"
)

const hourlyRetentionDays = 30

type bucketKey struct {
	UserID      uint64
	Domain      string
	BotName     string
	BotCategory string
	Path        string
	Hour        time.Time
}

// Rollup 将原始访问记录按 (用户, 域名, 爬虫, 路径, 小时) 聚合进小时表，
// 冲突时访问数累加，随后删除已聚合的原始行，并清理保留期外的小时行
func Rollup(db *gorm.DB, now time.Time) error {
	var maxID uint64
	if err := db.Model(&model.BotVisit{}).
		Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return err
	}
	if maxID == 0 {
		return pruneHourly(db, now)
	}

	var visits []model.BotVisit
	if err := db.Where("id <= ?", maxID).Find(&visits).Error; err != nil {
		return err
	}

	buckets := make(map[bucketKey]uint64)
	for _, v := range visits {
		buckets[bucketKey{
			UserID:      v.UserID,
			Domain:      v.Domain,
			BotName:     v.BotName,
			BotCategory: v.BotCategory,
			Path:        v.Path,
			Hour:        v.VisitedAt.UTC().Truncate(time.Hour),
		}]++
	}

	rows := make([]model.BotVisitHourly, 0, len(buckets))
	for k, count := range buckets {
		rows = append(rows, model.BotVisitHourly{
			UserID:      k.UserID,
			Domain:      k.Domain,
			BotName:     k.BotName,
			BotCategory: k.BotCategory,
			Path:        k.Path,
			HourBucket:  k.Hour,
			VisitCount:  count,
		})
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "user_id"}, {Name: "domain"}, {Name: "bot_name"},
					{Name: "path"}, {Name: "hour_bucket"},
				},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"visit_count": gorm.Expr("visit_count + excluded.visit_count"),
				}),
			}).Create(&rows).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("id <= ?", maxID).Delete(&model.BotVisit{}).Error; err != nil {
			return err
		}
		return pruneHourly(tx, now)
	})
}

func pruneHourly(db *gorm.DB, now time.Time) error {
	cutoff := now.AddDate(0, 0, -hourlyRetentionDays)
	return db.Where("hour_bucket < ?", cutoff).Delete(&model.BotVisitHourly{}).Error
}

// Score AI 可见度评分，四个分项独立封顶，总分 0-100
type Score struct {
	Total       int      `json:"total"`
	Label       string   `json:"label"`
	Diversity   int      `json:"diversity"`
	Frequency   int      `json:"frequency"`
	Coverage    int      `json:"coverage"`
	Trend       int      `json:"trend"`
	MissingBots []string `json:"missing_bots"`
}

// VisibilityScore 计算某域名在回看窗口（7 或 30 天）内、
// 仅统计 ai_crawler 分类的 AI 可见度
func VisibilityScore(db *gorm.DB, userID uint64, domain string, days int, now time.Time) (*Score, error) {
	since := now.AddDate(0, 0, -days)
	base := func() *gorm.DB {
		return db.Model(&model.BotVisitHourly{}).
			Where("user_id = ? AND domain = ? AND bot_category = ?",
				userID, domain, model.BotCategoryAICrawler)
	}

	var observedBots []string
	if err := base().Where("hour_bucket >= ? AND hour_bucket < ?", since, now).
		Distinct("bot_name").Pluck("bot_name", &observedBots).Error; err != nil {
		return nil, err
	}
	var distinctPages int64
	if err := base().Where("hour_bucket >= ? AND hour_bucket < ?", since, now).
		Distinct("path").Count(&distinctPages).Error; err != nil {
		return nil, err
	}
	var totalVisits, prevVisits int64
	if err := base().Where("hour_bucket >= ? AND hour_bucket < ?", since, now).
		Select("COALESCE(SUM(visit_count), 0)").Scan(&totalVisits).Error; err != nil {
		return nil, err
	}
	// 上一个等长窗口，用于趋势分
	if err := base().Where("hour_bucket >= ? AND hour_bucket < ?", since.AddDate(0, 0, -days), since).
		Select("COALESCE(SUM(visit_count), 0)").Scan(&prevVisits).Error; err != nil {
		return nil, err
	}

	allBots := model.AIBotNames()
	s := &Score{
		Diversity:   DiversityScore(len(observedBots), len(allBots)),
		Frequency:   FrequencyScore(float64(totalVisits) / float64(days)),
		Coverage:    CoverageScore(int(distinctPages)),
		Trend:       TrendScore(totalVisits, prevVisits),
		MissingBots: missingBots(allBots, observedBots),
	}
	s.Total = s.Diversity + s.Frequency + s.Coverage + s.Trend
	if s.Total > 100 {
		s.Total = 100
	}
	if s.Total < 0 {
		s.Total = 0
	}
	s.Label = scoreLabel(s.Total)
	return s, nil
}

// DiversityScore 见过的不同 AI 爬虫占比，封顶 30 分
func DiversityScore(distinctBots, totalBots int) int {
	if totalBots == 0 {
		return 0
	}
	if distinctBots > totalBots {
		distinctBots = totalBots
	}
	return int(math.Round(float64(distinctBots) / float64(totalBots) * 30))
}

// FrequencyScore 日均访问量的对数分，封顶 30 分
func FrequencyScore(avgDailyVisits float64) int {
	score := math.Round(math.Log10(avgDailyVisits+1) * 15)
	if score > 30 {
		score = 30
	}
	return int(score)
}

// CoverageScore 被爬取的不同页面数，20 页封顶 20 分
func CoverageScore(distinctPages int) int {
	ratio := float64(distinctPages) / 20
	if ratio > 1 {
		ratio = 1
	}
	return int(math.Round(ratio * 20))
}

// TrendScore 与上一个等长窗口相比的访问量变化阶梯分。
// 首次有数据（无上期）按 +100% 计
func TrendScore(current, previous int64) int {
	var pct float64
	if previous == 0 {
		pct = 100
	} else {
		pct = float64(current-previous) / float64(previous) * 100
	}
	switch {
	case pct >= 50:
		return 20
	case pct >= 20:
		return 15
	case pct >= 0:
		return 10
	case pct >= -20:
		return 5
	default:
		return 0
	}
}

func scoreLabel(total int) string {
	switch {
	case total <= 30:
		return "Low"
	case total <= 60:
		return "Medium"
	default:
		return "High"
	}
}

func missingBots(all, observed []string) []string {
	seen := make(map[string]bool, len(observed))
	for _, b := range observed {
		seen[b] = true
	}
	var missing []string
	for _, b := range all {
		if !seen[b] {
			missing = append(missing, b)
		}
	}
	sort.Strings(missing)
	return missing
}
