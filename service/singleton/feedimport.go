package singleton

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/pkg/utils"
	"github.com/vigilohq/vigilo/service/feedparser"
)

const (
	maxFeedBodyBytes = 2 * 1024 * 1024
	feedImportWindow = 30 // 天
)

// ImportFeeds 逐目标拉取配置的事件 Feed 并幂等入库。
// 拉取失败按"本轮无事件"处理；单条入库失败不影响同批其余条目
func ImportFeeds() {
	targets := Targets(func(t *model.Target) bool {
		return t.FeedURL != ""
	})
	for _, t := range targets {
		raw, err := fetchFeed(t.FeedURL)
		if err != nil {
			log.Printf("VIGILO>> 拉取 %s 的事件 Feed 失败：%v", t.Domain, err)
			continue
		}

		var incidents []model.Incident
		switch t.FeedProvider {
		case model.FeedProviderStatuspage:
			incidents = feedparser.ParseStatuspageJSON(raw, t.FeedURL)
		case model.FeedProviderAtom:
			incidents = feedparser.ParseAtom(raw, t.FeedURL)
		default:
			incidents = feedparser.ParseRSS(raw, t.FeedURL)
		}

		window := time.Now().AddDate(0, 0, -feedImportWindow)
		for i := range incidents {
			if incidents[i].StartedAt.Before(window) {
				continue
			}
			incidents[i].TargetID = t.ID
			if err := UpsertIncident(&incidents[i]); err != nil {
				log.Printf("VIGILO>> 事件入库失败 %s/%s：%v", t.Domain, incidents[i].SourceID, err)
			}
		}
	}
}

// UpsertIncident 以 (target_id, source_id) 为键幂等写入：
// 已存在时只更新可变字段，不产生重复行
func UpsertIncident(inc *model.Incident) error {
	var existing model.Incident
	err := DB.Where("target_id = ? AND source_id = ?", inc.TargetID, inc.SourceID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DB.Create(inc).Error
	}
	if err != nil {
		return err
	}
	return DB.Model(&existing).Updates(map[string]interface{}{
		"title":       inc.Title,
		"description": inc.Description,
		"severity":    inc.Severity,
		"status":      inc.Status,
		"resolved_at": inc.ResolvedAt,
	}).Error
}

func fetchFeed(url string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json, application/rss+xml, application/atom+xml, application/xml, text/xml")
	resp, err := utils.FeedClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("feed 返回 %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
