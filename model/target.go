package model

import (
	"strings"
	"time"
)

// 外部事件 Feed 格式
const (
	FeedProviderStatuspage = "statuspage"
	FeedProviderRSS        = "rss"
	FeedProviderAtom       = "atom"
)

// Target 被监控的服务
type Target struct {
	Common
	UserID         uint64 `json:"user_id"`
	Name           string `json:"name"`
	Slug           string `json:"slug" gorm:"uniqueIndex"`
	Domain         string `json:"domain" gorm:"uniqueIndex"`
	HealthCheckURL string `json:"health_check_url,omitempty"` // 为空时探测 https://{domain}/api/health
	FeedProvider   string `json:"feed_provider,omitempty"`
	FeedURL        string `json:"feed_url,omitempty"`
	Pending        bool   `json:"pending,omitempty"` // badge 首次访问自动注册、待确认的目标

	// 探测/心跳写入的缓存状态，状态变更检测以此为 diff 基准
	LastStatus      int        `json:"last_status"`
	LastLatency     float32    `json:"last_latency"` // 毫秒
	LastCheckedAt   time.Time  `json:"last_checked_at"`
	LastHeartbeatAt *time.Time `json:"last_heartbeat_at,omitempty"`
}

// IsPushMode 上报过心跳的目标走推模式，不参与拉取探测
func (t *Target) IsPushMode() bool {
	return t.LastHeartbeatAt != nil
}

// DomainToName 从域名派生展示名称，如 status.example.com -> "Status Example"
func DomainToName(domain string) string {
	host := domain
	if idx := strings.IndexByte(host, ':'); idx != -1 {
		host = host[:idx]
	}
	parts := strings.Split(host, ".")
	if len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// DomainToSlug 从域名派生 badge 路径用的 slug
func DomainToSlug(domain string) string {
	slug := strings.ToLower(domain)
	if idx := strings.IndexByte(slug, ':'); idx != -1 {
		slug = slug[:idx]
	}
	slug = strings.ReplaceAll(slug, ".", "-")
	return slug
}
