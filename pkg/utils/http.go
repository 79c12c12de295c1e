package utils

import (
	"net/http"
	"time"
)

var (
	// ProbeClient 探测用，单次请求的截止时间由调用方 context 控制，
	// 这里的超时只兜底防止连接泄漏
	ProbeClient *http.Client
	// WebhookClient 通知投递用，硬性 5 秒超时
	WebhookClient *http.Client
	// FeedClient 拉取外部事件 Feed 用
	FeedClient *http.Client
)

func init() {
	ProbeClient = httpClient(30 * time.Second)
	WebhookClient = httpClient(5 * time.Second)
	FeedClient = httpClient(15 * time.Second)
}

func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 4,
		},
		Timeout: timeout,
	}
}
