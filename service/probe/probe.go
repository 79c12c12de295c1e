package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/pkg/utils"
)

const defaultHealthPath = "/api/health"

// 健康检查返回体的读取上限
const maxHealthBodyBytes = 64 * 1024

type Options struct {
	Timeout       time.Duration // 两次尝试共用的整体截止时间
	SlowThreshold time.Duration // 超过视为 slow
	Scheme        string        // 默认 https，内网/测试环境可置为 http
}

func (opt *Options) scheme() string {
	if opt.Scheme == "" {
		return "https"
	}
	return opt.Scheme
}

// Result 单次状态判定结果。任何网络/解析异常都折叠进 Status，
// Probe 不返回 error
type Result struct {
	Status             int
	LatencyMS          float32
	StatusCode         int // 网络级失败时为 0
	CheckedAt          time.Time
	UsedHealthEndpoint bool
	Payload            *model.HealthCheckPayload
}

// Probe 对目标做一次状态判定：先尝试结构化健康检查契约，
// 未实现（404/405/非 JSON/无 status 字段/超时）时退回裸连通性探测。
// 两次尝试共用同一个截止时间，最坏耗时不超过 opt.Timeout
func Probe(ctx context.Context, domain, healthURL string, opt Options) Result {
	ctx, cancel := context.WithTimeout(ctx, opt.Timeout)
	defer cancel()

	if healthURL == "" {
		healthURL = fmt.Sprintf("%s://%s%s", opt.scheme(), domain, defaultHealthPath)
	}

	if r, ok := probeHealthEndpoint(ctx, healthURL, opt); ok {
		return r
	}
	return probeFallback(ctx, fmt.Sprintf("%s://%s", opt.scheme(), domain), opt)
}

// probeHealthEndpoint 尝试健康检查端点。第二个返回值为 false 表示
// 契约未实现（miss），应退回裸探测；miss 不是故障
func probeHealthEndpoint(ctx context.Context, url string, opt Options) (Result, bool) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, false
	}
	resp, err := utils.ProbeClient.Do(req)
	if err != nil {
		// 超时/网络错误也按 miss 处理，剩余预算留给裸探测
		return Result{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusMethodNotAllowed {
		return Result{}, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHealthBodyBytes))
	if err != nil {
		return Result{}, false
	}
	latency := float32(time.Since(start).Milliseconds())

	if !gjson.ValidBytes(body) {
		return Result{}, false
	}
	statusField, err := utils.GjsonGet(body, "status")
	if err != nil {
		return Result{}, false
	}

	var payload model.HealthCheckPayload
	if err := utils.Json.Unmarshal(body, &payload); err != nil {
		// status 字段存在但整体结构对不上，保留宽松解析到的整体状态
		payload = model.HealthCheckPayload{Status: statusField.String()}
	}

	r := Result{
		LatencyMS:          latency,
		StatusCode:         resp.StatusCode,
		CheckedAt:          time.Now(),
		UsedHealthEndpoint: true,
		Payload:            &payload,
	}
	switch {
	case resp.StatusCode >= 500 || payload.Status == model.HealthStatusError || payload.HasFailingCheck():
		r.Status = model.StatusDown
	case payload.Status == model.HealthStatusDegraded || time.Since(start) > opt.SlowThreshold:
		r.Status = model.StatusSlow
	default:
		r.Status = model.StatusUp
	}
	return r, true
}

// probeFallback 裸连通性探测：HEAD 根路径。
// DNS/TLS/连接失败与超时统一折叠为 down、状态码 0
func probeFallback(ctx context.Context, url string, opt Options) Result {
	start := time.Now()
	r := Result{CheckedAt: time.Now()}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		r.Status = model.StatusDown
		return r
	}
	resp, err := utils.ProbeClient.Do(req)
	r.LatencyMS = float32(time.Since(start).Milliseconds())
	if err != nil {
		r.Status = model.StatusDown
		return r
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	r.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 500:
		r.Status = model.StatusDown
	case time.Since(start) > opt.SlowThreshold:
		r.Status = model.StatusSlow
	default:
		r.Status = model.StatusUp
	}
	return r
}
