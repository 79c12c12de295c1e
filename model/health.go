package model

// 健康检查契约中的整体/子项状态取值
const (
	HealthStatusOK       = "ok"
	HealthStatusError    = "error"
	HealthStatusDegraded = "degraded"
)

// HealthCheckPayload 目标服务 /api/health 返回、或心跳推送的负载。
// Checks 缺失时表示只有整体结论，key 为依赖名
type HealthCheckPayload struct {
	Status string                     `json:"status"`
	Checks map[string]HealthCheckItem `json:"checks,omitempty"`
}

type HealthCheckItem struct {
	Status  string  `json:"status"`
	Latency float32 `json:"latency"` // 毫秒
	Message string  `json:"message,omitempty"`
}

// MaxCheckLatency 所有依赖子项中的最大延迟，作为目标的上报延迟
func (p *HealthCheckPayload) MaxCheckLatency() float32 {
	var max float32
	for _, c := range p.Checks {
		if c.Latency > max {
			max = c.Latency
		}
	}
	return max
}

// HasFailingCheck 任一依赖子项为 error 时整体视为故障
func (p *HealthCheckPayload) HasFailingCheck() bool {
	for _, c := range p.Checks {
		if c.Status == HealthStatusError {
			return true
		}
	}
	return false
}
