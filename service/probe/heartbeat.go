package probe

import (
	"time"

	"github.com/vigilohq/vigilo/model"
)

// Interpret 从目标自行推送的健康负载得出状态结论，纯函数：
// 整体或任一子项 error -> down；degraded 或最大子项延迟超阈值 -> slow；其余 up。
// httpStatus 是目标上报时附带的自身 HTTP 状态（无则传 200）
func Interpret(payload *model.HealthCheckPayload, httpStatus int, maxCheckLatency float32, slowThreshold time.Duration) int {
	switch {
	case httpStatus >= 500 || payload.Status == model.HealthStatusError || payload.HasFailingCheck():
		return model.StatusDown
	case payload.Status == model.HealthStatusDegraded || maxCheckLatency > float32(slowThreshold.Milliseconds()):
		return model.StatusSlow
	default:
		return model.StatusUp
	}
}
