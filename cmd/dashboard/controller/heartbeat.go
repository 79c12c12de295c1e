package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/pkg/mygin"
	"github.com/vigilohq/vigilo/service/probe"
	"github.com/vigilohq/vigilo/service/singleton"
)

type heartbeatForm struct {
	Domain    string                           `json:"domain" binding:"required"`
	Status    string                           `json:"status" binding:"required"`
	Timestamp int64                            `json:"timestamp"`
	Checks    map[string]model.HealthCheckItem `json:"checks"`
}

// heartbeat 推模式目标的自报健康入口。
// 首次上报会自动注册目标并订阅上报用户
func heartbeat(c *gin.Context) {
	u := mygin.GetAuthorizedUser(c)

	var form heartbeatForm
	if err := c.ShouldBindJSON(&form); err != nil {
		mygin.ShowError(c, http.StatusBadRequest, "请求体格式错误")
		return
	}

	payload := &model.HealthCheckPayload{
		Status: form.Status,
		Checks: form.Checks,
	}
	maxLatency := payload.MaxCheckLatency()
	slowThreshold := time.Duration(singleton.Conf.SlowThresholdMS) * time.Millisecond
	status := probe.Interpret(payload, http.StatusOK, maxLatency, slowThreshold)

	t, err := singleton.RegisterTarget(u, form.Domain)
	if err != nil {
		mygin.ShowError(c, http.StatusInternalServerError, "目标注册失败")
		return
	}
	singleton.ApplyObservation(t.ID, probe.Result{
		Status:     status,
		LatencyMS:  maxLatency,
		StatusCode: http.StatusOK,
		CheckedAt:  time.Now(),
	}, true)

	c.JSON(http.StatusOK, model.Response{
		Result: gin.H{
			"target_id": t.ID,
			"status":    model.StatusToString(status),
		},
	})
}
