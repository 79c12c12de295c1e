package model

import (
	"time"
)

// Observation 单次探测/心跳的状态记录，只追加不修改，
// 按套餐保留期定期清理
type Observation struct {
	ID         uint64    `gorm:"primaryKey" json:"id,omitempty"`
	CreatedAt  time.Time `gorm:"index;<-:create;index:idx_target_id_created_at" json:"created_at"`
	TargetID   uint64    `gorm:"index:idx_target_id_created_at" json:"target_id"`
	Status     int       `json:"status"`
	LatencyMS  float32   `json:"latency_ms"`  // 毫秒
	StatusCode int       `json:"status_code"` // 网络级错误时为 0
}
