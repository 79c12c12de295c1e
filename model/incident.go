package model

import "time"

const (
	IncidentSeverityMinor    = "minor"
	IncidentSeverityMajor    = "major"
	IncidentSeverityCritical = "critical"
)

const (
	IncidentStatusInvestigating = "investigating"
	IncidentStatusIdentified    = "identified"
	IncidentStatusMonitoring    = "monitoring"
	IncidentStatusResolved      = "resolved"
)

// Incident 从目标状态页 Feed 导入的事件。
// (TargetID, SourceID) 是幂等导入的 upsert 键，重复导入只更新可变字段
type Incident struct {
	Common
	TargetID    uint64     `json:"target_id" gorm:"uniqueIndex:idx_incident_target_source"`
	SourceID    string     `json:"source_id" gorm:"uniqueIndex:idx_incident_target_source"`
	Title       string     `json:"title"`
	Description string     `json:"description" gorm:"type:longtext"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	SourceURL   string     `json:"source_url,omitempty"`
}
