package model

const (
	PlanFree = iota
	PlanPro
)

type User struct {
	Common
	Username string `json:"username,omitempty" gorm:"uniqueIndex"`
	Plan     int    `json:"plan"`
}

// ObservationRetentionDays 状态记录保留天数，按套餐区分
func (u *User) ObservationRetentionDays() int {
	if u.Plan == PlanPro {
		return 30
	}
	return 1
}

// WatchListQuota 可订阅目标数上限
func (u *User) WatchListQuota() int {
	if u.Plan == PlanPro {
		return 100
	}
	return 5
}

// WatchListItem 用户订阅的目标，状态变更按此表寻找要通知的用户
type WatchListItem struct {
	Common
	UserID   uint64 `json:"user_id" gorm:"uniqueIndex:idx_watchlist_user_target"`
	TargetID uint64 `json:"target_id" gorm:"uniqueIndex:idx_watchlist_user_target"`
}
