package model

// 状态严重程度按值递增，比较时可直接使用 < / >
const (
	StatusUnknown = iota
	StatusUp
	StatusSlow
	StatusDown
	StatusDead
)

// 状态变更事件名，与 Webhook 订阅的 events 列表对应
const (
	EventDead        = "dead"
	EventResurrected = "resurrected"
	EventDown        = "down"
	EventSlow        = "slow"
	EventRecovered   = "recovered"
)

func StatusToString(status int) string {
	switch status {
	case StatusUp:
		return "up"
	case StatusSlow:
		return "slow"
	case StatusDown:
		return "down"
	case StatusDead:
		return "dead"
	default:
		return "unknown"
	}
}

// TransitionEvent 将一次状态变更归类为通知事件，按优先级匹配：
// dead > resurrected > down > slow > recovered
func TransitionEvent(prevStatus, newStatus int) string {
	switch {
	case newStatus == StatusDead:
		return EventDead
	case prevStatus == StatusDead:
		return EventResurrected
	case newStatus == StatusDown:
		return EventDown
	case newStatus == StatusSlow:
		return EventSlow
	default:
		return EventRecovered
	}
}
