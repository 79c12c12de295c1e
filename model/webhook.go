package model

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vigilohq/vigilo/pkg/utils"
)

const (
	_ = iota
	WebhookTypeDiscord
	WebhookTypeSlack
	WebhookTypeCustom
)

// Webhook 用户配置的通知出口。Events 为订阅的事件名列表，
// 序列化进 EventsRaw 持久化
type Webhook struct {
	Common
	UserID        uint64   `json:"user_id"`
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	Type          int      `json:"type"`
	RequestHeader string   `json:"request_header,omitempty" gorm:"type:longtext"` // 附加请求头，JSON 对象
	EventsRaw     string   `json:"-" gorm:"default:'[]'"`
	Events        []string `json:"events" gorm:"-"`
	Active        bool     `json:"active"`
}

func (w *Webhook) BeforeSave(tx *gorm.DB) error {
	data, err := utils.Json.Marshal(w.Events)
	if err != nil {
		return err
	}
	w.EventsRaw = string(data)
	return nil
}

func (w *Webhook) AfterFind(tx *gorm.DB) error {
	return utils.Json.Unmarshal([]byte(w.EventsRaw), &w.Events)
}

// Subscribed 判断该 webhook 是否订阅了给定事件
func (w *Webhook) Subscribed(event string) bool {
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}

// TransitionMessage 一次状态变更（或告警）渲染进通知的内容。
// Text 非空时直接作为正文，用于非状态变更类告警
type TransitionMessage struct {
	Event      string
	TargetName string
	Domain     string
	PrevStatus int
	NewStatus  int
	Text       string
	OccurredAt time.Time
}

func (m *TransitionMessage) text() string {
	if m.Text != "" {
		return m.Text
	}
	return fmt.Sprintf("[%s] %s (%s): %s -> %s",
		strings.ToUpper(m.Event), m.TargetName, m.Domain,
		StatusToString(m.PrevStatus), StatusToString(m.NewStatus))
}

func eventColor(event string) int {
	switch event {
	case EventDown, EventDead:
		return 0xE74C3C
	case EventSlow:
		return 0xF1C40F
	default:
		return 0x2ECC71
	}
}

// BuildBody 按 webhook 类型渲染请求体
func (w *Webhook) BuildBody(m *TransitionMessage) (string, error) {
	title := fmt.Sprintf("%s is %s", m.TargetName, StatusToString(m.NewStatus))
	if m.Text != "" {
		title = fmt.Sprintf("%s: %s", m.TargetName, m.Event)
	}
	var body interface{}
	switch w.Type {
	case WebhookTypeDiscord:
		body = map[string]interface{}{
			"embeds": []map[string]interface{}{{
				"title":       title,
				"description": m.text(),
				"color":       eventColor(m.Event),
				"timestamp":   m.OccurredAt.UTC().Format(time.RFC3339),
			}},
		}
	case WebhookTypeSlack:
		body = map[string]interface{}{
			"blocks": []map[string]interface{}{{
				"type": "section",
				"text": map[string]interface{}{
					"type": "mrkdwn",
					"text": m.text(),
				},
			}},
		}
	case WebhookTypeCustom:
		body = map[string]interface{}{
			"event":       m.Event,
			"target":      m.TargetName,
			"domain":      m.Domain,
			"prev_status": StatusToString(m.PrevStatus),
			"new_status":  StatusToString(m.NewStatus),
			"message":     m.text(),
			"timestamp":   m.OccurredAt.Unix(),
		}
	default:
		return "", fmt.Errorf("不支持的 webhook 类型 %d", w.Type)
	}
	data, err := utils.Json.Marshal(body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (w *Webhook) setRequestHeader(req *http.Request) error {
	req.Header.Set("Content-Type", "application/json")
	if w.RequestHeader == "" {
		return nil
	}
	m, err := utils.GjsonParseStringMap(w.RequestHeader)
	if err != nil {
		return err
	}
	for k, v := range m {
		req.Header.Set(k, v)
	}
	return nil
}

// Send 投递一条状态变更通知，单次投递 5 秒超时，不重试
func (w *Webhook) Send(m *TransitionMessage) error {
	body, err := w.BuildBody(m)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, w.URL, strings.NewReader(body))
	if err != nil {
		return err
	}
	if err := w.setRequestHeader(req); err != nil {
		return err
	}

	resp, err := utils.WebhookClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%d@%s %s", resp.StatusCode, resp.Status, string(respBody))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
