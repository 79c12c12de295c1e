package singleton

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/vigilohq/vigilo/model"
)

// 通知出口的内存缓存
var (
	WebhookList map[uint64][]*model.Webhook // [UserID] -> 该用户的全部 webhook
	webhookLock sync.RWMutex
)

func loadWebhooks() {
	webhookLock.Lock()
	defer webhookLock.Unlock()

	WebhookList = make(map[uint64][]*model.Webhook)
	var webhooks []*model.Webhook
	if err := DB.Find(&webhooks).Error; err != nil {
		panic(err)
	}
	for _, w := range webhooks {
		WebhookList[w.UserID] = append(WebhookList[w.UserID], w)
	}
}

func OnRefreshOrAddWebhook(w *model.Webhook) {
	webhookLock.Lock()
	defer webhookLock.Unlock()

	list := WebhookList[w.UserID]
	for i := range list {
		if list[i].ID == w.ID {
			list[i] = w
			return
		}
	}
	WebhookList[w.UserID] = append(list, w)
}

func OnDeleteWebhook(userID, id uint64) {
	webhookLock.Lock()
	defer webhookLock.Unlock()

	list := WebhookList[userID]
	for i := range list {
		if list[i].ID == id {
			WebhookList[userID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// watcherIDs 目标的订阅用户（含所有者）
func watcherIDs(t *model.Target) []uint64 {
	var ids []uint64
	if err := DB.Model(&model.WatchListItem{}).
		Where("target_id = ?", t.ID).Pluck("user_id", &ids).Error; err != nil {
		log.Println("VIGILO>> 查询订阅列表失败：", err)
	}
	if t.UserID != 0 {
		for _, id := range ids {
			if id == t.UserID {
				return ids
			}
		}
		ids = append(ids, t.UserID)
	}
	return ids
}

// SendTransitionNotification 把一次状态变更投递给所有订阅了
// 对应事件的活跃 webhook。全部投递并发发出并等待结束；
// 单个出口的失败只记日志，不影响其余出口，也不上抛
func SendTransitionNotification(t *model.Target, prevStatus, newStatus int) {
	event := model.TransitionEvent(prevStatus, newStatus)
	msg := &model.TransitionMessage{
		Event:      event,
		TargetName: t.Name,
		Domain:     t.Domain,
		PrevStatus: prevStatus,
		NewStatus:  newStatus,
		OccurredAt: time.Now(),
	}

	webhookLock.RLock()
	var pending []*model.Webhook
	for _, uid := range watcherIDs(t) {
		for _, w := range WebhookList[uid] {
			if w.Active && w.Subscribed(event) {
				pending = append(pending, w)
			}
		}
	}
	webhookLock.RUnlock()

	dispatchAll(pending, msg)
}

// dispatchAll 并发投递并等待全部结束，错误就地吞掉
func dispatchAll(webhooks []*model.Webhook, msg *model.TransitionMessage) {
	var wg sync.WaitGroup
	for _, w := range webhooks {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Send(msg); err != nil {
				log.Printf("VIGILO>> 向 %s 投递 %s 通知失败：%v", w.Name, msg.Event, err)
			} else if Conf.Debug {
				log.Printf("VIGILO>> 向 %s 投递 %s 通知成功", w.Name, msg.Event)
			}
		}()
	}
	wg.Wait()
}

// SendCooldownAlert 非状态变更类告警，同一 (用户, 域名, 类型)
// 在冷却窗口内只告警一次。去重时间戳落库，进程重启不丢
func SendCooldownAlert(userID uint64, domain, alertType, text string) {
	cooldown := time.Duration(Conf.AlertCooldownHours) * time.Hour
	label := fmt.Sprintf("alert::%d-%s-%s", userID, domain, alertType)
	if _, muted := Cache.Get(label); muted {
		return
	}

	var state model.AlertState
	err := DB.Where("user_id = ? AND domain = ? AND alert_type = ?",
		userID, domain, alertType).First(&state).Error
	switch {
	case err == nil:
		if time.Since(state.LastAlertAt) < cooldown {
			Cache.Set(label, struct{}{}, time.Until(state.LastAlertAt.Add(cooldown)))
			return
		}
		state.LastAlertAt = time.Now()
		if err := DB.Save(&state).Error; err != nil {
			log.Println("VIGILO>> 更新告警状态失败：", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		state = model.AlertState{UserID: userID, Domain: domain,
			AlertType: alertType, LastAlertAt: time.Now()}
		if err := DB.Create(&state).Error; err != nil {
			log.Println("VIGILO>> 写入告警状态失败：", err)
		}
	default:
		log.Println("VIGILO>> 查询告警状态失败：", err)
		return
	}
	Cache.Set(label, struct{}{}, cooldown)

	msg := &model.TransitionMessage{
		Event:      alertType,
		TargetName: domain,
		Domain:     domain,
		Text:       text,
		OccurredAt: time.Now(),
	}

	webhookLock.RLock()
	var pending []*model.Webhook
	for _, w := range WebhookList[userID] {
		if w.Active && w.Subscribed(alertType) {
			pending = append(pending, w)
		}
	}
	webhookLock.RUnlock()

	dispatchAll(pending, msg)
}
