package singleton

import (
	"context"
	"log"
	"time"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"

	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/service/probe"
	"github.com/vigilohq/vigilo/service/sweeper"
)

// ApplyObservation 持久化一次状态判定并驱动状态变更通知。
// 状态记录与目标缓存状态在同一事务内落库，保证两者反映同一次观测
func ApplyObservation(targetID uint64, r probe.Result, fromHeartbeat bool) error {
	TargetLock.Lock()
	t, ok := TargetList[targetID]
	if !ok {
		TargetLock.Unlock()
		log.Printf("VIGILO>> 未知目标的状态上报 target_id=%d", targetID)
		return nil
	}
	prevStatus := t.LastStatus
	TargetLock.Unlock()

	now := time.Now()
	obs := model.Observation{
		TargetID:   targetID,
		Status:     r.Status,
		LatencyMS:  r.LatencyMS,
		StatusCode: r.StatusCode,
	}
	updates := map[string]interface{}{
		"last_status":     r.Status,
		"last_latency":    r.LatencyMS,
		"last_checked_at": now,
	}
	if fromHeartbeat {
		updates["last_heartbeat_at"] = now
	}
	err := DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&obs).Error; err != nil {
			return err
		}
		return tx.Model(&model.Target{}).Where("id = ?", targetID).Updates(updates).Error
	})
	if err != nil {
		log.Printf("VIGILO>> 状态记录持久化失败 target_id=%d: %v", targetID, err)
		return err
	}

	TargetLock.Lock()
	t.LastStatus = r.Status
	t.LastLatency = r.LatencyMS
	t.LastCheckedAt = now
	if fromHeartbeat {
		t.LastHeartbeatAt = &now
	}
	// 通知 goroutine 拿快照，避免持有注册表里的共享指针
	snapshot := model.Target{}
	copier.Copy(&snapshot, t)
	TargetLock.Unlock()

	// 首次观测（unknown 起步）只在直接探到 down 时通知，避免新目标上线刷屏
	if prevStatus != r.Status && (prevStatus != model.StatusUnknown || r.Status == model.StatusDown) {
		go SendTransitionNotification(&snapshot, prevStatus, r.Status)
	}
	return nil
}

func sweepOptions(budgetMS, batchSize uint64) sweeper.Options {
	return sweeper.Options{
		TimeBudget:    time.Duration(budgetMS) * time.Millisecond,
		BatchSize:     int(batchSize),
		ProbeTimeout:  time.Duration(Conf.ProbeTimeout) * time.Millisecond,
		SlowThreshold: time.Duration(Conf.SlowThresholdMS) * time.Millisecond,
	}
}

// RunFullSweep 对全部拉取模式的目标做一轮探测
func RunFullSweep() {
	targets := Targets(func(t *model.Target) bool {
		return !t.IsPushMode() && !t.Pending
	})
	opt := sweepOptions(Conf.SweepBudget, uint64(Conf.SweepBatchSize))
	outcomes := sweeper.RunSweep(context.Background(), targets, opt, nil)
	for _, oc := range outcomes {
		ApplyObservation(oc.Target.ID, oc.Result, false)
	}
	if Conf.Debug {
		log.Printf("VIGILO>> 全量扫描完成 %d/%d", len(outcomes), len(targets))
	}
}

// RunRecheckSweep 只复查当前 down 的目标，缩短恢复检出时间；
// 走同一条 RunSweep 路径，同样受时间预算保护
func RunRecheckSweep() {
	targets := Targets(func(t *model.Target) bool {
		return !t.IsPushMode() && !t.Pending && t.LastStatus == model.StatusDown
	})
	if len(targets) == 0 {
		return
	}
	opt := sweepOptions(Conf.RecheckBudget, uint64(Conf.RecheckBatchSize))
	outcomes := sweeper.RunSweep(context.Background(), targets, opt, nil)
	for _, oc := range outcomes {
		ApplyObservation(oc.Target.ID, oc.Result, false)
	}
}

// CheckStaleHeartbeats 推模式目标心跳静默超窗后判定为 dead
func CheckStaleHeartbeats() {
	deadline := time.Now().Add(-time.Duration(Conf.HeartbeatDeadAfter) * time.Second)
	stale := Targets(func(t *model.Target) bool {
		return t.IsPushMode() && t.LastStatus != model.StatusDead &&
			t.LastHeartbeatAt.Before(deadline)
	})
	for _, t := range stale {
		ApplyObservation(t.ID, probe.Result{
			Status:    model.StatusDead,
			CheckedAt: time.Now(),
		}, false)
	}
}

// PruneObservations 按用户套餐保留期清理状态记录
func PruneObservations() {
	var users []model.User
	if err := DB.Find(&users).Error; err != nil {
		log.Println("VIGILO>> 清理状态记录失败：", err)
		return
	}
	for _, u := range users {
		cutoff := time.Now().AddDate(0, 0, -u.ObservationRetentionDays())
		targetIDs := DB.Model(&model.Target{}).Select("id").Where("user_id = ?", u.ID)
		if err := DB.Where("target_id IN (?) AND created_at < ?", targetIDs, cutoff).
			Delete(&model.Observation{}).Error; err != nil {
			log.Printf("VIGILO>> 清理用户 %d 的状态记录失败：%v", u.ID, err)
		}
	}
}
