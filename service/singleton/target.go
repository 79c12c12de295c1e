package singleton

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/pkg/utils"
)

// 被监控目标的内存注册表，缓存状态字段以此为准做变更 diff。
// 每个目标一轮扫描至多被探测一次，写入按目标粒度 last-writer-wins
var (
	TargetList map[uint64]*model.Target
	TargetLock sync.RWMutex
)

var ErrWatchListQuotaExceeded = errors.New("订阅数已达套餐上限")

func loadTargets() {
	TargetLock.Lock()
	defer TargetLock.Unlock()

	TargetList = make(map[uint64]*model.Target)
	var targets []*model.Target
	if err := DB.Find(&targets).Error; err != nil {
		panic(err)
	}
	for _, t := range targets {
		TargetList[t.ID] = t
	}
}

// Targets 返回满足条件的目标快照，按 ID 排序
func Targets(filter func(*model.Target) bool) []*model.Target {
	TargetLock.RLock()
	all := utils.MapValuesToSlice(TargetList)
	TargetLock.RUnlock()

	var targets []*model.Target
	for _, t := range all {
		if filter == nil || filter(t) {
			targets = append(targets, t)
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].ID < targets[j].ID
	})
	return targets
}

func OnTargetUpdate(t model.Target) {
	TargetLock.Lock()
	defer TargetLock.Unlock()
	TargetList[t.ID] = &t
}

func OnTargetDelete(ids []uint64) {
	TargetLock.Lock()
	defer TargetLock.Unlock()
	for _, id := range ids {
		delete(TargetList, id)
	}
}

// RegisterTarget 按域名注册监控目标，已存在时直接返回。
// 这是心跳首次上报的显式自动注册入口：派生展示名与 slug，
// 并在套餐配额内把上报用户加入该目标的订阅列表
func RegisterTarget(user *model.User, domain string) (*model.Target, error) {
	TargetLock.Lock()
	var existing *model.Target
	for _, t := range TargetList {
		if t.Domain == domain {
			existing = t
			break
		}
	}
	TargetLock.Unlock()

	if existing == nil {
		t := model.Target{
			UserID: user.ID,
			Name:   model.DomainToName(domain),
			Slug:   model.DomainToSlug(domain),
			Domain: domain,
		}
		if err := DB.Create(&t).Error; err != nil {
			return nil, err
		}
		TargetLock.Lock()
		TargetList[t.ID] = &t
		TargetLock.Unlock()
		existing = &t
	}

	if err := SubscribeWatchList(user, existing.ID); err != nil &&
		!errors.Is(err, ErrWatchListQuotaExceeded) {
		return nil, err
	} else if errors.Is(err, ErrWatchListQuotaExceeded) {
		log.Printf("VIGILO>> 用户 %d 订阅 %s 失败：%v", user.ID, domain, err)
	}
	return existing, nil
}

// RegisterPendingBySlug badge 首次访问未知 slug 时登记一条待确认记录
func RegisterPendingBySlug(slug string) (*model.Target, error) {
	t := model.Target{
		Name:    model.DomainToName(slug),
		Slug:    slug,
		Domain:  slug,
		Pending: true,
	}
	if err := DB.Create(&t).Error; err != nil {
		return nil, err
	}
	TargetLock.Lock()
	TargetList[t.ID] = &t
	TargetLock.Unlock()
	return &t, nil
}

// SubscribeWatchList 把目标加入用户订阅列表，受套餐配额约束
func SubscribeWatchList(user *model.User, targetID uint64) error {
	var existing model.WatchListItem
	err := DB.Where("user_id = ? AND target_id = ?", user.ID, targetID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var count int64
	if err := DB.Model(&model.WatchListItem{}).
		Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		return err
	}
	if count >= int64(user.WatchListQuota()) {
		return fmt.Errorf("%w: %d", ErrWatchListQuotaExceeded, user.WatchListQuota())
	}
	return DB.Create(&model.WatchListItem{UserID: user.ID, TargetID: targetID}).Error
}

// EnsureAPIToken 用户没有任何 API 令牌时生成一个
func EnsureAPIToken(userID uint64) (string, error) {
	var t model.ApiToken
	err := DB.Where("user_id = ?", userID).First(&t).Error
	if err == nil {
		return t.Token, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	token, err := utils.GenerateAPIToken()
	if err != nil {
		return "", err
	}
	t = model.ApiToken{UserID: userID, Token: token, Note: "auto-generated"}
	if err := DB.Create(&t).Error; err != nil {
		return "", err
	}
	return t.Token, nil
}
