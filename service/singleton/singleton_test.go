package singleton

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/service/probe"
)

func setupTest(t *testing.T) {
	Init()
	Conf.FillDefaults()
	InitDBFromPath(filepath.Join(t.TempDir(), "vigilo.db"))
	TargetList = make(map[uint64]*model.Target)
	WebhookList = make(map[uint64][]*model.Webhook)
}

func TestUpsertIncidentIdempotent(t *testing.T) {
	setupTest(t)

	inc := model.Incident{
		TargetID: 1, SourceID: "abc123",
		Title: "Elevated error rates", Severity: model.IncidentSeverityMajor,
		Status: model.IncidentStatusInvestigating, StartedAt: time.Now(),
	}
	assert.NoError(t, UpsertIncident(&inc))

	// 同一 (target_id, source_id) 再次导入只更新可变字段
	resolved := time.Now()
	update := model.Incident{
		TargetID: 1, SourceID: "abc123",
		Title: "Elevated error rates", Severity: model.IncidentSeverityMajor,
		Status: model.IncidentStatusResolved, StartedAt: inc.StartedAt,
		ResolvedAt: &resolved,
	}
	assert.NoError(t, UpsertIncident(&update))

	var count int64
	assert.NoError(t, DB.Model(&model.Incident{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var got model.Incident
	assert.NoError(t, DB.Where("target_id = ? AND source_id = ?", 1, "abc123").First(&got).Error)
	assert.Equal(t, model.IncidentStatusResolved, got.Status)
	assert.NotNil(t, got.ResolvedAt)

	// 不同 source_id 是另一条事件
	other := model.Incident{TargetID: 1, SourceID: "def456", Title: "Other", StartedAt: time.Now()}
	assert.NoError(t, UpsertIncident(&other))
	assert.NoError(t, DB.Model(&model.Incident{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRegisterTargetIdempotent(t *testing.T) {
	setupTest(t)

	u := &model.User{Plan: model.PlanFree}
	assert.NoError(t, DB.Create(u).Error)

	t1, err := RegisterTarget(u, "api.example.com")
	assert.NoError(t, err)
	assert.Equal(t, "Api Example", t1.Name)
	assert.Equal(t, "api-example-com", t1.Slug)

	t2, err := RegisterTarget(u, "api.example.com")
	assert.NoError(t, err)
	assert.Equal(t, t1.ID, t2.ID)

	var count int64
	assert.NoError(t, DB.Model(&model.Target{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	// 上报用户只被订阅一次
	assert.NoError(t, DB.Model(&model.WatchListItem{}).
		Where("user_id = ?", u.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubscribeWatchListQuota(t *testing.T) {
	setupTest(t)

	u := &model.User{Plan: model.PlanFree}
	assert.NoError(t, DB.Create(u).Error)

	for i := uint64(1); i <= uint64(u.WatchListQuota()); i++ {
		assert.NoError(t, SubscribeWatchList(u, i))
	}
	err := SubscribeWatchList(u, 999)
	assert.ErrorIs(t, err, ErrWatchListQuotaExceeded)

	// 已订阅目标重复订阅不占配额也不报错
	assert.NoError(t, SubscribeWatchList(u, 1))
}

func TestEnsureAPIToken(t *testing.T) {
	setupTest(t)

	token, err := EnsureAPIToken(7)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "vgl_"))

	again, err := EnsureAPIToken(7)
	assert.NoError(t, err)
	assert.Equal(t, token, again)
}

func newNotifyTarget(t *testing.T, userID uint64, domain string, status int) *model.Target {
	target := &model.Target{
		UserID: userID, Name: model.DomainToName(domain),
		Slug: model.DomainToSlug(domain), Domain: domain, LastStatus: status,
	}
	assert.NoError(t, DB.Create(target).Error)
	TargetLock.Lock()
	TargetList[target.ID] = target
	TargetLock.Unlock()
	return target
}

func TestApplyObservationNotifies(t *testing.T) {
	setupTest(t)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	target := newNotifyTarget(t, 1, "example.com", model.StatusUp)
	WebhookList[1] = []*model.Webhook{{
		UserID: 1, Name: "ops", URL: srv.URL, Type: model.WebhookTypeCustom,
		Events: []string{model.EventDown}, Active: true,
	}}

	assert.NoError(t, ApplyObservation(target.ID, probe.Result{
		Status: model.StatusDown, LatencyMS: 120, StatusCode: 503, CheckedAt: time.Now(),
	}, false))

	// 状态记录与目标缓存字段同批落库
	var obs model.Observation
	assert.NoError(t, DB.Where("target_id = ?", target.ID).First(&obs).Error)
	assert.Equal(t, model.StatusDown, obs.Status)
	assert.Equal(t, 503, obs.StatusCode)

	var stored model.Target
	assert.NoError(t, DB.First(&stored, target.ID).Error)
	assert.Equal(t, model.StatusDown, stored.LastStatus)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&hits) == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestApplyObservationNoNotifyOnSameStatus(t *testing.T) {
	setupTest(t)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	target := newNotifyTarget(t, 1, "example.com", model.StatusUp)
	WebhookList[1] = []*model.Webhook{{
		UserID: 1, Name: "ops", URL: srv.URL, Type: model.WebhookTypeCustom,
		Events: []string{model.EventDown, model.EventRecovered}, Active: true,
	}}

	assert.NoError(t, ApplyObservation(target.ID, probe.Result{
		Status: model.StatusUp, CheckedAt: time.Now(),
	}, false))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestApplyObservationFirstObservationSuppressed(t *testing.T) {
	setupTest(t)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	WebhookList[1] = []*model.Webhook{{
		UserID: 1, Name: "ops", URL: srv.URL, Type: model.WebhookTypeCustom,
		Events: []string{model.EventDown, model.EventRecovered}, Active: true,
	}}

	// 新目标首次探到 up 不通知
	up := newNotifyTarget(t, 1, "example.com", model.StatusUnknown)
	assert.NoError(t, ApplyObservation(up.ID, probe.Result{
		Status: model.StatusUp, CheckedAt: time.Now(),
	}, false))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestCheckStaleHeartbeats(t *testing.T) {
	setupTest(t)

	stale := time.Now().Add(-time.Duration(Conf.HeartbeatDeadAfter+60) * time.Second)
	fresh := time.Now()

	dead := newNotifyTarget(t, 1, "dead.example.com", model.StatusUp)
	dead.LastHeartbeatAt = &stale
	alive := newNotifyTarget(t, 1, "alive.example.com", model.StatusUp)
	alive.LastHeartbeatAt = &fresh

	CheckStaleHeartbeats()

	TargetLock.RLock()
	defer TargetLock.RUnlock()
	assert.Equal(t, model.StatusDead, TargetList[dead.ID].LastStatus)
	assert.Equal(t, model.StatusUp, TargetList[alive.ID].LastStatus)
}

func TestDispatchAllFailureIsolation(t *testing.T) {
	setupTest(t)

	var okHits int32
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&okHits, 1)
	}))
	defer okSrv.Close()
	badSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer badSrv.Close()

	webhook := func(url string) *model.Webhook {
		return &model.Webhook{Name: "ops", URL: url, Type: model.WebhookTypeCustom, Active: true}
	}
	// 中间一个出口失败，不影响其余出口投递
	dispatchAll([]*model.Webhook{
		webhook(okSrv.URL), webhook(badSrv.URL), webhook(okSrv.URL),
	}, &model.TransitionMessage{
		Event: model.EventDown, TargetName: "Example", Domain: "example.com",
		PrevStatus: model.StatusUp, NewStatus: model.StatusDown, OccurredAt: time.Now(),
	})
	assert.Equal(t, int32(2), atomic.LoadInt32(&okHits))
}

func TestSendCooldownAlertDeduplicates(t *testing.T) {
	setupTest(t)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	WebhookList[1] = []*model.Webhook{{
		UserID: 1, Name: "ops", URL: srv.URL, Type: model.WebhookTypeCustom,
		Events: []string{model.AlertTypeCrawlerSilence}, Active: true,
	}}

	SendCooldownAlert(1, "example.com", model.AlertTypeCrawlerSilence, "googlebot 已静默 48 小时")
	SendCooldownAlert(1, "example.com", model.AlertTypeCrawlerSilence, "googlebot 已静默 49 小时")

	// 冷却窗口内同类告警只发一次
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	var state model.AlertState
	assert.NoError(t, DB.Where("user_id = ? AND domain = ? AND alert_type = ?",
		1, "example.com", model.AlertTypeCrawlerSilence).First(&state).Error)
	assert.WithinDuration(t, time.Now(), state.LastAlertAt, 5*time.Second)

	// 其他域名不受影响
	SendCooldownAlert(1, "other.example.com", model.AlertTypeCrawlerSilence, "静默")
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
