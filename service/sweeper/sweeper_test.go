package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/service/probe"
)

func makeTargets(n int) []*model.Target {
	targets := make([]*model.Target, 0, n)
	for i := 0; i < n; i++ {
		t := &model.Target{Domain: fmt.Sprintf("svc-%d.example.com", i)}
		t.ID = uint64(i + 1)
		targets = append(targets, t)
	}
	return targets
}

func TestRunSweepAllTargets(t *testing.T) {
	targets := makeTargets(7)
	var calls int32
	outcomes := RunSweep(context.Background(), targets, Options{BatchSize: 3},
		func(ctx context.Context, tg *model.Target) (probe.Result, error) {
			atomic.AddInt32(&calls, 1)
			return probe.Result{Status: model.StatusUp}, nil
		})
	assert.Equal(t, int32(7), atomic.LoadInt32(&calls))
	assert.Len(t, outcomes, 7)
}

func TestRunSweepConcurrencyBound(t *testing.T) {
	targets := makeTargets(20)
	var inflight, peak int32
	RunSweep(context.Background(), targets, Options{BatchSize: 5},
		func(ctx context.Context, tg *model.Target) (probe.Result, error) {
			cur := atomic.AddInt32(&inflight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inflight, -1)
			return probe.Result{Status: model.StatusUp}, nil
		})
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(5))
}

func TestRunSweepBudgetStopsScheduling(t *testing.T) {
	targets := makeTargets(6)
	var calls int32
	outcomes := RunSweep(context.Background(), targets,
		Options{BatchSize: 2, TimeBudget: 10 * time.Millisecond},
		func(ctx context.Context, tg *model.Target) (probe.Result, error) {
			atomic.AddInt32(&calls, 1)
			time.Sleep(50 * time.Millisecond)
			return probe.Result{Status: model.StatusUp}, nil
		})
	// 第一批跑完即超预算，后续批次不再调度；进行中的批次完整收尾
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Len(t, outcomes, 2)
}

func TestRunSweepErrorOmitsTarget(t *testing.T) {
	targets := makeTargets(4)
	outcomes := RunSweep(context.Background(), targets, Options{BatchSize: 4},
		func(ctx context.Context, tg *model.Target) (probe.Result, error) {
			if tg.ID == 2 {
				return probe.Result{}, errors.New("dial timeout")
			}
			return probe.Result{Status: model.StatusUp}, nil
		})
	assert.Len(t, outcomes, 3)
	for _, o := range outcomes {
		assert.NotEqual(t, uint64(2), o.Target.ID)
	}
}

func TestRunSweepPanicIsolation(t *testing.T) {
	targets := makeTargets(3)
	outcomes := RunSweep(context.Background(), targets, Options{BatchSize: 3},
		func(ctx context.Context, tg *model.Target) (probe.Result, error) {
			if tg.ID == 1 {
				panic("boom")
			}
			return probe.Result{Status: model.StatusUp}, nil
		})
	// 单个目标探测崩溃不影响同批其余目标
	assert.Len(t, outcomes, 2)
}

func TestRunSweepEmpty(t *testing.T) {
	outcomes := RunSweep(context.Background(), nil, Options{BatchSize: 10}, nil)
	assert.Empty(t, outcomes)
}
