package sweeper

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/service/probe"
)

// ProbeFunc 对单个目标做一次状态判定。返回 error 时该目标
// 从本轮结果中剔除，调度器不会替它合成 down
type ProbeFunc func(ctx context.Context, t *model.Target) (probe.Result, error)

type Options struct {
	TimeBudget    time.Duration // 整轮扫描的墙钟预算
	BatchSize     int
	ProbeTimeout  time.Duration
	SlowThreshold time.Duration
}

type Outcome struct {
	Target *model.Target
	Result probe.Result
}

// RunSweep 将目标按固定批次切分，批内并发探测，批间串行。
// 每批结束后检查已耗时，超出预算即停止调度后续批次，
// 已开始的批次允许完整跑完。单个目标的异常不影响同批其他目标
func RunSweep(ctx context.Context, targets []*model.Target, opt Options, fn ProbeFunc) []Outcome {
	if fn == nil {
		fn = func(ctx context.Context, t *model.Target) (probe.Result, error) {
			return probe.Probe(ctx, t.Domain, t.HealthCheckURL, probe.Options{
				Timeout:       opt.ProbeTimeout,
				SlowThreshold: opt.SlowThreshold,
			}), nil
		}
	}
	if opt.BatchSize <= 0 {
		opt.BatchSize = 50
	}

	start := time.Now()
	var (
		mu       sync.Mutex
		outcomes []Outcome
	)

	for offset := 0; offset < len(targets); offset += opt.BatchSize {
		end := offset + opt.BatchSize
		if end > len(targets) {
			end = len(targets)
		}

		var g errgroup.Group
		for _, t := range targets[offset:end] {
			t := t
			g.Go(func() error {
				defer func() {
					if p := recover(); p != nil {
						log.Printf("VIGILO>> 探测 %s 发生异常，剔除本轮结果: %v", t.Domain, p)
					}
				}()
				r, err := fn(ctx, t)
				if err != nil {
					if err != context.Canceled {
						log.Printf("VIGILO>> 探测 %s 失败，剔除本轮结果: %v", t.Domain, err)
					}
					return nil
				}
				mu.Lock()
				outcomes = append(outcomes, Outcome{Target: t, Result: r})
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		if opt.TimeBudget > 0 && time.Since(start) > opt.TimeBudget {
			if end < len(targets) {
				log.Printf("VIGILO>> 扫描超出预算 %v，剩余 %d 个目标留待下轮", opt.TimeBudget, len(targets)-end)
			}
			break
		}
	}

	return outcomes
}
