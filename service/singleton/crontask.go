package singleton

import (
	"fmt"
)

// loadCronTasks 注册全部周期任务。每次触发都是带预算的一次性批任务
func loadCronTasks() {
	jobs := []struct {
		spec string
		job  func()
	}{
		{fmt.Sprintf("@every %ds", Conf.SweepInterval), RunFullSweep},
		{fmt.Sprintf("@every %ds", Conf.RecheckInterval), RunRecheckSweep},
		{"@every 60s", CheckStaleHeartbeats},
		{"@every 600s", ImportFeeds},
		{"0 5 * * * *", RunBotRollup}, // 每小时第 5 分钟聚合
		{"0 30 * * * *", CheckCrawlerSilence},
		{"0 0 3 * * *", PruneObservations}, // 每日 03:00 清理
	}
	for _, j := range jobs {
		if _, err := Cron.AddFunc(j.spec, j.job); err != nil {
			panic(err)
		}
	}
	Cron.Start()
}
