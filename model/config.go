package model

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config ..
type Config struct {
	Debug  bool
	Listen string // HTTP 监听地址
	DBPath string // sqlite 文件路径
	Site   struct {
		Brand string
	}

	// 探测参数
	ProbeTimeout    uint64 // 单次探测超时，毫秒
	SlowThresholdMS uint64 // 超过视为 slow，毫秒

	// 全量扫描
	SweepInterval    uint64 // 秒
	SweepBudget      uint64 // 单次扫描时间预算，毫秒
	SweepBatchSize   int
	// down 目标复查扫描
	RecheckInterval  uint64 // 秒
	RecheckBudget    uint64 // 毫秒
	RecheckBatchSize int

	// 心跳静默判定 dead 的窗口，秒
	HeartbeatDeadAfter uint64

	// 爬虫静默告警
	CrawlerSilenceBot   string // 监控的爬虫名
	CrawlerSilenceHours uint64 // 静默多久触发告警
	AlertCooldownHours  uint64 // 同类告警冷却期
}

// FillDefaults 为未配置项填入默认值
func (c *Config) FillDefaults() {
	if c.Listen == "" {
		c.Listen = ":8008"
	}
	if c.DBPath == "" {
		c.DBPath = "data/vigilo.db"
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = 10000
	}
	if c.SlowThresholdMS == 0 {
		c.SlowThresholdMS = 3000
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 300
	}
	if c.SweepBudget == 0 {
		c.SweepBudget = 60000
	}
	if c.SweepBatchSize == 0 {
		c.SweepBatchSize = 50
	}
	if c.RecheckInterval == 0 {
		c.RecheckInterval = 60
	}
	if c.RecheckBudget == 0 {
		c.RecheckBudget = 20000
	}
	if c.RecheckBatchSize == 0 {
		c.RecheckBatchSize = 10
	}
	if c.HeartbeatDeadAfter == 0 {
		c.HeartbeatDeadAfter = 300
	}
	if c.CrawlerSilenceBot == "" {
		c.CrawlerSilenceBot = "googlebot"
	}
	if c.CrawlerSilenceHours == 0 {
		c.CrawlerSilenceHours = 48
	}
	if c.AlertCooldownHours == 0 {
		c.AlertCooldownHours = 48
	}
}

// ReadInConfig ..
func ReadInConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}
	var c Config

	err = viper.Unmarshal(&c)
	if err != nil {
		return nil, err
	}
	c.FillDefaults()

	viper.OnConfigChange(func(in fsnotify.Event) {
		viper.Unmarshal(&c)
		c.FillDefaults()
	})

	go viper.WatchConfig()
	return &c, nil
}
