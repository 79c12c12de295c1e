package singleton

import (
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/robfig/cron/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vigilohq/vigilo/model"
)

var Version = "v0.4.1"

var (
	Conf  *model.Config
	Cache *cache.Cache
	DB    *gorm.DB
	Loc   *time.Location
	Cron  *cron.Cron
)

// Init 初始化 singleton
func Init() {
	Loc = time.UTC
	Conf = &model.Config{}
	Cache = cache.New(5*time.Minute, 10*time.Minute)
	Cron = cron.New(cron.WithSeconds(), cron.WithLocation(Loc))
}

// LoadSingleton 加载子服务并执行
func LoadSingleton() {
	loadTargets()
	loadWebhooks()
	loadCronTasks()
}

// InitConfigFromPath 从给出的文件路径中加载配置
func InitConfigFromPath(path string) {
	c, err := model.ReadInConfig(path)
	if err != nil {
		panic(err)
	}
	Conf = c
}

// InitDBFromPath 从给出的文件路径中加载数据库
func InitDBFromPath(path string) {
	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	if Conf.Debug {
		DB = DB.Debug()
	}
	err = DB.AutoMigrate(model.User{}, model.ApiToken{}, model.Target{},
		model.Observation{}, model.Incident{}, model.Webhook{},
		model.WatchListItem{}, model.BotVisit{}, model.BotVisitHourly{},
		model.AlertState{})
	if err != nil {
		panic(err)
	}
}
