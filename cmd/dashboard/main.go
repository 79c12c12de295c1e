package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/ory/graceful"

	"github.com/vigilohq/vigilo/cmd/dashboard/controller"
	"github.com/vigilohq/vigilo/model"
	"github.com/vigilohq/vigilo/service/singleton"
)

func main() {
	var configPath, registerUser string
	flag.StringVar(&configPath, "c", "data/config.yaml", "配置文件路径")
	flag.StringVar(&registerUser, "register-user", "", "注册用户并打印其 API 令牌后退出")
	flag.Parse()

	singleton.Init()
	singleton.InitConfigFromPath(configPath)
	singleton.InitDBFromPath(singleton.Conf.DBPath)

	if registerUser != "" {
		var u model.User
		if err := singleton.DB.Where("username = ?", registerUser).
			FirstOrCreate(&u, model.User{Username: registerUser}).Error; err != nil {
			log.Panicln("VIGILO>> 注册用户失败：", err)
		}
		token, err := singleton.EnsureAPIToken(u.ID)
		if err != nil {
			log.Panicln("VIGILO>> 生成 API 令牌失败：", err)
		}
		fmt.Println(token)
		return
	}

	singleton.LoadSingleton()

	srv := graceful.WithDefaults(&http.Server{
		Addr:    singleton.Conf.Listen,
		Handler: controller.ServeWeb(),
	})
	log.Println("VIGILO>> 监听", singleton.Conf.Listen)
	if err := graceful.Graceful(srv.ListenAndServe, srv.Shutdown); err != nil {
		log.Println("VIGILO>> 服务退出：", err)
	}
}
