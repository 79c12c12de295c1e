package controller

import (
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/vigilohq/vigilo/pkg/mygin"
	"github.com/vigilohq/vigilo/service/singleton"
)

// ServeWeb 构建 HTTP 路由
func ServeWeb() http.Handler {
	if singleton.Conf.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	if singleton.Conf.Debug {
		pprof.Register(r)
	}

	r.GET("/api/badge/:slug", badge)

	api := r.Group("/api/v1")
	api.Use(mygin.Authorize())
	api.POST("/heartbeat", heartbeat)
	api.POST("/bot-visits", createBotVisits)
	api.GET("/bot-visits", listBotVisits)
	api.GET("/ai-visibility", aiVisibility)
	api.GET("/targets", listTargets)

	return r
}
