// Package routers 组装 HTTP 与 WebSocket 路由
package routers

import (
	"time"

	"github.com/caredraft/draft-sync-service/internal/app"
	"github.com/caredraft/draft-sync-service/internal/middleware"
	"github.com/caredraft/draft-sync-service/internal/routers/api_router"
	"github.com/caredraft/draft-sync-service/internal/routers/websocket_router"
	pkgapp "github.com/caredraft/draft-sync-service/pkg/app"
	"github.com/caredraft/draft-sync-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/lxzan/gws"
)

var methodLimiters = limiter.NewMethodLimiter().AddBuckets(
	limiter.BucketRule{
		Key:          "/auth",
		FillInterval: time.Second,
		Capacity:     10,
		Quantum:      10,
	},
)

// NewRouter 创建主路由
// 注入 App Container 与翻译器，组装中间件链、HTTP API 与 WebSocket 入口
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	var wss = pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:    true,
			ParallelEnabled:     true,                                 // 开启并行消息处理
			Recovery:            gws.Recovery,                         // 开启异常恢复
			PermessageDeflate:   gws.PermessageDeflate{Enabled: true}, // 开启压缩
			ParallelGolimit:     8,
			ReadMaxPayloadSize:  1024 * 1024 * 16, // 设置最大读取缓冲区大小 16MB
			WriteMaxPayloadSize: 1024 * 1024 * 16, // 设置最大写入缓冲区大小 16MB
		},
		TokenSecret: cfg.Security.AuthTokenKey,
	})

	// 创建 WebSocket Handler（注入 App Container）
	sectionWSHandler := websocket_router.NewSectionWSHandler(appContainer)

	// 章节修改 创建
	wss.Use("SectionModify", sectionWSHandler.SectionModify)
	// 章节删除
	wss.Use("SectionDelete", sectionWSHandler.SectionDelete)
	// 章节状态检查
	wss.Use("SectionCheck", sectionWSHandler.SectionCheck)
	// 基于 mtime 的增量同步
	wss.Use("SectionSync", sectionWSHandler.SectionSync)

	wss.UserDataSelectUse(sectionWSHandler.UserInfo)

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(gin.Logger())
		api.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.Cors())
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		userHandler := api_router.NewUserHandler(appContainer)
		sectionHandler := api_router.NewSectionHandler(appContainer, wss)
		versionHandler := api_router.NewSectionVersionHandler(appContainer, wss)
		commentHandler := api_router.NewCommentHandler(appContainer, wss)
		serverVersionHandler := api_router.NewVersionHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)

		api.POST("/user/register", userHandler.Register)
		api.POST("/user/login", userHandler.Login)
		api.GET("/user/sync", wss.Run())

		// 无需认证的系统接口
		api.GET("/version", serverVersionHandler.ServerVersion)
		api.GET("/health", healthHandler.Check)

		auth := middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)

		api.Use(auth).POST("/user/change_password", userHandler.UserChangePassword)
		api.Use(auth).GET("/user/info", userHandler.UserInfo)
		api.Use(auth).POST("/user/profile", userHandler.UserUpdateProfile)

		api.Use(auth).POST("/section", sectionHandler.Create)
		api.Use(auth).PUT("/section", sectionHandler.Modify)
		api.Use(auth).DELETE("/section", sectionHandler.Delete)
		api.Use(auth).GET("/section/:id", sectionHandler.Get)
		api.Use(auth).GET("/sections", sectionHandler.List)
		api.Use(auth).GET("/sections/sync", sectionHandler.Sync)

		api.Use(auth).GET("/section/:id/versions", versionHandler.List)
		api.Use(auth).GET("/section/:id/versions/:version", versionHandler.Get)
		api.Use(auth).PUT("/section/:id/versions/:version/restore", versionHandler.Restore)
		api.Use(auth).GET("/section/versions/compare", versionHandler.Compare)

		api.Use(auth).POST("/comment", commentHandler.Add)
		api.Use(auth).POST("/comment/reply", commentHandler.Reply)
		api.Use(auth).PUT("/comment", commentHandler.Edit)
		api.Use(auth).DELETE("/comment", commentHandler.Delete)
		api.Use(auth).PUT("/comment/resolve", commentHandler.Resolve)
		api.Use(auth).PUT("/comment/unresolve", commentHandler.Unresolve)
		api.Use(auth).GET("/section/:id/comments", commentHandler.List)
	}

	r.Use(middleware.Cors())
	r.NoRoute(middleware.NoFound())

	return r
}
