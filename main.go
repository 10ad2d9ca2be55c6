package main

import (
	"time"

	"go.uber.org/zap"

	"tagserver/broadcast"
	"tagserver/database"
	"tagserver/game/registry"
	"tagserver/game/session"
	"tagserver/handlers"
	"tagserver/middlewares"
	"tagserver/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

func main() {
	logger, err := utils.InitLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	config, err := database.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("failed to load config.json", zap.Error(err))
	}

	// PostgreSQL and Redis come up in parallel.
	var db *gorm.DB
	var rdb *redis.Client
	done := make(chan bool)

	go func() {
		var err error
		db, err = database.InitPostgreSQL(config, logger)
		if err != nil {
			logger.Fatal("failed to initialize PostgreSQL", zap.Error(err))
		}
		done <- true
	}()

	go func() {
		var err error
		rdb, err = database.InitRedis(logger)
		if err != nil {
			logger.Fatal("failed to initialize Redis", zap.Error(err))
		}
		done <- true
	}()

	<-done
	<-done

	store := database.NewStore(db, logger)
	limiter := middlewares.NewLimiter(rdb, logger)
	hub := broadcast.NewHub(logger)
	reg := registry.New(session.Deps{
		Permissions: limiter,
		Store:       store,
		Broadcast:   hub,
	}, logger)

	go utils.CronCleaner(reg, store, logger)

	router := gin.Default()
	router.Use(gin.Recovery(), utils.RequestLogger(logger))

	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:8080"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/auth/register", func(c *gin.Context) {
		handlers.Register(c, logger)
	})

	api := router.Group("/", middlewares.TokenAuth(logger))
	api.POST("/sessions", func(c *gin.Context) {
		handlers.CreateSession(c, reg, logger)
	})
	api.POST("/sessions/join", func(c *gin.Context) {
		handlers.JoinSession(c, reg, logger)
	})
	api.GET("/sessions/:id", func(c *gin.Context) {
		handlers.GetSession(c, reg, logger)
	})
	api.POST("/sessions/:id/start", func(c *gin.Context) {
		handlers.StartSession(c, reg, logger)
	})
	api.POST("/sessions/:id/tag", func(c *gin.Context) {
		handlers.SubmitTag(c, reg, logger)
	})
	api.PUT("/sessions/:id/location", func(c *gin.Context) {
		handlers.UpdateLocation(c, reg, logger)
	})
	api.POST("/sessions/:id/leave", func(c *gin.Context) {
		handlers.LeaveSession(c, reg, logger)
	})
	api.POST("/sessions/:id/end", func(c *gin.Context) {
		handlers.EndSession(c, reg, logger)
	})
	api.GET("/sessions/:id/ws", func(c *gin.Context) {
		broadcast.ServeWS(hub, reg, c.Writer, c.Request,
			c.Param("id"), c.GetString(middlewares.CtxPlayerID), logger)
	})

	addr := config.ServerAddr
	if addr == "" {
		addr = ":8080"
	}
	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
