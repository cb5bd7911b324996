package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/damoang/angple-chat/internal/config"
	"github.com/damoang/angple-chat/internal/handler"
	"github.com/damoang/angple-chat/internal/middleware"
	"github.com/damoang/angple-chat/internal/migration"
	"github.com/damoang/angple-chat/internal/repository"
	"github.com/damoang/angple-chat/internal/routes"
	"github.com/damoang/angple-chat/internal/service"
	"github.com/damoang/angple-chat/internal/ws"
	pkgcache "github.com/damoang/angple-chat/pkg/cache"
	"github.com/damoang/angple-chat/pkg/jwt"
	pkglogger "github.com/damoang/angple-chat/pkg/logger"
	pkgredis "github.com/damoang/angple-chat/pkg/redis"
	pkgstorage "github.com/damoang/angple-chat/pkg/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// @title           Angple Chat API
// @version         1.0
// @description     Two-party direct messaging: conversations, message history and realtime relay
//
// @license.name    MIT
//
// @host            localhost:8082
// @BasePath        /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"

const shutdownTimeout = 10 * time.Second

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	// 로거 초기화
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	// 설정 로드
	configPath := getConfigPath()
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LogResolved(cfg)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// MySQL 연결 (채팅 저장소 필수)
	db, err := initDB(cfg)
	if err != nil {
		pkglogger.Fatal("Failed to connect to database: %v", err)
	}
	pkglogger.Info("Connected to MySQL")
	if err := migration.Run(db); err != nil {
		pkglogger.Fatal("Migration failed: %v", err)
	}

	// Redis 연결 (선택: 캐시 + rate limit)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(pkgredis.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			pkglogger.Warn("Failed to connect to Redis: %v (continuing without Redis)", err)
			redisClient = nil
		} else {
			pkglogger.Info("Connected to Redis")
		}
	}
	cacheService := pkgcache.NewService(redisClient)

	// S3-compatible storage (선택: 프로필 이미지)
	var avatarUploader service.AvatarUploader
	if cfg.Storage.Enabled {
		s3Client, s3Err := pkgstorage.NewS3Client(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			CDNURL:          cfg.Storage.CDNURL,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
		})
		if s3Err != nil {
			pkglogger.Warn("S3 storage init failed: %v (avatar upload disabled)", s3Err)
		} else {
			avatarUploader = s3Client
		}
	}

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn, cfg.JWT.RefreshIn)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Services + realtime hub
	userService := service.NewUserService(userRepo, cacheService)
	chatService := service.NewChatService(chatRepo, messageRepo, userService)
	hub := ws.NewHub(chatService,
		ws.WithSendBuffer(cfg.WS.SendBuffer),
		ws.WithMaxMessageSize(cfg.WS.MaxMessageSize),
	)
	messageService := service.NewMessageService(messageRepo, chatRepo, userService, hub)
	authService := service.NewAuthService(userRepo, userService, jwtManager, avatarUploader)

	// Gin 라우터 생성
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     splitAndTrim(cfg.CORS.AllowOrigins),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		status, state, dbStatus := http.StatusOK, "ok", "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, state, dbStatus = http.StatusServiceUnavailable, "degraded", "unreachable"
		}
		c.JSON(status, gin.H{
			"status":      state,
			"service":     "angple-chat",
			"database":    dbStatus,
			"redis":       redisClient != nil,
			"connections": hub.ClientCount(),
			"time":        time.Now().Unix(),
		})
	})

	routes.Setup(router, routes.Handlers{
		Auth: handler.NewAuthHandler(authService, int(jwtManager.RefreshTTL().Seconds()), !cfg.IsDevelopment()),
		Chat: handler.NewChatHandler(userService, chatService, messageService),
		WS:   handler.NewWSHandler(hub, cfg.CORS.AllowOrigins),
	}, jwtManager, redisClient, routes.Limits{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		MessagesPerMinute: cfg.RateLimit.MessagesPerMinute,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sampleDBStats(ctx, db)

	go func() {
		pkglogger.Info("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			pkglogger.Fatal("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	pkglogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// hijacked websocket connections are not tracked by Shutdown
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		pkglogger.Error("Server shutdown error: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	pkglogger.Info("Server stopped")
}

// splitAndTrim splits a comma separated list, dropping empty entries
func splitAndTrim(s string) []string {
	var parts []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// sampleDBStats feeds the connection pool gauge until ctx is cancelled
func sampleDBStats(ctx context.Context, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			middleware.SetDBConnectionsOpen(sqlDB.Stats().OpenConnections)
		}
	}
}

// initDB MySQL 연결 초기화
func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("DSN 파싱 실패: %w", err)
	}
	if mysqlCfg.Params == nil {
		mysqlCfg.Params = map[string]string{}
	}
	// timestamps are stored in UTC
	mysqlCfg.Params["time_zone"] = "'+00:00'"

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}
