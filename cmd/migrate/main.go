package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/damoang/angple-chat/internal/config"
	"github.com/damoang/angple-chat/internal/migration"
	"github.com/damoang/angple-chat/internal/repository"
	"github.com/damoang/angple-chat/internal/service"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "configs/config.local.yaml", "config file path")
	repairLatest := flag.Bool("repair-latest", false, "recompute every chat's latest message pointer after migrating")
	skipSchema := flag.Bool("skip-schema", false, "skip AutoMigrate (only useful with -repair-latest)")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall timeout")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	loaded := config.LoadDotEnv()
	if len(loaded) == 0 {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	if !*skipSchema {
		start := time.Now()
		if err := migration.Run(db); err != nil {
			log.Fatalf("Schema migration failed: %v", err)
		}
		log.Printf("Schema up to date (%d tables, %v)", len(migration.Models()), time.Since(start).Round(time.Millisecond))
	}

	if !*repairLatest {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	messages := service.NewMessageService(messageRepo, chatRepo, service.NewUserService(userRepo, nil), nil)

	repaired, err := messages.ReconcileAll(ctx)
	if err != nil {
		log.Fatalf("Latest message repair stopped after %d chats: %v", repaired, err)
	}
	log.Printf("Latest message repair complete: %d chats fixed", repaired)
}
