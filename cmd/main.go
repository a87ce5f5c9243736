package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Leganyst/roster-platform/internal/api"
	"github.com/Leganyst/roster-platform/internal/config"
	"github.com/Leganyst/roster-platform/internal/db"
	"github.com/Leganyst/roster-platform/internal/model"
	"github.com/Leganyst/roster-platform/internal/repository"
	"github.com/Leganyst/roster-platform/internal/service"
)

func main() {
	// 1. Загружаем конфиг БД из env.
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("load db config: %v", err)
	}

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("sql DB: %v", err)
	}
	defer sqlDB.Close()

	// 4. Репозитории (реализации на GORM).
	therapistRepo := repository.NewGormTherapistRepository(gormDB)
	roomRepo := repository.NewGormRoomRepository(gormDB)
	ruleRepo := repository.NewGormRuleRepository(gormDB)
	rosterRepo := repository.NewGormRosterRepository(gormDB)
	eventRepo := repository.NewGormEventRepository(gormDB)

	// 5. Сервисы расписания и справочника.
	rosterSvc := service.NewRosterService(therapistRepo, roomRepo, ruleRepo, rosterRepo, eventRepo)
	directorySvc := service.NewDirectoryService(therapistRepo, roomRepo)

	// 6. HTTP-сервер с JSON API.
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      api.NewServer(rosterSvc, directorySvc).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("roster HTTP server listening on %s", addr)

	// 7. Запускаем сервер в горутине.
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	// 8. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
