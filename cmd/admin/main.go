package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/admin"
	"github.com/VadimVthvPro/PRO-pitashka/internal/app"
	"github.com/VadimVthvPro/PRO-pitashka/internal/config"
	"github.com/VadimVthvPro/PRO-pitashka/internal/telemetry"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Log.Error(err.Error())
		os.Exit(1)
	}
	utils.Log.SetLevel(utils.ParseLevel(cfg.LogLevel))
	if err := cfg.ValidateAdmin(); err != nil {
		utils.Log.Error(err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Initialize(ctx, cfg.Telemetry, "admin")
	if err != nil {
		utils.Log.Warnf("Telemetry disabled: %v", err)
	}

	// Подключение к базе
	db, err := app.OpenDatabase(ctx, cfg.Database)
	if err != nil {
		utils.Log.Error(err.Error())
		os.Exit(1)
	}
	defer app.CloseDatabase(db)

	svc := app.NewServices(db, app.Oracle{}, nil, cfg.AI.RecipeTTL)

	// Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	admin.SetupRoutes(router, admin.Deps{
		Users:     svc.Users,
		Summaries: svc.Summaries,
		Workouts:  svc.Workouts,
		Exporter:  svc.Exporter,
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Key: cfg.Admin.Key,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Admin.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		utils.Log.Infof("Admin panel starting on :%s", cfg.Admin.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Log.Error("Failed to run admin panel: " + err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Log.Warnf("admin shutdown: %v", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		utils.Log.Warnf("%v", err)
	}
	utils.Log.Info("Admin panel stopped")
}
