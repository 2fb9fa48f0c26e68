package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/ai"
	"github.com/VadimVthvPro/PRO-pitashka/internal/app"
	"github.com/VadimVthvPro/PRO-pitashka/internal/bot"
	"github.com/VadimVthvPro/PRO-pitashka/internal/config"
	"github.com/VadimVthvPro/PRO-pitashka/internal/locale"
	"github.com/VadimVthvPro/PRO-pitashka/internal/metrics"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"github.com/VadimVthvPro/PRO-pitashka/internal/telemetry"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
)

func main() {
	// -----------------------
	// ENV
	cfg, err := config.Load()
	if err != nil {
		utils.Log.Error(err.Error())
		os.Exit(1)
	}
	utils.Log.SetLevel(utils.ParseLevel(cfg.LogLevel))
	if err := cfg.ValidateBot(); err != nil {
		utils.Log.Error(err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Initialize(ctx, cfg.Telemetry, "bot")
	if err != nil {
		utils.Log.Warnf("Telemetry disabled: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			utils.Log.Warnf("%v", err)
		}
	}()

	// -----------------------
	// METRICS
	go metrics.Serve(ctx, cfg.MetricsAddr)

	// -----------------------
	// DATABASE
	db, err := app.OpenDatabase(ctx, cfg.Database)
	if err != nil {
		utils.Log.Error("Failed to connect to database: " + err.Error())
		os.Exit(1)
	}
	defer app.CloseDatabase(db)

	// -----------------------
	// AI + CACHE + STORAGE
	redisClient, cache := app.OpenCache(ctx, cfg.Redis)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}
	oracle := ai.NewClient(cfg.AI, cache)
	archive := app.OpenArchive(ctx, cfg.Storage)

	// -----------------------
	// SERVICES
	svc := app.NewServices(db, app.Oracle{
		Estimator:  oracle,
		Recognizer: oracle,
		Generator:  oracle,
	}, archive, cfg.AI.RecipeTTL)

	// -----------------------
	// BOT
	api, err := bot.NewTelegramAPI(cfg.Telegram.Token)
	if err != nil {
		utils.Log.Error("Failed to create bot: " + err.Error())
		os.Exit(1)
	}
	utils.Log.Infof("Authorized as @%s, admins: %v", api.Self.UserName, cfg.Telegram.AdminIDs)

	botApp := bot.NewBotApp(api, bot.Services{
		Users:     svc.Users,
		Privacy:   svc.Privacy,
		Food:      svc.Food,
		Water:     svc.Water,
		Workouts:  svc.Workouts,
		Summaries: svc.Summaries,
		Advice:    svc.Advice,
		Estimator: oracle,
	}, locale.MustLoad(), bot.Options{
		Admins:         cfg.Telegram.AdminIDs,
		PollTimeout:    cfg.Telegram.PollTimeout,
		MaxConcurrency: cfg.Telegram.MaxConcurrency,
	})

	utils.Log.Info("Telegram bot starting...")
	botApp.Run(ctx)
}
