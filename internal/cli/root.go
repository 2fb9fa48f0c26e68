package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/app"
	"github.com/VadimVthvPro/PRO-pitashka/internal/config"
	"github.com/VadimVthvPro/PRO-pitashka/internal/database"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	dsn      string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "pitashkactl",
	Short: "pitashkactl - обслуживание базы PROпиташки",
	Long:  "pitashkactl выполняет миграции, заполняет справочник тренировок, печатает сводки и выгружает дневники пользователей.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.Log.SetLevel(utils.ParseLevel(logLevel))
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN (по умолчанию DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug|info|warn|error")
}

// openDB подменяется в тестах
var openDB = func(ctx context.Context) (*gorm.DB, error) {
	cfg := config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxLifetime: time.Minute, ConnectAttempts: 1}
	if dsn == "" {
		full, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = full.Database
	}
	return database.NewPostgres(cfg)
}

// withDB открывает базу и приводит схему к актуальной перед командой
func withDB(cmd *cobra.Command, run func(ctx context.Context, db *gorm.DB) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer app.CloseDatabase(db)

	if err := database.AutoMigrateTables(db, models.All()...); err != nil {
		return err
	}
	return run(ctx, db)
}

// withServices - withDB плюс сервисный слой без модели
func withServices(cmd *cobra.Command, run func(ctx context.Context, svc *app.Services) error) error {
	return withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
		return run(ctx, app.NewServices(db, app.Oracle{}, nil, 0))
	})
}

func parseDate(name, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return t, nil
}
