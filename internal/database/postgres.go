package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/config"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgres подключается к PostgreSQL с retry логикой и настраивает пул соединений
func NewPostgres(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	utils.Log.Info("Attempting to connect to database...")

	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(postgres.Open(WithUTC(cfg.DSN)), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})

		if err == nil {
			if err = Configure(db, cfg); err == nil {
				utils.Log.Infof("✅ Database connected successfully (attempt %d)", i)
				return db, nil
			}
		}

		utils.Log.Warnf("Attempt %d failed: %v", i, err)
		if i == attempts {
			break
		}

		// Экспоненциальная backoff: 1, 2, 4, 8 секунд, но не больше 10
		waitTime := time.Duration(1<<uint(i-1)) * time.Second
		if waitTime > 10*time.Second {
			waitTime = 10 * time.Second
		}
		time.Sleep(waitTime)
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
}

// WithUTC добавляет TimeZone=UTC: все даты хранятся как полночь UTC,
// иначе сравнение date с timestamptz сдвигается на часовой пояс сессии
func WithUTC(dsn string) string {
	if strings.Contains(strings.ToLower(dsn), "timezone=") {
		return dsn
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if strings.Contains(dsn, "?") {
			return dsn + "&TimeZone=UTC"
		}
		return dsn + "?TimeZone=UTC"
	}
	return strings.TrimSpace(dsn) + " TimeZone=UTC"
}

// Configure выставляет параметры пула и проверяет соединение
func Configure(db *gorm.DB, cfg config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return sqlDB.Ping()
}

// AutoMigrateTables создает таблицы
func AutoMigrateTables(db *gorm.DB, models ...interface{}) error {
	utils.Log.Info("Running database migrations...")

	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	utils.Log.Info("✅ Database migrations completed")
	return nil
}
