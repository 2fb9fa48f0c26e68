// Package app собирает зависимости, общие для бота, админки и pitashkactl
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/ai"
	"github.com/VadimVthvPro/PRO-pitashka/internal/config"
	"github.com/VadimVthvPro/PRO-pitashka/internal/database"
	"github.com/VadimVthvPro/PRO-pitashka/internal/export"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"github.com/VadimVthvPro/PRO-pitashka/internal/service"
	"github.com/VadimVthvPro/PRO-pitashka/internal/storage"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Oracle - внешняя модель. Любое поле может быть nil: админке и ctl модель не нужна.
type Oracle struct {
	Estimator  ai.NutritionEstimator
	Recognizer ai.FoodRecognizer
	Generator  ai.TextGenerator
}

// Services - сервисный слой поверх одного пула соединений
type Services struct {
	Users     *service.UserService
	Privacy   *service.PrivacyService
	Food      *service.FoodService
	Water     *service.WaterService
	Workouts  *service.WorkoutService
	Summaries *service.SummaryService
	Advice    *service.AdviceService
	Exporter  *export.Exporter
}

// NewServices создаёт репозитории и сервисы. archive может быть nil.
func NewServices(db *gorm.DB, oracle Oracle, archive service.PhotoArchive, adviceTTL time.Duration) *Services {
	users := repository.NewUserRepo(db)
	aims := repository.NewAimRepo(db)
	health := repository.NewHealthRepo(db)
	food := repository.NewFoodRepo(db)
	water := repository.NewWaterRepo(db)
	trainings := repository.NewTrainingRepo(db)

	return &Services{
		Users:     service.NewUserService(users, repository.NewLanguageRepo(db), aims, health),
		Privacy:   service.NewPrivacyService(repository.NewConsentRepo(db)),
		Food:      service.NewFoodService(food, oracle.Recognizer, archive),
		Water:     service.NewWaterService(water),
		Workouts:  service.NewWorkoutService(trainings, repository.NewTrainingTypeRepo(db), health),
		Summaries: service.NewSummaryService(food, water, trainings, health),
		Advice:    service.NewAdviceService(users, aims, health, oracle.Generator, adviceTTL),
		Exporter:  export.NewExporter(food, trainings, health, water),
	}
}

// OpenDatabase - подключение, миграции и стартовый справочник тренировок
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := database.NewPostgres(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate создаёт таблицы и заполняет пустой справочник тренировок
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := database.AutoMigrateTables(db, models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if _, err := database.SeedTrainingTypes(ctx, db); err != nil {
		return err
	}
	return nil
}

// CloseDatabase закрывает пул
func CloseDatabase(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		utils.Log.Warnf("close database: %v", err)
	}
}

// OpenCache - Redis для ответов модели. Недоступный Redis не мешает запуску:
// возвращается nil, и ответы просто не кэшируются.
func OpenCache(ctx context.Context, cfg config.RedisConfig) (*redis.Client, ai.Cache) {
	if cfg.Addr == "" {
		utils.Log.Info("Redis not configured, AI cache disabled")
		return nil, nil
	}
	client := repository.NewRedisClient(cfg)
	if err := repository.Ping(ctx, client); err != nil {
		utils.Log.Warnf("Redis unavailable, AI cache disabled: %v", err)
		_ = repository.Close(client)
		return nil, nil
	}
	utils.Log.Infof("✅ Redis connected: %s", cfg.Addr)
	return client, repository.NewAICache(client)
}

// OpenArchive - хранилище фото, nil если не настроено или недоступно
func OpenArchive(ctx context.Context, cfg config.StorageConfig) service.PhotoArchive {
	if cfg.Endpoint == "" {
		return nil
	}
	archive, err := storage.NewPhotoArchive(ctx, cfg)
	if err != nil {
		utils.Log.Warnf("Photo archive disabled: %v", err)
		return nil
	}
	return archive
}
