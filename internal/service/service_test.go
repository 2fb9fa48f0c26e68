package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/database"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:svc_"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrateTables(db, models.All()...))
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// repos - все репозитории над одной тестовой базой
type repos struct {
	users     repository.UserRepository
	langs     repository.LanguageRepository
	aims      repository.AimRepository
	health    repository.HealthRepository
	food      repository.FoodRepository
	water     repository.WaterRepository
	trainings repository.TrainingRepository
	types     repository.TrainingTypeRepository
}

func newRepos(t *testing.T) repos {
	db := setupTestDB(t)
	return repos{
		users:     repository.NewUserRepo(db),
		langs:     repository.NewLanguageRepo(db),
		aims:      repository.NewAimRepo(db),
		health:    repository.NewHealthRepo(db),
		food:      repository.NewFoodRepo(db),
		water:     repository.NewWaterRepo(db),
		trainings: repository.NewTrainingRepo(db),
		types:     repository.NewTrainingTypeRepo(db),
	}
}

type fakeEstimator struct {
	data  map[string]calc.Nutrients
	err   error
	calls int
}

func (f *fakeEstimator) EstimateNutrition(_ context.Context, names []string) (map[string]calc.Nutrients, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeRecognizer struct {
	names []string
	err   error
}

func (f *fakeRecognizer) RecognizeFoods(context.Context, []byte, string) ([]string, error) {
	return f.names, f.err
}

type fakeArchive struct {
	saved int
	err   error
}

func (f *fakeArchive) SavePhoto(context.Context, int64, []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved++
	return "photos/1.jpg", nil
}

type generated struct {
	namespace string
	prompt    string
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls []generated
	reply string
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, namespace, prompt string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, generated{namespace: namespace, prompt: prompt})
	if f.err != nil {
		return "", f.err
	}
	return f.reply + " " + namespace, nil
}

// failingFoodRepo падает на вставке номер failOn
type failingFoodRepo struct {
	repository.FoodRepository
	failOn  int
	creates int
}

func (r *failingFoodRepo) Create(ctx context.Context, entry *models.FoodEntry) error {
	r.creates++
	if r.creates == r.failOn {
		return context.DeadlineExceeded
	}
	return r.FoodRepository.Create(ctx, entry)
}
