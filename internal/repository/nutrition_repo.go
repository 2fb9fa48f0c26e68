package repository

import (
	"context"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FoodTotals - суммы КБЖУ
type FoodTotals struct {
	Calories float64
	Protein  float64
	Fat      float64
	Carbs    float64
}

// FoodRepository - таблица food, строки не изменяются после записи
type FoodRepository interface {
	Create(ctx context.Context, entry *models.FoodEntry) error
	TotalsOn(ctx context.Context, userID int64, day time.Time) (FoodTotals, error)
	NamesOn(ctx context.Context, userID int64, day time.Time) ([]string, error)
	ListBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.FoodEntry, error)
}

type foodRepo struct {
	db *gorm.DB
}

func NewFoodRepo(db *gorm.DB) FoodRepository {
	return &foodRepo{db: db}
}

func (r *foodRepo) Create(ctx context.Context, entry *models.FoodEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *foodRepo) TotalsOn(ctx context.Context, userID int64, day time.Time) (FoodTotals, error) {
	from, to := dayBounds(day)
	var totals FoodTotals
	err := r.db.WithContext(ctx).Model(&models.FoodEntry{}).
		Select("COALESCE(SUM(cal), 0) AS calories, COALESCE(SUM(b), 0) AS protein, "+
			"COALESCE(SUM(g), 0) AS fat, COALESCE(SUM(u), 0) AS carbs").
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Scan(&totals).Error
	return totals, err
}

func (r *foodRepo) NamesOn(ctx context.Context, userID int64, day time.Time) ([]string, error) {
	from, to := dayBounds(day)
	var names []string
	err := r.db.WithContext(ctx).Model(&models.FoodEntry{}).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Order("id").
		Pluck("name_of_food", &names).Error
	return names, err
}

// ListBetween - записи в [from, to) по возрастанию даты
func (r *foodRepo) ListBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.FoodEntry, error) {
	var entries []models.FoodEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Order("date ASC").Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// WaterRepository - таблица water, одна строка на пользователя в день
type WaterRepository interface {
	AddGlass(ctx context.Context, userID int64, day time.Time) (int, error)
	GlassesOn(ctx context.Context, userID int64, day time.Time) (int, error)
	ListBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.WaterEntry, error)
}

type waterRepo struct {
	db *gorm.DB
}

func NewWaterRepo(db *gorm.DB) WaterRepository {
	return &waterRepo{db: db}
}

// AddGlass увеличивает счётчик за день на 1 (upsert) и возвращает новое значение
func (r *waterRepo) AddGlass(ctx context.Context, userID int64, day time.Time) (int, error) {
	from, _ := dayBounds(day)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "data"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("water.count + 1")}),
	}).Create(&models.WaterEntry{UserID: userID, Date: from, Count: 1}).Error
	if err != nil {
		return 0, err
	}
	return r.GlassesOn(ctx, userID, day)
}

func (r *waterRepo) GlassesOn(ctx context.Context, userID int64, day time.Time) (int, error) {
	from, to := dayBounds(day)
	var total int
	err := r.db.WithContext(ctx).Model(&models.WaterEntry{}).
		Select("COALESCE(SUM(count), 0)").
		Where("user_id = ? AND data >= ? AND data < ?", userID, from, to).
		Scan(&total).Error
	return total, err
}

func (r *waterRepo) ListBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.WaterEntry, error) {
	var entries []models.WaterEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND data >= ? AND data < ?", userID, from, to).
		Order("data ASC").
		Find(&entries).Error
	return entries, err
}
