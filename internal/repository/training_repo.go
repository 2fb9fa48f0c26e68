package repository

import (
	"context"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"gorm.io/gorm"
)

// TrainingTotals - суммы за день
type TrainingTotals struct {
	Calories float64
	Minutes  int
}

// TrainingRepository - таблица user_training
type TrainingRepository interface {
	Create(ctx context.Context, entry *models.TrainingEntry) error
	TotalsOn(ctx context.Context, userID int64, day time.Time) (TrainingTotals, error)
	ListBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.TrainingEntry, error)
	AverageCalories(ctx context.Context, userID int64) (float64, error)
}

type trainingRepo struct {
	db *gorm.DB
}

func NewTrainingRepo(db *gorm.DB) TrainingRepository {
	return &trainingRepo{db: db}
}

func (r *trainingRepo) Create(ctx context.Context, entry *models.TrainingEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *trainingRepo) TotalsOn(ctx context.Context, userID int64, day time.Time) (TrainingTotals, error) {
	from, to := dayBounds(day)
	var totals TrainingTotals
	err := r.db.WithContext(ctx).Model(&models.TrainingEntry{}).
		Select("COALESCE(SUM(training_cal), 0) AS calories, COALESCE(SUM(tren_time), 0) AS minutes").
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Scan(&totals).Error
	return totals, err
}

func (r *trainingRepo) ListBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.TrainingEntry, error) {
	var entries []models.TrainingEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Order("date ASC").Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// AverageCalories - среднее training_cal по всем тренировкам пользователя за всё время
func (r *trainingRepo) AverageCalories(ctx context.Context, userID int64) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).Model(&models.TrainingEntry{}).
		Select("COALESCE(AVG(training_cal), 0)").
		Where("user_id = ?", userID).
		Scan(&avg).Error
	return avg, err
}

// TrainingTypeRepository - справочник training_types
type TrainingTypeRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.TrainingType, error)
	FindByID(ctx context.Context, id uint) (*models.TrainingType, error)
	Create(ctx context.Context, tt *models.TrainingType) error
	SetActive(ctx context.Context, id uint, active bool) error
}

type trainingTypeRepo struct {
	db *gorm.DB
}

func NewTrainingTypeRepo(db *gorm.DB) TrainingTypeRepository {
	return &trainingTypeRepo{db: db}
}

func (r *trainingTypeRepo) List(ctx context.Context, activeOnly bool) ([]models.TrainingType, error) {
	var types []models.TrainingType
	q := r.db.WithContext(ctx).Order("id")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&types).Error
	return types, err
}

func (r *trainingTypeRepo) FindByID(ctx context.Context, id uint) (*models.TrainingType, error) {
	var tt models.TrainingType
	if err := r.db.WithContext(ctx).First(&tt, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &tt, nil
}

func (r *trainingTypeRepo) Create(ctx context.Context, tt *models.TrainingType) error {
	return r.db.WithContext(ctx).Create(tt).Error
}

func (r *trainingTypeRepo) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.TrainingType{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
