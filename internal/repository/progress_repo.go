package repository

import (
	"context"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"gorm.io/gorm"
)

// HealthRepository - замеры веса/роста (user_health), только добавление
type HealthRepository interface {
	Create(ctx context.Context, rec *models.HealthRecord) error
	LatestOn(ctx context.Context, userID int64, day time.Time) (*models.HealthRecord, error)
	LatestBetween(ctx context.Context, userID int64, from, to time.Time) (*models.HealthRecord, error)
	Latest(ctx context.Context, userID int64) (*models.HealthRecord, error)
	ListBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.HealthRecord, error)
	UpdateWeight(ctx context.Context, id uint, weight, imt float64, imtCategory string) error
}

type healthRepo struct {
	db *gorm.DB
}

func NewHealthRepo(db *gorm.DB) HealthRepository {
	return &healthRepo{db: db}
}

func (r *healthRepo) Create(ctx context.Context, rec *models.HealthRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *healthRepo) LatestOn(ctx context.Context, userID int64, day time.Time) (*models.HealthRecord, error) {
	from, to := dayBounds(day)
	return r.LatestBetween(ctx, userID, from, to)
}

// LatestBetween - последний замер в [from, to)
func (r *healthRepo) LatestBetween(ctx context.Context, userID int64, from, to time.Time) (*models.HealthRecord, error) {
	var rec models.HealthRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Order("date DESC").Order("id DESC").
		First(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *healthRepo) Latest(ctx context.Context, userID int64) (*models.HealthRecord, error) {
	var rec models.HealthRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").Order("id DESC").
		First(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// ListBetween - замеры в [from, to) по возрастанию даты
func (r *healthRepo) ListBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.HealthRecord, error) {
	var recs []models.HealthRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Order("date ASC").Order("id ASC").
		Find(&recs).Error
	return recs, err
}

func (r *healthRepo) UpdateWeight(ctx context.Context, id uint, weight, imt float64, imtCategory string) error {
	return r.db.WithContext(ctx).Model(&models.HealthRecord{}).Where("id = ?", id).
		Updates(map[string]interface{}{"weight": weight, "imt": imt, "imt_str": imtCategory}).Error
}
