package repository

import (
	"context"

	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID int64) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Upsert(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_name", "user_sex", "date_of_birth", "updated_at"}),
	}).Create(user).Error
}

func (r *userRepo) FindByID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	q := r.db.WithContext(ctx).Order("user_id")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Find(&users).Error
	return users, err
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

// LanguageRepository - таблица user_lang
type LanguageRepository interface {
	Get(ctx context.Context, userID int64) (string, error)
	Set(ctx context.Context, userID int64, lang string) error
}

type languageRepo struct {
	db *gorm.DB
}

func NewLanguageRepo(db *gorm.DB) LanguageRepository {
	return &languageRepo{db: db}
}

func (r *languageRepo) Get(ctx context.Context, userID int64) (string, error) {
	var ul models.UserLanguage
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&ul).Error
	if err != nil {
		return "", notFound(err)
	}
	return ul.Lang, nil
}

func (r *languageRepo) Set(ctx context.Context, userID int64, lang string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"lang"}),
	}).Create(&models.UserLanguage{UserID: userID, Lang: lang}).Error
}

// AimRepository - таблица user_aims
type AimRepository interface {
	Upsert(ctx context.Context, aim *models.Aim) error
	Get(ctx context.Context, userID int64) (*models.Aim, error)
}

type aimRepo struct {
	db *gorm.DB
}

func NewAimRepo(db *gorm.DB) AimRepository {
	return &aimRepo{db: db}
}

func (r *aimRepo) Upsert(ctx context.Context, aim *models.Aim) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_aim", "daily_cal"}),
	}).Create(aim).Error
}

func (r *aimRepo) Get(ctx context.Context, userID int64) (*models.Aim, error) {
	var aim models.Aim
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&aim).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &aim, nil
}
