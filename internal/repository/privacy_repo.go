package repository

import (
	"context"

	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConsentRepository - таблица privacy_consent
type ConsentRepository interface {
	Get(ctx context.Context, userID int64) (*models.PrivacyConsent, error)
	Save(ctx context.Context, consent *models.PrivacyConsent) error
}

type consentRepo struct {
	db *gorm.DB
}

func NewConsentRepo(db *gorm.DB) ConsentRepository {
	return &consentRepo{db: db}
}

func (r *consentRepo) Get(ctx context.Context, userID int64) (*models.PrivacyConsent, error) {
	var c models.PrivacyConsent
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *consentRepo) Save(ctx context.Context, consent *models.PrivacyConsent) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"consented", "consent_date", "consent_version", "revoked", "revoke_date", "updated_at",
		}),
	}).Create(consent).Error
}
