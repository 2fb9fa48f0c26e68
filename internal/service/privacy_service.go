package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
)

// PrivacyPolicyVersion - версия политики, под которой записывается согласие
const PrivacyPolicyVersion = "1.0"

// PrivacyService - согласие на обработку персональных данных
type PrivacyService struct {
	consents repository.ConsentRepository
}

func NewPrivacyService(consents repository.ConsentRepository) *PrivacyService {
	return &PrivacyService{consents: consents}
}

// Status - текущее согласие; ok == false, если пользователь ещё не отвечал
func (s *PrivacyService) Status(ctx context.Context, userID int64) (*models.PrivacyConsent, bool, error) {
	c, err := s.consents.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load consent: %w", err)
	}
	return c, true, nil
}

// HasConsent - согласие дано и не отозвано
func (s *PrivacyService) HasConsent(ctx context.Context, userID int64) (bool, error) {
	c, ok, err := s.Status(ctx, userID)
	if err != nil || !ok {
		return false, err
	}
	return c.Active(), nil
}

// Accept записывает согласие, повторное согласие снимает отзыв
func (s *PrivacyService) Accept(ctx context.Context, userID int64, at time.Time) error {
	at = at.UTC()
	if err := s.consents.Save(ctx, &models.PrivacyConsent{
		UserID:      userID,
		Consented:   true,
		ConsentedAt: &at,
		Version:     PrivacyPolicyVersion,
	}); err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	utils.Log.Infof("[Privacy] user %d accepted policy v%s", userID, PrivacyPolicyVersion)
	return nil
}

// Revoke отзывает согласие. Без записи о согласии отзывать нечего.
func (s *PrivacyService) Revoke(ctx context.Context, userID int64, at time.Time) error {
	c, ok, err := s.Status(ctx, userID)
	if err != nil {
		return err
	}
	if !ok || !c.Active() {
		return nil
	}
	at = at.UTC()
	c.Revoked = true
	c.RevokedAt = &at
	if err := s.consents.Save(ctx, c); err != nil {
		return fmt.Errorf("revoke consent: %w", err)
	}
	utils.Log.Infof("[Privacy] user %d revoked consent", userID)
	return nil
}
