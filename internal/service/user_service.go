package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
)

// Языки интерфейса
const (
	LangRU      = "ru"
	LangEN      = "en"
	LangDE      = "de"
	LangFR      = "fr"
	LangES      = "es"
	DefaultLang = LangRU
)

// Languages - поддерживаемые языки в порядке показа
var Languages = []string{LangRU, LangEN, LangDE, LangFR, LangES}

// SupportedLanguage - есть ли lang среди языков интерфейса
func SupportedLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// ErrNotRegistered - нет профиля пользователя
var ErrNotRegistered = errors.New("user is not registered")

type UserService struct {
	users  repository.UserRepository
	langs  repository.LanguageRepository
	aims   repository.AimRepository
	health repository.HealthRepository
}

func NewUserService(
	users repository.UserRepository,
	langs repository.LanguageRepository,
	aims repository.AimRepository,
	health repository.HealthRepository,
) *UserService {
	return &UserService{users: users, langs: langs, aims: aims, health: health}
}

// Register - завершение анкеты: замер здоровья, профиль, цель
func (s *UserService) Register(ctx context.Context, dto RegistrationDTO) (*HealthProfile, error) {
	if !dto.Sex.Valid() {
		return nil, calc.ErrUnknownSex
	}
	if dto.HeightCm <= 0 {
		return nil, &calc.ValidationError{Field: "height", Reason: calc.ReasonNotPositive}
	}

	day := calc.Day(dto.Day)
	profile, err := buildProfile(dto.Sex, dto.WeightKg, dto.HeightCm, dto.Age)
	if err != nil {
		return nil, err
	}

	if err := s.health.Create(ctx, &models.HealthRecord{
		UserID:        dto.UserID,
		Date:          day,
		Weight:        dto.WeightKg,
		Height:        dto.HeightCm,
		IMT:           profile.BMI,
		IMTCategory:   string(profile.Category),
		DailyCalories: profile.DailyCalories,
	}); err != nil {
		return nil, fmt.Errorf("save health record: %w", err)
	}

	if err := s.users.Upsert(ctx, &models.User{
		UserID:      dto.UserID,
		UserName:    dto.Name,
		Sex:         string(dto.Sex),
		DateOfBirth: calc.BirthdateFromAge(dto.Age, day),
	}); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	if err := s.aims.Upsert(ctx, &models.Aim{
		UserID:        dto.UserID,
		Aim:           dto.Aim,
		DailyCalories: profile.DailyCalories,
	}); err != nil {
		return nil, fmt.Errorf("save aim: %w", err)
	}

	utils.Log.Infof("[Register] user %d registered, bmi=%.3f cal=%.2f", dto.UserID, profile.BMI, profile.DailyCalories)
	return profile, nil
}

// UpdateMetrics добавляет новый замер и пересчитывает ИМТ и норму калорий
func (s *UserService) UpdateMetrics(ctx context.Context, userID int64, weightKg, heightCm float64, day time.Time) (*HealthProfile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	day = calc.Day(day)
	profile, err := buildProfile(calc.Sex(user.Sex), weightKg, heightCm, calc.AgeOn(user.DateOfBirth, day))
	if err != nil {
		return nil, err
	}

	if err := s.health.Create(ctx, &models.HealthRecord{
		UserID:        userID,
		Date:          day,
		Weight:        weightKg,
		Height:        heightCm,
		IMT:           profile.BMI,
		IMTCategory:   string(profile.Category),
		DailyCalories: profile.DailyCalories,
	}); err != nil {
		return nil, fmt.Errorf("save health record: %w", err)
	}
	return profile, nil
}

// CurrentMetrics - замер за сегодня, иначе последний за текущий месяц.
// needsInput == true: замеров нет, у пользователя надо спросить вес и рост.
func (s *UserService) CurrentMetrics(ctx context.Context, userID int64, day time.Time) (*models.HealthRecord, bool, error) {
	rec, err := s.health.LatestOn(ctx, userID, day)
	if err == nil {
		return rec, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	monthStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	rec, err = s.health.LatestBetween(ctx, userID, monthStart, calc.Day(day).AddDate(0, 0, 1))
	if err == nil {
		return rec, false, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, true, nil
	}
	return nil, false, err
}

// IsRegistered - есть ли профиль в user_main
func (s *UserService) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	_, err := s.users.FindByID(ctx, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Language - язык пользователя, по умолчанию русский
func (s *UserService) Language(ctx context.Context, userID int64) string {
	lang, err := s.langs.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			utils.Log.Warnf("[Language] user %d: %v", userID, err)
		}
		return DefaultLang
	}
	return lang
}

func (s *UserService) SetLanguage(ctx context.Context, userID int64, lang string) error {
	if !SupportedLanguage(lang) {
		return &calc.ValidationError{Field: "lang", Reason: calc.ReasonOutOfRange, Value: lang}
	}
	return s.langs.Set(ctx, userID, lang)
}

// GetUser - профиль пользователя
func (s *UserService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

// GetAim - цель и норма калорий
func (s *UserService) GetAim(ctx context.Context, userID int64) (*models.Aim, error) {
	return s.aims.Get(ctx, userID)
}

// ListUsers - пользователи постранично
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.users.List(ctx, limit, offset)
}

// GetUsersCount - количество пользователей
func (s *UserService) GetUsersCount(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}

func buildProfile(sex calc.Sex, weightKg, heightCm float64, age int) (*HealthProfile, error) {
	bmi := calc.ComputeBMI(weightKg, heightCm)
	cal, err := calc.DailyCalories(sex, weightKg, heightCm, age)
	if err != nil {
		return nil, err
	}
	return &HealthProfile{
		BMI:           bmi,
		Category:      calc.ClassifyBMI(bmi),
		DailyCalories: cal,
		WeightKg:      weightKg,
		HeightCm:      heightCm,
	}, nil
}
