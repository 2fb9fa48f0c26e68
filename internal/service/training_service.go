package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/metrics"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
)

type WorkoutService struct {
	trainings repository.TrainingRepository
	types     repository.TrainingTypeRepository
	health    repository.HealthRepository

	// справочник тренировок по языку, живёт до рестарта или Reload
	mu    sync.RWMutex
	cache map[string][]TrainingOption
}

func NewWorkoutService(
	trainings repository.TrainingRepository,
	types repository.TrainingTypeRepository,
	health repository.HealthRepository,
) *WorkoutService {
	return &WorkoutService{
		trainings: trainings,
		types:     types,
		health:    health,
		cache:     make(map[string][]TrainingOption),
	}
}

// TrainingTypes - активные виды тренировок на языке lang.
// Пока таблица training_types пуста, отдаются три встроенных уровня интенсивности.
func (s *WorkoutService) TrainingTypes(ctx context.Context, lang string) ([]TrainingOption, error) {
	s.mu.RLock()
	cached, ok := s.cache[lang]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	rows, err := s.types.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load training types: %w", err)
	}

	var options []TrainingOption
	if len(rows) == 0 {
		for _, in := range calc.Intensities {
			c, _ := calc.CoefficientFor(string(in))
			options = append(options, TrainingOption{Intensity: in, Name: string(in), Coefficient: c})
		}
	} else {
		for _, t := range rows {
			options = append(options, TrainingOption{
				ID:          t.ID,
				Name:        t.Name(lang),
				Emoji:       t.Emoji,
				Description: t.Description(lang),
				Coefficient: t.BaseCoefficient,
			})
		}
	}

	s.mu.Lock()
	s.cache[lang] = options
	s.mu.Unlock()
	utils.Log.Infof("[TrainingTypes] loaded %d training types for %s", len(options), lang)
	return options, nil
}

// ReloadTrainingTypes сбрасывает кэш справочника
func (s *WorkoutService) ReloadTrainingTypes() {
	s.mu.Lock()
	s.cache = make(map[string][]TrainingOption)
	s.mu.Unlock()
}

// FindOption ищет вид тренировки по подписи кнопки, названию или метке интенсивности
func (s *WorkoutService) FindOption(ctx context.Context, lang, choice string) (TrainingOption, error) {
	options, err := s.TrainingTypes(ctx, lang)
	if err != nil {
		return TrainingOption{}, err
	}
	for _, o := range options {
		if choice == o.Label() || choice == o.Name || (o.Intensity != "" && choice == string(o.Intensity)) {
			return o, nil
		}
	}
	return TrainingOption{}, calc.ErrUnknownTrainingType
}

// WeightForToday - вес из сегодняшнего замера. needsInput == true: замера нет, надо спросить.
func (s *WorkoutService) WeightForToday(ctx context.Context, userID int64, day time.Time) (float64, bool, error) {
	rec, err := s.health.LatestOn(ctx, userID, day)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, true, nil
		}
		return 0, false, fmt.Errorf("load today's weight: %w", err)
	}
	if rec.Weight <= 0 {
		return 0, true, nil
	}
	return rec.Weight, false, nil
}

// RecordWeight сохраняет вес за день: обновляет сегодняшний замер или добавляет новый
// с ростом из последнего замера
func (s *WorkoutService) RecordWeight(ctx context.Context, userID int64, day time.Time, weightKg float64) error {
	today, err := s.health.LatestOn(ctx, userID, day)
	switch {
	case err == nil:
		bmi, category := bmiFor(weightKg, today.Height)
		return s.health.UpdateWeight(ctx, today.ID, weightKg, bmi, category)
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("load today's record: %w", err)
	}

	rec := &models.HealthRecord{UserID: userID, Date: calc.Day(day), Weight: weightKg}
	if prev, err := s.health.Latest(ctx, userID); err == nil {
		rec.Height = prev.Height
		rec.DailyCalories = prev.DailyCalories
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("load last record: %w", err)
	}
	rec.IMT, rec.IMTCategory = bmiFor(weightKg, rec.Height)
	return s.health.Create(ctx, rec)
}

func bmiFor(weightKg, heightCm float64) (float64, string) {
	if heightCm <= 0 {
		return 0, ""
	}
	bmi := calc.ComputeBMI(weightKg, heightCm)
	return bmi, string(calc.ClassifyBMI(bmi))
}

// LogWorkout считает и сохраняет тренировку, возвращает калории и сумму за день
func (s *WorkoutService) LogWorkout(ctx context.Context, userID int64, day time.Time, option TrainingOption, minutes int, weightKg float64) (*WorkoutResult, error) {
	if minutes < calc.MinDurationMinutes || minutes > calc.MaxDurationMinutes {
		return nil, &calc.ValidationError{Field: "duration", Reason: calc.ReasonOutOfRange}
	}
	if option.Coefficient <= 0 {
		return nil, calc.ErrUnknownTrainingType
	}

	cal := calc.CaloriesBurned(weightKg, option.Coefficient, minutes)
	entry := &models.TrainingEntry{
		UserID:       userID,
		Date:         calc.Day(day),
		Calories:     cal,
		Minutes:      minutes,
		TrainingName: option.Name,
	}
	if option.ID != 0 {
		id := option.ID
		entry.TrainingTypeID = &id
	}
	if err := s.trainings.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("save training: %w", err)
	}
	metrics.WorkoutsLogged.Inc()

	totals, err := s.trainings.TotalsOn(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("day training total: %w", err)
	}
	utils.Log.Infof("[LogWorkout] user %d: %s %d min, %.3f kcal", userID, option.Name, minutes, cal)
	return &WorkoutResult{Calories: cal, DayTotal: totals.Calories}, nil
}

// Statistics - тренировки за последние days дней включая day, топ-3 видов по количеству
func (s *WorkoutService) Statistics(ctx context.Context, userID int64, day time.Time, days int) (*WorkoutStats, error) {
	if days < 1 {
		days = 1
	}
	to := calc.Day(day).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -days)
	entries, err := s.trainings.ListBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load trainings: %w", err)
	}

	stats := &WorkoutStats{Days: days, Sessions: len(entries)}
	counts := make(map[string]int)
	for _, e := range entries {
		stats.Minutes += e.Minutes
		stats.Calories += e.Calories
		name := e.TrainingName
		if name == "" {
			name = "-"
		}
		counts[name]++
	}
	stats.Calories = calc.Round3(stats.Calories)

	for name, n := range counts {
		stats.TopTypes = append(stats.TopTypes, TypeCount{Name: name, Count: n})
	}
	sort.Slice(stats.TopTypes, func(i, j int) bool {
		if stats.TopTypes[i].Count != stats.TopTypes[j].Count {
			return stats.TopTypes[i].Count > stats.TopTypes[j].Count
		}
		return stats.TopTypes[i].Name < stats.TopTypes[j].Name
	})
	if len(stats.TopTypes) > 3 {
		stats.TopTypes = stats.TopTypes[:3]
	}
	return stats, nil
}

// AllTrainingTypes - весь справочник, включая выключенные
func (s *WorkoutService) AllTrainingTypes(ctx context.Context) ([]models.TrainingType, error) {
	return s.types.List(ctx, false)
}

// CreateTrainingType добавляет вид тренировки и сбрасывает кэш
func (s *WorkoutService) CreateTrainingType(ctx context.Context, tt *models.TrainingType) error {
	if strings.TrimSpace(tt.NameRU) == "" {
		return &calc.ValidationError{Field: "name_ru", Reason: calc.ReasonEmpty}
	}
	if tt.BaseCoefficient <= 0 {
		return &calc.ValidationError{Field: "coefficient", Reason: calc.ReasonNotPositive}
	}
	tt.IsActive = true
	if err := s.types.Create(ctx, tt); err != nil {
		return fmt.Errorf("create training type: %w", err)
	}
	s.ReloadTrainingTypes()
	utils.Log.Infof("[CreateTrainingType] %s (%.2f)", tt.NameRU, tt.BaseCoefficient)
	return nil
}

// SetTrainingTypeActive включает или скрывает вид тренировки
func (s *WorkoutService) SetTrainingTypeActive(ctx context.Context, id uint, active bool) error {
	if err := s.types.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.ReloadTrainingTypes()
	return nil
}

// FindTrainingType - вид тренировки по id
func (s *WorkoutService) FindTrainingType(ctx context.Context, id uint) (*models.TrainingType, error) {
	return s.types.FindByID(ctx, id)
}
