package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/ai"
	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/metrics"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
)

// PhotoArchive - хранилище исходных фото еды
type PhotoArchive interface {
	SavePhoto(ctx context.Context, userID int64, image []byte) (string, error)
}

type FoodService struct {
	repo       repository.FoodRepository
	recognizer ai.FoodRecognizer
	archive    PhotoArchive
}

// NewFoodService - recognizer и archive могут быть nil
func NewFoodService(repo repository.FoodRepository, recognizer ai.FoodRecognizer, archive PhotoArchive) *FoodService {
	return &FoodService{repo: repo, recognizer: recognizer, archive: archive}
}

// PrepareItems сопоставляет названия и граммовки. Проверка идёт до обращения к оракулу.
func (s *FoodService) PrepareItems(names []string, rawGrams string) ([]FoodItem, error) {
	grams, err := calc.ValidateGramInput(rawGrams, len(names))
	if err != nil {
		return nil, err
	}
	items := make([]FoodItem, len(names))
	for i, name := range names {
		items[i] = FoodItem{Name: name, Grams: grams[i]}
	}
	return items, nil
}

// LogFoodItems - один запрос к оракулу на всю пачку, затем отдельная вставка на каждую позицию.
// Позиции без данных попадают в FailedNames. Ошибка БД прерывает обработку, но уже
// сохранённые строки остаются; повтор той же пачки создаст дубликаты.
func (s *FoodService) LogFoodItems(ctx context.Context, userID int64, day time.Time, items []FoodItem, estimator ai.NutritionEstimator) (*FoodLogResult, error) {
	result := &FoodLogResult{}
	if len(items) == 0 {
		return result, nil
	}
	for _, it := range items {
		if it.Grams <= 0 {
			return nil, &calc.ValidationError{Field: "grams", Reason: calc.ReasonNotPositive}
		}
	}

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}

	estimates, err := estimator.EstimateNutrition(ctx, names)
	if err != nil {
		result.FailedNames = names
		metrics.FoodItemsLogged.WithLabelValues("not_found").Add(float64(len(names)))
		if errors.Is(err, ai.ErrNoNutritionData) {
			utils.Log.Warnf("[LogFoodItems] user %d: no nutrition data for %d items", userID, len(names))
			return result, nil
		}
		return result, fmt.Errorf("estimate nutrition: %w", err)
	}

	day = calc.Day(day)
	for _, it := range items {
		per100, ok := calc.MatchFoodToEstimate(it.Name, estimates)
		if !ok {
			result.FailedNames = append(result.FailedNames, it.Name)
			metrics.FoodItemsLogged.WithLabelValues("not_found").Inc()
			continue
		}

		macros := calc.ComputeItemMacros(per100, it.Grams)
		entry := models.FoodEntry{
			UserID:   userID,
			Date:     day,
			Name:     calc.TitleCase(it.Name),
			Protein:  macros.Protein,
			Fat:      macros.Fat,
			Carbs:    macros.Carbs,
			Calories: macros.Calories,
		}
		if err := s.repo.Create(ctx, &entry); err != nil {
			metrics.FoodItemsLogged.WithLabelValues("error").Inc()
			return result, fmt.Errorf("save food %q: %w", it.Name, err)
		}

		result.SavedCount++
		result.Entries = append(result.Entries, entry)
		result.Grams = append(result.Grams, it.Grams)
		result.Total = result.Total.Add(macros)
		metrics.FoodItemsLogged.WithLabelValues("saved").Inc()
	}

	utils.Log.Infof("[LogFoodItems] user %d: saved %d, failed %d", userID, result.SavedCount, len(result.FailedNames))
	return result, nil
}

// RecognizePhoto - названия блюд на фото. Фото архивируется, если настроено хранилище;
// ошибка архива не мешает распознаванию.
func (s *FoodService) RecognizePhoto(ctx context.Context, userID int64, image []byte, lang string) ([]string, error) {
	if s.recognizer == nil {
		return nil, ai.ErrOracleUnavailable
	}
	if s.archive != nil {
		if key, err := s.archive.SavePhoto(ctx, userID, image); err != nil {
			utils.Log.Warnf("[RecognizePhoto] archive failed for user %d: %v", userID, err)
		} else {
			utils.Log.Debugf("[RecognizePhoto] archived %s", key)
		}
	}
	return s.recognizer.RecognizeFoods(ctx, image, lang)
}

// FoodOn - съеденное за день
func (s *FoodService) FoodOn(ctx context.Context, userID int64, day time.Time) ([]models.FoodEntry, error) {
	from := calc.Day(day)
	return s.repo.ListBetween(ctx, userID, from, from.AddDate(0, 0, 1))
}

// WaterService - учёт стаканов воды
type WaterService struct {
	repo repository.WaterRepository
}

func NewWaterService(repo repository.WaterRepository) *WaterService {
	return &WaterService{repo: repo}
}

// AddGlass - +1 стакан за день, возвращает количество за день
func (s *WaterService) AddGlass(ctx context.Context, userID int64, day time.Time) (int, error) {
	n, err := s.repo.AddGlass(ctx, userID, day)
	if err != nil {
		return 0, fmt.Errorf("add water: %w", err)
	}
	return n, nil
}

func (s *WaterService) GlassesOn(ctx context.Context, userID int64, day time.Time) (int, error) {
	return s.repo.GlassesOn(ctx, userID, day)
}
