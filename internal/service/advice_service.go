package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/ai"
	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
)

// Пространства имён кэша ответов
const (
	nsPlanFood     = "plan_food"
	nsPlanTraining = "plan_training"
	nsRecipe       = "recipe"
	nsTraining     = "training"
)

// WeeklyPlan - план питания и план тренировок на неделю
type WeeklyPlan struct {
	Nutrition string
	Training  string
}

// AdviceService - советы ИИ: недельный план, рецепт, подбор тренировки
type AdviceService struct {
	users     repository.UserRepository
	aims      repository.AimRepository
	health    repository.HealthRepository
	generator ai.TextGenerator
	ttl       time.Duration
}

func NewAdviceService(
	users repository.UserRepository,
	aims repository.AimRepository,
	health repository.HealthRepository,
	generator ai.TextGenerator,
	ttl time.Duration,
) *AdviceService {
	return &AdviceService{users: users, aims: aims, health: health, generator: generator, ttl: ttl}
}

// WeeklyPlan строит план по профилю: сначала питание, затем тренировки под этот рацион
func (s *AdviceService) WeeklyPlan(ctx context.Context, userID int64, day time.Time, lang string) (*WeeklyPlan, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notRegistered(err)
	}
	aim, err := s.aims.Get(ctx, userID)
	if err != nil {
		return nil, notRegistered(err)
	}
	rec, err := s.health.Latest(ctx, userID)
	if err != nil {
		return nil, notRegistered(err)
	}

	age := calc.AgeOn(user.DateOfBirth, day)
	profile := fmt.Sprintf("пол: %s, рост: %.0f см, вес: %.1f кг, возраст: %d, ИМТ: %.1f, цель: %s, норма: %.0f ккал",
		user.Sex, rec.Height, rec.Weight, age, rec.IMT, aimText(aim.Aim), aim.DailyCalories)

	nutrition, err := s.generator.Generate(ctx, nsPlanFood, nutritionPlanPrompt(profile, lang), s.ttl)
	if err != nil {
		return nil, fmt.Errorf("nutrition plan: %w", err)
	}
	training, err := s.generator.Generate(ctx, nsPlanTraining, trainingPlanPrompt(profile, nutrition, lang), s.ttl)
	if err != nil {
		return nil, fmt.Errorf("training plan: %w", err)
	}

	utils.Log.Infof("[WeeklyPlan] user %d: plan ready", userID)
	return &WeeklyPlan{Nutrition: nutrition, Training: training}, nil
}

// Recipe - рецепт для приёма пищи или из списка продуктов
func (s *AdviceService) Recipe(ctx context.Context, request, lang string) (string, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return "", &calc.ValidationError{Field: "recipe", Reason: calc.ReasonEmpty}
	}
	prompt := fmt.Sprintf("Предложи один рецепт: %s. Укажи ингредиенты с граммовкой, шаги приготовления "+
		"и КБЖУ на порцию. %s", strings.ToLower(request), answerIn(lang))
	return s.generator.Generate(ctx, nsRecipe, prompt, s.ttl)
}

// TrainingHelp - программа тренировки выбранного типа с учётом последнего ИМТ
func (s *AdviceService) TrainingHelp(ctx context.Context, userID int64, trainingType, lang string) (string, error) {
	trainingType = strings.TrimSpace(trainingType)
	if trainingType == "" {
		return "", &calc.ValidationError{Field: "training", Reason: calc.ReasonEmpty}
	}
	rec, err := s.health.Latest(ctx, userID)
	if err != nil {
		return "", notRegistered(err)
	}
	prompt := fmt.Sprintf("Составь тренировку типа «%s» для человека с ИМТ %.0f. Разминка, основная часть, "+
		"заминка, время каждого упражнения. %s", strings.ToLower(trainingType), rec.IMT, answerIn(lang))
	return s.generator.Generate(ctx, nsTraining, prompt, s.ttl)
}

func notRegistered(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotRegistered
	}
	return err
}

func aimText(aim string) string {
	switch aim {
	case "lose":
		return "похудение"
	case "gain":
		return "набор массы"
	default:
		return "поддержание веса"
	}
}

func answerIn(lang string) string {
	switch lang {
	case LangEN:
		return "Answer in English."
	case LangDE:
		return "Antworte auf Deutsch."
	case LangFR:
		return "Réponds en français."
	case LangES:
		return "Responde en español."
	default:
		return "Ответь на русском языке."
	}
}

func nutritionPlanPrompt(profile, lang string) string {
	return fmt.Sprintf("Составь план питания на 7 дней (завтрак, обед, ужин, перекус) с калорийностью "+
		"каждого приёма пищи. Данные пользователя: %s. %s", profile, answerIn(lang))
}

func trainingPlanPrompt(profile, nutrition, lang string) string {
	return fmt.Sprintf("Составь план тренировок на 7 дней для пользователя (%s), который питается так:\n%s\n%s",
		profile, nutrition, answerIn(lang))
}
