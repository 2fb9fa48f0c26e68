package service

import (
	"context"
	"fmt"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/metrics"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// MlPerGlass - объём одного стакана воды
const MlPerGlass = 300

// Period - режим сводки
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod - "day" / "month" / "year"
func ParsePeriod(s string) (Period, bool) {
	switch p := Period(s); p {
	case PeriodDay, PeriodMonth, PeriodYear:
		return p, true
	}
	return "", false
}

type DaySummary struct {
	Date             time.Time
	TrainingCalories float64
	TrainingMinutes  int
	FoodCalories     float64
	Protein          float64
	Fat              float64
	Carbs            float64
	WaterMl          int
	FoodNames        []string
}

// MonthSummary - средние считаются только по дням, в которые есть данные соответствующего ряда
type MonthSummary struct {
	Month               time.Time
	HasData             bool
	HasWeight           bool
	StartWeight         float64
	EndWeight           float64
	AvgTrainingMinutes  float64
	AvgTrainingCalories float64
	AvgFoodCalories     float64
	AvgProtein          float64
	AvgFat              float64
	AvgCarbs            float64
	AvgWaterMl          float64
	DaysWithFood        int
	DaysWithTraining    int
	DaysWithWater       int
}

// MonthTotals - суммы КБЖУ за календарный месяц
type MonthTotals struct {
	Month time.Time
	calc.Nutrients
}

// YearSummary - последние 12 календарных месяцев. AvgTrainingCaloriesAllTime
// считается по всем тренировкам пользователя, без окна.
type YearSummary struct {
	From                       time.Time
	HasData                    bool
	HasWeight                  bool
	StartWeight                float64
	EndWeight                  float64
	AvgTrainingCaloriesAllTime float64
	AvgFoodCalories            float64
	AvgProtein                 float64
	AvgFat                     float64
	AvgCarbs                   float64
	AvgWaterMl                 float64
	MonthsWithFood             int
	LatestMonth                *MonthTotals
	EarliestMonth              *MonthTotals
}

// Report - результат Summary для одного из режимов
type Report struct {
	Period Period
	Day    *DaySummary
	Month  *MonthSummary
	Year   *YearSummary
}

// SummaryService - сводки за день, месяц и год. Только чтение, ошибки БД не повторяются.
type SummaryService struct {
	food      repository.FoodRepository
	water     repository.WaterRepository
	trainings repository.TrainingRepository
	health    repository.HealthRepository
	tracer    trace.Tracer
}

func NewSummaryService(
	food repository.FoodRepository,
	water repository.WaterRepository,
	trainings repository.TrainingRepository,
	health repository.HealthRepository,
) *SummaryService {
	return &SummaryService{
		food:      food,
		water:     water,
		trainings: trainings,
		health:    health,
		tracer:    otel.Tracer("github.com/VadimVthvPro/PRO-pitashka/internal/service"),
	}
}

// Summary выбирает режим
func (s *SummaryService) Summary(ctx context.Context, userID int64, period Period, day time.Time) (*Report, error) {
	start := time.Now()
	defer func() {
		metrics.SummaryDuration.WithLabelValues(string(period)).Observe(time.Since(start).Seconds())
	}()

	ctx, span := s.tracer.Start(ctx, "summary."+string(period), trace.WithAttributes(attribute.Int64("user_id", userID)))
	defer span.End()

	report := &Report{Period: period}
	var err error
	switch period {
	case PeriodDay:
		report.Day, err = s.Day(ctx, userID, day)
	case PeriodMonth:
		report.Month, err = s.Month(ctx, userID, day)
	case PeriodYear:
		report.Year, err = s.Year(ctx, userID, day)
	default:
		return nil, fmt.Errorf("unknown period %q", period)
	}
	if err != nil {
		span.RecordError(err)
		metrics.ErrorsTotal.WithLabelValues("summary").Inc()
		return nil, err
	}
	return report, nil
}

// Day - суммы за день, отсутствующие данные дают нули
func (s *SummaryService) Day(ctx context.Context, userID int64, day time.Time) (*DaySummary, error) {
	sum := &DaySummary{Date: calc.Day(day)}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.trainings.TotalsOn(gctx, userID, day)
		if err != nil {
			return fmt.Errorf("training totals: %w", err)
		}
		sum.TrainingCalories = calc.Round3(t.Calories)
		sum.TrainingMinutes = t.Minutes
		return nil
	})
	g.Go(func() error {
		f, err := s.food.TotalsOn(gctx, userID, day)
		if err != nil {
			return fmt.Errorf("food totals: %w", err)
		}
		sum.FoodCalories = calc.Round3(f.Calories)
		sum.Protein = calc.Round3(f.Protein)
		sum.Fat = calc.Round3(f.Fat)
		sum.Carbs = calc.Round3(f.Carbs)
		return nil
	})
	g.Go(func() error {
		names, err := s.food.NamesOn(gctx, userID, day)
		if err != nil {
			return fmt.Errorf("food names: %w", err)
		}
		sum.FoodNames = names
		return nil
	})
	g.Go(func() error {
		glasses, err := s.water.GlassesOn(gctx, userID, day)
		if err != nil {
			return fmt.Errorf("water: %w", err)
		}
		sum.WaterMl = glasses * MlPerGlass
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sum, nil
}

// periodData - сырые ряды за интервал, читаются параллельно
type periodData struct {
	health   []models.HealthRecord
	food     []models.FoodEntry
	water    []models.WaterEntry
	training []models.TrainingEntry
}

func (s *SummaryService) load(ctx context.Context, userID int64, from, to time.Time, withTraining bool) (*periodData, error) {
	d := &periodData{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.health, err = s.health.ListBetween(gctx, userID, from, to)
		return wrap("health", err)
	})
	g.Go(func() (err error) {
		d.food, err = s.food.ListBetween(gctx, userID, from, to)
		return wrap("food", err)
	})
	g.Go(func() (err error) {
		d.water, err = s.water.ListBetween(gctx, userID, from, to)
		return wrap("water", err)
	})
	if withTraining {
		g.Go(func() (err error) {
			d.training, err = s.trainings.ListBetween(gctx, userID, from, to)
			return wrap("training", err)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

func wrap(series string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", series, err)
	}
	return nil
}

func dayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Month - текущий календарный месяц
func (s *SummaryService) Month(ctx context.Context, userID int64, day time.Time) (*MonthSummary, error) {
	from := monthStart(day)
	to := from.AddDate(0, 1, 0)
	d, err := s.load(ctx, userID, from, to, true)
	if err != nil {
		return nil, err
	}

	sum := &MonthSummary{Month: from}

	if len(d.health) > 0 {
		sum.HasWeight = true
		sum.StartWeight = d.health[0].Weight
		sum.EndWeight = d.health[len(d.health)-1].Weight
	}

	foodByDay := make(map[string]calc.Nutrients)
	for _, f := range d.food {
		k := dayKey(f.Date)
		foodByDay[k] = foodByDay[k].Add(calc.Nutrients{Calories: f.Calories, Protein: f.Protein, Fat: f.Fat, Carbs: f.Carbs})
	}
	if n := len(foodByDay); n > 0 {
		var total calc.Nutrients
		for _, v := range foodByDay {
			total = total.Add(v)
		}
		sum.DaysWithFood = n
		sum.AvgFoodCalories = calc.Round3(total.Calories / float64(n))
		sum.AvgProtein = calc.Round3(total.Protein / float64(n))
		sum.AvgFat = calc.Round3(total.Fat / float64(n))
		sum.AvgCarbs = calc.Round3(total.Carbs / float64(n))
	}

	waterByDay := make(map[string]int)
	for _, w := range d.water {
		if w.Count > 0 {
			waterByDay[dayKey(w.Date)] += w.Count
		}
	}
	if n := len(waterByDay); n > 0 {
		glasses := 0
		for _, c := range waterByDay {
			glasses += c
		}
		sum.DaysWithWater = n
		sum.AvgWaterMl = calc.Round3(float64(glasses) / float64(n) * MlPerGlass)
	}

	type trainingDay struct {
		cal     float64
		minutes int
	}
	trainingByDay := make(map[string]trainingDay)
	for _, t := range d.training {
		k := dayKey(t.Date)
		td := trainingByDay[k]
		td.cal += t.Calories
		td.minutes += t.Minutes
		trainingByDay[k] = td
	}
	if n := len(trainingByDay); n > 0 {
		var cal float64
		var minutes int
		for _, td := range trainingByDay {
			cal += td.cal
			minutes += td.minutes
		}
		sum.DaysWithTraining = n
		sum.AvgTrainingCalories = calc.Round3(cal / float64(n))
		sum.AvgTrainingMinutes = calc.Round3(float64(minutes) / float64(n))
	}

	sum.HasData = sum.HasWeight || sum.DaysWithFood > 0 || sum.DaysWithWater > 0 || sum.DaysWithTraining > 0
	return sum, nil
}

// Year - последние 12 календарных месяцев включая текущий
func (s *SummaryService) Year(ctx context.Context, userID int64, day time.Time) (*YearSummary, error) {
	to := monthStart(day).AddDate(0, 1, 0)
	from := to.AddDate(0, -12, 0)

	var (
		d      *periodData
		avgCal float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d, err = s.load(gctx, userID, from, to, false)
		return err
	})
	g.Go(func() (err error) {
		avgCal, err = s.trainings.AverageCalories(gctx, userID)
		return wrap("training average", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := &YearSummary{From: from, AvgTrainingCaloriesAllTime: calc.Round3(avgCal)}

	if len(d.health) > 0 {
		sum.HasWeight = true
		sum.StartWeight = d.health[0].Weight
		sum.EndWeight = d.health[len(d.health)-1].Weight
	}

	byMonth := make(map[time.Time]calc.Nutrients)
	var total calc.Nutrients
	for _, f := range d.food {
		m := monthStart(f.Date)
		n := calc.Nutrients{Calories: f.Calories, Protein: f.Protein, Fat: f.Fat, Carbs: f.Carbs}
		byMonth[m] = byMonth[m].Add(n)
		total = total.Add(n)
	}

	glasses := 0
	for _, w := range d.water {
		glasses += w.Count
	}

	if months := len(byMonth); months > 0 {
		sum.MonthsWithFood = months
		sum.AvgFoodCalories = calc.Round3(total.Calories / float64(months))
		sum.AvgProtein = calc.Round3(total.Protein / float64(months))
		sum.AvgFat = calc.Round3(total.Fat / float64(months))
		sum.AvgCarbs = calc.Round3(total.Carbs / float64(months))
		sum.AvgWaterMl = calc.Round3(float64(glasses) / float64(months) * MlPerGlass)

		for m, n := range byMonth {
			mt := &MonthTotals{Month: m, Nutrients: roundNutrients(n)}
			if sum.LatestMonth == nil || m.After(sum.LatestMonth.Month) {
				sum.LatestMonth = mt
			}
			if sum.EarliestMonth == nil || m.Before(sum.EarliestMonth.Month) {
				sum.EarliestMonth = mt
			}
		}
	}

	sum.HasData = sum.HasWeight || sum.MonthsWithFood > 0 || glasses > 0 || avgCal > 0
	return sum, nil
}

func roundNutrients(n calc.Nutrients) calc.Nutrients {
	return calc.Nutrients{
		Calories: calc.Round3(n.Calories),
		Protein:  calc.Round3(n.Protein),
		Fat:      calc.Round3(n.Fat),
		Carbs:    calc.Round3(n.Carbs),
	}
}
