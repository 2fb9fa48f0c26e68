package service

import (
	"context"
	"testing"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSummaryService(r repos) *SummaryService {
	return NewSummaryService(r.food, r.water, r.trainings, r.health)
}

func addFood(t *testing.T, r repos, userID int64, d time.Time, cal, protein float64) {
	t.Helper()
	require.NoError(t, r.food.Create(context.Background(), &models.FoodEntry{
		UserID: userID, Date: d, Name: "Еда", Calories: cal, Protein: protein,
	}))
}

func addTraining(t *testing.T, r repos, userID int64, d time.Time, cal float64, minutes int) {
	t.Helper()
	require.NoError(t, r.trainings.Create(context.Background(), &models.TrainingEntry{
		UserID: userID, Date: d, Calories: cal, Minutes: minutes,
	}))
}

func addWeight(t *testing.T, r repos, userID int64, d time.Time, weight float64) {
	t.Helper()
	require.NoError(t, r.health.Create(context.Background(), &models.HealthRecord{
		UserID: userID, Date: d, Weight: weight, Height: 180,
	}))
}

func TestDaySummary(t *testing.T) {
	r := newRepos(t)
	svc := newSummaryService(r)
	ctx := context.Background()
	today := day(2026, 3, 15)

	empty, err := svc.Day(ctx, 1, today)
	require.NoError(t, err)
	assert.Zero(t, empty.FoodCalories)
	assert.Zero(t, empty.WaterMl)
	assert.Empty(t, empty.FoodNames)

	addFood(t, r, 1, today, 500, 20)
	addFood(t, r, 1, today, 250.5, 10)
	addFood(t, r, 1, today.AddDate(0, 0, 1), 9999, 0)
	addTraining(t, r, 1, today, 300, 30)
	_, err = r.water.AddGlass(ctx, 1, today)
	require.NoError(t, err)
	_, err = r.water.AddGlass(ctx, 1, today)
	require.NoError(t, err)

	sum, err := svc.Day(ctx, 1, today)
	require.NoError(t, err)
	assert.Equal(t, 750.5, sum.FoodCalories)
	assert.Equal(t, 30.0, sum.Protein)
	assert.Equal(t, 300.0, sum.TrainingCalories)
	assert.Equal(t, 30, sum.TrainingMinutes)
	assert.Equal(t, 600, sum.WaterMl)
	assert.Len(t, sum.FoodNames, 2)
}

func TestMonthSummaryAveragesOverDaysWithData(t *testing.T) {
	r := newRepos(t)
	svc := newSummaryService(r)
	ctx := context.Background()

	addFood(t, r, 1, day(2026, 3, 1), 1800, 90)
	addFood(t, r, 1, day(2026, 3, 5), 1000, 50)
	addFood(t, r, 1, day(2026, 3, 5), 1000, 50)
	addFood(t, r, 1, day(2026, 3, 20), 2200, 110)
	addFood(t, r, 1, day(2026, 2, 28), 5000, 0)
	addFood(t, r, 2, day(2026, 3, 2), 100, 0)

	addTraining(t, r, 1, day(2026, 3, 2), 400, 40)
	addTraining(t, r, 1, day(2026, 3, 2), 200, 20)
	addTraining(t, r, 1, day(2026, 3, 9), 300, 30)

	_, err := r.water.AddGlass(ctx, 1, day(2026, 3, 1))
	require.NoError(t, err)

	addWeight(t, r, 1, day(2026, 3, 3), 81)
	addWeight(t, r, 1, day(2026, 3, 18), 79.5)

	sum, err := svc.Month(ctx, 1, day(2026, 3, 25))
	require.NoError(t, err)
	assert.True(t, sum.HasData)
	assert.Equal(t, 3, sum.DaysWithFood)
	assert.Equal(t, 2000.0, sum.AvgFoodCalories)
	assert.Equal(t, 100.0, sum.AvgProtein)
	assert.Equal(t, 2, sum.DaysWithTraining)
	assert.Equal(t, 450.0, sum.AvgTrainingCalories)
	assert.Equal(t, 45.0, sum.AvgTrainingMinutes)
	assert.Equal(t, 300.0, sum.AvgWaterMl)
	assert.True(t, sum.HasWeight)
	assert.Equal(t, 81.0, sum.StartWeight)
	assert.Equal(t, 79.5, sum.EndWeight)
}

func TestMonthSummaryNoData(t *testing.T) {
	svc := newSummaryService(newRepos(t))
	sum, err := svc.Month(context.Background(), 1, day(2026, 3, 25))
	require.NoError(t, err)
	assert.False(t, sum.HasData)
	assert.Zero(t, sum.AvgFoodCalories)
}

func TestYearSummary(t *testing.T) {
	r := newRepos(t)
	svc := newSummaryService(r)
	ctx := context.Background()

	addFood(t, r, 1, day(2026, 3, 1), 1000, 0)
	addFood(t, r, 1, day(2026, 3, 10), 500, 0)
	addFood(t, r, 1, day(2025, 12, 5), 900, 0)
	addFood(t, r, 1, day(2025, 3, 31), 5000, 0)

	for i := 0; i < 3; i++ {
		_, err := r.water.AddGlass(ctx, 1, day(2026, 1, 10))
		require.NoError(t, err)
	}

	addTraining(t, r, 1, day(2024, 6, 1), 300, 30)
	addTraining(t, r, 1, day(2026, 2, 1), 500, 50)

	addWeight(t, r, 1, day(2025, 2, 1), 90)
	addWeight(t, r, 1, day(2025, 5, 1), 85)
	addWeight(t, r, 1, day(2026, 3, 1), 80)

	sum, err := svc.Year(ctx, 1, day(2026, 3, 15))
	require.NoError(t, err)
	assert.True(t, sum.HasData)
	assert.Equal(t, day(2025, 4, 1), sum.From)
	assert.Equal(t, 2, sum.MonthsWithFood)
	assert.Equal(t, 1200.0, sum.AvgFoodCalories)
	assert.Equal(t, 450.0, sum.AvgWaterMl)
	assert.Equal(t, 400.0, sum.AvgTrainingCaloriesAllTime)
	assert.Equal(t, 85.0, sum.StartWeight)
	assert.Equal(t, 80.0, sum.EndWeight)

	require.NotNil(t, sum.LatestMonth)
	require.NotNil(t, sum.EarliestMonth)
	assert.Equal(t, day(2026, 3, 1), sum.LatestMonth.Month)
	assert.Equal(t, 1500.0, sum.LatestMonth.Calories)
	assert.Equal(t, day(2025, 12, 1), sum.EarliestMonth.Month)
	assert.Equal(t, 900.0, sum.EarliestMonth.Calories)
}

func TestSummaryDispatch(t *testing.T) {
	svc := newSummaryService(newRepos(t))
	ctx := context.Background()

	for _, p := range []Period{PeriodDay, PeriodMonth, PeriodYear} {
		rep, err := svc.Summary(ctx, 1, p, day(2026, 3, 15))
		require.NoError(t, err)
		assert.Equal(t, p, rep.Period)
	}

	_, err := svc.Summary(ctx, 1, "week", day(2026, 3, 15))
	assert.Error(t, err)

	p, ok := ParsePeriod("month")
	assert.True(t, ok)
	assert.Equal(t, PeriodMonth, p)
	_, ok = ParsePeriod("decade")
	assert.False(t, ok)
}
