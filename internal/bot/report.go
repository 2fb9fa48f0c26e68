package bot

import (
	"fmt"
	"strings"

	"github.com/VadimVthvPro/PRO-pitashka/internal/locale"
	"github.com/VadimVthvPro/PRO-pitashka/internal/service"
)

func numberedList(names []string) string {
	var sb strings.Builder
	for i, n := range names {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, n)
	}
	return sb.String()
}

// formatFoodLog - сохранённые позиции, итог и блюда без данных
func formatFoodLog(c *locale.Catalog, lang string, res *service.FoodLogResult) string {
	if res.SavedCount == 0 {
		return c.T(lang, "food_none")
	}
	lines := []string{c.T(lang, "food_saved", res.SavedCount)}
	for i, e := range res.Entries {
		lines = append(lines, c.T(lang, "food_item",
			e.Name, res.Grams[i], e.Calories, e.Protein, e.Fat, e.Carbs))
	}
	lines = append(lines, "", c.T(lang, "food_total", res.Total.Calories))
	if len(res.FailedNames) > 0 {
		lines = append(lines, c.T(lang, "food_failed", strings.Join(res.FailedNames, ", ")))
	}
	return strings.Join(lines, "\n")
}

func formatStats(c *locale.Catalog, lang string, s *service.WorkoutStats) string {
	text := c.T(lang, "workout_stats", s.Days, s.Sessions, s.Minutes, s.Calories)
	for _, tc := range s.TopTypes {
		text += "\n" + c.T(lang, "workout_stats_top", tc.Name, tc.Count)
	}
	return text
}

// formatReport выбирает шаблон по периоду сводки
func formatReport(c *locale.Catalog, lang string, r *service.Report) string {
	switch {
	case r.Day != nil:
		return formatDay(c, lang, r.Day)
	case r.Month != nil:
		return formatMonth(c, lang, r.Month)
	case r.Year != nil:
		return formatYear(c, lang, r.Year)
	}
	return c.T(lang, "err_generic")
}

func formatDay(c *locale.Catalog, lang string, d *service.DaySummary) string {
	text := c.T(lang, "summary_day", d.Date.Format("02.01.2006"),
		d.FoodCalories, d.Protein, d.Fat, d.Carbs,
		d.TrainingCalories, d.TrainingMinutes, d.WaterMl)
	if len(d.FoodNames) > 0 {
		text += "\n" + c.T(lang, "summary_day_foods", strings.Join(d.FoodNames, ", "))
	}
	return text
}

func formatMonth(c *locale.Catalog, lang string, m *service.MonthSummary) string {
	if !m.HasData {
		return c.T(lang, "summary_month_empty")
	}
	text := c.T(lang, "summary_month", m.Month.Format("01.2006"),
		m.AvgFoodCalories, m.DaysWithFood, m.AvgProtein, m.AvgFat, m.AvgCarbs,
		m.AvgTrainingCalories, m.AvgTrainingMinutes, m.DaysWithTraining,
		m.AvgWaterMl)
	if m.HasWeight {
		text += "\n" + c.T(lang, "summary_weight", m.StartWeight, m.EndWeight)
	}
	return text
}

func formatYear(c *locale.Catalog, lang string, y *service.YearSummary) string {
	if !y.HasData {
		return c.T(lang, "summary_year_empty")
	}
	text := c.T(lang, "summary_year",
		y.AvgFoodCalories, y.MonthsWithFood, y.AvgProtein, y.AvgFat, y.AvgCarbs,
		y.AvgWaterMl, y.AvgTrainingCaloriesAllTime)
	if y.LatestMonth != nil && y.EarliestMonth != nil {
		text += "\n" + c.T(lang, "summary_year_months",
			y.LatestMonth.Month.Format("01.2006"), y.LatestMonth.Calories,
			y.EarliestMonth.Month.Format("01.2006"), y.EarliestMonth.Calories)
	}
	if y.HasWeight {
		text += "\n" + c.T(lang, "summary_weight", y.StartWeight, y.EndWeight)
	}
	return text
}
