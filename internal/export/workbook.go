package export

import (
	"context"
	"fmt"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"github.com/VadimVthvPro/PRO-pitashka/internal/service"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// Листы книги
const (
	SheetFood     = "Питание"
	SheetTraining = "Тренировки"
	SheetHealth   = "Замеры"
	SheetWater    = "Вода"
)

const dateLayout = "2006-01-02"

// Exporter собирает дневник пользователя за период в xlsx
type Exporter struct {
	food      repository.FoodRepository
	trainings repository.TrainingRepository
	health    repository.HealthRepository
	water     repository.WaterRepository
}

func NewExporter(
	food repository.FoodRepository,
	trainings repository.TrainingRepository,
	health repository.HealthRepository,
	water repository.WaterRepository,
) *Exporter {
	return &Exporter{food: food, trainings: trainings, health: health, water: water}
}

// UserWorkbook - книга за дни from..to включительно, по листу на каждый ряд данных
func (e *Exporter) UserWorkbook(ctx context.Context, userID int64, from, to time.Time) (*excelize.File, error) {
	from, to = calc.Day(from), calc.Day(to)
	if to.Before(from) {
		return nil, &calc.ValidationError{Field: "period", Reason: calc.ReasonOutOfRange,
			Value: from.Format(dateLayout) + ".." + to.Format(dateLayout)}
	}
	end := to.AddDate(0, 0, 1)

	var (
		food      []models.FoodEntry
		trainings []models.TrainingEntry
		health    []models.HealthRecord
		water     []models.WaterEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { food, err = e.food.ListBetween(gctx, userID, from, end); return })
	g.Go(func() (err error) { trainings, err = e.trainings.ListBetween(gctx, userID, from, end); return })
	g.Go(func() (err error) { health, err = e.health.ListBetween(gctx, userID, from, end); return })
	g.Go(func() (err error) { water, err = e.water.ListBetween(gctx, userID, from, end); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load diary: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetFood); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetTraining, SheetHealth, SheetWater} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("error creating sheet: %w", err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	foodRows := make([][]interface{}, 0, len(food))
	for _, r := range food {
		foodRows = append(foodRows, []interface{}{r.Date.Format(dateLayout), r.Name, r.Calories, r.Protein, r.Fat, r.Carbs})
	}
	trainingRows := make([][]interface{}, 0, len(trainings))
	for _, r := range trainings {
		trainingRows = append(trainingRows, []interface{}{r.Date.Format(dateLayout), r.TrainingName, r.Minutes, r.Calories})
	}
	healthRows := make([][]interface{}, 0, len(health))
	for _, r := range health {
		healthRows = append(healthRows, []interface{}{r.Date.Format(dateLayout), r.Weight, r.Height, r.IMT, r.DailyCalories})
	}
	waterRows := make([][]interface{}, 0, len(water))
	for _, r := range water {
		waterRows = append(waterRows, []interface{}{r.Date.Format(dateLayout), r.Count, r.Count * service.MlPerGlass})
	}

	sheets := []struct {
		name    string
		columns []interface{}
		rows    [][]interface{}
	}{
		{SheetFood, []interface{}{"Дата", "Блюдо", "Ккал", "Белки", "Жиры", "Углеводы"}, foodRows},
		{SheetTraining, []interface{}{"Дата", "Тренировка", "Минуты", "Ккал"}, trainingRows},
		{SheetHealth, []interface{}{"Дата", "Вес", "Рост", "ИМТ", "Норма ккал"}, healthRows},
		{SheetWater, []interface{}{"Дата", "Стаканы", "Мл"}, waterRows},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, header, s.columns, s.rows); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, columns []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &columns); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	return f.SetColWidth(sheet, "A", lastCol, 14)
}
