package service

import (
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
)

// Registration DTOs
type RegistrationDTO struct {
	UserID   int64
	Name     string
	Sex      calc.Sex
	Age      int
	Aim      string
	WeightKg float64
	HeightCm float64
	Day      time.Time
}

// HealthProfile - результат расчёта при регистрации или обновлении замеров
type HealthProfile struct {
	BMI           float64
	Category      calc.BMICategory
	DailyCalories float64
	WeightKg      float64
	HeightCm      float64
}

// Food DTOs
type FoodItem struct {
	Name  string
	Grams float64
}

// FoodLogResult - частичный успех: сохранённые позиции и те, для которых нет данных
type FoodLogResult struct {
	SavedCount  int
	FailedNames []string
	Entries     []models.FoodEntry
	Grams       []float64 // граммовка для каждой записи Entries
	Total       calc.Nutrients
}

// Workout DTOs
type TrainingOption struct {
	ID          uint
	Intensity   calc.Intensity // только для встроенных уровней, ID == 0
	Name        string
	Emoji       string
	Description string
	Coefficient float64
}

// Label - название с эмодзи
func (o TrainingOption) Label() string {
	if o.Emoji == "" {
		return o.Name
	}
	return o.Emoji + " " + o.Name
}

type WorkoutResult struct {
	Calories float64
	DayTotal float64
}

type WorkoutStats struct {
	Days     int
	Sessions int
	Minutes  int
	Calories float64
	TopTypes []TypeCount
}

type TypeCount struct {
	Name  string
	Count int
}
