package calc

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Sex - пол пользователя, хранится в user_main.user_sex
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Valid - только два значения допустимы
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

// BMICategory - ключ категории ИМТ, перевод делает locale
type BMICategory string

const (
	BMISeverelyUnderweight BMICategory = "bmi_severely_underweight"
	BMIUnderweight         BMICategory = "bmi_underweight"
	BMINormal              BMICategory = "bmi_normal"
	BMIOverweight          BMICategory = "bmi_overweight"
	BMIObese               BMICategory = "bmi_obese"
)

// Допустимые диапазоны ввода
const (
	MinHeightCm = 100
	MaxHeightCm = 250
	MinWeightKg = 30
	MaxWeightKg = 300
	MinAge      = 10
	MaxAge      = 120
)

// Round3 округляет до трёх знаков, как хранится в базе
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// ComputeBMI - ИМТ, округлённый до 3 знаков. heightCm должен быть > 0.
func ComputeBMI(weightKg, heightCm float64) float64 {
	m := heightCm / 100
	return Round3(weightKg / (m * m))
}

// ClassifyBMI округляет ИМТ до целого и относит к непересекающимся корзинам
func ClassifyBMI(bmi float64) BMICategory {
	r := math.Round(bmi)
	switch {
	case r < 15:
		return BMISeverelyUnderweight
	case r < 18:
		return BMIUnderweight
	case r < 25:
		return BMINormal
	case r < 30:
		return BMIOverweight
	default:
		return BMIObese
	}
}

// DailyCalories - формула Миффлина-Сан Жеора
func DailyCalories(sex Sex, weightKg, heightCm float64, age int) (float64, error) {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	switch sex {
	case SexMale:
		return base + 5, nil
	case SexFemale:
		return base - 161, nil
	default:
		return 0, ErrUnknownSex
	}
}

// AgeOn - полных лет на дату day
func AgeOn(birthdate, day time.Time) int {
	age := day.Year() - birthdate.Year()
	if day.Month() < birthdate.Month() ||
		(day.Month() == birthdate.Month() && day.Day() < birthdate.Day()) {
		age--
	}
	return age
}

// BirthdateFromAge - дата рождения по введённому возрасту (тот же день и месяц)
func BirthdateFromAge(age int, day time.Time) time.Time {
	d := Day(day)
	return d.AddDate(-age, 0, 0)
}

// Day нормализует время до полуночи UTC, так хранятся все даты
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseNumber разбирает число с точкой или десятичной запятой ("72,5")
func ParseNumber(field, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, &ValidationError{Field: field, Reason: ReasonEmpty}
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ValidationError{Field: field, Reason: ReasonNotNumber, Value: s}
	}
	return v, nil
}

// ParseInRange - ParseNumber плюс проверка границ включительно
func ParseInRange(field, raw string, min, max float64) (float64, error) {
	v, err := ParseNumber(field, raw)
	if err != nil {
		return 0, err
	}
	if v < min || v > max {
		return 0, &ValidationError{Field: field, Reason: ReasonOutOfRange, Value: strings.TrimSpace(raw)}
	}
	return v, nil
}

func ParseHeight(raw string) (float64, error) {
	return ParseInRange("height", raw, MinHeightCm, MaxHeightCm)
}

func ParseWeight(raw string) (float64, error) {
	return ParseInRange("weight", raw, MinWeightKg, MaxWeightKg)
}

// ParseAge - только целое число лет
func ParseAge(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: "age", Reason: ReasonNotNumber, Value: s}
	}
	if n < MinAge || n > MaxAge {
		return 0, &ValidationError{Field: "age", Reason: ReasonOutOfRange, Value: s}
	}
	return n, nil
}
