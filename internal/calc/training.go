package calc

import (
	"strconv"
	"strings"
)

// Intensity - встроенная трёхуровневая шкала, используется пока таблица training_types пуста
type Intensity string

const (
	IntensityLight    Intensity = "light"
	IntensityModerate Intensity = "moderate"
	IntensityIntense  Intensity = "intense"
)

var intensityCoefficients = map[Intensity]float64{
	IntensityLight:    2.5,
	IntensityModerate: 3.0,
	IntensityIntense:  3.5,
}

// Intensities в порядке отображения
var Intensities = []Intensity{IntensityLight, IntensityModerate, IntensityIntense}

const (
	MinDurationMinutes = 1
	MaxDurationMinutes = 300
)

// CoefficientFor возвращает коэффициент для встроенной метки
func CoefficientFor(label string) (float64, error) {
	c, ok := intensityCoefficients[Intensity(strings.ToLower(strings.TrimSpace(label)))]
	if !ok {
		return 0, ErrUnknownTrainingType
	}
	return c, nil
}

// CaloriesBurned - ккал за тренировку: вес * коэффициент * минуты / 24
func CaloriesBurned(weightKg, coefficient float64, minutes int) float64 {
	return Round3(weightKg * coefficient * float64(minutes) / 24)
}

// ParseDuration - длительность тренировки в минутах, целое 1-300
func ParseDuration(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: "duration", Reason: ReasonNotNumber, Value: s}
	}
	if n < MinDurationMinutes || n > MaxDurationMinutes {
		return 0, &ValidationError{Field: "duration", Reason: ReasonOutOfRange, Value: s}
	}
	return n, nil
}

// Диапазон веса при записи тренировки шире, чем при регистрации
const (
	MinWorkoutWeightKg = 25
	MaxWorkoutWeightKg = 400
)

func ParseWorkoutWeight(raw string) (float64, error) {
	return ParseInRange("weight", raw, MinWorkoutWeightKg, MaxWorkoutWeightKg)
}
