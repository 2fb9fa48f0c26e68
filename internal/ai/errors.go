package ai

import "errors"

var (
	// ErrOracleUnavailable - сервис не ответил после всех попыток
	ErrOracleUnavailable = errors.New("nutrition oracle unavailable")
	// ErrNoNutritionData - ответ получен, но данных КБЖУ в нём нет
	ErrNoNutritionData = errors.New("no nutrition data in oracle response")
	// ErrNoFoodsRecognized - на фото не найдено ни одного блюда
	ErrNoFoodsRecognized = errors.New("no foods recognized")
)
