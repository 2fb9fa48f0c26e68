package calc

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSex - пол не из двух допустимых значений
	ErrUnknownSex = errors.New("unknown sex")
	// ErrUnknownTrainingType - метка интенсивности не распознана
	ErrUnknownTrainingType = errors.New("unrecognized training type")
)

// Причины ошибок валидации, они же ключи локализованных подсказок
const (
	ReasonEmpty         = "empty"
	ReasonNotNumber     = "not_number"
	ReasonNotPositive   = "not_positive"
	ReasonOutOfRange    = "out_of_range"
	ReasonCountMismatch = "count_mismatch"
)

// ValidationError - пользовательский ввод не прошёл проверку, пользователя надо переспросить
type ValidationError struct {
	Field  string
	Reason string
	Value  string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// IsValidation сообщает, является ли err ошибкой валидации
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
