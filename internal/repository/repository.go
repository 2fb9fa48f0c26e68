package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound - запись не найдена
var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// dayBounds - полуинтервал [day, day+1) в UTC
func dayBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}
