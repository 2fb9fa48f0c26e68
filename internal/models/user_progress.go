package models

import "time"

// HealthRecord - замер веса и роста. Записи только добавляются,
// текущей считается последняя по дате (при равных датах - по id).
type HealthRecord struct {
	ID            uint      `gorm:"primaryKey"`
	UserID        int64     `gorm:"column:user_id;index:idx_health_user_date"`
	Date          time.Time `gorm:"column:date;type:date;index:idx_health_user_date"`
	Weight        float64   `gorm:"column:weight"`
	Height        float64   `gorm:"column:height"`
	IMT           float64   `gorm:"column:imt"`
	IMTCategory   string    `gorm:"column:imt_str;size:64"`
	DailyCalories float64   `gorm:"column:cal"`
}

func (HealthRecord) TableName() string { return "user_health" }
