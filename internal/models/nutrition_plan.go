package models

import "time"

// FoodEntry - съеденная порция, КБЖУ уже пересчитаны на вес порции
type FoodEntry struct {
	ID       uint      `gorm:"primaryKey"`
	UserID   int64     `gorm:"column:user_id;index:idx_food_user_date"`
	Date     time.Time `gorm:"column:date;type:date;index:idx_food_user_date"`
	Name     string    `gorm:"column:name_of_food;size:255"`
	Protein  float64   `gorm:"column:b"`
	Fat      float64   `gorm:"column:g"`
	Carbs    float64   `gorm:"column:u"`
	Calories float64   `gorm:"column:cal"`
}

func (FoodEntry) TableName() string { return "food" }

// WaterEntry - стаканы воды за день, одна строка на пользователя и дату
type WaterEntry struct {
	ID     uint      `gorm:"primaryKey"`
	UserID int64     `gorm:"column:user_id;uniqueIndex:idx_water_user_day"`
	Date   time.Time `gorm:"column:data;type:date;uniqueIndex:idx_water_user_day"`
	Count  int       `gorm:"column:count;not null;default:0"`
}

func (WaterEntry) TableName() string { return "water" }
