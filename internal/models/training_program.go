package models

import "time"

// TrainingType - вид тренировки с коэффициентом расхода калорий
type TrainingType struct {
	ID              uint    `gorm:"primaryKey"`
	NameRU          string  `gorm:"column:name_ru;size:100;not null"`
	NameEN          string  `gorm:"column:name_en;size:100"`
	Emoji           string  `gorm:"column:emoji;size:16"`
	DescriptionRU   string  `gorm:"column:description_ru;type:text"`
	DescriptionEN   string  `gorm:"column:description_en;type:text"`
	BaseCoefficient float64 `gorm:"column:base_coefficient;not null"`
	IsActive        bool    `gorm:"column:is_active;not null;default:true"`
}

func (TrainingType) TableName() string { return "training_types" }

// Name - название на языке lang. Справочник двуязычный: русским - русское,
// остальным английское, если оно заполнено.
func (t TrainingType) Name(lang string) string {
	if lang != "ru" && t.NameEN != "" {
		return t.NameEN
	}
	return t.NameRU
}

// Description - описание на языке lang
func (t TrainingType) Description(lang string) string {
	if lang != "ru" && t.DescriptionEN != "" {
		return t.DescriptionEN
	}
	return t.DescriptionRU
}

// TrainingEntry - проведённая тренировка
type TrainingEntry struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         int64     `gorm:"column:user_id;index:idx_training_user_date"`
	Date           time.Time `gorm:"column:date;type:date;index:idx_training_user_date"`
	Calories       float64   `gorm:"column:training_cal"`
	Minutes        int       `gorm:"column:tren_time"`
	TrainingTypeID *uint     `gorm:"column:training_type_id"`
	TrainingName   string    `gorm:"column:training_name;size:100"`
}

func (TrainingEntry) TableName() string { return "user_training" }
