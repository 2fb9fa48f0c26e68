package models

// All - модели для AutoMigrate в порядке создания
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserLanguage{},
		&PrivacyConsent{},
		&Aim{},
		&HealthRecord{},
		&FoodEntry{},
		&WaterEntry{},
		&TrainingType{},
		&TrainingEntry{},
	}
}
