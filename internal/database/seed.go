package database

import (
	"context"
	"fmt"

	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	"gorm.io/gorm"
)

// DefaultTrainingTypes - стартовый справочник тренировок.
// Первые три соответствуют встроенным уровням интенсивности 2.5 / 3.0 / 3.5.
func DefaultTrainingTypes() []models.TrainingType {
	return []models.TrainingType{
		{NameRU: "Лёгкая тренировка", NameEN: "Light workout", Emoji: "🚶", DescriptionRU: "Ходьба, растяжка, йога", DescriptionEN: "Walking, stretching, yoga", BaseCoefficient: 2.5, IsActive: true},
		{NameRU: "Средняя тренировка", NameEN: "Moderate workout", Emoji: "🏃", DescriptionRU: "Бег трусцой, велосипед, плавание", DescriptionEN: "Jogging, cycling, swimming", BaseCoefficient: 3.0, IsActive: true},
		{NameRU: "Интенсивная тренировка", NameEN: "Intense workout", Emoji: "🔥", DescriptionRU: "Интервалы, кроссфит, спарринг", DescriptionEN: "Intervals, crossfit, sparring", BaseCoefficient: 3.5, IsActive: true},
		{NameRU: "Силовая тренировка", NameEN: "Strength training", Emoji: "🏋️", DescriptionRU: "Работа с весами", DescriptionEN: "Weight lifting", BaseCoefficient: 3.0, IsActive: true},
		{NameRU: "Танцы", NameEN: "Dancing", Emoji: "💃", DescriptionRU: "Любые танцевальные занятия", DescriptionEN: "Any dance class", BaseCoefficient: 2.8, IsActive: true},
	}
}

// SeedTrainingTypes заполняет training_types, если таблица пуста. Возвращает число вставленных строк.
func SeedTrainingTypes(ctx context.Context, db *gorm.DB) (int, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.TrainingType{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count training types: %w", err)
	}
	if count > 0 {
		utils.Log.Infof("training_types already has %d rows, skip seeding", count)
		return 0, nil
	}

	types := DefaultTrainingTypes()
	if err := db.WithContext(ctx).Create(&types).Error; err != nil {
		return 0, fmt.Errorf("seed training types: %w", err)
	}
	utils.Log.Infof("✅ Seeded %d training types", len(types))
	return len(types), nil
}
