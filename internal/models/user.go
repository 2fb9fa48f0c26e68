package models

import "time"

// User - профиль пользователя, ключ - Telegram ID
type User struct {
	UserID      int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	UserName    string    `gorm:"column:user_name;size:255"`
	Sex         string    `gorm:"column:user_sex;size:16"` // male / female
	DateOfBirth time.Time `gorm:"column:date_of_birth;type:date"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (User) TableName() string { return "user_main" }

// UserLanguage - выбранный язык интерфейса
type UserLanguage struct {
	UserID int64  `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Lang   string `gorm:"column:lang;size:8;not null"`
}

func (UserLanguage) TableName() string { return "user_lang" }

// Цели пользователя
const (
	AimLose = "lose"
	AimKeep = "keep"
	AimGain = "gain"
)

// Aim - цель и дневная норма калорий
type Aim struct {
	UserID        int64   `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Aim           string  `gorm:"column:user_aim;size:32"`
	DailyCalories float64 `gorm:"column:daily_cal"`
}

func (Aim) TableName() string { return "user_aims" }

// PrivacyConsent - согласие на обработку персональных данных.
// Строка появляется раньше профиля: согласие спрашивается до анкеты.
type PrivacyConsent struct {
	UserID      int64      `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Consented   bool       `gorm:"column:consented;not null"`
	ConsentedAt *time.Time `gorm:"column:consent_date"`
	Version     string     `gorm:"column:consent_version;size:16"`
	Revoked     bool       `gorm:"column:revoked;not null"`
	RevokedAt   *time.Time `gorm:"column:revoke_date"`
	UpdatedAt   time.Time
}

func (PrivacyConsent) TableName() string { return "privacy_consent" }

// Active - согласие дано и не отозвано
func (c PrivacyConsent) Active() bool {
	return c.Consented && !c.Revoked
}
