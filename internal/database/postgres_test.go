package database

import (
	"context"
	"testing"

	"github.com/VadimVthvPro/PRO-pitashka/internal/config"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestWithUTC(t *testing.T) {
	assert.Equal(t, "postgres://u:p@db:5432/app?TimeZone=UTC", WithUTC("postgres://u:p@db:5432/app"))
	assert.Equal(t, "postgres://db/app?sslmode=disable&TimeZone=UTC", WithUTC("postgres://db/app?sslmode=disable"))
	assert.Equal(t, "host=db user=u TimeZone=UTC", WithUTC("host=db user=u"))
	assert.Equal(t, "host=db TimeZone=Europe/Minsk", WithUTC("host=db TimeZone=Europe/Minsk"))
}

func TestSeedTrainingTypesOnce(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:seed?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, Configure(db, config.DatabaseConfig{MaxOpenConns: 1}))
	require.NoError(t, AutoMigrateTables(db, models.All()...))

	n, err := SeedTrainingTypes(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultTrainingTypes()), n)

	n, err = SeedTrainingTypes(context.Background(), db)
	require.NoError(t, err)
	assert.Zero(t, n)
}
