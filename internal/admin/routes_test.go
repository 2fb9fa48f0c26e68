package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/database"
	"github.com/VadimVthvPro/PRO-pitashka/internal/export"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"github.com/VadimVthvPro/PRO-pitashka/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testKey = "secret"

type testServer struct {
	router  *gin.Engine
	users   *service.UserService
	food    repository.FoodRepository
	pingErr error
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:admin_"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrateTables(db, models.All()...))
	return db
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)

	health := repository.NewHealthRepo(db)
	food := repository.NewFoodRepo(db)
	water := repository.NewWaterRepo(db)
	trainings := repository.NewTrainingRepo(db)
	users := service.NewUserService(repository.NewUserRepo(db), repository.NewLanguageRepo(db),
		repository.NewAimRepo(db), health)

	ts := &testServer{router: gin.New(), users: users, food: food}
	h := SetupRoutes(ts.router, Deps{
		Users:     users,
		Summaries: service.NewSummaryService(food, water, trainings, health),
		Workouts:  service.NewWorkoutService(trainings, repository.NewTrainingTypeRepo(db), health),
		Exporter:  export.NewExporter(food, trainings, health, water),
		Ping:      func(context.Context) error { return ts.pingErr },
		Key:       testKey,
	})
	h.now = func() time.Time { return time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC) }
	return ts
}

func (ts *testServer) do(method, path, body string, withKey bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if withKey {
		req.Header.Set("X-Admin-Key", testKey)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) register(t *testing.T, userID int64) {
	_, err := ts.users.Register(context.Background(), service.RegistrationDTO{
		UserID: userID, Name: "Test", Sex: calc.SexMale, Age: 30, Aim: models.AimKeep,
		WeightKg: 80, HeightCm: 180, Day: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/healthz", "", false).Code)
	ts.pingErr = errors.New("db down")
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(http.MethodGet, "/healthz", "", false).Code)

	w := ts.do(http.MethodGet, "/metrics", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/admin/users", "", false).Code)

	r := gin.New()
	r.GET("/x", AuthMiddleware(""), func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Admin-Key", "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "empty key must not open the API")
}

func TestListUsers(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, 1)
	ts.register(t, 2)

	w := ts.do(http.MethodGet, "/admin/users?limit=1", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Users []models.User `json:"users"`
		Total int64         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Users, 1)
	assert.EqualValues(t, 2, body.Total)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/admin/users?limit=0", "", true).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/admin/users?offset=-1", "", true).Code)
}

func TestUserSummary(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, 1)
	ctx := context.Background()
	for _, cal := range []float64{1800, 2200} {
		require.NoError(t, ts.food.Create(ctx, &models.FoodEntry{
			UserID: 1, Date: time.Date(2024, 3, int(cal/100), 0, 0, 0, 0, time.UTC), Name: "X", Calories: cal,
		}))
	}

	w := ts.do(http.MethodGet, "/admin/users/1/summary?period=month", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var report service.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.NotNil(t, report.Month)
	assert.InDelta(t, 2000, report.Month.AvgFoodCalories, 0.001)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/admin/users/1/summary?period=week", "", true).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/admin/users/1/summary?date=20.03.2024", "", true).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/admin/users/abc/summary", "", true).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/admin/users/99/summary", "", true).Code)
}

func TestExportUser(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, 1)
	require.NoError(t, ts.food.Create(context.Background(), &models.FoodEntry{
		UserID: 1, Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Name: "Борщ", Calories: 98,
	}))

	w := ts.do(http.MethodGet, "/admin/users/1/export?from=2024-03-01&to=2024-03-31", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "diary_1_2024-03-01_2024-03-31.xlsx")

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetFood)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Борщ", rows[1][1])

	assert.Equal(t, http.StatusBadRequest,
		ts.do(http.MethodGet, "/admin/users/1/export?from=2024-03-31&to=2024-03-01", "", true).Code)
	assert.Equal(t, http.StatusBadRequest,
		ts.do(http.MethodGet, "/admin/users/1/export?from=yesterday", "", true).Code)
}

func TestTrainingTypes(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/admin/training-types", `{"name_ru":"Бег","name_en":"Running","emoji":"🏃","base_coefficient":7}`, true)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.TrainingType
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.True(t, created.IsActive)

	assert.Equal(t, http.StatusBadRequest,
		ts.do(http.MethodPost, "/admin/training-types", `{"name_ru":"Бег","base_coefficient":-1}`, true).Code)
	assert.Equal(t, http.StatusBadRequest,
		ts.do(http.MethodPost, "/admin/training-types", `{"name_en":"Running"}`, true).Code)

	w = ts.do(http.MethodPatch, "/admin/training-types/1", `{"is_active":false}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPatch, "/admin/training-types/42", `{"is_active":true}`, true).Code)

	w = ts.do(http.MethodGet, "/admin/training-types", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var types []models.TrainingType
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &types))
	require.Len(t, types, 1)
	assert.False(t, types[0].IsActive)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/admin/training-types/reload", "", true).Code)
}
