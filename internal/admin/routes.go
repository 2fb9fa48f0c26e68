package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/export"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"github.com/VadimVthvPro/PRO-pitashka/internal/service"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	dateLayout   = "2006-01-02"
)

// Handlers содержит зависимости от сервисов
type Handlers struct {
	users     *service.UserService
	summaries *service.SummaryService
	workouts  *service.WorkoutService
	exporter  *export.Exporter
	ping      func(context.Context) error
	now       func() time.Time
}

// Deps - всё, что нужно админке
type Deps struct {
	Users     *service.UserService
	Summaries *service.SummaryService
	Workouts  *service.WorkoutService
	Exporter  *export.Exporter
	Ping      func(context.Context) error // проверка БД для /healthz, может быть nil
	Key       string
}

// SetupRoutes - служебные маршруты открыты, /admin только с ключом
func SetupRoutes(r *gin.Engine, deps Deps) *Handlers {
	h := &Handlers{
		users:     deps.Users,
		summaries: deps.Summaries,
		workouts:  deps.Workouts,
		exporter:  deps.Exporter,
		ping:      deps.Ping,
		now:       time.Now,
	}

	r.Use(RequestLogger())
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	adminGroup := r.Group("/admin", AuthMiddleware(deps.Key))

	// Пользователи
	adminGroup.GET("/users", h.ListUsers)
	adminGroup.GET("/users/:id/summary", h.UserSummary)
	adminGroup.GET("/users/:id/export", h.ExportUser)

	// Виды тренировок
	adminGroup.GET("/training-types", h.ListTrainingTypes)
	adminGroup.POST("/training-types", h.CreateTrainingType)
	adminGroup.PATCH("/training-types/:id", h.SetTrainingTypeActive)
	adminGroup.POST("/training-types/reload", h.ReloadTrainingTypes)

	return h
}

func (h *Handlers) Health(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			utils.Log.Errorf("[Health] %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListUsers - страница пользователей и общее количество
func (h *Handlers) ListUsers(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultLimit)
	if err != nil || limit < 1 || limit > maxLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be 1..%d", maxLimit)})
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be non-negative"})
		return
	}

	ctx := c.Request.Context()
	users, err := h.users.ListUsers(ctx, limit, offset)
	if err != nil {
		internalError(c, "ListUsers", err)
		return
	}
	total, err := h.users.GetUsersCount(ctx)
	if err != nil {
		internalError(c, "ListUsers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total, "limit": limit, "offset": offset})
}

// UserSummary - сводка за день, месяц или год на дату ?date= (по умолчанию сегодня)
func (h *Handlers) UserSummary(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	period, ok := service.ParsePeriod(c.DefaultQuery("period", string(service.PeriodDay)))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be day, month or year"})
		return
	}
	day := h.now()
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = d
	}

	report, err := h.summaries.Summary(c.Request.Context(), userID, period, day)
	if err != nil {
		internalError(c, "UserSummary", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportUser - xlsx дневника за [from, to]
func (h *Handlers) ExportUser(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	to := calc.Day(h.now())
	from := to.AddDate(0, -1, 0)
	var err error
	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(dateLayout, raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(dateLayout, raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return
		}
	}

	f, err := h.exporter.UserWorkbook(c.Request.Context(), userID, from, to)
	if calc.IsValidation(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return
	}
	if err != nil {
		internalError(c, "ExportUser", err)
		return
	}
	defer f.Close()

	name := fmt.Sprintf("diary_%d_%s_%s.xlsx", userID, from.Format(dateLayout), to.Format(dateLayout))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		utils.Log.Errorf("[ExportUser] write: %v", err)
	}
}

func (h *Handlers) ListTrainingTypes(c *gin.Context) {
	types, err := h.workouts.AllTrainingTypes(c.Request.Context())
	if err != nil {
		internalError(c, "ListTrainingTypes", err)
		return
	}
	c.JSON(http.StatusOK, types)
}

// trainingTypeInput - тело запроса на создание вида тренировки
type trainingTypeInput struct {
	NameRU          string  `json:"name_ru" binding:"required"`
	NameEN          string  `json:"name_en"`
	Emoji           string  `json:"emoji"`
	DescriptionRU   string  `json:"description_ru"`
	DescriptionEN   string  `json:"description_en"`
	BaseCoefficient float64 `json:"base_coefficient" binding:"required"`
}

func (h *Handlers) CreateTrainingType(c *gin.Context) {
	var input trainingTypeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tt := models.TrainingType{
		NameRU:          strings.TrimSpace(input.NameRU),
		NameEN:          strings.TrimSpace(input.NameEN),
		Emoji:           input.Emoji,
		DescriptionRU:   input.DescriptionRU,
		DescriptionEN:   input.DescriptionEN,
		BaseCoefficient: input.BaseCoefficient,
	}
	if err := h.workouts.CreateTrainingType(c.Request.Context(), &tt); err != nil {
		if calc.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		internalError(c, "CreateTrainingType", err)
		return
	}
	c.JSON(http.StatusCreated, tt)
}

// SetTrainingTypeActive - {"is_active": false} скрывает вид из клавиатуры бота
func (h *Handlers) SetTrainingTypeActive(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var input struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.workouts.SetTrainingTypeActive(c.Request.Context(), uint(id), *input.IsActive)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "training type not found"})
		return
	}
	if err != nil {
		internalError(c, "SetTrainingTypeActive", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_active": *input.IsActive})
}

// ReloadTrainingTypes сбрасывает кэш справочника этого процесса
func (h *Handlers) ReloadTrainingTypes(c *gin.Context) {
	h.workouts.ReloadTrainingTypes()
	c.JSON(http.StatusOK, gin.H{"status": "reloaded"})
}

// userID - :id из пути; 404, если пользователь не зарегистрирован
func (h *Handlers) userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	registered, err := h.users.IsRegistered(c.Request.Context(), id)
	if err != nil {
		internalError(c, "userID", err)
		return 0, false
	}
	if !registered {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// internalError - детали только в лог
func internalError(c *gin.Context, op string, err error) {
	utils.Log.Errorf("[%s] %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
