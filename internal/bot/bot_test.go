package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/database"
	"github.com/VadimVthvPro/PRO-pitashka/internal/locale"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"github.com/VadimVthvPro/PRO-pitashka/internal/service"
	"github.com/glebarez/sqlite"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const adminID = 1

// fakeAPI запоминает отправленные сообщения
type fakeAPI struct {
	mu           sync.Mutex
	sent         []tgbotapi.MessageConfig
	callbacks    []tgbotapi.CallbackConfig
	failMarkdown bool
	updates      []tgbotapi.Update
	stopped      bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, nil
	}
	if f.failMarkdown && msg.ParseMode != "" {
		return tgbotapi.Message{}, errors.New("Bad Request: can't parse entities")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.callbacks = append(f.callbacks, cb)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update, len(f.updates))
	for _, u := range f.updates {
		ch <- u
	}
	close(ch)
	return ch
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeAPI) GetFileDirectURL(string) (string, error) {
	return "", errors.New("no files in tests")
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

func (f *fakeAPI) last() string {
	t := f.texts()
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

type fakeEstimator struct {
	data map[string]calc.Nutrients
	err  error
}

func (f *fakeEstimator) EstimateNutrition(context.Context, []string) (map[string]calc.Nutrients, error) {
	return f.data, f.err
}

type fakeGenerator struct{}

func (fakeGenerator) Generate(_ context.Context, namespace, _ string, _ time.Duration) (string, error) {
	return "generated " + namespace, nil
}

type testBot struct {
	*BotApp
	api     *fakeAPI
	catalog *locale.Catalog
	est     *fakeEstimator
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:bot_"+name+"?mode=memory&cache=shared"), &gorm.Config{
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

func newTestBot(t *testing.T) *testBot {
	db := setupTestDB(t)
	users := repository.NewUserRepo(db)
	aims := repository.NewAimRepo(db)
	health := repository.NewHealthRepo(db)
	food := repository.NewFoodRepo(db)
	water := repository.NewWaterRepo(db)
	trainings := repository.NewTrainingRepo(db)

	est := &fakeEstimator{}
	svc := Services{
		Users:     service.NewUserService(users, repository.NewLanguageRepo(db), aims, health),
		Food:      service.NewFoodService(food, nil, nil),
		Water:     service.NewWaterService(water),
		Workouts:  service.NewWorkoutService(trainings, repository.NewTrainingTypeRepo(db), health),
		Summaries: service.NewSummaryService(food, water, trainings, health),
		Advice:    service.NewAdviceService(users, aims, health, fakeGenerator{}, time.Hour),
		Privacy:   service.NewPrivacyService(repository.NewConsentRepo(db)),
		Estimator: est,
	}
	api := &fakeAPI{}
	catalog := locale.MustLoad()
	b := NewBotApp(api, svc, catalog, Options{Admins: []int64{adminID}, MaxConcurrency: 2})
	b.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	return &testBot{BotApp: b, api: api, catalog: catalog, est: est}
}

func textUpdate(userID int64, text string) tgbotapi.Update {
	m := &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, FirstName: "Test"},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return tgbotapi.Update{Message: m}
}

func callbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}}
}

func (tb *testBot) say(userID int64, texts ...string) {
	for _, text := range texts {
		tb.HandleUpdate(context.Background(), textUpdate(userID, text))
	}
}

func (tb *testBot) register(t *testing.T, userID int64) {
	t.Helper()
	tb.say(userID, "/start", "🇬🇧 English")
	tb.HandleUpdate(context.Background(), callbackUpdate(userID, privacyAccept))
	tb.say(userID, "👨 Male", "30", "180", "80", "⚖️ Keep weight")
	require.Equal(t, StateIdle, tb.store.Get(userID).State)
}

func TestRegistrationFlow(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.say(42, "/start")
	assert.Equal(t, tb.catalog.T("ru", "lang_prompt"), tb.api.last())
	assert.Equal(t, StateLanguage, tb.store.Get(42).State)

	tb.say(42, "🇬🇧 English")
	assert.Equal(t, StatePrivacy, tb.store.Get(42).State)
	assert.Equal(t, tb.catalog.T("en", "privacy_prompt"), tb.api.last())
	assert.Equal(t, "en", tb.svc.Users.Language(ctx, 42))

	tb.HandleUpdate(ctx, callbackUpdate(42, privacyAccept))
	assert.Equal(t, StateRegSex, tb.store.Get(42).State)
	consented, err := tb.svc.Privacy.HasConsent(ctx, 42)
	require.NoError(t, err)
	assert.True(t, consented)

	tb.say(42, "👨 Male", "abc")
	assert.Equal(t, tb.catalog.T("en", "invalid_not_number"), tb.api.last())
	assert.Equal(t, StateRegAge, tb.store.Get(42).State)

	tb.say(42, "30", "180", "80")
	assert.Equal(t, StateRegAim, tb.store.Get(42).State)

	tb.say(42, "⚖️ Keep weight")
	texts := tb.api.texts()
	assert.Contains(t, texts[len(texts)-2], "Profile saved")
	assert.Equal(t, tb.catalog.T("en", "menu"), tb.api.last())
	assert.Equal(t, StateIdle, tb.store.Get(42).State)

	registered, err := tb.svc.Users.IsRegistered(ctx, 42)
	require.NoError(t, err)
	assert.True(t, registered)

	tb.say(42, "/start")
	assert.Equal(t, tb.catalog.T("en", "menu"), tb.api.last())
}

func TestMenuRequiresRegistration(t *testing.T) {
	tb := newTestBot(t)
	tb.say(5, "💧 Water")
	assert.Equal(t, tb.catalog.T("ru", "privacy_required"), tb.api.last())

	require.NoError(t, tb.svc.Privacy.Accept(context.Background(), 5, tb.now()))
	tb.say(5, "💧 Water")
	assert.Equal(t, tb.catalog.T("ru", "err_not_registered"), tb.api.last())
}

func TestPrivacyDecline(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.say(12, "/start", "🇬🇧 English")
	tb.HandleUpdate(ctx, callbackUpdate(12, privacyDecline))
	assert.Equal(t, StateIdle, tb.store.Get(12).State)
	assert.Equal(t, tb.catalog.T("en", "privacy_declined"), tb.api.last())

	consented, err := tb.svc.Privacy.HasConsent(ctx, 12)
	require.NoError(t, err)
	assert.False(t, consented)

	tb.say(12, "💧 Water")
	assert.Equal(t, tb.catalog.T("en", "privacy_required"), tb.api.last())
}

func TestPrivacyStepIgnoresText(t *testing.T) {
	tb := newTestBot(t)
	tb.say(13, "/start", "🇬🇧 English", "👨 Male")
	assert.Equal(t, StatePrivacy, tb.store.Get(13).State)
	assert.Equal(t, tb.catalog.T("en", "privacy_required"), tb.api.last())
}

func TestPrivacyRevokeAndConsentAgain(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	tb.register(t, 14)

	tb.say(14, "/privacy")
	texts := tb.api.texts()
	assert.Equal(t, tb.catalog.T("en", "privacy_policy"), texts[len(texts)-2])
	assert.Equal(t, tb.catalog.T("en", "privacy_status_given", "15.03.2024", service.PrivacyPolicyVersion), tb.api.last())

	tb.HandleUpdate(ctx, callbackUpdate(14, privacyRevoke))
	assert.Equal(t, tb.catalog.T("en", "privacy_revoked"), tb.api.last())
	consented, err := tb.svc.Privacy.HasConsent(ctx, 14)
	require.NoError(t, err)
	assert.False(t, consented)

	tb.say(14, "💧 Water")
	assert.Equal(t, tb.catalog.T("en", "privacy_required"), tb.api.last())

	// зарегистрированный пользователь без согласия снова попадает на шаг согласия
	tb.say(14, "/start")
	assert.Equal(t, StatePrivacy, tb.store.Get(14).State)
	assert.Equal(t, tb.catalog.T("en", "privacy_prompt"), tb.api.last())

	tb.HandleUpdate(ctx, callbackUpdate(14, privacyAccept))
	assert.Equal(t, StateIdle, tb.store.Get(14).State)
	assert.Equal(t, tb.catalog.T("en", "menu"), tb.api.last())

	tb.say(14, "💧 Water")
	assert.Equal(t, tb.catalog.T("en", "water_added", 1, 300), tb.api.last())
}

func TestWaterButton(t *testing.T) {
	tb := newTestBot(t)
	tb.register(t, 7)

	tb.say(7, "💧 Water", "💧 Water")
	assert.Equal(t, tb.catalog.T("en", "water_added", 2, 600), tb.api.last())
}

func TestFoodFlow(t *testing.T) {
	tb := newTestBot(t)
	tb.register(t, 8)
	tb.est.data = map[string]calc.Nutrients{
		"овсянка": {Calories: 68, Protein: 2.4, Fat: 1.4, Carbs: 12},
	}

	tb.say(8, "🍽 Food", "овсянка, борщ")
	assert.Equal(t, StateFoodGrams, tb.store.Get(8).State)

	tb.say(8, "200")
	assert.Equal(t, tb.catalog.T("en", "invalid_count_mismatch"), tb.api.last())
	assert.Equal(t, StateFoodGrams, tb.store.Get(8).State)

	tb.say(8, "200, 300")
	last := tb.api.last()
	assert.Contains(t, last, "Овсянка, 200 g: 136.0 kcal")
	assert.Contains(t, last, "борщ")
	assert.Equal(t, StateIdle, tb.store.Get(8).State)
}

func TestCancelResetsDialog(t *testing.T) {
	tb := newTestBot(t)
	tb.register(t, 9)

	tb.say(9, "🍽 Food", "овсянка", "❌ Cancel")
	assert.Equal(t, StateIdle, tb.store.Get(9).State)
	assert.Equal(t, tb.catalog.T("en", "cancelled"), tb.api.last())
}

func TestWorkoutAsksForWeight(t *testing.T) {
	tb := newTestBot(t)
	tb.register(t, 10)

	// вес записан при регистрации, на следующий день его нужно спросить
	tb.now = func() time.Time { return time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC) }
	options, err := tb.svc.Workouts.TrainingTypes(context.Background(), "en")
	require.NoError(t, err)

	tb.say(10, "🏋️ Workout", options[0].Label(), "30")
	assert.Equal(t, StateWorkoutWeight, tb.store.Get(10).State)

	tb.say(10, "80")
	assert.Equal(t, StateIdle, tb.store.Get(10).State)
	assert.Contains(t, tb.api.last(), "kcal")
}

func TestAdviceFlow(t *testing.T) {
	tb := newTestBot(t)
	tb.register(t, 11)

	tb.say(11, "🍳 Recipe", "chicken and rice")
	assert.Equal(t, "generated recipe", tb.api.last())
	assert.Equal(t, StateIdle, tb.store.Get(11).State)
}

func TestAdminCallbacks(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	t.Run("non admin is denied", func(t *testing.T) {
		before := len(tb.api.texts())
		tb.HandleUpdate(ctx, callbackUpdate(99, "admin_users"))
		assert.Len(t, tb.api.texts(), before)
		require.NotEmpty(t, tb.api.callbacks)
		assert.Equal(t, "⛔", tb.api.callbacks[len(tb.api.callbacks)-1].Text)
	})

	t.Run("add training type", func(t *testing.T) {
		tb.HandleUpdate(ctx, callbackUpdate(adminID, "admin_add_type"))
		assert.Equal(t, StateAdminTypeNameRU, tb.store.Get(adminID).State)

		tb.say(adminID, "Плавание", "Swimming", "🏊", "0")
		assert.Equal(t, tb.catalog.T("ru", "invalid_out_of_range"), tb.api.last())

		tb.say(adminID, "6,5")
		assert.Equal(t, StateIdle, tb.store.Get(adminID).State)

		types, err := tb.svc.Workouts.AllTrainingTypes(ctx)
		require.NoError(t, err)
		require.Len(t, types, 1)
		assert.Equal(t, "Swimming", types[0].NameEN)
		assert.Equal(t, 6.5, types[0].BaseCoefficient)
		assert.True(t, types[0].IsActive)

		options, err := tb.svc.Workouts.TrainingTypes(ctx, "en")
		require.NoError(t, err)
		require.Len(t, options, 1)
		assert.Equal(t, "🏊 Swimming", options[0].Label())
	})

	t.Run("toggle training type", func(t *testing.T) {
		types, err := tb.svc.Workouts.AllTrainingTypes(ctx)
		require.NoError(t, err)
		require.Len(t, types, 1)

		tb.HandleUpdate(ctx, callbackUpdate(adminID, fmt.Sprintf("%s%d", toggleTypePrefix, types[0].ID)))
		tt, err := tb.svc.Workouts.FindTrainingType(ctx, types[0].ID)
		require.NoError(t, err)
		assert.False(t, tt.IsActive)
	})

	t.Run("users count", func(t *testing.T) {
		tb.HandleUpdate(ctx, callbackUpdate(adminID, "admin_users"))
		assert.Equal(t, tb.catalog.T("ru", "admin_users", 0), tb.api.last())
	})
}

func TestAdminCommandDenied(t *testing.T) {
	tb := newTestBot(t)
	tb.say(3, "/admin")
	assert.Equal(t, tb.catalog.T("ru", "admin_denied"), tb.api.last())
}

func TestSendFallsBackToPlainText(t *testing.T) {
	tb := newTestBot(t)
	tb.api.failMarkdown = true
	tb.sendText(1, "*broken")
	require.Len(t, tb.api.sent, 1)
	assert.Equal(t, "", tb.api.sent[0].ParseMode)
}

func TestSendSplitsLongText(t *testing.T) {
	tb := newTestBot(t)
	tb.send(1, strings.Repeat("a", 5000), tb.mainMenuKeyboard("en"))
	require.Len(t, tb.api.sent, 2)
	assert.Nil(t, tb.api.sent[0].ReplyMarkup)
	assert.NotNil(t, tb.api.sent[1].ReplyMarkup)
}

func TestRunDrainsUpdates(t *testing.T) {
	tb := newTestBot(t)
	tb.api.updates = []tgbotapi.Update{textUpdate(20, "/help"), textUpdate(21, "/help"), {}}

	done := make(chan struct{})
	go func() {
		tb.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after updates channel closed")
	}
	assert.Len(t, tb.api.texts(), 2)
}

func TestHandleUpdateRecoversPanic(t *testing.T) {
	tb := newTestBot(t)
	tb.svc.Users = nil
	assert.NotPanics(t, func() { tb.say(30, "/start") })
}
