package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/ai"
	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/locale"
	"github.com/VadimVthvPro/PRO-pitashka/internal/metrics"
	"github.com/VadimVthvPro/PRO-pitashka/internal/service"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"
)

const maxPhotoBytes = 10 << 20

// API - методы Telegram Bot API, которые использует бот
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFileDirectURL(fileID string) (string, error)
}

// Services - зависимости бота
type Services struct {
	Users     *service.UserService
	Privacy   *service.PrivacyService
	Food      *service.FoodService
	Water     *service.WaterService
	Workouts  *service.WorkoutService
	Summaries *service.SummaryService
	Advice    *service.AdviceService
	Estimator ai.NutritionEstimator
}

// Options - параметры обработки апдейтов
type Options struct {
	Admins         []int64
	PollTimeout    int
	MaxConcurrency int
}

// BotApp - основная структура бота
type BotApp struct {
	API API

	Admins []int64

	svc     Services
	catalog *locale.Catalog
	store   *StateStore
	http    *http.Client
	now     func() time.Time

	pollTimeout int
	sem         chan struct{}
	wg          sync.WaitGroup

	callbacks map[string]func(context.Context, *tgbotapi.CallbackQuery)
}

type ctxKey struct{}

// Конструктор бота
func NewBotApp(api API, svc Services, catalog *locale.Catalog, opts Options) *BotApp {
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 60
	}
	b := &BotApp{
		API:         api,
		Admins:      opts.Admins,
		svc:         svc,
		catalog:     catalog,
		store:       NewStateStore(),
		http:        &http.Client{Timeout: 30 * time.Second},
		now:         time.Now,
		pollTimeout: opts.PollTimeout,
		sem:         make(chan struct{}, opts.MaxConcurrency),
		callbacks:   make(map[string]func(context.Context, *tgbotapi.CallbackQuery)),
	}
	b.registerAdminCallbacks()
	b.registerPrivacyCallbacks()
	return b
}

// NewTelegramAPI - клиент Bot API по токену
func NewTelegramAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return api, nil
}

// Run - long polling до отмены ctx. Апдейты обрабатываются параллельно,
// не больше MaxConcurrency одновременно; апдейты одного пользователя идут по очереди.
func (b *BotApp) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.API.GetUpdatesChan(u)
	utils.Log.Info("🤖 Bot started")

	prune := time.NewTicker(time.Hour)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			b.API.StopReceivingUpdates()
			b.wg.Wait()
			utils.Log.Info("Bot stopped")
			return
		case <-prune.C:
			if n := b.store.Prune(24 * time.Hour); n > 0 {
				utils.Log.Debugf("[Run] pruned %d sessions", n)
			}
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return
			}
			select {
			case b.sem <- struct{}{}:
			case <-ctx.Done():
				continue
			}
			b.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer b.wg.Done()
				defer func() { <-b.sem }()
				b.HandleUpdate(ctx, update)
			}(update)
		}
	}
}

// HandleUpdate обрабатывает один апдейт
func (b *BotApp) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	kind, userID := updateKind(update)
	if userID == 0 {
		return
	}

	ctx = context.WithValue(ctx, ctxKey{}, ulid.Make().String())
	defer func() {
		if r := recover(); r != nil {
			metrics.ErrorsTotal.WithLabelValues("bot").Inc()
			utils.Log.Errorf("[HandleUpdate %s] panic: %v\n%s", requestID(ctx), r, debug.Stack())
		}
		metrics.UpdatesProcessed.WithLabelValues(kind).Inc()
		metrics.UpdateDuration.Observe(time.Since(start).Seconds())
	}()

	unlock := b.store.Lock(userID)
	defer unlock()
	sess := b.store.Get(userID)
	if sess.Lang == "" {
		sess.Lang = b.svc.Users.Language(ctx, userID)
	}

	switch kind {
	case "callback":
		b.handleCallback(ctx, update.CallbackQuery, sess)
	case "command":
		b.handleCommand(ctx, update.Message, sess)
	default:
		b.handleMessage(ctx, update.Message, sess)
	}
}

func updateKind(update tgbotapi.Update) (string, int64) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return "callback", update.CallbackQuery.From.ID
	case update.Message == nil || update.Message.From == nil:
		return "", 0
	case update.Message.IsCommand():
		return "command", update.Message.From.ID
	case len(update.Message.Photo) > 0:
		return "photo", update.Message.From.ID
	default:
		return "message", update.Message.From.ID
	}
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return "-"
}

// Проверка админа
func (b *BotApp) isAdmin(userID int64) bool {
	for _, id := range b.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

// Команды
func (b *BotApp) handleCommand(ctx context.Context, m *tgbotapi.Message, sess *Session) {
	chatID := m.Chat.ID
	lang := sess.Lang

	switch m.Command() {
	case "start":
		sess.Start(StateIdle)
		registered, err := b.svc.Users.IsRegistered(ctx, m.From.ID)
		if err != nil {
			b.fail(ctx, chatID, sess, err)
			return
		}
		if registered {
			consented, err := b.svc.Privacy.HasConsent(ctx, m.From.ID)
			if err != nil {
				b.fail(ctx, chatID, sess, err)
				return
			}
			if !consented {
				sess.Start(StatePrivacy)
				b.askConsent(chatID, sess)
				return
			}
			b.sendText(chatID, b.catalog.T(lang, "welcome", displayName(m.From)))
			b.showMainMenu(chatID, lang)
			return
		}
		sess.Start(StateLanguage)
		sess.Register = true
		b.send(chatID, b.catalog.T(lang, "lang_prompt"), languageKeyboard())
	case "help":
		b.sendText(chatID, b.catalog.T(lang, "help"))
	case "privacy":
		b.showPrivacy(ctx, chatID, m.From.ID, sess)
	case "cancel":
		sess.Start(StateIdle)
		b.send(chatID, b.catalog.T(lang, "cancelled"), b.mainMenuKeyboard(lang))
	case "admin":
		if !b.isAdmin(m.From.ID) {
			b.sendText(chatID, b.catalog.T(lang, "admin_denied"))
			return
		}
		b.showAdminPanel(chatID, lang)
	default:
		b.sendText(chatID, b.catalog.T(lang, "unknown_command"))
	}
}

// Обычные сообщения: сначала текущий диалог, затем кнопки главного меню
func (b *BotApp) handleMessage(ctx context.Context, m *tgbotapi.Message, sess *Session) {
	chatID := m.Chat.ID
	userID := m.From.ID
	lang := sess.Lang
	utils.Log.Debugf("[handleMessage %s] user=%d state=%s", requestID(ctx), userID, sess.State)

	if b.catalog.Matches("btn_cancel", m.Text) {
		sess.Start(StateIdle)
		b.send(chatID, b.catalog.T(lang, "cancelled"), b.mainMenuKeyboard(lang))
		return
	}

	if !consentFree(sess.State) && !b.requireConsent(ctx, chatID, userID, sess) {
		return
	}

	if sess.State != StateIdle {
		b.handleState(ctx, m, sess)
		return
	}

	key, ok := b.catalog.KeyFor(m.Text,
		"btn_food", "btn_workout", "btn_water", "btn_summary", "btn_stats",
		"btn_plan", "btn_recipe", "btn_training_help", "btn_language", "btn_help")
	if !ok {
		b.showMainMenu(chatID, lang)
		return
	}

	switch key {
	case "btn_language":
		sess.Start(StateLanguage)
		b.send(chatID, b.catalog.T(lang, "lang_prompt"), languageKeyboard())
		return
	case "btn_help":
		b.sendText(chatID, b.catalog.T(lang, "help"))
		return
	}

	registered, err := b.svc.Users.IsRegistered(ctx, userID)
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	if !registered {
		b.sendText(chatID, b.catalog.T(lang, "err_not_registered"))
		return
	}

	switch key {
	case "btn_food":
		b.startFoodLog(chatID, sess)
	case "btn_workout":
		b.startWorkout(ctx, chatID, sess)
	case "btn_water":
		b.addWater(ctx, chatID, userID, sess)
	case "btn_summary":
		b.startSummary(chatID, sess)
	case "btn_stats":
		b.workoutStats(ctx, chatID, userID, sess)
	case "btn_plan":
		b.weeklyPlan(ctx, chatID, userID, sess)
	case "btn_recipe":
		sess.Start(StateRecipe)
		b.send(chatID, b.catalog.T(lang, "recipe_prompt"), b.cancelKeyboard(lang))
	case "btn_training_help":
		sess.Start(StateTrainingHelp)
		b.send(chatID, b.catalog.T(lang, "training_help_prompt"), b.cancelKeyboard(lang))
	}
}

// handleState - ввод на текущем шаге диалога
func (b *BotApp) handleState(ctx context.Context, m *tgbotapi.Message, sess *Session) {
	switch sess.State {
	case StateLanguage:
		b.onLanguage(ctx, m, sess)
	case StateRegSex, StateRegAge, StateRegHeight, StateRegWeight, StateRegAim:
		b.onRegistration(ctx, m, sess)
	case StateFoodItems:
		b.onFoodItems(ctx, m, sess)
	case StateFoodGrams:
		b.onFoodGrams(ctx, m, sess)
	case StateWorkoutType, StateWorkoutDuration, StateWorkoutWeight:
		b.onWorkout(ctx, m, sess)
	case StateSummaryPeriod, StateSummaryWeight, StateSummaryHeight:
		b.onSummary(ctx, m, sess)
	case StateRecipe, StateTrainingHelp:
		b.onAdvice(ctx, m, sess)
	case StateAdminTypeNameRU, StateAdminTypeNameEN, StateAdminTypeEmoji, StateAdminTypeCoef:
		b.onAdminType(ctx, m, sess)
	default:
		utils.Log.Warnf("[handleState %s] unexpected state %s", requestID(ctx), sess.State)
		sess.Start(StateIdle)
		b.showMainMenu(m.Chat.ID, sess.Lang)
	}
}

// advance - переход по таблице; ошибка перехода сбрасывает диалог
func (b *BotApp) advance(ctx context.Context, chatID int64, sess *Session, e Event) bool {
	if err := sess.Advance(e); err != nil {
		b.fail(ctx, chatID, sess, err)
		return false
	}
	return true
}

// fail - общий ответ на неисправимую ошибку: лог, сообщение без деталей, главное меню
func (b *BotApp) fail(ctx context.Context, chatID int64, sess *Session, err error) {
	metrics.ErrorsTotal.WithLabelValues("bot").Inc()
	utils.Log.Errorf("[%s] state=%s: %v", requestID(ctx), sess.State, err)

	key := "err_generic"
	switch {
	case errors.Is(err, service.ErrNotRegistered):
		key = "err_not_registered"
	case errors.Is(err, ai.ErrOracleUnavailable):
		key = "err_oracle"
	}
	sess.Start(StateIdle)
	b.send(chatID, b.catalog.T(sess.Lang, key), b.mainMenuKeyboard(sess.Lang))
}

// reject - ошибка ввода: подсказка и повтор того же шага
func (b *BotApp) reject(chatID int64, lang string, err error) bool {
	var ve *calc.ValidationError
	if errors.As(err, &ve) {
		b.sendText(chatID, b.catalog.T(lang, "invalid_"+ve.Reason))
		return true
	}
	return false
}

func (b *BotApp) sendText(chatID int64, text string) {
	b.send(chatID, text, nil)
}

// send режет текст по лимиту Telegram; клавиатура прикрепляется к последней части.
// Если Markdown не разобрался, часть уходит простым текстом.
func (b *BotApp) send(chatID int64, text string, markup interface{}) {
	parts := utils.SplitMessage(text, utils.MaxMessageLength)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if i == len(parts)-1 && markup != nil {
			msg.ReplyMarkup = markup
		}
		if _, err := b.API.Send(msg); err != nil {
			utils.Log.Warnf("[sendText] chatID=%d: %v, retrying without Markdown", chatID, err)
			msg.ParseMode = ""
			if _, err2 := b.API.Send(msg); err2 != nil {
				utils.Log.Errorf("[sendText] chatID=%d without Markdown: %v", chatID, err2)
			}
		}
	}
}

func (b *BotApp) answerCallback(callbackID string, text string) {
	if _, err := b.API.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		utils.Log.Warnf("[answerCallback] %v", err)
	}
}

func (b *BotApp) showMainMenu(chatID int64, lang string) {
	b.send(chatID, b.catalog.T(lang, "menu"), b.mainMenuKeyboard(lang))
}

// downloadPhoto скачивает самое большое превью фото
func (b *BotApp) downloadPhoto(ctx context.Context, photos []tgbotapi.PhotoSize) ([]byte, error) {
	best := photos[0]
	for _, p := range photos[1:] {
		if p.FileSize > best.FileSize || p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	url, err := b.API.GetFileDirectURL(best.FileID)
	if err != nil {
		return nil, fmt.Errorf("photo url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download photo: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
}

func displayName(u *tgbotapi.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.UserName != "" {
		return u.UserName
	}
	return "👋"
}
