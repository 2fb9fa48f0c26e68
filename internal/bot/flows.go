package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/VadimVthvPro/PRO-pitashka/internal/ai"
	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/internal/service"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ==================== Язык ====================

func (b *BotApp) onLanguage(ctx context.Context, m *tgbotapi.Message, sess *Session) {
	chatID := m.Chat.ID
	lang := ""
	for _, l := range languageButtons {
		if strings.TrimSpace(m.Text) == l.Label {
			lang = l.Lang
		}
	}
	if lang == "" {
		b.send(chatID, b.catalog.T(sess.Lang, "invalid_choice"), languageKeyboard())
		return
	}
	if err := b.svc.Users.SetLanguage(ctx, m.From.ID, lang); err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	sess.Lang = lang
	b.sendText(chatID, b.catalog.T(lang, "lang_saved"))

	if sess.Register {
		consented, err := b.svc.Privacy.HasConsent(ctx, m.From.ID)
		if err != nil {
			b.fail(ctx, chatID, sess, err)
			return
		}
		if !consented {
			if b.advance(ctx, chatID, sess, EventNeedsConsent) {
				b.askConsent(chatID, sess)
			}
			return
		}
		if b.advance(ctx, chatID, sess, EventRegister) {
			b.startRegistration(chatID, m.From, sess)
		}
		return
	}
	if b.advance(ctx, chatID, sess, EventAccepted) {
		b.showMainMenu(chatID, lang)
	}
}

// ==================== Регистрация ====================

// startRegistration - первый вопрос анкеты, диалог уже стоит на StateRegSex
func (b *BotApp) startRegistration(chatID int64, from *tgbotapi.User, sess *Session) {
	lang := sess.Lang
	sess.Reg = service.RegistrationDTO{UserID: from.ID, Name: displayName(from)}
	b.sendText(chatID, b.catalog.T(lang, "reg_start"))
	b.send(chatID, b.catalog.T(lang, "reg_sex"), b.choiceKeys(lang, "btn_male", "btn_female"))
}

func (b *BotApp) onRegistration(ctx context.Context, m *tgbotapi.Message, sess *Session) {
	chatID := m.Chat.ID
	lang := sess.Lang

	switch sess.State {
	case StateRegSex:
		key, ok := b.catalog.KeyFor(m.Text, "btn_male", "btn_female")
		if !ok {
			b.send(chatID, b.catalog.T(lang, "invalid_choice"), b.choiceKeys(lang, "btn_male", "btn_female"))
			return
		}
		sess.Reg.Sex = calc.SexMale
		if key == "btn_female" {
			sess.Reg.Sex = calc.SexFemale
		}
		if b.advance(ctx, chatID, sess, EventAccepted) {
			b.send(chatID, b.catalog.T(lang, "reg_age"), b.cancelKeyboard(lang))
		}

	case StateRegAge:
		age, err := calc.ParseAge(m.Text)
		if b.reject(chatID, lang, err) {
			return
		}
		sess.Reg.Age = age
		if b.advance(ctx, chatID, sess, EventAccepted) {
			b.sendText(chatID, b.catalog.T(lang, "reg_height"))
		}

	case StateRegHeight:
		h, err := calc.ParseHeight(m.Text)
		if b.reject(chatID, lang, err) {
			return
		}
		sess.Reg.HeightCm = h
		if b.advance(ctx, chatID, sess, EventAccepted) {
			b.sendText(chatID, b.catalog.T(lang, "reg_weight"))
		}

	case StateRegWeight:
		w, err := calc.ParseWeight(m.Text)
		if b.reject(chatID, lang, err) {
			return
		}
		sess.Reg.WeightKg = w
		if b.advance(ctx, chatID, sess, EventAccepted) {
			b.send(chatID, b.catalog.T(lang, "reg_aim"), b.choiceKeys(lang, "btn_aim_lose", "btn_aim_keep", "btn_aim_gain"))
		}

	case StateRegAim:
		key, ok := b.catalog.KeyFor(m.Text, "btn_aim_lose", "btn_aim_keep", "btn_aim_gain")
		if !ok {
			b.send(chatID, b.catalog.T(lang, "invalid_choice"), b.choiceKeys(lang, "btn_aim_lose", "btn_aim_keep", "btn_aim_gain"))
			return
		}
		sess.Reg.Aim = map[string]string{
			"btn_aim_lose": models.AimLose,
			"btn_aim_keep": models.AimKeep,
			"btn_aim_gain": models.AimGain,
		}[key]
		sess.Reg.Day = b.now()

		profile, err := b.svc.Users.Register(ctx, sess.Reg)
		if err != nil {
			b.fail(ctx, chatID, sess, err)
			return
		}
		if !b.advance(ctx, chatID, sess, EventAccepted) {
			return
		}
		b.sendText(chatID, b.catalog.T(lang, "reg_done",
			profile.BMI, b.catalog.T(lang, string(profile.Category)), profile.DailyCalories))
		b.showMainMenu(chatID, lang)
	}
}

// ==================== Еда ====================

func (b *BotApp) startFoodLog(chatID int64, sess *Session) {
	sess.Start(StateFoodItems)
	b.send(chatID, b.catalog.T(sess.Lang, "food_prompt"), b.cancelKeyboard(sess.Lang))
}

// onFoodItems - список блюд текстом или фото
func (b *BotApp) onFoodItems(ctx context.Context, m *tgbotapi.Message, sess *Session) {
	chatID := m.Chat.ID
	lang := sess.Lang

	var names []string
	if len(m.Photo) > 0 {
		b.sendText(chatID, b.catalog.T(lang, "in_process"))
		image, err := b.downloadPhoto(ctx, m.Photo)
		if err != nil {
			b.fail(ctx, chatID, sess, err)
			return
		}
		names, err = b.svc.Food.RecognizePhoto(ctx, m.From.ID, image, lang)
		switch {
		case errors.Is(err, ai.ErrNoFoodsRecognized):
			b.sendText(chatID, b.catalog.T(lang, "food_not_recognized"))
			return
		case err != nil:
			b.fail(ctx, chatID, sess, err)
			return
		}
		b.sendText(chatID, b.catalog.T(lang, "food_recognized", strings.Join(names, ", ")))
	} else {
		names = calc.ParseFoodList(m.Text)
		if len(names) == 0 {
			b.sendText(chatID, b.catalog.T(lang, "invalid_empty"))
			return
		}
	}

	sess.FoodNames = names
	if b.advance(ctx, chatID, sess, EventAccepted) {
		b.sendText(chatID, b.catalog.T(lang, "food_grams", len(names), numberedList(names)))
	}
}

// onFoodGrams - граммовки проверяются до запроса к оракулу
func (b *BotApp) onFoodGrams(ctx context.Context, m *tgbotapi.Message, sess *Session) {
	chatID := m.Chat.ID
	lang := sess.Lang

	items, err := b.svc.Food.PrepareItems(sess.FoodNames, m.Text)
	if b.reject(chatID, lang, err) {
		return
	}

	b.sendText(chatID, b.catalog.T(lang, "in_process"))
	res, err := b.svc.Food.LogFoodItems(ctx, m.From.ID, b.now(), items, b.svc.Estimator)
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	if !b.advance(ctx, chatID, sess, EventAccepted) {
		return
	}
	b.send(chatID, formatFoodLog(b.catalog, lang, res), b.mainMenuKeyboard(lang))
}

// ==================== Вода ====================

func (b *BotApp) addWater(ctx context.Context, chatID, userID int64, sess *Session) {
	n, err := b.svc.Water.AddGlass(ctx, userID, b.now())
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	b.sendText(chatID, b.catalog.T(sess.Lang, "water_added", n, n*service.MlPerGlass))
}

// ==================== Тренировки ====================

func (b *BotApp) startWorkout(ctx context.Context, chatID int64, sess *Session) {
	options, err := b.svc.Workouts.TrainingTypes(ctx, sess.Lang)
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	sess.Start(StateWorkoutType)
	b.send(chatID, b.catalog.T(sess.Lang, "workout_type"), b.trainingKeyboard(sess.Lang, options))
}

func (b *BotApp) trainingKeyboard(lang string, options []service.TrainingOption) tgbotapi.ReplyKeyboardMarkup {
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = o.Label()
	}
	return b.choiceKeyboard(lang, labels...)
}

func (b *BotApp) onWorkout(ctx context.Context, m *tgbotapi.Message, sess *Session) {
	chatID := m.Chat.ID
	userID := m.From.ID
	lang := sess.Lang

	switch sess.State {
	case StateWorkoutType:
		opt, err := b.svc.Workouts.FindOption(ctx, lang, strings.TrimSpace(m.Text))
		if errors.Is(err, calc.ErrUnknownTrainingType) {
			b.sendText(chatID, b.catalog.T(lang, "invalid_choice"))
			return
		}
		if err != nil {
			b.fail(ctx, chatID, sess, err)
			return
		}
		sess.Option = opt
		if b.advance(ctx, chatID, sess, EventAccepted) {
			b.send(chatID, b.catalog.T(lang, "workout_duration"), b.cancelKeyboard(lang))
		}

	case StateWorkoutDuration:
		minutes, err := calc.ParseDuration(m.Text)
		if b.reject(chatID, lang, err) {
			return
		}
		sess.Minutes = minutes

		weight, needsInput, err := b.svc.Workouts.WeightForToday(ctx, userID, b.now())
		if err != nil {
			b.fail(ctx, chatID, sess, err)
			return
		}
		if needsInput {
			if b.advance(ctx, chatID, sess, EventNeedsWeight) {
				b.sendText(chatID, b.catalog.T(lang, "workout_weight"))
			}
			return
		}
		b.finishWorkout(ctx, chatID, userID, sess, weight)

	case StateWorkoutWeight:
		weight, err := calc.ParseWorkoutWeight(m.Text)
		if b.reject(chatID, lang, err) {
			return
		}
		if err := b.svc.Workouts.RecordWeight(ctx, userID, b.now(), weight); err != nil {
			b.fail(ctx, chatID, sess, err)
			return
		}
		b.finishWorkout(ctx, chatID, userID, sess, weight)
	}
}

func (b *BotApp) finishWorkout(ctx context.Context, chatID, userID int64, sess *Session, weight float64) {
	lang := sess.Lang
	res, err := b.svc.Workouts.LogWorkout(ctx, userID, b.now(), sess.Option, sess.Minutes, weight)
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	if b.advance(ctx, chatID, sess, EventAccepted) {
		b.send(chatID, b.catalog.T(lang, "workout_done", res.Calories, res.DayTotal), b.mainMenuKeyboard(lang))
	}
}

func (b *BotApp) workoutStats(ctx context.Context, chatID, userID int64, sess *Session) {
	stats, err := b.svc.Workouts.Statistics(ctx, userID, b.now(), 30)
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	b.sendText(chatID, formatStats(b.catalog, sess.Lang, stats))
}

// ==================== Сводка ====================

func (b *BotApp) startSummary(chatID int64, sess *Session) {
	sess.Start(StateSummaryPeriod)
	b.send(chatID, b.catalog.T(sess.Lang, "summary_period"), b.choiceKeys(sess.Lang, "btn_day", "btn_month", "btn_year"))
}

var periodButtons = map[string]service.Period{
	"btn_day":   service.PeriodDay,
	"btn_month": service.PeriodMonth,
	"btn_year":  service.PeriodYear,
}

func (b *BotApp) onSummary(ctx context.Context, m *tgbotapi.Message, sess *Session) {
	chatID := m.Chat.ID
	userID := m.From.ID
	lang := sess.Lang

	switch sess.State {
	case StateSummaryPeriod:
		key, ok := b.catalog.KeyFor(m.Text, "btn_day", "btn_month", "btn_year")
		if !ok {
			b.sendText(chatID, b.catalog.T(lang, "invalid_choice"))
			return
		}
		sess.Period = periodButtons[key]

		_, needsInput, err := b.svc.Users.CurrentMetrics(ctx, userID, b.now())
		if err != nil {
			b.fail(ctx, chatID, sess, err)
			return
		}
		if needsInput {
			if b.advance(ctx, chatID, sess, EventNeedsMetrics) {
				b.send(chatID, b.catalog.T(lang, "summary_need_weight"), b.cancelKeyboard(lang))
			}
			return
		}
		b.finishSummary(ctx, chatID, userID, sess)

	case StateSummaryWeight:
		w, err := calc.ParseWeight(m.Text)
		if b.reject(chatID, lang, err) {
			return
		}
		sess.Weight = w
		if b.advance(ctx, chatID, sess, EventAccepted) {
			b.sendText(chatID, b.catalog.T(lang, "summary_need_height"))
		}

	case StateSummaryHeight:
		h, err := calc.ParseHeight(m.Text)
		if b.reject(chatID, lang, err) {
			return
		}
		profile, err := b.svc.Users.UpdateMetrics(ctx, userID, sess.Weight, h, b.now())
		if err != nil {
			b.fail(ctx, chatID, sess, err)
			return
		}
		b.sendText(chatID, b.catalog.T(lang, "metrics_updated",
			profile.BMI, b.catalog.T(lang, string(profile.Category)), profile.DailyCalories))
		b.finishSummary(ctx, chatID, userID, sess)
	}
}

func (b *BotApp) finishSummary(ctx context.Context, chatID, userID int64, sess *Session) {
	lang := sess.Lang
	report, err := b.svc.Summaries.Summary(ctx, userID, sess.Period, b.now())
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	if b.advance(ctx, chatID, sess, EventAccepted) {
		b.send(chatID, formatReport(b.catalog, lang, report), b.mainMenuKeyboard(lang))
	}
}

// ==================== Советы ИИ ====================

func (b *BotApp) weeklyPlan(ctx context.Context, chatID, userID int64, sess *Session) {
	lang := sess.Lang
	b.sendText(chatID, b.catalog.T(lang, "in_process"))
	plan, err := b.svc.Advice.WeeklyPlan(ctx, userID, b.now(), lang)
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	b.sendText(chatID, plan.Nutrition)
	b.send(chatID, plan.Training, b.mainMenuKeyboard(lang))
}

func (b *BotApp) onAdvice(ctx context.Context, m *tgbotapi.Message, sess *Session) {
	chatID := m.Chat.ID
	lang := sess.Lang

	b.sendText(chatID, b.catalog.T(lang, "in_process"))
	var (
		text string
		err  error
	)
	if sess.State == StateRecipe {
		text, err = b.svc.Advice.Recipe(ctx, m.Text, lang)
	} else {
		text, err = b.svc.Advice.TrainingHelp(ctx, m.From.ID, m.Text, lang)
	}
	if b.reject(chatID, lang, err) {
		return
	}
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	if b.advance(ctx, chatID, sess, EventAccepted) {
		b.send(chatID, text, b.mainMenuKeyboard(lang))
	}
	utils.Log.Debugf("[onAdvice %s] %d chars", requestID(ctx), len(text))
}
