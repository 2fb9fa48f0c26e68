package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const toggleTypePrefix = "admin_toggle_type_"

func (b *BotApp) requireAdmin(
	handler func(context.Context, *tgbotapi.CallbackQuery),
) func(context.Context, *tgbotapi.CallbackQuery) {
	return func(ctx context.Context, c *tgbotapi.CallbackQuery) {
		if !b.isAdmin(c.From.ID) {
			b.answerCallback(c.ID, "⛔")
			return
		}
		handler(ctx, c)
	}
}

func (b *BotApp) registerAdminCallbacks() {
	b.callbacks["admin_panel"] =
		b.requireAdmin(func(ctx context.Context, c *tgbotapi.CallbackQuery) {
			b.showAdminPanel(c.Message.Chat.ID, b.store.Get(c.From.ID).Lang)
		})

	b.callbacks["admin_types"] =
		b.requireAdmin(func(ctx context.Context, c *tgbotapi.CallbackQuery) {
			b.showTrainingTypesAdmin(ctx, c.Message.Chat.ID, b.store.Get(c.From.ID))
		})

	b.callbacks["admin_add_type"] =
		b.requireAdmin(func(ctx context.Context, c *tgbotapi.CallbackQuery) {
			sess := b.store.Get(c.From.ID)
			sess.Start(StateAdminTypeNameRU)
			b.send(c.Message.Chat.ID, b.catalog.T(sess.Lang, "admin_type_name_ru"), b.cancelKeyboard(sess.Lang))
		})

	b.callbacks["admin_users"] =
		b.requireAdmin(func(ctx context.Context, c *tgbotapi.CallbackQuery) {
			sess := b.store.Get(c.From.ID)
			n, err := b.svc.Users.GetUsersCount(ctx)
			if err != nil {
				b.fail(ctx, c.Message.Chat.ID, sess, err)
				return
			}
			b.sendText(c.Message.Chat.ID, b.catalog.T(sess.Lang, "admin_users", n))
		})

	b.callbacks["admin_reload"] =
		b.requireAdmin(func(ctx context.Context, c *tgbotapi.CallbackQuery) {
			b.svc.Workouts.ReloadTrainingTypes()
			b.sendText(c.Message.Chat.ID, b.catalog.T(b.store.Get(c.From.ID).Lang, "admin_reloaded"))
		})

	// Разделитель в списках
	b.callbacks["noop"] = func(context.Context, *tgbotapi.CallbackQuery) {}
}

// handleCallback - нажатия inline-кнопок: согласие на обработку данных и админ-панель
func (b *BotApp) handleCallback(ctx context.Context, c *tgbotapi.CallbackQuery, sess *Session) {
	b.answerCallback(c.ID, "")
	if c.Message == nil {
		return
	}
	utils.Log.Infof("[handleCallback %s] from %d: %s", requestID(ctx), c.From.ID, c.Data)

	if fn, ok := b.callbacks[c.Data]; ok {
		fn(ctx, c)
		return
	}

	if strings.HasPrefix(c.Data, toggleTypePrefix) {
		b.requireAdmin(func(ctx context.Context, c *tgbotapi.CallbackQuery) {
			id, err := strconv.ParseUint(strings.TrimPrefix(c.Data, toggleTypePrefix), 10, 64)
			if err != nil {
				b.sendText(c.Message.Chat.ID, b.catalog.T(sess.Lang, "invalid_choice"))
				return
			}
			b.toggleTrainingType(ctx, c.Message.Chat.ID, sess, uint(id))
		})(ctx, c)
		return
	}

	utils.Log.Warnf("[handleCallback %s] unknown callback %q", requestID(ctx), c.Data)
}

func (b *BotApp) showAdminPanel(chatID int64, lang string) {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.catalog.T(lang, "admin_btn_types"), "admin_types"),
			tgbotapi.NewInlineKeyboardButtonData(b.catalog.T(lang, "admin_btn_add_type"), "admin_add_type"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.catalog.T(lang, "admin_btn_users"), "admin_users"),
			tgbotapi.NewInlineKeyboardButtonData(b.catalog.T(lang, "admin_btn_reload"), "admin_reload"),
		),
	}
	b.send(chatID, b.catalog.T(lang, "admin_panel"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// showTrainingTypesAdmin - справочник с кнопками включения/выключения
func (b *BotApp) showTrainingTypesAdmin(ctx context.Context, chatID int64, sess *Session) {
	types, err := b.svc.Workouts.AllTrainingTypes(ctx)
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	if len(types) == 0 {
		b.sendText(chatID, b.catalog.T(sess.Lang, "admin_types_empty"))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	lines := make([]string, 0, len(types))
	for _, t := range types {
		status := "✅"
		if !t.IsActive {
			status = "🚫"
		}
		lines = append(lines, b.catalog.T(sess.Lang, "admin_type_line", t.Emoji, t.Name(sess.Lang), t.BaseCoefficient, status))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %s", status, t.Name(sess.Lang)),
				fmt.Sprintf("%s%d", toggleTypePrefix, t.ID),
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️", "admin_panel"),
	))
	b.send(chatID, strings.Join(lines, "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *BotApp) toggleTrainingType(ctx context.Context, chatID int64, sess *Session, id uint) {
	tt, err := b.svc.Workouts.FindTrainingType(ctx, id)
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	if err := b.svc.Workouts.SetTrainingTypeActive(ctx, id, !tt.IsActive); err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	b.sendText(chatID, b.catalog.T(sess.Lang, "admin_type_toggled"))
	b.showTrainingTypesAdmin(ctx, chatID, sess)
}

// onAdminType - пошаговое добавление вида тренировки
func (b *BotApp) onAdminType(ctx context.Context, m *tgbotapi.Message, sess *Session) {
	chatID := m.Chat.ID
	lang := sess.Lang
	if !b.isAdmin(m.From.ID) {
		sess.Start(StateIdle)
		b.sendText(chatID, b.catalog.T(lang, "admin_denied"))
		return
	}
	text := strings.TrimSpace(m.Text)

	switch sess.State {
	case StateAdminTypeNameRU:
		if text == "" {
			b.sendText(chatID, b.catalog.T(lang, "invalid_empty"))
			return
		}
		sess.NewType.NameRU = text
		if b.advance(ctx, chatID, sess, EventAccepted) {
			b.sendText(chatID, b.catalog.T(lang, "admin_type_name_en"))
		}

	case StateAdminTypeNameEN:
		sess.NewType.NameEN = text
		if b.advance(ctx, chatID, sess, EventAccepted) {
			b.sendText(chatID, b.catalog.T(lang, "admin_type_emoji"))
		}

	case StateAdminTypeEmoji:
		if text != "-" {
			sess.NewType.Emoji = text
		}
		if b.advance(ctx, chatID, sess, EventAccepted) {
			b.sendText(chatID, b.catalog.T(lang, "admin_type_coef"))
		}

	case StateAdminTypeCoef:
		coef, err := calc.ParseInRange("coefficient", text, 0.5, 20)
		if b.reject(chatID, lang, err) {
			return
		}
		tt := sess.NewType
		tt.BaseCoefficient = coef
		if err := b.svc.Workouts.CreateTrainingType(ctx, &tt); err != nil {
			if !b.reject(chatID, lang, err) {
				b.fail(ctx, chatID, sess, err)
			}
			return
		}
		if b.advance(ctx, chatID, sess, EventAccepted) {
			b.send(chatID, b.catalog.T(lang, "admin_type_saved"), b.mainMenuKeyboard(lang))
			b.showAdminPanel(chatID, lang)
		}
	}
}
