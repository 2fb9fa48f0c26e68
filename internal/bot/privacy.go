package bot

import (
	"context"

	"github.com/VadimVthvPro/PRO-pitashka/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	privacyAccept  = "privacy_accept"
	privacyDecline = "privacy_decline"
	privacyRevoke  = "privacy_revoke"
)

func (b *BotApp) registerPrivacyCallbacks() {
	b.callbacks[privacyAccept] = b.onPrivacyAccept
	b.callbacks[privacyDecline] = b.onPrivacyDecline
	b.callbacks[privacyRevoke] = b.onPrivacyRevoke
}

func (b *BotApp) privacyKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(b.catalog.T(lang, "btn_privacy_accept"), privacyAccept),
		tgbotapi.NewInlineKeyboardButtonData(b.catalog.T(lang, "btn_privacy_decline"), privacyDecline),
	))
}

// askConsent - краткая политика с кнопками «Принять» / «Отказаться»
func (b *BotApp) askConsent(chatID int64, sess *Session) {
	b.send(chatID, b.catalog.T(sess.Lang, "privacy_prompt"), b.privacyKeyboard(sess.Lang))
}

// requireConsent пропускает дальше только пользователя с действующим согласием,
// остальным напоминает о нём
func (b *BotApp) requireConsent(ctx context.Context, chatID, userID int64, sess *Session) bool {
	ok, err := b.svc.Privacy.HasConsent(ctx, userID)
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return false
	}
	if !ok {
		b.send(chatID, b.catalog.T(sess.Lang, "privacy_required"), b.privacyKeyboard(sess.Lang))
	}
	return ok
}

// consentFree - шаги, которые не трогают персональные данные пользователя
func consentFree(s State) bool {
	switch s {
	case StateLanguage, StateAdminTypeNameRU, StateAdminTypeNameEN, StateAdminTypeEmoji, StateAdminTypeCoef:
		return true
	}
	return false
}

func (b *BotApp) onPrivacyAccept(ctx context.Context, c *tgbotapi.CallbackQuery) {
	chatID := c.Message.Chat.ID
	sess := b.store.Get(c.From.ID)
	lang := sess.Lang

	if err := b.svc.Privacy.Accept(ctx, c.From.ID, b.now()); err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	b.sendText(chatID, b.catalog.T(lang, "privacy_accepted"))

	registered, err := b.svc.Users.IsRegistered(ctx, c.From.ID)
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	if registered {
		if sess.State == StatePrivacy {
			if !b.advance(ctx, chatID, sess, EventAccepted) {
				return
			}
		} else {
			sess.Start(StateIdle)
		}
		b.showMainMenu(chatID, lang)
		return
	}

	if sess.State == StatePrivacy {
		if !b.advance(ctx, chatID, sess, EventRegister) {
			return
		}
	} else {
		sess.Start(StateRegSex)
	}
	b.startRegistration(chatID, c.From, sess)
}

func (b *BotApp) onPrivacyDecline(ctx context.Context, c *tgbotapi.CallbackQuery) {
	sess := b.store.Get(c.From.ID)
	sess.Start(StateIdle)
	b.send(c.Message.Chat.ID, b.catalog.T(sess.Lang, "privacy_declined"), tgbotapi.NewRemoveKeyboard(true))
}

func (b *BotApp) onPrivacyRevoke(ctx context.Context, c *tgbotapi.CallbackQuery) {
	chatID := c.Message.Chat.ID
	sess := b.store.Get(c.From.ID)
	if err := b.svc.Privacy.Revoke(ctx, c.From.ID, b.now()); err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	sess.Start(StateIdle)
	b.send(chatID, b.catalog.T(sess.Lang, "privacy_revoked"), tgbotapi.NewRemoveKeyboard(true))
}

// showPrivacy - /privacy: политика, статус согласия и кнопка дать или отозвать его
func (b *BotApp) showPrivacy(ctx context.Context, chatID, userID int64, sess *Session) {
	lang := sess.Lang
	consent, ok, err := b.svc.Privacy.Status(ctx, userID)
	if err != nil {
		b.fail(ctx, chatID, sess, err)
		return
	}
	b.sendText(chatID, b.catalog.T(lang, "privacy_policy"))

	if ok && consent.Active() && consent.ConsentedAt != nil {
		b.send(chatID,
			b.catalog.T(lang, "privacy_status_given", consent.ConsentedAt.Format("02.01.2006"), consent.Version),
			tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(b.catalog.T(lang, "btn_privacy_revoke"), privacyRevoke),
			)))
		return
	}
	b.send(chatID, b.catalog.T(lang, "privacy_status_missing", service.PrivacyPolicyVersion), b.privacyKeyboard(lang))
}
