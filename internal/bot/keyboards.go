package bot

import (
	"github.com/VadimVthvPro/PRO-pitashka/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Кнопки выбора языка одинаковы для всех языков
var languageButtons = []struct {
	Label string
	Lang  string
}{
	{"🇷🇺 Русский", service.LangRU},
	{"🇬🇧 English", service.LangEN},
	{"🇩🇪 Deutsch", service.LangDE},
	{"🇫🇷 Français", service.LangFR},
	{"🇪🇸 Español", service.LangES},
}

// languageKeyboard - по два языка в ряд
func languageKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(languageButtons); i += 2 {
		row := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(languageButtons[i].Label))
		if i+1 < len(languageButtons) {
			row = append(row, tgbotapi.NewKeyboardButton(languageButtons[i+1].Label))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func (b *BotApp) mainMenuKeyboard(lang string) tgbotapi.ReplyKeyboardMarkup {
	t := func(key string) tgbotapi.KeyboardButton {
		return tgbotapi.NewKeyboardButton(b.catalog.T(lang, key))
	}
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(t("btn_food"), t("btn_workout")),
		tgbotapi.NewKeyboardButtonRow(t("btn_water"), t("btn_summary")),
		tgbotapi.NewKeyboardButtonRow(t("btn_plan"), t("btn_recipe")),
		tgbotapi.NewKeyboardButtonRow(t("btn_training_help"), t("btn_stats")),
		tgbotapi.NewKeyboardButtonRow(t("btn_language"), t("btn_help")),
	)
	kb.ResizeKeyboard = true
	return kb
}

func (b *BotApp) cancelKeyboard(lang string) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(b.catalog.T(lang, "btn_cancel"))),
	)
	kb.ResizeKeyboard = true
	return kb
}

// choiceKeyboard - по две кнопки в ряд и «Отмена» последней строкой
func (b *BotApp) choiceKeyboard(lang string, labels ...string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(labels); i += 2 {
		row := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(labels[i]))
		if i+1 < len(labels) {
			row = append(row, tgbotapi.NewKeyboardButton(labels[i+1]))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(b.catalog.T(lang, "btn_cancel"))))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func (b *BotApp) choiceKeys(lang string, keys ...string) tgbotapi.ReplyKeyboardMarkup {
	labels := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = b.catalog.T(lang, k)
	}
	return b.choiceKeyboard(lang, labels...)
}
