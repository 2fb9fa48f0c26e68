package utils

import "strings"

// MaxMessageLength - лимит длины сообщения Telegram в символах
const MaxMessageLength = 4096

// SplitMessage режет текст на части не длиннее limit рун.
// Разрез по последнему переводу строки в части, если он есть.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	runes := []rune(text)
	if len(runes) <= limit {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		if part := strings.TrimRight(string(runes[:cut]), "\n"); part != "" {
			parts = append(parts, part)
		}
		runes = runes[cut:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		parts = append(parts, string(runes))
	}
	return parts
}
