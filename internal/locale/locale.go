package locale

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FallbackLang - язык для неизвестных кодов и отсутствующих ключей
const FallbackLang = "en"

//go:embed messages.yaml
var defaultMessages []byte

// Catalog - тексты бота по языкам
type Catalog struct {
	messages map[string]map[string]string
}

// Load - встроенный каталог
func Load() (*Catalog, error) {
	return Parse(defaultMessages)
}

// MustLoad - Load с паникой, каталог встроен в бинарник
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse разбирает YAML вида lang -> key -> text
func Parse(data []byte) (*Catalog, error) {
	var messages map[string]map[string]string
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parse messages: %w", err)
	}
	if _, ok := messages[FallbackLang]; !ok {
		return nil, fmt.Errorf("messages: fallback language %q missing", FallbackLang)
	}
	return &Catalog{messages: messages}, nil
}

// Languages - коды языков каталога
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.messages))
	for l := range c.messages {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Has - есть ли язык в каталоге
func (c *Catalog) Has(lang string) bool {
	_, ok := c.messages[lang]
	return ok
}

// T - текст по ключу, аргументы подставляются через fmt.
// Порядок поиска: lang, FallbackLang, сам ключ.
func (c *Catalog) T(lang, key string, args ...interface{}) string {
	text, ok := c.messages[lang][key]
	if !ok {
		text, ok = c.messages[FallbackLang][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

// Matches - совпадает ли text с ключом key на любом языке.
// Нужен для кнопок: пользователь мог сменить язык, а клавиатура осталась старой.
func (c *Catalog) Matches(key, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, m := range c.messages {
		if v, ok := m[key]; ok && v == text {
			return true
		}
	}
	return false
}

// KeyFor - ключ кнопки среди keys, которой соответствует text
func (c *Catalog) KeyFor(text string, keys ...string) (string, bool) {
	for _, k := range keys {
		if c.Matches(k, text) {
			return k, true
		}
	}
	return "", false
}
