package calc

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Nutrients - КБЖУ. Для оценок AI это значения на 100 г, для записи - на порцию.
type Nutrients struct {
	Calories float64 `json:"cal"`
	Protein  float64 `json:"b"`
	Fat      float64 `json:"g"`
	Carbs    float64 `json:"u"`
}

// Add складывает покомпонентно
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Fat:      n.Fat + o.Fat,
		Carbs:    n.Carbs + o.Carbs,
	}
}

// ComputeItemMacros масштабирует значения на 100 г к весу порции
func ComputeItemMacros(per100g Nutrients, grams float64) Nutrients {
	scale := func(v float64) float64 { return Round3(v * grams / 100) }
	return Nutrients{
		Calories: scale(per100g.Calories),
		Protein:  scale(per100g.Protein),
		Fat:      scale(per100g.Fat),
		Carbs:    scale(per100g.Carbs),
	}
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// SanitizeKey - ключ без пробелов и знаков, в нижнем регистре
func SanitizeKey(name string) string {
	return nonWord.ReplaceAllString(strings.ToLower(name), "")
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// MatchFoodToEstimate ищет оценку для блюда: как есть, в нижнем регистре,
// без пробелов, без пробелов в нижнем регистре, очищенный ключ.
// Последняя попытка сравнивает очищенные формы ключей ответа.
func MatchFoodToEstimate(name string, estimates map[string]Nutrients) (Nutrients, bool) {
	lower := strings.ToLower(name)
	candidates := []string{
		name,
		lower,
		stripSpaces(name),
		stripSpaces(lower),
		SanitizeKey(name),
	}
	for _, key := range candidates {
		if key == "" {
			continue
		}
		if n, ok := estimates[key]; ok {
			return n, true
		}
	}

	target := SanitizeKey(name)
	if target == "" {
		return Nutrients{}, false
	}
	// ключи сортируются, чтобы при совпадении очищенных форм выбор не зависел от обхода map
	keys := make([]string, 0, len(estimates))
	for key := range estimates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if SanitizeKey(key) == target {
			return estimates[key], true
		}
	}
	return Nutrients{}, false
}

// ValidateGramInput разбирает граммовки через запятую. Запятая между цифрами
// без пробелов может быть десятичной ("85,5"), такое склеивание пробуется,
// только если простое разбиение не дало expectedCount значений.
// Поэтому "120,5" при двух блюдах - это 120 и 5, а при одном - 120.5.
func ValidateGramInput(raw string, expectedCount int) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ValidationError{Field: "grams", Reason: ReasonEmpty}
	}

	parts := strings.Split(raw, ",")
	tokens := nonEmpty(parts)
	if len(tokens) != expectedCount {
		tokens = nonEmpty(mergeDecimalCommas(parts))
	}
	if len(tokens) != expectedCount {
		return nil, &ValidationError{
			Field:  "grams",
			Reason: ReasonCountMismatch,
			Value:  strconv.Itoa(len(tokens)) + "/" + strconv.Itoa(expectedCount),
		}
	}

	values := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		v, err := ParseNumber("grams", tok)
		if err != nil {
			return nil, err
		}
		if v <= 0 {
			return nil, &ValidationError{Field: "grams", Reason: ReasonNotPositive, Value: tok}
		}
		values = append(values, v)
	}
	return values, nil
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

// mergeDecimalCommas склеивает "85" и "5" из "85,5", если вокруг запятой нет пробелов
func mergeDecimalCommas(parts []string) []string {
	var out []string
	for _, p := range parts {
		if n := len(out); n > 0 {
			prev := out[n-1]
			if prev != "" && p != "" &&
				!unicode.IsSpace(rune(prev[len(prev)-1])) && !unicode.IsSpace(rune(p[0])) &&
				digitsOnly.MatchString(strings.TrimSpace(prev)) && digitsOnly.MatchString(p) {
				out[n-1] = prev + "." + p
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseFoodList - названия блюд через запятую
func ParseFoodList(raw string) []string {
	return nonEmpty(strings.Split(raw, ","))
}

// TitleCase - название для отображения и записи: первая буква каждого слова заглавная
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
