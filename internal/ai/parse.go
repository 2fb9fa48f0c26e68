package ai

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
)

// Блок вида "название": {"cal": N, "b": N, "g": N, "u": N} в произвольном тексте
var nutritionBlock = regexp.MustCompile(`"([^"{}]+)"\s*:\s*(\{[^{}]*\})`)

// ParseNutrition достаёт КБЖУ на 100 г из ответа модели.
// Блоки без всех четырёх чисел пропускаются; пустой результат - ErrNoNutritionData.
func ParseNutrition(text string) (map[string]calc.Nutrients, error) {
	result := make(map[string]calc.Nutrients)
	for _, m := range nutritionBlock.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		var fields map[string]interface{}
		if err := json.Unmarshal([]byte(m[2]), &fields); err != nil {
			continue
		}
		n, ok := nutrientsFrom(fields)
		if !ok {
			continue
		}
		result[name] = n
	}
	if len(result) == 0 {
		return nil, ErrNoNutritionData
	}
	return result, nil
}

func nutrientsFrom(fields map[string]interface{}) (calc.Nutrients, bool) {
	var n calc.Nutrients
	targets := map[string]*float64{"cal": &n.Calories, "b": &n.Protein, "g": &n.Fat, "u": &n.Carbs}
	for key, dst := range targets {
		v, ok := number(fields[key])
		if !ok || v < 0 {
			return calc.Nutrients{}, false
		}
		*dst = v
	}
	return n, true
}

// number принимает и 12.5, и "12,5"
func number(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(x), ",", ".", 1), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

var (
	jsonArray  = regexp.MustCompile(`(?s)\[.*?\]`)
	listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d{1,2}[.)])\s+`)
)

// ParseFoodNames - список блюд из ответа vision-модели: JSON-массив строк,
// иначе маркированный список. Обычный текст (отказ, пояснение) - ErrNoFoodsRecognized.
func ParseFoodNames(text string) ([]string, error) {
	for _, candidate := range jsonArray.FindAllString(text, -1) {
		var names []string
		if err := json.Unmarshal([]byte(candidate), &names); err == nil {
			if out := cleanNames(names); len(out) > 0 {
				return out, nil
			}
		}
	}

	if names, ok := bulletedList(text); ok {
		if out := cleanNames(names); len(out) > 0 {
			return out, nil
		}
	}
	return nil, ErrNoFoodsRecognized
}

// bulletedList принимает текст, только если каждая непустая строка - пункт списка
// без знаков конца предложения
func bulletedList(text string) ([]string, bool) {
	text = strings.NewReplacer("```json", "", "```", "").Replace(text)
	var names []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		loc := listMarker.FindStringIndex(line)
		if loc == nil {
			return nil, false
		}
		item := strings.TrimSpace(line[loc[1]:])
		if strings.ContainsAny(item, ".!?:") {
			return nil, false
		}
		names = append(names, strings.Trim(item, `"'`))
	}
	return names, len(names) > 0
}

const maxFoodNameLen = 60

func cleanNames(names []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] || len([]rune(n)) > maxFoodNameLen {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
