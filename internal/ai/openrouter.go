package ai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/config"
	"github.com/VadimVthvPro/PRO-pitashka/internal/metrics"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NutritionEstimator - узкий интерфейс оракула КБЖУ: на вход названия, на выход значения на 100 г
type NutritionEstimator interface {
	EstimateNutrition(ctx context.Context, names []string) (map[string]calc.Nutrients, error)
}

// FoodRecognizer - распознавание блюд на фото
type FoodRecognizer interface {
	RecognizeFoods(ctx context.Context, image []byte, lang string) ([]string, error)
}

// TextGenerator - свободные текстовые ответы (план питания, рецепты, советы)
type TextGenerator interface {
	Generate(ctx context.Context, namespace, prompt string, ttl time.Duration) (string, error)
}

// Cache - хранилище ответов модели, реализуется repository.AICache
type Cache interface {
	Key(namespace, prompt string) string
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

const (
	nsNutrition = "nutrition"
	nsVision    = "vision"

	systemPrompt = "Ты нутрициолог и фитнес-тренер. Отвечай точно и кратко."
)

// Client - OpenRouter chat completions (по умолчанию модели Gemini)
type Client struct {
	cfg        config.AIConfig
	httpClient *http.Client
	cache      Cache
	tracer     trace.Tracer
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient создает клиента. cache может быть nil - тогда ответы не кэшируются.
func NewClient(cfg config.AIConfig, cache Cache) *Client {
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	return &Client{
		cfg: cfg,
		// таймаут задаётся на каждую попытку через context
		httpClient: &http.Client{},
		cache:      cache,
		tracer:     otel.Tracer("github.com/VadimVthvPro/PRO-pitashka/internal/ai"),
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// EstimateNutrition спрашивает у модели КБЖУ на 100 г. Неразборчивый ответ - ErrNoNutritionData,
// недоступность сервиса после всех попыток - ErrOracleUnavailable.
func (c *Client) EstimateNutrition(ctx context.Context, names []string) (map[string]calc.Nutrients, error) {
	ctx, span := c.tracer.Start(ctx, "ai.EstimateNutrition", trace.WithAttributes(attribute.Int("items", len(names))))
	defer span.End()

	prompt := nutritionPrompt(names)
	key := c.cacheKey(nsNutrition, prompt)
	if text, ok := c.cached(ctx, key); ok {
		if parsed, err := ParseNutrition(text); err == nil {
			return parsed, nil
		}
	}

	text, err := c.complete(ctx, "estimate", c.cfg.Model, textMessages(prompt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "oracle unavailable")
		return nil, err
	}

	parsed, err := ParseNutrition(text)
	if err != nil {
		utils.Log.Warnf("[EstimateNutrition] unparsable oracle response (%d chars)", len(text))
		span.SetStatus(codes.Error, "unparsable response")
		return nil, err
	}
	c.store(ctx, key, text, c.cfg.NutritionTTL)
	span.SetAttributes(attribute.Int("estimates", len(parsed)))
	return parsed, nil
}

// RecognizeFoods - список блюд на фото, названия на языке lang
func (c *Client) RecognizeFoods(ctx context.Context, image []byte, lang string) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "ai.RecognizeFoods", trace.WithAttributes(attribute.Int("image_bytes", len(image))))
	defer span.End()

	sum := sha256.Sum256(image)
	key := c.cacheKey(nsVision, lang+":"+hex.EncodeToString(sum[:]))
	if text, ok := c.cached(ctx, key); ok {
		if names, err := ParseFoodNames(text); err == nil {
			return names, nil
		}
	}

	text, err := c.complete(ctx, "vision", c.cfg.VisionModel, imageMessages(visionPrompt(lang), image))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "oracle unavailable")
		return nil, err
	}
	names, err := ParseFoodNames(text)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, text, c.cfg.NutritionTTL)
	return names, nil
}

// Generate - свободный текстовый ответ с кэшем по namespace и тексту запроса
func (c *Client) Generate(ctx context.Context, namespace, prompt string, ttl time.Duration) (string, error) {
	ctx, span := c.tracer.Start(ctx, "ai.Generate", trace.WithAttributes(attribute.String("namespace", namespace)))
	defer span.End()

	key := c.cacheKey(namespace, prompt)
	if text, ok := c.cached(ctx, key); ok {
		return text, nil
	}
	text, err := c.complete(ctx, namespace, c.cfg.Model, textMessages(prompt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "oracle unavailable")
		return "", err
	}
	if ttl <= 0 {
		ttl = c.cfg.ResponseTTL
	}
	c.store(ctx, key, text, ttl)
	return text, nil
}

func (c *Client) cacheKey(namespace, prompt string) string {
	if c.cache == nil {
		return ""
	}
	return c.cache.Key(namespace, prompt)
}

// cached - ошибки кэша только логируются, запрос идёт в модель
func (c *Client) cached(ctx context.Context, key string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	text, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		utils.Log.Warnf("[ai cache] get failed: %v", err)
		metrics.OracleCache.WithLabelValues("error").Inc()
		return "", false
	}
	if !ok {
		metrics.OracleCache.WithLabelValues("miss").Inc()
		return "", false
	}
	metrics.OracleCache.WithLabelValues("hit").Inc()
	return text, true
}

func (c *Client) store(ctx context.Context, key, text string, ttl time.Duration) {
	if c.cache == nil || text == "" {
		return
	}
	if err := c.cache.Set(ctx, key, text, ttl); err != nil {
		utils.Log.Warnf("[ai cache] set failed: %v", err)
	}
}

// complete делает до RetryAttempts попыток с фиксированной паузой RetryDelay, без backoff.
// Каждая попытка ограничена Timeout.
func (c *Client) complete(ctx context.Context, operation, model string, messages []map[string]interface{}) (string, error) {
	start := time.Now()
	defer func() {
		metrics.OracleDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		text, err := c.completeOnce(ctx, model, messages)
		if err == nil {
			metrics.OracleRequests.WithLabelValues(operation, "ok").Inc()
			return text, nil
		}
		lastErr = err
		utils.Log.Warnf("[ai %s] attempt %d/%d failed: %v", operation, attempt, c.cfg.RetryAttempts, err)

		if ctx.Err() != nil || attempt == c.cfg.RetryAttempts {
			break
		}
		if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
			break
		}
	}

	metrics.OracleRequests.WithLabelValues(operation, "error").Inc()
	metrics.ErrorsTotal.WithLabelValues("oracle").Inc()
	return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, lastErr)
}

func (c *Client) completeOnce(ctx context.Context, model string, messages []map[string]interface{}) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(map[string]interface{}{
		"model":       model,
		"messages":    messages,
		"temperature": 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Title", "PROpitashka")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openrouter api error (status %d): %s", resp.StatusCode, truncate(string(body), 300))
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("failed to parse api response: %w", err)
	}
	if apiResponse.Error != nil {
		return "", errors.New("openrouter error: " + apiResponse.Error.Message)
	}
	if len(apiResponse.Choices) == 0 || strings.TrimSpace(apiResponse.Choices[0].Message.Content) == "" {
		return "", errors.New("empty response from model")
	}
	return apiResponse.Choices[0].Message.Content, nil
}

func textMessages(prompt string) []map[string]interface{} {
	return []map[string]interface{}{
		{"role": "system", "content": systemPrompt},
		{"role": "user", "content": prompt},
	}
}

func imageMessages(prompt string, image []byte) []map[string]interface{} {
	imageType := http.DetectContentType(image)
	if !strings.HasPrefix(imageType, "image/") {
		imageType = "image/jpeg"
	}
	return []map[string]interface{}{
		{"role": "system", "content": systemPrompt},
		{
			"role": "user",
			"content": []map[string]interface{}{
				{"type": "text", "text": prompt},
				{
					"type": "image_url",
					"image_url": map[string]string{
						"url": fmt.Sprintf("data:%s;base64,%s", imageType, base64.StdEncoding.EncodeToString(image)),
					},
				},
			},
		},
	}
}

func nutritionPrompt(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + strings.ReplaceAll(n, `"`, "") + `"`
	}
	return fmt.Sprintf(`Представь КБЖУ на 100 грамм для продуктов: %s.
Ответь только JSON без пояснений в формате {"название": {"cal": 0, "b": 0, "g": 0, "u": 0}},
где cal - калории, b - белки, g - жиры, u - углеводы. Ключи - названия ровно как в списке.`,
		strings.Join(quoted, ", "))
}

func visionPrompt(lang string) string {
	return fmt.Sprintf(`Перечисли все блюда и продукты на фото. Названия пиши на языке "%s".
Ответь только JSON-массивом строк, например ["гречка", "куриная грудка"]. Если еды нет, ответь [].`, lang)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
