package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/config"
	"github.com/VadimVthvPro/PRO-pitashka/internal/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func newTestClient(t *testing.T, url string, cache Cache) *Client {
	t.Helper()
	c := NewClient(config.AIConfig{
		APIKey:        "test-key",
		BaseURL:       url,
		Model:         "test-model",
		VisionModel:   "test-vision",
		Timeout:       2 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
		NutritionTTL:  time.Hour,
		ResponseTTL:   time.Hour,
	}, cache)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestEstimateNutrition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var req map[string]interface{}
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "test-model", req["model"])

		_, _ = io.WriteString(w, chatResponse("Вот данные:\n```json\n"+
			`{"гречка": {"cal": 110, "b": 3.6, "g": 1.3, "u": 21.3}, "курица": {"cal": "165", "b": "31", "g": "3,6", "u": 0}}`+
			"\n```"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	got, err := c.EstimateNutrition(context.Background(), []string{"гречка", "курица"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 110.0, got["гречка"].Calories)
	assert.Equal(t, 3.6, got["курица"].Fat)
}

func TestEstimateNutritionRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	_, err := c.EstimateNutrition(context.Background(), []string{"гречка"})
	assert.ErrorIs(t, err, ErrOracleUnavailable)
	assert.EqualValues(t, 3, calls.Load())
}

func TestEstimateNutritionRecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, chatResponse(`{"яблоко": {"cal": 52, "b": 0.3, "g": 0.2, "u": 14}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	got, err := c.EstimateNutrition(context.Background(), []string{"яблоко"})
	require.NoError(t, err)
	assert.Equal(t, 52.0, got["яблоко"].Calories)
	assert.EqualValues(t, 2, calls.Load())
}

func TestEstimateNutritionGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chatResponse("Извините, я не знаю."))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	_, err := c.EstimateNutrition(context.Background(), []string{"борщ"})
	assert.ErrorIs(t, err, ErrNoNutritionData)
}

func TestEstimateNutritionUsesRedisCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, chatResponse(`{"рис": {"cal": 130, "b": 2.7, "g": 0.3, "u": 28}}`))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := newTestClient(t, srv.URL, repository.NewAICache(client))
	for i := 0; i < 3; i++ {
		got, err := c.EstimateNutrition(context.Background(), []string{"рис"})
		require.NoError(t, err)
		assert.Equal(t, 130.0, got["рис"].Calories)
	}
	assert.EqualValues(t, 1, calls.Load())
}

func TestRecognizeFoods(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "data:image/png;base64,")
		assert.Contains(t, string(body), "test-vision")
		_, _ = io.WriteString(w, chatResponse(`["омлет", "тост", "Омлет"]`))
	}))
	defer srv.Close()

	png := []byte("\x89PNG\r\n\x1a\n0000")
	c := newTestClient(t, srv.URL, nil)
	names, err := c.RecognizeFoods(context.Background(), png, "ru")
	require.NoError(t, err)
	assert.Equal(t, []string{"омлет", "тост"}, names)
}

func TestRecognizeFoodsRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chatResponse("Sorry, I can't identify any food in this image."))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	names, err := c.RecognizeFoods(context.Background(), []byte("\x89PNG\r\n\x1a\n0000"), "en")
	assert.ErrorIs(t, err, ErrNoFoodsRecognized)
	assert.Empty(t, names)
}

func TestGenerateCachesByNamespace(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, chatResponse("Понедельник: овсянка"))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := newTestClient(t, srv.URL, repository.NewAICache(client))
	ctx := context.Background()
	text, err := c.Generate(ctx, "plan", "план на неделю", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "Понедельник: овсянка", text)

	_, err = c.Generate(ctx, "plan", "план на неделю", time.Minute)
	require.NoError(t, err)
	_, err = c.Generate(ctx, "recipe", "план на неделю", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}
