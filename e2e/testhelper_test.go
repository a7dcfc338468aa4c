package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/actasweb/api/internal/auth"
	"github.com/actasweb/api/internal/handler"
	"github.com/actasweb/api/internal/middleware"
	"github.com/actasweb/api/internal/model"
	"github.com/actasweb/api/internal/service"
	"github.com/actasweb/api/internal/store"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for black-box handler tests
type testApp struct {
	app  *fiber.App
	jobs store.JobStore
}

// setupApp builds a Fiber app wired like main.go but with an in-memory job
// store and unconfigured external clients, so services fall back to mocks.
// Redis is only needed for the submit path; tests that enqueue call
// requireRedis first.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // separate DB for tests
	})
	t.Cleanup(func() { redisClient.Close() })

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	validate := validator.New()

	jobStore := store.NewMemoryStore()
	uploadDir := t.TempDir()

	// nil gemini and object store → mock minutes, local actas only
	meetingService := service.NewMeetingService(jobStore, asynqClient)
	minutesService := service.NewMinutesService(nil, nil, t.TempDir())
	sessionService := service.NewSessionService(t.TempDir(), t.TempDir())
	mediaService := service.NewMediaService(uploadDir)

	meetingHandler := handler.NewMeetingHandler(meetingService, uploadDir)
	minutesHandler := handler.NewMinutesHandler(minutesService, meetingService, validate)
	sessionHandler := handler.NewSessionHandler(sessionService, validate)
	mediaHandler := handler.NewMediaHandler(mediaService, validate)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New(fiber.Config{
		BodyLimit: 64 * 1024 * 1024,
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "API de Actas funcionando"})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"speech": false,
				"ocr":    false,
				"gemini": false,
				"r2":     false,
			},
		})
	})

	api := app.Group("/api", authMiddleware.Authenticate())

	// Very high rate limits so tests never get blocked
	meetings := api.Group("/meetings")
	meetings.Post("/upload", rateLimiter.UploadLimit(10000), meetingHandler.Upload)
	meetings.Get("/status/:jobId", meetingHandler.Status)
	meetings.Post("/:jobId/minutes", rateLimiter.MinutesLimit(10000), minutesHandler.Generate)

	sessions := api.Group("/sessions")
	sessions.Post("/", sessionHandler.Save)
	sessions.Get("/", sessionHandler.List)
	sessions.Get("/:name", sessionHandler.Load)

	api.Post("/media/trim", rateLimiter.TrimLimit(10000), mediaHandler.Trim)

	return &testApp{app: app, jobs: jobStore}
}

// requireRedis skips the test when no local Redis is reachable.
func requireRedis(t *testing.T) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
}

// seedJob inserts a job record directly into the test app's store.
func seedJob(t *testing.T, ta *testApp, job *model.Job) {
	t.Helper()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if err := ta.jobs.Save(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
}

// generateToken creates an HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	signed, err := auth.GenerateToken("test-user-123", "test@example.com", testJWTSecret)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest performs an HTTP request against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
