package httpapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/video-feed-backend/internal/config"
	"github.com/tbourn/video-feed-backend/internal/feed"
	"github.com/tbourn/video-feed-backend/internal/fetch"
	"github.com/tbourn/video-feed-backend/internal/http/middleware"
	"github.com/tbourn/video-feed-backend/internal/repo"
	"github.com/tbourn/video-feed-backend/internal/storage"
)

const testSecret = "s3cr3t"

// --- in-memory blob store ---
type memBlobs struct {
	mu   sync.Mutex
	objs map[string]storage.Object
}

func (m *memBlobs) Put(_ context.Context, obj storage.Object) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objs == nil {
		m.objs = map[string]storage.Object{}
	}
	m.objs[obj.Key] = obj
	return storage.PublicURL("", "us-east-1", "media", obj.Key), nil
}

func (m *memBlobs) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objs)
}

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db, "videos"); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// assetServer serves /v.mp4 and /t.jpg and counts every hit.
func assetServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/v.mp4", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("VIDEO"))
	})
	mux.HandleFunc("/t.jpg", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("THUMB"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testConfig() config.Config {
	return config.Config{
		RateRPS:       100,
		RateBurst:     100,
		WebhookSecret: testSecret,
		Feed:          config.FeedConfig{URL: "https://feed.test/", Title: "Videos", Description: "Latest videos"},
		OTEL:          config.OTELConfig{ServiceName: "test-svc"},
	}
}

type harness struct {
	r     *gin.Engine
	blobs *memBlobs
	src   *httptest.Server
	hits  *atomic.Int64
}

func newHarness(t *testing.T, cfg config.Config) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	src, hits := assetServer(t)
	blobs := &memBlobs{}
	r := gin.New()
	RegisterRoutes(r, Deps{
		Videos:  repo.NewVideoRepo(newTestDB(t), "videos"),
		Blobs:   blobs,
		Fetcher: fetch.New(fetch.Options{}),
	}, cfg)
	return &harness{r: r, blobs: blobs, src: src, hits: hits}
}

func (h *harness) notify(t *testing.T, secret string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(middleware.SecretHeader, secret)
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

func (h *harness) feed(t *testing.T) string {
	t.Helper()
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET / = %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != feed.ContentType {
		t.Fatalf("Content-Type = %q", ct)
	}
	return w.Body.String()
}

func (h *harness) notification(id, sent string) map[string]string {
	return map[string]string{
		"id":        id,
		"body":      "hello " + id,
		"sent_time": sent,
		"state":     "published",
		"uri":       h.src.URL + "/v.mp4",
		"thumbnail": h.src.URL + "/t.jpg",
		"post_uri":  "https://social.test/p/" + id,
	}
}

func TestWebhookThenFeed(t *testing.T) {
	h := newHarness(t, testConfig())

	w := h.notify(t, testSecret, h.notification("v1", "2024-01-01T00:00:00Z"))
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Fatalf("POST / = %d %q", w.Code, w.Body.String())
	}
	if h.blobs.len() != 2 {
		t.Fatalf("want 2 stored blobs, got %d", h.blobs.len())
	}

	doc := h.feed(t)
	for _, want := range []string{
		`<guid isPermaLink="false">v1</guid>`,
		"<pubDate>Mon, 01 Jan 2024 00:00:00 +0000</pubDate>",
		"https://s3.us-east-1.amazonaws.com/media/videos%2Fv1_",
		"https://s3.us-east-1.amazonaws.com/media/thumb%2Fv1_",
		"<link>https://social.test/p/v1</link>",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("feed missing %q:\n%s", want, doc)
		}
	}
}

func TestFeed_NewestFirstAndCapped(t *testing.T) {
	h := newHarness(t, testConfig())
	for i := range 22 {
		sent := fmt.Sprintf("2024-01-%02dT00:00:00Z", i+1)
		if w := h.notify(t, testSecret, h.notification(fmt.Sprintf("v%02d", i+1), sent)); w.Code != http.StatusOK {
			t.Fatalf("POST %d = %d %s", i, w.Code, w.Body.String())
		}
	}
	doc := h.feed(t)
	if n := strings.Count(doc, "<item>"); n != 20 {
		t.Fatalf("want 20 items, got %d", n)
	}
	first := strings.Index(doc, ">v22</guid>")
	second := strings.Index(doc, ">v21</guid>")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("items not newest first")
	}
	if strings.Contains(doc, ">v01</guid>") || strings.Contains(doc, ">v02</guid>") {
		t.Fatalf("oldest items should be cut")
	}
}

func TestWebhook_UnreachableAsset_400_NoItem(t *testing.T) {
	h := newHarness(t, testConfig())
	n := h.notification("v1", "2024-01-01T00:00:00Z")
	n["uri"] = "http://127.0.0.1:1/v.mp4"

	w := h.notify(t, testSecret, n)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("POST / = %d, want 400", w.Code)
	}
	if h.blobs.len() != 0 {
		t.Fatalf("no blob should be stored")
	}
	if strings.Contains(h.feed(t), "<item>") {
		t.Fatalf("feed should be empty")
	}
}

func TestWebhook_MissingSecret_401_NoFetch(t *testing.T) {
	h := newHarness(t, testConfig())
	for _, secret := range []string{"", "wrong"} {
		w := h.notify(t, secret, h.notification("v1", "2024-01-01T00:00:00Z"))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("secret %q: POST / = %d, want 401", secret, w.Code)
		}
	}
	if h.hits.Load() != 0 {
		t.Fatalf("assets fetched without authorization: %d", h.hits.Load())
	}
}

func TestWebhook_EmptyConfiguredSecretRejectsAll(t *testing.T) {
	cfg := testConfig()
	cfg.WebhookSecret = ""
	h := newHarness(t, cfg)
	if w := h.notify(t, "anything", h.notification("v1", "2024-01-01T00:00:00Z")); w.Code != http.StatusUnauthorized {
		t.Fatalf("POST / = %d, want 401", w.Code)
	}
}

func TestWebhook_RepeatIDOverwrites(t *testing.T) {
	h := newHarness(t, testConfig())
	h.notify(t, testSecret, h.notification("v1", "2024-01-01T00:00:00Z"))
	n := h.notification("v1", "2024-02-01T00:00:00Z")
	n["body"] = "updated"
	if w := h.notify(t, testSecret, n); w.Code != http.StatusOK {
		t.Fatalf("POST / = %d", w.Code)
	}
	doc := h.feed(t)
	if strings.Count(doc, "<item>") != 1 || !strings.Contains(doc, "<description>updated</description>") {
		t.Fatalf("want one overwritten item:\n%s", doc)
	}
}

func TestFeed_StoreFailure_500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	r := gin.New()
	RegisterRoutes(r, Deps{Videos: repo.NewVideoRepo(db, "missing_table"), Blobs: &memBlobs{}, Fetcher: fetch.New(fetch.Options{})}, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("GET / = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Error fetching video feed: ") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestFeed_Gzip(t *testing.T) {
	h := newHarness(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, headers=%v", w.Header())
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	doc, _ := io.ReadAll(zr)
	if !strings.Contains(string(doc), "</rss>") {
		t.Fatalf("decompressed body is not a feed: %q", doc)
	}
}

func TestRegisterRoutes_CORS_Health_Metrics_Fallbacks(t *testing.T) {
	h := newHarness(t, testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://reader.example")
	h.r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header")
	}

	w = httptest.NewRecorder()
	h.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	w = httptest.NewRecorder()
	h.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE / expected 405, got %d", w.Code)
	}
}

func TestWebhook_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS, cfg.RateBurst = 0.001, 1
	h := newHarness(t, cfg)

	h.notify(t, testSecret, h.notification("v1", "2024-01-01T00:00:00Z"))
	if w := h.notify(t, testSecret, h.notification("v2", "2024-01-01T00:00:00Z")); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", w.Code)
	}
}

func TestWebhook_CallerDeadlineDoesNotAbortRun(t *testing.T) {
	h := newHarness(t, testConfig())
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("THUMB"))
	}))
	t.Cleanup(slow.Close)

	n := h.notification("v1", "2024-01-01T00:00:00Z")
	n["thumbnail"] = slow.URL + "/t.jpg"
	raw, _ := json.Marshal(n)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.SecretHeader, testSecret)
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("POST / = %d %s, want 200", w.Code, w.Body.String())
	}
	if h.blobs.len() != 2 {
		t.Fatalf("want 2 stored blobs, got %d", h.blobs.len())
	}
	if !strings.Contains(h.feed(t), ">v1</guid>") {
		t.Fatalf("record should be in the feed")
	}
}
