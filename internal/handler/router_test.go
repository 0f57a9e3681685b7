package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/eeeflix-contacts/internal/middleware"
	"github.com/noah-isme/eeeflix-contacts/internal/repository"
	"github.com/noah-isme/eeeflix-contacts/internal/service"
	"github.com/noah-isme/eeeflix-contacts/pkg/storage"
)

type fullRouter struct {
	router    *gin.Engine
	storePath string
	backups   *service.BackupService
	audit     *observer.ObservedLogs
}

func newFullRouter(t *testing.T, authEnabled bool, checks map[string]ReadinessCheck) *fullRouter {
	t.Helper()
	gin.SetMode(gin.TestMode)
	root := t.TempDir()

	assets := filepath.Join(root, "assets")
	require.NoError(t, os.MkdirAll(assets, 0o755))
	path := filepath.Join(assets, testStoreName)
	require.NoError(t, os.WriteFile(path, []byte(seedStore), 0o644))

	backupStore, err := storage.NewLocalStorage(filepath.Join(root, "backups"))
	require.NoError(t, err)
	exportStore, err := storage.NewLocalStorage(filepath.Join(root, "exports"))
	require.NoError(t, err)

	metrics := service.NewMetricsService()
	backups := service.NewBackupService(nil, backupStore, metrics, nil, 0)
	contacts := service.NewContactService(repository.NewContactFileRepository(path), nil, nil, service.ContactServiceOptions{
		Metrics: metrics,
		Backups: backups,
	})
	exports := service.NewExportService(contacts, exportStore, storage.NewSignedURLSigner("export-secret", time.Hour), service.ExportConfig{APIPrefix: "/api"}, nil)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := service.NewAuthService(nil, nil, service.AuthConfig{
		AccessTokenSecret: "jwt-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "eeeflix-contacts",
		AdminUsername:     "admin",
		AdminPasswordHash: string(hash),
		WriteAPIKey:       "write-key",
	})

	core, logs := observer.New(zap.InfoLevel)
	router := NewRouter(RouterConfig{
		APIPrefix:      "/api",
		AllowedOrigins: []string{"http://localhost:3000"},
		AuthEnabled:    authEnabled,
		Contacts:       NewContactHandler(contacts, assets, testStoreName, nil),
		Exports:        NewExportHandler(exports),
		Backups:        NewBackupHandler(backups),
		Auth:           NewAuthHandler(auth),
		Metrics:        NewMetricsHandler(metrics, checks),
		AuthService:    auth,
		MetricsService: metrics,
		Audit:          middleware.ZapAuditSink{Logger: zap.New(core)},
	})
	return &fullRouter{router: router, storePath: path, backups: backups, audit: logs}
}

func (f *fullRouter) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func updateRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/updateContacts", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRouterWriteGuard(t *testing.T) {
	f := newFullRouter(t, true, nil)
	body := `{"studentId":2301001,"contactNo":"+880999","fbLink":"http://fb.com/b"}`

	w := f.do(updateRequest(body))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())

	req := updateRequest(body)
	req.Header.Set(middleware.APIKeyHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)

	req = updateRequest(body)
	req.Header.Set(middleware.APIKeyHeader, "write-key")
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	// A GET is still refused on method before credentials are looked at.
	w = f.do(httptest.NewRequest(http.MethodGet, "/api/updateContacts", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	entries := f.audit.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "api-key", entries[0].ContextMap()["actor"])
}

func TestRouterLoginIssuesUsableToken(t *testing.T) {
	f := newFullRouter(t, true, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Data.AccessToken)

	req = updateRequest(`{"studentId":2301002,"contactNo":"+880555"}`)
	req.Header.Set("Authorization", "Bearer "+login.Data.AccessToken)
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Student 2301002 updated successfully"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)
}

func TestRouterWriteTakesBackup(t *testing.T) {
	f := newFullRouter(t, false, nil)

	w := f.do(updateRequest(`{"studentId":2301001,"contactNo":"+880999"}`))
	require.Equal(t, http.StatusOK, w.Code)

	objects, err := f.backups.List()
	require.NoError(t, err)
	require.Len(t, objects, 1)
	saved, err := f.backups.Read(objects[0].Name)
	require.NoError(t, err)
	assert.Equal(t, seedStore, string(saved))

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/backups", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), objects[0].Name)
}

func TestRouterExportRoundTrip(t *testing.T) {
	f := newFullRouter(t, false, nil)

	w := f.do(httptest.NewRequest(http.MethodPost, "/api/exports?format=csv", nil))
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data struct {
			URL     string `json:"url"`
			Records int    `json:"records"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 2, created.Data.Records)
	require.True(t, strings.HasPrefix(created.Data.URL, "/api/exports/"))

	w = f.do(httptest.NewRequest(http.MethodGet, created.Data.URL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "2301001")

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/exports/garbage", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(httptest.NewRequest(http.MethodPost, "/api/exports?format=xml", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouterHealthReadinessAndMetrics(t *testing.T) {
	healthy := newFullRouter(t, false, map[string]ReadinessCheck{
		"store": func(ctx context.Context) error { return nil },
	})
	w := healthy.do(httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store":"ok"`)

	w = healthy.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	healthy.do(updateRequest(`{"studentId":2301001,"contactNo":"+880999"}`))
	w = healthy.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "contact_updates_total")

	w = healthy.do(httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data"`)

	broken := newFullRouter(t, false, map[string]ReadinessCheck{
		"cache": func(ctx context.Context) error { return errors.New("dial tcp: refused") },
	})
	w = broken.do(httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "refused")
}

func TestRouterCORSAndRequestID(t *testing.T) {
	f := newFullRouter(t, false, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/updateContacts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := f.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w = f.do(req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestRouterAuthMe(t *testing.T) {
	f := newFullRouter(t, true, nil)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(middleware.APIKeyHeader, "write-key")
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data Identity `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, Identity{Actor: "api-key", Method: "api-key", CanWrite: true}, body.Data)

	login := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"s3cret"}`))
	login.Header.Set("Content-Type", "application/json")
	w = f.do(login)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	var token struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.Data.AccessToken)
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "admin", body.Data.Username)
	assert.Equal(t, "bearer", body.Data.Method)
	assert.True(t, body.Data.CanWrite)
}
