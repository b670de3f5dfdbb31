package middleware

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vignesh0909/adbond.net-sub002/database"
	"github.com/vignesh0909/adbond.net-sub002/handlers"
	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"
	"github.com/vignesh0909/adbond.net-sub002/pkg/ratelimit"
	"github.com/vignesh0909/adbond.net-sub002/repository"
	"github.com/vignesh0909/adbond.net-sub002/services"
)

type authFixture struct {
	auth  services.AuthService
	users repository.UserRepository
	bans  repository.BanRepository
	mw    *AuthMiddleware
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), database.MigrationsFS())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := repository.NewSQLiteUserRepo(db.Conn)
	bans := repository.NewSQLiteBanRepo(db.Conn)
	auth := services.NewAuthService(users,
		repository.NewSQLiteSessionRepo(db.Conn),
		repository.NewSQLitePasswordResetRepo(db.Conn),
		bans, nil, "test-secret", 15, 7)

	return &authFixture{auth: auth, users: users, bans: bans, mw: NewAuthMiddleware(auth, users)}
}

func (f *authFixture) register(t *testing.T, username string) *models.TokenPair {
	t.Helper()
	pair, err := f.auth.Register(context.Background(), &models.RegisterRequest{
		Username: username, Email: username + "@example.com", Password: "password1", Role: models.RoleAdvertiser,
	})
	require.NoError(t, err)
	return pair
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) pkg.APIResponse {
	t.Helper()
	var resp pkg.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// whoami echoes the username the middleware put on the request.
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	user := handlers.CurrentUser(r)
	if user == nil {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(user.Username))
})

func TestAuth_Require(t *testing.T) {
	f := newAuthFixture(t)
	admin := f.register(t, "admin")
	member := f.register(t, "member")

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid", "Bearer " + member.AccessToken, http.StatusOK, "member"},
		{"admin", "Bearer " + admin.AccessToken, http.StatusOK, "admin"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			f.mw.Require(whoami).ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestAuth_RequireRejectsBannedUser(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "admin")
	member := f.register(t, "member")

	require.NoError(t, f.bans.Create(context.Background(), &models.Ban{
		UserID: member.User.ID, Reason: "spam", BannedBy: "admin",
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+member.AccessToken)
	rec := httptest.NewRecorder()
	f.mw.Require(whoami).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, decode(t, rec).Error, "banned")
}

func TestAuth_Optional(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.register(t, "owner")

	rec := httptest.NewRecorder()
	f.mw.Optional(whoami).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entities/x", nil))
	assert.Equal(t, "anonymous", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/entities/x", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec = httptest.NewRecorder()
	f.mw.Optional(whoami).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/entities/x", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec = httptest.NewRecorder()
	f.mw.Optional(whoami).ServeHTTP(rec, req)
	assert.Equal(t, "owner", rec.Body.String())
}

func TestAdmin_Require(t *testing.T) {
	f := newAuthFixture(t)
	admin := f.register(t, "admin")
	member := f.register(t, "member")
	chain := f.mw.Require(NewAdminMiddleware().Require(whoami))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+member.AccessToken)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+admin.AccessToken)
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewAdminMiddleware().Require(whoami).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

var pngHead = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("entity_id", "e1"))
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/users/me/avatar", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadValidator(t *testing.T) {
	images := UploadValidator{MaxSize: 1 << 10, AllowedTypes: ImageTypes, Field: "file"}
	docs := UploadValidator{MaxSize: 1 << 10, AllowedTypes: DocumentTypes}

	// The handler must still be able to read the file after validation.
	reader := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		buf := make([]byte, 8)
		_, err = file.Read(buf)
		require.NoError(t, err)
		w.Write([]byte(header.Filename + ":" + string(buf[1:4])))
	})

	cases := []struct {
		name      string
		validator UploadValidator
		req       *http.Request
		status    int
	}{
		{"png accepted", images, multipartRequest(t, "file", "a.png", pngHead), http.StatusOK},
		{"pdf accepted for documents", docs, multipartRequest(t, "file", "doc.pdf", []byte("%PDF-1.4\n%...")), http.StatusOK},
		{"pdf refused for images", images, multipartRequest(t, "file", "doc.pdf", []byte("%PDF-1.4\n%...")), http.StatusBadRequest},
		{"text disguised as png", images, multipartRequest(t, "file", "evil.png", []byte("hello there")), http.StatusBadRequest},
		{"missing field", images, multipartRequest(t, "", "", nil), http.StatusBadRequest},
		{"empty file", images, multipartRequest(t, "file", "a.png", nil), http.StatusBadRequest},
		{"too large", images, multipartRequest(t, "file", "a.png", append(pngHead, make([]byte, 2<<10)...)), http.StatusRequestEntityTooLarge},
		{"not multipart", images, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}")), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.validator.Require(reader).ServeHTTP(rec, tc.req)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}

	rec := httptest.NewRecorder()
	images.Require(reader).ServeHTTP(rec, multipartRequest(t, "file", "a.png", pngHead))
	assert.Equal(t, "a.png:PNG", rec.Body.String())
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "7f1c7a53-3f4e-4cb4-9a53-3d5f5ab1a001")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "7f1c7a53-3f4e-4cb4-9a53-3d5f5ab1a001", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not a uuid\nwith newline")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not a uuid\nwith newline", seen)
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := newStatusRecorder(rec)
	assert.Equal(t, http.StatusOK, sr.status)

	sr.WriteHeader(http.StatusTeapot)
	_, _ = sr.Write([]byte("abc"))
	assert.Equal(t, http.StatusTeapot, sr.status)
	assert.Equal(t, 3, sr.bytes)
	assert.Same(t, rec, sr.Unwrap())

	// httptest.ResponseRecorder cannot be hijacked.
	_, _, err := sr.Hijack()
	assert.Error(t, err)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	var pattern string
	mux.HandleFunc("GET /api/entities/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		pattern = r.Pattern
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entities/abc", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET /api/entities/{id}", pattern)
}

func TestAPIRateLimit(t *testing.T) {
	limiter := ratelimit.NewAPIRateLimiter(1, 2)
	t.Cleanup(limiter.Stop)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := APIRateLimit(limiter, nil)(ok)

	call := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("/api/stats").Code)
	assert.Equal(t, http.StatusOK, call("/api/stats").Code)
	limited := call("/api/stats")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "too many requests, try again in")

	// Non-API paths are never limited.
	assert.Equal(t, http.StatusOK, call("/index.html").Code)

	// A forged X-Forwarded-For does not buy a fresh bucket.
	spoofed := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	spoofed.RemoteAddr = "10.0.0.1:1234"
	spoofed.Header.Set("X-Forwarded-For", "203.0.113.99")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, spoofed)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	disabled := ratelimit.NewAPIRateLimiter(0, 0)
	t.Cleanup(disabled.Stop)
	assert.NotNil(t, APIRateLimit(disabled, nil)(ok))
}
