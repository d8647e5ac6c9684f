package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/untibullet/project-hub/internal/auth"
	"github.com/untibullet/project-hub/internal/blobstore"
	"github.com/untibullet/project-hub/internal/config"
	"github.com/untibullet/project-hub/internal/repository"
	"github.com/untibullet/project-hub/internal/service"
	"go.uber.org/zap"
)

type testServer struct {
	echo    *echo.Echo
	handler *Handler
	mock    pgxmock.PgxPoolIface
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})

	svc := service.New(
		repository.New(mock),
		blobstore.New(afero.NewMemMapFs(), "/blobs"),
		zap.NewNop(),
		service.Options{AdminUsername: "admin", AllowDirectJoin: true},
	)
	sessions := auth.NewSessions(nil, config.SessionConfig{Lifetime: time.Hour, CookieName: "sid"})
	h := New(svc, sessions, zap.NewNop())

	e := echo.New()
	e.HTTPErrorHandler = h.HTTPErrorHandler
	e.Use(middleware.BodyLimit("1K"))
	h.RegisterRoutes(e)

	return &testServer{echo: e, handler: h, mock: mock}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	return resp
}

func TestAnonymousIsUnauthorized(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/api/my-projects", "/api/admin/tables"} {
		rec := s.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		resp := decodeError(t, rec)
		assert.Equal(t, ErrCodeUnauthorized, resp.Error.Code)
		assert.Equal(t, "login required", resp.Error.Message)
	}
}

func TestMeAnonymous(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"user":null}`, rec.Body.String())
}

func TestGetProjectNotFound(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/projects/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "not found", resp.Error.Message)
}

func TestLoginSessionFlow(t *testing.T) {
	s := newTestServer(t)
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	var seen *time.Time

	s.mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "username", "email", "phone", "display_name", "created_at", "last_seen", "password_hash",
		}).AddRow("u-alice", "alice", "alice@example.com", "", "", created, seen, hash))
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_seen")).
		WithArgs(pgxmock.AnyArg(), "u-alice").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	rec := s.do(jsonRequest(http.MethodPost, "/api/login", `{"username":"alice","password":"s3cret"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	// повторный запрос с cookie: отметка активности и профиль
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_seen")).
		WithArgs(pgxmock.AnyArg(), "u-alice").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("u-alice").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "username", "email", "phone", "display_name", "created_at", "last_seen",
		}).AddRow("u-alice", "alice", "alice@example.com", "", "", created, seen))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookies[0])
	rec = s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OK   bool `json:"ok"`
		User struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, "alice", body.User.Username)
}

func TestLoginUnknownUser(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	rec := s.do(jsonRequest(http.MethodPost, "/api/login", `{"username":"ghost","password":"x"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decodeError(t, rec).Error.Message)
	assert.Empty(t, rec.Result().Cookies())
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(jsonRequest(http.MethodPost, "/api/login", `{"username":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeInvalidInput, decodeError(t, rec).Error.Code)
}

func TestBodyLimit(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/project-files", strings.NewReader(strings.Repeat("x", 4096)))
	req.Header.Set(echo.HeaderContentType, "multipart/form-data; boundary=xyz")
	rec := s.do(req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, ErrCodeTooLarge, decodeError(t, rec).Error.Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrCodeNotFound, decodeError(t, rec).Error.Code)
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		part, err := w.CreateFormFile(uploadField, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestUploadProjectFilesValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		fields   map[string]string
		files    map[string]string
		wantCode int
		wantErr  string
		wantMsg  string
	}{
		{
			name:     "topic is required",
			fields:   map[string]string{"projectId": "p1"},
			files:    map[string]string{"a.txt": "hello"},
			wantCode: http.StatusBadRequest,
			wantErr:  ErrCodeInvalidInput,
			wantMsg:  "topic is required",
		},
		{
			name:     "no files",
			fields:   map[string]string{"projectId": "p1", "topic": "Docs"},
			wantCode: http.StatusBadRequest,
			wantErr:  ErrCodeInvalidInput,
			wantMsg:  "no files uploaded",
		},
		{
			name:     "anonymous upload",
			fields:   map[string]string{"projectId": "p1", "topic": "Docs"},
			files:    map[string]string{"a.txt": "hello"},
			wantCode: http.StatusUnauthorized,
			wantErr:  ErrCodeUnauthorized,
			wantMsg:  "login required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(multipartRequest(t, "/api/project-files", tt.fields, tt.files))
			assert.Equal(t, tt.wantCode, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
		})
	}
}

func TestRespondErrorMapping(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{service.ErrForbidden, http.StatusForbidden, ErrCodeForbidden, "forbidden"},
		{service.ErrStagesLocked, http.StatusBadRequest, ErrCodeStagesLocked, "stages are locked for this workflow model"},
		{repository.ErrAlreadyExists, http.StatusConflict, ErrCodeConflict, "resource already exists"},
		{assert.AnError, http.StatusInternalServerError, ErrCodeInternal, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := s.echo.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			require.NoError(t, s.handler.respondError(c, "Test", tt.err))
			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
		})
	}
}

func TestSendFile(t *testing.T) {
	s := newTestServer(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/report.pdf", []byte("content"), 0o644))
	f, err := fs.Open("/report.pdf")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c := s.echo.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, s.handler.sendFile(c, &service.Download{Filename: "отчет.pdf", Size: 7, Content: f}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "content", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentDisposition), "attachment;"))
}

func TestCORSOrigins(t *testing.T) {
	e := echo.New()
	e.Use(CORS([]string{" https://hub.example.com/ ", "*", ""}))
	e.GET("/api/me", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{"listed origin", "https://hub.example.com", "https://hub.example.com"},
		{"foreign origin", "https://evil.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			req.Header.Set(echo.HeaderOrigin, tt.origin)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantOrigin, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
			if tt.wantOrigin != "" {
				assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
			}
		})
	}

	t.Run("no origins configured", func(t *testing.T) {
		e := echo.New()
		e.Use(CORS(nil))
		e.GET("/api/me", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set(echo.HeaderOrigin, "https://evil.example.com")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})
}
