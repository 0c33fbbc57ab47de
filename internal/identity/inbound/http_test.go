package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/authotp/internal/identity/entity"
	"github.com/shandysiswandi/authotp/internal/identity/usecase"
	"github.com/shandysiswandi/authotp/internal/pkg/clock"
	"github.com/shandysiswandi/authotp/internal/pkg/goerror"
	"github.com/shandysiswandi/authotp/internal/pkg/hash"
	"github.com/shandysiswandi/authotp/internal/pkg/idempotency"
	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/jwt"
	"github.com/shandysiswandi/authotp/internal/pkg/otp"
	"github.com/shandysiswandi/authotp/internal/pkg/router"
	"github.com/shandysiswandi/authotp/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRepo holds users only; issuance always succeeds and no code ever
// matches.
type stubRepo struct {
	mu    sync.Mutex
	users map[int64]entity.User
}

func (s *stubRepo) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (s *stubRepo) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, goerror.ErrNotFound
}

func (s *stubRepo) CreateUser(_ context.Context, u entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *stubRepo) FindOTP(context.Context, int64, string, entity.OTPFilter, time.Time) (*entity.OTP, error) {
	return nil, goerror.ErrNotFound
}

func (s *stubRepo) UpdateOTP(context.Context, entity.OTP, entity.OTPFilter) error {
	return goerror.ErrNotFound
}

func (s *stubRepo) IssueOTP(_ context.Context, in entity.IssueOTP) (*entity.OTP, error) {
	return &entity.OTP{ID: in.ID, UserID: in.UserID, Attempts: 1}, nil
}

func (s *stubRepo) ResetPassword(context.Context, entity.OTP, string) error {
	return goerror.ErrNotFound
}

type countNotifier struct {
	mu    sync.Mutex
	calls int
}

func (c *countNotifier) SendOTPEmail(context.Context, string, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

type fakeJWT struct {
	fail bool
}

func (f *fakeJWT) Generate(uid int64, email string) (string, error) {
	return f.GenerateTTL(uid, email, 0)
}

func (f *fakeJWT) GenerateTTL(int64, string, time.Duration) (string, error) {
	if f.fail {
		return "", errors.New("signer down")
	}
	return "tkn", nil
}

func (f *fakeJWT) Verify(token string) (jwt.Claims, error) {
	if token != "tkn" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{UserID: 1, UserEmail: "a@example.com"}, nil
}

type memIdem struct {
	mu   sync.Mutex
	done map[string]*idempotency.Response
}

func (m *memIdem) Acquire(_ context.Context, key string, _ time.Duration) (*idempotency.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done[key], nil
}

func (m *memIdem) Complete(_ context.Context, key string, resp idempotency.Response, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done[key] = &resp
	return nil
}

func (m *memIdem) Release(context.Context, string) error { return nil }

type server struct {
	handler  http.Handler
	jwt      *fakeJWT
	notifier *countNotifier
}

func newServer(t *testing.T) *server {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	s := &server{jwt: &fakeJWT{}, notifier: &countNotifier{}}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     &stubRepo{users: map[int64]entity.User{}},
		Notifier:   s.notifier,
		Validator:  v,
		Password:   hash.NewBcrypt(4, ""),
		CodeDigest: hash.NewHMACSHA256("k"),
		OTP:        otp.NewHOTP(6),
		UID:        &seqID{},
		Clock:      clock.New(),
		JWT:        s.jwt,
		Instrument: instrument.NewNoop(),
	})

	r := router.NewRouter(router.Config{
		JWT:         s.jwt,
		Idempotency: &memIdem{done: map[string]*idempotency.Response{}},
	})
	RegisterHTTPEndpoint(r, uc)
	s.handler = r

	return s
}

type envelope struct {
	Message string            `json:"message"`
	Data    map[string]any    `json:"data"`
	Error   map[string]string `json:"error"`
}

func (s *server) do(t *testing.T, method, path, body string, header ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestHTTPEndpoint_Register(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		s := newServer(t)

		rec, env := s.do(t, http.MethodPost, "/api/v1/auth/sign-up", `{"email":"a@example.com","password":"s3cretpass"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "User registered successfully.", env.Message)
		assert.Equal(t, map[string]any{"id": "1", "token": "tkn"}, env.Data)
	})

	t.Run("token failure returns the id", func(t *testing.T) {
		t.Parallel()
		s := newServer(t)
		s.jwt.fail = true

		rec, env := s.do(t, http.MethodPost, "/api/v1/auth/sign-up", `{"email":"a@example.com","password":"s3cretpass"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "User registered but token could not be issued.", env.Message)
		assert.Equal(t, map[string]any{"id": "1"}, env.Data)
		assert.NotContains(t, rec.Body.String(), "signer down")
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		s := newServer(t)

		rec, _ := s.do(t, http.MethodPost, "/api/v1/auth/sign-up", `{"email":"a@example.com","password":"s3cretpass","admin":true}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		s := newServer(t)

		rec, env := s.do(t, http.MethodPost, "/api/v1/auth/sign-up", `{"email":"nope","password":"x"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, env.Error, "email")
		assert.Contains(t, env.Error, "password")
	})
}

func TestHTTPEndpoint_Login(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"a@example.com","password":"s3cretpass"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found.", env.Message)

	s.do(t, http.MethodPost, "/api/v1/auth/sign-up", `{"email":"a@example.com","password":"s3cretpass"}`)

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"a@example.com","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid password.", env.Message)

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"a@example.com","password":"s3cretpass"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful.", env.Message)
	assert.Equal(t, "tkn", env.Data["token"])
}

func TestHTTPEndpoint_PasswordForgot_Idempotent(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	s.do(t, http.MethodPost, "/api/v1/auth/sign-up", `{"email":"a@example.com","password":"s3cretpass"}`)

	body := `{"email":"a@example.com"}`
	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/forgot-password", body, router.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OTP has been sent to your email.", env.Message)
	assert.Equal(t, map[string]any{"user_id": "1"}, env.Data)

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/forgot-password", body, router.HeaderIdempotencyKey, "k-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(router.HeaderIdempotentReplayed))
	assert.Equal(t, "OTP has been sent to your email.", env.Message)
	assert.Equal(t, 1, s.notifier.calls)

	s.do(t, http.MethodPost, "/api/v1/auth/forgot-password", body)
	assert.Equal(t, 2, s.notifier.calls)
}

func TestHTTPEndpoint_OTP(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	s.do(t, http.MethodPost, "/api/v1/auth/sign-up", `{"email":"a@example.com","password":"s3cretpass"}`)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/verify-otp", `{"user_id":"1","otp_code":"123456"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No valid OTP found.", env.Message)

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/verify-otp", `{"otp_code":"12"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error, "user_id")
	assert.Contains(t, env.Error, "otp_code")

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/resend-otp", `{"user_id":"1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OTP has been resent to your email.", env.Message)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/resend-otp", `{"user_id":"99"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/reset-password", `{"user_id":"1","otp_code":"123456","new_password":"n3wpassword"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No valid OTP found.", env.Message)
}

func TestHTTPEndpoint_Profile(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	s.do(t, http.MethodPost, "/api/v1/auth/sign-up", `{"email":"a@example.com","password":"s3cretpass"}`)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/api/v1/auth/me", "", "Authorization", "Bearer tkn")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"id": "1", "email": "a@example.com"}, env.Data)
}
