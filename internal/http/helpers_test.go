package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ashisharjun12/devfinder-final/internal/authz"
	"github.com/Ashisharjun12/devfinder-final/internal/domain"
	"github.com/Ashisharjun12/devfinder-final/internal/events"
	api "github.com/Ashisharjun12/devfinder-final/internal/http"
	"github.com/Ashisharjun12/devfinder-final/internal/oauth"
	"github.com/Ashisharjun12/devfinder-final/internal/project"
	"github.com/Ashisharjun12/devfinder-final/internal/queue"
	"github.com/Ashisharjun12/devfinder-final/internal/realtime"
	"github.com/Ashisharjun12/devfinder-final/internal/repo"
	"github.com/Ashisharjun12/devfinder-final/internal/security"
)

const testSecret = "test-secret"

// stubGoogle signs states with a fixed key and maps codes to users.
type stubGoogle struct {
	*oauth.GoogleOAuth
	users map[string]*oauth.GoogleUser
}

func (s *stubGoogle) Exchange(_ context.Context, code string) (*oauth.GoogleUser, error) {
	if u, ok := s.users[code]; ok {
		return u, nil
	}
	return nil, errors.New("bad code")
}

type testEnv struct {
	T       *testing.T
	Ctx     context.Context
	Store   *repo.Memory
	Hub     *realtime.Hub
	Handler *api.Handler
	Router  *gin.Engine
	Google  *stubGoogle
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	gin.SetMode(gin.TestMode)

	store := repo.NewMemory()
	enf, err := authz.NewEnforcer()
	if err != nil {
		t.Fatal(err)
	}
	hub := realtime.NewHub()
	svc := project.NewService(store, store, enf,
		project.WithNotifier(events.NewDispatcher(queue.NewNoop(), "devfinder.events", hub)),
	)

	h := api.NewHandler(svc, store, testSecret, time.Hour)
	h.Hub = hub
	g := &stubGoogle{
		GoogleOAuth: oauth.NewGoogle("cid", "sec", "http://localhost/auth/google/callback", "state-key"),
		users:       map[string]*oauth.GoogleUser{},
	}
	h.Google = g

	return &testEnv{T: t, Ctx: ctx, Store: store, Hub: hub, Handler: h, Router: api.NewRouter(h), Google: g}
}

// user creates an account and returns a bearer header for it.
func (e *testEnv) user(email, name string) (*domain.User, map[string]string) {
	e.T.Helper()
	u, err := e.Store.UpsertOAuthUser(e.Ctx, email, name, "")
	if err != nil {
		e.T.Fatal(err)
	}
	tok, err := security.MakeSession(testSecret, u.ID.Hex(), u.Email, time.Hour)
	if err != nil {
		e.T.Fatal(err)
	}
	return u, map[string]string{"Authorization": "Bearer " + tok}
}

func (e *testEnv) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v; body=%s", v, err, w.Body.String())
	}
	return v
}

type projectResp struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Stage              string `json:"stage"`
	RequiredSkills     []string
	ConnectionRequests []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"connectionRequests"`
	Members []struct {
		Role string `json:"role"`
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	} `json:"members"`
	Owner struct {
		Email string `json:"email"`
	} `json:"owner"`
}

func (e *testEnv) createProject(hdr map[string]string, body string) projectResp {
	e.T.Helper()
	w := e.do("POST", "/projects", body, hdr)
	if w.Code != 201 {
		e.T.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	return decode[projectResp](e.T, w)
}
