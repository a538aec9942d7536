package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ashisharjun12/devfinder-final/internal/domain"
	api "github.com/Ashisharjun12/devfinder-final/internal/http"
	"github.com/Ashisharjun12/devfinder-final/internal/oauth"
	"github.com/Ashisharjun12/devfinder-final/internal/ratelimit"
)

func Test_Health_And_Auth_Required(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do("GET", "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
	w := env.do("POST", "/projects", `{"title":"x","description":"y"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error"`) {
		t.Fatalf("error body: %s", w.Body.String())
	}
	w = env.do("GET", "/me", "", map[string]string{"Authorization": "Bearer garbage"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id not echoed")
	}
}

func Test_Project_CRUD(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.user("owner@example.com", "Owner")
	_, other := env.user("other@example.com", "Other")

	p := env.createProject(owner, `{"title":"Foo","description":"A thing","requiredSkills":["React"],"githubUrl":"https://github.com/acme/foo"}`)
	if p.Stage != "OPEN" || p.Owner.Email != "owner@example.com" || len(p.Members) != 1 || p.Members[0].Role != "OWNER" {
		t.Fatalf("created: %+v", p)
	}

	if w := env.do("GET", "/projects/"+p.ID, "", nil); w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}
	if w := env.do("GET", "/projects/not-an-id", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("get malformed: %d", w.Code)
	}

	w := env.do("PUT", "/projects/"+p.ID, `{"title":"Nope"}`, other)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-owner update: %d", w.Code)
	}
	w = env.do("PUT", "/projects/"+p.ID, `{"stage":"SHIPPED"}`, owner)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown stage: %d %s", w.Code, w.Body.String())
	}
	w = env.do("PUT", "/projects/"+p.ID, `{"stage":"IN_PROGRESS","title":"Foo 2"}`, owner)
	if w.Code != http.StatusOK {
		t.Fatalf("owner update: %d %s", w.Code, w.Body.String())
	}
	if got := decode[projectResp](t, w); got.Stage != "IN_PROGRESS" || got.Title != "Foo 2" {
		t.Fatalf("updated: %+v", got)
	}

	w = env.do("DELETE", "/projects/"+p.ID, "", other)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-owner delete: %d", w.Code)
	}
	if w := env.do("GET", "/projects/"+p.ID, "", nil); w.Code != http.StatusOK {
		t.Fatalf("project gone after forbidden delete: %d", w.Code)
	}
	if w := env.do("DELETE", "/projects/"+p.ID, "", owner); w.Code != http.StatusNoContent {
		t.Fatalf("owner delete: %d", w.Code)
	}
	if w := env.do("GET", "/projects/"+p.ID, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("after delete: %d", w.Code)
	}
}

func Test_Create_Validation(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.user("owner@example.com", "Owner")

	bad := []string{
		``,
		`{not json`,
		`{"title":"only title"}`,
		`{"title":5,"description":"d"}`,
		`{"title":"t","description":"d","githubUrl":"https://example.com/x"}`,
		`{"title":"t","description":"d","requiredSkills":"React"}`,
	}
	for _, body := range bad {
		if w := env.do("POST", "/projects", body, owner); w.Code != http.StatusBadRequest {
			t.Errorf("body %q: %d %s", body, w.Code, w.Body.String())
		}
	}
}

func Test_Search(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.user("owner@example.com", "Owner")
	env.createProject(owner, `{"title":"Foo","description":"d","requiredSkills":["React"]}`)
	env.createProject(owner, `{"title":"Bar","description":"d","requiredSkills":["Vue"]}`)

	w := env.do("GET", "/projects?tech=React", "", nil)
	got := decode[[]projectResp](t, w)
	if len(got) != 1 || got[0].Title != "Foo" {
		t.Fatalf("tech=React: %+v", got)
	}
	got = decode[[]projectResp](t, env.do("GET", "/projects?query=foo", "", nil))
	if len(got) != 1 || got[0].Title != "Foo" {
		t.Fatalf("query=foo: %+v", got)
	}
	got = decode[[]projectResp](t, env.do("GET", "/projects?query=%20foo%20&tech=%20react", "", nil))
	if len(got) != 1 || got[0].Title != "Foo" {
		t.Fatalf("padded query: %+v", got)
	}
	got = decode[[]projectResp](t, env.do("GET", "/projects?owner=nobody@example.com", "", nil))
	if len(got) != 0 {
		t.Fatalf("unknown owner: %+v", got)
	}
	if w := env.do("GET", "/projects?owner=nobody@example.com", "", nil); strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("empty list must render as []: %s", w.Body.String())
	}
}

func Test_Connect_Workflow(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.user("owner@example.com", "Owner")
	alice, aliceHdr := env.user("alice@example.com", "Alice")
	_, bob := env.user("bob@example.com", "Bob")
	p := env.createProject(owner, `{"title":"Foo","description":"d"}`)
	connect := "/projects/" + p.ID + "/connect"

	type status struct{ Status, Message string }

	if s := decode[status](t, env.do("GET", connect, "", owner)); s.Status != "MEMBER" {
		t.Fatalf("owner status: %+v", s)
	}
	if w := env.do("POST", connect, "", owner); w.Code != http.StatusBadRequest {
		t.Fatalf("owner request: %d", w.Code)
	}
	if s := decode[status](t, env.do("GET", connect, "", aliceHdr)); s.Status != "NOT_REQUESTED" {
		t.Fatalf("alice before: %+v", s)
	}

	w := env.do("POST", connect, "", aliceHdr)
	if w.Code != http.StatusOK || decode[status](t, w).Status != "PENDING" {
		t.Fatalf("alice request: %d %s", w.Code, w.Body.String())
	}
	w = env.do("POST", connect, `{"message":"again"}`, aliceHdr)
	if s := decode[status](t, w); s.Status != "PENDING" || !strings.Contains(s.Message, "already") {
		t.Fatalf("duplicate: %+v", s)
	}

	got := decode[projectResp](t, env.do("GET", "/projects/"+p.ID, "", nil))
	if len(got.ConnectionRequests) != 1 {
		t.Fatalf("requests=%d", len(got.ConnectionRequests))
	}
	rid := got.ConnectionRequests[0].ID

	w = env.do("PUT", connect, `{"requestId":"`+rid+`","action":"ACCEPT"}`, bob)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-owner resolve: %d", w.Code)
	}
	w = env.do("PUT", connect, `{"requestId":"`+rid+`","action":"MAYBE"}`, owner)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad action: %d", w.Code)
	}
	w = env.do("PUT", connect, `{"requestId":"000000000000000000000000","action":"ACCEPT"}`, owner)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown request: %d", w.Code)
	}
	w = env.do("PUT", connect, `{"requestId":"`+rid+`","action":"ACCEPT"}`, owner)
	if w.Code != http.StatusOK || decode[status](t, w).Status != "ACCEPTED" {
		t.Fatalf("accept: %d %s", w.Code, w.Body.String())
	}
	w = env.do("PUT", connect, `{"requestId":"`+rid+`","action":"REJECT"}`, owner)
	if w.Code != http.StatusConflict {
		t.Fatalf("second resolve: %d", w.Code)
	}

	got = decode[projectResp](t, env.do("GET", "/projects/"+p.ID, "", nil))
	n := 0
	for _, m := range got.Members {
		if m.User.ID == alice.ID.Hex() {
			n++
		}
	}
	if n != 1 || got.ConnectionRequests[0].Status != "ACCEPTED" {
		t.Fatalf("after accept: members with alice=%d request=%+v", n, got.ConnectionRequests[0])
	}
	if s := decode[status](t, env.do("GET", connect, "", aliceHdr)); s.Status != "MEMBER" {
		t.Fatalf("alice after: %+v", s)
	}
}

func Test_Profile(t *testing.T) {
	env := newTestEnv(t)
	u, hdr := env.user("dev@example.com", "Dev")
	_, other := env.user("other@example.com", "Other")

	type prof struct {
		Name   string
		Email  string
		Image  string
		Bio    string
		Skills []string
	}
	me := decode[prof](t, env.do("GET", "/me", "", hdr))
	if me.Email != "dev@example.com" || !strings.HasPrefix(me.Image, "https://www.gravatar.com/avatar/") {
		t.Fatalf("me: %+v", me)
	}

	w := env.do("PUT", "/me", `{"bio":" Gopher ","skills":["Go"," ","Mongo"]}`, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("update me: %d %s", w.Code, w.Body.String())
	}
	me = decode[prof](t, w)
	if me.Bio != "Gopher" || len(me.Skills) != 2 || me.Name != "Dev" {
		t.Fatalf("updated: %+v", me)
	}

	pub := decode[prof](t, env.do("GET", "/users/"+u.ID.Hex(), "", other))
	if pub.Name != "Dev" || pub.Email != "" {
		t.Fatalf("public profile: %+v", pub)
	}
	if w := env.do("GET", "/users/000000000000000000000000", "", other); w.Code != http.StatusNotFound {
		t.Fatalf("unknown user: %d", w.Code)
	}
}

func Test_Google_SignIn(t *testing.T) {
	env := newTestEnv(t)
	env.Google.users["good-code"] = &oauth.GoogleUser{Sub: "1", Email: "New@Example.com", Name: "New Dev"}

	w := env.do("GET", "/auth/google/login", "", nil)
	if w.Code != http.StatusFound || !strings.Contains(w.Header().Get("Location"), "accounts.google.com") {
		t.Fatalf("login redirect: %d %s", w.Code, w.Header().Get("Location"))
	}
	var state string
	for _, c := range w.Result().Cookies() {
		if c.Name == "devfinder_oauth_state" {
			state = c.Value
		}
	}
	if state == "" {
		t.Fatal("state cookie not set")
	}
	stateCookie := map[string]string{"Cookie": "devfinder_oauth_state=" + state}

	w = env.do("GET", "/auth/google/callback?code=good-code&state=forged.sig", "", stateCookie)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("forged state: %d", w.Code)
	}
	w = env.do("GET", "/auth/google/callback?code=bad&state="+state, "", stateCookie)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad code: %d", w.Code)
	}

	w = env.do("GET", "/auth/google/callback?code=good-code&state="+state, "", stateCookie)
	if w.Code != http.StatusOK {
		t.Fatalf("callback: %d %s", w.Code, w.Body.String())
	}
	var session string
	for _, c := range w.Result().Cookies() {
		if c.Name == "devfinder_session" {
			session = c.Value
		}
	}
	if session == "" {
		t.Fatal("session cookie not set")
	}

	w = env.do("GET", "/me", "", map[string]string{"Cookie": "devfinder_session=" + session})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "new@example.com") {
		t.Fatalf("me via cookie: %d %s", w.Code, w.Body.String())
	}

	if w := env.do("POST", "/auth/logout", "", nil); w.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", w.Code)
	}
}

func Test_Project_Events_Stream(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.user("owner@example.com", "Owner")
	_, alice := env.user("alice@example.com", "Alice")
	p := env.createProject(owner, `{"title":"Foo","description":"d"}`)

	if w := env.do("GET", "/projects/"+p.ID+"/events", "", alice); w.Code != http.StatusForbidden {
		t.Fatalf("non-member stream: %d", w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/projects/"+p.ID+"/events", nil)
	req.Header.Set("Authorization", owner["Authorization"])
	done := make(chan struct{})
	go func() {
		env.Router.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for env.Hub.RoomSize(p.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	env.Hub.Broadcast(p.ID, domain.Event{Type: domain.EventConnectionRequested, ProjectID: p.ID})
	env.Hub.CloseRoom(p.ID)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after room closed")
	}
	body := w.Body.String()
	if !strings.Contains(body, "event:connection.requested") {
		t.Fatalf("sse body: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type: %s", ct)
	}
}

func Test_Rate_Limit(t *testing.T) {
	env := newTestEnv(t)
	lim := ratelimit.NewMemoryStore(60, 1, ratelimit.WithSweepEvery(0))
	t.Cleanup(lim.Stop)
	env.Handler.Limiter = lim
	env.Router = api.NewRouter(env.Handler)
	_, owner := env.user("owner@example.com", "Owner")

	env.createProject(owner, `{"title":"Foo","description":"d"}`)
	w := env.do("POST", "/projects", `{"title":"Bar","description":"d"}`, owner)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second create: %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}
	if w := env.do("GET", "/projects", "", nil); w.Code != http.StatusOK {
		t.Fatalf("reads are not limited: %d", w.Code)
	}
}

type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func Test_Request_Body_Limits(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.user("owner@example.com", "Owner")

	huge := `{"title":"t","description":"` + strings.Repeat("x", 70<<10) + `"}`
	w := env.do("POST", "/projects", huge, owner)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "too large") {
		t.Fatalf("oversized body: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/projects", failingBody{})
	req.Header.Set("Authorization", owner["Authorization"])
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unreadable body: %d %s", w.Code, w.Body.String())
	}
}

func Test_Update_Clears_Optional_Links(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.user("owner@example.com", "Owner")
	p := env.createProject(owner, `{"title":"Foo","description":"d","githubUrl":"https://github.com/acme/foo"}`)

	if w := env.do("PUT", "/projects/"+p.ID, `{"githubUrl":null}`, owner); w.Code != http.StatusBadRequest {
		t.Fatalf("null githubUrl: %d %s", w.Code, w.Body.String())
	}
	w := env.do("PUT", "/projects/"+p.ID, `{"githubUrl":""}`, owner)
	if w.Code != http.StatusOK {
		t.Fatalf("clear githubUrl: %d %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "githubUrl") {
		t.Fatalf("githubUrl still set: %s", w.Body.String())
	}
}

func Test_SignIn_Not_Configured(t *testing.T) {
	env := newTestEnv(t)
	env.Handler.Google = nil
	env.Router = api.NewRouter(env.Handler)

	for _, path := range []string{"/auth/google/login", "/auth/google/callback?code=c&state=s"} {
		w := env.do("GET", path, "", nil)
		if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "sign-in is not configured") {
			t.Fatalf("%s: %d %s", path, w.Code, w.Body.String())
		}
	}
}
