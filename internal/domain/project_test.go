package domain

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanMoveTo(t *testing.T) {
	cases := []struct {
		from, to Stage
		want     bool
	}{
		{StageOpen, StageInProgress, true},
		{StageOpen, StageCompleted, true},
		{StageInProgress, StageOpen, false},
		{StageCompleted, StageOpen, false},
		{StageCompleted, StageOnHold, false},
		{StageCompleted, StageCompleted, true},
		{StageOnHold, StageOpen, true},
		{StageInProgress, StageOnHold, true},
		{StageOpen, Stage("SHIPPED"), false},
	}
	for _, c := range cases {
		if got := c.from.CanMoveTo(c.to); got != c.want {
			t.Errorf("%s -> %s: got %v", c.from, c.to, got)
		}
	}
}

func TestConnectionStatusFor(t *testing.T) {
	owner, alice, bob, carol := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	p := &Project{
		OwnerID: owner,
		Members: []Member{{UserID: owner, Role: RoleOwner}, {UserID: alice, Role: RoleMember}},
		ConnectionRequests: []ConnectionRequest{
			{ID: primitive.NewObjectID(), UserID: alice, Status: RequestAccepted},
			{ID: primitive.NewObjectID(), UserID: bob, Status: RequestRejected},
		},
	}
	if got := p.ConnectionStatusFor(alice); got != StatusMember {
		t.Fatalf("member wins over request: %s", got)
	}
	if got := p.ConnectionStatusFor(bob); got != StatusRejected {
		t.Fatalf("bob: %s", got)
	}
	if got := p.ConnectionStatusFor(carol); got != StatusNotRequested {
		t.Fatalf("carol: %s", got)
	}
	if !p.IsOwner(owner) || p.IsOwner(primitive.NilObjectID) {
		t.Fatal("IsOwner")
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := &Project{
		RequiredSkills:     []string{"Go"},
		Members:            []Member{{Role: RoleOwner}},
		ConnectionRequests: []ConnectionRequest{{Status: RequestPending}},
	}
	cp := p.Clone()
	cp.RequiredSkills[0] = "Rust"
	cp.Members[0].Role = RoleMember
	cp.ConnectionRequests[0].Status = RequestAccepted
	if p.RequiredSkills[0] != "Go" || p.Members[0].Role != RoleOwner || p.ConnectionRequests[0].Status != RequestPending {
		t.Fatalf("clone shares backing arrays: %+v", p)
	}
}

func TestPatchApply(t *testing.T) {
	if !(ProjectPatch{}).Empty() {
		t.Fatal("zero patch must be empty")
	}
	title, stage := "New", StageCompleted
	p := &Project{Title: "Old", Description: "keep", Stage: StageOpen}
	ProjectPatch{Title: &title, Stage: &stage}.Apply(p)
	if p.Title != "New" || p.Stage != StageCompleted || p.Description != "keep" {
		t.Fatalf("apply: %+v", p)
	}
}

func TestSearchMatch(t *testing.T) {
	owner := primitive.NewObjectID()
	p := &Project{
		OwnerID:        owner,
		Title:          "Foo Tracker",
		Description:    "tracks foos",
		GithubURL:      "https://github.com/acme/foo",
		RequiredSkills: []string{"React", "Node.js"},
	}
	other := primitive.NewObjectID()
	cases := []struct {
		name string
		c    SearchCriteria
		want bool
	}{
		{"empty", SearchCriteria{}, true},
		{"title", SearchCriteria{Query: "TRACKER"}, true},
		{"github", SearchCriteria{Query: "acme"}, true},
		{"miss", SearchCriteria{Query: "bar"}, false},
		{"tech all", SearchCriteria{Tech: []string{"react", "node"}}, true},
		{"tech one missing", SearchCriteria{Tech: []string{"react", "vue"}}, false},
		{"owner", SearchCriteria{OwnerID: &owner}, true},
		{"other owner", SearchCriteria{OwnerID: &other}, false},
	}
	for _, c := range cases {
		if got := c.c.Match(p); got != c.want {
			t.Errorf("%s: got %v", c.name, got)
		}
	}
}

func TestParseTech(t *testing.T) {
	got := ParseTech(" React, ,Go,")
	if len(got) != 2 || got[0] != "React" || got[1] != "Go" {
		t.Fatalf("got %q", got)
	}
	if ParseTech("") != nil {
		t.Fatal("empty input must give nil")
	}
}

func TestAvatar(t *testing.T) {
	if GravatarURL("  ") != "" {
		t.Fatal("blank email")
	}
	a, b := GravatarURL("Dev@Example.com "), GravatarURL("dev@example.com")
	if a != b || !strings.HasSuffix(a, "?d=mp") {
		t.Fatalf("gravatar not normalized: %s %s", a, b)
	}
	u := &User{Email: "dev@example.com", Image: "https://img/x.png"}
	if u.AvatarURL() != "https://img/x.png" {
		t.Fatal("provider image must win")
	}
	u.Image = ""
	if s := u.Summary(); s.Image != b {
		t.Fatalf("summary image: %s", s.Image)
	}
}
