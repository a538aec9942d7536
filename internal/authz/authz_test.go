package authz_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Ashisharjun12/devfinder-final/internal/authz"
	"github.com/Ashisharjun12/devfinder-final/internal/domain"
)

func TestPolicy(t *testing.T) {
	e, err := authz.NewEnforcer()
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		role, act string
		want      bool
	}{
		{authz.RoleOwner, authz.ActUpdate, true},
		{authz.RoleOwner, authz.ActDelete, true},
		{authz.RoleOwner, authz.ActResolve, true},
		{authz.RoleOwner, authz.ActRequest, false},
		{authz.RoleMember, authz.ActRead, true},
		{authz.RoleMember, authz.ActEvents, true},
		{authz.RoleMember, authz.ActUpdate, false},
		{authz.RoleMember, authz.ActResolve, false},
		{authz.RoleUser, authz.ActRead, true},
		{authz.RoleUser, authz.ActRequest, true},
		{authz.RoleUser, authz.ActDelete, false},
		{authz.RoleUser, authz.ActEvents, false},
	}
	for _, c := range cases {
		got, err := e.Allow(c.role, authz.ObjProject, c.act)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("%s %s: got %v want %v", c.role, c.act, got, c.want)
		}
	}
}

func TestRoleFor(t *testing.T) {
	owner, member, other := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	p := &domain.Project{
		OwnerID: owner,
		Owner:   &domain.UserSummary{ID: owner, Email: "Owner@Example.com"},
		Members: []domain.Member{
			{UserID: owner, Role: domain.RoleOwner},
			{UserID: member, Role: domain.RoleMember},
		},
	}
	if r := authz.RoleFor(p, owner, ""); r != authz.RoleOwner {
		t.Fatalf("owner by id: %s", r)
	}
	if r := authz.RoleFor(p, other, "owner@example.com"); r != authz.RoleOwner {
		t.Fatalf("owner by email: %s", r)
	}
	if r := authz.RoleFor(p, member, "m@example.com"); r != authz.RoleMember {
		t.Fatalf("member: %s", r)
	}
	if r := authz.RoleFor(p, other, "x@example.com"); r != authz.RoleUser {
		t.Fatalf("user: %s", r)
	}
}
