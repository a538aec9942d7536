// Package authz decides what a principal may do on a project. The role is derived per
// project (owner, member, user) and checked against an embedded casbin policy.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Ashisharjun12/devfinder-final/internal/domain"
)

//go:embed model.conf
var modelConf string

//go:embed policy.csv
var policyCSV string

const (
	RoleOwner  = "owner"
	RoleMember = "member"
	RoleUser   = "user"

	ObjProject = "project"

	ActRead    = "read"
	ActUpdate  = "update"
	ActDelete  = "delete"
	ActRequest = "request"
	ActResolve = "resolve"
	ActEvents  = "events"
)

type Enforcer struct {
	e *casbin.Enforcer
}

func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	rules, err := parsePolicy(policyCSV)
	if err != nil {
		return nil, err
	}
	if _, err := e.AddPolicies(rules); err != nil {
		return nil, fmt.Errorf("casbin policy: %w", err)
	}
	return &Enforcer{e: e}, nil
}

// parsePolicy reads "p, sub, obj, act" lines; blanks and # comments are skipped.
func parsePolicy(csv string) ([][]string, error) {
	var rules [][]string
	for n, line := range strings.Split(csv, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) != 4 || parts[0] != "p" {
			return nil, fmt.Errorf("policy line %d: %q", n+1, line)
		}
		rules = append(rules, parts[1:])
	}
	return rules, nil
}

// RoleFor derives the principal's role on p. The owner check is by id or, for
// projects whose owner summary was populated, by email.
func RoleFor(p *domain.Project, uid primitive.ObjectID, email string) string {
	if p.IsOwner(uid) {
		return RoleOwner
	}
	if p.Owner != nil && email != "" && domain.NormalizeEmail(p.Owner.Email) == domain.NormalizeEmail(email) {
		return RoleOwner
	}
	if p.FindMember(uid) != nil {
		return RoleMember
	}
	return RoleUser
}

func (e *Enforcer) Allow(role, obj, act string) (bool, error) {
	return e.e.Enforce(role, obj, act)
}

// Can is Allow with the role derived from p.
func (e *Enforcer) Can(p *domain.Project, uid primitive.ObjectID, email, act string) (bool, error) {
	return e.Allow(RoleFor(p, uid, email), ObjProject, act)
}
