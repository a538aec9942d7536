// Package project holds the project listing rules and the connection request workflow.
// It depends on storage through the Store and Users interfaces, implemented by
// repo.Store (MongoDB) and repo.Memory.
package project

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Ashisharjun12/devfinder-final/internal/apperr"
	"github.com/Ashisharjun12/devfinder-final/internal/authz"
	"github.com/Ashisharjun12/devfinder-final/internal/domain"
	"github.com/Ashisharjun12/devfinder-final/internal/log"
	"github.com/Ashisharjun12/devfinder-final/internal/repo"
)

type Store interface {
	CreateProject(ctx context.Context, p *domain.Project) error
	FindProjectByID(ctx context.Context, id primitive.ObjectID) (*domain.Project, error)
	SearchProjects(ctx context.Context, c domain.SearchCriteria) ([]domain.Project, error)
	UpdateProject(ctx context.Context, id primitive.ObjectID, patch domain.ProjectPatch) (*domain.Project, error)
	DeleteProject(ctx context.Context, id primitive.ObjectID) error
	PushConnectionRequest(ctx context.Context, projectID primitive.ObjectID, req domain.ConnectionRequest) (bool, error)
	ResolveConnectionRequest(ctx context.Context, projectID, requestID primitive.ObjectID, status domain.RequestStatus, member *domain.Member) error
}

type Users interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	AddProjectToUser(ctx context.Context, userID, projectID primitive.ObjectID) error
	PullProjectFromUsers(ctx context.Context, projectID primitive.ObjectID) error
}

// Notifier is told about every persisted state change.
type Notifier interface {
	Notify(ctx context.Context, ev domain.Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Event) {}

// Principal is the authenticated caller.
type Principal struct {
	UID   primitive.ObjectID
	Email string
}

type Service struct {
	store       Store
	users       Users
	authz       *authz.Enforcer
	notifier    Notifier
	strictStage bool
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithStrictStage enforces forward-only stage changes on update.
func WithStrictStage(on bool) Option {
	return func(s *Service) { s.strictStage = on }
}

func NewService(store Store, users Users, enf *authz.Enforcer, opts ...Option) *Service {
	s := &Service{store: store, users: users, authz: enf, notifier: nopNotifier{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ParseID turns a path id into an ObjectID; malformed ids read as not found.
func ParseID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound(what + " not found")
	}
	return id, nil
}

// storeErr maps repository sentinels into the error taxonomy.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, repo.ErrConflict):
		return apperr.New(apperr.KindConflict, what+" changed concurrently", err)
	}
	return apperr.Internal(err)
}

type CreateInput struct {
	Title          string
	Description    string
	RequiredSkills []string
	Stage          string
	GithubURL      string
	WhatsappNumber string
}

func (s *Service) Create(ctx context.Context, pr Principal, in CreateInput) (*domain.Project, error) {
	owner, err := s.users.FindUserByID(ctx, pr.UID)
	if err != nil {
		return nil, storeErr(err, "user")
	}

	p := &domain.Project{OwnerID: owner.ID}
	if p.Title, err = cleanTitle(in.Title); err != nil {
		return nil, err
	}
	if p.Description, err = cleanDescription(in.Description); err != nil {
		return nil, err
	}
	if p.RequiredSkills, err = cleanSkills(in.RequiredSkills); err != nil {
		return nil, err
	}
	if p.Stage, err = parseStage(in.Stage, domain.StageOpen); err != nil {
		return nil, err
	}
	if p.GithubURL, err = cleanGithubURL(in.GithubURL); err != nil {
		return nil, err
	}
	if p.WhatsappNumber, err = cleanWhatsapp(in.WhatsappNumber); err != nil {
		return nil, err
	}
	p.Members = []domain.Member{{UserID: owner.ID, Role: domain.RoleOwner, JoinedAt: time.Now().UTC()}}
	p.ConnectionRequests = []domain.ConnectionRequest{}

	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, storeErr(err, "project")
	}
	if err := s.users.AddProjectToUser(ctx, owner.ID, p.ID); err != nil {
		log.Ctx(ctx).Error("add project to owner", zap.String("project_id", p.ID.Hex()), zap.Error(err))
	}

	s.notifier.Notify(ctx, domain.Event{
		Type: domain.EventProjectCreated, ProjectID: p.ID.Hex(), Title: p.Title,
		OwnerEmail: owner.Email, UserID: owner.ID.Hex(), At: p.CreatedAt,
	})
	s.populate(ctx, p)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*domain.Project, error) {
	p, err := s.store.FindProjectByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "project")
	}
	s.populate(ctx, p)
	return p, nil
}

type ListFilter struct {
	Query      string
	Tech       []string
	OwnerEmail string
}

// List returns projects newest first. An owner email with no account yields no projects.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Project, error) {
	c := domain.SearchCriteria{Query: strings.TrimSpace(f.Query), Tech: f.Tech}
	if email := domain.NormalizeEmail(f.OwnerEmail); email != "" {
		u, err := s.users.FindUserByEmail(ctx, email)
		if errors.Is(err, repo.ErrNotFound) {
			return []domain.Project{}, nil
		}
		if err != nil {
			return nil, apperr.Internal(err)
		}
		c.OwnerID = &u.ID
	}
	out, err := s.store.SearchProjects(ctx, c)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if out == nil {
		out = []domain.Project{}
	}
	ptrs := make([]*domain.Project, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	s.populate(ctx, ptrs...)
	return out, nil
}

type UpdateInput struct {
	Title          *string
	Description    *string
	RequiredSkills *[]string
	Stage          *string
	GithubURL      *string
	WhatsappNumber *string
}

func (s *Service) Update(ctx context.Context, pr Principal, id primitive.ObjectID, in UpdateInput) (*domain.Project, error) {
	cur, err := s.loadFor(ctx, pr, id, authz.ActUpdate, "only the owner can update this project")
	if err != nil {
		return nil, err
	}

	var patch domain.ProjectPatch
	if in.Title != nil {
		v, err := cleanTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &v
	}
	if in.Description != nil {
		v, err := cleanDescription(*in.Description)
		if err != nil {
			return nil, err
		}
		patch.Description = &v
	}
	if in.RequiredSkills != nil {
		v, err := cleanSkills(*in.RequiredSkills)
		if err != nil {
			return nil, err
		}
		patch.RequiredSkills = &v
	}
	if in.Stage != nil {
		v, err := parseStage(*in.Stage, cur.Stage)
		if err != nil {
			return nil, err
		}
		if s.strictStage && !cur.Stage.CanMoveTo(v) {
			return nil, apperr.Validation("cannot move stage from " + string(cur.Stage) + " to " + string(v))
		}
		patch.Stage = &v
	}
	if in.GithubURL != nil {
		v, err := cleanGithubURL(*in.GithubURL)
		if err != nil {
			return nil, err
		}
		patch.GithubURL = &v
	}
	if in.WhatsappNumber != nil {
		v, err := cleanWhatsapp(*in.WhatsappNumber)
		if err != nil {
			return nil, err
		}
		patch.WhatsappNumber = &v
	}
	if patch.Empty() {
		return cur, nil
	}

	p, err := s.store.UpdateProject(ctx, id, patch)
	if err != nil {
		return nil, storeErr(err, "project")
	}
	s.notifier.Notify(ctx, domain.Event{
		Type: domain.EventProjectUpdated, ProjectID: p.ID.Hex(), Title: p.Title,
		UserID: pr.UID.Hex(), UserEmail: pr.Email, Status: string(p.Stage), At: p.UpdatedAt,
	})
	s.populate(ctx, p)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, pr Principal, id primitive.ObjectID) error {
	p, err := s.loadFor(ctx, pr, id, authz.ActDelete, "only the owner can delete this project")
	if err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return storeErr(err, "project")
	}
	if err := s.users.PullProjectFromUsers(ctx, id); err != nil {
		log.Ctx(ctx).Error("pull deleted project from users", zap.String("project_id", id.Hex()), zap.Error(err))
	}
	s.notifier.Notify(ctx, domain.Event{
		Type: domain.EventProjectDeleted, ProjectID: id.Hex(), Title: p.Title,
		UserID: pr.UID.Hex(), UserEmail: pr.Email, At: time.Now().UTC(),
	})
	return nil
}

// CanStream reports whether pr may follow the project's event stream.
func (s *Service) CanStream(ctx context.Context, pr Principal, id primitive.ObjectID) error {
	_, err := s.loadFor(ctx, pr, id, authz.ActEvents, "only the owner and members can follow this project")
	return err
}

// loadFor reads the project with its owner populated and checks act against the policy.
func (s *Service) loadFor(ctx context.Context, pr Principal, id primitive.ObjectID, act, denied string) (*domain.Project, error) {
	p, err := s.store.FindProjectByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "project")
	}
	s.populate(ctx, p)
	ok, err := s.authz.Can(p, pr.UID, pr.Email, act)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Forbidden(denied)
	}
	return p, nil
}

// populate fills owner, member and requester summaries with one user lookup. Lookup
// failures leave the references unpopulated.
func (s *Service) populate(ctx context.Context, ps ...*domain.Project) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if !id.IsZero() && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, p := range ps {
		add(p.OwnerID)
		for _, m := range p.Members {
			add(m.UserID)
		}
		for _, r := range p.ConnectionRequests {
			add(r.UserID)
		}
	}
	if len(ids) == 0 {
		return
	}
	users, err := s.users.FindUsersByIDs(ctx, ids)
	if err != nil {
		log.Ctx(ctx).Warn("populate users", zap.Error(err))
		return
	}
	byID := make(map[primitive.ObjectID]domain.UserSummary, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Summary()
	}
	ref := func(id primitive.ObjectID) *domain.UserSummary {
		if u, ok := byID[id]; ok {
			return &u
		}
		return nil
	}
	for _, p := range ps {
		p.Owner = ref(p.OwnerID)
		for i := range p.Members {
			p.Members[i].User = ref(p.Members[i].UserID)
		}
		for i := range p.ConnectionRequests {
			p.ConnectionRequests[i].User = ref(p.ConnectionRequests[i].UserID)
		}
	}
}
