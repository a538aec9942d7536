package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Ashisharjun12/devfinder-final/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process store with the same conditional-update semantics as Store.
// It backs STORE=memory local runs and the service and handler tests.
type Memory struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]*domain.User
	projects map[primitive.ObjectID]*domain.Project
}

func NewMemory() *Memory {
	return &Memory{
		users:    map[primitive.ObjectID]*domain.User{},
		projects: map[primitive.ObjectID]*domain.Project{},
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	cp.Skills = append([]string(nil), u.Skills...)
	cp.Languages = append([]string(nil), u.Languages...)
	cp.Projects = append([]primitive.ObjectID(nil), u.Projects...)
	return &cp
}

func (m *Memory) UpsertOAuthUser(_ context.Context, email, name, image string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			if u.Name == "" {
				u.Name = name
			}
			if u.Image == "" {
				u.Image = image
			}
			return cloneUser(u), nil
		}
	}
	u := &domain.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Name:      name,
		Image:     image,
		Skills:    []string{},
		Languages: []string{},
		Projects:  []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}
	m.users[u.ID] = u
	return cloneUser(u), nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUserByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) FindUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *cloneUser(u))
		}
	}
	return out, nil
}

func (m *Memory) UpdateProfile(_ context.Context, id primitive.ObjectID, p UserProfilePatch) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Skills != nil {
		u.Skills = append([]string(nil), (*p.Skills)...)
	}
	if p.Languages != nil {
		u.Languages = append([]string(nil), (*p.Languages)...)
	}
	return cloneUser(u), nil
}

func (m *Memory) AddProjectToUser(_ context.Context, userID, projectID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	for _, id := range u.Projects {
		if id == projectID {
			return nil
		}
	}
	u.Projects = append(u.Projects, projectID)
	return nil
}

func (m *Memory) PullProjectFromUsers(_ context.Context, projectID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		kept := u.Projects[:0]
		for _, id := range u.Projects {
			if id != projectID {
				kept = append(kept, id)
			}
		}
		u.Projects = kept
	}
	return nil
}

func (m *Memory) CreateProject(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.ConnectionRequests == nil {
		p.ConnectionRequests = []domain.ConnectionRequest{}
	}
	m.projects[p.ID] = p.Clone()
	return nil
}

func (m *Memory) FindProjectByID(_ context.Context, id primitive.ObjectID) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) SearchProjects(_ context.Context, c domain.SearchCriteria) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Project{}
	for _, p := range m.projects {
		if c.Match(p) {
			out = append(out, *p.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateProject(_ context.Context, id primitive.ObjectID, patch domain.ProjectPatch) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(p)
	p.UpdatedAt = time.Now().UTC()
	return p.Clone(), nil
}

func (m *Memory) DeleteProject(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *Memory) PushConnectionRequest(_ context.Context, projectID primitive.ObjectID, req domain.ConnectionRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok || p.OwnerID == req.UserID || p.FindMember(req.UserID) != nil || p.FindRequestByUser(req.UserID) != nil {
		return false, nil
	}
	p.ConnectionRequests = append(p.ConnectionRequests, req)
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *Memory) ResolveConnectionRequest(_ context.Context, projectID, requestID primitive.ObjectID, status domain.RequestStatus, member *domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		return ErrConflict
	}
	r := p.FindRequest(requestID)
	if r == nil || r.Status != domain.RequestPending {
		return ErrConflict
	}
	if member != nil && p.FindMember(member.UserID) != nil {
		return ErrConflict
	}
	now := time.Now().UTC()
	r.Status = status
	r.ResolvedAt = &now
	if member != nil {
		p.Members = append(p.Members, *member)
	}
	p.UpdatedAt = now
	return nil
}
