package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Stage string

const (
	StageOpen       Stage = "OPEN"
	StageInProgress Stage = "IN_PROGRESS"
	StageCompleted  Stage = "COMPLETED"
	StageOnHold     Stage = "ON_HOLD"
)

// forward order; ON_HOLD sits outside it
var stageRank = map[Stage]int{StageOpen: 0, StageInProgress: 1, StageCompleted: 2}

func (s Stage) Valid() bool {
	switch s {
	case StageOpen, StageInProgress, StageCompleted, StageOnHold:
		return true
	}
	return false
}

// CanMoveTo reports whether a stage change respects forward ordering.
// COMPLETED is final, ON_HOLD can be entered from and left to any other stage.
func (s Stage) CanMoveTo(next Stage) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	if s == StageCompleted {
		return false
	}
	if s == StageOnHold || next == StageOnHold {
		return true
	}
	return stageRank[next] > stageRank[s]
}

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestAccepted RequestStatus = "ACCEPTED"
	RequestRejected RequestStatus = "REJECTED"
)

// ConnectionStatus is what a user sees for a project: a request status or one of the
// two states outside the request lifecycle.
type ConnectionStatus string

const (
	StatusNotRequested ConnectionStatus = "NOT_REQUESTED"
	StatusPending      ConnectionStatus = "PENDING"
	StatusAccepted     ConnectionStatus = "ACCEPTED"
	StatusRejected     ConnectionStatus = "REJECTED"
	StatusMember       ConnectionStatus = "MEMBER"
)

type Action string

const (
	ActionAccept Action = "ACCEPT"
	ActionReject Action = "REJECT"
)

const DefaultRequestMessage = "Interested in joining the project"

type Member struct {
	UserID   primitive.ObjectID `bson:"user_id"   json:"-"`
	User     *UserSummary       `bson:"-"         json:"user,omitempty"`
	Role     Role               `bson:"role"      json:"role"`
	JoinedAt time.Time          `bson:"joined_at" json:"joinedAt"`
}

type ConnectionRequest struct {
	ID         primitive.ObjectID `bson:"_id"                   json:"id"`
	UserID     primitive.ObjectID `bson:"user_id"               json:"-"`
	User       *UserSummary       `bson:"-"                     json:"user,omitempty"`
	Status     RequestStatus      `bson:"status"                json:"status"`
	Message    string             `bson:"message"               json:"message"`
	CreatedAt  time.Time          `bson:"created_at"            json:"createdAt"`
	ResolvedAt *time.Time         `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`
}

type Project struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty"             json:"id"`
	OwnerID            primitive.ObjectID  `bson:"owner_id"                  json:"-"`
	Owner              *UserSummary        `bson:"-"                         json:"owner,omitempty"`
	Title              string              `bson:"title"                     json:"title"`
	Description        string              `bson:"description"               json:"description"`
	RequiredSkills     []string            `bson:"required_skills"           json:"requiredSkills"`
	GithubURL          string              `bson:"github_url,omitempty"      json:"githubUrl,omitempty"`
	WhatsappNumber     string              `bson:"whatsapp_number,omitempty" json:"whatsappNumber,omitempty"`
	Stage              Stage               `bson:"stage"                     json:"stage"`
	ConnectionRequests []ConnectionRequest `bson:"connection_requests"       json:"connectionRequests"`
	Members            []Member            `bson:"members"                   json:"members"`
	CreatedAt          time.Time           `bson:"created_at"                json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updated_at"                json:"updatedAt"`
}

// ProjectPatch carries a partial update; nil fields are left untouched.
type ProjectPatch struct {
	Title          *string
	Description    *string
	RequiredSkills *[]string
	Stage          *Stage
	GithubURL      *string
	WhatsappNumber *string
}

func (p ProjectPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.RequiredSkills == nil &&
		p.Stage == nil && p.GithubURL == nil && p.WhatsappNumber == nil
}

// Apply writes the patch onto p in place.
func (p ProjectPatch) Apply(pr *Project) {
	if p.Title != nil {
		pr.Title = *p.Title
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.RequiredSkills != nil {
		pr.RequiredSkills = append([]string(nil), (*p.RequiredSkills)...)
	}
	if p.Stage != nil {
		pr.Stage = *p.Stage
	}
	if p.GithubURL != nil {
		pr.GithubURL = *p.GithubURL
	}
	if p.WhatsappNumber != nil {
		pr.WhatsappNumber = *p.WhatsappNumber
	}
}

func (p *Project) IsOwner(uid primitive.ObjectID) bool {
	return !uid.IsZero() && p.OwnerID == uid
}

func (p *Project) FindMember(uid primitive.ObjectID) *Member {
	for i := range p.Members {
		if p.Members[i].UserID == uid {
			return &p.Members[i]
		}
	}
	return nil
}

func (p *Project) FindRequestByUser(uid primitive.ObjectID) *ConnectionRequest {
	for i := range p.ConnectionRequests {
		if p.ConnectionRequests[i].UserID == uid {
			return &p.ConnectionRequests[i]
		}
	}
	return nil
}

func (p *Project) FindRequest(id primitive.ObjectID) *ConnectionRequest {
	for i := range p.ConnectionRequests {
		if p.ConnectionRequests[i].ID == id {
			return &p.ConnectionRequests[i]
		}
	}
	return nil
}

// ConnectionStatusFor resolves membership first, then the user's request, else NOT_REQUESTED.
func (p *Project) ConnectionStatusFor(uid primitive.ObjectID) ConnectionStatus {
	if p.FindMember(uid) != nil {
		return StatusMember
	}
	if r := p.FindRequestByUser(uid); r != nil {
		return ConnectionStatus(r.Status)
	}
	return StatusNotRequested
}

// Clone returns a deep copy safe to hand out of an in-memory store.
func (p *Project) Clone() *Project {
	cp := *p
	cp.RequiredSkills = append([]string(nil), p.RequiredSkills...)
	cp.ConnectionRequests = append([]ConnectionRequest(nil), p.ConnectionRequests...)
	cp.Members = append([]Member(nil), p.Members...)
	return &cp
}
