package project

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Ashisharjun12/devfinder-final/internal/apperr"
	"github.com/Ashisharjun12/devfinder-final/internal/authz"
	"github.com/Ashisharjun12/devfinder-final/internal/domain"
	"github.com/Ashisharjun12/devfinder-final/internal/log"
	"github.com/Ashisharjun12/devfinder-final/internal/metrics"
)

// Outcome is the result of a connect call as shown to the caller.
type Outcome struct {
	Status  domain.ConnectionStatus `json:"status"`
	Message string                  `json:"message,omitempty"`
}

// Status is the caller's standing on the project: member first, then their request,
// else NOT_REQUESTED.
func (s *Service) Status(ctx context.Context, pr Principal, id primitive.ObjectID) (domain.ConnectionStatus, error) {
	p, err := s.store.FindProjectByID(ctx, id)
	if err != nil {
		return "", storeErr(err, "project")
	}
	if p.IsOwner(pr.UID) {
		return domain.StatusMember, nil
	}
	return p.ConnectionStatusFor(pr.UID), nil
}

// Request files a join request. Asking again returns the standing request instead of
// adding a second one.
func (s *Service) Request(ctx context.Context, pr Principal, id primitive.ObjectID, message string) (Outcome, error) {
	p, err := s.store.FindProjectByID(ctx, id)
	if err != nil {
		return Outcome{}, storeErr(err, "project")
	}
	s.populate(ctx, p)

	if authz.RoleFor(p, pr.UID, pr.Email) == authz.RoleOwner {
		return Outcome{}, apperr.Validation("cannot send connection request to your own project")
	}
	if out, done := standing(p, pr.UID); done {
		return out, nil
	}
	ok, err := s.authz.Can(p, pr.UID, pr.Email, authz.ActRequest)
	if err != nil {
		return Outcome{}, apperr.Internal(err)
	}
	if !ok {
		return Outcome{}, apperr.Forbidden("not allowed to join this project")
	}

	msg, err := cleanMessage(message)
	if err != nil {
		return Outcome{}, err
	}
	req := domain.ConnectionRequest{
		ID:        primitive.NewObjectID(),
		UserID:    pr.UID,
		Status:    domain.RequestPending,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
	pushed, err := s.store.PushConnectionRequest(ctx, id, req)
	if err != nil {
		return Outcome{}, apperr.Internal(err)
	}
	if !pushed {
		// lost a race with another request, a membership change or a delete
		cur, err := s.store.FindProjectByID(ctx, id)
		if err != nil {
			return Outcome{}, storeErr(err, "project")
		}
		if out, done := standing(cur, pr.UID); done {
			return out, nil
		}
		return Outcome{}, apperr.Conflict("project changed, try again")
	}

	metrics.ConnectionTransitions.WithLabelValues(string(domain.StatusPending)).Inc()
	ev := domain.Event{
		Type: domain.EventConnectionRequested, ProjectID: id.Hex(), Title: p.Title,
		UserID: pr.UID.Hex(), UserEmail: pr.Email, RequestID: req.ID.Hex(),
		Status: string(req.Status), Message: msg, At: req.CreatedAt,
	}
	if p.Owner != nil {
		ev.OwnerEmail = p.Owner.Email
	}
	s.notifier.Notify(ctx, ev)
	return Outcome{Status: domain.StatusPending, Message: "Connection request sent successfully"}, nil
}

// standing reports the caller's existing relation to p, if any.
func standing(p *domain.Project, uid primitive.ObjectID) (Outcome, bool) {
	if p.IsOwner(uid) || p.FindMember(uid) != nil {
		return Outcome{Status: domain.StatusMember, Message: "Already a member of this project"}, true
	}
	if r := p.FindRequestByUser(uid); r != nil {
		return Outcome{
			Status:  domain.ConnectionStatus(r.Status),
			Message: "Request already " + strings.ToLower(string(r.Status)),
		}, true
	}
	return Outcome{}, false
}

// ParseAction accepts ACCEPT or REJECT in any case.
func ParseAction(raw string) (domain.Action, error) {
	switch a := domain.Action(strings.ToUpper(strings.TrimSpace(raw))); a {
	case domain.ActionAccept, domain.ActionReject:
		return a, nil
	}
	return "", apperr.Validation("action must be ACCEPT or REJECT")
}

// Resolve lets the owner accept or reject a pending request. Accepting adds the
// requester as a MEMBER in the same write.
func (s *Service) Resolve(ctx context.Context, pr Principal, id, requestID primitive.ObjectID, action domain.Action) (Outcome, error) {
	p, err := s.loadFor(ctx, pr, id, authz.ActResolve, "only the project owner can handle requests")
	if err != nil {
		return Outcome{}, err
	}
	req := p.FindRequest(requestID)
	if req == nil {
		return Outcome{}, apperr.NotFound("request not found")
	}
	if req.Status != domain.RequestPending {
		return Outcome{}, apperr.Conflict("request already " + strings.ToLower(string(req.Status)))
	}

	status, evType := domain.RequestRejected, domain.EventConnectionRejected
	var member *domain.Member
	if action == domain.ActionAccept {
		status, evType = domain.RequestAccepted, domain.EventConnectionAccepted
		if p.FindMember(req.UserID) == nil {
			member = &domain.Member{UserID: req.UserID, Role: domain.RoleMember, JoinedAt: time.Now().UTC()}
		}
	}

	if err := s.store.ResolveConnectionRequest(ctx, id, requestID, status, member); err != nil {
		return Outcome{}, storeErr(err, "request")
	}
	if status == domain.RequestAccepted {
		if err := s.users.AddProjectToUser(ctx, req.UserID, id); err != nil {
			log.Ctx(ctx).Error("add project to member",
				zap.String("project_id", id.Hex()),
				zap.String("user_id", req.UserID.Hex()),
				zap.Error(err),
			)
		}
	}

	metrics.ConnectionTransitions.WithLabelValues(string(status)).Inc()
	ev := domain.Event{
		Type: evType, ProjectID: id.Hex(), Title: p.Title, RequestID: requestID.Hex(),
		UserID: req.UserID.Hex(), Status: string(status), At: time.Now().UTC(),
	}
	if req.User != nil {
		ev.UserEmail = req.User.Email
	}
	if p.Owner != nil {
		ev.OwnerEmail = p.Owner.Email
	}
	s.notifier.Notify(ctx, ev)

	verb := "accepted"
	if status == domain.RequestRejected {
		verb = "rejected"
	}
	return Outcome{Status: domain.ConnectionStatus(status), Message: "Request " + verb + " successfully"}, nil
}
