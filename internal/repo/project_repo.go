package repo

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/Ashisharjun12/devfinder-final/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func (s *Store) CreateProject(ctx context.Context, p *domain.Project) error {
	sp, ctx := startSpan(ctx, "mongo.project.insert", tracer.Tag("owner_id", p.OwnerID.Hex()))
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.ConnectionRequests == nil {
		p.ConnectionRequests = []domain.ConnectionRequest{}
	}
	res, err := s.colProjects.InsertOne(ctx, p)
	finish(sp, err)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return nil
}

func (s *Store) FindProjectByID(ctx context.Context, id primitive.ObjectID) (*domain.Project, error) {
	sp, ctx := startSpan(ctx, "mongo.project.find", tracer.Tag("project_id", id.Hex()))
	var p domain.Project
	err := s.colProjects.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		err = ErrNotFound
	}
	finish(sp, err)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SearchFilter is the Mongo form of domain.SearchCriteria.Match.
func SearchFilter(c domain.SearchCriteria) bson.M {
	f := bson.M{}
	if q := strings.TrimSpace(c.Query); q != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		f["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
			bson.M{"github_url": rx},
		}
	}
	all := bson.A{}
	for _, t := range c.Tech {
		if t = strings.TrimSpace(t); t != "" {
			all = append(all, primitive.Regex{Pattern: regexp.QuoteMeta(t), Options: "i"})
		}
	}
	if len(all) > 0 {
		f["required_skills"] = bson.M{"$all": all}
	}
	if c.OwnerID != nil {
		f["owner_id"] = *c.OwnerID
	}
	return f
}

func (s *Store) SearchProjects(ctx context.Context, c domain.SearchCriteria) ([]domain.Project, error) {
	sp, ctx := startSpan(ctx, "mongo.project.search", tracer.Tag("tech", len(c.Tech)))
	cur, err := s.colProjects.Find(ctx, SearchFilter(c),
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		finish(sp, err)
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.Project{}
	err = cur.All(ctx, &out)
	finish(sp, err)
	return out, err
}

func (s *Store) UpdateProject(ctx context.Context, id primitive.ObjectID, patch domain.ProjectPatch) (*domain.Project, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.RequiredSkills != nil {
		set["required_skills"] = *patch.RequiredSkills
	}
	if patch.Stage != nil {
		set["stage"] = *patch.Stage
	}
	if patch.GithubURL != nil {
		set["github_url"] = *patch.GithubURL
	}
	if patch.WhatsappNumber != nil {
		set["whatsapp_number"] = *patch.WhatsappNumber
	}

	sp, ctx := startSpan(ctx, "mongo.project.update", tracer.Tag("project_id", id.Hex()))
	var p domain.Project
	err := s.colProjects.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err == mongo.ErrNoDocuments {
		err = ErrNotFound
	}
	finish(sp, err)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeleteProject(ctx context.Context, id primitive.ObjectID) error {
	sp, ctx := startSpan(ctx, "mongo.project.delete", tracer.Tag("project_id", id.Hex()))
	res, err := s.colProjects.DeleteOne(ctx, bson.M{"_id": id})
	if err == nil && res.DeletedCount == 0 {
		err = ErrNotFound
	}
	finish(sp, err)
	return err
}

// PushConnectionRequest appends req unless the user already owns, belongs to, or has a
// request on the project. The check and the push are one conditional update, so two
// concurrent requests from the same user cannot both land. Returns false when the
// condition did not hold.
func (s *Store) PushConnectionRequest(ctx context.Context, projectID primitive.ObjectID, req domain.ConnectionRequest) (bool, error) {
	sp, ctx := startSpan(ctx, "mongo.project.push_request",
		tracer.Tag("project_id", projectID.Hex()),
		tracer.Tag("user_id", req.UserID.Hex()),
	)
	filter := bson.M{
		"_id":                         projectID,
		"owner_id":                    bson.M{"$ne": req.UserID},
		"members.user_id":             bson.M{"$ne": req.UserID},
		"connection_requests.user_id": bson.M{"$ne": req.UserID},
	}
	update := bson.M{
		"$push": bson.M{"connection_requests": req},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := s.colProjects.UpdateOne(ctx, filter, update)
	finish(sp, err)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ResolveConnectionRequest moves a PENDING request to status with a filtered positional
// update on that array element. When member is non-nil it is pushed in the same update, guarded so
// the user cannot be added twice. ErrConflict means the request was no longer PENDING (or
// the member guard failed) by the time the write ran.
func (s *Store) ResolveConnectionRequest(ctx context.Context, projectID, requestID primitive.ObjectID, status domain.RequestStatus, member *domain.Member) error {
	sp, ctx := startSpan(ctx, "mongo.project.resolve_request",
		tracer.Tag("project_id", projectID.Hex()),
		tracer.Tag("status", string(status)),
	)
	now := time.Now().UTC()
	filter := bson.M{
		"_id": projectID,
		"connection_requests": bson.M{"$elemMatch": bson.M{
			"_id":    requestID,
			"status": domain.RequestPending,
		}},
	}
	update := bson.M{"$set": bson.M{
		"connection_requests.$[req].status":      status,
		"connection_requests.$[req].resolved_at": now,
		"updated_at":                             now,
	}}
	if member != nil {
		filter["members.user_id"] = bson.M{"$ne": member.UserID}
		update["$push"] = bson.M{"members": member}
	}

	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"req._id": requestID}},
	})
	res, err := s.colProjects.UpdateOne(ctx, filter, update, opts)
	if err == nil && res.MatchedCount == 0 {
		err = ErrConflict
	}
	finish(sp, err)
	return err
}
