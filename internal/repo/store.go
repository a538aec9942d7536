package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means a conditional update matched nothing because the
	// document changed under us.
	ErrConflict = errors.New("conflict")
)

// Store is the process-wide Mongo pool. Create it once at startup and share it;
// mongo.Client is safe for concurrent use.
type Store struct {
	Client      *mongo.Client
	DB          *mongo.Database
	colUsers    *mongo.Collection
	colProjects *mongo.Collection
}

func NewStore(ctx context.Context, uri, dbname string) (*Store, error) {
	cli, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetMaxPoolSize(50),
	)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, err
	}
	db := cli.Database(dbname)
	return &Store{
		Client:      cli,
		DB:          db,
		colUsers:    db.Collection("users"),
		colProjects: db.Collection("projects"),
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error { return s.Client.Disconnect(ctx) }

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.colUsers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
	})
	if err != nil {
		return err
	}

	_, err = s.colProjects.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("owner_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_desc"),
		},
		{
			Keys:    bson.D{{Key: "required_skills", Value: 1}},
			Options: options.Index().SetName("required_skills"),
		},
		{
			Keys:    bson.D{{Key: "connection_requests._id", Value: 1}},
			Options: options.Index().SetName("request_id"),
		},
	})
	return err
}

func IsDup(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return false
}

// startSpan opens a Datadog span around one Mongo round trip.
func startSpan(ctx context.Context, name string, opts ...ddtrace.StartSpanOption) (ddtrace.Span, context.Context) {
	opts = append(opts, tracer.ServiceName("devfinder-mongo"), tracer.SpanType("mongodb"))
	return tracer.StartSpanFromContext(ctx, name, opts...)
}

func finish(sp ddtrace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		sp.Finish(tracer.WithError(err))
		return
	}
	sp.Finish()
}
