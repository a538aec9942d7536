package repo

import (
	"context"
	"time"

	"github.com/Ashisharjun12/devfinder-final/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// UpsertOAuthUser creates the user on first sign-in. Later sign-ins refresh name and
// image only when the stored values are empty.
func (s *Store) UpsertOAuthUser(ctx context.Context, email, name, image string) (*domain.User, error) {
	sp, ctx := startSpan(ctx, "mongo.user.upsert")
	email = domain.NormalizeEmail(email)
	now := time.Now().UTC()

	upsert := func() (domain.User, error) {
		var u domain.User
		err := s.colUsers.FindOneAndUpdate(ctx,
			bson.M{"email": email},
			bson.M{"$setOnInsert": bson.M{
				"email":      email,
				"name":       name,
				"image":      image,
				"skills":     []string{},
				"languages":  []string{},
				"bio":        "",
				"projects":   []primitive.ObjectID{},
				"created_at": now,
			}},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
		).Decode(&u)
		return u, err
	}
	u, err := upsert()
	if IsDup(err) {
		// a concurrent first sign-in inserted the same email; the retry matches it
		u, err = upsert()
	}
	if err != nil {
		finish(sp, err)
		return nil, err
	}
	if (u.Name == "" && name != "") || (u.Image == "" && image != "") {
		set := bson.M{}
		if u.Name == "" && name != "" {
			set["name"], u.Name = name, name
		}
		if u.Image == "" && image != "" {
			set["image"], u.Image = image, image
		}
		if _, err := s.colUsers.UpdateByID(ctx, u.ID, bson.M{"$set": set}); err != nil {
			finish(sp, err)
			return nil, err
		}
	}
	finish(sp, nil)
	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	sp, ctx := startSpan(ctx, "mongo.user.find_by_email")
	var u domain.User
	err := s.colUsers.FindOne(ctx, bson.M{"email": domain.NormalizeEmail(email)}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		err = ErrNotFound
	}
	finish(sp, err)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	sp, ctx := startSpan(ctx, "mongo.user.find_by_id", tracer.Tag("user_id", id.Hex()))
	var u domain.User
	err := s.colUsers.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		err = ErrNotFound
	}
	finish(sp, err)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sp, ctx := startSpan(ctx, "mongo.user.find_many", tracer.Tag("count", len(ids)))
	cur, err := s.colUsers.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		finish(sp, err)
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.User
	err = cur.All(ctx, &out)
	finish(sp, err)
	return out, err
}

// UserProfilePatch is the self-service part of a profile.
type UserProfilePatch struct {
	Name      *string
	Bio       *string
	Skills    *[]string
	Languages *[]string
}

func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, p UserProfilePatch) (*domain.User, error) {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Bio != nil {
		set["bio"] = *p.Bio
	}
	if p.Skills != nil {
		set["skills"] = *p.Skills
	}
	if p.Languages != nil {
		set["languages"] = *p.Languages
	}
	if len(set) == 0 {
		return s.FindUserByID(ctx, id)
	}

	sp, ctx := startSpan(ctx, "mongo.user.update_profile", tracer.Tag("user_id", id.Hex()))
	var u domain.User
	err := s.colUsers.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err == mongo.ErrNoDocuments {
		err = ErrNotFound
	}
	finish(sp, err)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) AddProjectToUser(ctx context.Context, userID, projectID primitive.ObjectID) error {
	sp, ctx := startSpan(ctx, "mongo.user.add_project", tracer.Tag("user_id", userID.Hex()))
	_, err := s.colUsers.UpdateByID(ctx, userID, bson.M{"$addToSet": bson.M{"projects": projectID}})
	finish(sp, err)
	return err
}

// PullProjectFromUsers removes a deleted project from every user's list.
func (s *Store) PullProjectFromUsers(ctx context.Context, projectID primitive.ObjectID) error {
	sp, ctx := startSpan(ctx, "mongo.user.pull_project", tracer.Tag("project_id", projectID.Hex()))
	_, err := s.colUsers.UpdateMany(ctx,
		bson.M{"projects": projectID},
		bson.M{"$pull": bson.M{"projects": projectID}},
	)
	finish(sp, err)
	return err
}
