package domain

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name"          json:"name"`
	Email     string               `bson:"email"         json:"email"`
	Image     string               `bson:"image"         json:"image"`
	Skills    []string             `bson:"skills"        json:"skills"`
	Languages []string             `bson:"languages"     json:"languages"`
	Bio       string               `bson:"bio"           json:"bio"`
	Projects  []primitive.ObjectID `bson:"projects"      json:"projects"` // owned + joined
	CreatedAt time.Time            `bson:"created_at"    json:"createdAt"`
}

// UserSummary is the populated form of a user reference inside a project.
type UserSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email,omitempty"`
	Image string             `json:"image"`
}

// NormalizeEmail trims and lower-cases an address for storage and comparisons.
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// GravatarURL returns the "mystery person" gravatar for an address, or "" for an empty one.
func GravatarURL(email string) string {
	email = NormalizeEmail(email)
	if email == "" {
		return ""
	}
	sum := md5.Sum([]byte(email))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?d=mp"
}

// AvatarURL prefers the provider image and falls back to gravatar.
func (u *User) AvatarURL() string {
	if u.Image != "" {
		return u.Image
	}
	return GravatarURL(u.Email)
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.AvatarURL()}
}
