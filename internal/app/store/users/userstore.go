package userstore

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/fiveplanner/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxNameRunes bounds display names shown in tooltips and the navbar.
const maxNameRunes = 64

var (
	errNoDiscordID = errors.New("discord id is required")
	errBadStatus   = errors.New(`status must be "active"|"disabled"`)
)

// Profile is what the Discord identity endpoint tells us about a user.
type Profile struct {
	DiscordID   string
	Username    string
	DisplayName string
	AvatarURL   string
}

type Store struct {
	c      *mongo.Collection
	policy *bluemonday.Policy
}

// New returns a Store over the users collection. A nil db yields a Store
// usable only for CleanName.
func New(db *mongo.Database) *Store {
	s := &Store{policy: bluemonday.StrictPolicy()}
	if db != nil {
		s.c = db.Collection("users")
	}
	return s
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByDiscordID looks a user up by Discord snowflake. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"discord_id": discordID}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertFromDiscord creates the user on first sign-in and refreshes the
// profile on later ones. Status is only set on insert, so a disabled user
// stays disabled.
func (s *Store) UpsertFromDiscord(ctx context.Context, p Profile) (*models.User, error) {
	if p.DiscordID == "" {
		return nil, errNoDiscordID
	}
	username := s.CleanName(p.Username)
	display := s.CleanName(p.DisplayName)
	if display == "" {
		display = username
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"username":      username,
			"display_name":  display,
			"avatar_url":    p.AvatarURL,
			"last_login_at": now,
			"updated_at":    now,
		},
		"$setOnInsert": bson.M{
			"discord_id": p.DiscordID,
			"status":     models.StatusActive,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"discord_id": p.DiscordID}, update, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetStatus enables or disables a user.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if status != models.StatusActive && status != models.StatusDisabled {
		return errBadStatus
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// CleanName strips markup from a name chosen on Discord and bounds its length.
func (s *Store) CleanName(name string) string {
	clean := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(name)))
	if utf8.RuneCountInString(clean) > maxNameRunes {
		clean = string([]rune(clean)[:maxNameRunes])
	}
	return clean
}
