package userstore

import (
	"context"

	"github.com/dalemusser/fiveplanner/internal/app/system/auth"
	"github.com/dalemusser/fiveplanner/internal/app/system/timeouts"
	"github.com/dalemusser/fiveplanner/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher so a disabled account loses access
// on its next request.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchUser returns nil if the user is not found, disabled, or on any error.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":          1,
		"discord_id":   1,
		"username":     1,
		"display_name": 1,
		"avatar_url":   1,
		"status":       1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		return nil
	}
	if u.Status == models.StatusDisabled {
		return nil
	}

	return &auth.SessionUser{
		ID:        u.ID.Hex(),
		DiscordID: u.DiscordID,
		Name:      u.Name(),
		AvatarURL: u.AvatarURL,
	}
}
