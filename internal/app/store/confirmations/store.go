// internal/app/store/confirmations/store.go
package confirmations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Ticket is an open confirmation dialog. It is deleted by the first
// decision (confirm or cancel), so a dialog can never fire twice.
type Ticket struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Action    string    `bson:"action"` // save | apply
	Week      string    `bson:"week"`   // Monday, YYYY-MM-DD
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store manages confirmation tickets in MongoDB.
type Store struct {
	c *mongo.Collection
}

// New creates a confirmation ticket Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("confirmation_tickets")}
}

// EnsureIndexes creates the owner index and the TTL index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_confirm_user"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_confirm_ttl"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Issue opens a ticket for userID that stays valid for ttl.
func (s *Store) Issue(ctx context.Context, userID, action, week string, ttl time.Duration) (Ticket, error) {
	now := time.Now().UTC()
	t := Ticket{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Week:      week,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return Ticket{}, err
	}
	return t, nil
}

// Consume atomically removes the ticket if it belongs to userID and has
// not expired. ok is false for unknown, foreign, expired or already
// consumed tickets.
func (s *Store) Consume(ctx context.Context, id, userID string) (t Ticket, ok bool, err error) {
	err = s.c.FindOneAndDelete(ctx, bson.M{
		"_id":        id,
		"user_id":    userID,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&t)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return Ticket{}, false, nil
	}
	if err != nil {
		return Ticket{}, false, err
	}
	return t, true, nil
}

// CleanupExpired removes tickets whose dialog was abandoned.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
