// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a planner participant signed in through Discord.
//
// NOTE:
//   - Availability is not stored here. The availability service owns it and
//     knows users by DiscordID (the service-token subject).
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DiscordID   string             `bson:"discord_id" json:"discord_id"`
	Username    string             `bson:"username" json:"username"`
	DisplayName string             `bson:"display_name" json:"display_name"`
	AvatarURL   string             `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Status      string             `bson:"status,omitempty" json:"status,omitempty"` // active | disabled

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// User statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Name returns the label shown in the navbar and sent to the service.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
