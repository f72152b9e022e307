package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account in the notebook
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email       string             `bson:"email" json:"email"`
	Role        string             `bson:"role,omitempty" json:"role,omitempty"` // "admin" or "user"
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	LastLoginAt time.Time          `bson:"lastLoginAt" json:"last_login_at"`

	// Third-party access token, stored as a local-kms reference string.
	// Never exposed in API responses.
	EncryptedAccessToken string `bson:"encryptedAccessToken,omitempty" json:"-"`

	Preferences UserPreferences `bson:"preferences" json:"preferences"`
}

// UserPreferences holds user-specific settings
type UserPreferences struct {
	Theme            string `bson:"theme,omitempty" json:"theme,omitempty"`
	WeeklyGoalTarget int    `bson:"weeklyGoalTarget,omitempty" json:"weekly_goal_target,omitempty"`
	AIModelID        string `bson:"aiModelId,omitempty" json:"ai_model_id,omitempty"`
}

// UserResponse is the API response for user data
type UserResponse struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	Role        string          `json:"role,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	LastLoginAt time.Time       `json:"last_login_at"`
	Preferences UserPreferences `json:"preferences"`
	HasToken    bool            `json:"has_token"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID.Hex(),
		Email:       u.Email,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
		Preferences: u.Preferences,
		HasToken:    u.EncryptedAccessToken != "",
	}
}
