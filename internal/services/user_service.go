package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"focusnotebook/internal/crypto"
	"focusnotebook/internal/database"
	"focusnotebook/internal/models"
	"focusnotebook/pkg/auth"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Auth errors surfaced to handlers
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// userRecord is the stored form of a user, including the password hash
// which never leaves this service
type userRecord struct {
	models.User  `bson:",inline"`
	PasswordHash string `bson:"passwordHash"`
}

// UserService manages accounts and credentials
type UserService struct {
	collection *mongo.Collection
	jwtAuth    *auth.LocalJWTAuth
	kms        *crypto.KMSService
}

// NewUserService creates a new user service
func NewUserService(db *database.MongoDB, jwtAuth *auth.LocalJWTAuth, kms *crypto.KMSService) *UserService {
	return &UserService{
		collection: db.Collection(database.CollectionUsers),
		jwtAuth:    jwtAuth,
		kms:        kms,
	}
}

// Register creates a new account. The first registered user becomes admin.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("a valid email is required")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	role := "user"
	if count == 0 {
		role = "admin"
	}

	now := time.Now()
	record := &userRecord{
		User: models.User{
			ID:          primitive.NewObjectID(),
			Email:       email,
			Role:        role,
			CreatedAt:   now,
			LastLoginAt: now,
		},
		PasswordHash: hash,
	}

	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &record.User, nil
}

// Login verifies credentials and issues a token pair
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var record userRecord
	err := s.collection.FindOne(ctx, bson.M{"email": email}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := auth.VerifyPassword(record.PasswordHash, password)
	if err != nil || !ok {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.jwtAuth.GenerateTokens(record.ID.Hex(), record.Email, record.Role)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to issue tokens: %w", err)
	}

	_, _ = s.collection.UpdateByID(ctx, record.ID, bson.M{"$set": bson.M{"lastLoginAt": time.Now()}})

	return &record.User, accessToken, refreshToken, nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	claims, err := s.jwtAuth.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	return s.issueFor(ctx, claims.UserID)
}

func (s *UserService) issueFor(ctx context.Context, userID string) (string, string, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	access, refresh, err := s.jwtAuth.GenerateTokens(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return "", "", fmt.Errorf("failed to issue tokens: %w", err)
	}
	return access, refresh, nil
}

// Get returns a user by ID
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}

	var record userRecord
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &record.User, nil
}

// StoreAccessToken encrypts and stores a third-party token for the user
func (s *UserService) StoreAccessToken(ctx context.Context, userID, token string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}

	reference, err := s.kms.EncryptString(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	result, err := s.collection.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"encryptedAccessToken": reference}})
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AccessToken decrypts the user's stored third-party token
func (s *UserService) AccessToken(ctx context.Context, userID string) (string, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.EncryptedAccessToken == "" {
		return "", ErrNotFound
	}
	return s.kms.DecryptString(user.EncryptedAccessToken)
}

// UpdatePreferences replaces the user's preference block
func (s *UserService) UpdatePreferences(ctx context.Context, userID string, prefs models.UserPreferences) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}

	result, err := s.collection.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"preferences": prefs}})
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
