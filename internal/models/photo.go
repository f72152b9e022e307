package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Photo is one competitor in a photo battle library. Libraries are the only
// shared (cross-user) documents in the system.
type Photo struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LibraryID string             `bson:"libraryId" json:"library_id"`
	URL       string             `bson:"url" json:"url"`
	Caption   string             `bson:"caption,omitempty" json:"caption,omitempty"`
	Rating    int                `bson:"rating" json:"rating"`
	Wins      int                `bson:"wins" json:"wins"`
	Losses    int                `bson:"losses" json:"losses"`
	UpdatedAt int64              `bson:"updatedAt" json:"updated_at"`
}

// PhotoVote is the append-only history record of one pairwise outcome
type PhotoVote struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LibraryID   string             `bson:"libraryId" json:"library_id"`
	SessionID   string             `bson:"sessionId" json:"session_id"`
	WinnerID    string             `bson:"winnerId" json:"winner_id"`
	LoserID     string             `bson:"loserId" json:"loser_id"`
	WinnerDelta int                `bson:"winnerDelta" json:"winner_delta"`
	LoserDelta  int                `bson:"loserDelta" json:"loser_delta"`
	VotedBy     string             `bson:"votedBy" json:"voted_by"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
}

// PhotoLibrary aggregates battle stats at library level. Its counters are
// updated outside the vote transaction, idempotently per session ID.
type PhotoLibrary struct {
	ID         string    `bson:"_id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	OwnerID    string    `bson:"ownerId" json:"owner_id"`
	TotalVotes int       `bson:"totalVotes" json:"total_votes"`
	CreatedAt  time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt  int64     `bson:"updatedAt" json:"updated_at"`
}

// DefaultKFactor is the fixed rating-change multiplier for photo battles
const DefaultKFactor = 32

// ExpectedScore is the standard logistic pairing on rating difference,
// scaled by 400.
func ExpectedScore(rating, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-rating)/400))
}

// RatingDelta converts an outcome into a rating change: K times the gap
// between the actual and expected score, rounded to nearest integer.
func RatingDelta(k int, actual, expected float64) int {
	return int(math.Round(float64(k) * (actual - expected)))
}

// ApplyOutcome returns the new ratings for winner and loser. Ratings are
// floored at zero no matter how lopsided prior history is.
func ApplyOutcome(k, winnerRating, loserRating int) (newWinner, newLoser, winnerDelta, loserDelta int) {
	winnerDelta = RatingDelta(k, 1, ExpectedScore(winnerRating, loserRating))
	loserDelta = RatingDelta(k, 0, ExpectedScore(loserRating, winnerRating))

	newWinner = winnerRating + winnerDelta
	newLoser = loserRating + loserDelta
	if newWinner < 0 {
		newWinner = 0
	}
	if newLoser < 0 {
		newLoser = 0
	}
	return newWinner, newLoser, winnerDelta, loserDelta
}

// VoteRequest is the request body for casting a vote
type VoteRequest struct {
	WinnerID  string `json:"winner_id"`
	LoserID   string `json:"loser_id"`
	SessionID string `json:"session_id"`
}

// VoteResult is returned after a vote commits
type VoteResult struct {
	WinnerID     string `json:"winner_id"`
	LoserID      string `json:"loser_id"`
	WinnerRating int    `json:"winner_rating"`
	LoserRating  int    `json:"loser_rating"`
	WinnerDelta  int    `json:"winner_delta"`
	LoserDelta   int    `json:"loser_delta"`
}
