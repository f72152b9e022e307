package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"focusnotebook/internal/database"
	"focusnotebook/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateVote is returned when a session ID has already been recorded
var ErrDuplicateVote = errors.New("vote already recorded for this session")

// voteMarkerTTL bounds how long session idempotency markers live in Redis.
// The unique index on photo_votes.sessionId is the durable guard.
const voteMarkerTTL = 24 * time.Hour

// voteMarkerStore remembers which vote sessions already contributed to the
// win/loss/vote counters
type voteMarkerStore interface {
	Seen(ctx context.Context, sessionID string) bool
	Mark(ctx context.Context, sessionID string)
}

// redisVoteMarkers backs the marker store with Redis. Without Redis every
// session counts as unseen; the unique index on photo_votes.sessionId still
// blocks replayed votes before the counters are ever touched.
type redisVoteMarkers struct {
	redis *RedisService
}

func (m redisVoteMarkers) Seen(ctx context.Context, sessionID string) bool {
	if m.redis == nil {
		return false
	}
	_, err := m.redis.Get(ctx, "vote:session:"+sessionID)
	return err == nil
}

func (m redisVoteMarkers) Mark(ctx context.Context, sessionID string) {
	if m.redis == nil {
		return
	}
	if _, err := m.redis.SetNX(ctx, "vote:session:"+sessionID, 1, voteMarkerTTL); err != nil {
		log.Printf("⚠️  Failed to mark vote session %s: %v", sessionID, err)
	}
}

// PhotoBattleService runs pairwise photo voting with Elo-style ratings
type PhotoBattleService struct {
	db        *database.MongoDB
	photos    *mongo.Collection
	votes     *mongo.Collection
	libraries *mongo.Collection
	markers   voteMarkerStore
	metrics   *Metrics
	kFactor   int
}

// NewPhotoBattleService creates a new photo battle service
func NewPhotoBattleService(db *database.MongoDB, redis *RedisService, metrics *Metrics, kFactor int) *PhotoBattleService {
	if kFactor <= 0 {
		kFactor = models.DefaultKFactor
	}
	return &PhotoBattleService{
		db:        db,
		photos:    db.Collection(database.CollectionPhotos),
		votes:     db.Collection(database.CollectionPhotoVotes),
		libraries: db.Collection(database.CollectionPhotoLibraries),
		markers:   redisVoteMarkers{redis: redis},
		metrics:   metrics,
		kFactor:   kFactor,
	}
}

// Photos returns a library's photos ranked by rating
func (s *PhotoBattleService) Photos(ctx context.Context, libraryID string) ([]models.Photo, error) {
	cursor, err := s.photos.Find(ctx,
		bson.M{"libraryId": libraryID},
		options.Find().SetSort(bson.D{{Key: "rating", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer cursor.Close(ctx)

	photos := []models.Photo{}
	if err := cursor.All(ctx, &photos); err != nil {
		return nil, fmt.Errorf("failed to decode photos: %w", err)
	}
	return photos, nil
}

// AddPhoto registers a photo in a library at the base rating
func (s *PhotoBattleService) AddPhoto(ctx context.Context, libraryID, url, caption string) (*models.Photo, error) {
	if url == "" {
		return nil, errors.New("url is required")
	}

	photo := &models.Photo{
		ID:        primitive.NewObjectID(),
		LibraryID: libraryID,
		URL:       url,
		Caption:   caption,
		Rating:    1200,
		UpdatedAt: time.Now().UnixMilli(),
	}

	if _, err := s.photos.InsertOne(ctx, photo); err != nil {
		return nil, fmt.Errorf("failed to insert photo: %w", err)
	}
	return photo, nil
}

// Vote records one pairwise outcome. The rating updates and the history
// record commit in a single transaction; win/loss/vote counters are
// aggregated afterwards, idempotently per session ID.
func (s *PhotoBattleService) Vote(ctx context.Context, votedBy, libraryID string, req *models.VoteRequest) (*models.VoteResult, error) {
	if req.WinnerID == "" || req.LoserID == "" || req.SessionID == "" {
		return nil, errors.New("winner_id, loser_id and session_id are required")
	}
	if req.WinnerID == req.LoserID {
		return nil, errors.New("winner and loser must differ")
	}

	winnerOID, err := primitive.ObjectIDFromHex(req.WinnerID)
	if err != nil {
		return nil, ErrNotFound
	}
	loserOID, err := primitive.ObjectIDFromHex(req.LoserID)
	if err != nil {
		return nil, ErrNotFound
	}

	var result *models.VoteResult

	txErr := s.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var winner, loser models.Photo
		if err := s.photos.FindOne(sessCtx, bson.M{"_id": winnerOID, "libraryId": libraryID}).Decode(&winner); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load winner: %w", err)
		}
		if err := s.photos.FindOne(sessCtx, bson.M{"_id": loserOID, "libraryId": libraryID}).Decode(&loser); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load loser: %w", err)
		}

		newWinner, newLoser, winnerDelta, loserDelta := models.ApplyOutcome(s.kFactor, winner.Rating, loser.Rating)
		nowMillis := time.Now().UnixMilli()

		if _, err := s.photos.UpdateByID(sessCtx, winner.ID, bson.M{
			"$set": bson.M{"rating": newWinner, "updatedAt": nowMillis},
		}); err != nil {
			return fmt.Errorf("failed to update winner: %w", err)
		}

		if _, err := s.photos.UpdateByID(sessCtx, loser.ID, bson.M{
			"$set": bson.M{"rating": newLoser, "updatedAt": nowMillis},
		}); err != nil {
			return fmt.Errorf("failed to update loser: %w", err)
		}

		vote := models.PhotoVote{
			ID:          primitive.NewObjectID(),
			LibraryID:   libraryID,
			SessionID:   req.SessionID,
			WinnerID:    req.WinnerID,
			LoserID:     req.LoserID,
			WinnerDelta: winnerDelta,
			LoserDelta:  loserDelta,
			VotedBy:     votedBy,
			CreatedAt:   time.Now(),
		}
		if _, err := s.votes.InsertOne(sessCtx, vote); err != nil {
			// Unique index on sessionId rejects replays inside the
			// transaction, rolling back the rating updates.
			if mongo.IsDuplicateKeyError(err) {
				return ErrDuplicateVote
			}
			return fmt.Errorf("failed to record vote: %w", err)
		}

		result = &models.VoteResult{
			WinnerID:     req.WinnerID,
			LoserID:      req.LoserID,
			WinnerRating: newWinner,
			LoserRating:  newLoser,
			WinnerDelta:  winnerDelta,
			LoserDelta:   loserDelta,
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.applyVoteStats(ctx, libraryID, req.SessionID, winnerOID, loserOID)

	if s.metrics != nil {
		s.metrics.RecordVote()
	}
	return result, nil
}

// applyVoteStats aggregates win/loss counters on the photos and the vote
// total on the library, outside the transaction. The session marker is set
// only after the counters land, so a failed attempt can be retried; counter
// drift is tolerated either way, vote history is the source of truth.
func (s *PhotoBattleService) applyVoteStats(ctx context.Context, libraryID, sessionID string, winnerID, loserID primitive.ObjectID) {
	if s.markers.Seen(ctx, sessionID) {
		return
	}

	if _, err := s.photos.UpdateByID(ctx, winnerID, bson.M{"$inc": bson.M{"wins": 1}}); err != nil {
		log.Printf("⚠️  Failed to count win for %s: %v", winnerID.Hex(), err)
		return
	}
	if _, err := s.photos.UpdateByID(ctx, loserID, bson.M{"$inc": bson.M{"losses": 1}}); err != nil {
		log.Printf("⚠️  Failed to count loss for %s: %v", loserID.Hex(), err)
		return
	}

	// Upsert: libraries spring into existence on first vote
	_, err := s.libraries.UpdateOne(ctx,
		bson.M{"_id": libraryID},
		bson.M{
			"$inc": bson.M{"totalVotes": 1},
			"$set": bson.M{"updatedAt": time.Now().UnixMilli()},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		log.Printf("⚠️  Failed to bump library counter for %s: %v", libraryID, err)
		return
	}

	s.markers.Mark(ctx, sessionID)
}

// History returns a library's vote history, newest first
func (s *PhotoBattleService) History(ctx context.Context, libraryID string, limit int64) ([]models.PhotoVote, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	cursor, err := s.votes.Find(ctx,
		bson.M{"libraryId": libraryID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer cursor.Close(ctx)

	votes := []models.PhotoVote{}
	if err := cursor.All(ctx, &votes); err != nil {
		return nil, fmt.Errorf("failed to decode votes: %w", err)
	}
	return votes, nil
}
