package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"focusnotebook/internal/database"
	"focusnotebook/internal/logging"
	"focusnotebook/internal/models"

	"github.com/yuin/goldmark"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrAILimitReached is returned when a user exhausts their daily AI budget
var ErrAILimitReached = errors.New("daily AI request limit reached")

const thoughtSystemPrompt = `You are an assistant inside a personal notebook app. ` +
	`Given one captured thought, respond with ONLY a JSON object of the form ` +
	`{"actions":[...]}. Allowed actions: ` +
	`{"type":"create_task","title":"...","due_date":"YYYY-MM-DD"} for any actionable item, ` +
	`{"type":"add_tags","tags":["..."]} for topical tags, ` +
	`{"type":"set_analysis","analysis":{"distortions":["..."],"reframe":"...","intensity":1-10}} ` +
	`when the thought expresses worry or negative self-talk. ` +
	`Emit no actions if none apply. No prose, no markdown.`

// aiResponse is the JSON shape the model is instructed to return
type aiResponse struct {
	Actions []models.AIAction `json:"actions"`
}

// AIService runs the background thought processing pipeline
type AIService struct {
	requests  *mongo.Collection
	thoughts  *ThoughtService
	tasks     *TaskService
	providers *ProviderService
	client    *ChatClient
	redis     *RedisService
	metrics   *Metrics

	dailyLimit int64
}

// NewAIService creates the AI pipeline service
func NewAIService(db *database.MongoDB, thoughts *ThoughtService, tasks *TaskService, providers *ProviderService, redis *RedisService, metrics *Metrics, dailyLimit int) *AIService {
	return &AIService{
		requests:   db.Collection(database.CollectionLLMRequests),
		thoughts:   thoughts,
		tasks:      tasks,
		providers:  providers,
		client:     NewChatClient(),
		redis:      redis,
		metrics:    metrics,
		dailyLimit: int64(dailyLimit),
	}
}

// ProcessThought enqueues a thought for background processing and returns
// the request record the client can poll
func (s *AIService) ProcessThought(ctx context.Context, userID, thoughtID string) (*models.LLMRequest, error) {
	thought, err := s.thoughts.Get(ctx, userID, thoughtID)
	if err != nil {
		return nil, err
	}

	if s.redis != nil && s.dailyLimit > 0 {
		key := fmt.Sprintf("ai:quota:%s:%s", userID, time.Now().UTC().Format("2006-01-02"))
		_, exceeded, err := s.redis.CheckRateLimit(ctx, key, s.dailyLimit, 24*time.Hour)
		if err != nil {
			log.Printf("⚠️  AI quota check failed, allowing request: %v", err)
		} else if exceeded {
			return nil, ErrAILimitReached
		}
	}

	provider, err := s.providers.GetDefault()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	request := &models.LLMRequest{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		ThoughtID: thoughtID,
		Model:     provider.DefaultModel,
		Prompt:    thought.Text,
		Status:    models.LLMStatusPending,
		CreatedAt: now,
		UpdatedAt: now.UnixMilli(),
	}

	if _, err := s.requests.InsertOne(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create AI request: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordAIRequest()
	}

	// Fire and forget: the client polls GET /requests/:id for the outcome
	go s.run(request.ID, userID, thought, provider)

	return request, nil
}

// GetRequest returns an AI request record for polling
func (s *AIService) GetRequest(ctx context.Context, userID, requestID string) (*models.LLMRequest, error) {
	oid, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		return nil, ErrNotFound
	}

	var request models.LLMRequest
	err = s.requests.FindOne(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&request)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get AI request: %w", err)
	}
	return &request, nil
}

// run executes one pipeline trip in the background
func (s *AIService) run(requestID primitive.ObjectID, userID string, thought *models.Thought, provider *models.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	logger := logging.WithAIRequest(slog.Default(), requestID.Hex(), thought.ID.Hex())
	started := time.Now()

	s.setStatus(ctx, requestID, models.LLMStatusProcessing, nil)

	apiKey, err := s.providers.APIKeyPlaintext(provider)
	if err != nil {
		s.fail(ctx, requestID, logger, "credentials", err)
		return
	}

	completion, err := s.client.Complete(ctx, provider, apiKey, &models.ChatCompletionRequest{
		Messages: []models.AIMessage{
			{Role: "system", Content: thoughtSystemPrompt},
			{Role: "user", Content: thought.Text},
		},
		Temperature: 0.2,
		MaxTokens:   1024,
	})
	if err != nil {
		s.fail(ctx, requestID, logger, "provider", err)
		return
	}

	raw := completion.Choices[0].Message.Content
	actions, err := ParseActions(raw)
	if err != nil {
		s.fail(ctx, requestID, logger, "parse", err)
		return
	}

	applied := s.applyActions(ctx, userID, thought, provider.DefaultModel, actions)

	_, err = s.requests.UpdateByID(ctx, requestID, bson.M{"$set": bson.M{
		"status":      models.LLMStatusCompleted,
		"rawResponse": raw,
		"actions":     applied,
		"usage":       completion.Usage,
		"updatedAt":   time.Now().UnixMilli(),
	}})
	if err != nil {
		logger.Error("failed to persist AI result", "error", err)
	}

	if s.metrics != nil {
		s.metrics.RecordAILatency(time.Since(started).Seconds())
	}
	logger.Info("thought processed", "actions", len(applied), "tokens", completion.Usage.TotalTokens)
}

// applyActions executes parsed actions, skipping any that fail so one bad
// action does not discard the rest
func (s *AIService) applyActions(ctx context.Context, userID string, thought *models.Thought, model string, actions []models.AIAction) []models.AIAction {
	applied := make([]models.AIAction, 0, len(actions))

	for _, action := range actions {
		var err error
		switch action.Type {
		case models.ActionCreateTask:
			if action.Title == "" {
				continue
			}
			_, err = s.tasks.Create(ctx, userID, &models.CreateTaskRequest{
				Title:           action.Title,
				DueDate:         action.DueDate,
				SourceThoughtID: thought.ID.Hex(),
			})
		case models.ActionAddTags:
			if len(action.Tags) == 0 {
				continue
			}
			_, err = s.thoughts.AddTags(ctx, userID, thought.ID.Hex(), action.Tags)
		case models.ActionSetAnalysis:
			if action.Analysis == nil {
				continue
			}
			_, err = s.thoughts.SetAnalysis(ctx, userID, thought.ID.Hex(), action.Analysis, model)
		default:
			log.Printf("⚠️  Skipping unknown AI action type: %q", action.Type)
			continue
		}

		if err != nil {
			log.Printf("⚠️  Failed to apply AI action %s: %v", action.Type, err)
			continue
		}
		applied = append(applied, action)
	}

	return applied
}

func (s *AIService) setStatus(ctx context.Context, requestID primitive.ObjectID, status string, errValue error) {
	set := bson.M{
		"status":    status,
		"updatedAt": time.Now().UnixMilli(),
	}
	if errValue != nil {
		set["error"] = errValue.Error()
	}
	if _, err := s.requests.UpdateByID(ctx, requestID, bson.M{"$set": set}); err != nil {
		log.Printf("⚠️  Failed to update AI request status: %v", err)
	}
}

func (s *AIService) fail(ctx context.Context, requestID primitive.ObjectID, logger *slog.Logger, errorType string, err error) {
	logger.Error("thought processing failed", "stage", errorType, "error", err)
	if s.metrics != nil {
		s.metrics.RecordAIError(errorType)
	}
	s.setStatus(ctx, requestID, models.LLMStatusFailed, err)
}

// ParseActions extracts the structured actions from a model response,
// tolerating the code fences some models wrap JSON in
func ParseActions(raw string) ([]models.AIAction, error) {
	cleaned := UnwrapCodeFence(raw)

	var parsed aiResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("model response is not valid action JSON: %w", err)
	}
	return parsed.Actions, nil
}

// UnwrapCodeFence strips a surrounding markdown code fence, with or without
// a language tag. Content without a fence passes through unchanged.
func UnwrapCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	// Drop the language tag on the opening fence line
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(trimmed[:idx])
		if firstLine == "" || !strings.ContainsAny(firstLine, "{[") {
			trimmed = trimmed[idx+1:]
		}
	}

	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

// RenderAnalysisHTML renders a thought's CBT analysis as HTML for clients
// that display rich text
func RenderAnalysisHTML(analysis *models.CBTAnalysis) (string, error) {
	if analysis == nil {
		return "", errors.New("thought has no analysis")
	}

	var md strings.Builder
	if len(analysis.Distortions) > 0 {
		md.WriteString("## Distortions\n\n")
		for _, d := range analysis.Distortions {
			fmt.Fprintf(&md, "- %s\n", d)
		}
		md.WriteString("\n")
	}
	if analysis.Reframe != "" {
		md.WriteString("## Reframe\n\n")
		md.WriteString(analysis.Reframe)
		md.WriteString("\n")
	}
	if analysis.Intensity > 0 {
		fmt.Fprintf(&md, "\nIntensity: %d/10\n", analysis.Intensity)
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md.String()), &buf); err != nil {
		return "", fmt.Errorf("failed to render analysis: %w", err)
	}
	return buf.String(), nil
}
