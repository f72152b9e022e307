package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LLM request status constants
const (
	LLMStatusPending    = "pending"
	LLMStatusProcessing = "processing"
	LLMStatusCompleted  = "completed"
	LLMStatusFailed     = "failed"
)

// AI action types the pipeline may emit
const (
	ActionCreateTask  = "create_task"
	ActionAddTags     = "add_tags"
	ActionSetAnalysis = "set_analysis"
)

// AIAction is one structured action parsed from a model response
type AIAction struct {
	Type     string       `bson:"type" json:"type"`
	Title    string       `bson:"title,omitempty" json:"title,omitempty"`
	DueDate  string       `bson:"dueDate,omitempty" json:"due_date,omitempty"`
	Tags     []string     `bson:"tags,omitempty" json:"tags,omitempty"`
	Analysis *CBTAnalysis `bson:"analysis,omitempty" json:"analysis,omitempty"`
}

// TokenUsage mirrors the provider's token accounting
type TokenUsage struct {
	PromptTokens     int `bson:"promptTokens" json:"prompt_tokens"`
	CompletionTokens int `bson:"completionTokens" json:"completion_tokens"`
	TotalTokens      int `bson:"totalTokens" json:"total_tokens"`
}

// LLMRequest logs one trip through the AI pipeline. The client polls it by ID
// while the pipeline runs in the background.
type LLMRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"userId" json:"user_id"`
	ThoughtID   string             `bson:"thoughtId,omitempty" json:"thought_id,omitempty"`
	Model       string             `bson:"model" json:"model"`
	Prompt      string             `bson:"prompt" json:"prompt"`
	RawResponse string             `bson:"rawResponse,omitempty" json:"raw_response,omitempty"`
	Actions     []AIAction         `bson:"actions,omitempty" json:"actions,omitempty"`
	Usage       TokenUsage         `bson:"usage" json:"usage"`
	Status      string             `bson:"status" json:"status"`
	Error       string             `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   int64              `bson:"updatedAt" json:"updated_at"`
}

// AIMessage is one message in a chat-completions request
type AIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the wire format for an OpenAI-compatible provider
type ChatCompletionRequest struct {
	Model       string      `json:"model"`
	Messages    []AIMessage `json:"messages"`
	Temperature float64     `json:"temperature,omitempty"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
	Stream      bool        `json:"stream"`
}

// ChatCompletionResponse is the provider's reply
type ChatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage TokenUsage `json:"usage"`
}
