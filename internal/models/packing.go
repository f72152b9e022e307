package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PackingItem is one line on a travel packing list
type PackingItem struct {
	Name     string `bson:"name" json:"name" yaml:"name"`
	Category string `bson:"category,omitempty" json:"category,omitempty" yaml:"category,omitempty"`
	Packed   bool   `bson:"packed" json:"packed" yaml:"-"`
}

// PackingList is a per-trip checklist, optionally seeded from a template
type PackingList struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"user_id"`
	Trip      string             `bson:"trip" json:"trip"`
	Template  string             `bson:"template,omitempty" json:"template,omitempty"`
	Items     []PackingItem      `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt int64              `bson:"updatedAt" json:"updated_at"` // unix millis, sync merge key
}

// PackedCount returns how many items are already packed
func (p *PackingList) PackedCount() int {
	n := 0
	for _, item := range p.Items {
		if item.Packed {
			n++
		}
	}
	return n
}

// PackingTemplate is a reusable list definition loaded from YAML seeds
type PackingTemplate struct {
	Name  string        `yaml:"name" json:"name"`
	Items []PackingItem `yaml:"items" json:"items"`
}

// CreatePackingListRequest is the request body for creating a packing list
type CreatePackingListRequest struct {
	Trip     string        `json:"trip"`
	Template string        `json:"template,omitempty"`
	Items    []PackingItem `json:"items,omitempty"`
}
