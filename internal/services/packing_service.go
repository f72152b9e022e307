package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"focusnotebook/internal/database"
	"focusnotebook/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

// PackingService manages travel packing lists and their YAML seed templates
type PackingService struct {
	collection *mongo.Collection
	publisher  ChangePublisher
	templates  map[string]models.PackingTemplate
}

// NewPackingService creates a packing service, loading templates from the
// given directory. A missing directory is not an error; the service just
// starts with no templates.
func NewPackingService(db *database.MongoDB, publisher ChangePublisher, templateDir string) *PackingService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	s := &PackingService{
		collection: db.Collection(database.CollectionPackingLists),
		publisher:  publisher,
		templates:  make(map[string]models.PackingTemplate),
	}
	s.loadTemplates(templateDir)
	return s
}

func (s *PackingService) loadTemplates(dir string) {
	if dir == "" {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("⚠️  Packing template directory unavailable: %v", err)
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("⚠️  Failed to read packing template %s: %v", name, err)
			continue
		}

		var tmpl models.PackingTemplate
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			log.Printf("⚠️  Failed to parse packing template %s: %v", name, err)
			continue
		}
		if tmpl.Name == "" {
			tmpl.Name = strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		}
		s.templates[tmpl.Name] = tmpl
	}

	if len(s.templates) > 0 {
		log.Printf("✅ Loaded %d packing templates", len(s.templates))
	}
}

// Templates returns the available template names, sorted
func (s *PackingService) Templates() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create starts a new packing list, optionally seeded from a template
func (s *PackingService) Create(ctx context.Context, userID string, req *models.CreatePackingListRequest) (*models.PackingList, error) {
	if req.Trip == "" {
		return nil, errors.New("trip is required")
	}

	items := req.Items
	if req.Template != "" {
		tmpl, ok := s.templates[req.Template]
		if !ok {
			return nil, fmt.Errorf("unknown template: %q", req.Template)
		}
		items = append(append([]models.PackingItem{}, tmpl.Items...), items...)
	}
	if items == nil {
		items = []models.PackingItem{}
	}

	now := time.Now()
	list := &models.PackingList{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Trip:      req.Trip,
		Template:  req.Template,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now.UnixMilli(),
	}

	if _, err := s.collection.InsertOne(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to insert packing list: %w", err)
	}

	s.publishList(ctx, list)
	return list, nil
}

// List returns all packing lists for a user
func (s *PackingService) List(ctx context.Context, userID string) ([]models.PackingList, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list packing lists: %w", err)
	}
	defer cursor.Close(ctx)

	lists := []models.PackingList{}
	if err := cursor.All(ctx, &lists); err != nil {
		return nil, fmt.Errorf("failed to decode packing lists: %w", err)
	}
	return lists, nil
}

// SetItemPacked toggles one item's packed state by index
func (s *PackingService) SetItemPacked(ctx context.Context, userID, listID string, itemIndex int, packed bool) (*models.PackingList, error) {
	oid, err := primitive.ObjectIDFromHex(listID)
	if err != nil {
		return nil, ErrNotFound
	}
	if itemIndex < 0 {
		return nil, errors.New("item index must not be negative")
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{
			"_id":    oid,
			"userId": userID,
			fmt.Sprintf("items.%d", itemIndex): bson.M{"$exists": true},
		},
		bson.M{"$set": bson.M{
			fmt.Sprintf("items.%d.packed", itemIndex): packed,
			"updatedAt": time.Now().UnixMilli(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var list models.PackingList
	if err := result.Decode(&list); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update packing item: %w", err)
	}

	s.publishList(ctx, &list)
	return &list, nil
}

// Delete removes a packing list
func (s *PackingService) Delete(ctx context.Context, userID, listID string) error {
	oid, err := primitive.ObjectIDFromHex(listID)
	if err != nil {
		return ErrNotFound
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete packing list: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	s.publisher.PublishChange(ctx, userID, models.ChangeEvent{
		Collection: database.CollectionPackingLists,
		DocID:      listID,
		UpdatedAt:  time.Now().UnixMilli(),
		Deleted:    true,
	})
	return nil
}

func (s *PackingService) publishList(ctx context.Context, list *models.PackingList) {
	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	s.publisher.PublishChange(ctx, list.UserID, models.ChangeEvent{
		Collection: database.CollectionPackingLists,
		DocID:      list.ID.Hex(),
		UpdatedAt:  list.UpdatedAt,
		Data:       data,
	})
}
