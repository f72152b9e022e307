package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"focusnotebook/internal/database"
	"focusnotebook/internal/models"

	gocache "github.com/patrickmn/go-cache"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// analysisCacheTTL bounds how stale a spending analysis can get between
// writes. Writes invalidate eagerly; the TTL is the backstop.
const analysisCacheTTL = 5 * time.Minute

// SubscriptionService manages recurring expenses and spending analytics
type SubscriptionService struct {
	collection    *mongo.Collection
	publisher     ChangePublisher
	analysisCache *gocache.Cache
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(db *database.MongoDB, publisher ChangePublisher) *SubscriptionService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &SubscriptionService{
		collection:    db.Collection(database.CollectionSubscriptions),
		publisher:     publisher,
		analysisCache: gocache.New(analysisCacheTTL, 10*time.Minute),
	}
}

// Create inserts a new subscription
func (s *SubscriptionService) Create(ctx context.Context, userID string, req *models.CreateSubscriptionRequest) (*models.Subscription, error) {
	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	if req.Cost < 0 {
		return nil, errors.New("cost must not be negative")
	}
	if err := validateBillingCycle(req.BillingCycle); err != nil {
		return nil, err
	}

	now := time.Now()
	sub := &models.Subscription{
		ID:              primitive.NewObjectID(),
		UserID:          userID,
		Name:            req.Name,
		Category:        req.Category,
		Cost:            req.Cost,
		BillingCycle:    req.BillingCycle,
		Status:          models.SubStatusActive,
		NextBillingDate: req.NextBillingDate,
		CreatedAt:       now,
		UpdatedAt:       now.UnixMilli(),
	}

	if _, err := s.collection.InsertOne(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to insert subscription: %w", err)
	}

	s.invalidateAnalysis(userID)
	s.publishSubscription(ctx, sub)
	return sub, nil
}

func validateBillingCycle(cycle string) error {
	switch cycle {
	case models.CycleMonthly, models.CycleQuarterly, models.CycleYearly, models.CycleOneTime:
		return nil
	default:
		return fmt.Errorf("invalid billing cycle: %q", cycle)
	}
}

// List returns all subscriptions for a user
func (s *SubscriptionService) List(ctx context.Context, userID string) ([]models.Subscription, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	subs := []models.Subscription{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", err)
	}
	return subs, nil
}

// Update applies a partial update to a subscription
func (s *SubscriptionService) Update(ctx context.Context, userID, subID string, req *models.UpdateSubscriptionRequest) (*models.Subscription, error) {
	oid, err := primitive.ObjectIDFromHex(subID)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now().UnixMilli()}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Category != nil {
		set["category"] = *req.Category
	}
	if req.Cost != nil {
		if *req.Cost < 0 {
			return nil, errors.New("cost must not be negative")
		}
		set["cost"] = *req.Cost
	}
	if req.BillingCycle != nil {
		if err := validateBillingCycle(*req.BillingCycle); err != nil {
			return nil, err
		}
		set["billingCycle"] = *req.BillingCycle
	}
	if req.Status != nil {
		switch *req.Status {
		case models.SubStatusActive, models.SubStatusCancelled, models.SubStatusPaused:
		default:
			return nil, fmt.Errorf("invalid status: %q", *req.Status)
		}
		set["status"] = *req.Status
	}
	if req.NextBillingDate != nil {
		set["nextBillingDate"] = *req.NextBillingDate
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var sub models.Subscription
	if err := result.Decode(&sub); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	s.invalidateAnalysis(userID)
	s.publishSubscription(ctx, &sub)
	return &sub, nil
}

// Delete removes a subscription
func (s *SubscriptionService) Delete(ctx context.Context, userID, subID string) error {
	oid, err := primitive.ObjectIDFromHex(subID)
	if err != nil {
		return ErrNotFound
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	s.invalidateAnalysis(userID)
	s.publisher.PublishChange(ctx, userID, models.ChangeEvent{
		Collection: database.CollectionSubscriptions,
		DocID:      subID,
		UpdatedAt:  time.Now().UnixMilli(),
		Deleted:    true,
	})
	return nil
}

// Upcoming returns active subscriptions billing within the given window
func (s *SubscriptionService) Upcoming(ctx context.Context, userID string, days int) ([]models.Subscription, error) {
	subs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	upcoming := []models.Subscription{}
	for _, sub := range subs {
		if sub.IsActive() && sub.DueWithin(now, days) {
			upcoming = append(upcoming, sub)
		}
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].NextBillingDate.Before(*upcoming[j].NextBillingDate)
	})
	return upcoming, nil
}

// Analysis computes the spending summary for a user. Results are cached
// per user and invalidated on every subscription write.
func (s *SubscriptionService) Analysis(ctx context.Context, userID string) (*models.SpendingAnalysis, error) {
	if cached, found := s.analysisCache.Get(userID); found {
		return cached.(*models.SpendingAnalysis), nil
	}

	subs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	analysis := &models.SpendingAnalysis{
		ByCategory:  map[string]float64{},
		Upcoming:    []models.Subscription{},
		GeneratedAt: time.Now(),
	}

	var mostExpensive *models.Subscription
	now := time.Now()

	for i := range subs {
		sub := subs[i]
		if !sub.IsActive() {
			continue
		}

		analysis.ActiveCount++
		monthly := sub.MonthlyEquivalent()
		analysis.TotalMonthly += monthly
		analysis.TotalYearly += sub.YearlyCost()

		category := sub.Category
		if category == "" {
			category = "uncategorized"
		}
		analysis.ByCategory[category] += monthly

		if mostExpensive == nil || monthly > mostExpensive.MonthlyEquivalent() {
			mostExpensive = &subs[i]
		}

		if sub.DueWithin(now, 7) {
			analysis.Upcoming = append(analysis.Upcoming, sub)
		}
	}

	analysis.MostExpensive = mostExpensive

	s.analysisCache.Set(userID, analysis, gocache.DefaultExpiration)
	return analysis, nil
}

// ReportXLSX renders the user's subscriptions as a spreadsheet
func (s *SubscriptionService) ReportXLSX(ctx context.Context, userID string) (*bytes.Buffer, error) {
	subs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	analysis, err := s.Analysis(ctx, userID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Subscriptions"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Name", "Category", "Status", "Billing Cycle", "Cost", "Monthly Equivalent", "Yearly Cost", "Next Billing"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, sub := range subs {
		values := []interface{}{
			sub.Name,
			sub.Category,
			sub.Status,
			sub.BillingCycle,
			sub.Cost,
			sub.MonthlyEquivalent(),
			sub.YearlyCost(),
		}
		if sub.NextBillingDate != nil {
			values = append(values, sub.NextBillingDate.Format("2006-01-02"))
		} else {
			values = append(values, "")
		}

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	// Summary block below the table
	summaryRow := len(subs) + 3
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "Total monthly")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow), analysis.TotalMonthly)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow+1), "Total yearly")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow+1), analysis.TotalYearly)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow+2), "Active subscriptions")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow+2), analysis.ActiveCount)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render spreadsheet: %w", err)
	}
	return buf, nil
}

func (s *SubscriptionService) invalidateAnalysis(userID string) {
	s.analysisCache.Delete(userID)
}

func (s *SubscriptionService) publishSubscription(ctx context.Context, sub *models.Subscription) {
	data, err := json.Marshal(sub)
	if err != nil {
		return
	}
	s.publisher.PublishChange(ctx, sub.UserID, models.ChangeEvent{
		Collection: database.CollectionSubscriptions,
		DocID:      sub.ID.Hex(),
		UpdatedAt:  sub.UpdatedAt,
		Data:       data,
	})
}
