package jobs

import (
	"context"
	"fmt"
	"log"

	"focusnotebook/internal/database"
	"focusnotebook/internal/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// BillingReminderJob surfaces subscriptions billing soon. It runs daily and
// warms each user's spending analysis so the dashboard reads from cache.
type BillingReminderJob struct {
	subscriptions       *mongo.Collection
	subscriptionService *services.SubscriptionService
	reminderDays        int
}

// NewBillingReminderJob creates a new billing reminder job
func NewBillingReminderJob(db *database.MongoDB, subscriptionService *services.SubscriptionService, reminderDays int) *BillingReminderJob {
	if reminderDays <= 0 {
		reminderDays = 7
	}
	return &BillingReminderJob{
		subscriptions:       db.Collection(database.CollectionSubscriptions),
		subscriptionService: subscriptionService,
		reminderDays:        reminderDays,
	}
}

// Run checks every user with subscriptions for upcoming bills
func (j *BillingReminderJob) Run(ctx context.Context) error {
	userIDs, err := j.userIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate subscription users: %w", err)
	}

	reminded := 0
	for _, userID := range userIDs {
		upcoming, err := j.subscriptionService.Upcoming(ctx, userID, j.reminderDays)
		if err != nil {
			log.Printf("⚠️  [BILLING] Failed to check upcoming bills for user %s: %v", userID, err)
			continue
		}
		if len(upcoming) == 0 {
			continue
		}

		for _, sub := range upcoming {
			if sub.NextBillingDate == nil {
				continue
			}
			log.Printf("💳 [BILLING] User %s: %s bills %.2f on %s",
				userID, sub.Name, sub.Cost, sub.NextBillingDate.Format("2006-01-02"))
		}
		reminded++

		// Refresh the cached analysis while we are here
		if _, err := j.subscriptionService.Analysis(ctx, userID); err != nil {
			log.Printf("⚠️  [BILLING] Failed to warm analysis for user %s: %v", userID, err)
		}
	}

	log.Printf("💳 [BILLING] Reminder pass complete: %d/%d users have upcoming bills", reminded, len(userIDs))
	return nil
}

func (j *BillingReminderJob) userIDs(ctx context.Context) ([]string, error) {
	results, err := j.subscriptions.Distinct(ctx, "userId", bson.M{"status": "active"})
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(results))
	for _, result := range results {
		if userID, ok := result.(string); ok {
			userIDs = append(userIDs, userID)
		}
	}
	return userIDs, nil
}
