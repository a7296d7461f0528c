package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"casedeck-backend/internal/models"
)

// CleanupQueue is the Redis list the image-cleanup worker pool consumes.
const CleanupQueue = "queue:image-cleanup"

// CleanupJob carries image references that are no longer reachable from any
// persisted case and should be deleted from storage.
type CleanupJob struct {
	Refs []string `json:"refs"`
}

// Notifier fans out side effects of case mutations: change events for open
// clients and cleanup jobs for the worker pool. Both are best-effort; a
// Redis hiccup must never fail a save that already hit the database.
type Notifier interface {
	PublishCaseEvent(ctx context.Context, userID uuid.UUID, eventType string, caseID uuid.UUID)
	EnqueueImageCleanup(ctx context.Context, refs []string)
}

type redisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) Notifier {
	return &redisNotifier{client: client}
}

func (n *redisNotifier) PublishCaseEvent(ctx context.Context, userID uuid.UUID, eventType string, caseID uuid.UUID) {
	payload, _ := json.Marshal(models.CaseEvent{Type: eventType, CaseID: caseID.String()})
	if err := n.client.Publish(ctx, UserEventChannel(userID), string(payload)).Err(); err != nil {
		log.Printf("Failed to publish %s for case %s: %v", eventType, caseID, err)
	}
}

func (n *redisNotifier) EnqueueImageCleanup(ctx context.Context, refs []string) {
	if len(refs) == 0 {
		return
	}
	payload, _ := json.Marshal(CleanupJob{Refs: refs})
	if err := n.client.LPush(ctx, CleanupQueue, string(payload)).Err(); err != nil {
		log.Printf("Failed to enqueue image cleanup for %d refs: %v", len(refs), err)
	}
}

// UserEventChannel is the pub/sub channel carrying one user's case events.
func UserEventChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:events", userID)
}
