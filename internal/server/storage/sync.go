package storage

import (
	"context"

	"github.com/conslogger/conslogger/internal/models"
)

// SyncStorage defines interface for sync graph persistence.
// Каждая запись живёт в дереве конкретного владельца; зеркальное ребро
// пишется в дерево партнёра отдельной операцией.
type SyncStorage interface {
	// PutConnection writes a connection edge into the owner's tree,
	// keyed by the partner's user id. Replaces an existing edge.
	PutConnection(ctx context.Context, ownerID string, conn *models.Connection) error

	// GetConnections retrieves all connection edges in the owner's tree
	GetConnections(ctx context.Context, ownerID string) ([]*models.Connection, error)

	// DeleteConnection removes the edge owner -> partner
	// Returns ErrConnectionNotFound if edge doesn't exist
	DeleteConnection(ctx context.Context, ownerID, partnerID string) error

	// PutRequest writes an incoming sync request into the recipient's tree
	PutRequest(ctx context.Context, ownerID string, req *models.SyncRequest) error

	// GetRequests retrieves requests in the owner's tree, pending first
	GetRequests(ctx context.Context, ownerID string) ([]*models.SyncRequest, error)

	// GetRequest retrieves a single request by id
	// Returns ErrRequestNotFound if request doesn't exist
	GetRequest(ctx context.Context, ownerID, requestID string) (*models.SyncRequest, error)

	// UpdateRequestStatus moves a request to accepted or rejected
	// Returns ErrRequestNotFound if request doesn't exist
	UpdateRequestStatus(ctx context.Context, ownerID, requestID, status string) error

	// GetChanges returns the owner's change feed entries with seq > since,
	// oldest first, and the highest sequence seen so far.
	GetChanges(ctx context.Context, ownerID string, since int64) ([]*models.Change, int64, error)
}
