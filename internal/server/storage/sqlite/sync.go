package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/internal/server/storage"
)

// PutConnection writes a connection edge into the owner's tree and appends
// a change feed entry in the same transaction.
func (s *Storage) PutConnection(ctx context.Context, ownerID string, conn *models.Connection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM connections WHERE owner_id = ? AND partner_id = ?`,
		ownerID, conn.PartnerID,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("failed to check existing connection: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO connections (
			owner_id, partner_id, partner_handle, partner_display,
			connected_at, synced_site_id, synced_site_name
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		ownerID,
		conn.PartnerID,
		conn.PartnerHandle,
		conn.PartnerDisplay,
		conn.ConnectedAt,
		conn.SyncedSiteID,
		conn.SyncedSiteName,
	)
	if err != nil {
		return fmt.Errorf("failed to put connection: %w", err)
	}

	kind := models.ChangeAdded
	if existing > 0 {
		kind = models.ChangeModified
	}
	if err := appendChange(ctx, tx, ownerID, models.DocConnection, kind, conn.PartnerID, conn); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit connection: %w", err)
	}

	return nil
}

// GetConnections retrieves all connection edges in the owner's tree
func (s *Storage) GetConnections(ctx context.Context, ownerID string) ([]*models.Connection, error) {
	query := `
		SELECT partner_id, partner_handle, partner_display,
		       connected_at, synced_site_id, synced_site_name
		FROM connections
		WHERE owner_id = ?
		ORDER BY connected_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var conns []*models.Connection

	for rows.Next() {
		conn := &models.Connection{}
		if err := rows.Scan(
			&conn.PartnerID,
			&conn.PartnerHandle,
			&conn.PartnerDisplay,
			&conn.ConnectedAt,
			&conn.SyncedSiteID,
			&conn.SyncedSiteName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, conn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return conns, nil
}

// DeleteConnection removes the edge owner -> partner and records the removal
// in the owner's change feed.
func (s *Storage) DeleteConnection(ctx context.Context, ownerID, partnerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM connections WHERE owner_id = ? AND partner_id = ?`,
		ownerID, partnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrConnectionNotFound
	}

	if err := appendChange(ctx, tx, ownerID, models.DocConnection, models.ChangeRemoved, partnerID, nil); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit connection delete: %w", err)
	}

	return nil
}

// PutRequest writes an incoming sync request into the recipient's tree
// and appends a change feed entry in the same transaction.
func (s *Storage) PutRequest(ctx context.Context, ownerID string, req *models.SyncRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sync_requests (
			owner_id, id, from_id, from_handle, from_display,
			status, timestamp, proposed_site, proposed_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ownerID,
		req.ID,
		req.FromID,
		req.FromHandle,
		req.FromDisplay,
		string(req.Status),
		req.Timestamp,
		req.ProposedSite,
		req.ProposedName,
	)
	if err != nil {
		return fmt.Errorf("failed to put request: %w", err)
	}

	if err := appendChange(ctx, tx, ownerID, models.DocRequest, models.ChangeAdded, req.ID, req); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit request: %w", err)
	}

	return nil
}

// GetRequests retrieves requests in the owner's tree, newest first
func (s *Storage) GetRequests(ctx context.Context, ownerID string) ([]*models.SyncRequest, error) {
	query := `
		SELECT id, from_id, from_handle, from_display,
		       status, timestamp, proposed_site, proposed_name
		FROM sync_requests
		WHERE owner_id = ?
		ORDER BY timestamp DESC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var reqs []*models.SyncRequest

	for rows.Next() {
		req := &models.SyncRequest{}
		var status string
		if err := rows.Scan(
			&req.ID,
			&req.FromID,
			&req.FromHandle,
			&req.FromDisplay,
			&status,
			&req.Timestamp,
			&req.ProposedSite,
			&req.ProposedName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		req.Status = models.RequestStatus(status)
		reqs = append(reqs, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return reqs, nil
}

// GetRequest retrieves a single request by id
func (s *Storage) GetRequest(ctx context.Context, ownerID, requestID string) (*models.SyncRequest, error) {
	query := `
		SELECT id, from_id, from_handle, from_display,
		       status, timestamp, proposed_site, proposed_name
		FROM sync_requests
		WHERE owner_id = ? AND id = ?
	`

	req := &models.SyncRequest{}
	var status string

	err := s.db.QueryRowContext(ctx, query, ownerID, requestID).Scan(
		&req.ID,
		&req.FromID,
		&req.FromHandle,
		&req.FromDisplay,
		&status,
		&req.Timestamp,
		&req.ProposedSite,
		&req.ProposedName,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	req.Status = models.RequestStatus(status)

	return req, nil
}

// UpdateRequestStatus moves a request to accepted or rejected and records
// the transition in the owner's change feed.
func (s *Storage) UpdateRequestStatus(ctx context.Context, ownerID, requestID, status string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE sync_requests SET status = ? WHERE owner_id = ? AND id = ?`,
		status, ownerID, requestID,
	)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrRequestNotFound
	}

	req, err := getRequestTx(ctx, tx, ownerID, requestID)
	if err != nil {
		return err
	}

	if err := appendChange(ctx, tx, ownerID, models.DocRequest, models.ChangeModified, requestID, req); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit request status: %w", err)
	}

	return nil
}

// GetChanges returns the owner's change feed entries with seq > since,
// oldest first, and the highest sequence seen so far.
func (s *Storage) GetChanges(ctx context.Context, ownerID string, since int64) ([]*models.Change, int64, error) {
	query := `
		SELECT seq, doc, kind, doc_id, payload
		FROM changes
		WHERE owner_id = ? AND seq > ?
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, since)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query changes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var changes []*models.Change
	lastSeq := since

	for rows.Next() {
		change := &models.Change{}
		var doc, kind, payload string

		if err := rows.Scan(&change.Seq, &doc, &kind, &change.DocID, &payload); err != nil {
			return nil, 0, fmt.Errorf("failed to scan change: %w", err)
		}

		change.Doc = models.ChangeDoc(doc)
		change.Kind = models.ChangeKind(kind)

		if payload != "" {
			switch change.Doc {
			case models.DocConnection:
				conn := &models.Connection{}
				if err := json.Unmarshal([]byte(payload), conn); err != nil {
					return nil, 0, fmt.Errorf("failed to decode connection payload: %w", err)
				}
				change.Connection = conn
			case models.DocRequest:
				req := &models.SyncRequest{}
				if err := json.Unmarshal([]byte(payload), req); err != nil {
					return nil, 0, fmt.Errorf("failed to decode request payload: %w", err)
				}
				change.Request = req
			}
		}

		if change.Seq > lastSeq {
			lastSeq = change.Seq
		}
		changes = append(changes, change)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return changes, lastSeq, nil
}

// appendChange пишет запись ленты изменений со следующим seq владельца.
// Вызывается только внутри транзакции; пул с одним коннектом гарантирует,
// что выбор MAX(seq)+1 не гонится с другим писателем.
func appendChange(ctx context.Context, tx *sql.Tx, ownerID string, doc models.ChangeDoc, kind models.ChangeKind, docID string, payload any) error {
	encoded := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode change payload: %w", err)
		}
		encoded = string(data)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO changes (owner_id, seq, doc, kind, doc_id, payload)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?
		FROM changes WHERE owner_id = ?
	`, ownerID, string(doc), string(kind), docID, encoded, ownerID)

	if err != nil {
		return fmt.Errorf("failed to append change: %w", err)
	}

	return nil
}

func getRequestTx(ctx context.Context, tx *sql.Tx, ownerID, requestID string) (*models.SyncRequest, error) {
	req := &models.SyncRequest{}
	var status string

	err := tx.QueryRowContext(ctx, `
		SELECT id, from_id, from_handle, from_display,
		       status, timestamp, proposed_site, proposed_name
		FROM sync_requests
		WHERE owner_id = ? AND id = ?
	`, ownerID, requestID).Scan(
		&req.ID,
		&req.FromID,
		&req.FromHandle,
		&req.FromDisplay,
		&status,
		&req.Timestamp,
		&req.ProposedSite,
		&req.ProposedName,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	req.Status = models.RequestStatus(status)

	return req, nil
}
