package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pdf-revision-engine/internal/domain"
	apperrors "pdf-revision-engine/pkg/errors"

	"github.com/supabase-community/postgrest-go"
)

const revisionsTable = "revisions"

// TableClient is satisfied by both *supabase.Client and *postgrest.Client.
type TableClient interface {
	From(table string) *postgrest.QueryBuilder
}

// SupabaseRevisionIndex records archived revisions in a PostgREST table.
type SupabaseRevisionIndex struct {
	client TableClient
	logger domain.Logger
}

func NewSupabaseRevisionIndex(client TableClient, logger domain.Logger) *SupabaseRevisionIndex {
	return &SupabaseRevisionIndex{
		client: client,
		logger: logger,
	}
}

// Record upserts one row per session and object path.
func (r *SupabaseRevisionIndex) Record(ctx context.Context, rev domain.ArchivedRevision) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}

	row := map[string]interface{}{
		"session_id":  rev.SessionID,
		"bucket":      rev.Bucket,
		"object_path": rev.ObjectPath,
		"kind":        rev.Kind,
		"created_at":  rev.CreatedAt.Format(time.RFC3339),
	}
	_, _, err := r.client.From(revisionsTable).
		Insert(row, true, "session_id,object_path", "minimal", "").
		Execute()
	if err != nil {
		return apperrors.NewExternalServiceError(fmt.Sprintf("record revision %s", rev.ObjectPath), err)
	}
	return nil
}

// List returns the archived revisions of a session, newest first.
func (r *SupabaseRevisionIndex) List(ctx context.Context, sessionID string) ([]domain.ArchivedRevision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, _, err := r.client.From(revisionsTable).
		Select("*", "", false).
		Eq("session_id", sessionID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, apperrors.NewExternalServiceError("list revisions", err)
	}

	var rows []domain.ArchivedRevision
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return rows, nil
}

var _ domain.RevisionIndex = (*SupabaseRevisionIndex)(nil)
