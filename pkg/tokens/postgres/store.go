// Package postgres provides PostgreSQL storage for Strava OAuth tokens,
// for deployments where the MCP server runs in a container and a local
// token file would not survive rescheduling.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/txn2/mcp-strava/pkg/tokens"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const tokensTable = "strava_tokens"

// Store implements tokens.Store using PostgreSQL. The table holds at most
// one logical record; Save replaces it transactionally so concurrent readers
// never observe a half-written set.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL token store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Load returns the stored token set, or (nil, nil) when none exists.
func (s *Store) Load(ctx context.Context) (*tokens.TokenSet, error) {
	query, args, err := psq.
		Select("access_token", "refresh_token", "expires_at").
		From(tokensTable).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building load query: %w", err)
	}

	var set tokens.TokenSet
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&set.AccessToken,
		&set.RefreshToken,
		&set.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading tokens: %w", err)
	}
	return &set, nil
}

// Save replaces any stored set inside a transaction.
func (s *Store) Save(ctx context.Context, set *tokens.TokenSet) error {
	if err := set.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	delQuery, delArgs, err := psq.Delete(tokensTable).ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, delQuery, delArgs...); err != nil {
		return fmt.Errorf("clearing previous tokens: %w", err)
	}

	insQuery, insArgs, err := psq.
		Insert(tokensTable).
		Columns("id", "access_token", "refresh_token", "expires_at", "updated_at").
		Values(uuid.NewString(), set.AccessToken, set.RefreshToken, set.ExpiresAt, time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insQuery, insArgs...); err != nil {
		return fmt.Errorf("saving tokens: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tokens: %w", err)
	}
	return nil
}

// Clear removes the stored set. Clearing an empty table is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	query, args, err := psq.Delete(tokensTable).ToSql()
	if err != nil {
		return fmt.Errorf("building clear query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}
	return nil
}

// Verify Store implements tokens.Store.
var _ tokens.Store = (*Store)(nil)
