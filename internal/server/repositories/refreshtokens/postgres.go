// Package refreshtokens provides a PostgreSQL-backed repository for refresh
// token records used by the session flow.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, created_at, expires_at, revoked, replaced_by_token_hash, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		userID, token.TokenHash, token.CreatedAt, token.ExpiresAt, token.Revoked,
		nullString(token.ReplacedByTokenHash), token.IP, token.UserAgent,
	).Scan(&token.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindOwner(ctx context.Context, tokenHash string) (string, error) {
	query := `
		SELECT user_id
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	var userID string
	if err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return userID, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.RefreshToken, error) {
	query := `
		SELECT id, token_hash, created_at, expires_at, revoked, replaced_by_token_hash, ip, user_agent
		FROM refresh_tokens
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var tokens []*models.RefreshToken
	for rows.Next() {
		t := &models.RefreshToken{}
		var replacedBy sql.NullString
		if err := rows.Scan(&t.ID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt, &t.Revoked, &replacedBy, &t.IP, &t.UserAgent); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		t.ReplacedByTokenHash = replacedBy.String
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tokens, nil
}

func (r *PostgresRepository) Update(ctx context.Context, token *models.RefreshToken) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = revoked OR $2,
		    replaced_by_token_hash = COALESCE(replaced_by_token_hash, $3)
		WHERE token_hash = $1
	`
	res, err := r.db.ExecContext(ctx, query, token.TokenHash, token.Revoked, nullString(token.ReplacedByTokenHash))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
