package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/google/uuid"
)

type refreshTokensRepo struct {
	s *Store
}

// copyToken returns a detached copy carrying only the stored columns.
func copyToken(t *models.RefreshToken) *models.RefreshToken {
	return &models.RefreshToken{
		ID:                  t.ID,
		TokenHash:           t.TokenHash,
		CreatedAt:           t.CreatedAt,
		ExpiresAt:           t.ExpiresAt,
		Revoked:             t.Revoked,
		ReplacedByTokenHash: t.ReplacedByTokenHash,
		IP:                  t.IP,
		UserAgent:           t.UserAgent,
	}
}

func (r *refreshTokensRepo) Create(_ context.Context, userID string, token *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.users[userID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := r.s.data.tokens[token.TokenHash]; ok {
		return common.ErrorAlreadyExists
	}

	token.ID = uuid.NewString()
	r.s.data.tokens[token.TokenHash] = tokenRow{
		userID: userID,
		seq:    r.s.nextSeq(),
		token:  *copyToken(token),
	}
	return nil
}

func (r *refreshTokensRepo) FindOwner(_ context.Context, tokenHash string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.data.tokens[tokenHash]
	if !ok {
		return "", common.ErrorNotFound
	}
	return row.userID, nil
}

func (r *refreshTokensRepo) ListByUser(_ context.Context, userID string) ([]*models.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rows []tokenRow
	for _, row := range r.s.data.tokens {
		if row.userID == userID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	result := make([]*models.RefreshToken, 0, len(rows))
	for i := range rows {
		result = append(result, copyToken(&rows[i].token))
	}
	return result, nil
}

func (r *refreshTokensRepo) Update(_ context.Context, token *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.data.tokens[token.TokenHash]
	if !ok {
		return common.ErrorNotFound
	}

	row.token.Revoked = row.token.Revoked || token.Revoked
	if row.token.ReplacedByTokenHash == "" {
		row.token.ReplacedByTokenHash = token.ReplacedByTokenHash
	}
	r.s.data.tokens[token.TokenHash] = row
	return nil
}
