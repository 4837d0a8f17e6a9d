// Package refreshtokens declares the server-side repository contract for
// refresh token records. Only token hashes are ever stored.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// Repository persists refresh token records. Records are never deleted.
type Repository interface {
	// Create stores a new record for userID and fills in its ID.
	Create(ctx context.Context, userID string, token *models.RefreshToken) error

	// FindOwner returns the ID of the user owning the record with the given
	// hash, or common.ErrorNotFound.
	FindOwner(ctx context.Context, tokenHash string) (string, error)

	// ListByUser returns every record of the user, oldest first.
	ListByUser(ctx context.Context, userID string) ([]*models.RefreshToken, error)

	// Update writes the revocation flag and replacement link of an existing
	// record. Storage never un-revokes a record or overwrites a replacement.
	Update(ctx context.Context, token *models.RefreshToken) error
}
