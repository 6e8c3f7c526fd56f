package storage

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/lucid/internal/apperr"
)

// uuidID is the identifier used by the SQL backends.
type uuidID uuid.UUID

func (id uuidID) String() string {
	return uuid.UUID(id).String()
}

func newUUIDID() uuidID {
	return uuidID(uuid.New())
}

func parseUUIDID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidID, s)
	}
	return uuidID(u), nil
}

func asUUIDID(id ID) (uuidID, error) {
	u, ok := id.(uuidID)
	if !ok {
		return uuidID{}, fmt.Errorf("%w: foreign identifier %v", apperr.ErrInvalidID, id)
	}
	return u, nil
}
