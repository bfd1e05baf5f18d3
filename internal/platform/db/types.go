package db

import "github.com/google/uuid"

// NullUUID maps uuid.Nil to SQL NULL.
func NullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
