package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides identity and bookkeeping fields for stored records
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

// NewBaseEntity creates a new base entity with a generated ID stamped at now
func NewBaseEntity(now time.Time) BaseEntity {
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// Touch records a modification
func (e *BaseEntity) Touch(now time.Time) {
	e.UpdatedAt = now
	e.Version++
}
