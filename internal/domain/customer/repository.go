package customer

import (
	"context"
)

// Repository persists the whole customer collection. Save always receives
// every record and overwrites what was stored before.
type Repository interface {
	Load(ctx context.Context) ([]Record, error)

	Save(ctx context.Context, records []Record) error
}
