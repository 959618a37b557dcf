package alert

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, a *Alert) error
	List(ctx context.Context, limit, offset int) ([]*Alert, int, error)
}
