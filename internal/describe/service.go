// Package describe generates customer-facing dish descriptions.
//
// The adapter is best-effort: it never returns an error to callers. When
// generation fails or is unavailable it hands back a low-confidence fallback
// description, so the enrichment pipeline always has something to show.
package describe

import (
	"context"

	"menulens/internal/menu"
)

// Service generates a description for a single dish. Implementations must
// always return a usable description; failures degrade to a fallback value
// rather than propagating as errors.
type Service interface {
	GenerateDescription(ctx context.Context, dishName, price string) menu.DishDescription
}
