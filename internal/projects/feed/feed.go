// Package feed carries change notifications for the projects table.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
)

// Channel is the single notification channel, scoped to the projects table.
const Channel = "portfolio:projects:changes"

// Feed publishes and delivers change notifications. Any subscriber sees
// changes from every writer, not only its own.
type Feed interface {
	Publish(ctx context.Context, ch domain.Change) error
	// Subscribe returns once the subscription is confirmed.
	Subscribe(ctx context.Context) (Subscription, error)
}

// Subscription must be closed to release the underlying connection.
type Subscription interface {
	Events() <-chan domain.Change
	Close() error
}

func encode(ch domain.Change) (string, error) {
	b, err := json.Marshal(ch)
	if err != nil {
		return "", fmt.Errorf("encode change: %w", err)
	}
	return string(b), nil
}

func decode(payload string) (domain.Change, error) {
	var ch domain.Change
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		return domain.Change{}, fmt.Errorf("decode change: %w", err)
	}
	return ch, nil
}
