package section

import (
	"context"
	"errors"

	"github.com/nao1215/aimap/internal/events"
)

// Events reports the declared event listeners.
type Events struct {
	env *Env
}

// Key implements pipeline.Producer.
func (Events) Key() string { return KeyEventListeners }

// Produce implements pipeline.Producer. A missing provider or any failure
// yields an empty list.
func (e Events) Produce(ctx context.Context) (any, error) {
	listing, err := e.env.Listeners.Listing(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, events.ErrNoProvider) {
			e.env.Logger.Warn("could not analyze event listeners", "error", err)
		}
		return []any{}, nil
	}
	return listing, nil
}
