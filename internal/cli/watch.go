package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/strata"
	"github.com/aretw0/strata/pkg/domain"
)

// WatchAttribute prints the composed value of attr at path on the stage
// rooted at layerID, then again every time an external change alters it.
// It returns when ctx is done or the change feed closes.
func WatchAttribute(ctx context.Context, engine *strata.Engine, layerID string, path domain.Path, attr string, w io.Writer, logger *slog.Logger) error {
	st, err := engine.OpenStage(ctx, layerID)
	if err != nil {
		return err
	}
	changes, err := engine.Watch(ctx)
	if err != nil {
		return err
	}

	last := describe(st.GetAttributeValue(ctx, path, attr))
	fmt.Fprintf(w, "%s.%s = %s\n", path, attr, last)

	for {
		select {
		case <-ctx.Done():
			return nil
		case id, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("Layer changed", "layer", id)
			current := describe(st.GetAttributeValue(ctx, path, attr))
			if current == last {
				continue
			}
			last = current
			fmt.Fprintf(w, "%s.%s = %s (after %s)\n", path, attr, current, id)
		}
	}
}

func describe(v domain.Value, ok bool) string {
	if !ok {
		return "<none>"
	}
	return v.String()
}
