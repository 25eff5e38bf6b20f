package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/bryanwahyu/phishscan/internal/domain/dataset"
)

// Fanout sends one correction to several sinks, e.g. the inference
// service's dataset endpoint and the object-storage archive. Every sink is
// tried; the errors are joined.
type Fanout []dataset.Corrector

func (f Fanout) Submit(ctx context.Context, c dataset.Correction) error {
	var errs []error
	for i, sink := range f {
		if err := sink.Submit(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
