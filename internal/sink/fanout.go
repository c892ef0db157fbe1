package sink

import (
	"errors"

	"github.com/stairlog/agent/internal/fault"
)

// Fanout appends every sample to each of its sinks. A failing sink does not
// stop the others from receiving the sample.
type Fanout []Sink

func (f Fanout) Append(dest Destination, s Sample) error {
	var errs []error
	for _, sk := range f {
		if err := sk.Append(dest, s); err != nil {
			errs = append(errs, err)
		}
	}
	return fault.New(fault.SinkWrite, "fanout "+dest.Key(), errors.Join(errs...))
}

func (f Fanout) Close() error {
	var errs []error
	for _, sk := range f {
		if err := sk.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
