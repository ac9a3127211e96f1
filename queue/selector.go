package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/mailops/postq/consts"
	"github.com/mailops/postq/pkg/metrics"
)

// Filter operation names, as recorded in the invocation log.
const (
	FilterStatus = "status"
	FilterSender = "sender"
	FilterError  = "error"
	FilterDate   = "date"
	FilterSize   = "size"
)

// Invocation records one successful filter call: the operation name and
// the arguments it was called with. The log of invocations makes a
// selection replayable against a freshly reloaded snapshot.
type Invocation struct {
	Op   string
	Args []any
}

// Pipeline holds a working subset of a store's records and narrows it
// through chained filter calls. Filters intersect: each call keeps only
// the records of the current working list matching its predicate, and
// appends itself to the invocation log before returning. A Pipeline is
// not safe for concurrent mutation; concurrent callers must each hold
// their own instance over the shared store snapshot.
type Pipeline struct {
	store       *Store
	records     []*Record
	invocations []Invocation
}

// NewPipeline returns a pipeline whose working list is a copy of the
// store's current snapshot.
func NewPipeline(store *Store) *Pipeline {
	p := &Pipeline{store: store}
	p.Reset()
	return p
}

// Records returns the current working list.
func (p *Pipeline) Records() []*Record {
	return p.records
}

// Invocations returns a copy of the invocation log.
func (p *Pipeline) Invocations() []Invocation {
	return append([]Invocation(nil), p.invocations...)
}

// Reset reinitializes the working list from the store and clears the
// invocation log.
func (p *Pipeline) Reset() {
	p.records = nil
	p.records = append([]*Record(nil), p.store.Records()...)
	p.invocations = nil
}

// Replay reinitializes the working list from the store, picking up any
// newer snapshot, and reapplies the logged invocations in their
// original order. The log itself is preserved.
func (p *Pipeline) Replay() error {
	p.records = nil
	p.records = append([]*Record(nil), p.store.Records()...)

	replayed := p.invocations
	p.invocations = nil
	for _, inv := range replayed {
		if err := p.apply(inv); err != nil {
			return fmt.Errorf("failed to replay filter '%s': %w", inv.Op, err)
		}
	}
	return nil
}

// apply re-invokes one logged filter. Arguments were validated when the
// invocation was recorded.
func (p *Pipeline) apply(inv Invocation) error {
	switch inv.Op {
	case FilterStatus:
		p.LookupStatus(inv.Args[0].([]Status)...)
	case FilterSender:
		p.LookupSender(inv.Args[0].(string), inv.Args[1].(bool))
	case FilterError:
		p.LookupError(inv.Args[0].(string))
	case FilterDate:
		_, err := p.LookupDate(inv.Args[0].(*time.Time), inv.Args[1].(*time.Time))
		return err
	case FilterSize:
		p.LookupSize(inv.Args[0].(int64), inv.Args[1].(int64))
	default:
		return fmt.Errorf("%w: %s", consts.ErrUnknownOperation, inv.Op)
	}
	return nil
}

func (p *Pipeline) record(op string, args ...any) {
	p.invocations = append(p.invocations, Invocation{Op: op, Args: args})
	metrics.FilterInvocationsTotal.WithLabelValues(op).Inc()
}

// keep narrows the working list in place to the records matching the
// predicate.
func (p *Pipeline) keep(match func(*Record) bool) []*Record {
	kept := p.records[:0]
	for _, rec := range p.records {
		if match(rec) {
			kept = append(kept, rec)
		}
	}
	// Drop references past the new end so filtered-out records are
	// collectable.
	for i := len(kept); i < len(p.records); i++ {
		p.records[i] = nil
	}
	p.records = kept
	return p.records
}

// LookupStatus keeps records whose status is in the given set.
func (p *Pipeline) LookupStatus(statuses ...Status) []*Record {
	p.record(FilterStatus, append([]Status(nil), statuses...))
	return p.keep(func(rec *Record) bool {
		for _, status := range statuses {
			if rec.Status == status {
				return true
			}
		}
		return false
	})
}

// LookupSender keeps records from a specific envelope sender. With
// exact unset the match is a substring match, allowing partial senders
// like "@domain.com" or "user@".
func (p *Pipeline) LookupSender(sender string, exact bool) []*Record {
	p.record(FilterSender, sender, exact)
	return p.keep(func(rec *Record) bool {
		if exact {
			return rec.Sender == sender
		}
		return strings.Contains(rec.Sender, sender)
	})
}

// LookupError keeps records with at least one delivery error containing
// the given text.
func (p *Pipeline) LookupError(errorMsg string) []*Record {
	p.record(FilterError, errorMsg)
	return p.keep(func(rec *Record) bool {
		for _, deliveryError := range rec.DeliveryErrors {
			if strings.Contains(deliveryError, errorMsg) {
				return true
			}
		}
		return false
	})
}

// LookupDate keeps records received within [start, stop] inclusive. Both
// bounds are optional but at least one is required; a nil start defaults
// to the epoch, a nil stop to now. With both nil the call fails with
// ErrDateRangeRequired and leaves the working list and invocation log
// untouched.
func (p *Pipeline) LookupDate(start, stop *time.Time) ([]*Record, error) {
	if start == nil && stop == nil {
		return nil, consts.ErrDateRangeRequired
	}

	// The nil-ness of the bounds is recorded, not their resolved
	// values: a replayed open stop bound resolves against the fresh
	// "now".
	p.record(FilterDate, start, stop)

	lower := time.Unix(0, 0)
	if start != nil {
		lower = *start
	}
	upper := time.Now()
	if stop != nil {
		upper = *stop
	}

	return p.keep(func(rec *Record) bool {
		return !rec.ReceivedAt.Before(lower) && !rec.ReceivedAt.After(upper)
	}), nil
}

// LookupSize keeps records within the given size bounds. A zero max
// means unbounded; with both arguments zero the call is a no-op
// returning the working list unchanged.
func (p *Pipeline) LookupSize(min, max int64) []*Record {
	p.record(FilterSize, min, max)
	if min == 0 && max == 0 {
		return p.records
	}
	return p.keep(func(rec *Record) bool {
		if rec.Size < min {
			return false
		}
		return max == 0 || rec.Size <= max
	})
}
