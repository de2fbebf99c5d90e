package storefront

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/event"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

const (
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// availabilityLocked snapshots the current available amount of the given
// catalog products. Unknown ids are skipped.
func (s *Service) availabilityLocked(ids ...string) map[string]int {
	out := make(map[string]int, len(ids))
	for _, id := range ids {
		if p, ok := s.catalog.ByID(id); ok {
			out[id] = p.AvailableAmount
		}
	}
	return out
}

// movementsLocked turns the difference between before and the current
// availability into reserve or release events.
func (s *Service) movementsLocked(before map[string]int) []event.Event {
	var events []event.Event
	for id, was := range before {
		p, ok := s.catalog.ByID(id)
		if !ok || p.AvailableAmount == was {
			continue
		}
		reason := catalog.ReasonRelease
		if p.AvailableAmount < was {
			reason = catalog.ReasonReserve
		}
		original, _ := s.catalog.OriginalAmount(id)
		events = append(events, catalog.NewAvailabilityChangedEvent(id, was, p.AvailableAmount, original, reason))
	}
	return events
}

// publish hands events to the publisher one by one. Failures are returned
// for logging only; the state change they describe has already happened.
func (s *Service) publish(ctx context.Context, events []event.Event) []error {
	if s.publisher == nil {
		return nil
	}
	var errs []error
	for _, e := range events {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		start := time.Now()
		err := s.publisher.Publish(pubCtx, e)
		cancel()

		outcome := "success"
		if err != nil {
			outcome = "error"
			errs = append(errs, err)
		}
		s.extCounter.Add(1,
			observability.L("peer", publishPeer),
			observability.L("endpoint", e.EventName()),
			observability.L("outcome", outcome),
		)
		s.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", publishPeer),
			observability.L("endpoint", e.EventName()),
		)
	}
	return errs
}
