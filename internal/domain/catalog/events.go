package catalog

import "time"

const (
	ReasonReserve = "reserve"
	ReasonRelease = "release"
	ReasonReload  = "reload"
)

// AvailabilityChangedEvent is emitted whenever a product's available amount
// moves because of a cart operation or a catalog reload.
type AvailabilityChangedEvent struct {
	ProductID  string
	Before     int
	After      int
	Original   int
	Reason     string
	OccurredAt time.Time
}

func (AvailabilityChangedEvent) EventName() string { return "catalog.availability_changed" }

func NewAvailabilityChangedEvent(productID string, before, after, original int, reason string) AvailabilityChangedEvent {
	return AvailabilityChangedEvent{
		ProductID:  productID,
		Before:     before,
		After:      after,
		Original:   original,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}

// ReloadedEvent is emitted after the product list has been replaced.
type ReloadedEvent struct {
	Products     int
	DroppedLines []string
	OccurredAt   time.Time
}

func (ReloadedEvent) EventName() string { return "catalog.reloaded" }

func NewReloadedEvent(products int, droppedLines []string) ReloadedEvent {
	return ReloadedEvent{
		Products:     products,
		DroppedLines: droppedLines,
		OccurredAt:   time.Now().UTC(),
	}
}
