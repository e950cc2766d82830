package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/castaxyz/vetcare-stable/internal/model"
)

var (
	// ErrNotAvailable means the requested window overlaps an active
	// appointment of the same veterinarian.
	ErrNotAvailable = errors.New("the requested time window is not available")

	// ErrOverRelease means a reservation release asked for more units than
	// are currently reserved on the lot walk.
	ErrOverRelease = errors.New("release exceeds reserved quantity")

	// ErrNoOpAdjustment means an adjustment's target equals the current total.
	ErrNoOpAdjustment = errors.New("adjustment matches current stock, nothing to do")
)

// InvalidTransitionError reports a forbidden appointment status change,
// naming the statuses the target can be reached from.
type InvalidTransitionError struct {
	From        model.AppointmentStatus
	To          model.AppointmentStatus
	AllowedFrom []model.AppointmentStatus
}

func (e *InvalidTransitionError) Error() string {
	if len(e.AllowedFrom) == 0 {
		return fmt.Sprintf("cannot transition appointment from %s to %s", e.From, e.To)
	}
	sources := make([]string, 0, len(e.AllowedFrom))
	for _, s := range e.AllowedFrom {
		sources = append(sources, string(s))
	}
	return fmt.Sprintf("cannot transition appointment from %s to %s (requires %s)",
		e.From, e.To, strings.Join(sources, " or "))
}

// InsufficientStockError reports a consume or reserve request that exceeds
// what the product's lots can cover. Nothing is mutated when it is returned.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}
