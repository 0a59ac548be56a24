package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrPermissionDenied         = errors.New("permission denied")
	ErrValidation               = errors.New("validation error")
	ErrInvalidTransition        = errors.New("invalid status transition")
	ErrConcurrentModification   = errors.New("concurrent modification")
	ErrInsufficientAvailability = errors.New("insufficient availability")
	ErrUpstreamUnavailable      = errors.New("upstream unavailable")
	ErrCandidateNotFound        = errors.New("candidate not found")
	ErrEmptySelection           = errors.New("empty selection")
)

// AvailabilityError carries every failing key of a rejected submission so the
// client can adjust quantities and resubmit.
type AvailabilityError struct {
	Shortfalls []model.Shortfall
}

func (e *AvailabilityError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s: requested %d, available %d", s.Key, s.Requested, s.Available))
	}
	return "insufficient availability: " + strings.Join(parts, "; ")
}

func (e *AvailabilityError) Unwrap() error { return ErrInsufficientAvailability }
