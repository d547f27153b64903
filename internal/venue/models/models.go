package models

import (
	"strings"
	"time"

	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
)

// BookingSource records how a booking entered the system.
type BookingSource string

const (
	BookingSourceManual BookingSource = "manual"
	BookingSourceVoice  BookingSource = "voice"
)

func (s BookingSource) IsValid() bool {
	return s == BookingSourceManual || s == BookingSourceVoice
}

// Venue is a bookable space owned by a tenant.
type Venue struct {
	ID        id.VenueID  `json:"id"`
	TenantID  id.TenantID `json:"tenant_id"`
	Name      string      `json:"name"`
	Capacity  int         `json:"capacity"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewVenue validates and builds a venue.
func NewVenue(venueID id.VenueID, tenantID id.TenantID, name string, capacity int, now time.Time) (*Venue, error) {
	name = strings.TrimSpace(name)
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "venue must belong to a tenant")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "venue name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "venue name must be 128 characters or less")
	}
	if capacity <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "venue capacity must be positive")
	}
	return &Venue{
		ID:        venueID,
		TenantID:  tenantID,
		Name:      name,
		Capacity:  capacity,
		CreatedAt: now,
	}, nil
}

// Booking reserves a venue for one event date.
type Booking struct {
	ID        id.BookingID  `json:"id"`
	TenantID  id.TenantID   `json:"tenant_id"`
	VenueID   id.VenueID    `json:"venue_id"`
	EventDate time.Time     `json:"event_date"`
	Source    BookingSource `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewBooking builds a booking on venue. EventDate is truncated to the UTC
// day and may not lie in the past.
func NewBooking(bookingID id.BookingID, venue *Venue, eventDate time.Time, source BookingSource, now time.Time) (*Booking, error) {
	if venue == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "booking requires a venue")
	}
	if !source.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown booking source")
	}
	day := truncateDay(eventDate)
	if day.Before(truncateDay(now)) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event date is in the past")
	}
	return &Booking{
		ID:        bookingID,
		TenantID:  venue.TenantID,
		VenueID:   venue.ID,
		EventDate: day,
		Source:    source,
		CreatedAt: now,
	}, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
