package handler

import (
	"time"

	"tenantgate/internal/venue/models"
)

type VenueResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
}

type BookingResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	VenueID   string    `json:"venue_id"`
	EventDate string    `json:"event_date"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

func toVenueResponse(v *models.Venue) VenueResponse {
	return VenueResponse{
		ID:        v.ID.String(),
		TenantID:  v.TenantID.String(),
		Name:      v.Name,
		Capacity:  v.Capacity,
		CreatedAt: v.CreatedAt,
	}
}

func toBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID.String(),
		TenantID:  b.TenantID.String(),
		VenueID:   b.VenueID.String(),
		EventDate: b.EventDate.Format(time.DateOnly),
		Source:    string(b.Source),
		CreatedAt: b.CreatedAt,
	}
}
