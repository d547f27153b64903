package handler

import (
	"strings"
	"time"

	"tenantgate/internal/venue/service"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/validation"
)

type CreateVenueRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=128"`
	Capacity int    `json:"capacity" validate:"required,min=1,max=100000"`
}

func (r *CreateVenueRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
}

func (r *CreateVenueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *CreateVenueRequest) toCommand() service.CreateVenueCommand {
	return service.CreateVenueCommand{Name: r.Name, Capacity: r.Capacity}
}

// CreateBookingRequest carries the event date as a calendar day.
type CreateBookingRequest struct {
	VenueID   string `json:"venue_id" validate:"required,uuid"`
	EventDate string `json:"event_date" validate:"required,datetime=2006-01-02"`
}

func (r *CreateBookingRequest) Normalize() {
	if r == nil {
		return
	}
	r.VenueID = strings.TrimSpace(r.VenueID)
	r.EventDate = strings.TrimSpace(r.EventDate)
}

func (r *CreateBookingRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *CreateBookingRequest) toCommand() (service.CreateBookingCommand, error) {
	venueID, err := id.ParseVenueID(r.VenueID)
	if err != nil {
		return service.CreateBookingCommand{}, dErrors.New(dErrors.CodeBadRequest, "invalid venue id")
	}
	date, err := time.Parse(time.DateOnly, r.EventDate)
	if err != nil {
		return service.CreateBookingCommand{}, dErrors.New(dErrors.CodeBadRequest, "invalid event date")
	}
	return service.CreateBookingCommand{VenueID: venueID, EventDate: date}, nil
}
