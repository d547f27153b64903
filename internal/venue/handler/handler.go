package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "tenantgate/internal/auth/middleware"
	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/venue/models"
	"tenantgate/internal/venue/service"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/requestcontext"
)

type Service interface {
	CreateVenue(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, cmd service.CreateVenueCommand) (*models.Venue, error)
	ListVenues(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) ([]*models.Venue, error)
	DeleteVenue(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, venueID id.VenueID) error
	CreateBooking(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, cmd service.CreateBookingCommand) (*models.Booking, error)
	CreateVoiceBooking(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, cmd service.CreateBookingCommand) (*models.Booking, error)
	ListBookings(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) ([]*models.Booking, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts venue and booking routes inside a /tenants/{tenantID}
// group.
func (h *Handler) Register(r chi.Router) {
	r.Get("/venues", h.HandleListVenues)
	r.Post("/venues", h.HandleCreateVenue)
	r.Delete("/venues/{venueID}", h.HandleDeleteVenue)
	r.Get("/bookings", h.HandleListBookings)
	r.Post("/bookings", h.HandleCreateBooking)
	r.Post("/bookings/voice", h.HandleCreateVoiceBooking)
}

func (h *Handler) HandleCreateVenue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, tenantID, ok := principalAndTenant(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateVenueRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	venue, err := h.service.CreateVenue(ctx, p, tenantID, req.toCommand())
	if err != nil {
		h.logFailure(ctx, "failed to create venue", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toVenueResponse(venue))
}

func (h *Handler) HandleListVenues(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, tenantID, ok := principalAndTenant(w, r)
	if !ok {
		return
	}

	venues, err := h.service.ListVenues(ctx, p, tenantID)
	if err != nil {
		h.logFailure(ctx, "failed to list venues", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]VenueResponse, 0, len(venues))
	for _, v := range venues {
		out = append(out, toVenueResponse(v))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"venues": out})
}

func (h *Handler) HandleDeleteVenue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, tenantID, ok := principalAndTenant(w, r)
	if !ok {
		return
	}
	venueID, err := id.ParseVenueID(chi.URLParam(r, "venueID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid venue id"))
		return
	}

	if err := h.service.DeleteVenue(ctx, p, tenantID, venueID); err != nil {
		h.logFailure(ctx, "failed to delete venue", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, tenantID, ok := principalAndTenant(w, r)
	if !ok {
		return
	}

	bookings, err := h.service.ListBookings(ctx, p, tenantID)
	if err != nil {
		h.logFailure(ctx, "failed to list bookings", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"bookings": out})
}

func (h *Handler) HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	h.createBooking(w, r, h.service.CreateBooking)
}

// HandleCreateVoiceBooking accepts bookings captured by the voice assistant.
func (h *Handler) HandleCreateVoiceBooking(w http.ResponseWriter, r *http.Request) {
	h.createBooking(w, r, h.service.CreateVoiceBooking)
}

type bookingFunc func(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, cmd service.CreateBookingCommand) (*models.Booking, error)

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request, create bookingFunc) {
	ctx := r.Context()
	p, tenantID, ok := principalAndTenant(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateBookingRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	cmd, err := req.toCommand()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking, err := create(ctx, p, tenantID, cmd)
	if err != nil {
		h.logFailure(ctx, "failed to create booking", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toBookingResponse(booking))
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func principalAndTenant(w http.ResponseWriter, r *http.Request) (*authModels.Principal, id.TenantID, bool) {
	p, ok := authmw.PrincipalFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
		return nil, id.TenantID{}, false
	}
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid tenant id"))
		return nil, id.TenantID{}, false
	}
	return p, tenantID, true
}
