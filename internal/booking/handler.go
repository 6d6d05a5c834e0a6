// AngelaMos | 2026
// handler.go

package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/tourguide/internal/core"
	"github.com/carterperez-dev/tourguide/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the guest-facing booking routes. optionalAuth
// attaches a principal when present so signed-in bookings are owned.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	optionalAuth func(http.Handler) http.Handler,
	limiter func(http.Handler) http.Handler,
) {
	r.Route("/bookings", func(r chi.Router) {
		r.With(optionalAuth, limiter).Post("/", h.Create)
		r.With(authenticator).Get("/mine", h.ListMine)
	})
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/bookings", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{bookingID}", h.Get)
		r.Put("/{bookingID}/status", h.UpdateStatus)
		r.Delete("/{bookingID}", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	b, err := h.service.Create(r.Context(), middleware.GetPrincipal(r.Context()), req)
	if err != nil {
		if appErr, ok := core.AsAppError(err); ok && appErr.StatusCode == http.StatusBadRequest {
			core.JSONErrorWithInput(w, appErr, req)
			return
		}
		core.JSONError(w, err)
		return
	}

	core.Created(w, CreateBookingResponse{
		Booking: ToBookingResponse(b),
		Message: "Your booking request has been submitted successfully! We will contact you soon.",
	})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.ListOwn(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToBookingResponseList(bookings))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListBookingsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Status:   r.URL.Query().Get("status"),
	}
	params.Normalize()

	bookings, total, err := h.service.ListAll(r.Context(), params)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, ToOwnedResponseList(bookings), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(r)
	if !ok {
		core.NotFound(w, "booking")
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "booking")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToBookingResponse(b))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(r)
	if !ok {
		core.NoticeOK(w, "Booking not found.", false)
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	change, err := h.service.UpdateStatus(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		id,
		req.Status,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, change)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(r)
	if !ok {
		core.NoticeOK(w, "Booking not found.", false)
		return
	}

	deleted, err := h.service.Delete(r.Context(), middleware.GetPrincipal(r.Context()), id)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if !deleted {
		core.NoticeOK(w, "Booking not found.", false)
		return
	}

	core.NoticeOK(w, "Booking deleted successfully.", true)
}

func bookingID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
