// AngelaMos | 2026
// handler.go

package contact

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/tourguide/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the public contact form. limiter throttles
// submissions per client.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	limiter func(http.Handler) http.Handler,
) {
	r.With(limiter).Post("/contact", h.Submit)
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", h.List)
		r.Delete("/{contactID}", h.Delete)
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.JSONErrorWithInput(
			w,
			core.ValidationError("Please fill in all required fields correctly."),
			req,
		)
		return
	}

	c, err := h.service.Submit(r.Context(), req)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, SubmitResponse{
		ID:      c.ID,
		Message: "Thank you for contacting us! We will get back to you within 24 hours.",
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToContactResponseList(contacts))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "contactID"), 10, 64)
	if err != nil || id <= 0 {
		core.NoticeOK(w, "Contact not found.", false)
		return
	}

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if !deleted {
		core.NoticeOK(w, "Contact not found.", false)
		return
	}

	core.NoticeOK(w, "Contact deleted successfully.", true)
}
