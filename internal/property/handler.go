// AngelaMos | 2026
// handler.go

package property

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/tourguide/internal/core"
	"github.com/carterperez-dev/tourguide/internal/middleware"
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

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/properties", func(r chi.Router) {
		r.Get("/", h.ListActive)
		r.Get("/{propertyID}", h.GetActive)
	})
}

// RegisterAdminRoutes mounts catalog management under a router that
// already enforces the Admin role.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/properties", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/import", h.Import)
		r.Get("/{propertyID}", h.Get)
		r.Put("/{propertyID}", h.Update)
		r.Delete("/{propertyID}", h.Delete)
	})
}

func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	props, err := h.service.ListActive(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPropertyResponseList(props))
}

func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(r)
	if !ok {
		core.NotFound(w, "property")
		return
	}

	p, err := h.service.GetActive(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "property")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPropertyResponse(p))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	props, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPropertyResponseList(props))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(r)
	if !ok {
		core.NotFound(w, "property")
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "property")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPropertyResponse(p))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req PropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.JSONErrorWithInput(
			w,
			core.ValidationError(core.FormatValidationError(err)),
			req,
		)
		return
	}

	p, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToPropertyResponse(p))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(r)
	if !ok {
		core.NoticeOK(w, "Property not found.", false)
		return
	}

	var req PropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.JSONErrorWithInput(
			w,
			core.ValidationError(core.FormatValidationError(err)),
			req,
		)
		return
	}

	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NoticeOK(w, "Property not found.", false)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPropertyResponse(p))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(r)
	if !ok {
		core.NoticeOK(w, "Property not found.", false)
		return
	}

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if !deleted {
		core.NoticeOK(w, "Property not found.", false)
		return
	}

	core.NoticeOK(w, "Property deleted successfully.", true)
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Import(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.Properties,
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func propertyID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "propertyID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
