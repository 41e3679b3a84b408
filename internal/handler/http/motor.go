package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/motorline/storefront/internal/domain"
	"github.com/motorline/storefront/internal/repository"
	"github.com/motorline/storefront/internal/service"
	"github.com/motorline/storefront/pkg/httputil"
	"github.com/motorline/storefront/pkg/validator"
)

// MotorHandler handles HTTP requests for catalog endpoints.
type MotorHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewMotorHandler creates a new catalog HTTP handler.
func NewMotorHandler(svc *service.CatalogService, logger *slog.Logger) *MotorHandler {
	return &MotorHandler{
		service: svc,
		logger:  logger,
	}
}

// MotorListResponse is the JSON payload for a catalog page.
type MotorListResponse struct {
	Motors     []domain.Motor `json:"motors"`
	Page       int            `json:"page"`
	Pages      int            `json:"pages"`
	TotalCount int            `json:"total_count"`
}

// ListMotors handles GET /api/motors
func (h *MotorHandler) ListMotors(w http.ResponseWriter, r *http.Request) {
	filter := repository.MotorFilter{
		Page:    1,
		PerPage: service.DefaultPageSize,
		SortBy:  r.URL.Query().Get("sort_by"),
	}

	// Malformed or out-of-range numeric parameters are treated as absent.
	if v := r.URL.Query().Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page >= 1 {
			filter.Page = page
		}
	}
	if v := r.URL.Query().Get("keyword"); v != "" {
		filter.Keyword = &v
	}
	if v := r.URL.Query().Get("category"); v != "" {
		filter.Category = &v
	}
	if v := r.URL.Query().Get("brand"); v != "" {
		filter.Brand = &v
	}
	if v := r.URL.Query().Get("manufacturer"); v != "" {
		filter.Manufacturer = &v
	}
	if v := r.URL.Query().Get("min_price"); v != "" {
		if minPrice, err := strconv.ParseInt(v, 10, 64); err == nil && minPrice >= 0 {
			filter.MinPrice = &minPrice
		}
	}
	if v := r.URL.Query().Get("max_price"); v != "" {
		if maxPrice, err := strconv.ParseInt(v, 10, 64); err == nil && maxPrice >= 0 {
			filter.MaxPrice = &maxPrice
		}
	}
	if v := r.URL.Query().Get("min_power"); v != "" {
		if minPower, err := strconv.Atoi(v); err == nil && minPower >= 0 {
			filter.MinPower = &minPower
		}
	}
	if v := r.URL.Query().Get("max_power"); v != "" {
		if maxPower, err := strconv.Atoi(v); err == nil && maxPower >= 0 {
			filter.MaxPower = &maxPower
		}
	}

	motors, total, err := h.service.ListMotors(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	pages := total / filter.PerPage
	if total%filter.PerPage > 0 {
		pages++
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: MotorListResponse{
		Motors:     motors,
		Page:       filter.Page,
		Pages:      pages,
		TotalCount: total,
	}})
}

// GetMotor handles GET /api/motors/{id}
func (h *MotorHandler) GetMotor(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	motor, err := h.service.GetMotor(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: motor})
}

// TopMotors handles GET /api/motors/top
func (h *MotorHandler) TopMotors(w http.ResponseWriter, r *http.Request) {
	motors, err := h.service.TopMotors(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: motors})
}

// ListCategories handles GET /api/motors/categories
func (h *MotorHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.CategoryFacets(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: facets})
}

// ListBrands handles GET /api/motors/brands
func (h *MotorHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.BrandFacets(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: facets})
}

// ListManufacturers handles GET /api/motors/manufacturers
func (h *MotorHandler) ListManufacturers(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.ManufacturerFacets(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: facets})
}

// CreateMotor handles POST /api/motors
func (h *MotorHandler) CreateMotor(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	motor, err := h.service.CreateMotor(r.Context(), session.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: motor})
}

// UpdateMotor handles PUT /api/motors/{id}
func (h *MotorHandler) UpdateMotor(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.UpdateMotorInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	motor, err := h.service.UpdateMotor(r.Context(), id.String(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: motor})
}

// DeleteMotor handles DELETE /api/motors/{id}
func (h *MotorHandler) DeleteMotor(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteMotor(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddReview handles POST /api/motors/{id}/reviews
func (h *MotorHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.AddReviewInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.AddReview(r.Context(), id.String(), session.UserID, session.Name, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// ListReviews handles GET /api/motors/{id}/reviews
func (h *MotorHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reviews})
}
