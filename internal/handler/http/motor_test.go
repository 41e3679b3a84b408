package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/motorline/storefront/internal/domain"
	"github.com/motorline/storefront/internal/event"
	"github.com/motorline/storefront/internal/repository"
	"github.com/motorline/storefront/internal/service"
	apperrors "github.com/motorline/storefront/pkg/errors"
	"github.com/motorline/storefront/pkg/httputil"
	pkgkafka "github.com/motorline/storefront/pkg/kafka"
	"github.com/motorline/storefront/pkg/middleware"
)

// ============================================================================
// Mock repositories
// ============================================================================

type mockMotorRepository struct {
	mock.Mock
}

func (m *mockMotorRepository) Create(ctx context.Context, motor *domain.Motor) error {
	args := m.Called(ctx, motor)
	return args.Error(0)
}

func (m *mockMotorRepository) GetByID(ctx context.Context, id string) (*domain.Motor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Motor), args.Error(1)
}

func (m *mockMotorRepository) List(ctx context.Context, filter repository.MotorFilter) ([]domain.Motor, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Motor), args.Int(1), args.Error(2)
}

func (m *mockMotorRepository) Update(ctx context.Context, motor *domain.Motor) error {
	args := m.Called(ctx, motor)
	return args.Error(0)
}

func (m *mockMotorRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockMotorRepository) Top(ctx context.Context, limit int) ([]domain.Motor, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Motor), args.Error(1)
}

func (m *mockMotorRepository) CategoryFacets(ctx context.Context) ([]domain.Facet, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Facet), args.Error(1)
}

func (m *mockMotorRepository) BrandFacets(ctx context.Context) ([]domain.Facet, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Facet), args.Error(1)
}

func (m *mockMotorRepository) ManufacturerFacets(ctx context.Context) ([]domain.Facet, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Facet), args.Error(1)
}

func (m *mockMotorRepository) AddReview(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockMotorRepository) ListReviews(ctx context.Context, motorID string) ([]domain.Review, error) {
	args := m.Called(ctx, motorID)
	return args.Get(0).([]domain.Review), args.Error(1)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) MarkPaid(ctx context.Context, id string, result *domain.PaymentResult) error {
	args := m.Called(ctx, id, result)
	return args.Error(0)
}

func (m *mockOrderRepository) MarkDelivered(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOrderRepository) SetStatus(ctx context.Context, id string, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockOrderRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// ============================================================================
// Test helpers
// ============================================================================

const (
	testMotorID = "5a8f7c3e-1111-4222-8333-000000000001"
	testUserID  = "0b1f3a52-1111-4222-8333-000000000001"
	testOrderID = "7c2d9e14-1111-4222-8333-000000000001"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func userSession() *middleware.Session {
	return &middleware.Session{
		UserID: testUserID,
		Name:   "John Doe",
		Email:  "john@example.com",
		Role:   domain.RoleUser,
	}
}

func adminSession() *middleware.Session {
	return &middleware.Session{
		UserID: testUserID,
		Name:   "Admin",
		Email:  "admin@example.com",
		Role:   domain.RoleAdmin,
	}
}

// withSession injects a session into every request, standing in for the auth
// middleware.
func withSession(session *middleware.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithSession(r.Context(), session)))
		})
	}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func testMotorHandler(repo *mockMotorRepository) *MotorHandler {
	return NewMotorHandler(service.NewCatalogService(repo, testLogger()), testLogger())
}

// setupMotorRouter creates a chi router matching the production route layout.
// Session-protected routes get the given session injected.
func setupMotorRouter(handler *MotorHandler, session *middleware.Session) *chi.Mux {
	r := chi.NewRouter()
	if session != nil {
		r.Use(withSession(session))
	}
	r.Route("/api/motors", func(r chi.Router) {
		r.Get("/", handler.ListMotors)
		r.Get("/top", handler.TopMotors)
		r.Get("/categories", handler.ListCategories)
		r.Get("/brands", handler.ListBrands)
		r.Get("/manufacturers", handler.ListManufacturers)
		r.Get("/{id}", handler.GetMotor)
		r.Get("/{id}/reviews", handler.ListReviews)
		r.Post("/{id}/reviews", handler.AddReview)
		r.Post("/", handler.CreateMotor)
		r.Put("/{id}", handler.UpdateMotor)
		r.Delete("/{id}", handler.DeleteMotor)
	})
	return r
}

func sampleMotor() *domain.Motor {
	now := time.Now().UTC()
	return &domain.Motor{
		ID:           testMotorID,
		UserID:       testUserID,
		Name:         "AIR-340",
		Image:        "/images/air-340.jpg",
		Brand:        "Siemens",
		Category:     domain.CategoryElectric,
		Price:        215000,
		CountInStock: 12,
		Rating:       4.5,
		NumReviews:   2,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ============================================================================
// GET /api/motors - ListMotors
// ============================================================================

func TestListMotorsHandler_Success(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), nil)

	repo.On("List", mock.Anything, mock.AnythingOfType("repository.MotorFilter")).
		Return([]domain.Motor{*sampleMotor()}, 23, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/motors?keyword=induction&page=2", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data MotorListResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Data.Page)
	assert.Equal(t, 3, resp.Data.Pages) // 23 items at 10 per page
	assert.Equal(t, 23, resp.Data.TotalCount)
	require.Len(t, resp.Data.Motors, 1)
	assert.Equal(t, "AIR-340", resp.Data.Motors[0].Name)
	repo.AssertExpectations(t)
}

func TestListMotorsHandler_MalformedPageIgnored(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), nil)

	repo.On("List", mock.Anything, mock.MatchedBy(func(f repository.MotorFilter) bool {
		return f.Page == 1
	})).Return([]domain.Motor{}, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/motors?page=zero", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	// A malformed page is treated as absent, not rejected.
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	repo.AssertExpectations(t)
}

func TestListMotorsHandler_MalformedNumericFiltersIgnored(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), nil)

	repo.On("List", mock.Anything, mock.MatchedBy(func(f repository.MotorFilter) bool {
		return f.MinPrice == nil && f.MaxPrice == nil && f.MinPower == nil && f.MaxPower == nil
	})).Return([]domain.Motor{}, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/motors?min_price=-5&max_price=abc&min_power=x&max_power=-1", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	repo.AssertExpectations(t)
}

func TestListMotorsHandler_InvalidCategory(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/motors?category=steam", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

// ============================================================================
// GET /api/motors/categories|brands|manufacturers - Facets
// ============================================================================

func TestFacetHandlers(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), nil)

	repo.On("CategoryFacets", mock.Anything).Return([]domain.Facet{{Name: "electric", Count: 12}}, nil)
	repo.On("BrandFacets", mock.Anything).Return([]domain.Facet{{Name: "Siemens", Count: 7}}, nil)
	repo.On("ManufacturerFacets", mock.Anything).Return([]domain.Facet{{Name: "Siemens AG", Count: 4}}, nil)

	for _, path := range []string{"/api/motors/categories", "/api/motors/brands", "/api/motors/manufacturers"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		resp := decodeResponse(t, rec)
		assert.Nil(t, resp.Error, path)
		assert.NotNil(t, resp.Data, path)
	}
	repo.AssertExpectations(t)
}

// ============================================================================
// GET /api/motors/{id} - GetMotor
// ============================================================================

func TestGetMotorHandler_Success(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), nil)

	repo.On("GetByID", mock.Anything, testMotorID).Return(sampleMotor(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/motors/"+testMotorID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
}

func TestGetMotorHandler_InvalidID(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/motors/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
	repo.AssertNotCalled(t, "GetByID")
}

func TestGetMotorHandler_NotFound(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), nil)

	repo.On("GetByID", mock.Anything, testMotorID).Return(nil, apperrors.NotFound("motor", testMotorID))

	req := httptest.NewRequest(http.MethodGet, "/api/motors/"+testMotorID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

// ============================================================================
// POST /api/motors/{id}/reviews - AddReview
// ============================================================================

func TestAddReviewHandler_Success(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), userSession())

	repo.On("AddReview", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)

	body, _ := json.Marshal(service.AddReviewInput{Rating: 5, Comment: "Runs great"})
	req := httptest.NewRequest(http.MethodPost, "/api/motors/"+testMotorID+"/reviews", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	repo.AssertExpectations(t)
}

func TestAddReviewHandler_NoSession(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), nil)

	body, _ := json.Marshal(service.AddReviewInput{Rating: 5, Comment: "Runs great"})
	req := httptest.NewRequest(http.MethodPost, "/api/motors/"+testMotorID+"/reviews", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	repo.AssertNotCalled(t, "AddReview")
}

func TestAddReviewHandler_Duplicate(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), userSession())

	repo.On("AddReview", mock.Anything, mock.AnythingOfType("*domain.Review")).
		Return(apperrors.AlreadyExists("review", "motor_id", testMotorID))

	body, _ := json.Marshal(service.AddReviewInput{Rating: 4, Comment: "Again"})
	req := httptest.NewRequest(http.MethodPost, "/api/motors/"+testMotorID+"/reviews", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	// Duplicate reviews surface as 400, not 409.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestAddReviewHandler_ValidationError(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), userSession())

	body, _ := json.Marshal(service.AddReviewInput{Rating: 9, Comment: "Too high"})
	req := httptest.NewRequest(http.MethodPost, "/api/motors/"+testMotorID+"/reviews", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	repo.AssertNotCalled(t, "AddReview")
}

// ============================================================================
// PUT /api/motors/{id} - UpdateMotor
// ============================================================================

func TestUpdateMotorHandler_Success(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), adminSession())

	repo.On("GetByID", mock.Anything, testMotorID).Return(sampleMotor(), nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Motor")).Return(nil)

	body, _ := json.Marshal(service.UpdateMotorInput{
		Name:         "MMZ D-245",
		Brand:        "MMZ",
		Category:     domain.CategoryDiesel,
		Price:        380000,
		CountInStock: 4,
	})
	req := httptest.NewRequest(http.MethodPut, "/api/motors/"+testMotorID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestUpdateMotorHandler_MissingName(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), adminSession())

	body, _ := json.Marshal(service.UpdateMotorInput{
		Brand:    "MMZ",
		Category: domain.CategoryDiesel,
	})
	req := httptest.NewRequest(http.MethodPut, "/api/motors/"+testMotorID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	repo.AssertNotCalled(t, "Update")
}

// ============================================================================
// DELETE /api/motors/{id} - DeleteMotor
// ============================================================================

func TestDeleteMotorHandler_Success(t *testing.T) {
	repo := new(mockMotorRepository)
	router := setupMotorRouter(testMotorHandler(repo), adminSession())

	repo.On("Delete", mock.Anything, testMotorID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/motors/"+testMotorID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	repo.AssertExpectations(t)
}
