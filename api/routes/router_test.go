package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ridersroast/motocafe-backend/api/controllers"
	authsvc "github.com/ridersroast/motocafe-backend/internal/auth"
	"github.com/ridersroast/motocafe-backend/internal/catalog"
	checkoutsvc "github.com/ridersroast/motocafe-backend/internal/checkout"
	"github.com/ridersroast/motocafe-backend/internal/orders"
	pkgauth "github.com/ridersroast/motocafe-backend/pkg/auth"
	"github.com/ridersroast/motocafe-backend/pkg/config"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubCatalogService struct{}

func (stubCatalogService) ListProducts(ctx context.Context, activeOnly bool) ([]catalog.ProductDTO, error) {
	return []catalog.ProductDTO{}, nil
}

func (stubCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubCatalogService) ListDeliveryOptions(ctx context.Context) ([]catalog.DeliveryOptionDTO, error) {
	return []catalog.DeliveryOptionDTO{}, nil
}

func (stubCatalogService) CreateProduct(ctx context.Context, input catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input catalog.UpdateProductInput) (*catalog.ProductDTO, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubCatalogService) ReplenishStock(ctx context.Context, input catalog.ReplenishStockInput) (*catalog.ProductDTO, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubCheckoutService struct{}

func (stubCheckoutService) CreateSession(ctx context.Context, input checkoutsvc.CheckoutInput) (*checkoutsvc.SessionResult, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubOrdersService struct{}

func (stubOrdersService) List(ctx context.Context, input orders.ListInput) (*orders.ListResult, error) {
	return &orders.ListResult{Orders: []orders.OrderDTO{}}, nil
}

func (stubOrdersService) Get(ctx context.Context, id int64) (*orders.OrderDTO, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubOrdersService) UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) (*orders.OrderDTO, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubOrdersService) Delete(ctx context.Context, id int64) error {
	return fmt.Errorf("not implemented")
}

func (stubOrdersService) Create(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	return nil, fmt.Errorf("not implemented")
}

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "motocafe-test",
			ExpirationMinutes: 60,
		},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:     time.Minute,
			LoginEmailLimit: 5,
			LoginIPLimit:    20,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Dependencies{
		Config:          cfg,
		Logger:          logg,
		Pingers:         map[string]controllers.Pinger{"postgres": stubPinger{}},
		AuthService:     stubAuthService{},
		CatalogService:  stubCatalogService{},
		CheckoutService: stubCheckoutService{},
		OrdersService:   stubOrdersService{},
	})
}

func TestPublicProductsRouteIsOpen(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestAdminGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminGroupAcceptsValidJWT(t *testing.T) {
	cfg := testRouterConfig()
	router := newTestRouter(cfg)

	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		AdminID: uuid.New(),
		Email:   "barista@ridersroast.com",
		JTI:     uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestWebhookRouteUnavailableWithoutProvider(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", nil))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when no provider is wired got %d", resp.Code)
	}
}

func TestHealthLiveRoute(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestMetricsRouteExposed(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
