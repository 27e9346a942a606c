package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mhsadiq/cartrace-backend/internal/auth"
	"github.com/mhsadiq/cartrace-backend/internal/orders"
	"github.com/mhsadiq/cartrace-backend/internal/tracking"
	pkgAuth "github.com/mhsadiq/cartrace-backend/pkg/auth"
	"github.com/mhsadiq/cartrace-backend/pkg/config"
	"github.com/mhsadiq/cartrace-backend/pkg/db/models"
	"github.com/mhsadiq/cartrace-backend/pkg/enums"
	pkgerrors "github.com/mhsadiq/cartrace-backend/pkg/errors"
	"github.com/mhsadiq/cartrace-backend/pkg/logger"
	"github.com/mhsadiq/cartrace-backend/pkg/outbox"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "token"}, nil
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

type stubTrackingService struct {
	scan func(ctx context.Context, input tracking.ScanInput) (*tracking.ScanResult, error)
}

func (s stubTrackingService) ProcessScan(ctx context.Context, input tracking.ScanInput) (*tracking.ScanResult, error) {
	if s.scan != nil {
		return s.scan(ctx, input)
	}
	return &tracking.ScanResult{TagUID: input.TagUID, Stage: input.Stage, Action: input.Action}, nil
}

func (stubTrackingService) GetCurrentLocation(ctx context.Context, tagUID string) (*tracking.LocationDTO, error) {
	return &tracking.LocationDTO{TagUID: tagUID}, nil
}

func (stubTrackingService) ListInventory(ctx context.Context) ([]tracking.LocationDTO, error) {
	return []tracking.LocationDTO{}, nil
}

func (stubTrackingService) ListEvents(ctx context.Context, limit int) ([]tracking.StageEventDTO, error) {
	return []tracking.StageEventDTO{}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) CreateOrder(ctx context.Context, input orders.CreateOrderInput, actor *outbox.ActorRef) (*orders.CreateOrderResult, error) {
	return &orders.CreateOrderResult{Order: orders.OrderDTO{ID: 1, CarRFID: input.CarRFID}}, nil
}

func (stubOrdersService) AssociateComponent(ctx context.Context, orderID int64, itemUID string, stage enums.Stage, actor *outbox.ActorRef) (*models.OrderItem, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (stubOrdersService) SetOrderItemTransactionAddress(ctx context.Context, itemID int64, address string) error {
	return nil
}

func (stubOrdersService) GetOrder(ctx context.Context, id int64) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: id}, nil
}

func (stubOrdersService) GetOrderByTag(ctx context.Context, carRFID string) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: 1, CarRFID: carRFID}, nil
}

func (stubOrdersService) GetOrderDetail(ctx context.Context, id int64) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{Order: orders.OrderDTO{ID: id}}, nil
}

func (stubOrdersService) ListOrders(ctx context.Context) ([]orders.OrderDTO, error) {
	return []orders.OrderDTO{}, nil
}

func (stubOrdersService) ListOrderItems(ctx context.Context, orderID int64) ([]orders.OrderItemDTO, error) {
	return []orders.OrderItemDTO{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil,
		stubPinger{},
		stubAuthService{},
		stubTrackingService{},
		stubOrdersService{},
		nil,
	)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-CarTrace-Env") != "test" {
		t.Fatalf("expected env header, got %q", resp.Header().Get("X-CarTrace-Env"))
	}
}

func TestHealthReadyPingsDependencies(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestScanEndpointIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"tag_uid":"CAR-1","stage":"Stage 1 (Store)","action":"entry"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestScanEndpointRejectsUnknownStage(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"tag_uid":"CAR-1","stage":"Stage 9","action":"entry"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestReadSurfacesArePublic(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{"/api/v1/events", "/api/v1/inventory", "/api/v1/locations/CAR-1"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestOrderRoutesRequireBearerToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestOrderRoutesAcceptValidToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestItemRoutesRequireBearerToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/ITEM-1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "operator",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
