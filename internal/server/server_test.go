package server_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/parcelio/shipbridge/internal/server"
	"github.com/parcelio/shipbridge/pkg/carrier"
)

// ============================================================================
// Test doubles
// ============================================================================

// stubCarrier implements every carrier capability with canned responses.
type stubCarrier struct {
	name string

	rateResp  *carrier.RateResponse
	rateErr   error
	labelResp *carrier.LabelResponse
	labelErr  error
	trackResp *carrier.TrackingResponse
	trackErr  error
	voidResp  *carrier.VoidResponse
	voidErr   error

	lastNumber string
	lastOpts   carrier.Options
}

func (s *stubCarrier) Name() string                  { return s.name }
func (s *stubCarrier) RequiredCredentials() []string { return []string{"key", "password"} }

func (s *stubCarrier) FindRates(ctx context.Context, origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options) (*carrier.RateResponse, error) {
	s.lastOpts = opts
	return s.rateResp, s.rateErr
}

func (s *stubCarrier) GetLabel(ctx context.Context, origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options) (*carrier.LabelResponse, error) {
	s.lastOpts = opts
	return s.labelResp, s.labelErr
}

func (s *stubCarrier) FindTrackingInfo(ctx context.Context, trackingNumber string, opts carrier.Options) (*carrier.TrackingResponse, error) {
	s.lastNumber = trackingNumber
	s.lastOpts = opts
	return s.trackResp, s.trackErr
}

func (s *stubCarrier) VoidLabel(ctx context.Context, shipmentID string, trackingNumbers []string, opts carrier.Options) (*carrier.VoidResponse, error) {
	s.lastOpts = opts
	return s.voidResp, s.voidErr
}

// labelOnlyCarrier supports nothing beyond the base interface.
type labelOnlyCarrier struct {
	name string
}

func (l *labelOnlyCarrier) Name() string                  { return l.name }
func (l *labelOnlyCarrier) RequiredCredentials() []string { return []string{"account_id"} }
func (l *labelOnlyCarrier) GetLabel(ctx context.Context, origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options) (*carrier.LabelResponse, error) {
	return &carrier.LabelResponse{Success: true}, nil
}

var (
	_ carrier.RateFinder = (*stubCarrier)(nil)
	_ carrier.Tracker    = (*stubCarrier)(nil)
	_ carrier.Voider     = (*stubCarrier)(nil)
	_ carrier.Carrier    = (*labelOnlyCarrier)(nil)
)

// The metrics collectors register against the process-global Prometheus
// registry, so one server instance is shared across the whole test binary.
// Register replaces carriers by name, letting each test install fresh stubs.
var (
	setupOnce    sync.Once
	testRegistry *carrier.Registry
	testHandler  http.Handler
)

func testServer(t *testing.T) (http.Handler, *carrier.Registry) {
	t.Helper()
	setupOnce.Do(func() {
		testRegistry = carrier.NewRegistry()
		srv := server.New(server.Config{Port: 8080}, testRegistry, otelzap.New(zap.NewNop()))
		testHandler = srv.Handler()
	})
	return testHandler, testRegistry
}

func doJSON(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(payload))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func validShipment(name string) map[string]any {
	return map[string]any{
		"carrier": name,
		"origin": map[string]string{
			"name": "Sender Sue", "address1": "123 Main St",
			"city": "Houston", "state": "TX", "zip": "77095", "country": "US",
		},
		"destination": map[string]string{
			"name": "Receiver Ray", "address1": "456 Elm St",
			"city": "Beverly Hills", "state": "CA", "zip": "90210", "country": "US",
		},
		"packages": []map[string]any{
			{"weight": 2.5, "length": 10, "width": 8, "height": 4},
		},
	}
}

// ============================================================================
// Tests
// ============================================================================

func TestHealth(t *testing.T) {
	handler, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRates_SingleCarrier(t *testing.T) {
	handler, registry := testServer(t)
	registry.Register(&stubCarrier{
		name: "ups",
		rateResp: &carrier.RateResponse{
			Success: true,
			Rates: []carrier.RateEstimate{{
				Carrier:     "ups",
				ServiceName: "UPS Ground",
				ServiceCode: "03",
				TotalPrice:  12.34,
				Currency:    "USD",
				DeliveryRange: []time.Time{
					time.Date(2024, 1, 12, 23, 0, 0, 0, time.UTC),
				},
			}},
		},
	})

	rec := doJSON(t, handler, http.MethodPost, "/v1/rates", validShipment("ups"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp struct {
		Success bool `json:"success"`
		Rates   []struct {
			Carrier       string   `json:"carrier"`
			ServiceName   string   `json:"service_name"`
			TotalPrice    float64  `json:"total_price"`
			DeliveryRange []string `json:"delivery_range"`
		} `json:"rates"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Rates, 1)
	assert.Equal(t, "UPS Ground", resp.Rates[0].ServiceName)
	assert.Equal(t, 12.34, resp.Rates[0].TotalPrice)
	require.Len(t, resp.Rates[0].DeliveryRange, 1)
	assert.Equal(t, "2024-01-12T23:00:00Z", resp.Rates[0].DeliveryRange[0])
}

func TestRates_AllCarriers(t *testing.T) {
	handler, registry := testServer(t)
	registry.Register(&stubCarrier{
		name: "ups",
		rateResp: &carrier.RateResponse{
			Success: true,
			Rates:   []carrier.RateEstimate{{Carrier: "ups", ServiceName: "UPS Ground", TotalPrice: 10}},
		},
	})
	registry.Register(&stubCarrier{
		name:    "endicia",
		rateErr: errors.New("service unavailable"),
	})

	payload := validShipment("")
	rec := doJSON(t, handler, http.MethodPost, "/v1/rates", payload)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool `json:"success"`
		Rates   []struct {
			ServiceName string `json:"service_name"`
		} `json:"rates"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Rates, 1)
	assert.Equal(t, "UPS Ground", resp.Rates[0].ServiceName)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "endicia")
	assert.Contains(t, resp.Errors[0], "service unavailable")
}

func TestRates_UnknownCarrier(t *testing.T) {
	handler, _ := testServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/v1/rates", validShipment("fedex"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "fedex")
}

func TestRates_UnsupportedCapability(t *testing.T) {
	handler, registry := testServer(t)
	registry.Register(&labelOnlyCarrier{name: "stamps"})

	rec := doJSON(t, handler, http.MethodPost, "/v1/rates", validShipment("stamps"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not support rating")
}

func TestRates_ValidationError(t *testing.T) {
	handler, registry := testServer(t)
	registry.Register(&stubCarrier{
		name:    "ups",
		rateErr: &carrier.InvalidRequestError{Carrier: "ups", Missing: []string{"ShipTo city"}},
	})

	rec := doJSON(t, handler, http.MethodPost, "/v1/rates", validShipment("ups"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "ShipTo city")
}

func TestRates_TransportError(t *testing.T) {
	handler, registry := testServer(t)
	registry.Register(&stubCarrier{
		name:    "ups",
		rateErr: &carrier.TransportError{Op: "POST", URL: "u", Cause: errors.New("timeout")},
	})

	rec := doJSON(t, handler, http.MethodPost, "/v1/rates", validShipment("ups"))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRates_UnknownCountry(t *testing.T) {
	handler, registry := testServer(t)
	registry.Register(&stubCarrier{name: "ups", rateResp: &carrier.RateResponse{Success: true}})

	payload := validShipment("ups")
	payload["destination"] = map[string]string{"city": "Nowhere", "country": "Atlantis"}
	rec := doJSON(t, handler, http.MethodPost, "/v1/rates", payload)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRates_BadJSON(t *testing.T) {
	handler, _ := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/rates", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLabels_Success(t *testing.T) {
	handler, registry := testServer(t)
	registry.Register(&stubCarrier{
		name: "ups",
		labelResp: &carrier.LabelResponse{
			Success: true,
			Labels: []carrier.PackageLabel{{
				TrackingNumber: "1Z2220060292353829",
				Image:          []byte("GIF89a"),
				ImageFormat:    "GIF",
			}},
		},
	})

	payload := validShipment("ups")
	payload["options"] = map[string]any{"image_type": "GIF"}
	rec := doJSON(t, handler, http.MethodPost, "/v1/labels", payload)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool `json:"success"`
		Labels  []struct {
			TrackingNumber string `json:"tracking_number"`
			Image          string `json:"image"`
			ImageFormat    string `json:"image_format"`
		} `json:"labels"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Labels, 1)
	assert.Equal(t, "1Z2220060292353829", resp.Labels[0].TrackingNumber)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("GIF89a")), resp.Labels[0].Image)
}

func TestLabels_CarrierRequired(t *testing.T) {
	handler, _ := testServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/v1/labels", validShipment(""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "carrier is required")
}

func TestLabels_CarrierRejection(t *testing.T) {
	handler, registry := testServer(t)
	registry.Register(&stubCarrier{
		name:      "ups",
		labelResp: &carrier.LabelResponse{Success: false, Message: "Missing or invalid shipper number"},
	})

	rec := doJSON(t, handler, http.MethodPost, "/v1/labels", validShipment("ups"))

	// Business rejections are well-formed responses, not HTTP errors.
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Missing or invalid shipper number", resp.Message)
}

func TestTracking_Success(t *testing.T) {
	handler, registry := testServer(t)
	stub := &stubCarrier{
		name: "ups",
		trackResp: &carrier.TrackingResponse{
			Success:        true,
			TrackingNumber: "1Z12345E0390817264",
			Status:         carrier.StatusDelivered,
			Delivered:      true,
			Events: []carrier.ShipmentEvent{{
				Description: "DELIVERED",
				Time:        time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC),
				Location:    carrier.Address{City: "Ottawa"},
			}},
		},
	}
	registry.Register(stub)

	req := httptest.NewRequest(http.MethodGet, "/v1/tracking/1Z12345E0390817264?carrier=ups", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1Z12345E0390817264", stub.lastNumber)

	var resp struct {
		Success   bool   `json:"success"`
		Status    string `json:"status"`
		Delivered bool   `json:"delivered"`
		Events    []struct {
			Description string `json:"description"`
			Time        string `json:"time"`
		} `json:"events"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "delivered", resp.Status)
	assert.True(t, resp.Delivered)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "DELIVERED", resp.Events[0].Description)
	assert.Equal(t, "2024-01-10T14:00:00Z", resp.Events[0].Time)
}

func TestTracking_CarrierParamRequired(t *testing.T) {
	handler, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/tracking/1Z999", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "carrier query parameter is required")
}

func TestTracking_UnsupportedCapability(t *testing.T) {
	handler, registry := testServer(t)
	registry.Register(&labelOnlyCarrier{name: "stamps"})

	req := httptest.NewRequest(http.MethodGet, "/v1/tracking/1Z999?carrier=stamps", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not support tracking")
}

func TestVoid_Success(t *testing.T) {
	handler, registry := testServer(t)
	registry.Register(&stubCarrier{
		name:     "ups",
		voidResp: &carrier.VoidResponse{Success: true},
	})

	rec := doJSON(t, handler, http.MethodPost, "/v1/void", map[string]any{
		"carrier":     "ups",
		"shipment_id": "1Z2220060290602143",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
}

func TestVoid_PartialFailure(t *testing.T) {
	handler, registry := testServer(t)
	registry.Register(&stubCarrier{
		name: "ups",
		voidResp: &carrier.VoidResponse{
			Success:       false,
			PackageStatus: map[string]int{"1Z001": 1, "1Z002": 0},
		},
	})

	rec := doJSON(t, handler, http.MethodPost, "/v1/void", map[string]any{
		"carrier":          "ups",
		"shipment_id":      "1Z2220060290602143",
		"tracking_numbers": []string{"1Z001", "1Z002"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success       bool           `json:"success"`
		PackageStatus map[string]int `json:"package_status"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, map[string]int{"1Z001": 1, "1Z002": 0}, resp.PackageStatus)
}

func TestVoid_UnsupportedCapability(t *testing.T) {
	handler, registry := testServer(t)
	registry.Register(&labelOnlyCarrier{name: "stamps"})

	rec := doJSON(t, handler, http.MethodPost, "/v1/void", map[string]any{
		"carrier":     "stamps",
		"shipment_id": "x",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not support voiding")
}

func TestCarriers_Capabilities(t *testing.T) {
	handler, registry := testServer(t)
	registry.Register(&stubCarrier{name: "ups"})
	registry.Register(&labelOnlyCarrier{name: "stamps"})

	req := httptest.NewRequest(http.MethodGet, "/v1/carriers", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []struct {
		Name                string   `json:"name"`
		RequiredCredentials []string `json:"required_credentials"`
		Capabilities        []string `json:"capabilities"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	byName := map[string][]string{}
	for _, c := range resp {
		byName[c.Name] = c.Capabilities
	}
	assert.Equal(t, []string{"labels", "rates", "tracking", "void"}, byName["ups"])
	assert.Equal(t, []string{"labels"}, byName["stamps"])
}

func TestOptions_PassThrough(t *testing.T) {
	handler, registry := testServer(t)
	stub := &stubCarrier{name: "ups", labelResp: &carrier.LabelResponse{Success: true}}
	registry.Register(stub)

	payload := validShipment("ups")
	payload["options"] = map[string]any{
		"service_type":       "UPS Ground",
		"image_type":         "EPL",
		"origin_account":     "A01B23",
		"signature_required": true,
		"test":               true,
	}
	rec := doJSON(t, handler, http.MethodPost, "/v1/labels", payload)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "UPS Ground", stub.lastOpts.ServiceType)
	assert.Equal(t, "EPL", stub.lastOpts.ImageType)
	assert.Equal(t, "A01B23", stub.lastOpts.OriginAccount)
	assert.True(t, stub.lastOpts.SignatureRequired)
	assert.True(t, stub.lastOpts.Test)
}
