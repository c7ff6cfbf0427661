// Package ups provides integration with the UPS XML shipping API: rating,
// tracking, two-phase label purchase (ShipConfirm/ShipAccept) and voiding.
package ups

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/parcelio/shipbridge/pkg/carrier"
)

const carrierName = "ups"

const (
	liveURL = "https://onlinetools.ups.com"
	testURL = "https://wwwcie.ups.com"
)

const (
	resourceRates  = "ups.app/xml/Rate"
	resourceTrack  = "ups.app/xml/Track"
	resourceLabel  = "ups.app/xml/ShipConfirm"
	resourceAccept = "ups.app/xml/ShipAccept"
	resourceVoid   = "ups.app/xml/Void"
)

// Config holds UPS account configuration.
type Config struct {
	// Key is the UPS access license number.
	Key      string
	Login    string
	Password string

	// OriginAccount is the default shipper account number billed for
	// prepaid shipments; Options.OriginAccount overrides it per call.
	OriginAccount string
}

// Client is the UPS carrier client.
type Client struct {
	config    Config
	transport carrier.Transport
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a UPS client using the production HTTP transport.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return NewWithTransport(cfg, carrier.NewHTTPTransport(30*time.Second), logger, tracer)
}

// NewWithTransport creates a UPS client with a custom transport.
func NewWithTransport(cfg Config, transport carrier.Transport, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		transport: transport,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// RequiredCredentials returns the credential fields UPS needs.
func (c *Client) RequiredCredentials() []string {
	return []string{"key", "login", "password"}
}

// FindRates queries UPS for rate estimates across all available services.
func (c *Client) FindRates(ctx context.Context, origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options) (*carrier.RateResponse, error) {
	origin, destination = upsifiedLocation(origin), upsifiedLocation(destination)

	c.logger.Info("Finding UPS rates",
		zap.String("origin_country", origin.CountryCode(carrier.FormatAlpha2)),
		zap.String("destination_country", destination.CountryCode(carrier.FormatAlpha2)),
		zap.Int("package_count", len(packages)),
	)

	request, err := c.buildRateRequest(origin, destination, packages, opts)
	if err != nil {
		return nil, err
	}

	payload, err := c.post(ctx, resourceRates, request, opts.Test)
	if err != nil {
		c.logger.Error("UPS rate request failed", zap.Error(err))
		return nil, err
	}

	return parseRateResponse(origin, destination, packages, payload, opts)
}

// FindTrackingInfo queries UPS for the tracking timeline of a shipment.
func (c *Client) FindTrackingInfo(ctx context.Context, trackingNumber string, opts carrier.Options) (*carrier.TrackingResponse, error) {
	c.logger.Info("Finding UPS tracking info",
		zap.String("tracking_number", trackingNumber),
	)

	request := buildTrackingRequest(trackingNumber)

	payload, err := c.post(ctx, resourceTrack, request, opts.Test)
	if err != nil {
		c.logger.Error("UPS tracking request failed", zap.Error(err))
		return nil, err
	}

	return parseTrackingResponse(payload)
}

// GetLabel purchases labels through the two-phase ShipConfirm/ShipAccept
// protocol. A rejected preview comes back with Success=false and no accept
// call is made; only the accept response produces label artifacts.
func (c *Client) GetLabel(ctx context.Context, origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options) (*carrier.LabelResponse, error) {
	origin, destination = upsifiedLocation(origin), upsifiedLocation(destination)

	c.logger.Info("Getting UPS label",
		zap.String("service_type", opts.ServiceType),
		zap.Int("package_count", len(packages)),
	)

	confirm, err := c.buildLabelRequest(origin, destination, packages, opts)
	if err != nil {
		return nil, err
	}

	payload, err := c.post(ctx, resourceLabel, confirm, opts.Test)
	if err != nil {
		c.logger.Error("UPS ship confirm request failed", zap.Error(err))
		return nil, err
	}

	digest, rejection, err := parseShipConfirmResponse(payload)
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		c.logger.Warn("UPS rejected shipment preview", zap.String("message", rejection.Message))
		return rejection, nil
	}

	accept := buildAcceptRequest(digest)
	payload, err = c.post(ctx, resourceAccept, accept, opts.Test)
	if err != nil {
		c.logger.Error("UPS ship accept request failed", zap.Error(err))
		return nil, err
	}

	return parseLabelResponse(payload)
}

// VoidLabel cancels one or more labels. With multiple tracking numbers UPS
// voids them in a single call; if any fails the response carries the
// per-package status map.
func (c *Client) VoidLabel(ctx context.Context, shipmentID string, trackingNumbers []string, opts carrier.Options) (*carrier.VoidResponse, error) {
	c.logger.Info("Voiding UPS label",
		zap.String("shipment_id", shipmentID),
		zap.Int("tracking_numbers", len(trackingNumbers)),
	)

	request := buildVoidRequest(shipmentID, trackingNumbers)

	// The void endpoint wants an XML declaration ahead of each document.
	body := append([]byte(xmlDeclaration), c.buildAccessRequest()...)
	body = append(body, []byte(xmlDeclaration)...)
	body = append(body, request...)

	payload, err := c.transport.Post(ctx, c.url(resourceVoid, opts.Test), body, xmlHeaders())
	if err != nil {
		c.logger.Error("UPS void request failed", zap.Error(err))
		return nil, err
	}

	return parseVoidResponse(payload, trackingNumbers)
}

const xmlDeclaration = `<?xml version="1.0"?>`

func xmlHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/xml"}
}

func (c *Client) url(resource string, test bool) string {
	base := liveURL
	if test {
		base = testURL
	}
	return base + "/" + resource
}

// post prepends the access document to the request document and submits the
// pair to the given resource.
func (c *Client) post(ctx context.Context, resource string, request []byte, test bool) ([]byte, error) {
	body := append(c.buildAccessRequest(), request...)
	return c.transport.Post(ctx, c.url(resource, test), body, xmlHeaders())
}

// upsifiedLocation rewrites an address the way UPS wants it: US territories
// given as states become their own destination countries, and provinces are
// dropped for countries outside the US and Canada.
func upsifiedLocation(addr carrier.Address) carrier.Address {
	cc := addr.CountryCode(carrier.FormatAlpha2)

	if cc == "US" && usTerritories[addr.Province] {
		territory, err := carrier.NewAddress(map[string]string{"country": addr.Province})
		if err == nil {
			addr.Country = territory.Country
			addr.Province = ""
		}
		return addr
	}

	if cc != "US" && cc != "CA" {
		addr.Province = ""
	}
	return addr
}

var (
	_ carrier.Carrier    = (*Client)(nil)
	_ carrier.RateFinder = (*Client)(nil)
	_ carrier.Tracker    = (*Client)(nil)
	_ carrier.Voider     = (*Client)(nil)
)
