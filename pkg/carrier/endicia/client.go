// Package endicia provides USPS label purchase through the Endicia label
// server.
package endicia

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/parcelio/shipbridge/pkg/carrier"
)

const carrierName = "endicia"

const (
	liveURL = "https://labelserver.endicia.com"
	testURL = "https://www.envmgr.com"
)

const resourceLabel = "LabelService/EwsLabelService.asmx/GetPostageLabelXML"

// Config holds Endicia account configuration.
type Config struct {
	AccountID   string
	RequesterID string
	Password    string
}

// Client is the Endicia carrier client.
type Client struct {
	config    Config
	transport carrier.Transport
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates an Endicia client using the production HTTP transport.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return NewWithTransport(cfg, carrier.NewHTTPTransport(30*time.Second), logger, tracer)
}

// NewWithTransport creates an Endicia client with a custom transport.
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

// RequiredCredentials returns the credential fields Endicia needs.
func (c *Client) RequiredCredentials() []string {
	return []string{"account_id", "requester_id", "password"}
}

// GetLabel purchases a USPS label. Endicia labels one package per request;
// only the first package is used.
func (c *Client) GetLabel(ctx context.Context, origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options) (*carrier.LabelResponse, error) {
	c.logger.Info("Getting Endicia label",
		zap.String("service_type", opts.ServiceType),
		zap.String("destination_country", destination.CountryCode(carrier.FormatAlpha2)),
	)

	request, err := c.buildLabelRequest(origin, destination, packages, opts)
	if err != nil {
		return nil, err
	}

	base := liveURL
	if opts.Test {
		base = testURL
	}
	payload, err := c.transport.Post(ctx, base+"/"+resourceLabel, request, map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	if err != nil {
		c.logger.Error("Endicia label request failed", zap.Error(err))
		return nil, err
	}

	return parseLabelResponse(payload, opts)
}

var _ carrier.Carrier = (*Client)(nil)
