// Package dhlgm provides label purchase through the DHL Global Mail API.
// Every label call first fetches a short-lived access token, then posts an
// EncodeRequest document to the customer's label resource.
package dhlgm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/parcelio/shipbridge/pkg/carrier"
)

const carrierName = "dhlgm"

const apiVersion = "v1"

const (
	liveURL = "https://api.dhlglobalmail.com/" + apiVersion
	testURL = "https://apitest.dhlglobalmail.com/" + apiVersion
)

const (
	resourceAuth  = "auth/access_token"
	resourceLabel = "label/US/%s/image.xml"
)

// Config holds DHL Global Mail account configuration.
type Config struct {
	Username   string
	Password   string
	ClientID   string
	CustomerID string
}

// Client is the DHL Global Mail carrier client.
type Client struct {
	config    Config
	transport carrier.Transport
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a DHL Global Mail client using the production HTTP transport.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return NewWithTransport(cfg, carrier.NewHTTPTransport(30*time.Second), logger, tracer)
}

// NewWithTransport creates a DHL Global Mail client with a custom transport.
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

// RequiredCredentials returns the credential fields DHL Global Mail needs.
func (c *Client) RequiredCredentials() []string {
	return []string{"username", "password", "client_id", "customer_id"}
}

// GetLabel purchases labels for the given packages.
func (c *Client) GetLabel(ctx context.Context, origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options) (*carrier.LabelResponse, error) {
	c.logger.Info("Getting DHL Global Mail label",
		zap.String("service_type", opts.ServiceType),
		zap.Int("package_count", len(packages)),
	)

	request, err := c.buildLabelRequest(origin, destination, packages, opts)
	if err != nil {
		return nil, err
	}

	token, err := c.fetchAccessToken(ctx, opts.Test)
	if err != nil {
		c.logger.Error("DHL Global Mail auth failed", zap.Error(err))
		return nil, err
	}

	labelURL := c.labelURL(token, opts.Test)
	payload, err := c.transport.Post(ctx, labelURL, request, map[string]string{
		"Content-Type": "application/xml",
	})
	if err != nil {
		c.logger.Error("DHL Global Mail label request failed", zap.Error(err))
		return nil, err
	}

	return parseLabelResponse(payload)
}

// fetchAccessToken retrieves the short-lived token that authorizes the
// label call.
func (c *Client) fetchAccessToken(ctx context.Context, test bool) (string, error) {
	authURL := c.base(test) + "/" + resourceAuth +
		"?username=" + url.QueryEscape(c.config.Username) +
		"&password=" + url.QueryEscape(c.config.Password)

	payload, err := c.transport.Get(ctx, authURL, nil)
	if err != nil {
		return "", err
	}

	var auth struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &auth); err != nil {
		return "", &carrier.CarrierError{
			Carrier: carrierName,
			Code:    "auth",
			Message: "malformed access token response",
			Cause:   err,
		}
	}
	if auth.Data.AccessToken == "" {
		return "", &carrier.CarrierError{
			Carrier: carrierName,
			Code:    "auth",
			Message: "could not fetch access token",
		}
	}
	return auth.Data.AccessToken, nil
}

func (c *Client) labelURL(token string, test bool) string {
	resource := fmt.Sprintf(resourceLabel, c.config.CustomerID)
	return c.base(test) + "/" + resource +
		"?client_id=" + url.QueryEscape(c.config.ClientID) +
		"&access_token=" + url.QueryEscape(token)
}

func (c *Client) base(test bool) string {
	if test {
		return testURL
	}
	return liveURL
}

var _ carrier.Carrier = (*Client)(nil)
