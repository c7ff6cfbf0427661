package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service. Carrier credentials are
// passed by value into adapter constructors; nothing here is mutated after
// Load returns.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// CarrierTestMode routes every carrier call to its sandbox endpoint.
	CarrierTestMode bool `envconfig:"CARRIER_TEST_MODE" default:"false"`

	// UPS
	UPSKey           string `envconfig:"UPS_KEY"`
	UPSLogin         string `envconfig:"UPS_LOGIN"`
	UPSPassword      string `envconfig:"UPS_PASSWORD"`
	UPSOriginAccount string `envconfig:"UPS_ORIGIN_ACCOUNT"`
	UPSEnabled       bool   `envconfig:"UPS_ENABLED" default:"true"`

	// Endicia
	EndiciaAccountID   string `envconfig:"ENDICIA_ACCOUNT_ID"`
	EndiciaRequesterID string `envconfig:"ENDICIA_REQUESTER_ID"`
	EndiciaPassword    string `envconfig:"ENDICIA_PASSWORD"`
	EndiciaEnabled     bool   `envconfig:"ENDICIA_ENABLED" default:"true"`

	// DHL Global Mail
	DHLGMUsername   string `envconfig:"DHLGM_USERNAME"`
	DHLGMPassword   string `envconfig:"DHLGM_PASSWORD"`
	DHLGMClientID   string `envconfig:"DHLGM_CLIENT_ID"`
	DHLGMCustomerID string `envconfig:"DHLGM_CUSTOMER_ID"`
	DHLGMEnabled    bool   `envconfig:"DHLGM_ENABLED" default:"true"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.claude.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"parcelio-shipbridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("ups.enabled", c.UPSEnabled),
		attribute.Bool("endicia.enabled", c.EndiciaEnabled),
		attribute.Bool("dhlgm.enabled", c.DHLGMEnabled),
	}
}
