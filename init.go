package main

import (
	"context"

	"github.com/parcelio/shipbridge/internal/config"
	"github.com/parcelio/shipbridge/internal/telemetry"
	"github.com/parcelio/shipbridge/pkg/carrier"
	"github.com/parcelio/shipbridge/pkg/carrier/dhlgm"
	"github.com/parcelio/shipbridge/pkg/carrier/endicia"
	"github.com/parcelio/shipbridge/pkg/carrier/ups"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

func initCarrierRegistry(cfg *config.Config, logger *otelzap.Logger) *carrier.Registry {
	registry := carrier.NewRegistry()
	tracer := otel.GetTracerProvider().Tracer(cfg.ServiceName)

	if cfg.UPSEnabled {
		registry.Register(ups.New(ups.Config{
			Key:           cfg.UPSKey,
			Login:         cfg.UPSLogin,
			Password:      cfg.UPSPassword,
			OriginAccount: cfg.UPSOriginAccount,
		}, logger, tracer))
	}

	if cfg.EndiciaEnabled {
		registry.Register(endicia.New(endicia.Config{
			AccountID:   cfg.EndiciaAccountID,
			RequesterID: cfg.EndiciaRequesterID,
			Password:    cfg.EndiciaPassword,
		}, logger, tracer))
	}

	if cfg.DHLGMEnabled {
		registry.Register(dhlgm.New(dhlgm.Config{
			Username:   cfg.DHLGMUsername,
			Password:   cfg.DHLGMPassword,
			ClientID:   cfg.DHLGMClientID,
			CustomerID: cfg.DHLGMCustomerID,
		}, logger, tracer))
	}

	return registry
}
