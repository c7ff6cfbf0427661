package carrier_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelio/shipbridge/pkg/carrier"
)

func TestInvalidRequestError(t *testing.T) {
	err := &carrier.InvalidRequestError{
		Carrier:  "ups",
		Missing:  []string{"city", "zip"},
		Failures: []string{"unknown pickup type"},
	}

	assert.True(t, errors.Is(err, carrier.ErrInvalidShipmentRequest))
	assert.False(t, errors.Is(err, carrier.ErrTransport))
	assert.Equal(t, "ups requires: city, zip; unknown pickup type", err.Error())
}

func TestTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &carrier.TransportError{Op: "POST", URL: "https://example.com", Cause: cause}

	assert.True(t, errors.Is(err, carrier.ErrTransport))
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "POST")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestTransportError_SurvivesWrapping(t *testing.T) {
	inner := &carrier.TransportError{Op: "POST", URL: "u", Cause: errors.New("boom")}
	wrapped := fmt.Errorf("ups: %w", inner)

	assert.True(t, errors.Is(wrapped, carrier.ErrTransport))

	var te *carrier.TransportError
	require.True(t, errors.As(wrapped, &te))
	assert.Equal(t, "POST", te.Op)
}

func TestCarrierError(t *testing.T) {
	cause := errors.New("unexpected token")
	err := &carrier.CarrierError{Carrier: "ups", Code: "parse", Message: "malformed response", Cause: cause}

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "ups error (parse)")
	assert.Contains(t, err.Error(), "malformed response")

	// Is matches on carrier+code.
	assert.True(t, errors.Is(err, &carrier.CarrierError{Carrier: "ups", Code: "parse"}))
	assert.False(t, errors.Is(err, &carrier.CarrierError{Carrier: "ups", Code: "auth"}))
	assert.False(t, errors.Is(err, carrier.ErrTransport))
}
