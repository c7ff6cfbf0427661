package carrier

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the normalization layer. Rich error types below match
// these through errors.Is so callers can branch on category without
// inspecting concrete types.
var (
	// ErrInvalidShipmentRequest indicates required shipment fields are
	// missing or structurally invalid; raised before any network call.
	ErrInvalidShipmentRequest = errors.New("invalid shipment request")

	// ErrUnknownCountry indicates a country identifier could not be resolved.
	ErrUnknownCountry = errors.New("unknown country")

	// ErrInvalidAddressType indicates an address type outside
	// residential/commercial/po_box.
	ErrInvalidAddressType = errors.New("invalid address type")

	// ErrInvalidZip indicates a ZIP code outside every known state range.
	ErrInvalidZip = errors.New("invalid zip code")

	// ErrTransport indicates a network or transport-layer failure.
	ErrTransport = errors.New("transport failure")

	// ErrCarrierNotFound indicates the requested carrier is not registered.
	ErrCarrierNotFound = errors.New("carrier not found")
)

// InvalidRequestError aggregates every field-requirement violation found
// during a single request-build pass. The message enumerates all of them so
// callers fix the request in one round trip instead of twenty.
type InvalidRequestError struct {
	Carrier  string
	Missing  []string
	Failures []string
}

// Error implements the error interface.
func (e *InvalidRequestError) Error() string {
	parts := make([]string, 0, 1+len(e.Failures))
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%s requires: %s", e.Carrier, strings.Join(e.Missing, ", ")))
	}
	parts = append(parts, e.Failures...)
	return strings.Join(parts, "; ")
}

// Is implements errors.Is for InvalidRequestError.
func (e *InvalidRequestError) Is(target error) bool {
	return target == ErrInvalidShipmentRequest
}

// TransportError wraps a network or HTTP-level failure. The core never
// retries these; retry policy belongs to the transport owner.
type TransportError struct {
	Op    string
	URL   string
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.URL, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// CarrierError represents a failure attributed to a specific carrier,
// typically a rejected preview step or an unparseable payload.
type CarrierError struct {
	Carrier string
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *CarrierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CarrierError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for CarrierError.
func (e *CarrierError) Is(target error) bool {
	t, ok := target.(*CarrierError)
	if !ok {
		return false
	}
	return e.Carrier == t.Carrier && e.Code == t.Code
}
