// Package carrier provides a normalization layer over parcel carriers:
// one domain model for addresses, packages, customs data and shipping
// results, translated to and from each carrier's wire protocol by a
// small fixed set of adapters.
package carrier

import (
	"context"
)

// Carrier is the contract every adapter implements. Label purchase is the
// one operation all supported carriers share; rating, tracking and voiding
// are optional capabilities expressed as separate interfaces.
type Carrier interface {
	// Name returns the carrier identifier (e.g., "ups", "endicia", "dhlgm").
	Name() string

	// RequiredCredentials lists the credential fields the carrier needs
	// before any call can succeed (e.g., "account_id", "password").
	// Configuration tooling queries this without issuing network calls.
	RequiredCredentials() []string

	// GetLabel purchases shipping labels for the given packages.
	GetLabel(ctx context.Context, origin, destination Address, packages []Package, opts Options) (*LabelResponse, error)
}

// RateFinder is implemented by carriers that can quote shipping rates.
type RateFinder interface {
	Carrier

	// FindRates returns rate estimates for the shipment.
	FindRates(ctx context.Context, origin, destination Address, packages []Package, opts Options) (*RateResponse, error)
}

// Tracker is implemented by carriers that expose shipment tracking.
type Tracker interface {
	Carrier

	// FindTrackingInfo returns the tracking timeline for a tracking number.
	FindTrackingInfo(ctx context.Context, trackingNumber string, opts Options) (*TrackingResponse, error)
}

// Voider is implemented by carriers that can void purchased labels.
type Voider interface {
	Carrier

	// VoidLabel cancels one or more labels belonging to a shipment.
	VoidLabel(ctx context.Context, shipmentID string, trackingNumbers []string, opts Options) (*VoidResponse, error)
}

// Options carries the recognized per-shipment options. Adapters read the
// fields they understand and ignore the rest. Options are supplied fresh on
// every call; adapters must not retain or mutate them across calls.
type Options struct {
	// ServiceType is the human-readable service name (e.g. "UPS Ground",
	// "USPS Priority Mail"). Adapters resolve it through their code tables.
	ServiceType string

	// Shipper overrides the shipper address when it differs from the origin.
	Shipper *Address

	// Confirmation tier inputs. When more than one is set the adapter picks
	// the highest tier: adult signature, then signature, then confirmation.
	AdultSignatureRequired bool
	SignatureRequired      bool
	DeliveryConfirmation   bool

	// Insurance requests insured handling for packages with a declared value.
	Insurance bool

	// Customs describes the customs declaration for international shipments.
	Customs *CustomsDeclaration

	ReferenceNumber string
	Description     string

	// ImageType selects the label image encoding (e.g. "GIF", "EPL").
	ImageType string
	LabelSize string

	// Payment options.
	PayType        string
	BillingAccount string
	BillingZip     string
	BillingCountry string

	// Account numbers attached to the shipper / receiver location blocks.
	OriginAccount      string
	DestinationAccount string

	PickupType             string
	CustomerClassification string

	// Declared invoice value for shipments that require an invoice line total.
	Value    float64
	Currency string

	ReturnServiceCode string

	// Mail Innovations options.
	MailInnovations bool
	MIRate          float64
	Irregular       bool
	CostCenter      string
	FoldHereText    string

	// DHL Global Mail options.
	PackageID        string
	MailType         string
	Facility         string
	LabelText        string
	BillingRef1      string
	BillingRef2      string
	ExpectedShipDate string

	// Endicia partner identifiers.
	TransactionID string
	CustomerID    string

	// Test routes the request to the carrier's sandbox environment.
	Test bool
}

// ConfirmationTier derives the single wire confirmation tier from the three
// independent signature options. Adult signature outranks signature, which
// outranks bare delivery confirmation. Returns 0 when none is requested.
func (o Options) ConfirmationTier() int {
	switch {
	case o.AdultSignatureRequired:
		return 1
	case o.SignatureRequired:
		return 2
	case o.DeliveryConfirmation:
		return 3
	}
	return 0
}
