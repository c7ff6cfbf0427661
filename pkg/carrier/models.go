package carrier

import (
	"time"
)

// TrackingStatus is the normalized coarse status of a shipment.
type TrackingStatus string

const (
	StatusInTransit      TrackingStatus = "in_transit"
	StatusDelivered      TrackingStatus = "delivered"
	StatusException      TrackingStatus = "exception"
	StatusPickup         TrackingStatus = "pickup"
	StatusManifestPickup TrackingStatus = "manifest_pickup"
	StatusOutForDelivery TrackingStatus = "out_for_delivery"
	StatusUnknown        TrackingStatus = "unknown"
)

// WeightUnit represents a weight measurement unit.
type WeightUnit string

const (
	WeightKG WeightUnit = "kg"
	WeightLB WeightUnit = "lb"
)

// DimensionUnit represents a dimension measurement unit.
type DimensionUnit string

const (
	DimensionCM DimensionUnit = "cm"
	DimensionIN DimensionUnit = "in"
)

// Axis identifies one package dimension.
type Axis int

const (
	AxisLength Axis = iota
	AxisWidth
	AxisHeight
)

const (
	lbsPerKg   = 2.20462262185
	inchesPerCm = 0.3937007874015748
)

// Package is one physical parcel in a shipment. Dimensions and weight are
// stored in the unit the caller supplied; accessors convert to whichever
// system a carrier's wire protocol wants.
type Package struct {
	Length float64
	Width  float64
	Height float64
	// DimensionUnit is the unit Length/Width/Height are expressed in.
	DimensionUnit DimensionUnit

	Weight float64
	// WeightUnit is the unit Weight is expressed in.
	WeightUnit WeightUnit

	// Value is the declared monetary value, in Currency.
	Value    float64
	Currency string

	// PackagingType is the human-readable packaging label resolved through
	// the carrier's packaging code table (e.g. "Customer Supplied Package").
	PackagingType string

	// Shape is the mailpiece shape for carriers that want one (e.g. "PARCEL").
	Shape string
}

// Kgs returns the package weight in kilograms.
func (p Package) Kgs() float64 {
	if p.WeightUnit == WeightLB {
		return p.Weight / lbsPerKg
	}
	return p.Weight
}

// Lbs returns the package weight in pounds.
func (p Package) Lbs() float64 {
	if p.WeightUnit == WeightLB {
		return p.Weight
	}
	return p.Weight * lbsPerKg
}

// Oz returns the package weight in ounces.
func (p Package) Oz() float64 {
	return p.Lbs() * 16
}

// Cm returns the given dimension in centimeters.
func (p Package) Cm(axis Axis) float64 {
	v := p.dimension(axis)
	if p.DimensionUnit == DimensionIN {
		return v / inchesPerCm
	}
	return v
}

// Inches returns the given dimension in inches.
func (p Package) Inches(axis Axis) float64 {
	v := p.dimension(axis)
	if p.DimensionUnit == DimensionIN {
		return v
	}
	return v * inchesPerCm
}

func (p Package) dimension(axis Axis) float64 {
	switch axis {
	case AxisLength:
		return p.Length
	case AxisWidth:
		return p.Width
	default:
		return p.Height
	}
}

// CustomsFormType enumerates the supported customs forms.
type CustomsFormType string

// FormCN22 is the only customs form currently supported.
const FormCN22 CustomsFormType = "CN22"

var uspsFormTypes = map[CustomsFormType]string{
	FormCN22: "Form2976",
}

// CustomsItem is one line item on a customs declaration.
type CustomsItem struct {
	Quantity    int
	Weight      float64
	Value       float64
	Description string
}

// CustomsDeclaration describes the customs paperwork for an international
// shipment.
type CustomsDeclaration struct {
	FormType    CustomsFormType
	Certify     bool
	Signer      string
	Gift        bool
	LabelSize   string
	Description string
	Items       []CustomsItem
}

// NewCustomsDeclaration returns a declaration with the form type and
// description defaulted the way carriers expect.
func NewCustomsDeclaration() CustomsDeclaration {
	return CustomsDeclaration{
		FormType:    FormCN22,
		Description: "Merchandise",
	}
}

// ContentsType derives the declared contents type from the gift flag.
func (c CustomsDeclaration) ContentsType() string {
	if c.Gift {
		return "GIFT"
	}
	return "MERCHANDISE"
}

// USPSFormType maps the form type to the USPS integrated-form identifier.
func (c CustomsDeclaration) USPSFormType() string {
	return uspsFormTypes[c.FormType]
}

// TotalQuantity sums the quantities of all declared items.
func (c CustomsDeclaration) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// RateEstimate is one normalized price quote for a service on a shipment.
type RateEstimate struct {
	Carrier     string
	ServiceName string
	ServiceCode string
	TotalPrice  float64
	Currency    string
	Packages    []Package

	// DeliveryRange holds the estimated delivery window: one timestamp for a
	// point estimate, two for a range, empty when the carrier gave none.
	DeliveryRange []time.Time
}

// RateResponse is the normalized result of a rate query. A well-formed
// carrier rejection comes back with Success=false and the carrier's message;
// only transport and parse failures surface as errors.
type RateResponse struct {
	Success bool
	Message string
	Rates   []RateEstimate
}

// ShipmentEvent is one scan/activity entry on a tracking timeline.
type ShipmentEvent struct {
	Description string
	Time        time.Time
	Location    Address
}

// TrackingResponse is the normalized result of a tracking query.
type TrackingResponse struct {
	Success bool
	Message string

	TrackingNumber    string
	Status            TrackingStatus
	StatusCode        string
	StatusDescription string

	Origin      *Address
	Destination *Address

	// Events is ordered ascending by timestamp regardless of wire order.
	Events []ShipmentEvent

	Delivered      bool
	Exception      bool
	ExceptionEvent *ShipmentEvent

	// ScheduledDelivery is set while the shipment is still undelivered.
	ScheduledDelivery *time.Time
}

// PackageLabel is the label artifact for a single package.
type PackageLabel struct {
	TrackingNumber string

	// EncodedImage is the raw payload exactly as the carrier sent it.
	EncodedImage string
	// Image is the decoded binary label.
	Image []byte
	// ImageFormat is the carrier-reported image format (e.g. "GIF", "EPL").
	ImageFormat string

	// HighValueReport is the decoded insurance control report, present only
	// for packages the carrier flagged as high value.
	HighValueReport       []byte
	HighValueReportFormat string

	// Postage is the final postage amount for carriers that report one.
	Postage string
}

// LabelResponse is the normalized result of a label purchase.
type LabelResponse struct {
	Success bool
	Message string
	Labels  []PackageLabel
}

// VoidResponse is the normalized result of a void request. When every
// tracking number voided cleanly Success is true and PackageStatus is nil;
// when results are mixed, PackageStatus maps each tracking number to the
// carrier's per-package status code so callers can see exactly which failed.
type VoidResponse struct {
	Success       bool
	Message       string
	PackageStatus map[string]int
}
