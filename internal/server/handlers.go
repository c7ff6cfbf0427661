package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/parcelio/shipbridge/pkg/carrier"
	"go.uber.org/zap"
)

// ============================================================================
// Request payloads
// ============================================================================

// Addresses arrive as loose key/value maps so callers can use whichever field
// aliases they know (zip vs postal_code, state vs province, and so on).
type shipmentRequest struct {
	Carrier     string            `json:"carrier"`
	Origin      map[string]string `json:"origin"`
	Destination map[string]string `json:"destination"`
	Packages    []packageInput    `json:"packages"`
	Options     optionsInput      `json:"options"`
}

type packageInput struct {
	Length        float64 `json:"length"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	DimensionUnit string  `json:"dimension_unit"`
	Weight        float64 `json:"weight"`
	WeightUnit    string  `json:"weight_unit"`
	Value         float64 `json:"value"`
	Currency      string  `json:"currency"`
	PackagingType string  `json:"packaging_type"`
	Shape         string  `json:"shape"`
}

type optionsInput struct {
	ServiceType string `json:"service_type"`

	Shipper map[string]string `json:"shipper"`

	AdultSignatureRequired bool `json:"adult_signature_required"`
	SignatureRequired      bool `json:"signature_required"`
	DeliveryConfirmation   bool `json:"delivery_confirmation"`
	Insurance              bool `json:"insurance"`

	Customs *customsInput `json:"customs"`

	ReferenceNumber string `json:"reference_number"`
	Description     string `json:"description"`
	ImageType       string `json:"image_type"`
	LabelSize       string `json:"label_size"`

	PayType        string `json:"pay_type"`
	BillingAccount string `json:"billing_account"`
	BillingZip     string `json:"billing_zip"`
	BillingCountry string `json:"billing_country"`

	OriginAccount      string `json:"origin_account"`
	DestinationAccount string `json:"destination_account"`

	PickupType             string `json:"pickup_type"`
	CustomerClassification string `json:"customer_classification"`

	Value    float64 `json:"value"`
	Currency string  `json:"currency"`

	ReturnServiceCode string `json:"return_service_code"`

	MailInnovations bool    `json:"mail_innovations"`
	MIRate          float64 `json:"mi_rate"`
	Irregular       bool    `json:"irregular"`
	CostCenter      string  `json:"cost_center"`

	PackageID        string `json:"package_id"`
	MailType         string `json:"mail_type"`
	Facility         string `json:"facility"`
	LabelText        string `json:"label_text"`
	BillingRef1      string `json:"billing_ref1"`
	BillingRef2      string `json:"billing_ref2"`
	ExpectedShipDate string `json:"expected_ship_date"`

	TransactionID string `json:"transaction_id"`
	CustomerID    string `json:"customer_id"`

	Test bool `json:"test"`
}

type customsInput struct {
	Certify     bool               `json:"certify"`
	Signer      string             `json:"signer"`
	Gift        bool               `json:"gift"`
	LabelSize   string             `json:"label_size"`
	Description string             `json:"description"`
	Items       []customsItemInput `json:"items"`
}

type customsItemInput struct {
	Quantity    int     `json:"quantity"`
	Weight      float64 `json:"weight"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

type voidRequest struct {
	Carrier         string       `json:"carrier"`
	ShipmentID      string       `json:"shipment_id"`
	TrackingNumbers []string     `json:"tracking_numbers"`
	Options         optionsInput `json:"options"`
}

func (p packageInput) toPackage() carrier.Package {
	pkg := carrier.Package{
		Length:        p.Length,
		Width:         p.Width,
		Height:        p.Height,
		DimensionUnit: carrier.DimensionIN,
		Weight:        p.Weight,
		WeightUnit:    carrier.WeightLB,
		Value:         p.Value,
		Currency:      p.Currency,
		PackagingType: p.PackagingType,
		Shape:         p.Shape,
	}
	if p.DimensionUnit == "cm" {
		pkg.DimensionUnit = carrier.DimensionCM
	}
	if p.WeightUnit == "kg" {
		pkg.WeightUnit = carrier.WeightKG
	}
	return pkg
}

func (o optionsInput) toOptions() (carrier.Options, error) {
	opts := carrier.Options{
		ServiceType:            o.ServiceType,
		AdultSignatureRequired: o.AdultSignatureRequired,
		SignatureRequired:      o.SignatureRequired,
		DeliveryConfirmation:   o.DeliveryConfirmation,
		Insurance:              o.Insurance,
		ReferenceNumber:        o.ReferenceNumber,
		Description:            o.Description,
		ImageType:              o.ImageType,
		LabelSize:              o.LabelSize,
		PayType:                o.PayType,
		BillingAccount:         o.BillingAccount,
		BillingZip:             o.BillingZip,
		BillingCountry:         o.BillingCountry,
		OriginAccount:          o.OriginAccount,
		DestinationAccount:     o.DestinationAccount,
		PickupType:             o.PickupType,
		CustomerClassification: o.CustomerClassification,
		Value:                  o.Value,
		Currency:               o.Currency,
		ReturnServiceCode:      o.ReturnServiceCode,
		MailInnovations:        o.MailInnovations,
		MIRate:                 o.MIRate,
		Irregular:              o.Irregular,
		CostCenter:             o.CostCenter,
		PackageID:              o.PackageID,
		MailType:               o.MailType,
		Facility:               o.Facility,
		LabelText:              o.LabelText,
		BillingRef1:            o.BillingRef1,
		BillingRef2:            o.BillingRef2,
		ExpectedShipDate:       o.ExpectedShipDate,
		TransactionID:          o.TransactionID,
		CustomerID:             o.CustomerID,
		Test:                   o.Test,
	}

	if len(o.Shipper) > 0 {
		shipper, err := carrier.AddressFrom(o.Shipper, nil)
		if err != nil {
			return opts, err
		}
		opts.Shipper = &shipper
	}

	if o.Customs != nil {
		customs := carrier.NewCustomsDeclaration()
		customs.Certify = o.Customs.Certify
		customs.Signer = o.Customs.Signer
		customs.Gift = o.Customs.Gift
		if o.Customs.LabelSize != "" {
			customs.LabelSize = o.Customs.LabelSize
		}
		if o.Customs.Description != "" {
			customs.Description = o.Customs.Description
		}
		for _, item := range o.Customs.Items {
			customs.Items = append(customs.Items, carrier.CustomsItem{
				Quantity:    item.Quantity,
				Weight:      item.Weight,
				Value:       item.Value,
				Description: item.Description,
			})
		}
		opts.Customs = &customs
	}

	return opts, nil
}

// ============================================================================
// Response payloads
// ============================================================================

type errorResponse struct {
	Error string `json:"error"`
}

type addressOutput struct {
	Name       string `json:"name,omitempty"`
	Company    string `json:"company,omitempty"`
	Address1   string `json:"address1,omitempty"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type rateOutput struct {
	Carrier       string   `json:"carrier"`
	ServiceName   string   `json:"service_name"`
	ServiceCode   string   `json:"service_code,omitempty"`
	TotalPrice    float64  `json:"total_price"`
	Currency      string   `json:"currency"`
	DeliveryRange []string `json:"delivery_range,omitempty"`
}

type ratesResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Rates   []rateOutput `json:"rates"`
	Errors  []string     `json:"errors,omitempty"`
}

type labelOutput struct {
	TrackingNumber string `json:"tracking_number"`
	Image          string `json:"image,omitempty"`
	ImageFormat    string `json:"image_format,omitempty"`
	Postage        string `json:"postage,omitempty"`
}

type labelsResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Labels  []labelOutput `json:"labels"`
}

type eventOutput struct {
	Description string         `json:"description"`
	Time        string         `json:"time"`
	Location    *addressOutput `json:"location,omitempty"`
}

type trackingOutput struct {
	Success           bool           `json:"success"`
	Message           string         `json:"message,omitempty"`
	TrackingNumber    string         `json:"tracking_number"`
	Status            string         `json:"status"`
	StatusCode        string         `json:"status_code,omitempty"`
	StatusDescription string         `json:"status_description,omitempty"`
	Origin            *addressOutput `json:"origin,omitempty"`
	Destination       *addressOutput `json:"destination,omitempty"`
	Events            []eventOutput  `json:"events"`
	Delivered         bool           `json:"delivered"`
	Exception         bool           `json:"exception"`
	ScheduledDelivery string         `json:"scheduled_delivery,omitempty"`
}

type voidOutput struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message,omitempty"`
	PackageStatus map[string]int `json:"package_status,omitempty"`
}

type carrierOutput struct {
	Name                string   `json:"name"`
	RequiredCredentials []string `json:"required_credentials"`
	Capabilities        []string `json:"capabilities"`
}

func addressOutputFrom(addr *carrier.Address) *addressOutput {
	if addr == nil {
		return nil
	}
	return &addressOutput{
		Name:       addr.Name,
		Company:    addr.Company,
		Address1:   addr.Address1,
		Address2:   addr.Address2,
		City:       addr.City,
		Province:   addr.Province,
		PostalCode: addr.PostalCode,
		Country:    addr.CountryCode(carrier.FormatAlpha2),
		Phone:      addr.Phone,
	}
}

func rateOutputsFrom(resp *carrier.RateResponse) []rateOutput {
	rates := make([]rateOutput, 0, len(resp.Rates))
	for _, r := range resp.Rates {
		out := rateOutput{
			Carrier:     r.Carrier,
			ServiceName: r.ServiceName,
			ServiceCode: r.ServiceCode,
			TotalPrice:  r.TotalPrice,
			Currency:    r.Currency,
		}
		for _, t := range r.DeliveryRange {
			out.DeliveryRange = append(out.DeliveryRange, t.Format(time.RFC3339))
		}
		rates = append(rates, out)
	}
	return rates
}

func labelsResponseFrom(resp *carrier.LabelResponse) labelsResponse {
	out := labelsResponse{
		Success: resp.Success,
		Message: resp.Message,
		Labels:  make([]labelOutput, 0, len(resp.Labels)),
	}
	for _, l := range resp.Labels {
		out.Labels = append(out.Labels, labelOutput{
			TrackingNumber: l.TrackingNumber,
			Image:          base64.StdEncoding.EncodeToString(l.Image),
			ImageFormat:    l.ImageFormat,
			Postage:        l.Postage,
		})
	}
	return out
}

func trackingOutputFrom(resp *carrier.TrackingResponse) trackingOutput {
	out := trackingOutput{
		Success:           resp.Success,
		Message:           resp.Message,
		TrackingNumber:    resp.TrackingNumber,
		Status:            string(resp.Status),
		StatusCode:        resp.StatusCode,
		StatusDescription: resp.StatusDescription,
		Origin:            addressOutputFrom(resp.Origin),
		Destination:       addressOutputFrom(resp.Destination),
		Events:            make([]eventOutput, 0, len(resp.Events)),
		Delivered:         resp.Delivered,
		Exception:         resp.Exception,
	}
	for _, ev := range resp.Events {
		loc := ev.Location
		out.Events = append(out.Events, eventOutput{
			Description: ev.Description,
			Time:        ev.Time.Format(time.RFC3339),
			Location:    addressOutputFrom(&loc),
		})
	}
	if resp.ScheduledDelivery != nil {
		out.ScheduledDelivery = resp.ScheduledDelivery.Format(time.RFC3339)
	}
	return out
}

// ============================================================================
// Handlers
// ============================================================================

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	var req shipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	origin, destination, packages, opts, err := s.shipmentFrom(req)
	if err != nil {
		s.writeError(w, statusFromError(err), err)
		return
	}

	s.logger.Info("Finding rates",
		zap.String("request_id", requestID),
		zap.String("carrier", req.Carrier),
		zap.Int("packages", len(packages)),
	)

	if req.Carrier == "" {
		results, errs := s.registry.FindAllRates(r.Context(), origin, destination, packages, opts)
		resp := ratesResponse{Success: true, Rates: []rateOutput{}}
		for _, result := range results {
			if !result.Success {
				resp.Errors = append(resp.Errors, result.Message)
				continue
			}
			resp.Rates = append(resp.Rates, rateOutputsFrom(result)...)
		}
		for _, e := range errs {
			resp.Errors = append(resp.Errors, e.Error())
		}
		s.metrics.RecordRequest("find_rates", "all", "ok", time.Since(start).Seconds())
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	c, err := s.registry.Get(req.Carrier)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	finder, ok := c.(carrier.RateFinder)
	if !ok {
		s.writeError(w, http.StatusBadRequest, errors.New(req.Carrier+" does not support rating"))
		return
	}

	result, err := finder.FindRates(r.Context(), origin, destination, packages, opts)
	if err != nil {
		s.metrics.RecordRequest("find_rates", req.Carrier, "error", time.Since(start).Seconds())
		s.metrics.RecordError(req.Carrier, errorType(err))
		s.writeError(w, statusFromError(err), err)
		return
	}

	status := "ok"
	if !result.Success {
		status = "rejected"
	}
	s.metrics.RecordRequest("find_rates", req.Carrier, status, time.Since(start).Seconds())
	s.writeJSON(w, http.StatusOK, ratesResponse{
		Success: result.Success,
		Message: result.Message,
		Rates:   rateOutputsFrom(result),
	})
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	var req shipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Carrier == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("carrier is required"))
		return
	}

	origin, destination, packages, opts, err := s.shipmentFrom(req)
	if err != nil {
		s.writeError(w, statusFromError(err), err)
		return
	}

	c, err := s.registry.Get(req.Carrier)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	s.logger.Info("Purchasing label",
		zap.String("request_id", requestID),
		zap.String("carrier", req.Carrier),
		zap.String("service_type", opts.ServiceType),
		zap.Int("packages", len(packages)),
	)

	result, err := c.GetLabel(r.Context(), origin, destination, packages, opts)
	if err != nil {
		s.metrics.RecordRequest("get_label", req.Carrier, "error", time.Since(start).Seconds())
		s.metrics.RecordError(req.Carrier, errorType(err))
		s.writeError(w, statusFromError(err), err)
		return
	}

	status := "ok"
	if !result.Success {
		status = "rejected"
	}
	s.metrics.RecordRequest("get_label", req.Carrier, status, time.Since(start).Seconds())
	s.writeJSON(w, http.StatusOK, labelsResponseFrom(result))
}

func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	number := r.PathValue("number")
	name := r.URL.Query().Get("carrier")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("carrier query parameter is required"))
		return
	}

	c, err := s.registry.Get(name)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	tracker, ok := c.(carrier.Tracker)
	if !ok {
		s.writeError(w, http.StatusBadRequest, errors.New(name+" does not support tracking"))
		return
	}

	s.logger.Info("Finding tracking info",
		zap.String("request_id", requestID),
		zap.String("carrier", name),
		zap.String("tracking_number", number),
	)

	result, err := tracker.FindTrackingInfo(r.Context(), number, carrier.Options{Test: s.testMode})
	if err != nil {
		s.metrics.RecordRequest("find_tracking_info", name, "error", time.Since(start).Seconds())
		s.metrics.RecordError(name, errorType(err))
		s.writeError(w, statusFromError(err), err)
		return
	}

	status := "ok"
	if !result.Success {
		status = "rejected"
	}
	s.metrics.RecordRequest("find_tracking_info", name, status, time.Since(start).Seconds())
	s.writeJSON(w, http.StatusOK, trackingOutputFrom(result))
}

func (s *Server) handleVoid(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	var req voidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Carrier == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("carrier is required"))
		return
	}

	c, err := s.registry.Get(req.Carrier)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	voider, ok := c.(carrier.Voider)
	if !ok {
		s.writeError(w, http.StatusBadRequest, errors.New(req.Carrier+" does not support voiding"))
		return
	}

	opts, err := req.Options.toOptions()
	if err != nil {
		s.writeError(w, statusFromError(err), err)
		return
	}
	opts.Test = opts.Test || s.testMode

	s.logger.Info("Voiding label",
		zap.String("request_id", requestID),
		zap.String("carrier", req.Carrier),
		zap.String("shipment_id", req.ShipmentID),
		zap.Int("tracking_numbers", len(req.TrackingNumbers)),
	)

	result, err := voider.VoidLabel(r.Context(), req.ShipmentID, req.TrackingNumbers, opts)
	if err != nil {
		s.metrics.RecordRequest("void_label", req.Carrier, "error", time.Since(start).Seconds())
		s.metrics.RecordError(req.Carrier, errorType(err))
		s.writeError(w, statusFromError(err), err)
		return
	}

	status := "ok"
	if !result.Success {
		status = "rejected"
	}
	s.metrics.RecordRequest("void_label", req.Carrier, status, time.Since(start).Seconds())
	s.writeJSON(w, http.StatusOK, voidOutput{
		Success:       result.Success,
		Message:       result.Message,
		PackageStatus: result.PackageStatus,
	})
}

func (s *Server) handleCarriers(w http.ResponseWriter, r *http.Request) {
	out := make([]carrierOutput, 0, s.registry.Count())
	for _, c := range s.registry.All() {
		entry := carrierOutput{
			Name:                c.Name(),
			RequiredCredentials: c.RequiredCredentials(),
			Capabilities:        []string{"labels"},
		}
		if _, ok := c.(carrier.RateFinder); ok {
			entry.Capabilities = append(entry.Capabilities, "rates")
		}
		if _, ok := c.(carrier.Tracker); ok {
			entry.Capabilities = append(entry.Capabilities, "tracking")
		}
		if _, ok := c.(carrier.Voider); ok {
			entry.Capabilities = append(entry.Capabilities, "void")
		}
		out = append(out, entry)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// shipmentFrom converts a decoded request into domain values. Address
// conversion errors surface as validation failures.
func (s *Server) shipmentFrom(req shipmentRequest) (origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options, err error) {
	origin, err = carrier.AddressFrom(req.Origin, nil)
	if err != nil {
		return
	}
	destination, err = carrier.AddressFrom(req.Destination, nil)
	if err != nil {
		return
	}
	packages = make([]carrier.Package, 0, len(req.Packages))
	for _, p := range req.Packages {
		packages = append(packages, p.toPackage())
	}
	opts, err = req.Options.toOptions()
	if err != nil {
		return
	}
	opts.Test = opts.Test || s.testMode
	return
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

// statusFromError maps the error taxonomy onto HTTP statuses: bad input is
// 422, carrier/network trouble is 502, unknown carriers are 404.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, carrier.ErrInvalidShipmentRequest),
		errors.Is(err, carrier.ErrUnknownCountry),
		errors.Is(err, carrier.ErrInvalidAddressType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, carrier.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, carrier.ErrCarrierNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, carrier.ErrInvalidShipmentRequest):
		return "validation"
	case errors.Is(err, carrier.ErrTransport):
		return "transport"
	default:
		return "carrier"
	}
}
