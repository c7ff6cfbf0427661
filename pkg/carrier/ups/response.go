package ups

import (
	"encoding/base64"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/parcelio/shipbridge/pkg/carrier"
)

// ============================================================================
// Response parsers
// ============================================================================

var outForDeliveryRe = regexp.MustCompile(`(?i)out.*delivery`)

func parseDocument(payload []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(payload); err != nil {
		return nil, &carrier.CarrierError{
			Carrier: carrierName,
			Code:    "parse",
			Message: "malformed response document",
			Cause:   err,
		}
	}
	return doc, nil
}

func responseSuccess(doc *etree.Document) bool {
	return elementText(doc.Root(), "Response/ResponseStatusCode") == "1"
}

func responseMessage(doc *etree.Document) string {
	if msg := elementText(doc.Root(), "Response/Error/ErrorDescription"); msg != "" {
		return msg
	}
	return elementText(doc.Root(), "Response/ResponseStatusDescription")
}

func parseRateResponse(origin, destination carrier.Address, packages []carrier.Package, payload []byte, opts carrier.Options) (*carrier.RateResponse, error) {
	doc, err := parseDocument(payload)
	if err != nil {
		return nil, err
	}

	resp := &carrier.RateResponse{
		Success: responseSuccess(doc),
		Message: responseMessage(doc),
	}
	if !resp.Success {
		return resp, nil
	}

	now := time.Now().UTC()
	for _, rated := range doc.Root().FindElements("RatedShipment") {
		serviceCode := elementText(rated, "Service/Code")
		price, _ := strconv.ParseFloat(elementText(rated, "TotalCharges/MonetaryValue"), 64)
		days, _ := strconv.Atoi(elementText(rated, "GuaranteedDaysToDelivery"))

		estimate := carrier.RateEstimate{
			Carrier:     carrierName,
			ServiceName: serviceNameFor(origin, serviceCode),
			ServiceCode: serviceCode,
			TotalPrice:  price,
			Currency:    elementText(rated, "TotalCharges/CurrencyCode"),
			Packages:    packages,
		}
		if days > 0 {
			estimate.DeliveryRange = []time.Time{timestampFromBusinessDay(days, now)}
		}
		resp.Rates = append(resp.Rates, estimate)
	}

	// Mail Innovations rates are not returned by the rating endpoint, so
	// they are synthesized from the per-pound contract rate.
	if opts.MailInnovations {
		domestic := origin.CountryCode(carrier.FormatAlpha2) == "US" &&
			destination.CountryCode(carrier.FormatAlpha2) == "US"

		serviceCode := "M5"
		window := [2]int{6, 10}
		if domestic {
			serviceCode = "M4"
			window = [2]int{2, 6}
		}

		perPound := opts.MIRate
		if perPound == 0 {
			perPound = 11.0
		}
		var totalLbs float64
		for _, pkg := range packages {
			totalLbs += pkg.Lbs()
		}

		resp.Rates = append(resp.Rates, carrier.RateEstimate{
			Carrier:     carrierName,
			ServiceName: serviceNameFor(origin, serviceCode),
			ServiceCode: serviceCode,
			TotalPrice:  totalLbs * perPound,
			Currency:    "USD",
			Packages:    packages,
			DeliveryRange: []time.Time{
				timestampFromBusinessDay(window[0], now),
				timestampFromBusinessDay(window[1], now),
			},
		})
	}

	return resp, nil
}

func parseTrackingResponse(payload []byte) (*carrier.TrackingResponse, error) {
	doc, err := parseDocument(payload)
	if err != nil {
		return nil, err
	}

	resp := &carrier.TrackingResponse{
		Success: responseSuccess(doc),
		Message: responseMessage(doc),
	}
	if !resp.Success {
		return resp, nil
	}

	shipment := doc.Root().FindElement("Shipment")
	if shipment == nil {
		return nil, &carrier.CarrierError{
			Carrier: carrierName,
			Code:    "parse",
			Message: "tracking response has no Shipment element",
		}
	}
	pkg := shipment.FindElement("Package")

	resp.TrackingNumber = elementText(shipment, "ShipmentIdentificationNumber")
	if resp.TrackingNumber == "" && pkg != nil {
		resp.TrackingNumber = elementText(pkg, "TrackingNumber")
	}

	if pkg != nil {
		resp.StatusCode = elementText(pkg, "Activity/Status/StatusType/Code")
		resp.StatusDescription = elementText(pkg, "Activity/Status/StatusType/Description")
	}
	status, ok := trackingStatusCodes[resp.StatusCode]
	if !ok {
		status = carrier.StatusUnknown
	}
	// The status code lags the narrative description on the day of delivery.
	if outForDeliveryRe.MatchString(resp.StatusDescription) {
		status = carrier.StatusOutForDelivery
	}
	resp.Status = status
	resp.Delivered = status == carrier.StatusDelivered
	resp.Exception = status == carrier.StatusException

	resp.Origin = addressFromNode(shipment.FindElement("Shipper/Address"))
	resp.Destination = addressFromNode(shipment.FindElement("ShipTo/Address"))

	if !resp.Delivered {
		if t, ok := parseDateTime(elementText(shipment, "ScheduledDeliveryDate"), ""); ok {
			resp.ScheduledDelivery = &t
		}
	}

	if pkg != nil {
		for _, activity := range pkg.FindElements("Activity") {
			event := carrier.ShipmentEvent{
				Description: elementText(activity, "Status/StatusType/Description"),
			}
			if t, ok := parseDateTime(elementText(activity, "Date"), elementText(activity, "Time")); ok {
				event.Time = t
			}
			if loc := addressFromNode(activity.FindElement("ActivityLocation/Address")); loc != nil {
				event.Location = *loc
			}
			resp.Events = append(resp.Events, event)
		}
	}

	sort.SliceStable(resp.Events, func(i, j int) bool {
		return resp.Events[i].Time.Before(resp.Events[j].Time)
	})

	// UPS sometimes archives a shipment, stripping all activity except the
	// delivery scan. Re-introduce an origin event unless that is the case.
	if len(resp.Events) > 0 {
		if resp.Origin != nil && !(len(resp.Events) == 1 && resp.Delivered) {
			first := resp.Events[0]
			sameCountry := resp.Origin.CountryCode(carrier.FormatAlpha2) ==
				first.Location.CountryCode(carrier.FormatAlpha2)
			sameOrBlankCity := first.Location.City == "" || first.Location.City == resp.Origin.City

			originEvent := carrier.ShipmentEvent{
				Description: first.Description,
				Time:        first.Time,
				Location:    *resp.Origin,
			}
			if sameCountry && sameOrBlankCity {
				resp.Events[0] = originEvent
			} else {
				resp.Events = append([]carrier.ShipmentEvent{originEvent}, resp.Events...)
			}
		}

		if resp.Delivered {
			last := len(resp.Events) - 1
			if resp.Destination == nil {
				loc := resp.Events[last].Location
				resp.Destination = &loc
			}
			resp.Events[last].Location = *resp.Destination
		}

		if resp.Exception {
			event := resp.Events[len(resp.Events)-1]
			resp.ExceptionEvent = &event
		}
	}

	return resp, nil
}

// parseShipConfirmResponse extracts the shipment digest from the preview
// response. A business rejection is returned as a ready-made LabelResponse
// with Success=false; a success payload without a digest is a parse error.
func parseShipConfirmResponse(payload []byte) (digest string, rejection *carrier.LabelResponse, err error) {
	doc, err := parseDocument(payload)
	if err != nil {
		return "", nil, err
	}

	if !responseSuccess(doc) {
		return "", &carrier.LabelResponse{
			Success: false,
			Message: responseMessage(doc),
		}, nil
	}

	digest = elementText(doc.Root(), "ShipmentDigest")
	if digest == "" {
		return "", nil, &carrier.CarrierError{
			Carrier: carrierName,
			Code:    "parse",
			Message: "ship confirm response is missing the shipment digest",
		}
	}
	return digest, nil, nil
}

func parseLabelResponse(payload []byte) (*carrier.LabelResponse, error) {
	doc, err := parseDocument(payload)
	if err != nil {
		return nil, err
	}

	resp := &carrier.LabelResponse{
		Success: responseSuccess(doc),
		Message: responseMessage(doc),
	}
	if !resp.Success {
		return resp, nil
	}

	results := doc.Root().FindElement("ShipmentResults")
	if results == nil {
		return nil, &carrier.CarrierError{
			Carrier: carrierName,
			Code:    "parse",
			Message: "ship accept response has no ShipmentResults element",
		}
	}

	// The control log receipt is shipment-level; it accompanies packages
	// with a high declared value and is attached to each label.
	var highValue []byte
	var highValueFormat string
	if encoded := elementText(results, "ControlLogReceipt/GraphicImage"); encoded != "" {
		highValue, err = decodeImage(encoded)
		if err != nil {
			return nil, err
		}
		highValueFormat = elementText(results, "ControlLogReceipt/ImageFormat/Code")
	}

	for _, pkgResult := range results.FindElements("PackageResults") {
		label := carrier.PackageLabel{
			TrackingNumber:        elementText(pkgResult, "TrackingNumber"),
			EncodedImage:          elementText(pkgResult, "LabelImage/GraphicImage"),
			ImageFormat:           elementText(pkgResult, "LabelImage/LabelImageFormat/Code"),
			HighValueReport:       highValue,
			HighValueReportFormat: highValueFormat,
		}
		if label.EncodedImage != "" {
			label.Image, err = decodeImage(label.EncodedImage)
			if err != nil {
				return nil, err
			}
		}
		resp.Labels = append(resp.Labels, label)
	}

	return resp, nil
}

func parseVoidResponse(payload []byte, trackingNumbers []string) (*carrier.VoidResponse, error) {
	doc, err := parseDocument(payload)
	if err != nil {
		return nil, err
	}

	message := responseMessage(doc)

	if len(trackingNumbers) > 1 {
		allVoided := true
		statuses := make(map[string]int)
		for _, pkgResult := range doc.Root().FindElements("PackageLevelResults") {
			number := elementText(pkgResult, "TrackingNumber")
			code, _ := strconv.Atoi(elementText(pkgResult, "StatusCode/Code"))
			statuses[number] = code
			if code != 1 {
				allVoided = false
			}
		}
		if allVoided {
			return &carrier.VoidResponse{Success: true, Message: message}, nil
		}
		return &carrier.VoidResponse{
			Success:       false,
			Message:       message,
			PackageStatus: statuses,
		}, nil
	}

	return &carrier.VoidResponse{
		Success: responseSuccess(doc),
		Message: message,
	}, nil
}

// ============================================================================
// Parse helpers
// ============================================================================

func elementText(el *etree.Element, path string) string {
	if el == nil {
		return ""
	}
	if found := el.FindElement(path); found != nil {
		return strings.TrimSpace(found.Text())
	}
	return ""
}

func addressFromNode(el *etree.Element) *carrier.Address {
	if el == nil {
		return nil
	}
	addr, err := carrier.NewAddress(map[string]string{
		"country":     elementText(el, "CountryCode"),
		"postal_code": elementText(el, "PostalCode"),
		"province":    elementText(el, "StateProvinceCode"),
		"city":        elementText(el, "City"),
		"address1":    elementText(el, "AddressLine1"),
		"address2":    elementText(el, "AddressLine2"),
		"address3":    elementText(el, "AddressLine3"),
	})
	if err != nil {
		return nil
	}
	return &addr
}

// parseDateTime builds a UTC timestamp from the wire's YYYYMMDD date and
// optional HHMMSS time.
func parseDateTime(date, clock string) (time.Time, bool) {
	if len(date) < 8 {
		return time.Time{}, false
	}
	year, err1 := strconv.Atoi(date[0:4])
	month, err2 := strconv.Atoi(date[4:6])
	day, err3 := strconv.Atoi(date[6:8])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}

	var hour, minute, second int
	if len(clock) >= 6 {
		hour, _ = strconv.Atoi(clock[0:2])
		minute, _ = strconv.Atoi(clock[2:4])
		second, _ = strconv.Atoi(clock[4:6])
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), true
}

func decodeImage(encoded string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, encoded)

	image, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, &carrier.CarrierError{
			Carrier: carrierName,
			Code:    "parse",
			Message: "label image is not valid base64",
			Cause:   err,
		}
	}
	return image, nil
}
