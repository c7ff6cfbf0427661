package ups

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/biter777/countries"

	"github.com/parcelio/shipbridge/pkg/carrier"
)

// ============================================================================
// Request builders. All documents serialize deterministically: element order
// follows insertion order and no timestamps or random identifiers are used.
// ============================================================================

func (c *Client) buildAccessRequest() []byte {
	doc := etree.NewDocument()
	root := doc.CreateElement("AccessRequest")
	addText(root, "AccessLicenseNumber", c.config.Key)
	addText(root, "UserId", c.config.Login)
	addText(root, "Password", c.config.Password)
	return render(doc)
}

func (c *Client) buildRateRequest(origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options) ([]byte, error) {
	imperial := carrier.ImperialUnits(origin)

	doc := etree.NewDocument()
	root := doc.CreateElement("RatingServiceSelectionRequest")

	request := root.CreateElement("Request")
	addText(request, "RequestAction", "Rate")
	addText(request, "RequestOption", "Shop")

	pickupType := opts.PickupType
	if pickupType == "" {
		pickupType = PickupDaily
	}
	pickupCode, ok := pickupCodes.Code(pickupType)
	if !ok {
		v := carrier.NewValidator(carrierName)
		v.Failf("unknown pickup type %q", pickupType)
		return nil, v.Err()
	}
	addText(root.CreateElement("PickupType"), "Code", pickupCode)

	classification := opts.CustomerClassification
	if classification == "" {
		classification = defaultCustomerClassification(pickupType)
	}
	ccCode, _ := customerClassifications.Code(classification)
	addText(root.CreateElement("CustomerClassification"), "Code", ccCode)

	shipment := root.CreateElement("Shipment")

	shipper := origin
	if opts.Shipper != nil {
		shipper = *opts.Shipper
	}
	c.addLocationNode(shipment, "Shipper", shipper, opts)
	c.addLocationNode(shipment, "ShipTo", destination, opts)
	if opts.Shipper != nil && *opts.Shipper != origin {
		c.addLocationNode(shipment, "ShipFrom", origin, opts)
	}

	for _, pkg := range packages {
		pkgNode := shipment.CreateElement("Package")
		addText(pkgNode.CreateElement("PackagingType"), "Code", "02")
		addDimensions(pkgNode, pkg, imperial)
		addPackageWeight(pkgNode, pkg, imperial)
		addPackageServiceOptions(pkgNode, pkg, opts)
	}

	return render(doc), nil
}

func buildTrackingRequest(trackingNumber string) []byte {
	doc := etree.NewDocument()
	root := doc.CreateElement("TrackRequest")
	request := root.CreateElement("Request")
	addText(request, "RequestAction", "Track")
	addText(request, "RequestOption", "1")
	addText(root, "TrackingNumber", trackingNumber)
	return render(doc)
}

// buildLabelRequest assembles the ShipmentConfirmRequest document. Every
// field requirement is checked while building so a single error lists the
// complete set of problems instead of surfacing them one request at a time.
func (c *Client) buildLabelRequest(origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options) ([]byte, error) {
	v := carrier.NewValidator(carrierName)

	mailInnovations := isMailInnovations(opts.ServiceType)
	domestic := origin.CountryCode(carrier.FormatAlpha2) == "US" &&
		destination.CountryCode(carrier.FormatAlpha2) == "US"
	imperial := carrier.ImperialUnits(origin)

	doc := etree.NewDocument()
	root := doc.CreateElement("ShipmentConfirmRequest")

	request := root.CreateElement("Request")
	addText(request, "RequestAction", "ShipConfirm")
	addText(request, "RequestOption", "nonvalidate")
	customerContext := opts.ReferenceNumber
	if customerContext == "" {
		customerContext = destination.PostalCode
	}
	addText(request.CreateElement("TransactionReference"), "CustomerContext", customerContext)

	shipment := root.CreateElement("Shipment")

	if opts.ReturnServiceCode != "" {
		addText(shipment.CreateElement("ReturnService"), "Code", opts.ReturnServiceCode)
	}
	addText(shipment, "Description", opts.Description)

	c.addLocationNode(shipment, "ShipFrom", origin, opts)

	v.RequireString("ShipTo address1", destination.Address1)
	v.RequireString("ShipTo company", destination.Company)
	v.RequireString("ShipTo city", destination.City)
	v.RequireString("ShipTo zip", destination.PostalCode)
	v.RequireString("ShipTo country", destination.CountryCode(carrier.FormatAlpha2))
	// State/Province is not required for GB or US destinations.
	if cc := destination.CountryCode(carrier.FormatAlpha2); cc != "GB" && cc != "US" {
		v.RequireString("ShipTo state", destination.Province)
	}
	c.addLocationNode(shipment, "ShipTo", destination, opts)

	shipper := origin
	if opts.Shipper != nil && *opts.Shipper != origin {
		shipper = *opts.Shipper
	}
	v.RequireString("Shipper phone", shipper.Phone)
	v.RequireString("Shipper email", shipper.Email)
	v.RequireString("Shipper name", shipper.Name)
	v.RequireString("Shipper company", shipper.Company)
	v.RequireString("Shipper address1", shipper.Address1)
	v.RequireString("Shipper city", shipper.City)
	v.RequireString("Shipper state", shipper.Province)
	v.RequireString("Shipper zip", shipper.PostalCode)
	v.RequireString("Shipper country", shipper.CountryCode(carrier.FormatAlpha2))
	c.addLocationNode(shipment, "Shipper", shipper, opts)

	puertoRico := destination.Province == "PR" ||
		destination.CountryCode(carrier.FormatAlpha2) == "PR"

	if mailInnovations {
		buildMailInnovations(shipment, v, origin, destination, packages, opts, domestic, imperial, puertoRico)
	}

	c.buildPaymentInformation(shipment, v, mailInnovations, opts)

	serviceCode, ok := defaultServices.Code(opts.ServiceType)
	if !ok {
		serviceCode = "03" // ground
	}
	addText(shipment.CreateElement("Service"), "Code", serviceCode)

	if origin.CountryCode(carrier.FormatAlpha2) == "US" &&
		(destination.CountryCode(carrier.FormatAlpha2) == "CA" || puertoRico) {
		ilt := shipment.CreateElement("InvoiceLineTotal")
		currency := opts.Currency
		if currency == "" {
			currency = "USD"
		}
		addText(ilt, "CurrencyCode", currency)
		value := 1
		if opts.Value > 0 {
			value = int(math.Ceil(opts.Value))
		}
		if value < 1 {
			value = 1
		}
		addText(ilt, "MonetaryValue", strconv.Itoa(value))
	}

	for _, pkg := range packages {
		pkgNode := shipment.CreateElement("Package")

		packaging := pkg.PackagingType
		if packaging == "" {
			switch {
			case mailInnovations && domestic:
				packaging = "Parcel Post"
			case mailInnovations:
				packaging = "Parcels"
			default:
				packaging = "Customer Supplied Package"
			}
		}
		packagingCode, _ := packagingTypes.Code(packaging)
		addText(pkgNode.CreateElement("PackagingType"), "Code", packagingCode)

		addDimensions(pkgNode, pkg, imperial)
		addPackageWeight(pkgNode, pkg, imperial)

		restricted := isMailInnovations(opts.ServiceType) || isWorldwide(opts.ServiceType)
		if opts.ReferenceNumber != "" && !restricted && !puertoRico {
			ref := pkgNode.CreateElement("ReferenceNumber")
			addText(ref, "Code", "02")
			addText(ref, "Value", opts.ReferenceNumber)
		}

		// Mail Innovations does not allow package service options.
		if !mailInnovations {
			addPackageServiceOptions(pkgNode, pkg, opts)
		}
	}

	labelSpec := root.CreateElement("LabelSpecification")
	imageType := opts.ImageType
	if imageType == "" {
		imageType = "GIF"
	}
	addText(labelSpec.CreateElement("LabelPrintMethod"), "Code", imageType)
	switch imageType {
	case "GIF":
		addText(labelSpec, "HTTPUserAgent", "Mozilla/5.0")
		addText(labelSpec.CreateElement("LabelImageFormat"), "Code", "GIF")
	case "EPL":
		stock := labelSpec.CreateElement("LabelStockSize")
		addText(stock, "Height", "4")
		addText(stock, "Width", "6")
	default:
		v.Failf("valid image_types are 'EPL' or 'GIF'")
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return render(doc), nil
}

// buildMailInnovations appends the Mail Innovations shipment elements,
// including the CN22 customs form for international mailpieces.
func buildMailInnovations(shipment *etree.Element, v *carrier.Validator, origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options, domestic, imperial, puertoRico bool) {
	endorsement := "5"
	if domestic {
		endorsement = "1"
	}
	addText(shipment, "USPSEndorsement", endorsement)

	if !domestic {
		if len(packages) > 1 {
			v.Failf("only one package may be shipped with Mail Innovations")
		}
		var pkg carrier.Package
		if len(packages) > 0 {
			pkg = packages[0]
		}

		addText(shipment, "MILabelCN22Indicator", "1")
		forms := shipment.CreateElement("ShipmentServiceOptions").CreateElement("InternationalForms")

		customsQuantity := 0
		var customs *carrier.CustomsDeclaration
		if opts.Customs != nil && len(opts.Customs.Items) > 0 {
			customs = opts.Customs
			customsQuantity = customs.TotalQuantity()
			pieces, _ := unitsOfMeasure.Code("Pieces")
			for _, item := range customs.Items {
				product := forms.CreateElement("Product")
				addText(product, "Description", truncate(item.Description, 35))
				unit := product.CreateElement("Unit")
				addText(unit, "Number", strconv.Itoa(item.Quantity))
				addText(unit, "Value", carrier.FormatFloat(item.Value))
				addText(unit.CreateElement("UnitOfMeasurement"), "Code", pieces)
				addText(product, "OriginCountryCode", origin.CountryCode(carrier.FormatAlpha2))
			}
		}

		addText(forms, "FormType", "09") // CN22
		cn22 := forms.CreateElement("CN22Form")
		labelSize := opts.LabelSize
		if labelSize == "" {
			labelSize = "6" // 4x6
		}
		addText(cn22, "LabelSize", labelSize)
		addText(cn22, "PrintsPerPage", "1")
		addText(cn22, "LabelPrintType", opts.ImageType)
		gift := customs != nil && customs.Gift
		if gift {
			addText(cn22, "CN22Type", "1")
		} else {
			addText(cn22, "CN22Type", "4")
			addText(cn22, "CN22OtherDescription", "MERCHANDISE")
		}
		if opts.FoldHereText != "" {
			addText(cn22, "FoldHereText", opts.FoldHereText)
		}

		content := cn22.CreateElement("CN22Content")
		quantity := "1"
		if customsQuantity > 0 {
			quantity = strconv.Itoa(customsQuantity)
		}
		addText(content, "CN22ContentQuantity", quantity)
		description := "Merchandise"
		if customs != nil && customs.Description != "" {
			description = customs.Description
		}
		addText(content, "CN22ContentDescription", description)

		weight := content.CreateElement("CN22ContentWeight")
		unitCode := "ozs"
		value := pkg.Kgs()
		if imperial {
			unitCode = "lbs"
			value = pkg.Lbs()
		}
		addText(weight.CreateElement("UnitOfMeasurement"), "Code", unitCode)
		addText(weight, "Weight", carrier.FormatFloat(math.Max(carrier.RoundTo(value, 2), 0.1)))

		addText(content, "CN22ContentTotalValue", carrier.FormatFloat(pkg.Value))
		addText(content, "CN22ContentCurrencyCode", "USD") // only supported currency
		addText(content, "CN22ContentCountryOfOrigin", origin.CountryCode(carrier.FormatAlpha2))
	}

	subClass := "MA"
	if opts.Irregular {
		subClass = "IR"
	}
	addText(shipment, "SubClassification", subClass)

	costCenter := opts.CostCenter
	if costCenter == "" {
		costCenter = "costcenter123"
	}
	addText(shipment, "CostCenter", costCenter)

	if !puertoRico {
		addText(shipment, "PackageID", opts.ReferenceNumber)
	}
}

func (c *Client) buildPaymentInformation(shipment *etree.Element, v *carrier.Validator, mailInnovations bool, opts carrier.Options) {
	payment := shipment.CreateElement("PaymentInformation")

	// Mail Innovations can only be prepaid.
	payType := "Prepaid"
	if !mailInnovations && opts.PayType != "" {
		payType, _ = paymentTypes.Code(opts.PayType)
	}

	switch payType {
	case "Prepaid":
		billShipper := payment.CreateElement("Prepaid").CreateElement("BillShipper")
		account := opts.OriginAccount
		if account == "" {
			account = c.config.OriginAccount
		}
		if account != "" {
			addText(billShipper, "AccountNumber", account)
		} else {
			v.Require("Shipper number (origin_account)", false)
		}
	case "BillThirdParty":
		btShipper := payment.CreateElement("BillThirdParty").CreateElement("BillThirdPartyShipper")
		addText(btShipper, "AccountNumber", opts.BillingAccount)
		tpAddress := btShipper.CreateElement("ThirdParty").CreateElement("Address")
		addText(tpAddress, "PostalCode", opts.BillingZip)
		billingCountry := opts.BillingCountry
		if resolved := countries.ByName(billingCountry); resolved != countries.Unknown {
			billingCountry = resolved.Alpha2()
		}
		addText(tpAddress, "CountryCode", billingCountry)
	case "FreightCollect":
		receiver := payment.CreateElement("FreightCollect").CreateElement("BillReceiver")
		addText(receiver, "AccountNumber", opts.BillingAccount)
	default:
		v.Failf("valid pay_types are 'prepaid', 'bill_third_party', or 'freight_collect'")
	}
}

func buildAcceptRequest(shipmentDigest string) []byte {
	doc := etree.NewDocument()
	root := doc.CreateElement("ShipmentAcceptRequest")
	request := root.CreateElement("Request")
	addText(request, "RequestAction", "ShipAccept")
	addText(request.CreateElement("TransactionReference"), "CustomerContext", "Shipping Label")
	addText(root, "ShipmentDigest", shipmentDigest)
	return render(doc)
}

func buildVoidRequest(shipmentID string, trackingNumbers []string) []byte {
	doc := etree.NewDocument()
	root := doc.CreateElement("VoidShipmentRequest")
	request := root.CreateElement("Request")
	addText(request, "RequestAction", "Void")
	addText(request.CreateElement("TransactionReference"), "CustomerContext", "Void Label")

	if len(trackingNumbers) > 1 {
		evs := root.CreateElement("ExpandedVoidShipment")
		addText(evs, "RequestAction", "Void")
		addText(evs, "ShipmentIdentificationNumber", shipmentID)
		for _, num := range trackingNumbers {
			addText(evs, "TrackingNumber", num)
		}
	} else {
		addText(root, "ShipmentIdentificationNumber", shipmentID)
	}
	return render(doc)
}

// addLocationNode appends a Shipper/ShipTo/ShipFrom element for an address.
// The residential indicator is emitted unless the address is explicitly
// commercial, so unknown destinations rate as residential.
func (c *Client) addLocationNode(parent *etree.Element, name string, addr carrier.Address, opts carrier.Options) {
	node := parent.CreateElement(name)

	if addr.Phone != "" {
		addText(node, "PhoneNumber", digitsOnly(addr.Phone))
	}
	if addr.Fax != "" {
		addText(node, "FaxNumber", digitsOnly(addr.Fax))
	}
	if name == "Shipper" {
		addText(node, "Name", addr.Name)
	}
	if addr.Company != "" {
		addText(node, "CompanyName", addr.Company)
	}
	if addr.AttentionName != "" {
		addText(node, "AttentionName", addr.AttentionName)
	}
	if addr.TaxID != "" {
		addText(node, "TaxIdentificationNumber", addr.TaxID)
	}

	if name == "Shipper" {
		account := opts.OriginAccount
		if account == "" {
			account = c.config.OriginAccount
		}
		if account != "" {
			addText(node, "ShipperNumber", account)
		}
	} else if name == "ShipTo" && opts.DestinationAccount != "" {
		addText(node, "ShipperAssignedIdentificationNumber", opts.DestinationAccount)
	}

	address := node.CreateElement("Address")
	if addr.Address1 != "" {
		addText(address, "AddressLine1", addr.Address1)
	}
	if addr.Address2 != "" {
		addText(address, "AddressLine2", addr.Address2)
	}
	if addr.Address3 != "" {
		addText(address, "AddressLine3", addr.Address3)
	}
	if addr.City != "" {
		addText(address, "City", addr.City)
	}
	if addr.Province != "" {
		addText(address, "StateProvinceCode", addr.Province)
	}
	if addr.PostalCode != "" {
		addText(address, "PostalCode", addr.PostalCode)
	}
	if cc := addr.CountryCode(carrier.FormatAlpha2); cc != "" {
		addText(address, "CountryCode", cc)
	}
	if !addr.Commercial() {
		addText(address, "ResidentialAddressIndicator", "true")
	}
}

func addDimensions(pkgNode *etree.Element, pkg carrier.Package, imperial bool) {
	dims := pkgNode.CreateElement("Dimensions")
	unitCode := "CM"
	if imperial {
		unitCode = "IN"
	}
	addText(dims.CreateElement("UnitOfMeasurement"), "Code", unitCode)
	for _, axis := range []struct {
		tag  string
		axis carrier.Axis
	}{
		{"Length", carrier.AxisLength},
		{"Width", carrier.AxisWidth},
		{"Height", carrier.AxisHeight},
	} {
		value := math.Max(carrier.WireDimension(pkg, axis.axis, imperial), 0.1)
		addText(dims, axis.tag, carrier.FormatFloat(value))
	}
}

func addPackageWeight(pkgNode *etree.Element, pkg carrier.Package, imperial bool) {
	weight := pkgNode.CreateElement("PackageWeight")
	unitCode := "KGS"
	if imperial {
		unitCode = "LBS"
	}
	addText(weight.CreateElement("UnitOfMeasurement"), "Code", unitCode)
	addText(weight, "Weight", carrier.FormatFloat(carrier.WireWeight(pkg, imperial)))
}

func addPackageServiceOptions(pkgNode *etree.Element, pkg carrier.Package, opts carrier.Options) {
	confirmation := opts.ConfirmationTier()
	if !opts.Insurance && confirmation == 0 {
		return
	}
	pso := pkgNode.CreateElement("PackageServiceOptions")
	if opts.Insurance && pkg.Value > 0 {
		insured := pso.CreateElement("InsuredValue")
		currency := pkg.Currency
		if currency == "" {
			currency = "USD"
		}
		addText(insured, "CurrencyCode", currency)
		addText(insured, "MonetaryValue", carrier.FormatFloat(pkg.Value))
	}
	if confirmation != 0 {
		addText(pso.CreateElement("DeliveryConfirmation"), "DCISType", strconv.Itoa(confirmation))
	}
}

func isMailInnovations(serviceType string) bool {
	_, ok := mailInnovationsServices.Code(serviceType)
	return ok
}

func isWorldwide(serviceType string) bool {
	_, ok := worldwideServices.Code(serviceType)
	return ok
}

func addText(parent *etree.Element, tag, text string) *etree.Element {
	el := parent.CreateElement(tag)
	el.SetText(text)
	return el
}

func render(doc *etree.Document) []byte {
	out, _ := doc.WriteToBytes()
	return out
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// timestampFromBusinessDay returns the date the given number of business
// days from now, skipping weekends.
func timestampFromBusinessDay(days int, from time.Time) time.Time {
	t := from
	for i := 0; i < days; i++ {
		t = t.AddDate(0, 0, 1)
		for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
			t = t.AddDate(0, 0, 1)
		}
	}
	return t
}
