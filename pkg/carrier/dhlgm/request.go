package dhlgm

import (
	"time"

	"github.com/beevik/etree"

	"github.com/parcelio/shipbridge/pkg/carrier"
)

// buildLabelRequest assembles the EncodeRequest document. One Mpu (mail
// piece unit) is emitted per package; required fields across both addresses
// are accumulated into a single error.
func (c *Client) buildLabelRequest(origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options) ([]byte, error) {
	v := carrier.NewValidator(carrierName)

	if len(packages) == 0 {
		v.Failf("at least one package is required")
		return nil, v.Err()
	}

	shipDate := time.Now().Format("20060102")
	if opts.ExpectedShipDate != "" {
		parsed, err := time.Parse("2006-01-02", opts.ExpectedShipDate)
		if err != nil {
			v.Failf("expected ship date %q is not in YYYY-MM-DD form", opts.ExpectedShipDate)
		} else {
			shipDate = parsed.Format("20060102")
		}
	}

	v.RequireString("ShipTo address1", destination.Address1)
	v.RequireString("ShipTo city", destination.City)
	v.RequireString("ShipTo zip", destination.PostalCode)
	v.RequireString("ShipTo country", destination.CountryCode(carrier.FormatAlpha2))
	if destination.Name == "" && destination.Company == "" {
		v.Require("ShipTo name or company", false)
	}

	v.RequireString("ShipFrom address1", origin.Address1)
	v.RequireString("ShipFrom city", origin.City)
	v.RequireString("ShipFrom zip", origin.PostalCode)
	v.RequireString("ShipFrom country", origin.CountryCode(carrier.FormatAlpha2))
	if origin.Name == "" && origin.Company == "" {
		v.Require("ShipFrom name or company", false)
	}

	v.RequireString("Service", opts.ServiceType)

	imperial := carrier.ImperialUnits(origin)

	doc := etree.NewDocument()
	root := doc.CreateElement("EncodeRequest")
	addText(root, "CustomerId", c.config.CustomerID)
	// BatchRef is required but slated for deprecation; any string works.
	addText(root, "BatchRef", "xxx")
	addText(root, "HaltOnError", "false")
	addText(root, "RejectAllOnError", "true")

	mpuList := root.CreateElement("MpuList")
	for _, pkg := range packages {
		mpu := mpuList.CreateElement("Mpu")

		addText(mpu, "PackageId", opts.PackageID)

		if opts.LabelText != "" {
			ref := mpu.CreateElement("PackageRef")
			addText(ref, "PrintFlag", "true")
			addText(ref, "LabelText", opts.LabelText)
		}

		addLocationNode(mpu, "ConsigneeAddress", destination)
		addLocationNode(mpu, "ReturnAddress", origin)

		if opts.ServiceType != "" {
			code, _ := services.Code(opts.ServiceType)
			addText(mpu, "OrderedProductCode", code)
		}

		weight := mpu.CreateElement("Weight")
		unit := "KGS"
		if imperial {
			unit = "LBS"
		}
		addText(weight, "Unit", unit)
		addText(weight, "Value", carrier.FormatFloat(carrier.WireWeight(pkg, imperial)))

		if opts.BillingRef1 != "" {
			addText(mpu, "BillingRef1", opts.BillingRef1)
			if opts.BillingRef2 != "" {
				addText(mpu, "BillingRef2", opts.BillingRef2)
			}
		}

		mailType, _ := mailTypes.Code(opts.MailType)
		addText(mpu, "MailTypeCode", mailType)
		facility, _ := facilities.Code(opts.Facility)
		addText(mpu, "FacilityCode", facility)
		addText(mpu, "ExpectedShipDate", shipDate)
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	out, _ := doc.WriteToBytes()
	return out, nil
}

// addLocationNode appends a StandardAddress block. DHL Global Mail is a
// US-injection product, so a blank country defaults to US.
func addLocationNode(parent *etree.Element, name string, addr carrier.Address) {
	country := addr.CountryCode(carrier.FormatAlpha2)
	if country == "" {
		country = "US"
	}

	address := parent.CreateElement(name).CreateElement("StandardAddress")
	if addr.Name != "" {
		addText(address, "Name", addr.Name)
	}
	if addr.Company != "" {
		addText(address, "Firm", addr.Company)
	}
	if addr.Address1 != "" {
		addText(address, "Address1", addr.Address1)
	}
	if addr.Address2 != "" {
		addText(address, "Address2", addr.Address2)
	}
	if addr.City != "" {
		addText(address, "City", addr.City)
	}
	if addr.Province != "" {
		addText(address, "State", addr.Province)
	}
	if addr.PostalCode != "" {
		addText(address, "Zip", addr.PostalCode)
	}
	addText(address, "CountryCode", country)
}

func addText(parent *etree.Element, tag, text string) *etree.Element {
	el := parent.CreateElement(tag)
	el.SetText(text)
	return el
}
