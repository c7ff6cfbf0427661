package endicia

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/parcelio/shipbridge/pkg/carrier"
)

// buildLabelRequest assembles the LabelRequest document and wraps it in the
// labelRequestXML= form body the label server expects. All field
// requirements are accumulated into a single error.
func (c *Client) buildLabelRequest(origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options) ([]byte, error) {
	v := carrier.NewValidator(carrierName)

	if len(packages) == 0 {
		v.Failf("at least one package is required")
		return nil, v.Err()
	}
	pkg := packages[0]

	domestic := isDomesticService(opts.ServiceType)
	destinationUS := destination.CountryCode(carrier.FormatAlpha2) == "US"

	imageFormat := opts.ImageType
	if imageFormat == "" {
		imageFormat = "GIF"
	}
	test := "NO"
	if opts.Test {
		test = "YES"
	}

	doc := etree.NewDocument()
	root := doc.CreateElement("LabelRequest")
	if domestic {
		root.CreateAttr("LabelType", "Default")
	} else {
		root.CreateAttr("LabelType", "International")
	}
	root.CreateAttr("Test", test)
	root.CreateAttr("ImageFormat", imageFormat)

	if !domestic {
		addText(root, "LabelSubtype", "Integrated")
	}
	addText(root, "AccountID", c.config.AccountID)
	addText(root, "RequesterID", c.config.RequesterID)
	addText(root, "PassPhrase", c.config.Password)

	addText(root, "PartnerTransactionID", opts.TransactionID)
	addText(root, "PartnerCustomerID", opts.CustomerID)
	mailClass, ok := services.Code(opts.ServiceType)
	if !ok {
		mailClass = "First"
	}
	addText(root, "MailClass", mailClass)

	v.RequireString("ShipFrom city", origin.City)
	v.RequireString("ShipFrom zip", origin.PostalCode)
	v.RequireString("ShipFrom address1", origin.Address1)
	if domestic {
		v.RequireString("ShipFrom state", origin.Province)
	}
	addText(root, "FromName", origin.Name)
	addText(root, "FromCity", origin.City)
	addText(root, "FromState", origin.Province)
	addText(root, "FromPostalCode", origin.PostalCode)
	addText(root, "FromCompany", origin.Company)
	addText(root, "FromPhone", origin.Phone)
	addText(root, "FromEmail", origin.Email)
	addText(root, "ReturnAddress1", origin.Address1)
	if origin.Address2 != "" {
		addText(root, "ReturnAddress2", origin.Address2)
	}
	if origin.Address3 != "" {
		addText(root, "ReturnAddress3", origin.Address3)
	}
	if !destinationUS {
		addText(root, "FromCountry", uspsCountryName(origin))
	}

	v.RequireString("ShipTo city", destination.City)
	v.RequireString("ShipTo zip", destination.PostalCode)
	v.RequireString("ShipTo address1", destination.Address1)
	if domestic {
		v.RequireString("ShipTo state", destination.Province)
	}
	addText(root, "ToName", destination.Name)
	addText(root, "ToCity", destination.City)
	addText(root, "ToState", destination.Province)
	addText(root, "ToPostalCode", destination.PostalCode)
	addText(root, "ToCompany", destination.Company)
	addText(root, "ToPhone", destination.Phone)
	addText(root, "ToEmail", destination.Email)
	addText(root, "ToAddress1", destination.Address1)
	if destination.Address2 != "" {
		addText(root, "ToAddress2", destination.Address2)
	}
	if destination.Address3 != "" {
		addText(root, "ToAddress3", destination.Address3)
	}
	if !destinationUS {
		addText(root, "ToCountryCode", destination.CountryCode(carrier.FormatAlpha2))
		addText(root, "ToCountry", uspsCountryName(destination))
	}

	addText(root, "WeightOz", strconv.Itoa(int(pkg.Oz())))
	addText(root, "Value", carrier.FormatFloat(pkg.Value))
	shape := pkg.Shape
	if shape == "" {
		shape = "PARCEL"
	}
	addText(root, "MailpieceShape", shape)

	if !domestic && opts.Customs != nil {
		buildCustoms(root, origin, *opts.Customs)
	}

	confirmation := opts.ConfirmationTier()
	if opts.Insurance || confirmation != 0 {
		svc := root.CreateElement("Services")
		svc.CreateAttr("DeliveryConfirmation", onOff(opts.DeliveryConfirmation))
		svc.CreateAttr("SignatureConfirmation", onOff(opts.SignatureRequired))
		svc.CreateAttr("AdultSignature", onOff(opts.AdultSignatureRequired))
		if opts.Insurance {
			svc.CreateAttr("InsuredMail", "Endicia")
		} else {
			svc.CreateAttr("InsuredMail", "OFF")
		}

		if opts.Insurance && pkg.Value > 0 {
			addText(root, "InsuredValue", carrier.FormatFloat(pkg.Value))
		}
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	xml, _ := doc.WriteToBytes()
	return append([]byte("labelRequestXML="), xml...), nil
}

func buildCustoms(root *etree.Element, origin carrier.Address, customs carrier.CustomsDeclaration) {
	addText(root, "IntegratedFormType", customs.USPSFormType())
	certify := "FALSE"
	if customs.Certify {
		certify = "TRUE"
	}
	addText(root, "CustomsCertify", certify)
	if customs.Signer != "" {
		addText(root, "CustomsSigner", customs.Signer)
	}

	info := root.CreateElement("CustomsInfo")
	addText(info, "ContentsType", customs.ContentsType())
	if len(customs.Items) > 0 {
		items := info.CreateElement("CustomsItems")
		for _, item := range customs.Items {
			itemNode := items.CreateElement("CustomsItem")
			addText(itemNode, "Quantity", strconv.Itoa(item.Quantity))
			addText(itemNode, "Value", carrier.FormatFloat(item.Value))
			addText(itemNode, "Weight", carrier.FormatFloat(item.Weight))
			addText(itemNode, "Description", truncate(item.Description, 50))
			addText(itemNode, "CountryOfOrigin", origin.CountryCode(carrier.FormatAlpha2))
		}
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func addText(parent *etree.Element, tag, text string) *etree.Element {
	el := parent.CreateElement(tag)
	el.SetText(text)
	return el
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
