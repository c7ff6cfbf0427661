package endicia

import (
	"encoding/base64"
	"strings"

	"github.com/beevik/etree"

	"github.com/parcelio/shipbridge/pkg/carrier"
)

// parseLabelResponse reads the label server response. Status 0 means
// success; anything else carries an ErrorMessage whose first sentence is
// surfaced to the caller.
func parseLabelResponse(payload []byte, opts carrier.Options) (*carrier.LabelResponse, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(payload); err != nil {
		return nil, &carrier.CarrierError{
			Carrier: carrierName,
			Code:    "parse",
			Message: "malformed response document",
			Cause:   err,
		}
	}

	if elementText(doc.Root(), "Status") != "0" {
		return &carrier.LabelResponse{
			Success: false,
			Message: firstSentence(elementText(doc.Root(), "ErrorMessage")),
		}, nil
	}

	// The label arrives either as a single Base64LabelImage or split
	// across Label/Image parts that concatenate into one payload.
	encoded := elementText(doc.Root(), "Base64LabelImage")
	if encoded == "" {
		var parts []string
		for _, image := range doc.Root().FindElements("Label/Image") {
			parts = append(parts, strings.TrimSpace(image.Text()))
		}
		encoded = strings.Join(parts, "")
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &carrier.CarrierError{
			Carrier: carrierName,
			Code:    "parse",
			Message: "label image is not valid base64",
			Cause:   err,
		}
	}

	format := opts.ImageType
	if format == "" {
		format = "GIF"
	}
	if format == "EPL2" {
		format = "EPL"
	}

	return &carrier.LabelResponse{
		Success: true,
		Labels: []carrier.PackageLabel{{
			TrackingNumber: elementText(doc.Root(), "TrackingNumber"),
			EncodedImage:   encoded,
			Image:          image,
			ImageFormat:    format,
			Postage:        elementText(doc.Root(), "FinalPostage"),
		}},
	}, nil
}

func elementText(el *etree.Element, path string) string {
	if el == nil {
		return ""
	}
	if found := el.FindElement(path); found != nil {
		return strings.TrimSpace(found.Text())
	}
	return ""
}

func firstSentence(s string) string {
	if i := strings.Index(s, "."); i >= 0 {
		return s[:i]
	}
	return s
}
