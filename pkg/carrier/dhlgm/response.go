package dhlgm

import (
	"encoding/base64"
	"strings"

	"github.com/beevik/etree"

	"github.com/parcelio/shipbridge/pkg/carrier"
)

// parseLabelResponse reads the EncodeResponse document. A response with an
// ErrorList is a business rejection; otherwise each Mpu carries one label.
func parseLabelResponse(payload []byte) (*carrier.LabelResponse, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(payload); err != nil {
		return nil, &carrier.CarrierError{
			Carrier: carrierName,
			Code:    "parse",
			Message: "malformed response document",
			Cause:   err,
		}
	}
	root := doc.Root()
	if root == nil {
		return nil, &carrier.CarrierError{
			Carrier: carrierName,
			Code:    "parse",
			Message: "empty response document",
		}
	}

	if errNode := root.FindElement("ErrorList/Error"); errNode != nil {
		return &carrier.LabelResponse{
			Success: false,
			Message: elementText(errNode, "ErrorMessage"),
		}, nil
	}

	resp := &carrier.LabelResponse{Success: true}
	for _, mpu := range root.FindElements("MpuList/Mpu") {
		label := carrier.PackageLabel{
			TrackingNumber: elementText(mpu, "DhlPackageId"),
			EncodedImage:   elementText(mpu, "LabelImage"),
			ImageFormat:    elementText(mpu, "LabelFormat"),
		}
		if label.TrackingNumber == "" {
			label.TrackingNumber = elementText(mpu, "PackageId")
		}
		if label.ImageFormat == "" {
			label.ImageFormat = "PNG"
		}
		if label.EncodedImage != "" {
			image, err := base64.StdEncoding.DecodeString(label.EncodedImage)
			if err != nil {
				return nil, &carrier.CarrierError{
					Carrier: carrierName,
					Code:    "parse",
					Message: "label image is not valid base64",
					Cause:   err,
				}
			}
			label.Image = image
		}
		resp.Labels = append(resp.Labels, label)
	}

	return resp, nil
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
