package carrier_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelio/shipbridge/pkg/carrier"
)

func TestPackageLabel_WriteScratchFile(t *testing.T) {
	label := carrier.PackageLabel{
		TrackingNumber: "1Z12345E0390817264",
		Image:          []byte("GIF89a-not-really"),
		ImageFormat:    "GIF",
	}

	path, err := label.WriteScratchFile()
	require.NoError(t, err)
	defer os.Remove(path)

	assert.True(t, strings.HasSuffix(path, ".gif"))
	assert.Contains(t, path, "1Z12345E0390817264")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, label.Image, data)
}

func TestPackageLabel_WriteScratchFile_NoFormat(t *testing.T) {
	label := carrier.PackageLabel{TrackingNumber: "t", Image: []byte("x")}

	path, err := label.WriteScratchFile()
	require.NoError(t, err)
	defer os.Remove(path)

	assert.True(t, strings.HasSuffix(path, ".bin"))
}

func TestCustomsDeclaration(t *testing.T) {
	decl := carrier.NewCustomsDeclaration()
	assert.Equal(t, carrier.FormCN22, decl.FormType)
	assert.Equal(t, "Merchandise", decl.Description)
	assert.Equal(t, "Form2976", decl.USPSFormType())
	assert.Equal(t, "MERCHANDISE", decl.ContentsType())

	decl.Gift = true
	assert.Equal(t, "GIFT", decl.ContentsType())

	decl.Items = []carrier.CustomsItem{{Quantity: 2}, {Quantity: 3}}
	assert.Equal(t, 5, decl.TotalQuantity())
}

func TestOptions_ConfirmationTier(t *testing.T) {
	assert.Equal(t, 0, carrier.Options{}.ConfirmationTier())
	assert.Equal(t, 3, carrier.Options{DeliveryConfirmation: true}.ConfirmationTier())
	assert.Equal(t, 2, carrier.Options{SignatureRequired: true, DeliveryConfirmation: true}.ConfirmationTier())
	assert.Equal(t, 1, carrier.Options{AdultSignatureRequired: true, SignatureRequired: true}.ConfirmationTier())
}
