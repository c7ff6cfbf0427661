package dhlgm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/parcelio/shipbridge/pkg/carrier"
	"github.com/parcelio/shipbridge/pkg/carrier/dhlgm"
)

func newTestClient(mock *carrier.MockTransport) *dhlgm.Client {
	logger := otelzap.New(zap.NewNop())
	return dhlgm.NewWithTransport(
		dhlgm.Config{
			Username:   "user@example.com",
			Password:   "secret",
			ClientID:   "CID123",
			CustomerID: "CUST123",
		},
		mock,
		logger,
		nil,
	)
}

func mustAddress(t *testing.T, fields map[string]string) carrier.Address {
	t.Helper()
	addr, err := carrier.NewAddress(fields)
	require.NoError(t, err)
	return addr
}

func usOrigin(t *testing.T) carrier.Address {
	return mustAddress(t, map[string]string{
		"company":     "Acme Fulfillment",
		"address1":    "123 Main St",
		"city":        "Houston",
		"province":    "TX",
		"postal_code": "77095",
		"country":     "US",
	})
}

func usDestination(t *testing.T) carrier.Address {
	return mustAddress(t, map[string]string{
		"name":        "Receiver Ray",
		"address1":    "456 Elm St",
		"city":        "Beverly Hills",
		"province":    "CA",
		"postal_code": "90210",
		"country":     "US",
	})
}

const authSuccessFixture = `{"meta":{"timestamp":"2024-01-10T12:00:00Z"},"data":{"access_token":"TOKEN123","expires_in":21600}}`

const labelSuccessFixture = `<?xml version="1.0"?>
<EncodeResponse>
  <MpuList>
    <Mpu>
      <PackageId>PKG1</PackageId>
      <DhlPackageId>420902109374869903500011996</DhlPackageId>
      <LabelImage>R0lGODlhAQABAA==</LabelImage>
      <LabelFormat>PNG</LabelFormat>
    </Mpu>
  </MpuList>
</EncodeResponse>`

func onePackage() []carrier.Package {
	return []carrier.Package{{Weight: 2, WeightUnit: carrier.WeightLB}}
}

func defaultOptions() carrier.Options {
	return carrier.Options{
		ServiceType: "SM Parcels Expedited",
		MailType:    "Machinable Parcel",
		Facility:    "Elkridge, MD",
		PackageID:   "PKG1",
	}
}

func TestGetLabel_Success(t *testing.T) {
	mock := carrier.NewMockTransport([]byte(authSuccessFixture), []byte(labelSuccessFixture))
	client := newTestClient(mock)

	resp, err := client.GetLabel(context.Background(), usOrigin(t), usDestination(t), onePackage(), defaultOptions())

	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.Labels, 1)
	assert.Equal(t, "420902109374869903500011996", resp.Labels[0].TrackingNumber)
	assert.Equal(t, "PNG", resp.Labels[0].ImageFormat)
	assert.NotEmpty(t, resp.Labels[0].Image)
}

func TestGetLabel_TokenThenLabel(t *testing.T) {
	mock := carrier.NewMockTransport([]byte(authSuccessFixture), []byte(labelSuccessFixture))
	client := newTestClient(mock)

	_, err := client.GetLabel(context.Background(), usOrigin(t), usDestination(t), onePackage(), defaultOptions())
	require.NoError(t, err)

	require.Equal(t, 2, mock.RequestCount())

	auth := mock.Requests[0]
	assert.Equal(t, "GET", auth.Method)
	assert.Contains(t, auth.URL, "auth/access_token")
	assert.Contains(t, auth.URL, "username=user%40example.com")
	assert.Contains(t, auth.URL, "password=secret")

	label := mock.Requests[1]
	assert.Equal(t, "POST", label.Method)
	assert.Contains(t, label.URL, "label/US/CUST123/image.xml")
	assert.Contains(t, label.URL, "client_id=CID123")
	assert.Contains(t, label.URL, "access_token=TOKEN123")
	assert.Equal(t, "application/xml", label.Headers["Content-Type"])
}

func TestGetLabel_RequestDocument(t *testing.T) {
	mock := carrier.NewMockTransport([]byte(authSuccessFixture), []byte(labelSuccessFixture))
	client := newTestClient(mock)

	opts := defaultOptions()
	opts.ExpectedShipDate = "2024-01-10"
	opts.LabelText = "Order 991"
	opts.BillingRef1 = "dept-7"

	_, err := client.GetLabel(context.Background(), usOrigin(t), usDestination(t), onePackage(), opts)
	require.NoError(t, err)

	body := string(mock.LastRequest().Body)
	assert.Contains(t, body, "<EncodeRequest>")
	assert.Contains(t, body, "<CustomerId>CUST123</CustomerId>")
	assert.Contains(t, body, "<BatchRef>xxx</BatchRef>")
	assert.Contains(t, body, "<HaltOnError>false</HaltOnError>")
	assert.Contains(t, body, "<RejectAllOnError>true</RejectAllOnError>")
	assert.Contains(t, body, "<PackageId>PKG1</PackageId>")
	assert.Contains(t, body, "<LabelText>Order 991</LabelText>")
	assert.Contains(t, body, "<OrderedProductCode>81</OrderedProductCode>")
	assert.Contains(t, body, "<Unit>LBS</Unit>")
	assert.Contains(t, body, "<Value>2</Value>")
	assert.Contains(t, body, "<BillingRef1>dept-7</BillingRef1>")
	assert.Contains(t, body, "<MailTypeCode>3</MailTypeCode>")
	assert.Contains(t, body, "<FacilityCode>USBWI1</FacilityCode>")
	assert.Contains(t, body, "<ExpectedShipDate>20240110</ExpectedShipDate>")

	// Both addresses render as StandardAddress blocks.
	assert.Contains(t, body, "<Firm>Acme Fulfillment</Firm>")
	assert.Contains(t, body, "<Name>Receiver Ray</Name>")
	assert.Contains(t, body, "<Zip>90210</Zip>")
	assert.Contains(t, body, "<CountryCode>US</CountryCode>")
}

func TestGetLabel_TestModeURL(t *testing.T) {
	mock := carrier.NewMockTransport([]byte(authSuccessFixture), []byte(labelSuccessFixture))
	client := newTestClient(mock)

	opts := defaultOptions()
	opts.Test = true

	_, err := client.GetLabel(context.Background(), usOrigin(t), usDestination(t), onePackage(), opts)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(mock.Requests[0].URL, "https://apitest.dhlglobalmail.com/v1/"))
	assert.True(t, strings.HasPrefix(mock.Requests[1].URL, "https://apitest.dhlglobalmail.com/v1/"))
}

func TestGetLabel_TrackingNumberFallsBackToPackageId(t *testing.T) {
	fixture := `<?xml version="1.0"?>
<EncodeResponse>
  <MpuList>
    <Mpu>
      <PackageId>PKG1</PackageId>
      <LabelImage>R0lGODlhAQABAA==</LabelImage>
    </Mpu>
  </MpuList>
</EncodeResponse>`
	mock := carrier.NewMockTransport([]byte(authSuccessFixture), []byte(fixture))
	client := newTestClient(mock)

	resp, err := client.GetLabel(context.Background(), usOrigin(t), usDestination(t), onePackage(), defaultOptions())

	require.NoError(t, err)
	require.Len(t, resp.Labels, 1)
	assert.Equal(t, "PKG1", resp.Labels[0].TrackingNumber)
	assert.Equal(t, "PNG", resp.Labels[0].ImageFormat)
}

func TestGetLabel_CarrierRejection(t *testing.T) {
	fixture := `<?xml version="1.0"?>
<EncodeResponse>
  <ErrorList>
    <Error>
      <ErrorCode>1000</ErrorCode>
      <ErrorMessage>Facility is not valid for this customer</ErrorMessage>
    </Error>
  </ErrorList>
</EncodeResponse>`
	mock := carrier.NewMockTransport([]byte(authSuccessFixture), []byte(fixture))
	client := newTestClient(mock)

	resp, err := client.GetLabel(context.Background(), usOrigin(t), usDestination(t), onePackage(), defaultOptions())

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Facility is not valid for this customer", resp.Message)
	assert.Empty(t, resp.Labels)
}

func TestGetLabel_AuthTokenMissing(t *testing.T) {
	mock := carrier.NewMockTransport([]byte(`{"data":{}}`))
	client := newTestClient(mock)

	_, err := client.GetLabel(context.Background(), usOrigin(t), usDestination(t), onePackage(), defaultOptions())

	require.Error(t, err)
	assert.True(t, errors.Is(err, &carrier.CarrierError{Carrier: "dhlgm", Code: "auth"}))
	// The label call is never made.
	assert.Equal(t, 1, mock.RequestCount())
}

func TestGetLabel_AuthResponseMalformed(t *testing.T) {
	mock := carrier.NewMockTransport([]byte(`<html>maintenance</html>`))
	client := newTestClient(mock)

	_, err := client.GetLabel(context.Background(), usOrigin(t), usDestination(t), onePackage(), defaultOptions())

	require.Error(t, err)
	assert.True(t, errors.Is(err, &carrier.CarrierError{Carrier: "dhlgm", Code: "auth"}))
}

func TestGetLabel_Validation(t *testing.T) {
	mock := carrier.NewMockTransport()
	client := newTestClient(mock)

	origin := mustAddress(t, map[string]string{"country": "US"})
	destination := mustAddress(t, map[string]string{"country": "US"})

	_, err := client.GetLabel(context.Background(), origin, destination, onePackage(), carrier.Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, carrier.ErrInvalidShipmentRequest)
	for _, field := range []string{
		"ShipTo address1", "ShipTo city", "ShipTo zip", "ShipTo name or company",
		"ShipFrom address1", "ShipFrom city", "ShipFrom zip", "ShipFrom name or company",
		"Service",
	} {
		assert.Contains(t, err.Error(), field)
	}
	assert.Equal(t, 0, mock.RequestCount())
}

func TestGetLabel_BadShipDate(t *testing.T) {
	mock := carrier.NewMockTransport()
	client := newTestClient(mock)

	opts := defaultOptions()
	opts.ExpectedShipDate = "01/10/2024"

	_, err := client.GetLabel(context.Background(), usOrigin(t), usDestination(t), onePackage(), opts)

	require.Error(t, err)
	assert.ErrorIs(t, err, carrier.ErrInvalidShipmentRequest)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
	assert.Equal(t, 0, mock.RequestCount())
}

func TestGetLabel_NoPackages(t *testing.T) {
	mock := carrier.NewMockTransport()
	client := newTestClient(mock)

	_, err := client.GetLabel(context.Background(), usOrigin(t), usDestination(t), nil, defaultOptions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one package is required")
	assert.Equal(t, 0, mock.RequestCount())
}

func TestClient_Name(t *testing.T) {
	client := newTestClient(carrier.NewMockTransport())
	assert.Equal(t, "dhlgm", client.Name())
	assert.Equal(t, []string{"username", "password", "client_id", "customer_id"}, client.RequiredCredentials())
}
