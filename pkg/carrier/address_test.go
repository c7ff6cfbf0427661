package carrier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelio/shipbridge/pkg/carrier"
)

func TestNewAddress_ProvinceNormalization(t *testing.T) {
	tests := []struct {
		name     string
		province string
		want     string
	}{
		{"full state name", "California", "CA"},
		{"lowercase state name", "new york", "NY"},
		{"canadian province name", "British Columbia", "BC"},
		{"already a code", "tx", "TX"},
		{"unknown value uppercased", "guangdong", "GUANGDONG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := carrier.NewAddress(map[string]string{"province": tt.province})
			require.NoError(t, err)
			assert.Equal(t, tt.want, addr.Province)
		})
	}
}

func TestNewAddress_Country(t *testing.T) {
	addr, err := carrier.NewAddress(map[string]string{"country": "US"})
	require.NoError(t, err)
	assert.Equal(t, "US", addr.CountryCode(carrier.FormatAlpha2))
	assert.Equal(t, "USA", addr.CountryCode(carrier.FormatAlpha3))
	assert.NotEmpty(t, addr.CountryCode(carrier.FormatName))

	_, err = carrier.NewAddress(map[string]string{"country": "Atlantis"})
	assert.ErrorIs(t, err, carrier.ErrUnknownCountry)
}

func TestNewAddress_CountryUnset(t *testing.T) {
	addr, err := carrier.NewAddress(map[string]string{"city": "Houston"})
	require.NoError(t, err)
	assert.Empty(t, addr.CountryCode(carrier.FormatAlpha2))
	assert.Empty(t, addr.CountryCode(carrier.FormatName))
}

func TestNewAddress_AddressType(t *testing.T) {
	addr, err := carrier.NewAddress(map[string]string{"address_type": "commercial"})
	require.NoError(t, err)
	assert.True(t, addr.Commercial())
	assert.False(t, addr.Residential())

	_, err = carrier.NewAddress(map[string]string{"address_type": "houseboat"})
	assert.ErrorIs(t, err, carrier.ErrInvalidAddressType)
}

func TestAddressFrom_Aliases(t *testing.T) {
	addr, err := carrier.AddressFrom(map[string]string{
		"street":  "123 Main St",
		"town":    "Houston",
		"state":   "TX",
		"zip":     "77095",
		"country": "US",
		"phone":   "713-555-1234",
		"company": "Acme",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "123 Main St", addr.Address1)
	assert.Equal(t, "Houston", addr.City)
	assert.Equal(t, "TX", addr.Province)
	assert.Equal(t, "77095", addr.PostalCode)
	assert.Equal(t, "US", addr.CountryCode(carrier.FormatAlpha2))
	assert.Equal(t, "713-555-1234", addr.Phone)
	assert.Equal(t, "Acme", addr.Company)
}

func TestAddressFrom_AliasPriority(t *testing.T) {
	// province_code outranks state, postal_code outranks zip.
	addr, err := carrier.AddressFrom(map[string]string{
		"province_code": "ON",
		"state":         "TX",
		"postal_code":   "K1A0B1",
		"zip":           "77095",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ON", addr.Province)
	assert.Equal(t, "K1A0B1", addr.PostalCode)
}

func TestAddressFrom_Overrides(t *testing.T) {
	addr, err := carrier.AddressFrom(map[string]string{
		"city":    "Houston",
		"country": "US",
	}, map[string]string{"city": "Dallas"})
	require.NoError(t, err)
	assert.Equal(t, "Dallas", addr.City)
	assert.Equal(t, "US", addr.CountryCode(carrier.FormatAlpha2))
}

func TestAddressFrom_InvalidTypeDropped(t *testing.T) {
	// A bogus address_type in a loose map is dropped, not fatal.
	addr, err := carrier.AddressFrom(map[string]string{
		"city":         "Houston",
		"address_type": "castle",
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, addr.AddressType)
}

func TestAddressFrom_RoundTrip(t *testing.T) {
	original, err := carrier.NewAddress(map[string]string{
		"name":        "Bob Bobsen",
		"address1":    "123 Main St",
		"city":        "Houston",
		"province":    "TX",
		"postal_code": "77095",
		"country":     "US",
	})
	require.NoError(t, err)

	copied, err := carrier.AddressFrom(original, nil)
	require.NoError(t, err)
	assert.Equal(t, original, copied)
}

func TestAddressFrom_UnsupportedSource(t *testing.T) {
	_, err := carrier.AddressFrom(42, nil)
	assert.Error(t, err)
}

func TestAddress_ZipAccessors(t *testing.T) {
	addr := carrier.Address{PostalCode: "77095-2233"}
	assert.Equal(t, "77095", addr.Zip5())
	assert.Equal(t, "2233", addr.Zip4())
	assert.Equal(t, "77095-2233", addr.ZipPlus4())

	nine := carrier.Address{PostalCode: "770952233"}
	assert.Equal(t, "77095", nine.Zip5())
	assert.Equal(t, "2233", nine.Zip4())
	assert.Equal(t, "77095-2233", nine.ZipPlus4())

	plain := carrier.Address{PostalCode: "77095"}
	assert.Equal(t, "77095", plain.Zip5())
	assert.Empty(t, plain.Zip4())
	assert.Empty(t, plain.ZipPlus4())

	canadian := carrier.Address{PostalCode: "K1A 0B1"}
	assert.Equal(t, "K1A 0B1", canadian.Zip5())
	assert.Empty(t, canadian.Zip4())
}

func TestAddress_Address2And3(t *testing.T) {
	addr := carrier.Address{Address2: "Suite 100", Address3: "Bldg 2"}
	assert.Equal(t, "Suite 100, Bldg 2", addr.Address2And3())

	addr = carrier.Address{Address3: "Bldg 2"}
	assert.Equal(t, "Bldg 2", addr.Address2And3())

	assert.Empty(t, carrier.Address{}.Address2And3())
}

func TestAddress_PrettyPrint(t *testing.T) {
	addr, err := carrier.NewAddress(map[string]string{
		"name":        "Bob Bobsen",
		"address1":    "123 Main St",
		"city":        "Houston",
		"province":    "TX",
		"postal_code": "77095",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bob Bobsen\n123 Main St\nHouston, TX, 77095", addr.PrettyPrint())
	assert.Equal(t, "Bob Bobsen 123 Main St Houston, TX, 77095", addr.String())
}

func TestStateFromZip5(t *testing.T) {
	tests := []struct {
		zip  string
		want string
	}{
		{"77095", "TX"},
		{"90210", "CA"},
		{"10001", "NY"},
		{"02134", "MA"},
		{"45275", "KY"}, // single-ZIP carve-out ahead of the OH block
		{"60601", "IL"},
		{"99501", "AK"},
	}
	for _, tt := range tests {
		state, err := carrier.StateFromZip5(tt.zip)
		require.NoError(t, err, tt.zip)
		assert.Equal(t, tt.want, state, tt.zip)
	}
}

func TestStateFromZip5_Invalid(t *testing.T) {
	_, err := carrier.StateFromZip5("00001")
	assert.ErrorIs(t, err, carrier.ErrInvalidZip)

	_, err = carrier.StateFromZip5("K1A0B1")
	assert.ErrorIs(t, err, carrier.ErrInvalidZip)
}
