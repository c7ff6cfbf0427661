package carrier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/biter777/countries"
)

// CountryFormat selects the representation returned by Address.CountryCode.
type CountryFormat int

const (
	FormatAlpha2 CountryFormat = iota
	FormatAlpha3
	FormatName
)

// AddressType values accepted by the address model. An empty type is
// treated as residential for rating purposes.
const (
	AddressResidential = "residential"
	AddressCommercial  = "commercial"
	AddressPOBox       = "po_box"
)

// Address is the canonical, carrier-agnostic postal address. It is
// constructed once per request and never mutated afterwards; equality is
// plain structural comparison.
type Address struct {
	Name          string
	Company       string
	AttentionName string
	TaxID         string
	Address1      string
	Address2      string
	Address3      string
	City          string
	Province      string
	PostalCode    string
	Country       countries.CountryCode
	Phone         string
	Fax           string
	Email         string
	AddressType   string
}

// addressAliases lists, per canonical field, the accepted input key names in
// priority order. The first alias with a non-empty value wins.
var addressAliases = []struct {
	field   string
	aliases []string
}{
	{"name", []string{"name"}},
	{"country", []string{"country_code", "country"}},
	{"postal_code", []string{"postal_code", "postal", "zip"}},
	{"province", []string{"province_code", "state_code", "territory_code", "region_code", "province", "state", "territory", "region"}},
	{"city", []string{"city", "town"}},
	{"address1", []string{"address1", "address", "street"}},
	{"address2", []string{"address2"}},
	{"address3", []string{"address3"}},
	{"phone", []string{"phone", "phone_number"}},
	{"fax", []string{"fax", "fax_number"}},
	{"email", []string{"email", "email_address"}},
	{"address_type", []string{"address_type"}},
	{"company", []string{"company", "company_name"}},
	{"attention_name", []string{"attention_name", "attention"}},
	{"tax_id", []string{"tax_id", "tax_identification_number"}},
}

// stateNames maps US state and Canadian province 2-letter codes to their
// lowercase full names, used to normalize spelled-out provinces.
var stateNames = map[string]string{
	"AL": "alabama", "NE": "nebraska", "AK": "alaska", "NV": "nevada",
	"AZ": "arizona", "NH": "new hampshire", "AR": "arkansas", "NJ": "new jersey",
	"CA": "california", "NM": "new mexico", "CO": "colorado", "NY": "new york",
	"CT": "connecticut", "NC": "north carolina", "DE": "delaware", "ND": "north dakota",
	"FL": "florida", "OH": "ohio", "GA": "georgia", "OK": "oklahoma",
	"HI": "hawaii", "OR": "oregon", "ID": "idaho", "PA": "pennsylvania",
	"IL": "illinois", "PR": "puerto rico", "IN": "indiana", "RI": "rhode island",
	"IA": "iowa", "SC": "south carolina", "KS": "kansas", "SD": "south dakota",
	"KY": "kentucky", "TN": "tennessee", "LA": "louisiana", "TX": "texas",
	"ME": "maine", "UT": "utah", "MD": "maryland", "VT": "vermont",
	"MA": "massachusetts", "VA": "virginia", "MI": "michigan", "WA": "washington",
	"MN": "minnesota", "DC": "district of columbia", "MS": "mississippi", "WV": "west virginia",
	"MO": "missouri", "WI": "wisconsin", "MT": "montana", "WY": "wyoming",
	"BC": "british columbia", "AB": "alberta", "SK": "saskatchewan", "YT": "yukon",
	"NS": "nova scotia", "NT": "northwest territories", "QC": "quebec", "NU": "nunavut",
	"NL": "newfoundland and labrador", "ON": "ontario", "NB": "new brunswick",
	"MB": "manitoba", "PE": "prince edward island",
}

// AddressSource lets structured caller types feed AddressFrom without the
// model knowing their shape.
type AddressSource interface {
	AddressFields() map[string]string
}

// AddressFrom normalizes an arbitrary address-like input into an Address.
// The input may be an Address (returned as-is after override merging), a
// key/value map with any of the accepted alias spellings, or a type
// implementing AddressSource. Overrides are merged after alias resolution,
// so explicit overrides always win.
func AddressFrom(src any, overrides map[string]string) (Address, error) {
	var raw map[string]string

	switch v := src.(type) {
	case Address:
		raw = v.fields()
	case *Address:
		if v == nil {
			raw = map[string]string{}
		} else {
			raw = v.fields()
		}
	case map[string]string:
		raw = v
	case AddressSource:
		raw = v.AddressFields()
	default:
		return Address{}, fmt.Errorf("unsupported address source %T", src)
	}

	resolved := make(map[string]string, len(addressAliases))
	for _, entry := range addressAliases {
		for _, alias := range entry.aliases {
			if val, ok := raw[alias]; ok && val != "" {
				resolved[entry.field] = val
				break
			}
		}
	}

	// Drop an invalid address type from loosely-typed sources instead of
	// failing the whole normalization; explicit overrides still validate.
	switch resolved["address_type"] {
	case "", AddressResidential, AddressCommercial, AddressPOBox:
	default:
		delete(resolved, "address_type")
	}

	for key, val := range overrides {
		resolved[key] = val
	}

	return NewAddress(resolved)
}

// NewAddress constructs an Address from canonical field names. Province
// values that spell out a known US state or Canadian province are replaced
// with the uppercased 2-letter code; anything else is uppercased unchanged.
// Country identifiers (name, alpha-2 or alpha-3) are resolved against the
// country registry.
func NewAddress(fields map[string]string) (Address, error) {
	addr := Address{
		Name:          fields["name"],
		Company:       fields["company"],
		AttentionName: fields["attention_name"],
		TaxID:         fields["tax_id"],
		Address1:      fields["address1"],
		Address2:      fields["address2"],
		Address3:      fields["address3"],
		City:          fields["city"],
		PostalCode:    fields["postal_code"],
		Phone:         fields["phone"],
		Fax:           fields["fax"],
		Email:         fields["email"],
	}

	if province := fields["province"]; province != "" {
		addr.Province = normalizeProvince(province)
	}

	if country := fields["country"]; country != "" {
		resolved := countries.ByName(country)
		if resolved == countries.Unknown {
			return Address{}, fmt.Errorf("%w: %q", ErrUnknownCountry, country)
		}
		addr.Country = resolved
	}

	if at := fields["address_type"]; at != "" {
		switch at {
		case AddressResidential, AddressCommercial, AddressPOBox:
			addr.AddressType = at
		default:
			return Address{}, fmt.Errorf("%w: %q must be one of %s, %s, %s",
				ErrInvalidAddressType, at, AddressResidential, AddressCommercial, AddressPOBox)
		}
	}

	return addr, nil
}

func normalizeProvince(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for code, name := range stateNames {
		if name == lower {
			return code
		}
	}
	return strings.ToUpper(raw)
}

func (a Address) fields() map[string]string {
	return map[string]string{
		"name":           a.Name,
		"company":        a.Company,
		"attention_name": a.AttentionName,
		"tax_id":         a.TaxID,
		"address1":       a.Address1,
		"address2":       a.Address2,
		"address3":       a.Address3,
		"city":           a.City,
		"province":       a.Province,
		"postal_code":    a.PostalCode,
		"country":        a.CountryCode(FormatAlpha2),
		"phone":          a.Phone,
		"fax":            a.Fax,
		"email":          a.Email,
		"address_type":   a.AddressType,
	}
}

// CountryCode returns the resolved country in the requested format, or the
// empty string when no country was set.
func (a Address) CountryCode(format CountryFormat) string {
	if a.Country == countries.Unknown {
		return ""
	}
	switch format {
	case FormatAlpha3:
		return a.Country.Alpha3()
	case FormatName:
		return a.Country.String()
	default:
		return a.Country.Alpha2()
	}
}

// Residential reports whether the address was tagged residential.
func (a Address) Residential() bool { return a.AddressType == AddressResidential }

// Commercial reports whether the address was tagged commercial.
func (a Address) Commercial() bool { return a.AddressType == AddressCommercial }

// POBox reports whether the address was tagged as a PO box.
func (a Address) POBox() bool { return a.AddressType == AddressPOBox }

var (
	zip5Re     = regexp.MustCompile(`\d{5}`)
	zipPlus4Re = regexp.MustCompile(`(\d{5})-?(\d{4})`)
)

// Zip5 returns the first 5 consecutive digits of the postal code, falling
// back to the raw postal code when none are found.
func (a Address) Zip5() string {
	if m := zip5Re.FindString(a.PostalCode); m != "" {
		return m
	}
	return a.PostalCode
}

// Zip4 returns the last 4 digits of a 9-digit or hyphenated 9-digit postal
// code, or the empty string otherwise.
func (a Address) Zip4() string {
	if m := zipPlus4Re.FindStringSubmatch(a.PostalCode); m != nil {
		return m[2]
	}
	return ""
}

// ZipPlus4 returns the postal code formatted as a Zip+4 ("77095-2233"), or
// the empty string when the postal code does not carry the extra 4 digits.
func (a Address) ZipPlus4() string {
	if m := zipPlus4Re.FindStringSubmatch(a.PostalCode); m != nil {
		return m[1] + "-" + m[2]
	}
	return ""
}

// Address2And3 joins the second and third address lines, skipping blanks.
func (a Address) Address2And3() string {
	parts := make([]string, 0, 2)
	for _, line := range []string{a.Address2, a.Address3} {
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, ", ")
}

// String renders the address on a single line.
func (a Address) String() string {
	return strings.ReplaceAll(a.PrettyPrint(), "\n", " ")
}

// PrettyPrint renders the address as a multi-line postal block.
func (a Address) PrettyPrint() string {
	chunks := make([]string, 0, 6)
	for _, c := range []string{a.Name, a.Address1, a.Address2, a.Address3} {
		if c != "" {
			chunks = append(chunks, c)
		}
	}
	cityLine := make([]string, 0, 3)
	for _, c := range []string{a.City, a.Province, a.PostalCode} {
		if c != "" {
			cityLine = append(cityLine, c)
		}
	}
	if len(cityLine) > 0 {
		chunks = append(chunks, strings.Join(cityLine, ", "))
	}
	if name := a.CountryCode(FormatName); name != "" {
		chunks = append(chunks, name)
	}
	return strings.Join(chunks, "\n")
}

// zipRange maps a contiguous block of 5-digit ZIP codes to a US state.
// Bounds are inclusive; the table is scanned in declaration order and the
// first match wins.
type zipRange struct {
	lo, hi int
	state  string
}

var stateZipRanges = []zipRange{
	{99500, 99928, "AK"},
	{35000, 36998, "AL"},
	{71600, 72998, "AR"},
	{75502, 75504, "AR"},
	{85000, 86598, "AZ"},
	{90000, 96198, "CA"},
	{80000, 81698, "CO"},
	{6000, 6998, "CT"},
	{20000, 20098, "DC"},
	{20200, 20598, "DC"},
	{19700, 19998, "DE"},
	{32000, 33998, "FL"},
	{34100, 34998, "FL"},
	{30000, 31998, "GA"},
	{96700, 96797, "HI"},
	{96800, 96898, "HI"},
	{50000, 52998, "IA"},
	{83200, 83898, "ID"},
	{60000, 62998, "IL"},
	{46000, 47998, "IN"},
	{66000, 67998, "KS"},
	{40000, 42798, "KY"},
	{45275, 45275, "KY"},
	{70000, 71498, "LA"},
	{71749, 71749, "LA"},
	{1000, 2798, "MA"},
	{20331, 20331, "MD"},
	{20600, 21998, "MD"},
	{3801, 3801, "ME"},
	{3804, 3804, "ME"},
	{3900, 4998, "ME"},
	{48000, 49998, "MI"},
	{55000, 56798, "MN"},
	{63000, 65898, "MO"},
	{38600, 39798, "MS"},
	{59000, 59998, "MT"},
	{27000, 28998, "NC"},
	{58000, 58898, "ND"},
	{68000, 69398, "NE"},
	{3000, 3802, "NH"},
	{3809, 3898, "NH"},
	{7000, 8998, "NJ"},
	{87000, 88498, "NM"},
	{89000, 89898, "NV"},
	{400, 598, "NY"},
	{6390, 6390, "NY"},
	{9000, 14998, "NY"},
	{43000, 45998, "OH"},
	{73000, 73198, "OK"},
	{73400, 74998, "OK"},
	{97000, 97998, "OR"},
	{15000, 19698, "PA"},
	{2800, 2998, "RI"},
	{6379, 6379, "RI"},
	{29000, 29998, "SC"},
	{57000, 57798, "SD"},
	{37000, 38598, "TN"},
	{72395, 72395, "TN"},
	{73300, 73398, "TX"},
	{73949, 73949, "TX"},
	{75000, 79998, "TX"},
	{88501, 88598, "TX"},
	{84000, 84798, "UT"},
	{20105, 20198, "VA"},
	{20301, 20301, "VA"},
	{20370, 20370, "VA"},
	{22000, 24698, "VA"},
	{5000, 5998, "VT"},
	{98000, 99498, "WA"},
	{49936, 49936, "WI"},
	{53000, 54998, "WI"},
	{24700, 26898, "WV"},
	{82000, 83198, "WY"},
}

// StateFromZip5 maps a 5-digit US ZIP code to its state abbreviation using
// a fixed range table. Returns ErrInvalidZip when no range contains it.
func StateFromZip5(zip string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(zip))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidZip, zip)
	}
	for _, r := range stateZipRanges {
		if n >= r.lo && n <= r.hi {
			return r.state, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidZip, zip)
}
