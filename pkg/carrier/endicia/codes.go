package endicia

import (
	"github.com/parcelio/shipbridge/pkg/carrier"
)

var usServices = map[string]string{
	"USPS Express Mail":     "Express",
	"USPS First Class Mail": "First",
	"USPS Library Mail":     "LibraryMail",
	"USPS Media Mail":       "MediaMail",
	"USPS Standard Post":    "StandardPost",
	"USPS Parcel Post":      "StandardPost",
	"USPS Parcel Select":    "ParcelSelect",
	"USPS Priority Mail":    "Priority",
	"USPS Critical Mail":    "CriticalMail",
}

var intlServices = map[string]string{
	"USPS Express Mail International":                "ExpressMailInternational",
	"USPS First Class Mail International":            "FirstClassMailInternational",
	"USPS First Class Package International Service": "FirstClassPackageInternationalService",
	"USPS Priority Mail International":               "PriorityMailInternational",
	"USPS Global Express Guaranteed":                 "GXG",
}

// services resolves every supported mail class; the domestic set is applied
// first so the merged table mirrors the split the label type depends on.
var services = carrier.NewCodeTable(usServices, intlServices)

// isDomesticService reports whether the service type belongs to the US
// mail-class set, which decides the label type and state requirements.
func isDomesticService(serviceType string) bool {
	_, ok := usServices[serviceType]
	return ok
}

// countryNameConversions maps ISO alpha-2 codes to the country names USPS
// expects on customs paperwork where they differ from the registry name.
// See http://pe.usps.gov/text/Imm/immctry.htm.
var countryNameConversions = map[string]string{
	"BA": "Bosnia-Herzegovina",
	"CD": "Congo, Democratic Republic of the",
	"CG": "Congo (Brazzaville),Republic of the",
	"CI": "Côte d'Ivoire (Ivory Coast)",
	"CK": "Cook Islands (New Zealand)",
	"FK": "Falkland Islands",
	"GB": "Great Britain and Northern Ireland",
	"GE": "Georgia, Republic of",
	"IR": "Iran",
	"KN": "Saint Kitts (St. Christopher and Nevis)",
	"KP": "North Korea (Korea, Democratic People's Republic of)",
	"KR": "South Korea (Korea, Republic of)",
	"LA": "Laos",
	"LY": "Libya",
	"MC": "Monaco (France)",
	"MD": "Moldova",
	"MK": "Macedonia, Republic of",
	"MM": "Burma",
	"PN": "Pitcairn Island",
	"RU": "Russia",
	"SK": "Slovak Republic",
	"TK": "Tokelau (Union) Group (Western Samoa)",
	"TW": "Taiwan",
	"TZ": "Tanzania",
	"VA": "Vatican City",
	"VG": "British Virgin Islands",
	"VN": "Vietnam",
	"WF": "Wallis and Futuna Islands",
	"WS": "Western Samoa",
}

// uspsCountryName returns the USPS spelling of an address's country.
func uspsCountryName(addr carrier.Address) string {
	if name, ok := countryNameConversions[addr.CountryCode(carrier.FormatAlpha2)]; ok {
		return name
	}
	return addr.CountryCode(carrier.FormatName)
}
