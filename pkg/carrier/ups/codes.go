package ups

import (
	"github.com/parcelio/shipbridge/pkg/carrier"
)

// Pickup types accepted in Options.PickupType.
const (
	PickupDaily                = "daily_pickup"
	PickupCustomerCounter      = "customer_counter"
	PickupOneTime              = "one_time_pickup"
	PickupOnCallAir            = "on_call_air"
	PickupSuggestedRetailRates = "suggested_retail_rates"
	PickupLetterCenter         = "letter_center"
	PickupAirServiceCenter     = "air_service_center"
)

var pickupCodes = carrier.NewCodeTable(map[string]string{
	PickupDaily:                "01",
	PickupCustomerCounter:      "03",
	PickupOneTime:              "06",
	PickupOnCallAir:            "07",
	PickupSuggestedRetailRates: "11",
	PickupLetterCenter:         "19",
	PickupAirServiceCenter:     "20",
})

var customerClassifications = carrier.NewCodeTable(map[string]string{
	"wholesale":  "01",
	"occasional": "03",
	"retail":     "04",
})

// defaultCustomerClassification returns the classification UPS documents as
// the default for a pickup type. UPS does not always apply these server-side,
// so the request states them explicitly.
func defaultCustomerClassification(pickupType string) string {
	switch pickupType {
	case PickupDaily:
		return "wholesale"
	case PickupCustomerCounter:
		return "retail"
	default:
		return "occasional"
	}
}

var paymentTypes = carrier.NewCodeTable(map[string]string{
	"prepaid":          "Prepaid",
	"consignee":        "Consignee",
	"bill_third_party": "BillThirdParty",
	"freight_collect":  "FreightCollect",
})

var defaultServices = carrier.NewCodeTable(map[string]string{
	"UPS Next Day Air":                   "01",
	"UPS Second Day Air":                 "02",
	"UPS Ground":                         "03",
	"UPS Worldwide Express":              "07",
	"UPS Worldwide Expedited":            "08",
	"UPS Standard":                       "11",
	"UPS Three-Day Select":               "12",
	"UPS Next Day Air Saver":             "13",
	"UPS Next Day Air Early A.M.":        "14",
	"UPS Worldwide Express Plus":         "54",
	"UPS Second Day Air A.M.":            "59",
	"UPS Saver":                          "65",
	"UPS Today Standard":                 "82",
	"UPS Today Dedicated Courier":        "83",
	"UPS Today Intercity":                "84",
	"UPS Today Express":                  "85",
	"UPS Today Express Saver":            "86",
	"UPS First-Class Mail United States": "M2",
	"UPS Priority Mail United States":    "M3",
	"UPS Expedited Mail Innovations":     "M4",
	"UPS Priority Mail Innovations":      "M5",
	"UPS Economy Mail Innovations":       "M6",
})

// Origin-specific service names. UPS reuses service codes with different
// marketing names depending on the origin country.
var canadaOriginServices = carrier.NewCodeTable(map[string]string{
	"UPS Express":                   "01",
	"UPS Expedited":                 "02",
	"UPS Express Early A.M.":        "14",
	"UPS Priority Mail Innovations": "M5",
	"UPS Economy Mail Innovations":  "M6",
})

var mexicoOriginServices = carrier.NewCodeTable(map[string]string{
	"UPS Express":                   "07",
	"UPS Expedited":                 "08",
	"UPS Express Plus":              "54",
	"UPS Priority Mail Innovations": "M5",
	"UPS Economy Mail Innovations":  "M6",
})

var euOriginServices = carrier.NewCodeTable(map[string]string{
	"UPS Express":                   "07",
	"UPS Expedited":                 "08",
	"UPS Priority Mail Innovations": "M5",
	"UPS Economy Mail Innovations":  "M6",
})

var otherNonUSOriginServices = carrier.NewCodeTable(map[string]string{
	"UPS Express":                   "07",
	"UPS Priority Mail Innovations": "M5",
	"UPS Economy Mail Innovations":  "M6",
})

var mailInnovationsServices = carrier.NewCodeTable(map[string]string{
	"UPS First-Class Mail United States": "M2",
	"UPS Priority Mail United States":    "M3",
	"UPS Expedited Mail Innovations":     "M4",
	"UPS Priority Mail Innovations":      "M5",
	"UPS Economy Mail Innovations":       "M6",
})

var worldwideServices = carrier.NewCodeTable(map[string]string{
	"UPS Worldwide Expedited":    "08",
	"UPS Worldwide Express":      "07",
	"UPS Worldwide Express Plus": "54",
})

var trackingStatusCodes = map[string]carrier.TrackingStatus{
	"I": carrier.StatusInTransit,
	"D": carrier.StatusDelivered,
	"X": carrier.StatusException,
	"P": carrier.StatusPickup,
	"M": carrier.StatusManifestPickup,
}

var upsPackagingTypes = map[string]string{
	"UPS Letter":                "01",
	"Customer Supplied Package": "02",
	"Tube":                      "03",
	"PAK":                       "04",
	"UPS Express Box":           "21",
	"UPS 25KG Box":              "24",
	"UPS 10KG Box":              "25",
	"Pallet":                    "30",
	"Small Express Box":         "2a",
	"Medium Express Box":        "2b",
	"Large Express Box":         "2c",
	"Flats":                     "56",
	"Parcels":                   "57",
	"BPM":                       "58",
}

var miPackagingTypes = map[string]string{
	"First Class":   "59",
	"Priority":      "60",
	"Machinables":   "61",
	"Irregulars":    "62",
	"Parcel Post":   "63",
	"BPM Parcel":    "64",
	"Media Mail":    "65",
	"BMP Flat":      "66",
	"Standard Flat": "67",
}

// packagingTypes merges the UPS and Mail Innovations sets; the MI map is
// applied second so its entries win any collision.
var packagingTypes = carrier.NewCodeTable(upsPackagingTypes, miPackagingTypes)

var unitsOfMeasure = carrier.NewCodeTable(map[string]string{
	"Barrel":        "BA",
	"Bundle":        "BE",
	"Bag":           "BG",
	"Bunch":         "BH",
	"Box":           "BOX",
	"Bolt":          "BT",
	"Butt":          "BU",
	"Canister":      "CI",
	"Centimeter":    "CM",
	"Container":     "CON",
	"Crate":         "CR",
	"Case":          "CS",
	"Carton":        "CT",
	"Cylinder":      "CY",
	"Dozen":         "DOZ",
	"Each":          "EA",
	"Envelope":      "EN",
	"Feet":          "FT",
	"Kilogram":      "KG",
	"Kilograms":     "KGS",
	"Pound":         "LB",
	"Pounds":        "LBS",
	"Liter":         "L",
	"Meter":         "M",
	"Number":        "NMB",
	"Packet":        "PA",
	"Pallet":        "PAL",
	"Piece":         "PC",
	"Pieces":        "PCS",
	"Proof Liters":  "PF",
	"Package":       "PKG",
	"Pair":          "PR",
	"Pairs":         "PRS",
	"Roll":          "RL",
	"Set":           "SET",
	"Square Meters": "SME",
	"Square Yards":  "SYD",
	"Tube":          "TU",
	"Yard":          "YD",
	"Other":         "OTH",
})

var euCountryCodes = map[string]bool{
	"GB": true, "AT": true, "BE": true, "BG": true, "CY": true, "CZ": true,
	"DK": true, "EE": true, "FI": true, "FR": true, "DE": true, "GR": true,
	"HU": true, "IE": true, "IT": true, "LV": true, "LT": true, "LU": true,
	"MT": true, "NL": true, "PL": true, "PT": true, "RO": true, "SK": true,
	"SI": true, "ES": true, "SE": true,
}

// US territories UPS wants addressed as their own destination countries.
var usTerritories = map[string]bool{
	"AS": true, "FM": true, "GU": true, "MH": true,
	"MP": true, "PW": true, "PR": true, "VI": true,
}

// serviceNameFor resolves a service code to its marketing name for the
// given origin country: Canada, Mexico and EU origins get their regional
// names, other non-US origins fall back to the international set, and the
// default table covers the rest.
func serviceNameFor(origin carrier.Address, code string) string {
	cc := origin.CountryCode(carrier.FormatAlpha2)

	var name string
	var ok bool
	switch {
	case cc == "CA":
		name, ok = canadaOriginServices.Name(code)
	case cc == "MX":
		name, ok = mexicoOriginServices.Name(code)
	case euCountryCodes[cc]:
		name, ok = euOriginServices.Name(code)
	}
	if !ok && cc != "US" {
		name, ok = otherNonUSOriginServices.Name(code)
	}
	if !ok {
		name, _ = defaultServices.Name(code)
	}
	return name
}
