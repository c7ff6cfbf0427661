package dhlgm

import (
	"github.com/parcelio/shipbridge/pkg/carrier"
)

var usServices = map[string]string{
	"SM BPM Expedited":              "76",
	"SM BPM Ground":                 "77",
	"SM Flats Expedited":            "72",
	"SM Flats Ground":               "73",
	"SM Marketing Parcel Expedited": "384",
	"SM Marketing Parcel Ground":    "383",
	"SM Media Mail Ground":          "80",
	"SM Parcel Plus Expedited":      "36",
	"SM Parcel Plus Ground":         "83",
	"SM Parcels Expedited":          "81",
	"SM Parcels Ground":             "82",
}

var intlServices = map[string]string{
	"GM Business Canada Lettermail":      "43",
	"GM Business IPA":                    "41",
	"GM Business ISAL":                   "42",
	"GM Business Priority":               "34",
	"GM Business Standard":               "35",
	"GM Direct Canada Admail":            "46",
	"GM Direct Priority":                 "44",
	"GM Direct Standard":                 "45",
	"GM Others (International)":          "69",
	"GM Packet Plus":                     "29",
	"GM Parcel Canada Parcel Priority":   "58",
	"GM Parcel Canada Parcel Standard":   "59",
	"GM Parcel Priority":                 "54",
	"GM Parcel Priority Track and Trace": "60",
	"GM Parcel Standard":                 "55",
	"GM Publication Canada Publication":  "51",
	"GM Publication Priority":            "47",
	"GM Publication Standard":            "48",
}

// services maps ordered product names to DHL product codes, domestic
// smart-mail set first.
var services = carrier.NewCodeTable(usServices, intlServices)

// facilities maps DHL injection facility locations to facility codes.
var facilities = carrier.NewCodeTable(map[string]string{
	"Forest Park, GA":    "USATL1",
	"Franklin, MA":       "USBOS1",
	"Elkridge, MD":       "USBWI1",
	"Hebron, KY":         "USCVG1",
	"Denver, CO":         "USDEN1",
	"Grand Prairie, TX":  "USDFW1",
	"Secaucus, NJ":       "USEWR1",
	"Edgewood, NY":       "USISP1",
	"Compton, CA":        "USLAX1",
	"Orlando, FL":        "USMCO1",
	"Memphis, TN":        "USMEM1",
	"Des Plaines, IL":    "USORD1",
	"Phoenix, AZ":        "USPHX1",
	"Auburn, WA":         "USSEA1",
	"Union City, CA":     "USSFO1",
	"Salt Lake City, UT": "USSLC1",
	"St. Louis, MO":      "USSTL1",
})

// mailTypes maps USPS mailpiece classifications to DHL mail type codes.
var mailTypes = carrier.NewCodeTable(map[string]string{
	"Irregular Parcel":        "2",
	"Machinable Parcel":       "3",
	"BPM Machinable":          "6",
	"Parcel Select Mach":      "7",
	"Parcel Select NonMach":   "8",
	"Media Mail":              "9",
	"Marketing Parcel < 6oz":  "20",
	"Marketing Parcel >= 6oz": "30",
})
