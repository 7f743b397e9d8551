// ABOUTME: Carrier detection and tracking URL construction
// ABOUTME: Maps carrier names or tracking number shapes to public tracking pages
package tracking

import (
	"net/url"
	"regexp"
	"strings"
)

// Supported carriers.
const (
	CarrierUPS   = "UPS"
	CarrierUSPS  = "USPS"
	CarrierFedEx = "FedEx"
	CarrierDHL   = "DHL"
)

var urlTemplates = map[string]string{
	CarrierUPS:   "https://www.ups.com/track?tracknum=",
	CarrierUSPS:  "https://tools.usps.com/go/TrackConfirmAction?tLabels=",
	CarrierFedEx: "https://www.fedex.com/fedextrack/?trknbr=",
	CarrierDHL:   "https://www.dhl.com/us-en/home/tracking/tracking-parcel.html?submit=1&tracking-id=",
}

var (
	uspsPrefix = regexp.MustCompile(`^(94|92|93|70|23|13|M|EA|CP)`)
	allDigits  = regexp.MustCompile(`^[0-9]+$`)
)

// NormalizeCarrier returns the canonical carrier name for a case-insensitive match,
// or "" when the carrier is not supported.
func NormalizeCarrier(carrier string) string {
	c := strings.TrimSpace(carrier)
	for name := range urlTemplates {
		if strings.EqualFold(c, name) {
			return name
		}
	}
	return ""
}

// DetectCarrier infers the carrier from the shape of a tracking number.
// Returns "" when no pattern matches.
func DetectCarrier(trackingNumber string) string {
	num := strings.TrimSpace(trackingNumber)
	if num == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(num, "1Z"):
		return CarrierUPS
	case uspsPrefix.MatchString(num):
		return CarrierUSPS
	case allDigits.MatchString(num):
		switch len(num) {
		case 12, 15, 20, 22:
			return CarrierFedEx
		case 10:
			return CarrierDHL
		}
	}

	return ""
}

// ResolveURL builds the public tracking URL for a shipment. When carrier is empty the
// carrier is detected from the number. Returns "" without a tracking number or when
// the carrier has no known template.
func ResolveURL(carrier, trackingNumber string) string {
	num := strings.TrimSpace(trackingNumber)
	if num == "" {
		return ""
	}

	name := DetectCarrier(num)
	if strings.TrimSpace(carrier) != "" {
		name = NormalizeCarrier(carrier)
	}

	base, ok := urlTemplates[name]
	if !ok {
		return ""
	}

	return base + url.QueryEscape(num)
}
