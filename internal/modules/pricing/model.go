// README: Pricing rule definitions for domestic and international tariffs.
package pricing

// Rule is a domestic distance-based tariff for one country.
type Rule struct {
	Country   string
	BaseFee   float64
	RatePerKm float64
	Currency  string
}

// CountryRate is an international tariff keyed by the (origin, destination)
// country pair.
type CountryRate struct {
	OriginCountry string
	DestCountry   string
	BaseFee       float64
	PerKg         float64
	Currency      string
	EstimatedDays int
}

// Size multipliers applied to the raw fee before commission.
const (
	multiplierSmall  = 1.0
	multiplierMedium = 1.5
	multiplierLarge  = 2.0
)

// Fallback tariff applied when no rule row exists, so acceptance never fails
// on missing tariff data.
var defaultRule = Rule{BaseFee: 5, RatePerKm: 0.5, Currency: "USD"}

// Assumed distance for domestic quotes when either coordinate is missing.
const defaultDomesticDistanceKm = 50.0
