// README: Pricing calculator; computes delivery fee, commission, and time estimate.
package pricing

import (
	"context"
	"math"

	"qikparcel/internal/geo"
	"qikparcel/internal/modules/parcel"
	"qikparcel/internal/types"
)

// Store resolves tariff rows. Implementations return (nil, nil) when no row
// matches; the calculator then falls back to the default tariff.
type Store interface {
	DomesticRule(ctx context.Context, country string) (*Rule, error)
	CountryRate(ctx context.Context, originCountry, destCountry string) (*CountryRate, error)
}

type Calculator struct {
	store             Store
	commissionPercent float64
}

func NewCalculator(store Store, commissionPercent float64) *Calculator {
	return &Calculator{store: store, commissionPercent: commissionPercent}
}

type QuoteInput struct {
	Pickup          *types.Point
	Delivery        *types.Point
	PickupCountry   string
	DeliveryCountry string
	WeightKg        float64
}

type Quote struct {
	DeliveryFee   float64
	PlatformFee   float64
	TotalAmount   float64
	Currency      string
	EstimatedDays int
}

// Quote prices a delivery. A route is international when both countries are
// known and differ; everything else is priced on the domestic tariff.
func (c *Calculator) Quote(ctx context.Context, in QuoteInput) (Quote, error) {
	if in.PickupCountry != "" && in.DeliveryCountry != "" && in.PickupCountry != in.DeliveryCountry {
		return c.international(ctx, in)
	}
	return c.domestic(ctx, in)
}

func (c *Calculator) domestic(ctx context.Context, in QuoteInput) (Quote, error) {
	rule := defaultRule
	if c.store != nil {
		r, err := c.store.DomesticRule(ctx, in.PickupCountry)
		if err != nil {
			return Quote{}, err
		}
		if r != nil {
			rule = *r
		}
	}

	distanceKm := defaultDomesticDistanceKm
	if in.Pickup != nil && in.Delivery != nil {
		distanceKm = geo.DistanceKm(*in.Pickup, *in.Delivery)
	}

	fee := (rule.BaseFee + distanceKm*rule.RatePerKm) * sizeMultiplier(in.WeightKg)
	return c.finish(fee, rule.Currency, domesticDays(distanceKm)), nil
}

func (c *Calculator) international(ctx context.Context, in QuoteInput) (Quote, error) {
	if c.store != nil {
		r, err := c.store.CountryRate(ctx, in.PickupCountry, in.DeliveryCountry)
		if err != nil {
			return Quote{}, err
		}
		if r != nil {
			fee := (r.BaseFee + r.PerKg*in.WeightKg) * sizeMultiplier(in.WeightKg)
			days := r.EstimatedDays
			if days <= 0 {
				days = 7
			}
			return c.finish(fee, r.Currency, days), nil
		}
	}
	// No pair row: price as long-haul domestic on the default tariff.
	fee := (defaultRule.BaseFee + defaultRule.RatePerKm*defaultDomesticDistanceKm*2) * sizeMultiplier(in.WeightKg)
	return c.finish(fee, defaultRule.Currency, 7), nil
}

func (c *Calculator) finish(fee float64, currency string, days int) Quote {
	fee = round2(fee)
	platform := round2(fee * c.commissionPercent / 100)
	if currency == "" {
		currency = defaultRule.Currency
	}
	return Quote{
		DeliveryFee:   fee,
		PlatformFee:   platform,
		TotalAmount:   round2(fee + platform),
		Currency:      currency,
		EstimatedDays: days,
	}
}

func sizeMultiplier(weightKg float64) float64 {
	switch parcel.SizeFromWeight(weightKg) {
	case parcel.SizeMedium:
		return multiplierMedium
	case parcel.SizeLarge:
		return multiplierLarge
	default:
		return multiplierSmall
	}
}

func domesticDays(distanceKm float64) int {
	switch {
	case distanceKm <= 100:
		return 1
	case distanceKm <= 500:
		return 2
	case distanceKm <= 1500:
		return 3
	default:
		return 5
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
