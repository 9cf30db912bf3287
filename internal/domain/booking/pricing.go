package booking

import (
	"time"

	"github.com/sewakita/service-rental/internal/domain"
)

// DayCount returns the billable day count for a half-open interval:
// ceil(hours/24), minimum 1.
func DayCount(start, end time.Time) int {
	hours := end.Sub(start).Hours()
	days := int(hours / 24)
	if float64(days)*24 < hours {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

// RoundUpThousand rounds a currency amount up to the nearest 1,000. Ledger
// amounts inherit this convention from the existing back-office reports;
// booking totals are not rounded.
func RoundUpThousand(v int64) int64 {
	if v <= 0 {
		return v
	}
	if rem := v % 1000; rem != 0 {
		return v + (1000 - rem)
	}
	return v
}

// SeasonRule raises the daily rate for every calendar day inside
// [StartDate, EndDate], inclusive at day granularity.
type SeasonRule struct {
	Name          string    `json:"name"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	PriceIncrease int64     `json:"price_increase"`
}

// contains reports whether the rule covers the given calendar day.
func (r SeasonRule) contains(day time.Time) bool {
	d := day.Truncate(24 * time.Hour)
	return !d.Before(r.StartDate.Truncate(24*time.Hour)) && !d.After(r.EndDate.Truncate(24*time.Hour))
}

// DriverRateTiers resolves the driver's daily rate from trip distance when no
// car-specific salary is configured.
type DriverRateTiers struct {
	ShortTripMaxKm float64 `json:"short_trip_max_km"`
	ShortTripRate  int64   `json:"short_trip_rate"`
	LongTripRate   int64   `json:"long_trip_rate"`
}

// Settings is the immutable pricing configuration snapshot taken once per
// request from the settings collaborator. Never a process-wide global.
type Settings struct {
	SeasonRules        []SeasonRule     `json:"season_rules"`
	AreaSurcharges     map[string]int64 `json:"area_surcharges"`
	DriverTiers        DriverRateTiers  `json:"driver_tiers"`
	StandardDriverRate int64            `json:"standard_driver_rate"`
	DriverLodgingFee   int64            `json:"driver_lodging_fee"`
}

// PriceParams holds the inputs for price calculation.
type PriceParams struct {
	CarDailyRate    int64
	CarDriverSalary int64 // car-specific driver salary per day, 0 if unset
	WithDriver      bool
	DriverDailyRate int64   // selected driver's own rate, 0 if unset
	TripDistanceKm  float64 // 0 when unknown
	Overnight       bool
	StartAt         time.Time
	EndAt           time.Time
	Area            string
	DeliveryFee     int64
	OverdueFee      int64
	ExtraFee        int64
}

// PriceBreakdown itemizes the computed total.
type PriceBreakdown struct {
	Days              int   `json:"days"`
	BasePrice         int64 `json:"base_price"`
	DriverFee         int64 `json:"driver_fee"`
	DriverLodging     int64 `json:"driver_lodging"`
	SeasonalSurcharge int64 `json:"seasonal_surcharge"`
	AreaSurcharge     int64 `json:"area_surcharge"`
	DeliveryFee       int64 `json:"delivery_fee"`
	OverdueFee        int64 `json:"overdue_fee"`
	ExtraFee          int64 `json:"extra_fee"`
	Total             int64 `json:"total"`
}

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	Calculate(params PriceParams, settings Settings) (int64, PriceBreakdown, error)
}

// StandardPricingStrategy implements the fleet's default pricing rules.
type StandardPricingStrategy struct{}

// NewStandardPricingStrategy creates a new StandardPricingStrategy.
func NewStandardPricingStrategy() *StandardPricingStrategy {
	return &StandardPricingStrategy{}
}

// Calculate computes the booking total. Pure function of its inputs.
func (s *StandardPricingStrategy) Calculate(params PriceParams, settings Settings) (int64, PriceBreakdown, error) {
	if !params.StartAt.Before(params.EndAt) {
		return 0, PriceBreakdown{}, domain.NewValidationError("rental start must be before rental end")
	}
	if params.CarDailyRate <= 0 {
		return 0, PriceBreakdown{}, domain.NewValidationError("car daily rate must be positive")
	}

	days := DayCount(params.StartAt, params.EndAt)
	breakdown := PriceBreakdown{
		Days:        days,
		BasePrice:   params.CarDailyRate * int64(days),
		DeliveryFee: params.DeliveryFee,
		OverdueFee:  params.OverdueFee,
		ExtraFee:    params.ExtraFee,
	}

	if params.WithDriver {
		rate := ResolveDriverRate(params, settings)
		breakdown.DriverFee = rate * int64(days)
		if params.Overnight && days > 1 {
			breakdown.DriverLodging = settings.DriverLodgingFee * int64(days-1)
		}
	}

	breakdown.SeasonalSurcharge = seasonalSurcharge(params.StartAt, days, settings.SeasonRules)
	if params.Area != "" {
		breakdown.AreaSurcharge = settings.AreaSurcharges[params.Area]
	}

	breakdown.Total = breakdown.BasePrice +
		breakdown.DriverFee +
		breakdown.DriverLodging +
		breakdown.SeasonalSurcharge +
		breakdown.AreaSurcharge +
		breakdown.DeliveryFee +
		breakdown.OverdueFee +
		breakdown.ExtraFee

	return breakdown.Total, breakdown, nil
}

// ResolveDriverRate picks the driver's daily rate in priority order:
// car-specific salary, distance tier, driver's own rate, standard fallback.
func ResolveDriverRate(params PriceParams, settings Settings) int64 {
	if params.CarDriverSalary > 0 {
		return params.CarDriverSalary
	}
	if params.TripDistanceKm > 0 {
		if params.TripDistanceKm <= settings.DriverTiers.ShortTripMaxKm {
			if settings.DriverTiers.ShortTripRate > 0 {
				return settings.DriverTiers.ShortTripRate
			}
		} else if settings.DriverTiers.LongTripRate > 0 {
			return settings.DriverTiers.LongTripRate
		}
	}
	if params.DriverDailyRate > 0 {
		return params.DriverDailyRate
	}
	return settings.StandardDriverRate
}

// seasonalSurcharge sums the increase of the first matching season rule for
// each rented calendar day. A day matches at most one rule; overlapping
// multi-day matches accumulate uncapped.
func seasonalSurcharge(start time.Time, days int, rules []SeasonRule) int64 {
	if len(rules) == 0 {
		return 0
	}
	var total int64
	day := start.Truncate(24 * time.Hour)
	for i := 0; i < days; i++ {
		for _, r := range rules {
			if r.contains(day) {
				total += r.PriceIncrease
				break
			}
		}
		day = day.Add(24 * time.Hour)
	}
	return total
}
