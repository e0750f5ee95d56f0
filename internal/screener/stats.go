package screener

import (
	"math"

	"github.com/jefftan83/ai-find-fund/pkg/models"
)

// tradingDaysPerYear is the annualization base for daily series.
const tradingDaysPerYear = 252

// Stats computes performance statistics from an ascending NAV series. All
// results are percentages. Fewer than two points yields the zero value.
func Stats(points []models.NAVPoint) models.Performance {
	if len(points) < 2 {
		return models.Performance{}
	}

	returns := dailyReturns(points)
	if len(returns) == 0 {
		return models.Performance{}
	}

	var perf models.Performance

	first, last := points[0].UnitNAV, points[len(points)-1].UnitNAV
	if first > 0 {
		total := last/first - 1
		perf.TotalReturn = total * 100
		years := float64(len(returns)) / tradingDaysPerYear
		if years > 0 {
			perf.AnnualizedReturn = (math.Pow(1+total, 1/years) - 1) * 100
		}
	}

	perf.Volatility = stddev(returns) * math.Sqrt(tradingDaysPerYear) * 100
	perf.MaxDrawdown = maxDrawdown(points) * 100

	return perf
}

// dailyReturns converts the NAV series to day-over-day simple returns,
// skipping non-positive closes.
func dailyReturns(points []models.NAVPoint) []float64 {
	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].UnitNAV
		if prev <= 0 || points[i].UnitNAV <= 0 {
			continue
		}
		returns = append(returns, points[i].UnitNAV/prev-1)
	}
	return returns
}

// stddev is the sample standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// maxDrawdown returns the largest peak-to-trough decline as a positive
// fraction.
func maxDrawdown(points []models.NAVPoint) float64 {
	var peak, worst float64
	for _, p := range points {
		if p.UnitNAV > peak {
			peak = p.UnitNAV
		}
		if peak > 0 {
			dd := 1 - p.UnitNAV/peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
