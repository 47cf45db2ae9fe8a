package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values.
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from a per-sample
// return series: stddev of returns times sqrt(252), the standard
// trading-day annualisation factor.
func AnnualizedVolatility(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return StdDev(returns) * math.Sqrt(252)
}

// CalculateReturns converts a value series to period-over-period returns:
// Returns[i] = (Values[i] - Values[i-1]) / Values[i-1].
func CalculateReturns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			returns[i-1] = (values[i] - values[i-1]) / values[i-1]
		}
	}

	return returns
}

// CalculateAnnualReturn calculates annualized return from a return series.
//
// Formula: ((1+r1)*(1+r2)*...*(1+rN))^(252/N) - 1
func CalculateAnnualReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0.0
	}

	cumulative := 1.0
	for _, r := range returns {
		cumulative *= 1 + r
	}

	numPeriods := float64(len(returns))
	if numPeriods < 3 {
		return cumulative - 1
	}

	years := numPeriods / 252.0
	return math.Pow(cumulative, 1.0/years) - 1
}
