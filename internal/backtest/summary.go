package backtest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumenquant/tradecore/pkg/formulas"
)

type equitySample struct {
	at     time.Time
	equity decimal.Decimal
}

// Summary reports the standard return and tail-risk statistics over one
// backtest's equity curve, sampled once per processed event plus an
// opening sample before the first one.
type Summary struct {
	StartEquity decimal.Decimal
	EndEquity   decimal.Decimal
	NumSamples  int

	TotalReturn          float64
	MeanReturn           float64
	AnnualReturn         float64
	AnnualizedVolatility float64
	CAGR                 *float64
	CVaR95               float64
}

func summarize(samples []equitySample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	start := samples[0].equity
	end := samples[len(samples)-1].equity

	values := make([]float64, len(samples))
	points := make([]formulas.EquityPoint, len(samples))
	for i, s := range samples {
		v, _ := s.equity.Float64()
		values[i] = v
		points[i] = formulas.EquityPoint{At: s.at, Value: v}
	}
	returns := formulas.CalculateReturns(values)

	totalReturn := 0.0
	if !start.IsZero() {
		totalReturn, _ = end.Sub(start).Div(start).Float64()
	}

	return Summary{
		StartEquity:          start,
		EndEquity:            end,
		NumSamples:           len(samples),
		TotalReturn:          totalReturn,
		MeanReturn:           formulas.Mean(returns),
		AnnualReturn:         formulas.CalculateAnnualReturn(returns),
		AnnualizedVolatility: formulas.AnnualizedVolatility(returns),
		CAGR:                 formulas.CalculateCAGR(points),
		CVaR95:               formulas.CalculateCVaR(returns, 0.95),
	}
}
