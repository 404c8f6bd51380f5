package ledger

import (
	"math"

	"paper-trading-go/internal/models"

	"gonum.org/v1/gonum/stat"
)

// tradingDaysPerYear annualizes daily statistics.
const tradingDaysPerYear = 252

// Analytics is the derived risk profile of a portfolio. MaxDrawdown and
// Volatility are percentages; SharpeRatio is a plain ratio.
type Analytics struct {
	SharpeRatio float64                    `json:"sharpeRatio"`
	MaxDrawdown float64                    `json:"maxDrawdown"`
	Volatility  float64                    `json:"volatility"`
	History     []models.PortfolioSnapshot `json:"history"`
}

// ComputeAnalytics derives Sharpe ratio, annualized volatility and max
// drawdown from snapshots sorted newest first. The computation is pure and
// re-derivable from the stored series alone. With fewer than two snapshots
// every statistic is zero by definition. Risk-free rate is assumed zero.
func ComputeAnalytics(snapshots []models.PortfolioSnapshot) Analytics {
	a := Analytics{History: snapshots}
	if len(snapshots) < 2 {
		return a
	}

	// Daily returns from consecutive pairs, skipping pairs whose older
	// NAV is zero.
	returns := make([]float64, 0, len(snapshots)-1)
	for i := 0; i < len(snapshots)-1; i++ {
		current, _ := snapshots[i].NAV.Float64()
		previous, _ := snapshots[i+1].NAV.Float64()
		if previous > 0 {
			returns = append(returns, (current-previous)/previous)
		}
	}
	if len(returns) == 0 {
		a.MaxDrawdown = round2(maxDrawdown(snapshots) * 100)
		return a
	}

	dailyVol := stat.PopStdDev(returns, nil)
	annualizedVol := dailyVol * math.Sqrt(tradingDaysPerYear)

	sharpe := 0.0
	if annualizedVol > 0 {
		sharpe = stat.Mean(returns, nil) * tradingDaysPerYear / annualizedVol
	}

	a.SharpeRatio = round2(sharpe)
	a.Volatility = round2(annualizedVol * 100)
	a.MaxDrawdown = round2(maxDrawdown(snapshots) * 100)
	return a
}

// maxDrawdown walks the snapshots oldest first, tracking the running peak
// NAV; the drawdown at each point is (peak-nav)/peak and the maximum
// observed is returned as a fraction.
func maxDrawdown(snapshots []models.PortfolioSnapshot) float64 {
	peak := 0.0
	maxDd := 0.0
	for i := len(snapshots) - 1; i >= 0; i-- {
		nav, _ := snapshots[i].NAV.Float64()
		if nav > peak {
			peak = nav
		}
		if peak > 0 {
			if dd := (peak - nav) / peak; dd > maxDd {
				maxDd = dd
			}
		}
	}
	return maxDd
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
