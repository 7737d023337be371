package snapshot

// Severity scoring. Each dimension is graded independently and the market's
// overall severity is the worst of them, a market with perfect liquidity but
// a dead oracle is still an emergency.

// ScoreLiquidity grades available liquidity relative to outstanding borrows.
// depthRatio is availableLiquidity / totalBorrows, capped upstream.
func ScoreLiquidity(depthRatio float64) Severity {
	switch {
	case depthRatio > 3.0:
		return Normal
	case depthRatio >= 1.0:
		return Elevated
	default:
		return Critical
	}
}

// ScoreUtilization grades how much of the pool is lent out
func ScoreUtilization(utilization float64) Severity {
	switch {
	case utilization >= 1.0:
		return Emergency
	case utilization >= 0.97:
		return Critical
	case utilization >= 0.90:
		return Elevated
	default:
		return Normal
	}
}

// ScoreRateConvexity grades proximity to the interest rate kink. Past the
// kink borrow rates grow steeply and positions deteriorate fast.
func ScoreRateConvexity(utilization, kink float64) Severity {
	if utilization >= kink {
		return Emergency
	}
	distance := kink - utilization
	switch {
	case distance < 0.05:
		return Critical
	case distance < 0.15:
		return Elevated
	default:
		return Normal
	}
}

// ScoreOracle grades the price feed's trustworthiness from the oracle's own
// evaluation. Confidence and risk score are on a 0-100 scale.
func ScoreOracle(eval OracleEvaluation) Severity {
	if eval.Confidence == 0 || eval.RiskScore >= 100 {
		return Emergency
	}
	if eval.RiskScore >= 80 {
		return Critical
	}

	if eval.Stale {
		switch {
		case eval.Confidence >= 80:
			return Elevated
		case eval.Confidence >= 40:
			return Critical
		default:
			return Emergency
		}
	}

	switch {
	case eval.Confidence >= 95:
		return Normal
	case eval.Confidence >= 70:
		return Elevated
	default:
		return Critical
	}
}

// Aggregate folds dimension severities into an overall one, the maximum
func Aggregate(levels ...Severity) (out Severity) {
	for _, level := range levels {
		if level > out {
			out = level
		}
	}
	return
}
