package correlation

import "math"

// dailyReturns converts a price series (oldest first) into simple daily
// returns. A series of n prices yields n-1 returns.
func dailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (prices[i]-prev)/prev)
	}
	return returns
}

// tail returns the last n elements of series, or the whole series when it is
// shorter than n.
func tail(series []float64, n int) []float64 {
	if len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}

// pearson computes the Pearson correlation coefficient of two equal-length
// series. A zero-variance series yields 0 rather than NaN.
func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return 0
	}

	coefficient := cov / denom
	if math.IsNaN(coefficient) {
		return 0
	}
	// Guard against float drift pushing past the mathematical bounds.
	return math.Max(-1, math.Min(1, coefficient))
}
