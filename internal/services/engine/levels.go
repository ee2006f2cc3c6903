package engine

import "sort"

// pivotWindow is the number of candles on each side a local extremum must
// dominate to count as a pivot.
const pivotWindow = 5

// maxLevels caps how many support/resistance levels are kept per side.
const maxLevels = 5

// clusterTolerancePct merges pivots closer than this fraction of their mean.
const clusterTolerancePct = 0.01

// findLevels detects support (local lows) and resistance (local highs) from
// pivot points over the lookback window, clusters nearby pivots and keeps
// the strongest levels: supports ascending, resistances descending.
// Shared by the bounce and breakout rules.
func findLevels(highs, lows []float64, lookback int) (supports, resistances []float64) {
	if len(highs) > lookback {
		highs = highs[len(highs)-lookback:]
		lows = lows[len(lows)-lookback:]
	}

	var rawSupports, rawResistances []float64
	for i := pivotWindow; i < len(highs)-pivotWindow; i++ {
		isPeak, isTrough := true, true
		for j := i - pivotWindow; j <= i+pivotWindow; j++ {
			if j == i {
				continue
			}
			if highs[j] >= highs[i] {
				isPeak = false
			}
			if lows[j] <= lows[i] {
				isTrough = false
			}
			if !isPeak && !isTrough {
				break
			}
		}
		if isPeak {
			rawResistances = append(rawResistances, highs[i])
		}
		if isTrough {
			rawSupports = append(rawSupports, lows[i])
		}
	}

	supports = clusterLevels(rawSupports)
	resistances = clusterLevels(rawResistances)

	sort.Float64s(supports)
	sort.Sort(sort.Reverse(sort.Float64Slice(resistances)))
	if len(supports) > maxLevels {
		supports = supports[:maxLevels]
	}
	if len(resistances) > maxLevels {
		resistances = resistances[:maxLevels]
	}
	return supports, resistances
}

// clusterLevels merges levels lying within the cluster tolerance of the
// running cluster mean, replacing each cluster by its average.
func clusterLevels(levels []float64) []float64 {
	if len(levels) == 0 {
		return nil
	}
	sorted := append([]float64(nil), levels...)
	sort.Float64s(sorted)

	var out []float64
	cluster := []float64{sorted[0]}
	for _, level := range sorted[1:] {
		avg := mean(cluster)
		if level-avg <= avg*clusterTolerancePct {
			cluster = append(cluster, level)
			continue
		}
		out = append(out, mean(cluster))
		cluster = []float64{level}
	}
	return append(out, mean(cluster))
}

// nearestBelow returns the highest level strictly below price, or 0.
func nearestBelow(price float64, levels []float64) float64 {
	best := 0.0
	for _, l := range levels {
		if l < price && l > best {
			best = l
		}
	}
	return best
}

// nearestAbove returns the lowest level strictly above price, or 0.
func nearestAbove(price float64, levels []float64) float64 {
	best := 0.0
	for _, l := range levels {
		if l > price && (best == 0 || l < best) {
			best = l
		}
	}
	return best
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
