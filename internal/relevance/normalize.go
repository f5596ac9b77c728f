// Package relevance maps raw similarity scores from a vector index onto a
// common [0,1] relevance scale.
//
// Each metric has its own transform. Cosine scores are rescaled from [-1,1]
// and squared. Euclidean and dot-product scores are judged relative to the
// batch they arrived in, using the population mean and standard deviation of
// the match set. Scores from any other metric are clipped to the Tukey fence
// of the batch and min-max scaled.
package relevance

import (
	"math"
	"slices"
	"strconv"

	"github.com/lox/pinecone-search/internal/types"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

const (
	// Places is the number of decimal digits in a normalized relevance value.
	Places = 4

	tukeyK = 1.5

	// exactDigits is enough fractional digits to print any float64 exactly
	exactDigits = 1074
)

// Normalize returns the relevance of score within matches, formatted with four decimal digits.
// See Score for the precondition on matches.
func Normalize(score float64, metric types.SimilarityMetric, matches types.MatchSet) string {
	return Format(Score(score, metric, matches), Places)
}

// Score returns the relevance of score within matches. Unknown metrics return
// the raw score unchanged.
//
// The euclidean, dotproduct and other transforms read statistics of matches,
// which must not be empty; Score panics if it is.
func Score(score float64, metric types.SimilarityMetric, matches types.MatchSet) float64 {
	switch metric {
	case types.MetricCosine:
		return cosine(score)
	case types.MetricEuclidean:
		mean, sd := PopulationStats(mustScores(matches))
		return euclidean(score, mean, sd)
	case types.MetricDotProduct:
		mean, sd := PopulationStats(mustScores(matches))
		return dotProduct(score, mean, sd)
	case types.MetricOther:
		q1, q3 := Quartiles(mustScores(matches))
		return tukey(score, q1, q3)
	default:
		return score
	}
}

// Format renders v as a fixed-point decimal string. Rounding is half away from
// zero on the exact binary value of v, so 0.285 (stored as 0.28499...) gives
// "0.28". NaN and infinities are printed as NaN, +Inf and -Inf.
func Format(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', int(places), 64)
	}
	exact := decimal.RequireFromString(strconv.FormatFloat(v, 'f', exactDigits, 64))
	return exact.StringFixed(places)
}

// PopulationStats returns the mean and population standard deviation of scores
func PopulationStats(scores []float64) (mean, sd float64) {
	return stat.PopMeanStdDev(scores, nil)
}

// Quartiles returns the first and third quartile of scores by direct index
// into the sorted scores, without interpolation.
func Quartiles(scores []float64) (q1, q3 float64) {
	sorted := slices.Clone(scores)
	slices.Sort(sorted)
	n := float64(len(sorted))
	return sorted[int(math.Floor(n*0.25))], sorted[int(math.Floor(n*0.75))]
}

func mustScores(matches types.MatchSet) []float64 {
	if len(matches) == 0 {
		panic("relevance: statistics of an empty match set")
	}
	return matches.Scores()
}

func cosine(score float64) float64 {
	base := (1 + score) / 2
	return base * base
}

// euclidean is zero at the batch mean and approaches one away from it.
func euclidean(score, mean, sd float64) float64 {
	if sd == 0 {
		sd = 1
	}
	d := score - mean
	return 1 - math.Exp(-(d*d)/(2*sd*sd))
}

func dotProduct(score, mean, sd float64) float64 {
	if sd == 0 {
		sd = 1
	}
	standardized := (score - mean) / sd
	return 1 / (1 + math.Exp(-2*standardized))
}

func tukey(score, q1, q3 float64) float64 {
	iqr := q3 - q1
	lo := q1 - tukeyK*iqr
	hi := q3 + tukeyK*iqr
	return minMax(math.Max(lo, math.Min(hi, score)), lo, hi)
}

func minMax(score, lo, hi float64) float64 {
	if hi == lo {
		return 1
	}
	return (score - lo) / (hi - lo)
}
