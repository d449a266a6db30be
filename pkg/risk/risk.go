// SPDX-License-Identifier: Apache-2.0

// Package risk implements the risk aggregator (C9): it combines findings
// into a normalized [0,100] score and a LOW/MEDIUM/HIGH classification.
package risk

import "github.com/scia-dev/scia/pkg/finding"

// K is the saturating curve's sensitivity constant (spec.md §4.8): 50% at
// raw=100, 80% at raw=400.
const K = 100

// lowThreshold and mediumThreshold are the score cutoffs from spec.md
// §4.8's classification table.
const (
	lowThreshold    = 15
	mediumThreshold = 40
)

// Aggregate computes the normalized score and classification for findings.
func Aggregate(findings []finding.Finding) (score int, classification finding.Classification) {
	raw := 0
	hasHigh := false
	for _, f := range findings {
		r := f.RiskScore
		if r == 0 && f.BaseRisk != 0 {
			r = f.BaseRisk
		}
		raw += r
		if f.Severity == finding.SeverityHigh {
			hasHigh = true
		}
	}

	score = Normalize(raw)
	classification = Classify(score, hasHigh)
	return score, classification
}

// Normalize maps a raw summed risk onto [0,100] with a saturating curve:
// score = floor(100 * raw / (raw + K)). raw=0 maps to 0; Normalize is
// monotonically non-decreasing in raw and approaches but never reaches 100.
func Normalize(raw int) int {
	if raw <= 0 {
		return 0
	}
	return (100 * raw) / (raw + K)
}

// Classify maps a normalized score (and whether any HIGH-severity finding
// is present) to a Classification, per spec.md §4.8. The HIGH-severity gate
// above the score≥40 threshold prevents a flood of MEDIUM findings from
// crossing into HIGH on volume alone.
func Classify(score int, hasHighSeverityFinding bool) finding.Classification {
	switch {
	case score < lowThreshold:
		return finding.ClassificationLow
	case score < mediumThreshold:
		return finding.ClassificationMedium
	case hasHighSeverityFinding:
		return finding.ClassificationHigh
	default:
		return finding.ClassificationMedium
	}
}
