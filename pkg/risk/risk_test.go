// SPDX-License-Identifier: Apache-2.0

package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scia-dev/scia/pkg/finding"
	"github.com/scia-dev/scia/pkg/risk"
)

func TestNormalizeZeroRawIsZeroScore(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, risk.Normalize(0))
}

func TestNormalizeIsMonotonic(t *testing.T) {
	t.Parallel()
	prev := -1
	for _, raw := range []int{0, 10, 50, 100, 200, 400, 1000, 10000} {
		got := risk.Normalize(raw)
		assert.GreaterOrEqual(t, got, prev)
		assert.Less(t, got, 100)
		prev = got
	}
}

func TestNormalizeKnownPoints(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 50, risk.Normalize(100))
	assert.Equal(t, 80, risk.Normalize(400))
}

func TestClassifyAllLowFindingsNeverReachesHigh(t *testing.T) {
	t.Parallel()
	findings := []finding.Finding{
		{Severity: finding.SeverityLow, BaseRisk: 0, RiskScore: 0},
		{Severity: finding.SeverityLow, BaseRisk: 0, RiskScore: 0},
	}
	_, classification := risk.Aggregate(findings)
	assert.NotEqual(t, finding.ClassificationHigh, classification)
}

func TestAggregateScenarioRemovedColumn(t *testing.T) {
	t.Parallel()
	findings := []finding.Finding{{Severity: finding.SeverityHigh, BaseRisk: 80, RiskScore: 80}}
	score, classification := risk.Aggregate(findings)
	assert.Equal(t, 44, score)
	assert.Equal(t, finding.ClassificationHigh, classification)
}

func TestAggregateScenarioJoinKeyChanged(t *testing.T) {
	t.Parallel()
	findings := []finding.Finding{
		{Severity: finding.SeverityHigh, BaseRisk: 80, RiskScore: 80},
		{Severity: finding.SeverityHigh, BaseRisk: 90, RiskScore: 90},
	}
	score, classification := risk.Aggregate(findings)
	assert.Equal(t, 62, score)
	assert.Equal(t, finding.ClassificationHigh, classification)
}

func TestAggregateScenarioBlastRadiusDiscount(t *testing.T) {
	t.Parallel()
	findings := []finding.Finding{{Severity: finding.SeverityHigh, BaseRisk: 80, RiskScore: 60}}
	score, classification := risk.Aggregate(findings)
	assert.Equal(t, 37, score)
	assert.Equal(t, finding.ClassificationMedium, classification)
}

func TestClassifyThresholds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, finding.ClassificationLow, risk.Classify(14, false))
	assert.Equal(t, finding.ClassificationMedium, risk.Classify(15, false))
	assert.Equal(t, finding.ClassificationMedium, risk.Classify(39, true))
	assert.Equal(t, finding.ClassificationMedium, risk.Classify(40, false))
	assert.Equal(t, finding.ClassificationHigh, risk.Classify(40, true))
}
