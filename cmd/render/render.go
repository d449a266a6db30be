// SPDX-License-Identifier: Apache-2.0

// Package render formats a finding.RiskAssessment for the CLI's --format
// json|markdown output, per spec.md §6. The Markdown layout is grounded on
// original_source/scia/output/markdown.py: a summary header, then the
// findings in assessment order, each headed by its severity marker; findings
// are not grouped by severity.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/scia-dev/scia/pkg/finding"
)

// JSON renders assessment as indented JSON, matching the "JSON assessment
// (output)" shape in spec.md §6.
func JSON(assessment *finding.RiskAssessment) (string, error) {
	data, err := json.MarshalIndent(assessment, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering json: %w", err)
	}
	return string(data), nil
}

var severityEmoji = map[finding.Severity]string{
	finding.SeverityHigh:   "\U0001F534",
	finding.SeverityMedium: "\U0001F7E1",
	finding.SeverityLow:    "\U0001F7E2",
}

type markdownFinding struct {
	Emoji       string
	Type        finding.Type
	Severity    finding.Severity
	RiskScore   int
	Description string
	Evidence    string
}

type markdownView struct {
	RiskScore      int
	Classification finding.Classification
	Warnings       []string
	Findings       []markdownFinding
}

const markdownTemplate = `# SCIA Impact Report
**Risk Score:** {{.RiskScore}}
**Classification:** {{.Classification}}
{{if .Warnings}}
## Warnings
{{range .Warnings}}- {{.}}
{{end}}{{end}}
## Findings

{{if not .Findings}}No impactful changes detected.
{{else}}{{range .Findings}}### {{.Emoji}} {{.Type}}
- **Severity:** {{.Severity}}
- **Risk Score:** {{.RiskScore}}
- **Description:** {{.Description}}
- **Evidence:** ` + "`{{.Evidence}}`" + `

{{end}}{{end}}`

var tmpl = template.Must(template.New("markdown").Parse(markdownTemplate))

// Markdown renders assessment as a human-readable Markdown report.
func Markdown(assessment *finding.RiskAssessment) (string, error) {
	view := markdownView{
		RiskScore:      assessment.RiskScore,
		Classification: assessment.Classification,
		Warnings:       assessment.Warnings,
	}
	for _, f := range assessment.Findings {
		view.Findings = append(view.Findings, markdownFinding{
			Emoji:       severityEmoji[f.Severity],
			Type:        f.FindingType,
			Severity:    f.Severity,
			RiskScore:   f.RiskScore,
			Description: f.Description,
			Evidence:    fmt.Sprintf("%v", f.Evidence),
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}
