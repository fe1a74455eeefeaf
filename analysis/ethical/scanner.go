// Package ethical scans datasets for sensitive attributes, personally
// identifiable information, representation imbalance, and distribution skew,
// and rolls the findings into a compliance score.
package ethical

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/aether-insight/aether-go/analysis/dataset"
	"github.com/aether-insight/aether-go/utils"
)

// Issue categories.
const (
	IssueSensitiveColumn = "sensitive_column"
	IssuePIIDetected     = "pii_detected"
	IssueImbalance       = "representation_imbalance"
	IssueSkew            = "distribution_skew"
)

// Issue severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

const (
	piiSampleLimit     = 1000
	imbalanceThreshold = 0.8
	skewThreshold      = 1.0
	kurtosisThreshold  = 3.0

	categoryPenalty       = 15.0
	recommendationPenalty = 10.0
)

var sensitiveTokens = []string{
	"gender", "sex", "age", "race", "ethnic", "religion",
	"marital", "disab", "income", "nation", "minority",
}

var piiPatterns = map[string]*regexp.Regexp{
	"email":       regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
	"phone":       regexp.MustCompile(`\b(?:\+?\d{1,2}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`),
	"ssn":         regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	"credit_card": regexp.MustCompile(`\b(?:\d[ \-]?){13,16}\b`),
	"ip_address":  regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
}

// Issue is one ethical finding on a column.
type Issue struct {
	Category string `json:"category"`
	Column   string `json:"column"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

// Report is the full scan result.
type Report struct {
	SensitiveColumns []string `json:"sensitive_columns"`
	Issues           []Issue  `json:"issues"`
	Recommendations  []string `json:"recommendations"`
	ComplianceScore  float64  `json:"compliance_score"`
}

// Scan inspects every column of the dataset and returns the findings.
func Scan(ds *dataset.Dataset) *Report {
	report := &Report{}

	for _, name := range ds.ColumnNames() {
		col := ds.Column(name)
		if isSensitiveName(name) {
			report.SensitiveColumns = append(report.SensitiveColumns, name)
			report.Issues = append(report.Issues, Issue{
				Category: IssueSensitiveColumn,
				Column:   name,
				Severity: SeverityMedium,
				Detail:   "column name suggests a protected attribute",
			})
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("Review whether %q should be used as a model feature", name))

			if share, value, ok := dominantShare(col); ok && share > imbalanceThreshold {
				report.Issues = append(report.Issues, Issue{
					Category: IssueImbalance,
					Column:   name,
					Severity: SeverityMedium,
					Detail:   fmt.Sprintf("value %q covers %.0f%% of rows", value, share*100),
				})
				report.Recommendations = append(report.Recommendations,
					fmt.Sprintf("Collect more samples for under-represented groups in %q", name))
			}
		}

		if col.Kind == dataset.KindText {
			for _, kind := range scanPII(col) {
				report.Issues = append(report.Issues, Issue{
					Category: IssuePIIDetected,
					Column:   name,
					Severity: SeverityHigh,
					Detail:   fmt.Sprintf("values match the %s pattern", kind),
				})
				report.Recommendations = append(report.Recommendations,
					fmt.Sprintf("Remove or anonymize %s data in %q before sharing", kind, name))
			}
		}

		if col.Kind == dataset.KindNumeric {
			if detail, ok := skewFinding(col); ok {
				report.Issues = append(report.Issues, Issue{
					Category: IssueSkew,
					Column:   name,
					Severity: SeverityLow,
					Detail:   detail,
				})
				report.Recommendations = append(report.Recommendations,
					fmt.Sprintf("Consider transforming %q to reduce distribution skew", name))
			}
		}
	}

	report.ComplianceScore = complianceScore(report)

	utils.GetLogger().Info("ethical scan complete", utils.Component("ethical"),
		utils.Int("sensitive_columns", len(report.SensitiveColumns)),
		utils.Int("issues", len(report.Issues)),
		utils.Float("compliance_score", report.ComplianceScore))
	return report
}

// isSensitiveName tokenizes a column name on non-alphanumeric boundaries and
// prefix-matches each token against the sensitive vocabulary.
func isSensitiveName(name string) bool {
	tokens := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, token := range tokens {
		for _, sensitive := range sensitiveTokens {
			if strings.HasPrefix(token, sensitive) {
				return true
			}
		}
	}
	return false
}

// scanPII checks up to piiSampleLimit non-missing text values against each
// pattern and returns the matched pattern names in a stable order.
func scanPII(col *dataset.Column) []string {
	var found []string
	for kind, pattern := range piiPatterns {
		sampled := 0
		for i := range col.Strings {
			if col.Missing[i] {
				continue
			}
			if sampled >= piiSampleLimit {
				break
			}
			sampled++
			if pattern.MatchString(col.Strings[i]) {
				found = append(found, kind)
				break
			}
		}
	}
	sort.Strings(found)
	return found
}

// dominantShare returns the share of non-missing rows held by the most
// frequent value.
func dominantShare(col *dataset.Column) (float64, string, bool) {
	counts := make(map[string]int)
	total := 0
	for i := 0; i < col.Len(); i++ {
		if col.Missing[i] {
			continue
		}
		counts[cellString(col, i)]++
		total++
	}
	if total == 0 {
		return 0, "", false
	}
	best, bestCount := "", 0
	for value, count := range counts {
		if count > bestCount || (count == bestCount && value < best) {
			best, bestCount = value, count
		}
	}
	return float64(bestCount) / float64(total), best, true
}

func cellString(col *dataset.Column, i int) string {
	switch col.Kind {
	case dataset.KindNumeric:
		return strconv.FormatFloat(col.Floats[i], 'g', -1, 64)
	case dataset.KindText:
		return col.Strings[i]
	case dataset.KindBool:
		return strconv.FormatBool(col.Bools[i])
	case dataset.KindTemporal:
		return col.Times[i].Format(time.RFC3339)
	}
	return ""
}

func skewFinding(col *dataset.Column) (string, bool) {
	values := col.FloatValues()
	if len(values) < 3 {
		return "", false
	}
	skew := stat.Skew(values, nil)
	kurt := stat.ExKurtosis(values, nil)
	if math.Abs(skew) > skewThreshold {
		return fmt.Sprintf("skewness %.2f exceeds %.1f", skew, skewThreshold), true
	}
	if kurt > kurtosisThreshold {
		return fmt.Sprintf("excess kurtosis %.2f exceeds %.1f", kurt, kurtosisThreshold), true
	}
	return "", false
}

// complianceScore deducts a fixed penalty per distinct issue category and an
// extra penalty when the recommendation list grows long, floored at zero.
func complianceScore(r *Report) float64 {
	categories := make(map[string]struct{})
	for _, issue := range r.Issues {
		categories[issue.Category] = struct{}{}
	}
	score := 100.0 - categoryPenalty*float64(len(categories))
	if len(r.Recommendations) > 3 {
		score -= recommendationPenalty
	}
	if score < 0 {
		score = 0
	}
	return dataset.Round2(score)
}
