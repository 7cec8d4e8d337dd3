// Package evaluate scores predictions against held-out labels.
package evaluate

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/sjwhitworth/golearn/evaluation"
)

// ClassMetrics holds per-class precision, recall and F1.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is a classification report with a confusion matrix whose rows are
// true classes and columns predicted classes.
type Report struct {
	Classes     []ClassMetrics `json:"classes"`
	Accuracy    float64        `json:"accuracy"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
	Confusion   [][]int        `json:"confusion"`
}

func checkLengths(yTrue, yPred []int) error {
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("length mismatch: %d true vs %d predicted", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return fmt.Errorf("no labels to score")
	}
	return nil
}

// ConfusionMatrix counts yTrue/yPred pairs keyed by class label, with every
// class present as a row.
func ConfusionMatrix(yTrue, yPred []int, classes []string) (evaluation.ConfusionMatrix, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return nil, err
	}
	k := len(classes)
	cm := make(evaluation.ConfusionMatrix, k)
	for _, label := range classes {
		cm[label] = make(map[string]int, k)
	}
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= k || p < 0 || p >= k {
			return nil, fmt.Errorf("label out of range at %d: true=%d predicted=%d classes=%d", i, t, p, k)
		}
		cm[classes[t]][classes[p]]++
	}
	return cm, nil
}

// NewReport builds a report for class indices labeled by classes.
// Undefined ratios (no predictions or no support) are reported as 0.
func NewReport(yTrue, yPred []int, classes []string) (*Report, error) {
	cm, err := ConfusionMatrix(yTrue, yPred, classes)
	if err != nil {
		return nil, err
	}
	k := len(classes)
	report := &Report{
		Accuracy:  evaluation.GetAccuracy(cm),
		Confusion: make([][]int, k),
		Classes:   make([]ClassMetrics, k),
	}
	total := len(yTrue)
	for c, label := range classes {
		row := make([]int, k)
		support := 0
		for j, predicted := range classes {
			row[j] = cm[label][predicted]
			support += row[j]
		}
		report.Confusion[c] = row

		m := ClassMetrics{
			Label:     label,
			Precision: defined(evaluation.GetPrecision(label, cm)),
			Recall:    defined(evaluation.GetRecall(label, cm)),
			F1:        defined(evaluation.GetF1Score(label, cm)),
			Support:   support,
		}
		report.Classes[c] = m

		report.MacroAvg.Precision += m.Precision / float64(k)
		report.MacroAvg.Recall += m.Recall / float64(k)
		report.MacroAvg.F1 += m.F1 / float64(k)
		w := float64(support) / float64(total)
		report.WeightedAvg.Precision += m.Precision * w
		report.WeightedAvg.Recall += m.Recall * w
		report.WeightedAvg.F1 += m.F1 * w
	}
	report.MacroAvg.Label = "macro avg"
	report.MacroAvg.Support = total
	report.WeightedAvg.Label = "weighted avg"
	report.WeightedAvg.Support = total
	return report, nil
}

// defined maps the NaN golearn returns for 0/0 ratios to 0.
func defined(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Render draws the report as a table.
func (r *Report) Render() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Genre", "Precision", "Recall", "F1", "Support"})
	for _, m := range r.Classes {
		tw.AppendRow(metricsRow(m))
	}
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"accuracy", "", "", formatScore(r.Accuracy), strconv.Itoa(r.MacroAvg.Support)})
	tw.AppendRow(metricsRow(r.MacroAvg))
	tw.AppendRow(metricsRow(r.WeightedAvg))

	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignLeft}}
	for i := 2; i <= 5; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func metricsRow(m ClassMetrics) table.Row {
	return table.Row{m.Label, formatScore(m.Precision), formatScore(m.Recall), formatScore(m.F1), strconv.Itoa(m.Support)}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
