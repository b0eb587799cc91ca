package ml

import (
	"fmt"
	"sort"
)

// Accuracy is the fraction of predictions equal to the truth.
func Accuracy(truth, pred []int) float64 {
	if len(truth) == 0 {
		return 0
	}
	hits := 0
	for i := range truth {
		if truth[i] == pred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

// ClassMetrics holds precision, recall and F1 of one class.
type ClassMetrics struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// Report is a per-class classification report with macro and
// support-weighted averages.
type Report struct {
	Classes     []ClassMetrics `json:"classes"`
	Accuracy    float64        `json:"accuracy"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
	Support     int            `json:"support"`
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func harmonic(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// ClassificationReport scores predictions against the truth for every
// label appearing in either slice. names maps label codes to display
// names; codes without a name are printed as numbers. Undefined ratios
// are reported as 0.
func ClassificationReport(truth, pred []int, names []string) Report {
	labels := map[int]struct{}{}
	for i := range truth {
		labels[truth[i]] = struct{}{}
		labels[pred[i]] = struct{}{}
	}
	ordered := make([]int, 0, len(labels))
	for l := range labels {
		ordered = append(ordered, l)
	}
	sort.Ints(ordered)

	rep := Report{Accuracy: Accuracy(truth, pred), Support: len(truth)}
	if len(ordered) == 0 {
		return rep
	}

	for _, l := range ordered {
		tp, predicted, actual := 0, 0, 0
		for i := range truth {
			if pred[i] == l {
				predicted++
			}
			if truth[i] == l {
				actual++
				if pred[i] == l {
					tp++
				}
			}
		}
		p, r := ratio(tp, predicted), ratio(tp, actual)
		name := fmt.Sprint(l)
		if l >= 0 && l < len(names) {
			name = names[l]
		}
		rep.Classes = append(rep.Classes, ClassMetrics{
			Class: name, Precision: p, Recall: r, F1: harmonic(p, r), Support: actual,
		})
	}

	rep.MacroAvg = ClassMetrics{Class: "macro avg", Support: rep.Support}
	rep.WeightedAvg = ClassMetrics{Class: "weighted avg", Support: rep.Support}
	k := float64(len(rep.Classes))
	for _, c := range rep.Classes {
		rep.MacroAvg.Precision += c.Precision / k
		rep.MacroAvg.Recall += c.Recall / k
		rep.MacroAvg.F1 += c.F1 / k
		if rep.Support > 0 {
			w := float64(c.Support) / float64(rep.Support)
			rep.WeightedAvg.Precision += c.Precision * w
			rep.WeightedAvg.Recall += c.Recall * w
			rep.WeightedAvg.F1 += c.F1 * w
		}
	}
	return rep
}
