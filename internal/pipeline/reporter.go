package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mandrita16/WastePrediction/internal/ml"
	"github.com/rs/zerolog/log"
)

const topFeatures = 5

// Reporter prints training diagnostics and writes the JSON report.
type Reporter struct {
	outcome *Outcome
}

// NewReporter creates a new reporter
func NewReporter(outcome *Outcome) *Reporter {
	return &Reporter{outcome: outcome}
}

// PrintSummary writes the cross-validation table, the ensemble accuracy
// and the classification report to w.
func (r *Reporter) PrintSummary(w io.Writer) {
	s := r.outcome.Summary
	res := r.outcome.Result

	fmt.Fprintf(w, "Final data shape: X=(%d, %d), y classes=%v\n", s.Rows, len(s.FeatureSet), s.Classes)
	fmt.Fprintf(w, "Label noise: %d of %d labels flipped (rate %.2f)\n", s.Flipped, s.Rows, s.NoiseRate)

	fmt.Fprintf(w, "\nCROSS-VALIDATION RESULTS\n")
	fmt.Fprintf(w, "------------------------\n")
	for _, cv := range res.CV {
		fmt.Fprintf(w, "%-12s: %.4f ± %.4f\n", cv.Name, cv.Mean, cv.Std)
	}

	fmt.Fprintf(w, "\nENSEMBLE ACCURACY: %.4f (%.2f%%)\n", res.Accuracy, res.Accuracy*100)

	fmt.Fprintf(w, "\nCLASSIFICATION REPORT\n")
	fmt.Fprintf(w, "---------------------\n")
	writeClassificationReport(w, res.Report)

	if len(res.Importance) > 0 {
		fmt.Fprintf(w, "\nTOP FEATURES\n")
		fmt.Fprintf(w, "------------\n")
		for i, f := range res.Importance {
			if i == topFeatures {
				break
			}
			fmt.Fprintf(w, "%-20s: permutation %.4f, splits %d (%.1f%%)\n", f.Name, f.PermutationScore, f.Splits, f.SplitShare*100)
		}
	}

	if prev := r.outcome.Previous; prev != nil {
		fmt.Fprintf(w, "\nPrevious run %s: accuracy %.4f (change %+.4f)\n",
			prev.RunID, prev.Accuracy, res.Accuracy-prev.Accuracy)
	}
	fmt.Fprintf(w, "\nModel saved as run %s\n", r.outcome.RunID)
}

func writeClassificationReport(w io.Writer, rep ml.Report) {
	fmt.Fprintf(w, "%12s %10s %10s %10s %10s\n\n", "", "precision", "recall", "f1-score", "support")
	for _, c := range rep.Classes {
		writeReportRow(w, c)
	}
	fmt.Fprintf(w, "\n%12s %10s %10s %10.2f %10d\n", "accuracy", "", "", rep.Accuracy, rep.Support)
	writeReportRow(w, rep.MacroAvg)
	writeReportRow(w, rep.WeightedAvg)
}

func writeReportRow(w io.Writer, c ml.ClassMetrics) {
	fmt.Fprintf(w, "%12s %10.2f %10.2f %10.2f %10d\n", c.Class, c.Precision, c.Recall, c.F1, c.Support)
}

// WriteJSON writes the full training report to path, creating the
// directory if needed.
func (r *Reporter) WriteJSON(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	report := map[string]interface{}{
		"run":          r.outcome.Summary,
		"training":     r.outcome.Result,
		"generated_at": time.Now(),
	}
	if r.outcome.Previous != nil {
		report["previous_run"] = r.outcome.Previous
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", path).Msg("JSON report generated")
	return nil
}
