package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rumor-ml/budgetmail/internal/domain"
	"github.com/rumor-ml/budgetmail/internal/feature"
)

// ClassMetrics holds held-out precision/recall for one category.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	Support   int     `json:"support"`
}

// EvaluationReport is the training artifact summarizing held-out quality.
// Training emits it explicitly rather than logging as a side effect so the
// operator can decide whether the model is fit to deploy.
type EvaluationReport struct {
	TrainSize int                              `json:"train_size"`
	TestSize  int                              `json:"test_size"`
	Accuracy  float64                          `json:"accuracy"`
	PerClass  map[domain.Category]ClassMetrics `json:"per_class"`
}

// evaluate scores the model on the held-out set. With an empty test set
// (every class too small to hold out) the report carries zero accuracy and
// no per-class rows; the sizes make that case visible.
func evaluate(model *Model, enc *feature.Encoder, testSet []Example) *EvaluationReport {
	report := &EvaluationReport{
		TestSize: len(testSet),
		PerClass: make(map[domain.Category]ClassMetrics),
	}

	if len(testSet) == 0 {
		return report
	}

	correct := 0
	truePos := make(map[domain.Category]int)
	falsePos := make(map[domain.Category]int)
	support := make(map[domain.Category]int)

	for _, ex := range testSet {
		vec := enc.Encode(ex.Merchant, ex.Amount, ex.Card, ex.DayOfMonth)
		predicted := model.Predict(vec)

		support[ex.Label]++
		if predicted == ex.Label {
			correct++
			truePos[predicted]++
		} else {
			falsePos[predicted]++
		}
	}

	report.Accuracy = float64(correct) / float64(len(testSet))
	for _, c := range model.Classes {
		m := ClassMetrics{Support: support[c]}
		if predicted := truePos[c] + falsePos[c]; predicted > 0 {
			m.Precision = float64(truePos[c]) / float64(predicted)
		}
		if support[c] > 0 {
			m.Recall = float64(truePos[c]) / float64(support[c])
		}
		report.PerClass[c] = m
	}
	return report
}

// String renders the report in classification-report layout.
func (r *EvaluationReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accuracy: %.2f%% (train=%d, test=%d)\n",
		r.Accuracy*100, r.TrainSize, r.TestSize)

	classes := make([]domain.Category, 0, len(r.PerClass))
	for c := range r.PerClass {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	fmt.Fprintf(&b, "%-16s %9s %9s %9s\n", "", "precision", "recall", "support")
	for _, c := range classes {
		m := r.PerClass[c]
		fmt.Fprintf(&b, "%-16s %9.2f %9.2f %9d\n", c, m.Precision, m.Recall, m.Support)
	}
	return b.String()
}
