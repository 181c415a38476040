// Package classify trains and applies the merchant category model: a
// class-balanced multinomial logistic regression over the feature encoding.
package classify

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rumor-ml/budgetmail/internal/domain"
	"github.com/rumor-ml/budgetmail/internal/feature"
)

// MinTrainingExamples is the smallest corpus the trainer accepts. Below
// this the evaluation split is meaningless and the model unreliable.
const MinTrainingExamples = 30

// ErrInsufficientData is returned when the labeled corpus is too small to
// train. No partial model is produced or persisted.
var ErrInsufficientData = errors.New("insufficient labeled training data")

// Training hyperparameters. Fixed rather than configurable: the corpus is
// a single household's merchant list, not a tuning target.
const (
	learningRate = 0.5
	epochs       = 400
	l2Penalty    = 1e-3
	splitSeed    = 42
)

// Example is one labeled transaction for training.
type Example struct {
	Merchant   string
	Amount     *decimal.Decimal
	Card       domain.CardName
	DayOfMonth int
	Label      domain.Category
}

// Model is the trained classifier together with the frozen encoding
// artifacts it was trained against. The three parts form one bundle: using
// the weights with a different vocabulary or card table silently corrupts
// predictions, so they persist and load together (see bundle.go).
type Model struct {
	Vocabulary *feature.Vocabulary
	Cards      *feature.CardIndex
	Classes    []domain.Category // sorted; row order of Weights
	Weights    [][]float64       // [class][feature]
	Bias       []float64         // [class]
}

// trained reports whether the model holds fitted state.
func (m *Model) trained() bool {
	return m != nil && m.Vocabulary != nil && m.Cards != nil &&
		len(m.Classes) > 0 && len(m.Weights) == len(m.Classes)
}

// Predict returns the category for an encoded feature vector. Calling it on
// an untrained model is a programming error and panics: silently guessing a
// category would poison the silver layer.
func (m *Model) Predict(vec []float64) domain.Category {
	if !m.trained() {
		panic("classify: Predict called on untrained model")
	}
	best, bestScore := 0, math.Inf(-1)
	for c := range m.Classes {
		score := m.Bias[c]
		for j, w := range m.Weights[c] {
			score += w * vec[j]
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return m.Classes[best]
}

// Encoder returns an inference-time encoder over the model's frozen
// artifacts, applying the inference missing-amount policy.
func (m *Model) Encoder() *feature.Encoder {
	return feature.NewEncoder(m.Vocabulary, m.Cards, feature.MissingAmountDefaultBucket)
}

// Train fits a model on the labeled corpus and evaluates it on a stratified
// 20% held-out split. The vocabulary and card index are fitted on the
// training portion only and frozen into the returned model.
func Train(examples []Example) (*Model, *EvaluationReport, error) {
	if len(examples) < MinTrainingExamples {
		return nil, nil, fmt.Errorf("%w: got %d labeled examples, need at least %d",
			ErrInsufficientData, len(examples), MinTrainingExamples)
	}

	trainSet, testSet := stratifiedSplit(examples, splitSeed)

	// Freeze encoding artifacts from the training portion.
	texts := make([]string, len(trainSet))
	cards := make([]domain.CardName, len(trainSet))
	for i, ex := range trainSet {
		texts[i] = ex.Merchant
		cards[i] = ex.Card
	}
	vocab := feature.FitVocabulary(texts)
	cardIndex := feature.FitCardIndex(cards)

	// Training-time encoding buckets missing amounts as zero.
	enc := feature.NewEncoder(vocab, cardIndex, feature.MissingAmountAsZero)

	classes := distinctLabels(examples)
	model := &Model{
		Vocabulary: vocab,
		Cards:      cardIndex,
		Classes:    classes,
	}

	vectors := make([][]float64, len(trainSet))
	labels := make([]int, len(trainSet))
	classIdx := make(map[domain.Category]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}
	for i, ex := range trainSet {
		vectors[i] = enc.Encode(ex.Merchant, ex.Amount, ex.Card, ex.DayOfMonth)
		labels[i] = classIdx[ex.Label]
	}

	model.Weights, model.Bias = fit(vectors, labels, len(classes))

	report := evaluate(model, enc, testSet)
	report.TrainSize = len(trainSet)
	return model, report, nil
}

// fit runs batch gradient descent on the softmax cross-entropy loss with
// balanced class weights (total / (numClasses * classCount)), mirroring the
// frequency rebalancing the corpus needs: a handful of Travel rows should
// not be drowned out by hundreds of Dining rows.
func fit(vectors [][]float64, labels []int, numClasses int) ([][]float64, []float64) {
	n := len(vectors)
	dim := 0
	if n > 0 {
		dim = len(vectors[0])
	}

	counts := make([]float64, numClasses)
	for _, y := range labels {
		counts[y]++
	}
	classWeight := make([]float64, numClasses)
	for c := range classWeight {
		if counts[c] > 0 {
			classWeight[c] = float64(n) / (float64(numClasses) * counts[c])
		}
	}

	weights := make([][]float64, numClasses)
	for c := range weights {
		weights[c] = make([]float64, dim)
	}
	bias := make([]float64, numClasses)

	probs := make([]float64, numClasses)
	for epoch := 0; epoch < epochs; epoch++ {
		gradW := make([][]float64, numClasses)
		for c := range gradW {
			gradW[c] = make([]float64, dim)
		}
		gradB := make([]float64, numClasses)

		for i, vec := range vectors {
			softmax(weights, bias, vec, probs)
			w := classWeight[labels[i]]
			for c := 0; c < numClasses; c++ {
				delta := probs[c]
				if c == labels[i] {
					delta -= 1
				}
				delta *= w
				gradB[c] += delta
				for j, x := range vec {
					if x != 0 {
						gradW[c][j] += delta * x
					}
				}
			}
		}

		step := learningRate / float64(n)
		for c := 0; c < numClasses; c++ {
			bias[c] -= step * gradB[c]
			for j := range weights[c] {
				weights[c][j] -= step * (gradW[c][j] + l2Penalty*weights[c][j])
			}
		}
	}

	return weights, bias
}

// softmax writes class probabilities for one vector into out.
func softmax(weights [][]float64, bias []float64, vec []float64, out []float64) {
	maxScore := math.Inf(-1)
	for c := range out {
		score := bias[c]
		for j, w := range weights[c] {
			score += w * vec[j]
		}
		out[c] = score
		if score > maxScore {
			maxScore = score
		}
	}
	var sum float64
	for c := range out {
		out[c] = math.Exp(out[c] - maxScore)
		sum += out[c]
	}
	for c := range out {
		out[c] /= sum
	}
}

// stratifiedSplit holds out ~20% of each class for evaluation. Classes with
// fewer than five examples contribute everything to training; the split is
// deterministic under the fixed seed.
func stratifiedSplit(examples []Example, seed int64) (train, test []Example) {
	byLabel := make(map[domain.Category][]int)
	for i, ex := range examples {
		byLabel[ex.Label] = append(byLabel[ex.Label], i)
	}

	labels := make([]domain.Category, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	rng := rand.New(rand.NewSource(seed))
	for _, label := range labels {
		idxs := byLabel[label]
		rng.Shuffle(len(idxs), func(i, j int) { idxs[i], idxs[j] = idxs[j], idxs[i] })

		holdout := len(idxs) / 5
		for i, idx := range idxs {
			if i < holdout {
				test = append(test, examples[idx])
			} else {
				train = append(train, examples[idx])
			}
		}
	}
	return train, test
}

// distinctLabels returns the sorted set of categories in the corpus.
func distinctLabels(examples []Example) []domain.Category {
	seen := make(map[domain.Category]struct{})
	for _, ex := range examples {
		seen[ex.Label] = struct{}{}
	}
	out := make([]domain.Category, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
