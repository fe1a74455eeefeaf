package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Model is the capability contract consumed by the trainer and downstream
// evaluators. Fitted models hold their parameters in memory; no
// serialization is implied.
type Model interface {
	Name() string
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
}

// ProbabilityModel is implemented by classifiers that can emit per-class
// probabilities. Classes reports the class codes in probability column
// order.
type ProbabilityModel interface {
	Model
	Classes() []float64
	PredictProba(X [][]float64) [][]float64
}

// Task selects between classification and regression behavior for
// task-generic models.
type Task string

const (
	TaskClassification Task = "classification"
	TaskRegression     Task = "regression"
)

func distinctClasses(y []float64) []float64 {
	seen := make(map[float64]struct{}, len(y))
	var out []float64
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

// LinearRegression fits ordinary least squares with an intercept using a QR
// solve.
type LinearRegression struct {
	coef      []float64
	intercept float64
}

// NewLinearRegression creates an unfitted least-squares model.
func NewLinearRegression() *LinearRegression { return &LinearRegression{} }

func (m *LinearRegression) Name() string { return "linear_regression" }

func (m *LinearRegression) Fit(X [][]float64, y []float64) error {
	n := len(X)
	if n == 0 {
		return fmt.Errorf("linear regression: empty training set")
	}
	d := len(X[0])
	if n < d+1 {
		return fmt.Errorf("linear regression: %d rows cannot determine %d coefficients", n, d+1)
	}

	a := mat.NewDense(n, d+1, nil)
	b := mat.NewVecDense(n, nil)
	for i, row := range X {
		for j, v := range row {
			a.Set(i, j, v)
		}
		a.Set(i, d, 1)
		b.SetVec(i, y[i])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		return fmt.Errorf("linear regression: solve failed: %w", err)
	}
	m.coef = make([]float64, d)
	for j := 0; j < d; j++ {
		m.coef[j] = beta.AtVec(j)
	}
	m.intercept = beta.AtVec(d)
	return nil
}

// FeatureImportances reports the absolute value of each coefficient. Inputs
// are standardized by Prepare, so magnitudes are comparable across features.
func (m *LinearRegression) FeatureImportances() []float64 {
	out := make([]float64, len(m.coef))
	for j, c := range m.coef {
		out[j] = math.Abs(c)
	}
	return out
}

func (m *LinearRegression) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		v := m.intercept
		for j, x := range row {
			v += m.coef[j] * x
		}
		out[i] = v
	}
	return out
}

// LogisticRegression is a gradient-descent classifier, one-vs-rest for more
// than two classes. Inputs are expected to be standardized, which Prepare
// guarantees for numeric features.
type LogisticRegression struct {
	LearningRate float64
	Epochs       int

	classes []float64
	weights [][]float64 // per class, last entry is the bias
}

// NewLogisticRegression creates a classifier with default training
// hyperparameters.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{LearningRate: 0.1, Epochs: 500}
}

func (m *LogisticRegression) Name() string { return "logistic_regression" }

// Classes reports class codes in probability column order.
func (m *LogisticRegression) Classes() []float64 { return m.classes }

func (m *LogisticRegression) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("logistic regression: empty training set")
	}
	m.classes = distinctClasses(y)
	if len(m.classes) < 2 {
		return fmt.Errorf("logistic regression: need at least 2 classes, got %d", len(m.classes))
	}

	d := len(X[0])
	m.weights = make([][]float64, len(m.classes))
	for ci, class := range m.classes {
		target := make([]float64, len(y))
		for i, v := range y {
			if v == class {
				target[i] = 1
			}
		}
		m.weights[ci] = fitBinaryLogistic(X, target, d, m.LearningRate, m.Epochs)
	}
	return nil
}

func fitBinaryLogistic(X [][]float64, y []float64, d int, lr float64, epochs int) []float64 {
	w := make([]float64, d+1)
	n := float64(len(X))
	grad := make([]float64, d+1)
	for epoch := 0; epoch < epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		for i, row := range X {
			p := sigmoid(dotBias(w, row))
			err := p - y[i]
			for j, x := range row {
				grad[j] += err * x
			}
			grad[d] += err
		}
		for j := range w {
			w[j] -= lr * grad[j] / n
		}
	}
	return w
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func dotBias(w, row []float64) float64 {
	v := w[len(w)-1]
	for j, x := range row {
		v += w[j] * x
	}
	return v
}

// FeatureImportances sums absolute weights across the per-class models,
// skipping the bias term.
func (m *LogisticRegression) FeatureImportances() []float64 {
	if len(m.weights) == 0 {
		return nil
	}
	d := len(m.weights[0]) - 1
	out := make([]float64, d)
	for _, w := range m.weights {
		for j := 0; j < d; j++ {
			out[j] += math.Abs(w[j])
		}
	}
	return out
}

func (m *LogisticRegression) scores(row []float64) []float64 {
	out := make([]float64, len(m.classes))
	for ci := range m.classes {
		out[ci] = sigmoid(dotBias(m.weights[ci], row))
	}
	return out
}

func (m *LogisticRegression) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		scores := m.scores(row)
		best := 0
		for ci := range scores {
			if scores[ci] > scores[best] {
				best = ci
			}
		}
		out[i] = m.classes[best]
	}
	return out
}

// PredictProba normalizes the one-vs-rest scores so each row sums to one.
func (m *LogisticRegression) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		scores := m.scores(row)
		sum := 0.0
		for _, s := range scores {
			sum += s
		}
		if sum == 0 {
			sum = 1
		}
		for ci := range scores {
			scores[ci] /= sum
		}
		out[i] = scores
	}
	return out
}

// DecisionTree is a CART-style binary tree using gini impurity for
// classification and variance reduction for regression.
type DecisionTree struct {
	Task            Task
	MaxDepth        int
	MinSamplesSplit int

	classes     []float64
	root        *treeNode
	importances []float64
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	leaf      bool
	value     float64
	probs     []float64 // classification leaves: class distribution
}

// NewDecisionTree creates a tree with default depth limits.
func NewDecisionTree(task Task) *DecisionTree {
	return &DecisionTree{Task: task, MaxDepth: 8, MinSamplesSplit: 2}
}

func (m *DecisionTree) Name() string { return "decision_tree" }

// Classes reports class codes in probability column order.
func (m *DecisionTree) Classes() []float64 { return m.classes }

func (m *DecisionTree) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("decision tree: empty training set")
	}
	if m.Task == TaskClassification {
		m.classes = distinctClasses(y)
	}
	m.importances = nil
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	m.root = m.grow(X, y, idx, 0, nil)
	return nil
}

func (m *DecisionTree) grow(X [][]float64, y []float64, idx []int, depth int, features []int) *treeNode {
	if features == nil {
		features = make([]int, len(X[0]))
		for j := range features {
			features[j] = j
		}
	}

	if depth >= m.MaxDepth || len(idx) < m.MinSamplesSplit || pure(y, idx) {
		return m.makeLeaf(y, idx)
	}

	feature, threshold, gain, ok := m.bestSplit(X, y, idx, features)
	if !ok {
		return m.makeLeaf(y, idx)
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return m.makeLeaf(y, idx)
	}

	if m.importances == nil {
		m.importances = make([]float64, len(X[0]))
	}
	if gain > 0 {
		m.importances[feature] += gain * float64(len(idx))
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      m.grow(X, y, left, depth+1, features),
		right:     m.grow(X, y, right, depth+1, features),
	}
}

func pure(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}

func (m *DecisionTree) makeLeaf(y []float64, idx []int) *treeNode {
	node := &treeNode{leaf: true}
	if m.Task == TaskRegression {
		sum := 0.0
		for _, i := range idx {
			sum += y[i]
		}
		node.value = sum / float64(len(idx))
		return node
	}

	counts := make(map[float64]int, len(m.classes))
	for _, i := range idx {
		counts[y[i]]++
	}
	node.probs = make([]float64, len(m.classes))
	best, bestCount := m.classes[0], -1
	for ci, class := range m.classes {
		node.probs[ci] = float64(counts[class]) / float64(len(idx))
		if counts[class] > bestCount {
			best, bestCount = class, counts[class]
		}
	}
	node.value = best
	return node
}

// bestSplit scans candidate thresholds per feature, subsampling thresholds
// when a feature has many distinct values.
func (m *DecisionTree) bestSplit(X [][]float64, y []float64, idx []int, features []int) (int, float64, float64, bool) {
	baseImpurity := m.impurity(y, idx)
	// Zero-gain splits are allowed so patterns like XOR, where no single
	// split reduces impurity, still partition down to pure leaves.
	bestGain := -1.0
	bestFeature, bestThreshold := -1, 0.0

	for _, f := range features {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, X[i][f])
		}
		sort.Float64s(values)
		uniq := values[:0]
		for i, v := range values {
			if i == 0 || v != uniq[len(uniq)-1] {
				uniq = append(uniq, v)
			}
		}
		if len(uniq) < 2 {
			continue
		}
		stride := 1
		if len(uniq) > 32 {
			stride = len(uniq) / 32
		}
		for i := 0; i+1 < len(uniq); i += stride {
			threshold := (uniq[i] + uniq[i+1]) / 2
			var left, right []int
			for _, j := range idx {
				if X[j][f] <= threshold {
					left = append(left, j)
				} else {
					right = append(right, j)
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			wl := float64(len(left)) / float64(len(idx))
			gain := baseImpurity - wl*m.impurity(y, left) - (1-wl)*m.impurity(y, right)
			if gain > bestGain {
				bestGain, bestFeature, bestThreshold = gain, f, threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestGain, bestFeature >= 0
}

// FeatureImportances reports the impurity reduction accumulated per feature
// across splits, each weighted by the rows reaching the split.
func (m *DecisionTree) FeatureImportances() []float64 {
	return append([]float64(nil), m.importances...)
}

func (m *DecisionTree) impurity(y []float64, idx []int) float64 {
	if m.Task == TaskRegression {
		mean := 0.0
		for _, i := range idx {
			mean += y[i]
		}
		mean /= float64(len(idx))
		v := 0.0
		for _, i := range idx {
			d := y[i] - mean
			v += d * d
		}
		return v / float64(len(idx))
	}

	counts := make(map[float64]int)
	for _, i := range idx {
		counts[y[i]]++
	}
	gini := 1.0
	n := float64(len(idx))
	for _, c := range counts {
		p := float64(c) / n
		gini -= p * p
	}
	return gini
}

func (m *DecisionTree) predictRow(row []float64) *treeNode {
	node := m.root
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node
}

func (m *DecisionTree) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = m.predictRow(row).value
	}
	return out
}

// PredictProba returns leaf class distributions. Only meaningful for
// classification trees.
func (m *DecisionTree) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		probs := m.predictRow(row).probs
		out[i] = append([]float64(nil), probs...)
	}
	return out
}

// RandomForest bags decision trees over bootstrap samples with per-tree
// feature subsets.
type RandomForest struct {
	Task     Task
	NTrees   int
	MaxDepth int
	Seed     int64

	classes  []float64
	trees    []*DecisionTree
	features [][]int
}

// NewRandomForest creates a forest with default size.
func NewRandomForest(task Task, seed int64) *RandomForest {
	return &RandomForest{Task: task, NTrees: 30, MaxDepth: 8, Seed: seed}
}

func (m *RandomForest) Name() string { return "random_forest" }

// Classes reports class codes in probability column order.
func (m *RandomForest) Classes() []float64 { return m.classes }

func (m *RandomForest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("random forest: empty training set")
	}
	if m.Task == TaskClassification {
		m.classes = distinctClasses(y)
	}
	d := len(X[0])
	mtry := int(math.Sqrt(float64(d)))
	if m.Task == TaskRegression {
		mtry = (d + 2) / 3
	}
	if mtry < 1 {
		mtry = 1
	}

	rng := rand.New(rand.NewSource(m.Seed))
	m.trees = make([]*DecisionTree, 0, m.NTrees)
	m.features = make([][]int, 0, m.NTrees)
	for t := 0; t < m.NTrees; t++ {
		sampleX := make([][]float64, len(X))
		sampleY := make([]float64, len(y))
		for i := range X {
			j := rng.Intn(len(X))
			sampleX[i] = X[j]
			sampleY[i] = y[j]
		}

		perm := rng.Perm(d)
		feats := append([]int(nil), perm[:mtry]...)
		sort.Ints(feats)

		tree := NewDecisionTree(m.Task)
		tree.MaxDepth = m.MaxDepth
		if m.Task == TaskClassification {
			tree.classes = m.classes
		}
		idx := make([]int, len(sampleX))
		for i := range idx {
			idx[i] = i
		}
		tree.root = tree.grow(sampleX, sampleY, idx, 0, feats)

		m.trees = append(m.trees, tree)
		m.features = append(m.features, feats)
	}
	return nil
}

// FeatureImportances sums the per-tree impurity reductions.
func (m *RandomForest) FeatureImportances() []float64 {
	return sumTreeImportances(m.trees)
}

func sumTreeImportances(trees []*DecisionTree) []float64 {
	var out []float64
	for _, tree := range trees {
		if len(tree.importances) == 0 {
			continue
		}
		if out == nil {
			out = make([]float64, len(tree.importances))
		}
		for j, v := range tree.importances {
			out[j] += v
		}
	}
	return out
}

func (m *RandomForest) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if m.Task == TaskRegression {
		for i, row := range X {
			sum := 0.0
			for _, tree := range m.trees {
				sum += tree.predictRow(row).value
			}
			out[i] = sum / float64(len(m.trees))
		}
		return out
	}

	probs := m.PredictProba(X)
	for i := range X {
		best := 0
		for ci := range probs[i] {
			if probs[i][ci] > probs[i][best] {
				best = ci
			}
		}
		out[i] = m.classes[best]
	}
	return out
}

// PredictProba averages leaf distributions across trees.
func (m *RandomForest) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		acc := make([]float64, len(m.classes))
		for _, tree := range m.trees {
			for ci, p := range tree.predictRow(row).probs {
				acc[ci] += p
			}
		}
		for ci := range acc {
			acc[ci] /= float64(len(m.trees))
		}
		out[i] = acc
	}
	return out
}

// GradientBoosting is a stage-wise boosted ensemble of shallow regression
// trees. Regression only.
type GradientBoosting struct {
	NTrees       int
	MaxDepth     int
	LearningRate float64
	Seed         int64

	base  float64
	trees []*DecisionTree
}

// NewGradientBoosting creates a boosted regressor with default
// hyperparameters.
func NewGradientBoosting(seed int64) *GradientBoosting {
	return &GradientBoosting{NTrees: 50, MaxDepth: 3, LearningRate: 0.1, Seed: seed}
}

func (m *GradientBoosting) Name() string { return "gradient_boosting" }

func (m *GradientBoosting) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("gradient boosting: empty training set")
	}
	sum := 0.0
	for _, v := range y {
		sum += v
	}
	m.base = sum / float64(len(y))

	residual := make([]float64, len(y))
	pred := make([]float64, len(y))
	for i := range y {
		pred[i] = m.base
	}

	m.trees = make([]*DecisionTree, 0, m.NTrees)
	for t := 0; t < m.NTrees; t++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		tree := NewDecisionTree(TaskRegression)
		tree.MaxDepth = m.MaxDepth
		if err := tree.Fit(X, residual); err != nil {
			return err
		}
		m.trees = append(m.trees, tree)
		for i, row := range X {
			pred[i] += m.LearningRate * tree.predictRow(row).value
		}
	}
	return nil
}

// FeatureImportances sums the per-stage impurity reductions.
func (m *GradientBoosting) FeatureImportances() []float64 {
	return sumTreeImportances(m.trees)
}

func (m *GradientBoosting) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		v := m.base
		for _, tree := range m.trees {
			v += m.LearningRate * tree.predictRow(row).value
		}
		out[i] = v
	}
	return out
}
