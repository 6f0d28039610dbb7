package model

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"github.com/ridecast/ridecast/internal/utils"
	"gonum.org/v1/gonum/mat"
)

// Forest hyperparameters
const (
	ParamNEstimators     = "n_estimators"
	ParamMaxDepth        = "max_depth"         // 0 grows trees until the leaves are pure
	ParamMinSamplesSplit = "min_samples_split" // smallest node that may be split
	ParamMinSamplesLeaf  = "min_samples_leaf"  // smallest allowed child
	ParamMaxFeatures     = "max_features"      // MaxFeaturesSqrt, MaxFeaturesLog2 or a fraction in (0, 1]
	ParamBootstrap       = "bootstrap"         // 1 to draw each tree's rows with replacement
)

// Symbolic max_features values
const (
	MaxFeaturesSqrt = -1
	MaxFeaturesLog2 = -2
)

// ForestGrid is the default search space
var ForestGrid = map[string][]float64{
	ParamNEstimators:     {100, 200, 300},
	ParamMaxDepth:        {10, 20, 0},
	ParamMinSamplesSplit: {2, 5, 10},
	ParamMinSamplesLeaf:  {1, 2, 4},
	ParamMaxFeatures:     {MaxFeaturesSqrt, MaxFeaturesLog2, 0.8},
	ParamBootstrap:       {1, 0},
}

// ForestTrainer fits a random forest of regression trees.
//
// Each tree is grown on a bootstrap sample (or all rows) and considers a
// random subset of max_features columns at every split, choosing the
// threshold that minimizes the children's squared error. The forest predicts
// the mean of its trees. Trees are built in parallel, each from its own
// generator seeded in order from the trainer seed, so a fit is reproducible.
type ForestTrainer struct {
	seed int64
}

// NewForestTrainer creates a forest trainer with the given seed
func NewForestTrainer(seed int64) *ForestTrainer {
	return &ForestTrainer{seed: seed}
}

func init() {
	RegisterTrainer("forest", NewForestTrainer(utils.DefaultRandomSeed))
}

// Name returns the algorithm name
func (t *ForestTrainer) Name() string {
	return "forest"
}

// WithSeed returns a trainer that grows its trees from seed
func (t *ForestTrainer) WithSeed(seed int64) Trainer {
	return NewForestTrainer(seed)
}

// DefaultGrid returns the cartesian product of ForestGrid
func (t *ForestTrainer) DefaultGrid() []Params {
	return ProductGrid(ForestGrid)
}

// ProductGrid expands per-parameter values into every combination. Keys are
// iterated in sorted order so the grid order is stable.
func ProductGrid(values map[string][]float64) []Params {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	grid := []Params{{}}
	for _, k := range keys {
		next := make([]Params, 0, len(grid)*len(values[k]))
		for _, p := range grid {
			for _, v := range values[k] {
				q := make(Params, len(p)+1)
				for pk, pv := range p {
					q[pk] = pv
				}
				q[k] = v
				next = append(next, q)
			}
		}
		grid = next
	}
	return grid
}

type forestConfig struct {
	nEstimators int
	maxDepth    int
	minSplit    int
	minLeaf     int
	maxFeatures int
	bootstrap   bool
}

func parseForestParams(params Params, cols int) (forestConfig, Params, error) {
	get := func(key string, def float64) float64 {
		if v, ok := params[key]; ok {
			return v
		}
		return def
	}

	p := Params{
		ParamNEstimators:     get(ParamNEstimators, 100),
		ParamMaxDepth:        get(ParamMaxDepth, 0),
		ParamMinSamplesSplit: get(ParamMinSamplesSplit, 2),
		ParamMinSamplesLeaf:  get(ParamMinSamplesLeaf, 1),
		ParamMaxFeatures:     get(ParamMaxFeatures, 1),
		ParamBootstrap:       get(ParamBootstrap, 1),
	}

	cfg := forestConfig{
		nEstimators: int(p[ParamNEstimators]),
		maxDepth:    int(p[ParamMaxDepth]),
		minSplit:    int(p[ParamMinSamplesSplit]),
		minLeaf:     int(p[ParamMinSamplesLeaf]),
		bootstrap:   p[ParamBootstrap] != 0,
	}
	switch {
	case cfg.nEstimators < 1:
		return cfg, nil, fmt.Errorf("forest n_estimators must be at least 1, got %v", p[ParamNEstimators])
	case cfg.maxDepth < 0:
		return cfg, nil, fmt.Errorf("forest max_depth must not be negative, got %v", p[ParamMaxDepth])
	case cfg.minSplit < 2:
		return cfg, nil, fmt.Errorf("forest min_samples_split must be at least 2, got %v", p[ParamMinSamplesSplit])
	case cfg.minLeaf < 1:
		return cfg, nil, fmt.Errorf("forest min_samples_leaf must be at least 1, got %v", p[ParamMinSamplesLeaf])
	}

	mf := p[ParamMaxFeatures]
	switch {
	case mf == MaxFeaturesSqrt:
		cfg.maxFeatures = int(math.Sqrt(float64(cols)))
	case mf == MaxFeaturesLog2:
		cfg.maxFeatures = int(math.Log2(float64(cols)))
	case mf > 0 && mf <= 1:
		cfg.maxFeatures = int(mf * float64(cols))
	default:
		return cfg, nil, fmt.Errorf("forest max_features must be sqrt, log2 or a fraction in (0, 1], got %v", mf)
	}
	if cfg.maxFeatures < 1 {
		cfg.maxFeatures = 1
	}
	if cfg.maxFeatures > cols {
		cfg.maxFeatures = cols
	}

	return cfg, p, nil
}

// Fit trains the model
func (t *ForestTrainer) Fit(X mat.Matrix, y []float64, params Params) (Predictor, error) {
	rows, cols, err := checkTrainingShape(X, y)
	if err != nil {
		return nil, err
	}

	cfg, resolved, err := parseForestParams(params, cols)
	if err != nil {
		return nil, err
	}

	data := make([][]float64, rows)
	for i := range data {
		data[i] = mat.Row(nil, i, X)
	}

	seeds := make([]int64, cfg.nEstimators)
	rng := rand.New(rand.NewSource(t.seed))
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	trees := make([]*tree, cfg.nEstimators)
	jobs := make(chan int)
	workers := runtime.GOMAXPROCS(0)
	if workers > cfg.nEstimators {
		workers = cfg.nEstimators
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				trees[i] = growTree(data, y, cfg, rand.New(rand.NewSource(seeds[i])))
			}
		}()
	}
	for i := range trees {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return &forestModel{params: resolved, features: cols, trees: trees}, nil
}

// Restore rebuilds a fitted forest from its snapshot
func (t *ForestTrainer) Restore(s *Snapshot) (Predictor, error) {
	if s.Forest == nil || len(s.Forest.Trees) == 0 {
		return nil, fmt.Errorf("forest snapshot has no trees")
	}

	trees := make([]*tree, len(s.Forest.Trees))
	for i, ts := range s.Forest.Trees {
		tr, err := ts.restore(s.Features)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees[i] = tr
	}

	p := make(Params, len(s.Params))
	for k, v := range s.Params {
		p[k] = v
	}
	return &forestModel{params: p, features: s.Features, trees: trees}, nil
}

// ForestSnapshot holds the fitted trees of a forest
type ForestSnapshot struct {
	Trees []TreeSnapshot `json:"trees"`
}

// TreeSnapshot stores one tree as parallel arrays in pre-order. A node's left
// child is the next node; Right indexes its right child. Leaves have
// Feature -1 and predict Value.
type TreeSnapshot struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Right     []int     `json:"right"`
	Value     []float64 `json:"value"`
}

func (ts TreeSnapshot) restore(features int) (*tree, error) {
	n := len(ts.Feature)
	if n == 0 {
		return nil, fmt.Errorf("empty tree")
	}
	if len(ts.Threshold) != n || len(ts.Right) != n || len(ts.Value) != n {
		return nil, fmt.Errorf("%w: tree arrays have different lengths", ErrDimensionMismatch)
	}

	tr := &tree{nodes: make([]treeNode, n)}
	for i := 0; i < n; i++ {
		f := ts.Feature[i]
		if f >= features {
			return nil, fmt.Errorf("%w: node %d splits on feature %d of %d", ErrDimensionMismatch, i, f, features)
		}
		if f >= 0 && (i+1 >= n || ts.Right[i] <= i+1 || ts.Right[i] >= n) {
			return nil, fmt.Errorf("node %d has invalid children", i)
		}
		tr.nodes[i] = treeNode{feature: f, threshold: ts.Threshold[i], right: ts.Right[i], value: ts.Value[i]}
	}
	return tr, nil
}

type treeNode struct {
	feature   int // -1 for a leaf
	threshold float64
	right     int
	value     float64
}

type tree struct {
	nodes []treeNode
}

func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.feature < 0 {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i++
		} else {
			i = n.right
		}
	}
}

func (t *tree) snapshot() TreeSnapshot {
	ts := TreeSnapshot{
		Feature:   make([]int, len(t.nodes)),
		Threshold: make([]float64, len(t.nodes)),
		Right:     make([]int, len(t.nodes)),
		Value:     make([]float64, len(t.nodes)),
	}
	for i, n := range t.nodes {
		ts.Feature[i] = n.feature
		ts.Threshold[i] = n.threshold
		ts.Right[i] = n.right
		ts.Value[i] = n.value
	}
	return ts
}

// treeBuilder grows one regression tree over shared training rows
type treeBuilder struct {
	x   [][]float64
	y   []float64
	cfg forestConfig
	rng *rand.Rand

	nodes  []treeNode
	sorted []int
}

func growTree(x [][]float64, y []float64, cfg forestConfig, rng *rand.Rand) *tree {
	n := len(y)
	idx := make([]int, n)
	if cfg.bootstrap {
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
	} else {
		for i := range idx {
			idx[i] = i
		}
	}

	b := &treeBuilder{x: x, y: y, cfg: cfg, rng: rng, sorted: make([]int, n)}
	b.build(idx, 0)
	return &tree{nodes: b.nodes}
}

// build appends the subtree over idx in pre-order and returns its root index.
// idx is reordered in place.
func (b *treeBuilder) build(idx []int, depth int) int {
	var sum, sumSq float64
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	n := float64(len(idx))
	mean := sum / n

	self := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{feature: -1, value: mean})

	if len(idx) < b.cfg.minSplit || len(idx) < 2*b.cfg.minLeaf ||
		(b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth) ||
		sumSq-sum*sum/n <= 1e-12*math.Max(1, sumSq) {
		return self
	}

	feature, threshold, ok := b.bestSplit(idx, sum)
	if !ok {
		return self
	}

	// partition: rows with x <= threshold first
	k := 0
	for j, i := range idx {
		if b.x[i][feature] <= threshold {
			idx[j], idx[k] = idx[k], idx[j]
			k++
		}
	}

	b.nodes[self].feature = feature
	b.nodes[self].threshold = threshold
	b.build(idx[:k], depth+1)
	b.nodes[self].right = b.build(idx[k:], depth+1)
	return self
}

// bestSplit searches max_features random columns for the threshold with the
// lowest children squared error, which is the one maximizing
// sumL²/nL + sumR²/nR.
func (b *treeBuilder) bestSplit(idx []int, total float64) (int, float64, bool) {
	n := len(idx)
	minLeaf := b.cfg.minLeaf
	cols := len(b.x[0])

	bestFeature := -1
	bestThreshold := 0.0
	bestScore := total * total / float64(n)

	sorted := b.sorted[:n]
	for _, f := range b.rng.Perm(cols)[:b.cfg.maxFeatures] {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool {
			return b.x[sorted[a]][f] < b.x[sorted[c]][f]
		})

		var left float64
		for k := 1; k < n; k++ {
			left += b.y[sorted[k-1]]
			if k < minLeaf || n-k < minLeaf {
				continue
			}
			lo, hi := b.x[sorted[k-1]][f], b.x[sorted[k]][f]
			if lo == hi {
				continue
			}
			right := total - left
			score := left*left/float64(k) + right*right/float64(n-k)
			if score > bestScore+1e-9*math.Abs(bestScore) {
				bestScore = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// forestModel averages its trees
type forestModel struct {
	params   Params
	features int
	trees    []*tree
}

func (m *forestModel) Name() string {
	return "forest"
}

func (m *forestModel) Predict(X mat.Matrix) ([]float64, error) {
	rows, cols := X.Dims()
	if cols != m.features {
		return nil, fmt.Errorf("%w: model expects %d features, got %d", ErrDimensionMismatch, m.features, cols)
	}

	preds := make([]float64, rows)
	row := make([]float64, cols)
	for i := range preds {
		mat.Row(row, i, X)
		var sum float64
		for _, t := range m.trees {
			sum += t.predict(row)
		}
		preds[i] = sum / float64(len(m.trees))
	}
	return preds, nil
}

func (m *forestModel) Snapshot() *Snapshot {
	s := &Snapshot{
		Algorithm: m.Name(),
		Params:    make(Params, len(m.params)),
		Features:  m.features,
		Forest:    &ForestSnapshot{Trees: make([]TreeSnapshot, len(m.trees))},
	}
	for k, v := range m.params {
		s.Params[k] = v
	}
	for i, t := range m.trees {
		s.Forest.Trees[i] = t.snapshot()
	}
	return s
}
