package forest

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// leaf marks a Node without children.
const leaf = -1

// Node is one entry of a flattened tree. Internal nodes send rows with
// x[Feature] <= Threshold to Left; leaves carry the normalized class
// distribution in Value.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Value     []float64 `json:"v,omitempty"`
}

// Tree is a fitted decision tree; Nodes[0] is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// leafValue walks the tree for row and returns the leaf distribution.
func (t *Tree) leafValue(row []float64) []float64 {
	i := 0
	for {
		node := &t.Nodes[i]
		if node.Feature == leaf {
			return node.Value
		}
		if row[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(int) int
	walk = func(i int) int {
		node := t.Nodes[i]
		if node.Feature == leaf {
			return 0
		}
		return 1 + max(walk(node.Left), walk(node.Right))
	}
	return walk(0)
}

// grower holds the state for fitting a single tree.
type grower struct {
	cols        [][]float64
	y           []int
	weight      []float64
	numClasses  int
	params      Params
	mtry        int
	rng         *rand.Rand
	nodes       []Node
	importances []float64
}

type split struct {
	feature   int
	threshold float64
	pos       int // rows [0,pos) of the sorted slice go left
	impurity  float64
	leftGini  float64
	rightGini float64
	leftW     float64
	rightW    float64
	sorted    []int
}

// growTree fits one tree on a bootstrap sample of the rows in cols.
func growTree(cols [][]float64, y []int, classWeight []float64, numClasses int, params Params, rng *rand.Rand) (Tree, []float64) {
	n := len(y)
	counts := make([]float64, n)
	for range n {
		counts[rng.IntN(n)]++
	}
	weight := make([]float64, n)
	sample := make([]int, 0, n)
	for i, c := range counts {
		if c == 0 {
			continue
		}
		weight[i] = c * classWeight[y[i]]
		if weight[i] > 0 {
			sample = append(sample, i)
		}
	}

	g := &grower{
		cols:        cols,
		y:           y,
		weight:      weight,
		numClasses:  numClasses,
		params:      params,
		mtry:        params.featuresPerSplit(len(cols)),
		rng:         rng,
		importances: make([]float64, len(cols)),
	}
	if len(sample) > 0 {
		g.grow(sample, 0)
	} else {
		g.nodes = append(g.nodes, Node{Feature: leaf, Value: make([]float64, numClasses)})
	}
	return Tree{Nodes: g.nodes}, g.importances
}

func (g *grower) distribution(rows []int) ([]float64, float64) {
	dist := make([]float64, g.numClasses)
	total := 0.0
	for _, r := range rows {
		dist[g.y[r]] += g.weight[r]
		total += g.weight[r]
	}
	return dist, total
}

func gini(dist []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	sum := 0.0
	for _, w := range dist {
		p := w / total
		sum += p * p
	}
	return 1 - sum
}

func (g *grower) grow(rows []int, depth int) int {
	dist, total := g.distribution(rows)
	parentGini := gini(dist, total)
	id := len(g.nodes)
	g.nodes = append(g.nodes, Node{Feature: leaf})

	atDepthLimit := g.params.MaxDepth > 0 && depth >= g.params.MaxDepth
	tooSmall := len(rows) < g.params.MinSamplesSplit || len(rows) < 2*g.params.MinSamplesLeaf
	if atDepthLimit || tooSmall || parentGini <= 0 {
		g.nodes[id].Value = normalize(dist, total)
		return id
	}

	best, ok := g.bestSplit(rows, total)
	if !ok {
		g.nodes[id].Value = normalize(dist, total)
		return id
	}

	g.importances[best.feature] += total*parentGini - best.leftW*best.leftGini - best.rightW*best.rightGini
	left := slices.Clone(best.sorted[:best.pos])
	right := slices.Clone(best.sorted[best.pos:])

	g.nodes[id].Feature = best.feature
	g.nodes[id].Threshold = best.threshold
	l := g.grow(left, depth+1)
	r := g.grow(right, depth+1)
	g.nodes[id].Left = l
	g.nodes[id].Right = r
	return id
}

// bestSplit examines features in random order until at least mtry
// non-constant features were scored and a valid split was found.
func (g *grower) bestSplit(rows []int, total float64) (split, bool) {
	var best split
	found := false
	visited := 0
	minLeaf := g.params.MinSamplesLeaf
	leftDist := make([]float64, g.numClasses)
	rightDist := make([]float64, g.numClasses)

	for _, f := range g.rng.Perm(len(g.cols)) {
		if visited >= g.mtry && found {
			break
		}
		col := g.cols[f]
		sorted := slices.Clone(rows)
		slices.SortFunc(sorted, func(a, b int) int { return cmp.Compare(col[a], col[b]) })
		if col[sorted[0]] == col[sorted[len(sorted)-1]] {
			continue
		}
		visited++

		clear(leftDist)
		clear(rightDist)
		for _, r := range sorted {
			rightDist[g.y[r]] += g.weight[r]
		}
		leftW, rightW := 0.0, total
		featureBest := split{impurity: -1}

		for i := 0; i < len(sorted)-1; i++ {
			r := sorted[i]
			w := g.weight[r]
			leftDist[g.y[r]] += w
			rightDist[g.y[r]] -= w
			leftW += w
			rightW -= w

			lo, hi := col[r], col[sorted[i+1]]
			if lo == hi {
				continue
			}
			nLeft := i + 1
			if nLeft < minLeaf || len(sorted)-nLeft < minLeaf {
				continue
			}
			if leftW <= 0 || rightW <= 0 {
				continue
			}
			gl := gini(leftDist, leftW)
			gr := gini(rightDist, rightW)
			impurity := (leftW*gl + rightW*gr) / total
			if featureBest.impurity < 0 || impurity < featureBest.impurity {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				featureBest = split{
					feature:   f,
					threshold: threshold,
					pos:       nLeft,
					impurity:  impurity,
					leftGini:  gl,
					rightGini: gr,
					leftW:     leftW,
					rightW:    rightW,
				}
			}
		}
		if featureBest.impurity < 0 {
			continue
		}
		if !found || featureBest.impurity < best.impurity {
			featureBest.sorted = sorted
			best = featureBest
			found = true
		}
	}
	return best, found
}

func normalize(dist []float64, total float64) []float64 {
	out := make([]float64, len(dist))
	if total <= 0 {
		return out
	}
	for i, w := range dist {
		out[i] = w / total
	}
	return out
}
