package regression

import "sort"

// treeNode is a leaf when left is negative.
type treeNode struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

// cart is a least-squares regression tree over a row subset (duplicates allowed).
type cart struct {
	maxDepth int // 0 means unlimited
	minSplit int
	nodes    []treeNode
}

func newCart(maxDepth int) *cart {
	return &cart{maxDepth: maxDepth, minSplit: 2}
}

func (t *cart) fit(X [][]float64, y []float64, idx []int) {
	t.nodes = t.nodes[:0]
	t.build(X, y, idx, 0)
}

func (t *cart) build(X [][]float64, y []float64, idx []int, depth int) int {
	id := len(t.nodes)
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	mean := sum / float64(len(idx))
	t.nodes = append(t.nodes, treeNode{left: -1, right: -1, value: mean})

	if len(idx) < t.minSplit || (t.maxDepth > 0 && depth >= t.maxDepth) || pure(y, idx) {
		return id
	}
	feature, threshold, ok := bestSplit(X, y, idx, sum)
	if !ok {
		return id
	}
	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := t.build(X, y, left, depth+1)
	r := t.build(X, y, right, depth+1)
	t.nodes[id].feature = feature
	t.nodes[id].threshold = threshold
	t.nodes[id].left = l
	t.nodes[id].right = r
	return id
}

func pure(y []float64, idx []int) bool {
	first := y[idx[0]]
	for _, i := range idx[1:] {
		if y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit maximizes the between-children sum of squares, which minimizes child SSE.
func bestSplit(X [][]float64, y []float64, idx []int, total float64) (int, float64, bool) {
	n := len(idx)
	width := len(X[idx[0]])
	order := make([]int, n)
	base := total * total / float64(n)

	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0
	for f := 0; f < width; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		var leftSum float64
		for k := 0; k < n-1; k++ {
			leftSum += y[order[k]]
			lo, hi := X[order[k]][f], X[order[k+1]][f]
			if lo == hi {
				continue
			}
			nl := float64(k + 1)
			nr := float64(n - k - 1)
			rightSum := total - leftSum
			gain := leftSum*leftSum/nl + rightSum*rightSum/nr - base
			if gain > bestGain {
				thr := lo + (hi-lo)/2
				if thr >= hi {
					thr = lo
				}
				bestGain, bestFeature, bestThreshold = gain, f, thr
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func (t *cart) predictRow(row []float64) float64 {
	n := 0
	for {
		node := t.nodes[n]
		if node.left < 0 {
			return node.value
		}
		if row[node.feature] <= node.threshold {
			n = node.left
		} else {
			n = node.right
		}
	}
}
