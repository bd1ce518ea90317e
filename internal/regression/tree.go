package regression

import "sort"

// treeNode is one node of a fitted regression tree. Leaf nodes have
// Feature == -1 and carry the prediction in Value.
type treeNode struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Value     float64   `json:"v"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
}

const leafFeature = -1

// minSamplesLeaf is the smallest number of rows a split may leave on a side.
const minSamplesLeaf = 1

// treeBuilder fits one regression tree to residuals by greedy squared-error
// splitting. Gains per feature are accumulated into gain for importance.
type treeBuilder struct {
	x        [][]float64
	y        []float64
	maxDepth int
	gain     []float64
}

func newTreeBuilder(x [][]float64, y []float64, maxDepth, featureCount int) *treeBuilder {
	return &treeBuilder{
		x:        x,
		y:        y,
		maxDepth: maxDepth,
		gain:     make([]float64, featureCount),
	}
}

// fit builds the tree over all rows.
func (b *treeBuilder) fit() *treeNode {
	indices := make([]int, len(b.y))
	for i := range indices {
		indices[i] = i
	}
	return b.build(indices, 0)
}

func (b *treeBuilder) build(indices []int, depth int) *treeNode {
	node := &treeNode{Feature: leafFeature, Value: meanAt(b.y, indices)}
	if depth >= b.maxDepth || len(indices) < 2*minSamplesLeaf {
		return node
	}

	feature, threshold, gain := b.bestSplit(indices)
	if feature == leafFeature || gain <= 0 {
		return node
	}

	var left, right []int
	for _, i := range indices {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < minSamplesLeaf || len(right) < minSamplesLeaf {
		return node
	}

	b.gain[feature] += gain
	node.Feature = feature
	node.Threshold = threshold
	node.Left = b.build(left, depth+1)
	node.Right = b.build(right, depth+1)
	return node
}

// bestSplit scans every feature for the split with the largest reduction in
// summed squared error. Returns leafFeature when no split improves.
func (b *treeBuilder) bestSplit(indices []int) (int, float64, float64) {
	n := len(indices)

	var total, totalSq float64
	for _, i := range indices {
		total += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}
	parentSSE := totalSq - total*total/float64(n)

	bestFeature := leafFeature
	var bestThreshold, bestGain float64

	sorted := make([]int, n)
	for f := 0; f < len(b.gain); f++ {
		copy(sorted, indices)
		sort.Slice(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})

		var leftSum, leftSq float64
		for pos := 0; pos < n-1; pos++ {
			i := sorted[pos]
			leftSum += b.y[i]
			leftSq += b.y[i] * b.y[i]

			cur, next := b.x[i][f], b.x[sorted[pos+1]][f]
			if cur == next {
				continue
			}
			nL := pos + 1
			nR := n - nL
			if nL < minSamplesLeaf || nR < minSamplesLeaf {
				continue
			}

			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nL)) +
				(rightSq - rightSum*rightSum/float64(nR))
			gain := parentSSE - sse
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

// predict walks the tree for one feature vector.
func (t *treeNode) predict(x []float64) float64 {
	node := t
	for node.Feature != leafFeature {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func meanAt(y []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	var sum float64
	for _, i := range indices {
		sum += y[i]
	}
	return sum / float64(len(indices))
}
