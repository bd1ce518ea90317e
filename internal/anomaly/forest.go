package anomaly

import (
	"math"
	"math/rand"
)

// eulerGamma is the Euler-Mascheroni constant used in the average unsuccessful
// BST search length.
const eulerGamma = 0.5772156649

// isoNode is one node of an isolation tree. Leaves have left == nil and
// record how many sample rows terminated there.
type isoNode struct {
	feature   int
	threshold float64
	left      *isoNode
	right     *isoNode
	size      int
}

// IsolationForest scores rows by how quickly random axis-aligned splits
// isolate them; rows isolated in few splits are anomalous.
type IsolationForest struct {
	trees      []*isoNode
	sampleSize int
}

// FitIsolationForest builds trees isolation trees over x, each on a random
// subsample of at most sampleSize rows. The same seed always produces the
// same forest.
func FitIsolationForest(x [][]float64, trees, sampleSize int, seed int64) *IsolationForest {
	rng := rand.New(rand.NewSource(seed))

	n := len(x)
	if sampleSize > n {
		sampleSize = n
	}
	heightLimit := int(math.Ceil(math.Log2(math.Max(float64(sampleSize), 2))))

	f := &IsolationForest{sampleSize: sampleSize}
	for t := 0; t < trees; t++ {
		sample := rng.Perm(n)[:sampleSize]
		f.trees = append(f.trees, buildIsoTree(x, sample, 0, heightLimit, rng))
	}
	return f
}

func buildIsoTree(x [][]float64, indices []int, depth, limit int, rng *rand.Rand) *isoNode {
	if depth >= limit || len(indices) <= 1 {
		return &isoNode{size: len(indices)}
	}

	// Features with any spread over this partition are split candidates.
	dims := len(x[indices[0]])
	candidates := make([]int, 0, dims)
	for f := 0; f < dims; f++ {
		lo, hi := x[indices[0]][f], x[indices[0]][f]
		for _, i := range indices[1:] {
			v := x[i][f]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi > lo {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return &isoNode{size: len(indices)}
	}

	feature := candidates[rng.Intn(len(candidates))]
	lo, hi := x[indices[0]][feature], x[indices[0]][feature]
	for _, i := range indices[1:] {
		v := x[i][feature]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	threshold := lo + rng.Float64()*(hi-lo)

	var left, right []int
	for _, i := range indices {
		if x[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &isoNode{size: len(indices)}
	}

	return &isoNode{
		feature:   feature,
		threshold: threshold,
		left:      buildIsoTree(x, left, depth+1, limit, rng),
		right:     buildIsoTree(x, right, depth+1, limit, rng),
	}
}

// pathLength walks one tree and returns the adjusted isolation depth.
func pathLength(node *isoNode, row []float64, depth float64) float64 {
	if node.left == nil {
		return depth + avgPathLength(node.size)
	}
	if row[node.feature] < node.threshold {
		return pathLength(node.left, row, depth+1)
	}
	return pathLength(node.right, row, depth+1)
}

// avgPathLength is the average unsuccessful-search length of a BST with n
// nodes, the standard isolation-forest depth correction.
func avgPathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		h := math.Log(float64(n-1)) + eulerGamma
		return 2*h - 2*float64(n-1)/float64(n)
	}
}

// Score returns the anomaly score of one row in (0, 1]; higher means more
// isolated.
func (f *IsolationForest) Score(row []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += pathLength(t, row, 0)
	}
	mean := sum / float64(len(f.trees))
	return math.Pow(2, -mean/avgPathLength(f.sampleSize))
}

// ScoreBatch returns anomaly scores for every row.
func (f *IsolationForest) ScoreBatch(x [][]float64) []float64 {
	scores := make([]float64, len(x))
	for i, row := range x {
		scores[i] = f.Score(row)
	}
	return scores
}
