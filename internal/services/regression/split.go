package regression

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// Split shuffles row indexes with rnd and holds out ceil(testFraction*n) of them.
// Both partitions come back sorted.
func Split(n int, testFraction float64, rnd *rand.Rand) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: need at least 2 rows to split, have %d", ErrShape, n)
	}
	k := int(math.Ceil(testFraction*float64(n) - 1e-9))
	if k < 1 {
		k = 1
	}
	if k >= n {
		k = n - 1
	}
	perm := rnd.Perm(n)
	test = append([]int(nil), perm[:k]...)
	train = append([]int(nil), perm[k:]...)
	sort.Ints(test)
	sort.Ints(train)
	return train, test, nil
}
