package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// Split partitions the dataset into train and test subsets. Samples are
// permuted with a generator seeded by seed, then the first
// floor(ratio * n) go to train and the rest to test. The same seed always
// yields the same split.
func Split(d *Dataset, ratio float64, seed int64) (train, test *Dataset) {
	if ratio <= 0 || ratio >= 1 {
		panic(fmt.Sprintf("split: ratio must be in (0, 1), got %v", ratio))
	}
	n := d.Len()
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTrain := int(math.Floor(ratio * float64(n)))

	train = &Dataset{Classes: d.Classes, Samples: make([]Sample, 0, nTrain)}
	test = &Dataset{Classes: d.Classes, Samples: make([]Sample, 0, n-nTrain)}
	for i, p := range perm {
		if i < nTrain {
			train.Samples = append(train.Samples, d.Samples[p])
		} else {
			test.Samples = append(test.Samples, d.Samples[p])
		}
	}
	return train, test
}
