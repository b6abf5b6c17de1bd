package cpu

import (
	"fmt"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// MatMul performs 2D matrix multiplication: [M,K] @ [K,N] -> [M,N].
//
// The inner loop runs over contiguous rows of b (ikj order), which keeps
// memory access sequential for both operands.
func (c *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	as, bs := a.Shape(), b.Shape()
	if len(as) != 2 || len(bs) != 2 {
		panic(fmt.Sprintf("matmul: need 2D operands, got %v @ %v", as, bs))
	}
	if as[1] != bs[0] {
		panic(fmt.Sprintf("matmul: inner dimensions differ: %v @ %v", as, bs))
	}

	m, k, n := as[0], as[1], bs[1]
	out := tensor.MustRaw(tensor.Shape{m, n}, a.DType(), c.device)

	ad := a.AsFloat32()
	bd := b.AsFloat32()
	od := out.AsFloat32()

	for i := 0; i < m; i++ {
		aRow := ad[i*k : (i+1)*k]
		oRow := od[i*n : (i+1)*n]
		for kk := 0; kk < k; kk++ {
			av := aRow[kk]
			if av == 0 {
				continue
			}
			bRow := bd[kk*n : (kk+1)*n]
			for j := 0; j < n; j++ {
				oRow[j] += av * bRow[j]
			}
		}
	}
	return out
}
