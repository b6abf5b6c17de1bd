package optim

import (
	"github.com/tessera-ml/tessera/internal/nn"
	"github.com/tessera-ml/tessera/internal/tensor"
)

// SGD is stochastic gradient descent with optional momentum:
//
//	v = momentum*v + g
//	w = w - lr*v
type SGD[B tensor.Backend] struct {
	params   []*nn.Parameter[B]
	lr       float32
	momentum float32

	velocity map[*tensor.RawTensor][]float32
}

// NewSGD creates an SGD optimizer. A momentum of zero disables the
// velocity buffer.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], lr, momentum float32) *SGD[B] {
	return &SGD[B]{
		params:   params,
		lr:       lr,
		momentum: momentum,
		velocity: make(map[*tensor.RawTensor][]float32),
	}
}

// Step applies one update to every parameter with a gradient.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, p := range s.params {
		g := gradFor(p, grads)
		if g == nil {
			continue
		}
		data := p.Value.Data()

		if s.momentum == 0 {
			for i := range data {
				data[i] -= s.lr * g[i]
			}
			continue
		}

		key := p.Value.Raw()
		v, ok := s.velocity[key]
		if !ok {
			v = make([]float32, len(data))
			s.velocity[key] = v
		}
		for i := range data {
			v[i] = s.momentum*v[i] + g[i]
			data[i] -= s.lr * v[i]
		}
	}
}
