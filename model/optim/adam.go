// Package optim implements Adam with the AMSGrad variant and a step
// learning-rate schedule.
package optim

import (
	"math"

	"github.com/neurlang/denoise/model"
)

// Adam is the Adam optimizer. With AMSGrad the running maximum of the second
// moment is used in the denominator.
type Adam struct {
	LR      float64
	Beta1   float64
	Beta2   float64
	Eps     float64
	AMSGrad bool

	params []*model.Parameter
	step   int
	m      map[string][]float64
	v      map[string][]float64
	vmax   map[string][]float64
}

// NewAdam creates an optimizer over params with the usual defaults.
func NewAdam(params []*model.Parameter, lr float64, amsgrad bool) *Adam {
	a := &Adam{
		LR:      lr,
		Beta1:   0.9,
		Beta2:   0.999,
		Eps:     1e-8,
		AMSGrad: amsgrad,
		params:  params,
		m:       make(map[string][]float64),
		v:       make(map[string][]float64),
		vmax:    make(map[string][]float64),
	}
	for _, p := range params {
		a.m[p.Name] = make([]float64, len(p.Value))
		a.v[p.Name] = make([]float64, len(p.Value))
		a.vmax[p.Name] = make([]float64, len(p.Value))
	}
	return a
}

func (a *Adam) ZeroGrad() {
	for _, p := range a.params {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}

func (a *Adam) Step() error {
	a.step++
	bc1 := 1 - math.Pow(a.Beta1, float64(a.step))
	bc2 := 1 - math.Pow(a.Beta2, float64(a.step))
	for _, p := range a.params {
		m, v, vmax := a.m[p.Name], a.v[p.Name], a.vmax[p.Name]
		for i, g := range p.Grad {
			m[i] = a.Beta1*m[i] + (1-a.Beta1)*g
			v[i] = a.Beta2*v[i] + (1-a.Beta2)*g*g
			denom := v[i]
			if a.AMSGrad {
				vmax[i] = math.Max(vmax[i], v[i])
				denom = vmax[i]
			}
			p.Value[i] -= a.LR * (m[i] / bc1) / (math.Sqrt(denom/bc2) + a.Eps)
		}
	}
	return nil
}

func (a *Adam) LearningRate() float64 {
	return a.LR
}

func (a *Adam) SetLearningRate(lr float64) {
	a.LR = lr
}

// StateDict stores the step count, the learning rate and the moment
// estimates as <param>:m, <param>:v and <param>:vmax.
func (a *Adam) StateDict() map[string][]float64 {
	out := map[string][]float64{
		"step": {float64(a.step)},
		"lr":   {a.LR},
	}
	for _, p := range a.params {
		out[p.Name+":m"] = append([]float64(nil), a.m[p.Name]...)
		out[p.Name+":v"] = append([]float64(nil), a.v[p.Name]...)
		out[p.Name+":vmax"] = append([]float64(nil), a.vmax[p.Name]...)
	}
	return out
}

// LoadStateDict restores a StateDict. Missing entries or length mismatches
// leave the optimizer untouched and return model.ErrShapeMismatch.
func (a *Adam) LoadStateDict(state map[string][]float64) error {
	if len(state["step"]) != 1 || len(state["lr"]) != 1 {
		return model.ErrShapeMismatch
	}
	for _, p := range a.params {
		for _, suffix := range []string{":m", ":v", ":vmax"} {
			if len(state[p.Name+suffix]) != len(p.Value) {
				return model.ErrShapeMismatch
			}
		}
	}
	a.step = int(state["step"][0])
	a.LR = state["lr"][0]
	for _, p := range a.params {
		copy(a.m[p.Name], state[p.Name+":m"])
		copy(a.v[p.Name], state[p.Name+":v"])
		copy(a.vmax[p.Name], state[p.Name+":vmax"])
	}
	return nil
}
