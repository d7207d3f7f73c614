// Package layered holds a single-hidden-layer sigmoid network as
// weight matrices and bias vectors addressed by index.  The backward
// pass is computed directly from the output deltas and the transposed
// output weights, so no per-unit backward buffers exist.
package layered

import (
	"fmt"
	"math/rand"

	"github.com/stevegt/ffnn"
	. "github.com/stevegt/goadapt"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Network is a layered single-hidden-layer network.
type Network struct {
	W1   *mat.Dense    // hidden × input
	B1   *mat.VecDense // hidden
	W2   *mat.Dense    // output × hidden
	B2   *mat.VecDense // output
	Rate float64
}

// New returns a network with zero weights and biases.
func New(inputs, hidden, outputs int, rate float64) (n *Network, err error) {
	if inputs < 1 || hidden < 1 || outputs < 1 {
		err = fmt.Errorf("%w: need at least one unit per layer, got %d-%d-%d", ffnn.ErrDimension, inputs, hidden, outputs)
		return
	}
	n = &Network{
		W1:   mat.NewDense(hidden, inputs, nil),
		B1:   mat.NewVecDense(hidden, nil),
		W2:   mat.NewDense(outputs, hidden, nil),
		B2:   mat.NewVecDense(outputs, nil),
		Rate: rate,
	}
	return
}

// FromNetwork copies the weights, biases and learning rate of a unit
// network.
func FromNetwork(src *ffnn.Network) (n *Network, err error) {
	defer Return(&err)
	n, err = New(len(src.Inputs), len(src.Hidden), len(src.Outputs), src.Hidden[0].LearningRate())
	Ck(err)
	for j, h := range src.Hidden {
		for i := 0; i < h.NumUpstream(); i++ {
			w, err := h.Weight(i)
			Ck(err)
			n.W1.Set(j, i, w)
		}
		n.B1.SetVec(j, h.Bias())
	}
	for k, o := range src.Outputs {
		for j := 0; j < o.NumHidden(); j++ {
			w, err := o.Weight(j)
			Ck(err)
			n.W2.Set(k, j, w)
		}
		n.B2.SetVec(k, o.Bias())
	}
	return
}

// Dims returns the input, hidden and output counts.
func (n *Network) Dims() (inputs, hidden, outputs int) {
	hidden, inputs = n.W1.Dims()
	outputs, _ = n.W2.Dims()
	return
}

// Randomize draws every weight and bias uniformly from [-0.5, 0.5).
// Each hidden row draws its weights then its bias, then each output
// row does the same, which is the order ffnn.NewNetwork uses.
func (n *Network) Randomize(rng *rand.Rand) {
	randomizeRows(n.W1, n.B1, rng)
	randomizeRows(n.W2, n.B2, rng)
}

func randomizeRows(w *mat.Dense, b *mat.VecDense, rng *rand.Rand) {
	rows, cols := w.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			w.Set(r, c, rng.Float64()-0.5)
		}
		b.SetVec(r, rng.Float64()-0.5)
	}
}

// layer computes sigmoid(w·x + b).
func layer(w *mat.Dense, b *mat.VecDense, x mat.Vector) (a *mat.VecDense) {
	rows, _ := w.Dims()
	a = mat.NewVecDense(rows, nil)
	a.MulVec(w, x)
	a.AddVec(a, b)
	for i := 0; i < rows; i++ {
		a.SetVec(i, ffnn.Sigmoid(a.AtVec(i)))
	}
	return
}

// slope returns a ⊙ (1 − a), the sigmoid derivative at activation a.
func slope(a *mat.VecDense) (s *mat.VecDense) {
	s = mat.NewVecDense(a.Len(), nil)
	for i := 0; i < a.Len(); i++ {
		s.SetVec(i, ffnn.SigmoidD1(a.AtVec(i)))
	}
	return
}

// Forward returns the hidden activations and the outputs for x.
func (n *Network) Forward(x []float64) (hidden, output *mat.VecDense, err error) {
	inputs, _, _ := n.Dims()
	if len(x) != inputs {
		err = fmt.Errorf("%w: got %d inputs, want %d", ffnn.ErrDimension, len(x), inputs)
		return
	}
	hidden = layer(n.W1, n.B1, mat.NewVecDense(len(x), append([]float64{}, x...)))
	output = layer(n.W2, n.B2, hidden)
	return
}

// Predict returns the outputs for x.
func (n *Network) Predict(x []float64) (outputs []float64, err error) {
	_, output, err := n.Forward(x)
	if err != nil {
		return
	}
	outputs = append(outputs, output.RawVector().Data...)
	return
}

// Learn trains on one sample and returns its mean absolute output
// error, measured before the update.
func (n *Network) Learn(x, target []float64) (cost float64, err error) {
	_, _, outputs := n.Dims()
	if len(target) != outputs {
		err = fmt.Errorf("%w: got %d targets, want %d", ffnn.ErrDimension, len(target), outputs)
		return
	}
	hidden, output, err := n.Forward(x)
	if err != nil {
		return
	}
	in := mat.NewVecDense(len(x), append([]float64{}, x...))
	t := mat.NewVecDense(len(target), append([]float64{}, target...))

	// dO = o ⊙ (1 − o) ⊙ (t − o)
	errs := mat.NewVecDense(outputs, nil)
	errs.SubVec(t, output)
	dO := mat.NewVecDense(outputs, nil)
	dO.MulElemVec(slope(output), errs)

	// dH = h ⊙ (1 − h) ⊙ (W2ᵀ · dO), using the pre-update W2
	back := mat.NewVecDense(hidden.Len(), nil)
	back.MulVec(n.W2.T(), dO)
	dH := mat.NewVecDense(hidden.Len(), nil)
	dH.MulElemVec(slope(hidden), back)

	n.W2.RankOne(n.W2, n.Rate, dO, hidden)
	n.B2.AddScaledVec(n.B2, n.Rate, dO)
	n.W1.RankOne(n.W1, n.Rate, dH, in)
	n.B1.AddScaledVec(n.B1, n.Rate, dH)

	cost = floats.Norm(errs.RawVector().Data, 1) / float64(outputs)
	return
}

// Train runs epochs over the rule set until the mean error of an
// epoch drops below maxError, or returns ffnn.ErrMaxEpochs.
func (n *Network) Train(rules *ffnn.TrainingRuleSet, epochs int, maxError float64) (meanError float64, err error) {
	defer Return(&err)
	inputs, _, outputs := n.Dims()
	err = rules.Check(inputs, outputs)
	if err != nil {
		return
	}
	if rules.Count() == 0 {
		err = fmt.Errorf("%w: no training rules", ffnn.ErrDimension)
		return
	}
	for epoch := 0; epoch < epochs; epoch++ {
		meanError = 0.0
		for i := 0; i < rules.Count(); i++ {
			rule, err := rules.Rule(i)
			Ck(err)
			cost, err := n.Learn(rule.Input, rule.Expected)
			Ck(err)
			meanError += cost
		}
		meanError /= float64(rules.Count())
		if meanError < maxError {
			return
		}
	}
	err = fmt.Errorf("%w: %d epochs, mean error %f", ffnn.ErrMaxEpochs, epochs, meanError)
	return
}
