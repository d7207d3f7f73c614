package ffnn

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	. "github.com/stevegt/goadapt"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestSigmoid(t *testing.T) {
	if y := Sigmoid(0); y != 0.5 {
		t.Error(y)
	}
	if y := Sigmoid(2); math.Abs(y-0.88079708) > 0.0001 {
		t.Error(y)
	}
	prev := Sigmoid(-30)
	Tassert(t, prev > 0 && prev < 1, prev)
	for x := -29.5; x <= 30; x += 0.5 {
		y := Sigmoid(x)
		Tassert(t, y > prev, "not increasing at %v: %v <= %v", x, y, prev)
		Tassert(t, y > 0 && y < 1, "out of range at %v: %v", x, y)
		prev = y
	}
}

// hiddenWith returns a randomized hidden unit fed by inputs with the
// given values, then overrides its weights and bias.
func hiddenWith(t *testing.T, rate float64, values, weights []float64, bias float64) (h *HiddenUnit, inputs []*InputUnit) {
	h = NewHiddenUnit(rate)
	for _, v := range values {
		in := NewInputUnit()
		in.SetActivation(v)
		h.Connect(in)
		inputs = append(inputs, in)
	}
	Tassert(t, h.Randomize(newRand()) == nil)
	for i, w := range weights {
		Tassert(t, h.SetWeight(i, w) == nil)
	}
	h.SetBias(bias)
	return
}

func TestRandomizeRange(t *testing.T) {
	rng := newRand()
	for n := 0; n < 100; n++ {
		h := NewHiddenUnit(1)
		for i := 0; i < 5; i++ {
			h.Connect(NewInputUnit())
		}
		Tassert(t, h.Randomize(rng) == nil)
		for i := 0; i < 5; i++ {
			w, err := h.Weight(i)
			Tassert(t, err == nil, err)
			Tassert(t, w >= -0.5 && w < 0.5, w)
		}
		Tassert(t, h.Bias() >= -0.5 && h.Bias() < 0.5, h.Bias())
	}
}

func TestRandomizeErrors(t *testing.T) {
	h := NewHiddenUnit(1)
	err := h.Randomize(newRand())
	Tassert(t, errors.Is(err, ErrUninitialized), err)
	h.Connect(NewInputUnit())
	err = h.Forward()
	Tassert(t, errors.Is(err, ErrUninitialized), err)
	err = h.ComputeDelta()
	Tassert(t, errors.Is(err, ErrUninitialized), err)
	Tassert(t, h.Randomize(newRand()) == nil)
	err = h.Randomize(newRand())
	Tassert(t, errors.Is(err, ErrRandomized), err)

	o := NewOutputUnit(1)
	err = o.Randomize(newRand())
	Tassert(t, errors.Is(err, ErrUninitialized), err)
	o.Connect(h)
	err = o.Forward()
	Tassert(t, errors.Is(err, ErrUninitialized), err)
	err = o.ComputeDelta()
	Tassert(t, errors.Is(err, ErrUninitialized), err)
	err = o.Update()
	Tassert(t, errors.Is(err, ErrUninitialized), err)
}

func TestIndexErrors(t *testing.T) {
	h, _ := hiddenWith(t, 1, []float64{1, 2}, nil, 0)
	_, err := h.Weight(2)
	Tassert(t, errors.Is(err, ErrIndexRange), err)
	_, err = h.Weight(-1)
	Tassert(t, errors.Is(err, ErrIndexRange), err)
	err = h.SetWeight(5, 1)
	Tassert(t, errors.Is(err, ErrIndexRange), err)
	Tassert(t, h.Upstream(1) != nil)
	Tassert(t, h.Upstream(2) == nil)
	_, err = h.DownstreamWeight(0)
	Tassert(t, errors.Is(err, ErrIndexRange), err)

	o := NewOutputUnit(1)
	o.Connect(h)
	Tassert(t, o.Randomize(newRand()) == nil)
	_, err = o.Weight(1)
	Tassert(t, errors.Is(err, ErrIndexRange), err)
	err = o.SetWeight(1, 0)
	Tassert(t, errors.Is(err, ErrIndexRange), err)
	Tassert(t, o.Hidden(0) == h)
	Tassert(t, o.Hidden(1) == nil)
}

func TestHiddenForward(t *testing.T) {
	x := []float64{1.62434536, -0.52817175, 0.86540763}
	w := []float64{1.74481176, -0.7612069, 0.3190391}
	b := -0.24937038
	h, _ := hiddenWith(t, 1, x, w, b)
	Tassert(t, h.Forward() == nil)
	want := Sigmoid(w[0]*x[0] + w[1]*x[1] + w[2]*x[2] + b)
	Tassert(t, math.Abs(h.Activation()-want) < 1e-12, h.Activation(), want)
	Tassert(t, math.Abs(h.Activation()-0.96313579) < 0.001, h.Activation())
}

func TestOutputErrorAndUpdate(t *testing.T) {
	rate := 0.3
	h1, _ := hiddenWith(t, rate, []float64{0.5}, []float64{0.2}, 0.1)
	h2, _ := hiddenWith(t, rate, []float64{0.5}, []float64{-0.4}, 0.3)
	o := NewOutputUnit(rate)
	o.Connect(h1)
	o.Connect(h2)
	Tassert(t, o.Randomize(newRand()) == nil)
	Tassert(t, o.SetWeight(0, 0.7) == nil)
	Tassert(t, o.SetWeight(1, -0.2) == nil)
	o.SetBias(0.05)

	Tassert(t, h1.Forward() == nil)
	Tassert(t, h2.Forward() == nil)
	Tassert(t, o.Forward() == nil)
	want := Sigmoid(0.7*h1.Activation() - 0.2*h2.Activation() + 0.05)
	Tassert(t, math.Abs(o.Output()-want) < 1e-12, o.Output(), want)

	o.SetDesired(1)
	Tassert(t, o.ComputeError() == 1-o.Output())
	o.SetDesired(0)
	Tassert(t, o.ComputeError() == -o.Output())

	Tassert(t, o.ComputeDelta() == nil)
	delta := o.Output() * (1 - o.Output()) * (0 - o.Output())
	Tassert(t, math.Abs(o.Delta()-delta) < 1e-15, o.Delta(), delta)

	Tassert(t, o.Update() == nil)
	w0, _ := o.Weight(0)
	w1, _ := o.Weight(1)
	Tassert(t, math.Abs(w0-(0.7+rate*delta*h1.Activation())) < 1e-15, w0)
	Tassert(t, math.Abs(w1-(-0.2+rate*delta*h2.Activation())) < 1e-15, w1)
	Tassert(t, math.Abs(o.Bias()-(0.05+rate*delta)) < 1e-15, o.Bias())

	// hidden units see the updated weights in their bookkeeping
	dw0, err := h1.DownstreamWeight(0)
	Tassert(t, err == nil, err)
	Tassert(t, dw0 == w0, dw0, w0)
	dw1, err := h2.DownstreamWeight(0)
	Tassert(t, err == nil, err)
	Tassert(t, dw1 == w1, dw1, w1)
}

func TestHiddenDeltaAndUpdate(t *testing.T) {
	rate := 0.5
	h, inputs := hiddenWith(t, rate, []float64{0.05, 0.1}, []float64{0.15, 0.2}, 0.35)
	o1 := NewOutputUnit(rate)
	o2 := NewOutputUnit(rate)
	o1.Connect(h)
	o2.Connect(h)
	Tassert(t, h.NumDownstream() == 2, h.NumDownstream())
	Tassert(t, h.Forward() == nil)

	// missing one output's contribution
	h.ReceiveBackward(0.1, 0.4)
	err := h.ComputeDelta()
	Tassert(t, errors.Is(err, ErrBackward), err)

	h.ReceiveBackward(-0.2, 0.5)
	Tassert(t, h.ComputeDelta() == nil)
	a := h.Activation()
	delta := a * (1 - a) * (0.1*0.4 + -0.2*0.5)
	Tassert(t, math.Abs(h.Delta()-delta) < 1e-15, h.Delta(), delta)

	Tassert(t, h.Update() == nil)
	for i, w0 := range []float64{0.15, 0.2} {
		w, _ := h.Weight(i)
		want := w0 + rate*delta*inputs[i].Activation()
		Tassert(t, math.Abs(w-want) < 1e-15, i, w, want)
	}
	Tassert(t, math.Abs(h.Bias()-(0.35+rate*delta)) < 1e-15, h.Bias())

	h.ResetBackward()
	deltas, weights := h.Backward()
	Tassert(t, len(deltas) == 0 && len(weights) == 0, deltas, weights)
}

func TestConnectAfterRandomize(t *testing.T) {
	h := NewHiddenUnit(1)
	h.Connect(NewInputUnit())
	Tassert(t, h.Randomize(newRand()) == nil)
	defer func() {
		Tassert(t, recover() != nil, "expected panic")
	}()
	h.Connect(NewInputUnit())
}
