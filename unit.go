package ffnn

import (
	"fmt"
	"math/rand"

	. "github.com/stevegt/goadapt"
)

// Unit is anything that exposes a scalar activation to downstream
// units.
type Unit interface {
	Activation() float64
}

// randWeight returns a value drawn uniformly from [-0.5, 0.5).
func randWeight(rng *rand.Rand) float64 {
	return rng.Float64() - 0.5
}

// InputUnit holds one value loaded from a sample's input vector.
type InputUnit struct {
	value float64
}

// NewInputUnit creates an input unit with a zero activation.
func NewInputUnit() *InputUnit {
	return &InputUnit{}
}

// Activation returns the unit's current value.
func (u *InputUnit) Activation() float64 {
	return u.value
}

// SetActivation sets the unit's current value.
func (u *InputUnit) SetActivation(x float64) {
	u.value = x
}

// HiddenUnit is a sigmoid unit fed by upstream units.  During a
// backward pass each connected OutputUnit pushes its delta and its
// weight for this unit into the backward buffers; ComputeDelta
// consumes them.
type HiddenUnit struct {
	upstream   []Unit
	weights    []float64 // one per upstream unit, same order
	bias       float64
	rate       float64
	activation float64
	delta      float64
	randomized bool

	// downWeights holds, per connected output unit, that unit's
	// current weight for this one.  Slots are assigned by
	// OutputUnit.Connect.
	downWeights []float64

	// backward buffers, reset before every sample's backward pass
	outDeltas  []float64
	outWeights []float64
}

// NewHiddenUnit creates an unconnected hidden unit with the given
// learning rate.
func NewHiddenUnit(rate float64) *HiddenUnit {
	return &HiddenUnit{rate: rate}
}

// Connect adds an upstream unit.  The matching weight slot is
// created by Randomize.
func (h *HiddenUnit) Connect(u Unit) {
	Assert(!h.randomized, "connect after randomize")
	h.upstream = append(h.upstream, u)
}

// addDownstream registers a connected output unit and returns its
// slot in the downstream bookkeeping.
func (h *HiddenUnit) addDownstream() (slot int) {
	slot = len(h.downWeights)
	h.downWeights = append(h.downWeights, 0)
	return
}

// Randomize creates one weight per upstream connection and a bias,
// all drawn from [-0.5, 0.5).  It must be called exactly once, after
// all connections are made.
func (h *HiddenUnit) Randomize(rng *rand.Rand) error {
	if h.randomized {
		return ErrRandomized
	}
	if len(h.upstream) == 0 {
		return fmt.Errorf("%w: hidden unit has no upstream units", ErrUninitialized)
	}
	h.weights = make([]float64, len(h.upstream))
	for i := range h.weights {
		h.weights[i] = randWeight(rng)
	}
	h.bias = randWeight(rng)
	h.randomized = true
	return nil
}

// Forward computes the activation from the upstream activations.
func (h *HiddenUnit) Forward() error {
	if !h.randomized {
		return fmt.Errorf("%w: forward before randomize", ErrUninitialized)
	}
	Assert(len(h.weights) == len(h.upstream))
	sum := 0.0
	for i, u := range h.upstream {
		sum += h.weights[i] * u.Activation()
	}
	h.activation = Sigmoid(sum + h.bias)
	return nil
}

// Activation returns the most recently computed activation.
func (h *HiddenUnit) Activation() float64 {
	return h.activation
}

// ReceiveBackward records one connected output unit's delta and its
// weight for this unit.
func (h *HiddenUnit) ReceiveBackward(delta, weight float64) {
	h.outDeltas = append(h.outDeltas, delta)
	h.outWeights = append(h.outWeights, weight)
}

// ResetBackward empties the backward buffers.
func (h *HiddenUnit) ResetBackward() {
	h.outDeltas = h.outDeltas[:0]
	h.outWeights = h.outWeights[:0]
}

// Backward returns copies of the backward buffers.
func (h *HiddenUnit) Backward() (deltas, weights []float64) {
	deltas = append([]float64{}, h.outDeltas...)
	weights = append([]float64{}, h.outWeights...)
	return
}

// ComputeDelta computes the local delta from the backward buffers,
// which must hold exactly one entry per connected output unit.
func (h *HiddenUnit) ComputeDelta() error {
	if !h.randomized {
		return fmt.Errorf("%w: delta before randomize", ErrUninitialized)
	}
	if len(h.outDeltas) != len(h.downWeights) {
		return fmt.Errorf("%w: have %d entries, want %d", ErrBackward, len(h.outDeltas), len(h.downWeights))
	}
	sum := 0.0
	for k, d := range h.outDeltas {
		sum += d * h.outWeights[k]
	}
	h.delta = SigmoidD1(h.activation) * sum
	return nil
}

// Update applies the current delta to the weights and bias, using the
// upstream activations from the forward pass.
func (h *HiddenUnit) Update() error {
	if !h.randomized {
		return fmt.Errorf("%w: update before randomize", ErrUninitialized)
	}
	for i, u := range h.upstream {
		h.weights[i] += h.rate * h.delta * u.Activation()
	}
	h.bias += h.rate * h.delta
	return nil
}

// Weight returns the weight of the i'th upstream connection.
func (h *HiddenUnit) Weight(i int) (float64, error) {
	if i < 0 || i >= len(h.weights) {
		return 0, fmt.Errorf("%w: weight %d of %d", ErrIndexRange, i, len(h.weights))
	}
	return h.weights[i], nil
}

// SetWeight sets the weight of the i'th upstream connection.
func (h *HiddenUnit) SetWeight(i int, w float64) error {
	if i < 0 || i >= len(h.weights) {
		return fmt.Errorf("%w: weight %d of %d", ErrIndexRange, i, len(h.weights))
	}
	h.weights[i] = w
	return nil
}

func (h *HiddenUnit) Bias() float64         { return h.bias }
func (h *HiddenUnit) SetBias(b float64)     { h.bias = b }
func (h *HiddenUnit) Delta() float64        { return h.delta }
func (h *HiddenUnit) LearningRate() float64 { return h.rate }
func (h *HiddenUnit) NumUpstream() int      { return len(h.upstream) }
func (h *HiddenUnit) NumDownstream() int    { return len(h.downWeights) }

// Upstream returns the pos'th upstream unit, or nil if there is none.
func (h *HiddenUnit) Upstream(pos int) Unit {
	if pos < 0 || pos >= len(h.upstream) {
		return nil
	}
	return h.upstream[pos]
}

// DownstreamWeight returns the weight the output unit registered at
// slot currently applies to this unit.
func (h *HiddenUnit) DownstreamWeight(slot int) (float64, error) {
	if slot < 0 || slot >= len(h.downWeights) {
		return 0, fmt.Errorf("%w: downstream slot %d of %d", ErrIndexRange, slot, len(h.downWeights))
	}
	return h.downWeights[slot], nil
}

// OutputUnit is a sigmoid unit fed by hidden units.  It owns the
// desired value for the current sample and drives the backward pass
// into its hidden units.
type OutputUnit struct {
	hidden     []*HiddenUnit
	slots      []int // our slot in each hidden unit's downstream bookkeeping
	weights    []float64
	bias       float64
	rate       float64
	desired    float64
	output     float64
	delta      float64
	randomized bool
}

// NewOutputUnit creates an unconnected output unit with the given
// learning rate.
func NewOutputUnit(rate float64) *OutputUnit {
	return &OutputUnit{rate: rate}
}

// Connect adds a hidden unit as an input to this output unit.
func (o *OutputUnit) Connect(h *HiddenUnit) {
	Assert(!o.randomized, "connect after randomize")
	o.hidden = append(o.hidden, h)
	o.slots = append(o.slots, h.addDownstream())
}

// Randomize draws the weights and bias from [-0.5, 0.5) and tells
// each hidden unit which weight now applies to it.
func (o *OutputUnit) Randomize(rng *rand.Rand) error {
	if o.randomized {
		return ErrRandomized
	}
	if len(o.hidden) == 0 {
		return fmt.Errorf("%w: output unit has no hidden units", ErrUninitialized)
	}
	o.weights = make([]float64, len(o.hidden))
	for i := range o.weights {
		o.weights[i] = randWeight(rng)
		o.publish(i)
	}
	o.bias = randWeight(rng)
	o.randomized = true
	return nil
}

// publish copies weight i into the hidden unit's downstream
// bookkeeping.
func (o *OutputUnit) publish(i int) {
	o.hidden[i].downWeights[o.slots[i]] = o.weights[i]
}

// Forward computes the output from the hidden activations.
func (o *OutputUnit) Forward() error {
	if !o.randomized {
		return fmt.Errorf("%w: forward before randomize", ErrUninitialized)
	}
	sum := 0.0
	for i, h := range o.hidden {
		sum += o.weights[i] * h.Activation()
	}
	o.output = Sigmoid(sum + o.bias)
	return nil
}

// ComputeError returns desired - output.
func (o *OutputUnit) ComputeError() float64 {
	return o.desired - o.output
}

// ComputeDelta computes this unit's delta and pushes it, together
// with the matching weight, to every connected hidden unit.
func (o *OutputUnit) ComputeDelta() error {
	if !o.randomized {
		return fmt.Errorf("%w: delta before randomize", ErrUninitialized)
	}
	o.delta = SigmoidD1(o.output) * o.ComputeError()
	for i, h := range o.hidden {
		h.ReceiveBackward(o.delta, o.weights[i])
	}
	return nil
}

// Update applies the current delta to the weights and bias and
// republishes the new weights to the hidden units.
func (o *OutputUnit) Update() error {
	if !o.randomized {
		return fmt.Errorf("%w: update before randomize", ErrUninitialized)
	}
	for i, h := range o.hidden {
		o.weights[i] += o.rate * o.delta * h.Activation()
		o.publish(i)
	}
	o.bias += o.rate * o.delta
	return nil
}

// Weight returns the weight of the i'th hidden connection.
func (o *OutputUnit) Weight(i int) (float64, error) {
	if i < 0 || i >= len(o.weights) {
		return 0, fmt.Errorf("%w: weight %d of %d", ErrIndexRange, i, len(o.weights))
	}
	return o.weights[i], nil
}

// SetWeight sets the weight of the i'th hidden connection.
func (o *OutputUnit) SetWeight(i int, w float64) error {
	if i < 0 || i >= len(o.weights) {
		return fmt.Errorf("%w: weight %d of %d", ErrIndexRange, i, len(o.weights))
	}
	o.weights[i] = w
	o.publish(i)
	return nil
}

func (o *OutputUnit) Bias() float64         { return o.bias }
func (o *OutputUnit) SetBias(b float64)     { o.bias = b }
func (o *OutputUnit) Delta() float64        { return o.delta }
func (o *OutputUnit) LearningRate() float64 { return o.rate }
func (o *OutputUnit) Desired() float64      { return o.desired }
func (o *OutputUnit) SetDesired(d float64)  { o.desired = d }
func (o *OutputUnit) Output() float64       { return o.output }
func (o *OutputUnit) NumHidden() int        { return len(o.hidden) }

// Hidden returns the pos'th hidden unit, or nil if there is none.
func (o *OutputUnit) Hidden(pos int) *HiddenUnit {
	if pos < 0 || pos >= len(o.hidden) {
		return nil
	}
	return o.hidden[pos]
}
