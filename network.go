package ffnn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/emicklei/dot"
	"github.com/stevegt/ffnn/shape"
	. "github.com/stevegt/goadapt"
	"gonum.org/v1/gonum/floats"
)

// Network is a fully connected single-hidden-layer network built
// from individually addressable units.
type Network struct {
	Name        string
	InputNames  []string
	OutputNames []string
	Inputs      []*InputUnit
	Hidden      []*HiddenUnit
	Outputs     []*OutputUnit
	cost        float64 // mean error of the most recent epoch
}

// TrainParms contains the parameters for training a network.
type TrainParms struct {
	Epochs   int
	MaxError float64
	Verbose  bool
}

// NewNetwork creates a network with the given unit counts, connects
// every input to every hidden unit and every hidden unit to every
// output, then randomizes all weights and biases from rng.  Hidden
// units draw first, in order, then output units.
func NewNetwork(name string, inputCount, hiddenCount, outputCount int, rate float64, rng *rand.Rand) (n *Network, err error) {
	defer Return(&err)
	if inputCount < 1 || hiddenCount < 1 || outputCount < 1 {
		err = fmt.Errorf("%w: need at least one unit per layer, got %d-%d-%d", ErrDimension, inputCount, hiddenCount, outputCount)
		return
	}
	n = &Network{Name: name}
	for i := 0; i < inputCount; i++ {
		n.Inputs = append(n.Inputs, NewInputUnit())
	}
	for j := 0; j < hiddenCount; j++ {
		h := NewHiddenUnit(rate)
		for _, in := range n.Inputs {
			h.Connect(in)
		}
		n.Hidden = append(n.Hidden, h)
	}
	for k := 0; k < outputCount; k++ {
		o := NewOutputUnit(rate)
		for _, h := range n.Hidden {
			o.Connect(h)
		}
		n.Outputs = append(n.Outputs, o)
	}
	for _, h := range n.Hidden {
		Ck(h.Randomize(rng))
	}
	for _, o := range n.Outputs {
		Ck(o.Randomize(rng))
	}
	return
}

// NewNetworkFromShape creates a network from a parsed shape, carrying
// over its input and output names.
func NewNetworkFromShape(s *shape.Shape, rate float64, rng *rand.Rand) (n *Network, err error) {
	defer Return(&err)
	n, err = NewNetwork(s.Name, s.InputCount(), s.HiddenCount(), s.OutputCount(), rate, rng)
	Ck(err)
	n.InputNames = append([]string{}, s.InputNames...)
	n.OutputNames = append([]string{}, s.OutputNames...)
	return
}

// Cost returns the mean error of the most recent training epoch.
func (n *Network) Cost() float64 {
	return n.cost
}

func (n *Network) setInputs(inputs []float64) error {
	if len(inputs) != len(n.Inputs) {
		return fmt.Errorf("%w: got %d inputs, want %d", ErrDimension, len(inputs), len(n.Inputs))
	}
	for i, in := range n.Inputs {
		in.SetActivation(inputs[i])
	}
	return nil
}

// forward runs the forward pass in dependency order.
func (n *Network) forward() (err error) {
	defer Return(&err)
	for _, h := range n.Hidden {
		Ck(h.Forward())
	}
	for _, o := range n.Outputs {
		Ck(o.Forward())
	}
	return
}

// Predict executes the forward pass and returns the output values.
func (n *Network) Predict(inputs []float64) (outputs []float64, err error) {
	defer Return(&err)
	err = n.setInputs(inputs)
	if err != nil {
		return
	}
	Ck(n.forward())
	for _, o := range n.Outputs {
		outputs = append(outputs, o.Output())
	}
	return
}

// PredictNamed returns named outputs for the given named inputs.  It
// ignores named inputs which are not in the network, and sets to zero
// named inputs which are in the network but not in the given map.
func (n *Network) PredictNamed(inputMap map[string]float64) (outputMap map[string]float64, err error) {
	defer Return(&err)
	if n.InputNames == nil || n.OutputNames == nil {
		err = fmt.Errorf("%w: network %q has no input or output names", ErrUninitialized, n.Name)
		return
	}
	inputSlice := make([]float64, len(n.InputNames))
	for i, name := range n.InputNames {
		input, ok := inputMap[name]
		if !ok {
			continue
		}
		Assert(!math.IsNaN(input), "input %s is NaN", name)
		inputSlice[i] = input
	}
	outputSlice, err := n.Predict(inputSlice)
	Ck(err)
	outputMap = make(map[string]float64)
	for i, name := range n.OutputNames {
		outputMap[name] = outputSlice[i]
	}
	return
}

// LearnNamed trains the network for one sample given named input and
// target maps.  Like PredictNamed, it ignores names which are not in
// the network and uses zero for network names missing from the maps.
func (n *Network) LearnNamed(inputMap, targetMap map[string]float64) (cost float64, err error) {
	defer Return(&err)
	if n.InputNames == nil || n.OutputNames == nil {
		err = fmt.Errorf("%w: network %q has no input or output names", ErrUninitialized, n.Name)
		return
	}
	inputSlice := make([]float64, len(n.InputNames))
	for i, name := range n.InputNames {
		inputSlice[i] = inputMap[name]
	}
	targetSlice := make([]float64, len(n.OutputNames))
	for k, name := range n.OutputNames {
		targetSlice[k] = targetMap[name]
	}
	cost, err = n.Learn(inputSlice, targetSlice)
	Ck(err)
	return
}

// Learn runs the training protocol for one sample: forward pass,
// output deltas pushed into the hidden units' backward buffers,
// hidden deltas, then output updates followed by hidden updates.  It
// returns the sample's mean absolute output error, measured before
// the update.
func (n *Network) Learn(inputs, targets []float64) (cost float64, err error) {
	defer Return(&err)
	if len(targets) != len(n.Outputs) {
		err = fmt.Errorf("%w: got %d targets, want %d", ErrDimension, len(targets), len(n.Outputs))
		return
	}
	err = n.setInputs(inputs)
	if err != nil {
		return
	}
	Ck(n.forward())

	for _, h := range n.Hidden {
		h.ResetBackward()
	}
	for k, o := range n.Outputs {
		o.SetDesired(targets[k])
		cost += math.Abs(o.ComputeError())
		Ck(o.ComputeDelta())
	}
	for _, h := range n.Hidden {
		Ck(h.ComputeDelta())
	}

	// output weights first; hidden deltas already hold the old ones
	for _, o := range n.Outputs {
		Ck(o.Update())
	}
	for _, h := range n.Hidden {
		Ck(h.Update())
	}
	cost /= float64(len(n.Outputs))
	Debug("learn %v -> %v cost %v\n", inputs, targets, cost)
	return
}

// Train runs epochs over the rule set until the mean error of an
// epoch drops below parms.MaxError, or returns ErrMaxEpochs after
// parms.Epochs epochs.
func (n *Network) Train(rules *TrainingRuleSet, parms TrainParms) (meanError float64, err error) {
	defer Return(&err)
	err = rules.Check(len(n.Inputs), len(n.Outputs))
	if err != nil {
		return
	}
	if rules.Count() == 0 {
		err = fmt.Errorf("%w: no training rules", ErrDimension)
		return
	}
	for epoch := 0; epoch < parms.Epochs; epoch++ {
		meanError = 0.0
		for i := 0; i < rules.Count(); i++ {
			rule, err := rules.Rule(i)
			Ck(err)
			cost, err := n.Learn(rule.Input, rule.Expected)
			Ck(err)
			meanError += cost
		}
		meanError /= float64(rules.Count())
		n.cost = meanError
		if parms.Verbose {
			Pf("%s epoch %d mean error %f\n", n.Name, epoch, meanError)
		}
		if meanError < parms.MaxError {
			return
		}
	}
	err = fmt.Errorf("%w: %d epochs, mean error %f", ErrMaxEpochs, parms.Epochs, meanError)
	return
}

// MeanAbsError returns the mean absolute output error over the rule
// set without training.
func (n *Network) MeanAbsError(rules *TrainingRuleSet) (meanError float64, err error) {
	defer Return(&err)
	err = rules.Check(len(n.Inputs), len(n.Outputs))
	if err != nil || rules.Count() == 0 {
		return
	}
	for i := 0; i < rules.Count(); i++ {
		rule, err := rules.Rule(i)
		Ck(err)
		outputs, err := n.Predict(rule.Input)
		Ck(err)
		meanError += floats.Distance(outputs, rule.Expected, 1) / float64(len(outputs))
	}
	meanError /= float64(rules.Count())
	return
}

// Validate checks the network against a rule set, ensuring that the
// summed absolute error of each rule's outputs is within maxError.
func (n *Network) Validate(rules *TrainingRuleSet, maxError float64) (err error) {
	defer Return(&err)
	err = rules.Check(len(n.Inputs), len(n.Outputs))
	if err != nil {
		return
	}
	for i := 0; i < rules.Count(); i++ {
		rule, err := rules.Rule(i)
		Ck(err)
		outputs, err := n.Predict(rule.Input)
		Ck(err)
		cost := floats.Distance(outputs, rule.Expected, 1)
		if cost > maxError {
			return fmt.Errorf("cost too high for inputs: %v, expected: %v, got: %v", rule.Input, rule.Expected, outputs)
		}
	}
	return
}

func (n *Network) inputName(i int) string {
	if i < len(n.InputNames) {
		return n.InputNames[i]
	}
	return Spf("x%d", i)
}

func (n *Network) outputName(k int) string {
	if k < len(n.OutputNames) {
		return n.OutputNames[k]
	}
	return Spf("y%d", k)
}

// Draw returns a graphviz rendering of the units, labeled with biases
// and edge weights.
func (n *Network) Draw() string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "LR")
	if n.Name != "" {
		g.Attr("label", n.Name)
	}
	inNodes := make([]dot.Node, len(n.Inputs))
	for i := range n.Inputs {
		inNodes[i] = g.Node(n.inputName(i)).Attr("shape", "box")
	}
	hidNodes := make([]dot.Node, len(n.Hidden))
	for j, h := range n.Hidden {
		id := Spf("h%d", j)
		hidNodes[j] = g.Node(id).Attr("label", Spf("%s b=%.3f", id, h.Bias()))
		for i := 0; i < h.NumUpstream(); i++ {
			w, err := h.Weight(i)
			Ck(err)
			g.Edge(inNodes[i], hidNodes[j], Spf("%.3f", w))
		}
	}
	for k, o := range n.Outputs {
		id := n.outputName(k)
		outNode := g.Node(id).Attr("label", Spf("%s b=%.3f", id, o.Bias()))
		for j := 0; j < o.NumHidden(); j++ {
			w, err := o.Weight(j)
			Ck(err)
			g.Edge(hidNodes[j], outNode, Spf("%.3f", w))
		}
	}
	return g.String()
}
