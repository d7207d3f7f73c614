package main

import (
	"errors"
	"math/rand"

	"github.com/stevegt/ffnn"
	"github.com/stevegt/ffnn/shape"
	. "github.com/stevegt/goadapt"
)

const maxSeeds = 100

// Trains a 2-2-1 network on the xor truth table, trying successive
// seeds until one escapes the local minima, then prints the
// predictions and a graphviz rendering of the trained network.
func main() {
	s, err := shape.Parse("(xor a b (sigmoid 2) (sigmoid y))")
	Ck(err)

	rules := ffnn.NewTrainingRuleSet()
	rules.Add([]float64{0, 0}, []float64{0})
	rules.Add([]float64{0, 1}, []float64{1})
	rules.Add([]float64{1, 0}, []float64{1})
	rules.Add([]float64{1, 1}, []float64{0})

	var net *ffnn.Network
	trained := false
	for seed := int64(1); seed <= maxSeeds; seed++ {
		net, err = ffnn.NewNetworkFromShape(s, 1, rand.New(rand.NewSource(seed)))
		Ck(err)
		cost, err := net.Train(rules, ffnn.TrainParms{Epochs: 5000, MaxError: 0.05})
		if errors.Is(err, ffnn.ErrMaxEpochs) {
			Pf("seed %d stuck at mean error %f\n", seed, cost)
			continue
		}
		Ck(err)
		Pf("seed %d trained, mean error %f\n", seed, cost)
		trained = true
		break
	}
	Assert(trained, "no seed in 1..%d trained xor", maxSeeds)

	Pl("Predictions:")
	for i := 0; i < rules.Count(); i++ {
		in, err := rules.Input(i)
		Ck(err)
		out, err := net.Predict(in)
		Ck(err)
		Pf("%v -> %.3f\n", in, out[0])
	}
	Pl(net.Draw())
}
