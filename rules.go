package ffnn

import "fmt"

// TrainingRule is one input vector paired with the output vector the
// network should produce for it.
type TrainingRule struct {
	Input    []float64
	Expected []float64
}

// TrainingRuleSet is an ordered store of training rules.
type TrainingRuleSet struct {
	rules []*TrainingRule
}

// NewTrainingRuleSet creates an empty rule set.
func NewTrainingRuleSet() (rs *TrainingRuleSet) {
	rs = &TrainingRuleSet{}
	return
}

// Add appends a rule.  The vectors are copied.
func (rs *TrainingRuleSet) Add(input, expected []float64) {
	rs.rules = append(rs.rules, &TrainingRule{
		Input:    append([]float64{}, input...),
		Expected: append([]float64{}, expected...),
	})
}

// Clear removes all rules.
func (rs *TrainingRuleSet) Clear() {
	rs.rules = nil
}

// Count returns the number of stored rules.
func (rs *TrainingRuleSet) Count() int {
	return len(rs.rules)
}

// Rule returns the i'th rule.  The first rule is numbered 0.
func (rs *TrainingRuleSet) Rule(i int) (*TrainingRule, error) {
	if i < 0 || i >= len(rs.rules) {
		return nil, fmt.Errorf("%w: rule %d of %d", ErrIndexRange, i, len(rs.rules))
	}
	return rs.rules[i], nil
}

// Input returns the input vector of the i'th rule.
func (rs *TrainingRuleSet) Input(i int) ([]float64, error) {
	r, err := rs.Rule(i)
	if err != nil {
		return nil, err
	}
	return r.Input, nil
}

// Expected returns the expected output vector of the i'th rule.
func (rs *TrainingRuleSet) Expected(i int) ([]float64, error) {
	r, err := rs.Rule(i)
	if err != nil {
		return nil, err
	}
	return r.Expected, nil
}

// Append returns a new set holding the rules of rs followed by those
// of other.
func (rs *TrainingRuleSet) Append(other *TrainingRuleSet) (newSet *TrainingRuleSet) {
	newSet = NewTrainingRuleSet()
	newSet.rules = append(newSet.rules, rs.rules...)
	newSet.rules = append(newSet.rules, other.rules...)
	return
}

// Check verifies that every rule fits a network with the given
// numbers of input and output units.
func (rs *TrainingRuleSet) Check(inputs, outputs int) error {
	for i, r := range rs.rules {
		if len(r.Input) != inputs {
			return fmt.Errorf("%w: rule %d has %d inputs, want %d", ErrDimension, i, len(r.Input), inputs)
		}
		if len(r.Expected) != outputs {
			return fmt.Errorf("%w: rule %d has %d outputs, want %d", ErrDimension, i, len(r.Expected), outputs)
		}
	}
	return nil
}
