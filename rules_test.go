package ffnn

import (
	"errors"
	"testing"

	. "github.com/stevegt/goadapt"
)

func TestRuleSet(t *testing.T) {
	rs := NewTrainingRuleSet()
	Tassert(t, rs.Count() == 0, rs.Count())
	_, err := rs.Input(0)
	Tassert(t, errors.Is(err, ErrIndexRange), err)

	in := []float64{0, 1}
	rs.Add(in, []float64{1})
	rs.Add([]float64{1, 1}, []float64{0})
	Tassert(t, rs.Count() == 2, rs.Count())

	// stored vectors are copies
	in[0] = 9
	got, err := rs.Input(0)
	Tassert(t, err == nil, err)
	Tassert(t, got[0] == 0 && got[1] == 1, got)

	exp, err := rs.Expected(1)
	Tassert(t, err == nil, err)
	Tassert(t, len(exp) == 1 && exp[0] == 0, exp)

	_, err = rs.Expected(2)
	Tassert(t, errors.Is(err, ErrIndexRange), err)
	_, err = rs.Input(-1)
	Tassert(t, errors.Is(err, ErrIndexRange), err)

	rs.Clear()
	Tassert(t, rs.Count() == 0, rs.Count())
	_, err = rs.Input(0)
	Tassert(t, errors.Is(err, ErrIndexRange), err)

	rs.Add([]float64{1, 0}, []float64{1})
	Tassert(t, rs.Count() == 1, rs.Count())
}

func TestRuleSetAppend(t *testing.T) {
	a := NewTrainingRuleSet()
	a.Add([]float64{0}, []float64{0})
	b := NewTrainingRuleSet()
	b.Add([]float64{1}, []float64{1})
	b.Add([]float64{2}, []float64{0})
	c := a.Append(b)
	Tassert(t, c.Count() == 3, c.Count())
	Tassert(t, a.Count() == 1 && b.Count() == 2)
	in, err := c.Input(2)
	Tassert(t, err == nil, err)
	Tassert(t, in[0] == 2, in)
}

func TestRuleSetCheck(t *testing.T) {
	rs := NewTrainingRuleSet()
	rs.Add([]float64{0, 1}, []float64{1})
	Tassert(t, rs.Check(2, 1) == nil)
	err := rs.Check(3, 1)
	Tassert(t, errors.Is(err, ErrDimension), err)
	err = rs.Check(2, 2)
	Tassert(t, errors.Is(err, ErrDimension), err)
}
