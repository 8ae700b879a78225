package functions

import (
	"math"

	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

func init() {
	register(Entry{Path: "math::abs", MinArg: 1, MaxArg: 1, Call: wrap1Float(math.Abs)})
	register(Entry{Path: "math::ceil", MinArg: 1, MaxArg: 1, Call: wrap1Float(math.Ceil)})
	register(Entry{Path: "math::floor", MinArg: 1, MaxArg: 1, Call: wrap1Float(math.Floor)})
	register(Entry{Path: "math::round", MinArg: 1, MaxArg: 1, Call: wrap1Float(math.Round)})
	register(Entry{Path: "math::sqrt", MinArg: 1, MaxArg: 1, Call: wrap1Float(math.Sqrt)})
	register(Entry{Path: "math::ln", MinArg: 1, MaxArg: 1, Call: wrap1Float(math.Log)})
	register(Entry{Path: "math::log10", MinArg: 1, MaxArg: 1, Call: wrap1Float(math.Log10)})
	register(Entry{Path: "math::log2", MinArg: 1, MaxArg: 1, Call: wrap1Float(math.Log2)})
	register(Entry{Path: "math::pow", MinArg: 2, MaxArg: 2, Call: mathPow})
	register(Entry{Path: "math::max", MinArg: 1, MaxArg: -1, Call: mathMax})
	register(Entry{Path: "math::min", MinArg: 1, MaxArg: -1, Call: mathMin})
	register(Entry{Path: "math::sum", MinArg: 1, MaxArg: 1, Call: mathSum})
	register(Entry{Path: "math::mean", MinArg: 1, MaxArg: 1, Call: mathMean})
	register(Entry{Path: "math::median", MinArg: 1, MaxArg: 1, Call: mathMedian})
	register(Entry{Path: "math::product", MinArg: 1, MaxArg: 1, Call: mathProduct})
	register(Entry{Path: "math::pi", MinArg: 0, MaxArg: 0, Call: func([]value.Value) (value.Value, error) { return value.NewFloat(math.Pi), nil }})
}

func arg0Float(args []value.Value) (float64, error) {
	if args[0].Tag() != value.TagNumber {
		return 0, qerr.Invalidf("expected number, got %s", args[0].Tag())
	}
	return args[0].NumberVal().ToFloat(), nil
}

func wrap1Float(f func(float64) float64) Fn {
	return func(args []value.Value) (value.Value, error) {
		x, err := arg0Float(args)
		if err != nil {
			return value.None, err
		}
		return value.NewFloat(f(x)), nil
	}
}

func mathPow(args []value.Value) (value.Value, error) {
	base, err := arg0Float(args)
	if err != nil {
		return value.None, err
	}
	if args[1].Tag() != value.TagNumber {
		return value.None, qerr.Invalidf("expected number, got %s", args[1].Tag())
	}
	return value.NewFloat(math.Pow(base, args[1].NumberVal().ToFloat())), nil
}

func numbersFromArgsOrArray(args []value.Value) ([]value.Value, error) {
	if len(args) == 1 && args[0].Tag() == value.TagArray {
		return args[0].Array(), nil
	}
	return args, nil
}

func mathMax(args []value.Value) (value.Value, error) {
	nums, err := numbersFromArgsOrArray(args)
	if err != nil {
		return value.None, err
	}
	if len(nums) == 0 {
		return value.None, nil
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if value.Compare(n, best) > 0 {
			best = n
		}
	}
	return best, nil
}

func mathMin(args []value.Value) (value.Value, error) {
	nums, err := numbersFromArgsOrArray(args)
	if err != nil {
		return value.None, err
	}
	if len(nums) == 0 {
		return value.None, nil
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if value.Compare(n, best) < 0 {
			best = n
		}
	}
	return best, nil
}

func mathSum(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	sum := 0.0
	for _, v := range a {
		if v.Tag() != value.TagNumber {
			return value.None, qerr.Invalidf("math::sum: expected number, got %s", v.Tag())
		}
		sum += v.NumberVal().ToFloat()
	}
	return value.NewFloat(sum), nil
}

func mathProduct(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	p := 1.0
	for _, v := range a {
		if v.Tag() != value.TagNumber {
			return value.None, qerr.Invalidf("math::product: expected number, got %s", v.Tag())
		}
		p *= v.NumberVal().ToFloat()
	}
	return value.NewFloat(p), nil
}

func mathMean(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	if len(a) == 0 {
		return value.None, nil
	}
	sum, err := mathSum(args)
	if err != nil {
		return value.None, err
	}
	return value.NewFloat(sum.NumberVal().ToFloat() / float64(len(a))), nil
}

func mathMedian(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	if len(a) == 0 {
		return value.None, nil
	}
	sorted, err := arraySort([]value.Value{value.NewArray(a)})
	if err != nil {
		return value.None, err
	}
	s := sorted.Array()
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid], nil
	}
	return value.NewFloat((s[mid-1].NumberVal().ToFloat() + s[mid].NumberVal().ToFloat()) / 2), nil
}
