package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// acyclicRegistrations builds n analyzers where analyzer i may depend only on
// analyzers with a larger index, registered in index order. Each code c
// declares dependency c/n -> c%n when that pair points forward.
func acyclicRegistrations(n int, codes []int, calls *[]string) []Registration {
	deps := make([][]string, n)
	for _, c := range codes {
		from, to := c/n, c%n
		if from < to {
			deps[from] = append(deps[from], fmt.Sprintf("p%d", to))
		}
	}
	regs := make([]Registration, n)
	for i := range regs {
		id := fmt.Sprintf("p%d", i)
		regs[i] = Registration{
			ID:        id,
			DependsOn: deps[i],
			Analyze: func(context.Context, *RunContext) (any, error) {
				*calls = append(*calls, id)
				return nil, nil
			},
		}
	}
	return regs
}

func TestSchedulingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	const n = 7

	properties.Property("every analyzer runs once after its dependencies", prop.ForAll(
		func(codes []int) bool {
			var calls []string
			o := New()
			regs := acyclicRegistrations(n, codes, &calls)
			o.MustRegister(regs...)

			run, err := o.Run(context.Background(), nil)
			if err != nil || len(run.Results) != n || len(calls) != n {
				return false
			}
			position := make(map[string]int, n)
			for i, id := range calls {
				if _, seen := position[id]; seen {
					return false
				}
				position[id] = i
			}
			for _, reg := range regs {
				for _, dep := range reg.DependsOn {
					if position[dep] >= position[reg.ID] {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, n*n-1)),
	))

	properties.Property("order is stable across runs", prop.ForAll(
		func(codes []int) bool {
			var a, b []string
			o1, o2 := New(), New()
			o1.MustRegister(acyclicRegistrations(n, codes, &a)...)
			o2.MustRegister(acyclicRegistrations(n, codes, &b)...)
			first, err1 := o1.Order()
			second, err2 := o2.Order()
			return err1 == nil && err2 == nil && fmt.Sprint(first) == fmt.Sprint(second)
		},
		gen.SliceOf(gen.IntRange(0, n*n-1)),
	))

	properties.TestingRun(t)
}
