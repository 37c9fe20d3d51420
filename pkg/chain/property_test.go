package chain_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/catena/internal/testutils"
	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: the chain reports modified data iff at least one executed step did.
func TestProperty_DataModifiedIsDisjunction(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("data_modified is the OR of all steps", prop.ForAll(
		func(flags []bool) bool {
			if len(flags) == 0 {
				return true
			}
			var want bool
			steps := make([]any, len(flags))
			for i, f := range flags {
				want = want || f
				steps[i] = testutils.NewFakeAction(fmt.Sprintf("s%d", i),
					testutils.WithHandler(testutils.ReturnData(dataset(fmt.Sprint(i)), f)))
			}
			c, err := chain.New(context.Background(), steps, nil)
			if err != nil {
				return false
			}
			res, err := c.Handle(context.Background(), domain.NewTask(nil), testutils.NewFakeTx())
			return err == nil && res.DataModified == want
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}

// Property: use_result_of_action=k yields the data of step k, every step still runs.
func TestProperty_ResultSelection(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("selected result comes from the chosen step", prop.ForAll(
		func(n, k int) bool {
			k %= n
			fakes := make([]*testutils.FakeAction, n)
			steps := make([]any, n)
			for i := range fakes {
				fakes[i] = testutils.NewFakeAction(fmt.Sprintf("s%d", i),
					testutils.WithHandler(testutils.ReturnData(dataset(fmt.Sprint(i)), false)))
				steps[i] = fakes[i]
			}
			c, err := chain.New(context.Background(), steps, nil, chain.WithResultOf(k))
			if err != nil {
				return false
			}
			res, err := c.Handle(context.Background(), domain.NewTask(nil), testutils.NewFakeTx())
			if err != nil || !res.HasData() {
				return false
			}
			for _, f := range fakes {
				if f.Calls() != 1 {
					return false
				}
			}
			return res.Data.Rows[0]["id"] == fmt.Sprint(k)
		},
		gen.IntRange(1, 8),
		gen.IntRange(0, 7),
	))

	properties.TestingRun(t)
}

var objectNames = []string{"order", "ORDER", "invoice", "Invoice", "customer"}

// Property: effects are unique per object, compared case-insensitively.
func TestProperty_EffectsUniquePerObject(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("no two effects target the same object", prop.ForAll(
		func(picks []int) bool {
			if len(picks) == 0 {
				return true
			}
			steps := make([]any, len(picks))
			distinct := map[string]struct{}{}
			for i, p := range picks {
				obj := "app." + objectNames[p]
				distinct[strings.ToLower(obj)] = struct{}{}
				steps[i] = testutils.NewFakeAction(fmt.Sprintf("s%d", i), testutils.WithEffects(
					domain.Effect{Object: domain.ParseObject(obj), Type: domain.EffectUpdate}))
			}
			c, err := chain.New(context.Background(), steps, nil)
			if err != nil {
				return false
			}
			effects := c.Effects()
			seen := map[string]struct{}{}
			for _, e := range effects {
				key := strings.ToLower(e.Object.AliasWithNamespace())
				if _, dup := seen[key]; dup {
					return false
				}
				seen[key] = struct{}{}
			}
			return len(effects) == len(distinct)
		},
		gen.SliceOf(gen.IntRange(0, len(objectNames)-1)),
	))

	properties.TestingRun(t)
}
