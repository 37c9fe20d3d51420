package chain

import (
	"strings"

	"github.com/aretw0/catena/pkg/domain"
)

// messages collects the non-empty messages of all executed steps in order.
type messages []string

func (m *messages) add(msg string) {
	msg = strings.TrimRight(msg, "\n")
	if msg == "" {
		return
	}
	*m = append(*m, msg)
}

func (m messages) String() string {
	return strings.Join(m, "\n")
}

// aggregate synthesizes the chain result from the state of a finished run.
// The selected step result is copied, never modified in place.
func (c *Chain) aggregate(task *domain.Task, state *run) *domain.Result {
	selected := state.selected
	if selected == nil {
		selected = state.lastResult
	}
	if selected == nil {
		// Every step was skipped.
		selected = domain.NewEmptyResult(task)
	}
	result := *selected

	message := state.messages.String()
	if c.message != nil {
		message = *c.message
	}
	if message != "" {
		if result.IsEmpty() {
			result = *domain.NewMessageResult(result.Task, message)
		} else {
			result.Message = message
		}
	}

	// The modified flag is chain-wide truth, not the one of the selected step.
	result.DataModified = state.modified
	return &result
}

// Effects returns the effects declared on the chain followed by the effects of its
// actions. If several effects target the same object only the first one is kept, so
// effects declared on the chain itself always prevail.
func (c *Chain) Effects() []domain.Effect {
	effects := append([]domain.Effect(nil), c.effects...)
	seen := make(map[string]struct{}, len(effects))
	for _, e := range effects {
		seen[objectKey(e.Object)] = struct{}{}
	}

	for _, action := range c.actions {
		for _, e := range action.Effects() {
			key := objectKey(e.Object)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			effects = append(effects, e)
		}
	}
	return effects
}

// objectKey mirrors domain.MetaObject.IsExactly.
func objectKey(o domain.MetaObject) string {
	return strings.ToLower(o.AliasWithNamespace())
}
