package actions

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
)

// Base carries the properties every built-in action shares.
type Base struct {
	desc    domain.ActionDescription
	object  domain.MetaObject
	surface *domain.Surface

	name         string
	icon         string
	inputRowsMin int
	inputRowsMax int
	effects      []domain.Effect
	capabilities []domain.Capability
	autocommit   bool
}

// defaults are the properties an action has when its description is silent.
type defaults struct {
	name         string
	icon         string
	inputRowsMin int
	effect       domain.EffectType // empty: no implicit effect
	capabilities []domain.Capability
}

func newBase(desc domain.ActionDescription, surface *domain.Surface, d defaults) Base {
	b := Base{
		desc:         desc.Copy(),
		surface:      surface,
		name:         d.name,
		icon:         d.icon,
		inputRowsMin: d.inputRowsMin,
		inputRowsMax: domain.UnlimitedRows,
		capabilities: d.capabilities,
		autocommit:   true,
	}
	if desc.ObjectAlias != "" {
		b.object = domain.ParseObject(desc.ObjectAlias)
	}
	if desc.Name != "" {
		b.name = desc.Name
	}
	if desc.Icon != "" {
		b.icon = desc.Icon
	}
	if desc.InputRowsMin != nil {
		b.inputRowsMin = *desc.InputRowsMin
	}
	if desc.InputRowsMax != nil {
		b.inputRowsMax = *desc.InputRowsMax
	}

	for _, e := range desc.Effects {
		b.effects = append(b.effects, e.Effect())
	}
	if len(b.effects) == 0 && d.effect != "" && !b.object.IsZero() {
		b.effects = []domain.Effect{{Object: b.object, Type: d.effect}}
	}
	return b
}

func (b *Base) Name() string { return b.name }
func (b *Base) Icon() string { return b.icon }
func (b *Base) InputRowsMin() int { return b.inputRowsMin }
func (b *Base) InputRowsMax() int { return b.inputRowsMax }
func (b *Base) Undoable() bool { return false }
func (b *Base) Object() domain.MetaObject { return b.object }

func (b *Base) Effects() []domain.Effect {
	return append([]domain.Effect(nil), b.effects...)
}

func (b *Base) HasCapability(c domain.Capability) bool {
	return slices.Contains(b.capabilities, c)
}

func (b *Base) SetAutocommit(enabled bool) { b.autocommit = enabled }

// Autocommit reports whether the action commits the transaction it writes to.
func (b *Base) Autocommit() bool { return b.autocommit }

func (b *Base) BindSurface(s *domain.Surface) { b.surface = s }

// Surface returns the surface the action is bound to, if any.
func (b *Base) Surface() *domain.Surface { return b.surface }

// Describe returns the description the action was created from.
func (b *Base) Describe() domain.ActionDescription {
	return b.desc.Copy()
}

// checkInput enforces the row limits of the action.
func (b *Base) checkInput(data *domain.Dataset) error {
	n := data.Len()
	if n < b.inputRowsMin {
		return fmt.Errorf("%s requires at least %d input rows, got %d", b.name, b.inputRowsMin, n)
	}
	if b.inputRowsMax != domain.UnlimitedRows && n > b.inputRowsMax {
		return fmt.Errorf("%s accepts at most %d input rows, got %d", b.name, b.inputRowsMax, n)
	}
	return nil
}

// targetObject is the object rows are written to: the action's own one, else the
// object of the input data, else the object of the task.
func (b *Base) targetObject(task *domain.Task) (string, error) {
	switch {
	case !b.object.IsZero():
		return b.object.AliasWithNamespace(), nil
	case task.InputData != nil && task.InputData.Object != "":
		return task.InputData.Object, nil
	case task.Object != nil && !task.Object.IsZero():
		return task.Object.AliasWithNamespace(), nil
	}
	return "", fmt.Errorf("%s has no object to write to", b.name)
}

// write persists rows in tx and commits it when autocommit is enabled.
func (b *Base) write(ctx context.Context, tx ports.Transaction, object string, rows []domain.Row) error {
	if tx == nil {
		return fmt.Errorf("%s requires a transaction", b.name)
	}
	w, ok := tx.(ports.RowWriter)
	if !ok {
		return fmt.Errorf("%s: transaction %s cannot write rows", b.name, tx.ID())
	}
	if err := w.WriteRows(ctx, object, rows); err != nil {
		return err
	}
	if b.autocommit && tx.Status() == domain.TxOpen {
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("%s: autocommit failed: %w", b.name, err)
		}
	}
	return nil
}

func taskOrEmpty(task *domain.Task) *domain.Task {
	if task == nil {
		return &domain.Task{}
	}
	return task
}
