package chain

import (
	"context"
	"log/slog"

	"github.com/aretw0/catena/internal/logging"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/catena/pkg/chain"

// Chain runs other actions one after another and behaves like a single action.
//
// Every action receives the data produced by its predecessor; the first one gets the
// chain's input. By default the chain yields the result of its last action, runs all
// actions in the transaction it was given and otherwise behaves like its first action
// (name, icon, input restrictions). Two properties are aggregated instead: the chain
// modified data if any action did, and it affects every object its actions affect.
type Chain struct {
	actions []ports.Action
	desc    *domain.ActionDescription

	name         string
	icon         string
	inputRowsMin *int
	inputRowsMax *int
	effects      []domain.Effect
	message      *string

	useSingleTx bool
	resultIndex *int
	freezeIndex *int
	skipIfEmpty bool
	autocommit  bool

	surface *domain.Surface
	object  domain.MetaObject

	provider ports.TransactionProvider
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	tracer   trace.Tracer
}

var (
	_ ports.Action        = (*Chain)(nil)
	_ ports.SurfaceBinder = (*Chain)(nil)
	_ ports.Describer     = (*Chain)(nil)
)

// Option configures a Chain.
type Option func(*Chain)

// WithName sets an explicit name instead of inheriting the first action's one.
func WithName(name string) Option {
	return func(c *Chain) {
		c.name = name
	}
}

// WithIcon sets an explicit icon instead of inheriting the first action's one.
func WithIcon(icon string) Option {
	return func(c *Chain) {
		c.icon = icon
	}
}

// WithInputRowsMin overrides the minimum input rows inherited from the first action.
func WithInputRowsMin(n int) Option {
	return func(c *Chain) {
		c.inputRowsMin = &n
	}
}

// WithInputRowsMax overrides the maximum input rows inherited from the first action.
func WithInputRowsMax(n int) Option {
	return func(c *Chain) {
		c.inputRowsMax = &n
	}
}

// WithEffects declares effects on the chain itself. They take precedence over
// effects inherited from the actions.
func WithEffects(effects ...domain.Effect) Option {
	return func(c *Chain) {
		c.effects = append(c.effects, effects...)
	}
}

// WithSingleTransaction controls whether all actions share the transaction passed to
// Handle (default) or each action runs in a transaction of its own.
func WithSingleTransaction(enabled bool) Option {
	return func(c *Chain) {
		c.useSingleTx = enabled
	}
}

// WithResultOf makes the chain yield the result of the action at idx (0-based).
// All other actions still run.
func WithResultOf(idx int) Option {
	return func(c *Chain) {
		c.resultIndex = &idx
	}
}

// WithInputFreezeAt makes every action from idx on receive the same input data as
// the action at idx.
func WithInputFreezeAt(idx int) Option {
	return func(c *Chain) {
		c.freezeIndex = &idx
	}
}

// WithSkipIfInputEmpty skips actions that require input rows when there are none,
// instead of letting them fail.
func WithSkipIfInputEmpty(enabled bool) Option {
	return func(c *Chain) {
		c.skipIfEmpty = enabled
	}
}

// WithResultMessage replaces the messages collected from the actions.
func WithResultMessage(message string) Option {
	return func(c *Chain) {
		c.message = &message
	}
}

// WithSurface binds the chain and all of its actions to the triggering surface.
func WithSurface(s *domain.Surface) Option {
	return func(c *Chain) {
		c.surface = s
	}
}

// WithObject sets the meta-object the chain operates on.
func WithObject(o domain.MetaObject) Option {
	return func(c *Chain) {
		c.object = o
	}
}

// WithTransactionProvider sets the provider used to start per-action transactions
// when the single transaction mode is disabled.
func WithTransactionProvider(p ports.TransactionProvider) Option {
	return func(c *Chain) {
		c.provider = p
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Chain) {
		c.hooks = hooks
	}
}

// WithTracer sets the tracer used for chain and step spans.
// Defaults to the global OpenTelemetry tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Chain) {
		c.tracer = t
	}
}

// New resolves links into actions and builds a chain from them.
// A link is a ports.Action, a domain.ActionDescription (or pointer to one) or a generic
// map decoded into a description. factory may be nil if every link is an Action.
func New(ctx context.Context, links []any, factory ports.ActionFactory, opts ...Option) (*Chain, error) {
	c := newChain(opts...)

	actions, err := NewResolver(factory, c.surface, c.object).Resolve(ctx, links)
	if err != nil {
		return nil, c.annotate(err)
	}
	c.actions = actions

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// FromDescription builds a chain from its structured description.
// Options derived from desc are applied first, so opts can override them.
func FromDescription(ctx context.Context, desc domain.ActionDescription, factory ports.ActionFactory, surface *domain.Surface, opts ...Option) (*Chain, error) {
	links := make([]any, len(desc.Actions))
	for i, a := range desc.Actions {
		links[i] = a
	}

	all := append(descriptionOptions(desc, surface), opts...)
	c, err := New(ctx, links, factory, all...)
	if err != nil {
		return nil, err
	}
	d := desc.Copy()
	c.desc = &d
	return c, nil
}

func newChain(opts ...Option) *Chain {
	c := &Chain{
		useSingleTx: true,
		autocommit:  true,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c
}

func descriptionOptions(desc domain.ActionDescription, surface *domain.Surface) []Option {
	opts := []Option{WithSurface(surface)}
	if desc.ObjectAlias != "" {
		opts = append(opts, WithObject(domain.ParseObject(desc.ObjectAlias)))
	}
	if desc.Name != "" {
		opts = append(opts, WithName(desc.Name))
	}
	if desc.Icon != "" {
		opts = append(opts, WithIcon(desc.Icon))
	}
	if desc.InputRowsMin != nil {
		opts = append(opts, WithInputRowsMin(*desc.InputRowsMin))
	}
	if desc.InputRowsMax != nil {
		opts = append(opts, WithInputRowsMax(*desc.InputRowsMax))
	}
	for _, e := range desc.Effects {
		opts = append(opts, WithEffects(e.Effect()))
	}
	if desc.UseSingleTransaction != nil {
		opts = append(opts, WithSingleTransaction(*desc.UseSingleTransaction))
	}
	if desc.UseResultOfAction != nil {
		opts = append(opts, WithResultOf(*desc.UseResultOfAction))
	}
	if desc.UseInputDataOfAction != nil {
		opts = append(opts, WithInputFreezeAt(*desc.UseInputDataOfAction))
	}
	if desc.SkipActionsIfInputEmpty {
		opts = append(opts, WithSkipIfInputEmpty(true))
	}
	if desc.ResultMessageText != nil {
		opts = append(opts, WithResultMessage(*desc.ResultMessageText))
	}
	return opts
}

func (c *Chain) validate() error {
	if len(c.actions) == 0 {
		return c.configError(domain.CodeEmptyChain, -1, domain.ErrEmptyChain, "")
	}
	if c.resultIndex != nil && (*c.resultIndex < 0 || *c.resultIndex >= len(c.actions)) {
		return c.configError(domain.CodeInvalidResultSource, *c.resultIndex, domain.ErrInvalidDescription,
			"use_result_of_action %d is out of range for %d actions", *c.resultIndex, len(c.actions))
	}
	if c.freezeIndex != nil && (*c.freezeIndex < 0 || *c.freezeIndex >= len(c.actions)) {
		return c.configError(domain.CodeInvalidResultSource, *c.freezeIndex, domain.ErrInvalidDescription,
			"use_input_data_of_action %d is out of range for %d actions", *c.freezeIndex, len(c.actions))
	}
	return nil
}

func (c *Chain) configError(code string, index int, err error, format string, args ...any) *domain.ConfigError {
	ce := domain.NewConfigError(code, index, err, format, args...)
	ce.Chain = c.name
	return ce
}

// annotate attaches the chain name to configuration errors raised while resolving.
func (c *Chain) annotate(err error) error {
	if ce, ok := err.(*domain.ConfigError); ok && ce.Chain == "" {
		ce.Chain = c.name
	}
	return err
}

// --- Facade: properties delegated to the first action ---

// Actions returns the resolved actions in execution order.
func (c *Chain) Actions() []ports.Action {
	return append([]ports.Action(nil), c.actions...)
}

// ActionToStart returns the first action of the chain, or nil for an empty chain.
func (c *Chain) ActionToStart() ports.Action {
	if len(c.actions) == 0 {
		return nil
	}
	return c.actions[0]
}

// Name returns the explicit name or the name of the first action.
func (c *Chain) Name() string {
	if c.name != "" || len(c.actions) == 0 {
		return c.name
	}
	return c.actions[0].Name()
}

// Icon returns the explicit icon or the icon of the first action.
func (c *Chain) Icon() string {
	if c.icon != "" || len(c.actions) == 0 {
		return c.icon
	}
	return c.actions[0].Icon()
}

// InputRowsMin returns the override or the first action's minimum.
func (c *Chain) InputRowsMin() int {
	if c.inputRowsMin != nil {
		return *c.inputRowsMin
	}
	if len(c.actions) == 0 {
		return 0
	}
	return c.actions[0].InputRowsMin()
}

// InputRowsMax returns the override or the first action's maximum.
func (c *Chain) InputRowsMax() int {
	if c.inputRowsMax != nil {
		return *c.inputRowsMax
	}
	if len(c.actions) == 0 {
		return domain.UnlimitedRows
	}
	return c.actions[0].InputRowsMax()
}

// Undoable is always false: a chain cannot be reverted as a whole.
func (c *Chain) Undoable() bool {
	return false
}

// HasCapability delegates to the first action. A chain always calls other actions.
func (c *Chain) HasCapability(capability domain.Capability) bool {
	if capability == domain.CapabilityCallsOtherActions {
		return true
	}
	if len(c.actions) == 0 {
		return false
	}
	return c.actions[0].HasCapability(capability)
}

// SetAutocommit records the autocommit flag. The chain never commits the transaction it
// is given; that stays with the transaction owner.
func (c *Chain) SetAutocommit(enabled bool) {
	c.autocommit = enabled
}

// Autocommit reports the flag set by SetAutocommit.
func (c *Chain) Autocommit() bool {
	return c.autocommit
}

// BindSurface binds the chain and every action able to be bound to s.
func (c *Chain) BindSurface(s *domain.Surface) {
	c.surface = s
	for _, a := range c.actions {
		if b, ok := a.(ports.SurfaceBinder); ok {
			b.BindSurface(s)
		}
	}
}

// Surface returns the bound surface, if any.
func (c *Chain) Surface() *domain.Surface {
	return c.surface
}

// Object returns the meta-object of the chain.
func (c *Chain) Object() domain.MetaObject {
	return c.object
}

// UseSingleTransaction reports whether all actions share one transaction.
func (c *Chain) UseSingleTransaction() bool {
	return c.useSingleTx
}

// ResultSourceIndex returns the index of the action providing the chain result.
// Without an explicit setting it is the last action.
func (c *Chain) ResultSourceIndex() int {
	if c.resultIndex != nil {
		return *c.resultIndex
	}
	return len(c.actions) - 1
}

// InputFreezeIndex returns the index from which on the input data is frozen.
func (c *Chain) InputFreezeIndex() (int, bool) {
	if c.freezeIndex == nil {
		return 0, false
	}
	return *c.freezeIndex, true
}

// SkipIfInputEmpty reports whether actions requiring input are skipped on empty data.
func (c *Chain) SkipIfInputEmpty() bool {
	return c.skipIfEmpty
}
