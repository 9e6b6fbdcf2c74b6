package settings

import (
	"fmt"
	"time"
)

// Manager owns the settings groups of one host application, the feedback
// channel, and at most one persistence adapter. Groups are created lazily on
// first reference and never destroyed before the manager itself.
//
// The manager is driven synchronously from a single thread; it performs no
// locking of its own.
type Manager struct {
	adapter Adapter
	groups  map[string]*Group
	order   []string
	hooks   FeedbackHooks

	evaluator Evaluator
	logger    EvaluationLogger
}

// ManagerOption configures a manager at construction time.
type ManagerOption func(*Manager)

// WithFeedbackHook subscribes h to the manager's feedback channel.
func WithFeedbackHook(h FeedbackHook) ManagerOption {
	return func(m *Manager) {
		if h != nil {
			m.hooks = append(m.hooks, h)
		}
	}
}

// WithConstraintEvaluator replaces the evaluator used for setting
// constraints. The default is the expr engine with an internal program
// cache.
func WithConstraintEvaluator(e Evaluator) ManagerOption {
	return func(m *Manager) {
		m.evaluator = e
	}
}

// WithEvaluationLogger records every constraint evaluation attempt.
func WithEvaluationLogger(l EvaluationLogger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager constructs an empty manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		groups: map[string]*Group{},
		logger: noopEvaluationLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Bind attaches adapter as the manager's persistence backend. Binding is
// one-shot on both sides: a manager accepts one adapter, an adapter accepts
// one manager.
func (m *Manager) Bind(adapter Adapter) error {
	if adapter == nil {
		return fmt.Errorf("settings: bind: adapter is nil")
	}
	if m.adapter != nil {
		return ErrAdapterBound
	}
	if err := adapter.Bind(m); err != nil {
		return err
	}
	m.adapter = adapter
	return nil
}

// Adapter returns the bound adapter, or nil.
func (m *Manager) Adapter() Adapter {
	return m.adapter
}

// Group returns the group registered under key, creating it on first use.
func (m *Manager) Group(key string) *Group {
	if g, ok := m.groups[key]; ok {
		return g
	}
	g := newGroup(m, key)
	m.groups[key] = g
	m.order = append(m.order, key)
	return g
}

// FindGroup returns the group registered under key, or nil. Unlike Group it
// never creates one.
func (m *Manager) FindGroup(key string) *Group {
	return m.groups[key]
}

// Groups returns a snapshot of all known groups in creation order.
func (m *Manager) Groups() []*Group {
	out := make([]*Group, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.groups[key])
	}
	return out
}

// SaveDirty persists every currently dirty setting through the bound
// adapter.
func (m *Manager) SaveDirty() error {
	if m.adapter == nil {
		return ErrAdapterUnbound
	}
	return m.adapter.SaveDirty()
}

// DeleteGroup removes one group's persisted values from the store. Live
// settings are untouched.
func (m *Manager) DeleteGroup(key string) error {
	if m.adapter == nil {
		return ErrAdapterUnbound
	}
	return m.adapter.DeleteGroup(key)
}

// DeleteAll removes every persisted value from the store. Live settings are
// untouched.
func (m *Manager) DeleteAll() error {
	if m.adapter == nil {
		return ErrAdapterUnbound
	}
	return m.adapter.DeleteAll()
}

// Feedback emits a feedback event to every subscribed hook. It never fails;
// a manager with no hooks drops the event.
func (m *Manager) Feedback(severity Severity, message string, cause error) {
	m.hooks.Notify(Feedback{
		Severity: severity,
		Message:  message,
		Cause:    cause,
	})
}

// AddFeedbackHook subscribes h after construction.
func (m *Manager) AddFeedbackHook(h FeedbackHook) {
	if h != nil {
		m.hooks = append(m.hooks, h)
	}
}

func (m *Manager) loadSetting(s Setting) {
	if m.adapter != nil {
		m.adapter.LoadSetting(s)
	}
}

func (m *Manager) constraintEvaluator() Evaluator {
	if m.evaluator == nil {
		m.evaluator = NewExprEvaluator(ExprWithProgramCache(newMapProgramCache()))
	}
	return m.evaluator
}

// evaluateConstraint runs expr against ctx and coerces the result to a
// boolean verdict.
func (m *Manager) evaluateConstraint(ctx ConstraintContext, expr string) (bool, error) {
	ev := m.constraintEvaluator()
	start := time.Now()
	out, err := ev.Evaluate(ctx, expr)
	m.logger.LogEvaluation(EvaluationEvent{
		Expr:     expr,
		GroupKey: ctx.GroupKey,
		Key:      ctx.Key,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return false, err
	}
	verdict, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("settings: constraint %q on %s/%s: non-boolean result %T",
			expr, ctx.GroupKey, ctx.Key, out)
	}
	return verdict, nil
}
