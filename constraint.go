package settings

import "time"

// ConstraintContext carries the inputs bound into a constraint expression.
// Expressions see the candidate value as "value", the setting default as
// "defaultValue", plus "key", "group", and "metadata".
type ConstraintContext struct {
	GroupKey string
	Key      string
	Value    any
	Default  any
	Metadata map[string]any
}

func (ctx ConstraintContext) withDefaultMetadata() ConstraintContext {
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx ConstraintContext) binding() map[string]any {
	return map[string]any{
		"value":        ctx.Value,
		"defaultValue": ctx.Default,
		"key":          ctx.Key,
		"group":        ctx.GroupKey,
		"metadata":     ctx.Metadata,
	}
}

// Evaluator executes constraint expressions against a context.
type Evaluator interface {
	Evaluate(ctx ConstraintContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable constraint program.
type CompiledRule interface {
	Evaluate(ctx ConstraintContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// ProgramCache stores compiled constraint programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// mapProgramCache is the manager's default single-threaded program cache.
type mapProgramCache struct {
	programs map[string]any
}

func newMapProgramCache() *mapProgramCache {
	return &mapProgramCache{programs: map[string]any{}}
}

func (c *mapProgramCache) Get(key string) (any, bool) {
	value, ok := c.programs[key]
	return value, ok
}

func (c *mapProgramCache) Set(key string, value any) {
	c.programs[key] = value
}

// EvaluationEvent describes one constraint evaluation attempt for logging.
type EvaluationEvent struct {
	Expr     string
	GroupKey string
	Key      string
	Duration time.Duration
	Err      error
}

// EvaluationLogger records constraint evaluation events.
type EvaluationLogger interface {
	LogEvaluation(EvaluationEvent)
}

// EvaluationLoggerFunc adapts a function to EvaluationLogger.
type EvaluationLoggerFunc func(EvaluationEvent)

// LogEvaluation implements EvaluationLogger.
func (f EvaluationLoggerFunc) LogEvaluation(event EvaluationEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluationLogger struct{}

func (noopEvaluationLogger) LogEvaluation(EvaluationEvent) {}
