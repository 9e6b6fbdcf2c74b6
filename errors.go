package settings

import (
	"errors"
	"fmt"
)

// ErrAdapterBound reports an attempt to bind an adapter that already belongs
// to a manager, or to bind a second adapter to a manager.
var ErrAdapterBound = errors.New("settings: adapter already bound")

// ErrAdapterUnbound reports a persistence operation on a manager with no
// bound adapter.
var ErrAdapterUnbound = errors.New("settings: no adapter bound")

// ErrNilGroup reports a nil group passed to an operation that requires one.
var ErrNilGroup = errors.New("settings: group is nil")

// ErrNilManager reports a nil manager passed to an adapter bind.
var ErrNilManager = errors.New("settings: manager is nil")

// ErrGroupSealed reports a registration attempt on a sealed group.
var ErrGroupSealed = errors.New("settings: group is sealed")

// ErrTypeMismatch reports a fetch of an existing setting under a different
// value type than it was registered with.
var ErrTypeMismatch = errors.New("settings: setting registered with a different type")

// ErrNotEnum reports an enum setting constructed over a type that is not a
// declared enumeration type.
var ErrNotEnum = errors.New("settings: type is not an enumeration")

// ErrNotReference reports an object setting constructed over a non-reference
// value type.
var ErrNotReference = errors.New("settings: type is not a reference type")

// ErrEnumValue reports a persisted integral value that is not one of the
// declared enumerators for an enum setting.
var ErrEnumValue = errors.New("settings: not a declared enumerator")

// ErrConstraint reports a persisted value rejected by a setting's constraint
// expression.
var ErrConstraint = errors.New("settings: value rejected by constraint")

// ConstraintError captures constraint metadata alongside the originating
// error raised while evaluating a setting constraint.
type ConstraintError struct {
	Engine   string
	Expr     string
	GroupKey string
	Key      string
	Err      error
}

func (e *ConstraintError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("settings: %s constraint %s on %s/%s: %v",
		e.Engine, describeExpression(e.Expr), e.GroupKey, e.Key, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEngineError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var cerr *ConstraintError
	if errors.As(err, &cerr) {
		return err
	}
	return fmt.Errorf("settings: %s constraint: %w", engine, err)
}

func wrapConstraintError(engine, expr, groupKey, key string, err error) error {
	if err == nil {
		return nil
	}

	var cerr *ConstraintError
	if errors.As(err, &cerr) {
		if cerr.Engine == "" {
			cerr.Engine = engine
		}
		if cerr.Expr == "" {
			cerr.Expr = expr
		}
		if cerr.GroupKey == "" {
			cerr.GroupKey = groupKey
		}
		if cerr.Key == "" {
			cerr.Key = key
		}
		return cerr
	}

	return &ConstraintError{
		Engine:   engine,
		Expr:     expr,
		GroupKey: groupKey,
		Key:      key,
		Err:      err,
	}
}
