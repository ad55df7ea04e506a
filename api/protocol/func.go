package protocol

import (
	"github.com/cockroachdb/errors"
)

// Values bundles the results of a computation that assigns several
// variables.
func Values(vs ...any) []any {
	return vs
}

func arg[T any](args []any, i int) (T, error) {
	v, ok := args[i].(T)
	if !ok {
		var zero T
		return zero, errors.Newf("argument %d: expected %T, got %T", i, zero, args[i])
	}
	return v, nil
}

func checkArgs(args []any, want int) error {
	if len(args) != want {
		return errors.Newf("expected %d arguments, got %d", want, len(args))
	}
	return nil
}

// Func0 adapts a computation without inputs.
func Func0[R any](f func() R) Func {
	return func(args ...any) (any, error) {
		if err := checkArgs(args, 0); err != nil {
			return nil, err
		}
		return f(), nil
	}
}

// Func1 adapts a typed computation over one input.
func Func1[A, R any](f func(A) R) Func {
	return func(args ...any) (any, error) {
		if err := checkArgs(args, 1); err != nil {
			return nil, err
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		return f(a), nil
	}
}

// Func2 adapts a typed computation over two inputs.
func Func2[A, B, R any](f func(A, B) R) Func {
	return func(args ...any) (any, error) {
		if err := checkArgs(args, 2); err != nil {
			return nil, err
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		return f(a, b), nil
	}
}

// Func3 adapts a typed computation over three inputs.
func Func3[A, B, C, R any](f func(A, B, C) R) Func {
	return func(args ...any) (any, error) {
		if err := checkArgs(args, 3); err != nil {
			return nil, err
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		c, err := arg[C](args, 2)
		if err != nil {
			return nil, err
		}
		return f(a, b, c), nil
	}
}

// FuncN adapts a computation over any number of inputs of the same type.
func FuncN[A, R any](f func(...A) R) Func {
	return func(args ...any) (any, error) {
		typed := make([]A, len(args))
		for i := range args {
			a, err := arg[A](args, i)
			if err != nil {
				return nil, err
			}
			typed[i] = a
		}
		return f(typed...), nil
	}
}

// Const returns a computation that assigns the given value.
func Const(v any) Func {
	return func(...any) (any, error) {
		return v, nil
	}
}
