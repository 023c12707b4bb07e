package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"

	"github.com/hostlink-protocol/hostlink-go/pkg/capability"
	"github.com/hostlink-protocol/hostlink-go/pkg/marshal"
	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

var (
	ctxType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// callFunc invokes fn with wire arguments coerced to its signature and
// converts the result back to a wire value.
//
// A leading context.Context parameter is injected from ctx and does not
// consume a wire argument. Results follow the usual Go shapes: none,
// (T), (error), or (T, error).
func (d *Dispatcher) callFunc(ctx context.Context, fn reflect.Value, args []wire.Value, mctx marshal.Context) (wire.Value, error) {
	ft := fn.Type()

	wantCtx := ft.NumIn() > 0 && ft.In(0) == ctxType
	numIn := ft.NumIn()
	if wantCtx {
		numIn--
	}
	if !ft.IsVariadic() && len(args) != numIn {
		return nil, capability.NewContractError(
			"operation %q member %q takes %d argument(s), got %d",
			mctx.Operation, mctx.Parameter, numIn, len(args))
	}
	if ft.IsVariadic() && len(args) < numIn-1 {
		return nil, capability.NewContractError(
			"operation %q member %q takes at least %d argument(s), got %d",
			mctx.Operation, mctx.Parameter, numIn-1, len(args))
	}

	in := make([]reflect.Value, 0, len(args)+1)
	if wantCtx {
		in = append(in, reflect.ValueOf(ctx))
	}
	for i, a := range args {
		var target reflect.Type
		idx := i
		if wantCtx {
			idx++
		}
		if ft.IsVariadic() && idx >= ft.NumIn()-1 {
			target = ft.In(ft.NumIn() - 1).Elem()
		} else {
			target = ft.In(idx)
		}
		argCtx := mctx
		argCtx.Parameter = fmt.Sprintf("%s[%d]", mctx.Parameter, i)
		nv, err := d.marshaller.FromWire(a, target, argCtx)
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(nv)
		if nv == nil {
			rv = reflect.Zero(target)
		}
		in = append(in, rv)
	}

	out, err := safeCall(fn, in)
	if err != nil {
		return nil, err
	}
	return d.collectResults(out)
}

// safeCall invokes fn, converting a panic in host code into an error so
// one bad capability cannot take down the bridge.
func safeCall(fn reflect.Value, in []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("host panic: %v", r)
		}
	}()
	return fn.Call(in), nil
}

// collectResults maps the Go return shapes onto a single wire result. A
// trailing error return short-circuits; multiple non-error results are
// not part of the contract.
func (d *Dispatcher) collectResults(out []reflect.Value) (wire.Value, error) {
	var results []reflect.Value
	for i, v := range out {
		if v.Type() == errorType {
			if i != len(out)-1 {
				return nil, fmt.Errorf("error return must be last")
			}
			if !v.IsNil() {
				return nil, v.Interface().(error)
			}
			continue
		}
		results = append(results, v)
	}
	switch len(results) {
	case 0:
		return wire.Null{}, nil
	case 1:
		return d.marshaller.ToWire(results[0].Interface())
	default:
		return nil, fmt.Errorf("too many return values (%d)", len(results))
	}
}

// goName maps a wire member name to the exported Go identifier: the
// first rune is upper-cased, the rest is verbatim.
func goName(member string) string {
	r, size := utf8.DecodeRuneInString(member)
	if r == utf8.RuneError {
		return member
	}
	return string(unicode.ToUpper(r)) + member[size:]
}
