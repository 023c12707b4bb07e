package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"reflect"

	"github.com/hostlink-protocol/hostlink-go/pkg/capability"
	"github.com/hostlink-protocol/hostlink-go/pkg/marshal"
	"github.com/hostlink-protocol/hostlink-go/pkg/policy"
	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

// Authenticator checks a request's session token. The session package
// provides the standard implementation.
type Authenticator interface {
	Authorize(token string) error
}

// Dispatcher executes bridge requests against a frozen capability
// surface. Safe for concurrent use once constructed.
type Dispatcher struct {
	surface    *capability.Surface
	policy     *policy.Policy
	marshaller *marshal.Marshaller

	auth      Authenticator
	invoker   CallbackInvoker
	cancels   *CancelRegistry
	callbacks *CallbackRegistry
	logger    *slog.Logger
}

// New creates a dispatcher over a surface, its allowlist policy, and a
// marshaller sharing the handle registry.
func New(surface *capability.Surface, pol *policy.Policy, m *marshal.Marshaller) *Dispatcher {
	return &Dispatcher{
		surface:    surface,
		policy:     pol,
		marshaller: m,
		cancels:    NewCancelRegistry(),
		callbacks:  NewCallbackRegistry(),
		logger:     slog.New(slog.DiscardHandler),
	}
}

// SetAuthenticator installs session token checking. Without one, every
// token is accepted.
func (d *Dispatcher) SetAuthenticator(auth Authenticator) {
	d.auth = auth
}

// SetCallbackInvoker installs the outbound callback path host code sees
// through its request context.
func (d *Dispatcher) SetCallbackInvoker(inv CallbackInvoker) {
	d.invoker = inv
}

// SetLogger installs a structured logger for request tracing.
func (d *Dispatcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// Callbacks returns the local callback registry serving invokeCallback.
func (d *Dispatcher) Callbacks() *CallbackRegistry {
	return d.callbacks
}

// Cancels returns the cancel registry tracking in-flight operations.
func (d *Dispatcher) Cancels() *CancelRegistry {
	return d.cancels
}

// Handle executes one request and always produces a response; errors are
// folded into the response status.
func (d *Dispatcher) Handle(ctx context.Context, req *wire.Request) *wire.Response {
	if err := req.Validate(); err != nil {
		return d.respondErr(req, capability.NewContractError("%s", err.Error()))
	}

	// Liveness probes skip authentication.
	if req.Op == wire.OpPing {
		return d.respond(req, wire.Null{})
	}

	if d.auth != nil {
		if err := d.auth.Authorize(req.Token); err != nil {
			return d.respondErr(req, capability.ErrUnauthorized)
		}
	}

	// Cancel is a control operation, not an invocation; an unknown id is
	// a successful no-op.
	if req.Op == wire.OpCancel {
		d.cancels.Cancel(req.OperationID)
		return d.respond(req, wire.Null{})
	}

	// Dispose releases one registry entry. Idempotent: disposing an id
	// that is already gone succeeds, so a controller can release
	// eagerly without tracking what the host revoked.
	if req.Op == wire.OpDisposeHandle {
		d.marshaller.Handles().Revoke(req.HandleID)
		return d.respond(req, wire.Null{})
	}

	ctx, release := d.cancels.Register(ctx, req.OperationID)
	defer release()
	if d.invoker != nil {
		ctx = WithCallbacks(ctx, d.invoker)
	}

	var result wire.Value
	var err error
	switch req.Op {
	case wire.OpCreateObject, wire.OpInvokeStaticMethod,
		wire.OpGetStaticProperty, wire.OpSetStaticProperty:
		result, err = d.freshLookup(ctx, req)
	case wire.OpInvokeMethod, wire.OpGetProperty, wire.OpSetProperty:
		result, err = d.handleOp(ctx, req)
	case wire.OpInvokeCallback:
		result, err = d.invokeLocalCallback(ctx, req)
	default:
		err = capability.NewContractError("unsupported operation %q", req.Op)
	}

	if err != nil {
		return d.respondErr(req, err)
	}
	return d.respond(req, result)
}

// freshLookup executes the allowlist-gated operations. The allowlist
// check and every existence check share one failure mode so the remote
// side cannot distinguish blocked from missing.
func (d *Dispatcher) freshLookup(ctx context.Context, req *wire.Request) (wire.Value, error) {
	if !d.policy.IsAssemblyAllowed(req.Assembly) {
		return nil, capability.ErrNotFound
	}
	asm, ok := d.surface.Assembly(req.Assembly)
	if !ok {
		return nil, capability.ErrNotFound
	}
	entry, ok := asm.Type(req.TypeName)
	if !ok {
		return nil, capability.ErrNotFound
	}

	mctx := marshal.Context{Operation: string(req.Op), Parameter: req.Member}
	switch req.Op {
	case wire.OpCreateObject:
		ctor, ok := entry.Constructor()
		if !ok {
			return nil, capability.ErrNotFound
		}
		mctx.Parameter = req.TypeName
		return d.callFunc(ctx, ctor, req.Args, mctx)

	case wire.OpInvokeStaticMethod:
		fn, ok := entry.StaticMethod(req.Member)
		if !ok {
			return nil, capability.ErrNotFound
		}
		return d.callFunc(ctx, fn, req.Args, mctx)

	case wire.OpGetStaticProperty:
		getter, ok := entry.StaticGetter(req.Member)
		if !ok {
			return nil, capability.ErrNotFound
		}
		return d.callFunc(ctx, getter, nil, mctx)

	case wire.OpSetStaticProperty:
		setter, ok := entry.StaticSetter(req.Member)
		if !ok {
			return nil, capability.ErrNotFound
		}
		return d.callFunc(ctx, setter, []wire.Value{req.Value}, mctx)
	}
	return nil, capability.NewContractError("operation %q is not a fresh lookup", req.Op)
}

// handleOp executes the handle-based operations. Handles bypass the
// allowlist: possession of a valid id is the authorization.
func (d *Dispatcher) handleOp(ctx context.Context, req *wire.Request) (wire.Value, error) {
	obj, err := d.marshaller.Handles().Resolve(req.HandleID)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(obj)
	mctx := marshal.Context{Operation: string(req.Op), Parameter: req.Member}

	switch req.Op {
	case wire.OpInvokeMethod:
		m := rv.MethodByName(goName(req.Member))
		if !m.IsValid() {
			return nil, capability.ErrNotFound
		}
		return d.callFunc(ctx, m, req.Args, mctx)

	case wire.OpGetProperty:
		if m := rv.MethodByName(goName(req.Member)); m.IsValid() {
			return d.callFunc(ctx, m, nil, mctx)
		}
		if fv, ok := structField(rv, req.Member); ok {
			return d.marshaller.ToWire(fv.Interface())
		}
		return nil, capability.ErrNotFound

	case wire.OpSetProperty:
		if m := rv.MethodByName("Set" + goName(req.Member)); m.IsValid() {
			return d.callFunc(ctx, m, []wire.Value{req.Value}, mctx)
		}
		if fv, ok := structField(rv, req.Member); ok && fv.CanSet() {
			nv, err := d.marshaller.FromWire(req.Value, fv.Type(), mctx)
			if err != nil {
				return nil, err
			}
			if nv == nil {
				fv.Set(reflect.Zero(fv.Type()))
			} else {
				fv.Set(reflect.ValueOf(nv))
			}
			return wire.Null{}, nil
		}
		return nil, capability.ErrNotFound
	}
	return nil, capability.NewContractError("operation %q is not handle-based", req.Op)
}

// invokeLocalCallback serves an inbound invokeCallback against the local
// callback registry. Used on the controller side of the bridge.
func (d *Dispatcher) invokeLocalCallback(ctx context.Context, req *wire.Request) (wire.Value, error) {
	fn, ok := d.callbacks.Lookup(req.CallbackID)
	if !ok {
		return nil, capability.ErrNotFound
	}
	mctx := marshal.Context{Operation: string(req.Op), Parameter: req.CallbackID}
	return d.callFunc(ctx, fn, req.Args, mctx)
}

// structField resolves an exported struct field behind a handle, for
// plain-data objects without accessor methods.
func structField(rv reflect.Value, member string) (reflect.Value, bool) {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	fv := rv.FieldByName(goName(member))
	if !fv.IsValid() {
		return reflect.Value{}, false
	}
	return fv, true
}

func (d *Dispatcher) respond(req *wire.Request, result wire.Value) *wire.Response {
	d.logger.Debug("request ok", "op", string(req.Op), "id", req.MessageID)
	return &wire.Response{
		MessageID: req.MessageID,
		Status:    wire.StatusOK,
		Result:    result,
	}
}

func (d *Dispatcher) respondErr(req *wire.Request, err error) *wire.Response {
	status, msg := classify(err)
	d.logger.Debug("request failed",
		"op", string(req.Op), "id", req.MessageID, "status", string(status))
	return &wire.Response{
		MessageID: req.MessageID,
		Status:    status,
		Error:     &wire.ErrorPayload{Message: msg},
	}
}

// classify maps the error taxonomy onto response statuses. Not-found
// responses always carry the one canonical message; anything more would
// leak whether the target exists.
func classify(err error) (wire.Status, string) {
	switch {
	case errors.Is(err, capability.ErrUnauthorized):
		return wire.StatusUnauthorized, "unauthorized"
	case errors.Is(err, capability.ErrNotFound):
		return wire.StatusNotFound, capability.ErrNotFound.Error()
	case capability.IsContractError(err):
		return wire.StatusContractViolation, err.Error()
	case capability.IsCoercionError(err):
		return wire.StatusCoercionError, err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return wire.StatusCancelled, "operation cancelled"
	default:
		return wire.StatusInternal, err.Error()
	}
}
