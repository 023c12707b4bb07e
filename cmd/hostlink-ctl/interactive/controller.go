// Package interactive provides the interactive command-line interface
// for the HostLink controller.
package interactive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/hostlink-protocol/hostlink-go/pkg/bridge"
	"github.com/hostlink-protocol/hostlink-go/pkg/connection"
	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

// defaultTimeout bounds synchronous REPL operations.
const defaultTimeout = 30 * time.Second

// Controller handles interactive mode for hostlink-ctl.
type Controller struct {
	address string
	config  bridge.ClientConfig
	sup     *connection.Supervisor
	rl      *readline.Instance

	mu      sync.Mutex
	client  *bridge.Client
	handles map[string]handleEntry
	nextRef int
}

// handleEntry tracks a remote object handle under a local $N alias.
type handleEntry struct {
	ID     string
	TypeID string
}

// New creates a new interactive controller. A session supervisor
// redials with backoff when the host drops the session.
func New(address string, config bridge.ClientConfig) (*Controller, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "hostlink> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := &Controller{
		address: address,
		config:  config,
		rl:      rl,
		handles: make(map[string]handleEntry),
	}
	c.sup = connection.NewSupervisor(c.dial)
	c.sup.OnRedial(func(attempt int, delay time.Duration) {
		fmt.Fprintf(rl.Stdout(), "Reconnecting (attempt %d, waiting %s)...\n", attempt, delay.Round(time.Millisecond))
	})
	c.sup.OnEstablished(func() {
		fmt.Fprintln(rl.Stdout(), "Connected.")
	})

	return c, nil
}

// dial establishes one session and watches for its end. Handles from a
// previous session are dropped; the host revoked them when it ended.
func (c *Controller) dial(ctx context.Context) error {
	client, err := bridge.Dial(ctx, c.address, c.config)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.client = client
	c.handles = make(map[string]handleEntry)
	c.nextRef = 0
	c.mu.Unlock()

	go func() {
		<-client.Done()
		c.sup.SessionDown()
	}()
	return nil
}

// Connect establishes the initial session and arms the redial loop.
func (c *Controller) Connect(ctx context.Context) error {
	return c.sup.Start(ctx)
}

// Stdout returns a writer that coordinates with the readline prompt.
func (c *Controller) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that coordinates with the readline prompt.
func (c *Controller) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Close shuts down the supervisor and the active client.
func (c *Controller) Close() {
	c.sup.Shutdown()
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client != nil {
		client.Close()
	}
}

func (c *Controller) currentClient() (*bridge.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil || !c.sup.Established() {
		return nil, fmt.Errorf("not connected (state: %s)", c.sup.State())
	}
	return c.client, nil
}

// Run starts the interactive command loop.
func (c *Controller) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "ping":
			c.cmdPing()

		case "new":
			c.cmdNew(args)

		case "static":
			c.cmdStatic(args)

		case "getstatic":
			c.cmdGetStatic(args)

		case "setstatic":
			c.cmdSetStatic(args)

		case "call":
			c.cmdCall(args)

		case "get":
			c.cmdGet(args)

		case "set":
			c.cmdSet(args)

		case "dispose":
			c.cmdDispose(args)

		case "bg":
			c.cmdBackground(args)

		case "cancel":
			c.cmdCancel(args)

		case "handles":
			c.cmdHandles()

		case "status":
			c.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (try 'help')\n", cmd)
		}
	}
}

func (c *Controller) printHelp() {
	w := c.rl.Stdout()
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  ping                                       Check host liveness")
	fmt.Fprintln(w, "  new <assembly> <type> [args...]            Create a remote object")
	fmt.Fprintln(w, "  static <assembly> <type> <member> [args]   Invoke a static method")
	fmt.Fprintln(w, "  getstatic <assembly> <type> <member>       Read a static property")
	fmt.Fprintln(w, "  setstatic <assembly> <type> <member> <v>   Write a static property")
	fmt.Fprintln(w, "  call <$N> <member> [args...]               Invoke a method on a handle")
	fmt.Fprintln(w, "  get <$N> <member>                          Read a handle property")
	fmt.Fprintln(w, "  set <$N> <member> <value>                  Write a handle property")
	fmt.Fprintln(w, "  dispose <$N>                               Release a handle on the host")
	fmt.Fprintln(w, "  bg <opId> static|call <target...>          Run an invocation in the background")
	fmt.Fprintln(w, "  cancel <opId>                              Cancel a background invocation")
	fmt.Fprintln(w, "  handles                                    List known handles")
	fmt.Fprintln(w, "  status                                     Show connection state")
	fmt.Fprintln(w, "  quit                                       Exit")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Arguments: numbers, true/false, $N handle refs; anything else is a string.")
}

func (c *Controller) cmdPing() {
	client, err := c.currentClient()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	start := time.Now()
	if err := client.Ping(ctx); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Ping failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Pong (%s)\n", time.Since(start).Round(time.Microsecond))
}

func (c *Controller) cmdNew(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: new <assembly> <type> [args...]")
		return
	}
	client, err := c.currentClient()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	wireArgs, err := c.parseArgs(args[2:])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result, err := client.CreateObject(ctx, args[0], args[1], wireArgs...)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	c.printResult(result)
}

func (c *Controller) cmdStatic(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: static <assembly> <type> <member> [args...]")
		return
	}
	client, err := c.currentClient()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	wireArgs, err := c.parseArgs(args[3:])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result, err := client.InvokeStatic(ctx, args[0], args[1], args[2], wireArgs...)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	c.printResult(result)
}

func (c *Controller) cmdGetStatic(args []string) {
	if len(args) != 3 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: getstatic <assembly> <type> <member>")
		return
	}
	client, err := c.currentClient()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result, err := client.GetStaticProperty(ctx, args[0], args[1], args[2])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	c.printResult(result)
}

func (c *Controller) cmdSetStatic(args []string) {
	if len(args) != 4 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: setstatic <assembly> <type> <member> <value>")
		return
	}
	client, err := c.currentClient()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	value, err := c.parseArg(args[3])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := client.SetStaticProperty(ctx, args[0], args[1], args[2], value); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "OK")
}

func (c *Controller) cmdCall(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: call <$N> <member> [args...]")
		return
	}
	client, err := c.currentClient()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	handleID, err := c.resolveHandle(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	wireArgs, err := c.parseArgs(args[2:])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result, err := client.InvokeMethod(ctx, handleID, args[1], wireArgs...)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	c.printResult(result)
}

func (c *Controller) cmdGet(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: get <$N> <member>")
		return
	}
	client, err := c.currentClient()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	handleID, err := c.resolveHandle(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result, err := client.GetProperty(ctx, handleID, args[1])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	c.printResult(result)
}

func (c *Controller) cmdSet(args []string) {
	if len(args) != 3 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: set <$N> <member> <value>")
		return
	}
	client, err := c.currentClient()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	handleID, err := c.resolveHandle(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	value, err := c.parseArg(args[2])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := client.SetProperty(ctx, handleID, args[1], value); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "OK")
}

// cmdDispose releases a handle on the host and drops its local alias.
func (c *Controller) cmdDispose(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: dispose <$N>")
		return
	}
	client, err := c.currentClient()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	handleID, err := c.resolveHandle(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := client.DisposeHandle(ctx, handleID); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	if strings.HasPrefix(args[0], "$") {
		c.mu.Lock()
		delete(c.handles, args[0])
		c.mu.Unlock()
	}
	fmt.Fprintln(c.rl.Stdout(), "Disposed")
}

// cmdBackground runs an invocation with a client-supplied operation id
// so it can be cancelled while in flight.
func (c *Controller) cmdBackground(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: bg <opId> static <assembly> <type> <member> [args...]")
		fmt.Fprintln(c.rl.Stdout(), "       bg <opId> call <$N> <member> [args...]")
		return
	}
	client, err := c.currentClient()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	opID := args[0]
	req := &wire.Request{OperationID: opID}

	switch args[1] {
	case "static":
		if len(args) < 5 {
			fmt.Fprintln(c.rl.Stdout(), "Usage: bg <opId> static <assembly> <type> <member> [args...]")
			return
		}
		wireArgs, err := c.parseArgs(args[5:])
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
			return
		}
		req.Op = wire.OpInvokeStaticMethod
		req.Assembly = args[2]
		req.TypeName = args[3]
		req.Member = args[4]
		req.Args = wireArgs

	case "call":
		if len(args) < 4 {
			fmt.Fprintln(c.rl.Stdout(), "Usage: bg <opId> call <$N> <member> [args...]")
			return
		}
		handleID, err := c.resolveHandle(args[2])
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
			return
		}
		wireArgs, err := c.parseArgs(args[4:])
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
			return
		}
		req.Op = wire.OpInvokeMethod
		req.HandleID = handleID
		req.Member = args[3]
		req.Args = wireArgs

	default:
		fmt.Fprintf(c.rl.Stdout(), "Unknown background mode: %s (use static or call)\n", args[1])
		return
	}

	fmt.Fprintf(c.rl.Stdout(), "Started operation %s\n", opID)
	go func() {
		resp, err := client.Invoke(context.Background(), req)
		w := c.rl.Stdout()
		if err != nil {
			fmt.Fprintf(w, "[%s] failed: %v\n", opID, err)
			return
		}
		result, err := wire.EncodeValue(resp.Result)
		if err != nil {
			fmt.Fprintf(w, "[%s] done\n", opID)
			return
		}
		fmt.Fprintf(w, "[%s] done: %s\n", opID, result)
	}()
}

func (c *Controller) cmdCancel(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: cancel <opId>")
		return
	}
	client, err := c.currentClient()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := client.Cancel(ctx, args[0]); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Cancelled %s\n", args[0])
}

func (c *Controller) cmdHandles() {
	c.mu.Lock()
	refs := make([]string, 0, len(c.handles))
	for ref := range c.handles {
		refs = append(refs, ref)
	}
	entries := make(map[string]handleEntry, len(c.handles))
	for ref, e := range c.handles {
		entries[ref] = e
	}
	c.mu.Unlock()

	if len(refs) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No handles.")
		return
	}
	sort.Strings(refs)
	for _, ref := range refs {
		e := entries[ref]
		fmt.Fprintf(c.rl.Stdout(), "  %s  %s (%s)\n", ref, e.ID, e.TypeID)
	}
}

func (c *Controller) cmdStatus() {
	w := c.rl.Stdout()
	fmt.Fprintf(w, "Address: %s\n", c.address)
	fmt.Fprintf(w, "State: %s\n", c.sup.State())
	if attempts := c.sup.Attempts(); attempts > 0 {
		fmt.Fprintf(w, "Reconnect attempts: %d\n", attempts)
	}
}

// printResult renders a wire value, registering handle refs under a
// local $N alias.
func (c *Controller) printResult(result wire.Value) {
	if id, typeID, ok := wire.HandleRef(result); ok {
		c.mu.Lock()
		c.nextRef++
		ref := fmt.Sprintf("$%d", c.nextRef)
		c.handles[ref] = handleEntry{ID: id, TypeID: typeID}
		c.mu.Unlock()
		fmt.Fprintf(c.rl.Stdout(), "%s = %s (%s)\n", ref, id, typeID)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), wire.Render(result))
}

// resolveHandle maps a $N alias to its handle id. Raw handle ids pass
// through.
func (c *Controller) resolveHandle(ref string) (string, error) {
	if !strings.HasPrefix(ref, "$") {
		return ref, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.handles[ref]
	if !ok {
		return "", fmt.Errorf("unknown handle ref %s", ref)
	}
	return entry.ID, nil
}

func (c *Controller) parseArgs(args []string) ([]wire.Value, error) {
	values := make([]wire.Value, 0, len(args))
	for _, arg := range args {
		v, err := c.parseArg(arg)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// parseArg converts a REPL token to a wire value. Handle refs, bools,
// and numbers are recognized; everything else is a string.
func (c *Controller) parseArg(arg string) (wire.Value, error) {
	if strings.HasPrefix(arg, "$") {
		c.mu.Lock()
		entry, ok := c.handles[arg]
		c.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("unknown handle ref %s", arg)
		}
		return wire.NewHandleRef(entry.ID, entry.TypeID), nil
	}
	switch arg {
	case "true":
		return wire.Bool(true), nil
	case "false":
		return wire.Bool(false), nil
	case "null":
		return wire.Null{}, nil
	}
	if i, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return wire.Int(i), nil
	}
	if f, err := strconv.ParseFloat(arg, 64); err == nil {
		return wire.Float(f), nil
	}
	return wire.String(strings.Trim(arg, `"`)), nil
}
