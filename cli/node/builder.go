// This file contains the implementation of a CLI builder.
//
// Documentation Last Review: 19.10.2026
//

package node

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/inkconn"
	"go.dedis.ch/inkconn/cli"
	"go.dedis.ch/inkconn/cli/ucli"
	"golang.org/x/xerrors"
)

const (
	// AppName is the name of the application.
	AppName = "inkd"

	// ConfigFlag is the name of the global flag that defines the folder of the
	// configuration and the socket.
	ConfigFlag = "config"
)

// request is the message sent by a client to the daemon.
type request struct {
	Action uint16  `json:"action"`
	Flags  FlagSet `json:"flags"`
}

// cliBuilder is an application builder that will build a CLI to start and
// control a daemon.
//
// - implements node.Builder
// - implements cli.Builder
type cliBuilder struct {
	cli.Builder

	daemonFactory DaemonFactory
	injector      Injector
	actions       *actionMap
	startFlags    []cli.Flag
	inits         []Initializer

	// In production, the daemon is stopped via SIGTERM. In case of testing, the
	// channel is filled by the test instead.
	enableSignal bool
	sigs         chan os.Signal
}

// NewBuilder returns a new empty builder.
func NewBuilder(inits ...Initializer) cli.Builder {
	return NewBuilderWithCfg(nil, nil, inits...)
}

// NewBuilderWithCfg returns a new empty builder with specific configurations.
func NewBuilderWithCfg(sigs chan os.Signal, out io.Writer, inits ...Initializer) cli.Builder {
	if out == nil {
		out = os.Stdout
	}

	enabled := false

	if sigs == nil {
		sigs = make(chan os.Signal, 1)
		enabled = true
	}

	injector := NewInjector()
	actions := &actionMap{}

	builder := ucli.NewBuilder(AppName, nil, cli.StringFlag{
		Name:  ConfigFlag,
		Usage: "path to the config folder",
		Value: "." + AppName,
	})

	return &cliBuilder{
		Builder:  builder,
		injector: injector,
		actions:  actions,
		daemonFactory: socketFactory{
			injector: injector,
			actions:  actions,
			out:      out,
		},
		enableSignal: enabled,
		sigs:         sigs,
		inits:        inits,
	}
}

// SetStartFlags implements node.Builder. It appends the given flags to the list
// of flags that will be used to create the start command.
func (b *cliBuilder) SetStartFlags(flags ...cli.Flag) {
	b.startFlags = append(b.startFlags, flags...)
}

// MakeAction implements node.Builder. It creates a CLI action that sends the
// flags to the daemon, which executes the template.
func (b *cliBuilder) MakeAction(tmpl ActionTemplate) cli.Action {
	index := b.actions.Set(tmpl)

	return func(c cli.Flags) error {
		client, err := b.daemonFactory.ClientFromContext(c)
		if err != nil {
			return xerrors.Errorf("couldn't make client: %v", err)
		}

		req := request{
			Action: index,
			Flags:  make(FlagSet),
		}

		// The daemon needs the same flags and values as the CLI.
		ctx, ok := c.(*urfave.Context)
		if ok {
			lookupFlags(req.Flags, ctx)
		}

		buf, err := json.Marshal(req)
		if err != nil {
			return xerrors.Errorf("failed to marshal request: %v", err)
		}

		err = client.Send(buf)
		if err != nil {
			return xerrors.Errorf("couldn't send action: %v", err)
		}

		return nil
	}
}

func lookupFlags(fset FlagSet, ctx *urfave.Context) {
	for _, ancestor := range ctx.Lineage() {
		if ancestor.Command != nil {
			fill(fset, ancestor.Command.Flags, ancestor)
		}

		if ancestor.App != nil {
			fill(fset, ancestor.App.Flags, ancestor)
		}
	}
}

func fill(fset FlagSet, flags []urfave.Flag, ctx *urfave.Context) {
	for _, flag := range flags {
		names := flag.Names()
		if len(names) == 0 {
			continue
		}

		// The closest context has the priority.
		_, found := fset[names[0]]
		if found {
			continue
		}

		value := lookupValue(ctx, names[0])
		if value == nil {
			continue
		}

		// StringSlice does not serialize correctly with JSON so the actual
		// []string is used.
		slice, ok := value.(urfave.StringSlice)
		if ok {
			value = slice.Value()
		}

		fset[names[0]] = value
	}
}

// lookupValue returns the value of the flag, or nil when the flag set of the
// context does not define it.
func lookupValue(ctx *urfave.Context, name string) (value interface{}) {
	defer func() {
		if recover() != nil {
			value = nil
		}
	}()

	return ctx.Value(name)
}

// Build implements node.Builder. It returns the application.
func (b *cliBuilder) Build() cli.Application {
	for _, controller := range b.inits {
		controller.SetCommands(b)
	}

	cmd := b.SetCommand("start")
	cmd.SetDescription("start the daemon")
	cmd.SetFlags(b.startFlags...)
	cmd.SetAction(b.start)

	return b.Builder.Build()
}

func (b *cliBuilder) start(flags cli.Flags) error {
	if b.enableSignal {
		signal.Notify(b.sigs, syscall.SIGINT, syscall.SIGTERM)

		defer signal.Stop(b.sigs)
	}

	dir := configDir(flags)
	if dir != "" {
		err := os.MkdirAll(dir, 0700)
		if err != nil {
			return xerrors.Errorf("couldn't make path: %v", err)
		}
	}

	daemon, err := b.daemonFactory.DaemonFromContext(flags)
	if err != nil {
		return xerrors.Errorf("couldn't make daemon: %v", err)
	}

	for _, controller := range b.inits {
		err = controller.OnStart(flags, b.injector)
		if err != nil {
			return xerrors.Errorf("couldn't run the controller: %v", err)
		}
	}

	// Daemon is started after the controllers so that everything has started
	// when the daemon is available.
	err = daemon.Listen()
	if err != nil {
		return xerrors.Errorf("couldn't start the daemon: %v", err)
	}

	defer daemon.Close()

	inkconn.Logger.Info().Str("config", dir).Msg("daemon has started")

	<-b.sigs

	// Controllers are stopped in reverse order so that high level components
	// are stopped before lower level ones.
	for i := len(b.inits) - 1; i >= 0; i-- {
		err = b.inits[i].OnStop(b.injector)
		if err != nil {
			return xerrors.Errorf("couldn't stop controller: %v", err)
		}
	}

	inkconn.Logger.Trace().Msg("daemon has been stopped")

	return nil
}

func configDir(flags cli.Flags) string {
	if flags == nil {
		return ""
	}

	return flags.Path(ConfigFlag)
}

// actionMap stores actions and assigns a unique index to each.
type actionMap struct {
	list []ActionTemplate
}

func (m *actionMap) Set(a ActionTemplate) uint16 {
	m.list = append(m.list, a)
	return uint16(len(m.list) - 1)
}

func (m *actionMap) Get(index uint16) ActionTemplate {
	if int(index) >= len(m.list) {
		return nil
	}

	return m.list[index]
}
