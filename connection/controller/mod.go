// Package controller implements the initializer that runs a sandbox in the
// daemon and exposes the contract connection through the CLI.
//
// The sandbox state is stored in the database of the daemon and the
// operations are dispatched on behalf of the account of the daemon key. The
// configuration of the sandbox is read from the config folder if it exists.
//
// Documentation Last Review: 19.10.2026
//
package controller

import (
	"os"
	"path/filepath"

	opentracing "github.com/opentracing/opentracing-go"
	"go.dedis.ch/inkconn"
	"go.dedis.ch/inkconn/cli"
	"go.dedis.ch/inkconn/cli/node"
	"go.dedis.ch/inkconn/connection"
	"go.dedis.ch/inkconn/connection/local"
	"go.dedis.ch/inkconn/core/runtime"
	"go.dedis.ch/inkconn/core/session/sandbox"
	"go.dedis.ch/inkconn/core/store/kv"
	"go.dedis.ch/inkconn/crypto/ed25519"
	"go.dedis.ch/inkconn/crypto/loader"
	"go.dedis.ch/inkconn/internal/tracing"
	"golang.org/x/xerrors"
)

const (
	// KeyName is the name of the file of the daemon private key in the config
	// folder.
	KeyName = "private.key"

	// ConfigName is the name of the sandbox configuration in the config
	// folder.
	ConfigName = "sandbox.yaml"

	// TracingFlag is the name of the start flag that enables the Jaeger
	// tracer of the connection.
	TracingFlag = "tracing"

	defaultConstructor = "new"
)

// bucket is the database bucket of the sandbox state.
var bucket = []byte("sandbox")

// Conn is the connection injected by the controller.
type Conn = connection.Connection[runtime.AccountID, runtime.Hash]

// miniController is the initializer of the contract connection.
//
// - implements node.Initializer
type miniController struct{}

// NewController returns a new initializer of the contract connection.
func NewController() node.Initializer {
	return miniController{}
}

// SetCommands implements node.Initializer. It defines the contract and the
// account commands.
func (miniController) SetCommands(builder node.Builder) {
	builder.SetStartFlags(cli.BoolFlag{
		Name:  TracingFlag,
		Usage: "record the operations with a Jaeger tracer configured by the environment",
	})

	gasFlags := []cli.Flag{
		cli.Uint64Flag{
			Name:  "gas-ref",
			Usage: "reference time of the gas limit, or the default limit if zero",
		},
		cli.Uint64Flag{
			Name:  "gas-proof",
			Usage: "proof size of the gas limit, or the default limit if zero",
		},
		cli.Uint64Flag{
			Name:  "value",
			Usage: "amount transferred to the contract",
		},
		cli.StringFlag{
			Name:  "args",
			Usage: "arguments of the message encoded in JSON",
		},
	}

	cmd := builder.SetCommand("contract")
	cmd.SetDescription("manage the contracts of the sandbox")

	sub := cmd.SetSubCommand("upload")
	sub.SetDescription("upload the code of a contract")
	sub.SetFlags(
		cli.StringFlag{
			Name:     "code",
			Usage:    "path to the code of the contract",
			Required: true,
		},
		cli.StringFlag{
			Name:  "hash",
			Usage: "expected code hash in hexadecimal",
		},
	)
	sub.SetAction(builder.MakeAction(uploadAction{}))

	sub = cmd.SetSubCommand("instantiate")
	sub.SetDescription("instantiate a contract from its code hash or its code")
	sub.SetFlags(append([]cli.Flag{
		cli.StringFlag{
			Name:  "hash",
			Usage: "code hash in hexadecimal",
		},
		cli.StringFlag{
			Name:  "code",
			Usage: "path to the code uploaded before the instantiation",
		},
		cli.StringFlag{
			Name:  "constructor",
			Usage: "label of the constructor",
			Value: defaultConstructor,
		},
		cli.StringFlag{
			Name:  "salt",
			Usage: "salt of the contract address",
		},
	}, gasFlags...)...)
	sub.SetAction(builder.MakeAction(instantiateAction{}))

	callFlags := append([]cli.Flag{
		cli.StringFlag{
			Name:     "address",
			Usage:    "address of the contract in hexadecimal",
			Required: true,
		},
		cli.StringFlag{
			Name:     "message",
			Usage:    "label of the message",
			Required: true,
		},
	}, gasFlags...)

	sub = cmd.SetSubCommand("exec")
	sub.SetDescription("execute a message and commit the changes")
	sub.SetFlags(callFlags...)
	sub.SetAction(builder.MakeAction(callAction{}))

	sub = cmd.SetSubCommand("read")
	sub.SetDescription("evaluate a message without committing the changes")
	sub.SetFlags(callFlags...)
	sub.SetAction(builder.MakeAction(callAction{dryRun: true}))

	cmd = builder.SetCommand("account")
	cmd.SetDescription("inspect the accounts of the sandbox")

	sub = cmd.SetSubCommand("balance")
	sub.SetDescription("print the balance of an account")
	sub.SetFlags(cli.StringFlag{
		Name:  "address",
		Usage: "account in hexadecimal, or the daemon account if empty",
	})
	sub.SetAction(builder.MakeAction(balanceAction{}))

	sub = cmd.SetSubCommand("key")
	sub.SetDescription("print the account of the daemon")
	sub.SetAction(builder.MakeAction(keyAction{}))
}

// OnStart implements node.Initializer. It loads the key of the daemon, creates
// the sandbox on top of the database, and injects the connection.
func (miniController) OnStart(flags cli.Flags, inj node.Injector) error {
	dir := flags.Path(node.ConfigFlag)

	signer, err := loadSigner(filepath.Join(dir, KeyName))
	if err != nil {
		return xerrors.Errorf("failed to load key: %v", err)
	}

	var db kv.DB
	err = inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("failed to resolve db: %v", err)
	}

	cfg, err := loadConfig(filepath.Join(dir, ConfigName))
	if err != nil {
		return xerrors.Errorf("failed to load config: %v", err)
	}

	sb, err := sandbox.NewSandbox(
		sandbox.WithStore(kv.NewStore(db, bucket)),
		sandbox.WithConfig(cfg),
	)
	if err != nil {
		return xerrors.Errorf("failed to create sandbox: %v", err)
	}

	var tracer opentracing.Tracer = opentracing.NoopTracer{}

	if flags.Bool(TracingFlag) {
		tracer, err = tracing.GetTracerForService(node.AppName)
		if err != nil {
			return xerrors.Errorf("failed to create tracer: %v", err)
		}
	}

	conn := local.NewConnection(sb, signer.Account(), local.WithTracer(tracer))

	inj.Inject(signer)
	inj.Inject(sb)
	inj.Inject(connection.NewSynchronized[runtime.AccountID, runtime.Hash](conn))

	inkconn.Logger.Info().
		Str("account", signer.Account().String()).
		Msg("contract connection is ready")

	return nil
}

// OnStop implements node.Initializer. It flushes the tracers.
func (miniController) OnStop(node.Injector) error {
	err := tracing.CloseAll()
	if err != nil {
		return xerrors.Errorf("failed to close tracers: %v", err)
	}

	return nil
}

func loadSigner(path string) (ed25519.Signer, error) {
	data, err := loader.NewFileLoader(path).LoadOrCreate(ed25519.NewGenerator())
	if err != nil {
		return ed25519.Signer{}, xerrors.Errorf("loader: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return ed25519.Signer{}, xerrors.Errorf("signer: %v", err)
	}

	return signer, nil
}

// loadConfig returns the configuration of the file if it exists, otherwise
// the default one.
func loadConfig(path string) (sandbox.Config, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return sandbox.DefaultConfig(), nil
	}

	return sandbox.LoadConfig(path)
}
