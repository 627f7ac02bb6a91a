package controller

import (
	"os"

	"go.dedis.ch/inkconn"
	"go.dedis.ch/inkconn/cli"
	"go.dedis.ch/inkconn/cli/node"
	"go.dedis.ch/inkconn/contracts/value"
	"go.dedis.ch/inkconn/core/session/sandbox"
	"golang.org/x/xerrors"
)

// miniController is a CLI initializer to register the value contract
//
// - implements node.Initializer
type miniController struct{}

// NewController creates a new minimal controller for the value contract.
func NewController() node.Initializer {
	return miniController{}
}

// SetCommands implements node.Initializer. It defines the command that writes
// the code of the contract to a file so that it can be uploaded.
func (miniController) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("value")

	sub := cmd.SetSubCommand("code")
	sub.SetDescription("write the code of the value contract")
	sub.SetFlags(cli.StringFlag{
		Name:  "out",
		Usage: "path of the file",
		Value: "value.code",
	})
	sub.SetAction(writeCode)
}

// OnStart implements node.Initializer. It registers the value contract.
func (m miniController) OnStart(flags cli.Flags, inj node.Injector) error {
	var sb *sandbox.Sandbox
	err := inj.Resolve(&sb)
	if err != nil {
		return xerrors.Errorf("failed to resolve sandbox: %v", err)
	}

	hash := value.RegisterContract(sb.Registry())

	inkconn.Logger.Info().Str("hash", hash.String()).Msg("value contract registered")

	return nil
}

// OnStop implements node.Initializer.
func (miniController) OnStop(inj node.Injector) error {
	return nil
}

func writeCode(flags cli.Flags) error {
	err := os.WriteFile(flags.Path("out"), value.Code, 0644)
	if err != nil {
		return xerrors.Errorf("failed to write code: %v", err)
	}

	return nil
}
