// Package controller implements the initializer that registers the flipper
// contract in the sandbox of the daemon.
//
// Documentation Last Review: 19.10.2026
//
package controller

import (
	"os"

	"go.dedis.ch/inkconn"
	"go.dedis.ch/inkconn/cli"
	"go.dedis.ch/inkconn/cli/node"
	"go.dedis.ch/inkconn/contracts/flipper"
	"go.dedis.ch/inkconn/core/session/sandbox"
	"golang.org/x/xerrors"
)

// miniController is a CLI initializer to register the flipper contract
//
// - implements node.Initializer
type miniController struct{}

// NewController creates a new minimal controller for the flipper contract.
func NewController() node.Initializer {
	return miniController{}
}

// SetCommands implements node.Initializer. It defines the command that writes
// the code of the contract to a file so that it can be uploaded.
func (miniController) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("flipper")

	sub := cmd.SetSubCommand("code")
	sub.SetDescription("write the code of the flipper contract")
	sub.SetFlags(cli.StringFlag{
		Name:  "out",
		Usage: "path of the file",
		Value: "flipper.code",
	})
	sub.SetAction(writeCode)
}

// OnStart implements node.Initializer. It registers the flipper contract.
func (m miniController) OnStart(flags cli.Flags, inj node.Injector) error {
	var sb *sandbox.Sandbox
	err := inj.Resolve(&sb)
	if err != nil {
		return xerrors.Errorf("failed to resolve sandbox: %v", err)
	}

	hash := flipper.RegisterContract(sb.Registry())

	inkconn.Logger.Info().Str("hash", hash.String()).Msg("flipper contract registered")

	return nil
}

// OnStop implements node.Initializer.
func (miniController) OnStop(inj node.Injector) error {
	return nil
}

func writeCode(flags cli.Flags) error {
	err := os.WriteFile(flags.Path("out"), flipper.Code, 0644)
	if err != nil {
		return xerrors.Errorf("failed to write code: %v", err)
	}

	return nil
}
