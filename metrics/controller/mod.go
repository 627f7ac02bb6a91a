// Package controller implements the initializer that serves the Prometheus
// metrics of the daemon when it starts.
//
// Documentation Last Review: 19.10.2026
//
package controller

import (
	"go.dedis.ch/inkconn"
	"go.dedis.ch/inkconn/cli"
	"go.dedis.ch/inkconn/cli/node"
	"go.dedis.ch/inkconn/metrics"
	"golang.org/x/xerrors"
)

const (
	// AddrFlag is the name of the start flag that defines the address of the
	// metrics server. The server is disabled when it is empty.
	AddrFlag = "promaddr"

	// Path is the path of the metrics handler.
	Path = "/metrics"
)

// miniController is an initializer that starts the metrics server.
//
// - implements node.Initializer
type miniController struct{}

// NewController creates a new minimal controller for the metrics.
func NewController() node.Initializer {
	return miniController{}
}

// SetCommands implements node.Initializer. It sets the start flag of the
// server address.
func (miniController) SetCommands(builder node.Builder) {
	builder.SetStartFlags(cli.StringFlag{
		Name:     AddrFlag,
		Usage:    "if set, serves the prometheus metrics on that address",
		Required: false,
	})
}

// OnStart implements node.Initializer. It starts and injects the server if the
// address is set.
func (miniController) OnStart(flags cli.Flags, inj node.Injector) error {
	addr := flags.String(AddrFlag)
	if addr == "" {
		return nil
	}

	srv := metrics.NewServer(addr)

	err := srv.Register(Path, inkconn.PromCollectors...)
	if err != nil {
		return xerrors.Errorf("failed to register collectors: %v", err)
	}

	err = srv.Listen()
	if err != nil {
		return xerrors.Errorf("failed to start server: %v", err)
	}

	inj.Inject(srv)

	return nil
}

// OnStop implements node.Initializer. It stops the server if it was started.
func (miniController) OnStop(inj node.Injector) error {
	var srv *metrics.Server

	err := inj.Resolve(&srv)
	if err != nil {
		return nil
	}

	err = srv.Stop()
	if err != nil {
		return xerrors.Errorf("failed to stop server: %v", err)
	}

	return nil
}
