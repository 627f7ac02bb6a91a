// Package main implements the inkd daemon. The daemon holds a sandbox with the
// built-in contracts and a local connection to it.
//
//	go run . --config /tmp/inkd start --promaddr 127.0.0.1:9100
//	go run . --config /tmp/inkd flipper code --out flipper.code
//	go run . --config /tmp/inkd contract upload --code flipper.code
//	go run . --config /tmp/inkd contract instantiate --code flipper.code\
//	  --args true
//	go run . --config /tmp/inkd contract read --address XX --message get
//	go run . --config /tmp/inkd contract exec --address XX --message flip
//	go run . --config /tmp/inkd account balance
//
// Documentation Last Review: 19.10.2026
//
package main

import (
	"fmt"
	"io"
	"os"

	"go.dedis.ch/inkconn/cli/node"
	connection "go.dedis.ch/inkconn/connection/controller"
	flipper "go.dedis.ch/inkconn/contracts/flipper/controller"
	value "go.dedis.ch/inkconn/contracts/value/controller"
	db "go.dedis.ch/inkconn/core/store/kv/controller"
	metrics "go.dedis.ch/inkconn/metrics/controller"
)

type config struct {
	Channel chan os.Signal
	Writer  io.Writer
}

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return runWithCfg(args, config{Writer: os.Stdout})
}

func runWithCfg(args []string, cfg config) error {
	builder := node.NewBuilderWithCfg(
		cfg.Channel,
		cfg.Writer,
		db.NewMinimal(),
		metrics.NewController(),
		connection.NewController(),
		flipper.NewController(),
		value.NewController(),
	)

	app := builder.Build()

	err := app.Run(args)
	if err != nil {
		return err
	}

	return nil
}
