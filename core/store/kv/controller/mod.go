// Package controller implements the initializer that opens the database of
// the daemon.
//
// Documentation Last Review: 19.10.2026
//
package controller

import (
	"path/filepath"

	"go.dedis.ch/inkconn/cli"
	"go.dedis.ch/inkconn/cli/node"
	"go.dedis.ch/inkconn/core/store/kv"
	"golang.org/x/xerrors"
)

// DBName is the name of the database file in the config folder.
const DBName = "sandbox.db"

// minimal is an initializer that opens the database when the daemon starts
// and closes it when it stops.
//
// - implements node.Initializer
type minimal struct{}

// NewMinimal returns a new initializer for the database.
func NewMinimal() node.Initializer {
	return minimal{}
}

// SetCommands implements node.Initializer. The database has no commands.
func (m minimal) SetCommands(builder node.Builder) {}

// OnStart implements node.Initializer. It opens and injects the database.
func (m minimal) OnStart(flags cli.Flags, inj node.Injector) error {
	db, err := kv.New(filepath.Join(flags.Path(node.ConfigFlag), DBName))
	if err != nil {
		return xerrors.Errorf("db: %v", err)
	}

	inj.Inject(db)

	return nil
}

// OnStop implements node.Initializer. It closes the database.
func (m minimal) OnStop(inj node.Injector) error {
	var db kv.DB
	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	err = db.Close()
	if err != nil {
		return xerrors.Errorf("while closing db: %v", err)
	}

	return nil
}
