package controller

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/inkconn/cli"
	"go.dedis.ch/inkconn/cli/node"
	"go.dedis.ch/inkconn/core/session/sandbox"
	"go.dedis.ch/inkconn/core/store/kv"
	"go.dedis.ch/inkconn/crypto/ed25519"
)

func TestMiniController_SetCommands(t *testing.T) {
	builder := &fakeBuilder{}

	NewController().SetCommands(builder)

	require.Len(t, builder.startFlags, 1)
	require.Equal(t, TracingFlag, builder.startFlags[0].(cli.BoolFlag).Name)

	require.Len(t, builder.actions, 6)
	require.IsType(t, uploadAction{}, builder.actions[0])
	require.IsType(t, instantiateAction{}, builder.actions[1])
	require.Equal(t, callAction{}, builder.actions[2])
	require.Equal(t, callAction{dryRun: true}, builder.actions[3])
	require.IsType(t, balanceAction{}, builder.actions[4])
	require.IsType(t, keyAction{}, builder.actions[5])
}

func TestMiniController_OnStart(t *testing.T) {
	dir := t.TempDir()

	inj := node.NewInjector()
	inj.Inject(makeDB(t, dir))

	ctrl := NewController()

	err := ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir}, inj)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, KeyName))
	require.NoError(t, err)

	var signer ed25519.Signer
	require.NoError(t, inj.Resolve(&signer))

	var sb *sandbox.Sandbox
	require.NoError(t, inj.Resolve(&sb))

	var conn Conn
	require.NoError(t, inj.Resolve(&conn))

	require.NoError(t, ctrl.OnStop(inj))

	// The key is loaded from the file on a restart.
	inj = node.NewInjector()
	inj.Inject(makeDB(t, t.TempDir()))

	err = ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir}, inj)
	require.NoError(t, err)

	var other ed25519.Signer
	require.NoError(t, inj.Resolve(&other))
	require.Equal(t, signer.Account(), other.Account())
}

func TestMiniController_Config_OnStart(t *testing.T) {
	dir := t.TempDir()

	signer := ed25519.NewSigner()
	data, err := signer.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyName), data, 0400))

	cfg := "endowments:\n  \"" + signer.Account().String() + "\": 42\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigName), []byte(cfg), 0600))

	inj := node.NewInjector()
	inj.Inject(makeDB(t, dir))

	err = NewController().OnStart(node.FlagSet{node.ConfigFlag: dir}, inj)
	require.NoError(t, err)

	var sb *sandbox.Sandbox
	require.NoError(t, inj.Resolve(&sb))

	balance, err := sb.Balance(signer.Account())
	require.NoError(t, err)
	require.EqualValues(t, 42, balance)
}

func TestMiniController_Tracing_OnStart(t *testing.T) {
	t.Setenv("JAEGER_SAMPLER_TYPE", "const")
	t.Setenv("JAEGER_SAMPLER_PARAM", "0")

	dir := t.TempDir()

	inj := node.NewInjector()
	inj.Inject(makeDB(t, dir))

	ctrl := NewController()

	err := ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir, TracingFlag: true}, inj)
	require.NoError(t, err)
	require.NoError(t, ctrl.OnStop(inj))

	t.Setenv("JAEGER_SAMPLER_PARAM", "abc")

	err = ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir, TracingFlag: true}, inj)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to create tracer: ")
}

func TestMiniController_Failures_OnStart(t *testing.T) {
	dir := t.TempDir()
	ctrl := NewController()

	err := ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir}, node.NewInjector())
	require.EqualError(t, err,
		"failed to resolve db: couldn't find dependency for 'kv.DB'")

	inj := node.NewInjector()
	inj.Inject(makeDB(t, dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigName), []byte("oops: 1"), 0600))

	err = ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir}, inj)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config: failed to parse config: ")

	dir = t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, KeyName), 0700))

	err = ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir}, inj)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load key: loader: ")

	require.NoError(t, os.Remove(filepath.Join(dir, KeyName)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyName), []byte{1, 2}, 0400))

	err = ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir}, inj)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load key: signer: ")
}

// -----------------------------------------------------------------------------
// Utility functions

func makeDB(t *testing.T, dir string) kv.DB {
	db, err := kv.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return db
}

type fakeBuilder struct {
	startFlags []cli.Flag
	actions    []node.ActionTemplate
}

func (b *fakeBuilder) SetCommand(name string) cli.CommandBuilder {
	return fakeCommandBuilder{}
}

func (b *fakeBuilder) SetStartFlags(flags ...cli.Flag) {
	b.startFlags = append(b.startFlags, flags...)
}

func (b *fakeBuilder) MakeAction(tmpl node.ActionTemplate) cli.Action {
	b.actions = append(b.actions, tmpl)
	return nil
}

type fakeCommandBuilder struct{}

func (fakeCommandBuilder) SetDescription(value string) {}

func (fakeCommandBuilder) SetFlags(...cli.Flag) {}

func (fakeCommandBuilder) SetAction(cli.Action) {}

func (fakeCommandBuilder) SetSubCommand(name string) cli.CommandBuilder {
	return fakeCommandBuilder{}
}
