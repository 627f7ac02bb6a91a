package controller

import (
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/inkconn/cli"
	"go.dedis.ch/inkconn/cli/node"
	"go.dedis.ch/inkconn/metrics"
)

func TestMiniController_SetCommands(t *testing.T) {
	builder := &fakeBuilder{}

	NewController().SetCommands(builder)

	require.Len(t, builder.flags, 1)
	require.Equal(t, AddrFlag, builder.flags[0].(cli.StringFlag).Name)
}

func TestMiniController_OnStart(t *testing.T) {
	ctrl := NewController()
	inj := node.NewInjector()

	err := ctrl.OnStart(node.FlagSet{}, inj)
	require.NoError(t, err)

	var srv *metrics.Server
	require.Error(t, inj.Resolve(&srv))

	err = ctrl.OnStart(node.FlagSet{AddrFlag: "127.0.0.1:0"}, inj)
	require.NoError(t, err)
	require.NoError(t, inj.Resolve(&srv))

	resp, err := http.Get("http://" + srv.GetAddr().String() + Path)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	err = ctrl.OnStop(inj)
	require.NoError(t, err)
}

func TestMiniController_BadAddr_OnStart(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer ln.Close()

	err = NewController().OnStart(node.FlagSet{AddrFlag: ln.Addr().String()},
		node.NewInjector())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to start server: ")
}

func TestMiniController_OnStop(t *testing.T) {
	err := NewController().OnStop(node.NewInjector())
	require.NoError(t, err)
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeBuilder struct {
	node.Builder

	flags []cli.Flag
}

func (b *fakeBuilder) SetStartFlags(flags ...cli.Flag) {
	b.flags = append(b.flags, flags...)
}
