package session

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/inkconn/internal/testing/fake"
	"golang.org/x/xerrors"
)

func TestMode_String(t *testing.T) {
	require.Equal(t, "commit", Commit.String())
	require.Equal(t, "dry-run", DryRun.String())
}

func TestExecReturn_DidRevert(t *testing.T) {
	require.False(t, ExecReturn{}.DidRevert())
	require.True(t, ExecReturn{Flags: FlagRevert}.DidRevert())
}

func TestError(t *testing.T) {
	err := NewError("upload", fake.GetError())

	require.EqualError(t, err, fake.Err("session failed to upload"))
	require.True(t, xerrors.Is(err, NewError("upload", nil)))
	require.False(t, xerrors.Is(err, NewError("call", nil)))
	require.Equal(t, fake.GetError().Error(), xerrors.Unwrap(err).Error())
}
