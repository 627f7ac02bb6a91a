package a

import "example.com/connection"

func equal(err error) bool {
	return err == connection.ErrCallReverted // want `comparison with connection.ErrCallReverted: use xerrors.Is instead of ==`
}

func notEqual(err error) bool {
	return (connection.ErrCallReverted) != err // want `instead of !=`
}

func kind(err connection.Error) bool {
	return err.Kind == connection.KindCallReverted
}

var ErrLocal = connection.ErrCallReverted

func local(err error) bool {
	return err == ErrLocal
}
