package connection

type Kind int

const KindCallReverted Kind = 1

type Error struct {
	Kind Kind
}

func (e Error) Error() string {
	return "connection error"
}

var ErrCallReverted = Error{Kind: KindCallReverted}
