package connection

import (
	"go.dedis.ch/inkconn/core/message"
)

// Exec executes the message with the connection and decodes the returned data
// into a message result. A decoding failure is returned as a decoding error.
func Exec[T any, A, H comparable](conn Connection[A, H], call ExecCall[A],
	dec message.Decoder[T]) (ContractResult[message.Result[T]], error) {

	res, err := conn.Exec(call)
	if err != nil {
		return ContractResult[message.Result[T]]{}, err
	}

	return decodeResult(res, dec)
}

// Read evaluates the message with the connection and decodes the returned
// data into a message result. A decoding failure is returned as a decoding
// error.
func Read[T any, A, H comparable](conn Connection[A, H], call ReadCall[A],
	dec message.Decoder[T]) (ContractResult[message.Result[T]], error) {

	res, err := conn.Read(call)
	if err != nil {
		return ContractResult[message.Result[T]]{}, err
	}

	return decodeResult(res, dec)
}

func decodeResult[T any](res ContractResult[[]byte],
	dec message.Decoder[T]) (ContractResult[message.Result[T]], error) {

	value, err := dec.Decode(res.Result)
	if err != nil {
		return ContractResult[message.Result[T]]{}, NewDecodingError(err.Error())
	}

	return ContractResult[message.Result[T]]{
		GasConsumed: res.GasConsumed,
		GasRequired: res.GasRequired,
		Result:      value,
		Events:      res.Events,
	}, nil
}
