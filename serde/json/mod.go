// Package json implements the context engine for the JSON format. It relies on
// go-json which keeps the semantics of the standard encoder.
package json

import (
	gojson "github.com/goccy/go-json"
	"go.dedis.ch/inkconn/serde"
	"golang.org/x/xerrors"
)

// engine is a context engine to marshal and unmarshal in JSON format.
//
// - implements serde.ContextEngine
type engine struct{}

// NewContext returns a JSON context.
func NewContext() serde.Context {
	return serde.NewContext(engine{})
}

// GetFormat implements serde.ContextEngine. It returns the JSON format name.
func (engine) GetFormat() serde.Format {
	return serde.FormatJSON
}

// Marshal implements serde.ContextEngine. It returns the bytes of the message
// marshaled in JSON format.
func (engine) Marshal(m interface{}) ([]byte, error) {
	data, err := gojson.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return data, nil
}

// Unmarshal implements serde.ContextEngine. It populates the message using the
// JSON format definition. Numbers decoded into an interface keep the float64
// representation.
func (engine) Unmarshal(data []byte, m interface{}) error {
	err := gojson.Unmarshal(data, m)
	if err != nil {
		return xerrors.Errorf("couldn't unmarshal: %v", err)
	}

	return nil
}
