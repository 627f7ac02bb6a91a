package sandbox

import (
	"go.dedis.ch/inkconn/core/runtime"
	"go.dedis.ch/inkconn/core/store"
	"go.dedis.ch/inkconn/serde"
	"golang.org/x/xerrors"
)

// frame is the environment of a single contract execution.
//
// - implements sandbox.Env
type frame struct {
	state    state
	storage  store.Snapshot
	meter    *meter
	schedule Schedule
	ctx      serde.Context
	caller   runtime.AccountID
	self     runtime.AccountID
	value    runtime.Balance
	events   []runtime.Event
}

// Caller implements sandbox.Env.
func (f *frame) Caller() runtime.AccountID {
	return f.caller
}

// Address implements sandbox.Env.
func (f *frame) Address() runtime.AccountID {
	return f.self
}

// Value implements sandbox.Env.
func (f *frame) Value() runtime.Balance {
	return f.value
}

// Balance implements sandbox.Env. It returns the balance of the contract
// account.
func (f *frame) Balance() (runtime.Balance, error) {
	err := f.meter.charge(f.schedule.StorageRead)
	if err != nil {
		return 0, err
	}

	return f.state.balance(f.self)
}

// Get implements sandbox.Env. It charges a storage read.
func (f *frame) Get(key []byte) ([]byte, error) {
	err := f.meter.charge(f.schedule.StorageRead)
	if err != nil {
		return nil, err
	}

	value, err := f.storage.Get(key)
	if err != nil {
		return nil, xerrors.Errorf("storage: %v", err)
	}

	return value, nil
}

// Set implements sandbox.Env. It charges a storage write and the size of the
// value.
func (f *frame) Set(key, value []byte) error {
	cost := f.schedule.StorageWrite.Add(f.schedule.StorageByte.Mul(uint64(len(value))))

	err := f.meter.charge(cost)
	if err != nil {
		return err
	}

	err = f.storage.Set(key, value)
	if err != nil {
		return xerrors.Errorf("storage: %v", err)
	}

	return nil
}

// Delete implements sandbox.Env. It charges a storage write.
func (f *frame) Delete(key []byte) error {
	err := f.meter.charge(f.schedule.StorageWrite)
	if err != nil {
		return err
	}

	err = f.storage.Delete(key)
	if err != nil {
		return xerrors.Errorf("storage: %v", err)
	}

	return nil
}

// Emit implements sandbox.Env. The event is recorded after the previous ones
// so that the order of emission is kept.
func (f *frame) Emit(topics []runtime.Hash, data []byte) error {
	cost := f.schedule.Event.Add(f.schedule.EventByte.Mul(uint64(len(data))))

	err := f.meter.charge(cost)
	if err != nil {
		return err
	}

	f.events = append(f.events, runtime.Event{
		Module:  ModuleName,
		Name:    "ContractEmitted",
		Emitter: f.self,
		Topics:  append([]runtime.Hash{}, topics...),
		Data:    append([]byte{}, data...),
	})

	return nil
}

// Context implements sandbox.Env.
func (f *frame) Context() serde.Context {
	return f.ctx
}
