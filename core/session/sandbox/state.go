package sandbox

import (
	"encoding/binary"

	"go.dedis.ch/inkconn/core/runtime"
	"go.dedis.ch/inkconn/core/store"
	"go.dedis.ch/inkconn/core/store/prefixed"
	"golang.org/x/xerrors"
)

var (
	balancePrefix  = []byte("balance/")
	codePrefix     = []byte("code/")
	contractPrefix = []byte("contract/")
	storagePrefix  = []byte("storage/")
	genesisKey     = []byte("genesis")
)

// contractInfo is the information stored for an instantiated contract.
type contractInfo struct {
	CodeHash runtime.Hash
	Deployer runtime.AccountID
}

func (info contractInfo) encode() []byte {
	buffer := make([]byte, 0, 2*runtime.Size)
	buffer = append(buffer, info.CodeHash[:]...)
	buffer = append(buffer, info.Deployer[:]...)

	return buffer
}

func decodeContractInfo(data []byte) (contractInfo, error) {
	var info contractInfo

	if len(data) != 2*runtime.Size {
		return info, xerrors.Errorf("invalid contract info of %d bytes", len(data))
	}

	copy(info.CodeHash[:], data[:runtime.Size])
	copy(info.Deployer[:], data[runtime.Size:])

	return info, nil
}

// state provides the accessors of the runtime state on top of a snapshot.
type state struct {
	snap store.Snapshot
}

func key(prefix []byte, id []byte) []byte {
	return append(append([]byte{}, prefix...), id...)
}

func (s state) balance(acct runtime.AccountID) (runtime.Balance, error) {
	data, err := s.snap.Get(key(balancePrefix, acct[:]))
	if err != nil {
		return 0, xerrors.Errorf("failed to read balance: %v", err)
	}

	if data == nil {
		return 0, nil
	}

	if len(data) != 8 {
		return 0, xerrors.Errorf("invalid balance of %d bytes", len(data))
	}

	return runtime.Balance(binary.BigEndian.Uint64(data)), nil
}

func (s state) setBalance(acct runtime.AccountID, amount runtime.Balance) error {
	if amount == 0 {
		return s.snap.Delete(key(balancePrefix, acct[:]))
	}

	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, uint64(amount))

	return s.snap.Set(key(balancePrefix, acct[:]), data)
}

// transfer moves the amount from one account to the other. It returns a
// dispatch error if the sender does not have enough funds.
func (s state) transfer(from, to runtime.AccountID, amount runtime.Balance) (*runtime.DispatchError, error) {
	if amount == 0 {
		return nil, nil
	}

	fromBalance, err := s.balance(from)
	if err != nil {
		return nil, err
	}

	if fromBalance < amount {
		derr := runtime.NewTokenError(runtime.FundsUnavailable)
		return &derr, nil
	}

	toBalance, err := s.balance(to)
	if err != nil {
		return nil, err
	}

	if toBalance+amount < toBalance {
		derr := runtime.DispatchError{Kind: runtime.DispatchArithmetic}
		return &derr, nil
	}

	err = s.setBalance(from, fromBalance-amount)
	if err != nil {
		return nil, xerrors.Errorf("failed to write balance: %v", err)
	}

	err = s.setBalance(to, toBalance+amount)
	if err != nil {
		return nil, xerrors.Errorf("failed to write balance: %v", err)
	}

	return nil, nil
}

func (s state) code(hash runtime.Hash) ([]byte, error) {
	data, err := s.snap.Get(key(codePrefix, hash[:]))
	if err != nil {
		return nil, xerrors.Errorf("failed to read code: %v", err)
	}

	return data, nil
}

func (s state) contract(addr runtime.AccountID) (*contractInfo, error) {
	data, err := s.snap.Get(key(contractPrefix, addr[:]))
	if err != nil {
		return nil, xerrors.Errorf("failed to read contract: %v", err)
	}

	if data == nil {
		return nil, nil
	}

	info, err := decodeContractInfo(data)
	if err != nil {
		return nil, err
	}

	return &info, nil
}

func (s state) setContract(addr runtime.AccountID, info contractInfo) error {
	return s.snap.Set(key(contractPrefix, addr[:]), info.encode())
}

// storage returns the snapshot of the storage of the contract.
func (s state) storage(addr runtime.AccountID) store.Snapshot {
	return prefixed.NewSnapshot(key(storagePrefix, addr[:]), s.snap)
}

// readStorage returns a read-only view of the storage of the contract.
func readStorage(r store.Readable, addr runtime.AccountID) store.Readable {
	return prefixed.NewReadable(key(storagePrefix, addr[:]), r)
}
