// Package sandbox implements an in-process execution session for native
// programs.
//
// The sandbox keeps the runtime state (balances, code, contracts and their
// storage) in a store backend. Every call is executed on a staged overlay of
// the backend, which is applied atomically when the call succeeds in commit
// mode and dropped otherwise. The execution is metered with a weight schedule.
//
// Documentation Last Review: 19.10.2026
//
package sandbox

import (
	"sync"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/inkconn"
	"go.dedis.ch/inkconn/core/runtime"
	"go.dedis.ch/inkconn/core/session"
	"go.dedis.ch/inkconn/core/store"
	"go.dedis.ch/inkconn/core/store/mem"
	"go.dedis.ch/inkconn/serde"
	"go.dedis.ch/inkconn/serde/json"
	"golang.org/x/xerrors"
)

// ModuleName is the name of the runtime module of the sandbox, used in the
// events and the dispatch errors.
const ModuleName = "Contracts"

// Names of the dispatch errors of the module.
const (
	CodeNotFound      = "CodeNotFound"
	ContractNotFound  = "ContractNotFound"
	DuplicateContract = "DuplicateContract"
	OutOfGas          = "OutOfGas"
)

// Sandbox is an execution session that runs native programs.
//
// - implements session.Session
type Sandbox struct {
	sync.Mutex

	store    store.Backend
	registry *Registry
	config   Config
	ctx      serde.Context
	hasher   runtime.Blake2
	logger   zerolog.Logger
}

type options struct {
	store    store.Backend
	config   Config
	ctx      serde.Context
	programs []namedProgram
}

type namedProgram struct {
	name    string
	code    []byte
	program Program
}

// Option is the type of option to create a sandbox.
type Option func(*options)

// WithStore sets the backend of the state. The default is an in-memory store.
func WithStore(s store.Backend) Option {
	return func(opts *options) {
		opts.store = s
	}
}

// WithConfig sets the configuration of the sandbox.
func WithConfig(cfg Config) Option {
	return func(opts *options) {
		opts.config = cfg
	}
}

// WithContext sets the context the programs use to encode the messages. The
// default is JSON.
func WithContext(ctx serde.Context) Option {
	return func(opts *options) {
		opts.ctx = ctx
	}
}

// WithProgram registers a program for the code.
func WithProgram(name string, code []byte, p Program) Option {
	return func(opts *options) {
		opts.programs = append(opts.programs, namedProgram{
			name:    name,
			code:    code,
			program: p,
		})
	}
}

// NewSandbox creates a new sandbox. The endowments of the configuration are
// applied if the state is fresh.
func NewSandbox(opts ...Option) (*Sandbox, error) {
	tmp := options{
		store:  mem.NewStore(),
		config: DefaultConfig(),
		ctx:    json.NewContext(),
	}

	for _, opt := range opts {
		opt(&tmp)
	}

	registry := NewRegistry()
	for _, p := range tmp.programs {
		registry.Register(p.name, p.code, p.program)
	}

	s := &Sandbox{
		store:    tmp.store,
		registry: registry,
		config:   tmp.config,
		ctx:      tmp.ctx,
		logger:   inkconn.Logger.With().Str("session", "sandbox").Logger(),
	}

	err := s.genesis()
	if err != nil {
		return nil, xerrors.Errorf("genesis failed: %v", err)
	}

	return s, nil
}

func (s *Sandbox) genesis() error {
	done, err := s.store.Get(genesisKey)
	if err != nil {
		return xerrors.Errorf("failed to read genesis: %v", err)
	}

	if done != nil {
		s.logger.Debug().Msg("state already initialized")
		return nil
	}

	return s.commit(func(st state) error {
		for acct, amount := range s.config.Endowments {
			id, err := runtime.ParseAccountID(acct)
			if err != nil {
				return xerrors.Errorf("endowment: %v", err)
			}

			err = st.setBalance(id, amount)
			if err != nil {
				return xerrors.Errorf("endowment: %v", err)
			}
		}

		return st.snap.Set(genesisKey, []byte{1})
	})
}

// Registry returns the program registry of the sandbox.
func (s *Sandbox) Registry() *Registry {
	return s.registry
}

// Balance returns the balance of the account.
func (s *Sandbox) Balance(acct runtime.AccountID) (runtime.Balance, error) {
	s.Lock()
	defer s.Unlock()

	return state{snap: mem.NewOverlay(s.store)}.balance(acct)
}

// Endow adds the amount to the balance of the account.
func (s *Sandbox) Endow(acct runtime.AccountID, amount runtime.Balance) error {
	s.Lock()
	defer s.Unlock()

	return s.commit(func(st state) error {
		current, err := st.balance(acct)
		if err != nil {
			return err
		}

		if current+amount < current {
			return xerrors.New("balance overflow")
		}

		return st.setBalance(acct, current+amount)
	})
}

// Storage returns a copy of the value of the key in the storage of the
// contract, or nil if it is not set.
func (s *Sandbox) Storage(addr runtime.AccountID, k []byte) ([]byte, error) {
	s.Lock()
	defer s.Unlock()

	value, err := readStorage(s.store, addr).Get(k)
	if err != nil || value == nil {
		return nil, err
	}

	return append([]byte{}, value...), nil
}

// UploadCode implements session.Session. It stores the code if it belongs to a
// registered program and returns its hash. Uploading the same code twice is
// allowed.
func (s *Sandbox) UploadCode(origin runtime.AccountID, code []byte) (runtime.Hash, error) {
	s.Lock()
	defer s.Unlock()

	var hash runtime.Hash

	if origin.IsZero() {
		return hash, session.NewError("upload", xerrors.New("bad origin"))
	}

	if len(code) == 0 {
		return hash, session.NewError("upload", xerrors.New("empty code"))
	}

	if len(code) > s.config.MaxCodeSize {
		return hash, session.NewError("upload", xerrors.Errorf(
			"code too large: %d > %d", len(code), s.config.MaxCodeSize))
	}

	hash = s.hasher.HashCode(code)

	_, name, found := s.registry.Lookup(hash)
	if !found {
		return hash, session.NewError("upload", xerrors.Errorf(
			"unknown program for code %v", hash))
	}

	err := s.commit(func(st state) error {
		return st.snap.Set(key(codePrefix, hash[:]), code)
	})
	if err != nil {
		return hash, session.NewError("upload", err)
	}

	s.logger.Debug().
		Str("program", name).
		Stringer("hash", hash).
		Msg("code uploaded")

	return hash, nil
}

// Instantiate implements session.Session. It dispatches the constructor of the
// program associated with the code hash.
func (s *Sandbox) Instantiate(req session.InstantiateRequest,
	mode session.Mode) (out session.InstantiateOutcome, err error) {

	s.Lock()
	defer s.Unlock()

	logger := s.logger.With().Str("dispatch", xid.New().String()).Logger()

	overlay := mem.NewOverlay(s.store)
	st := state{snap: overlay}
	meter := newMeter(s.limit(req.GasLimit))

	defer func() {
		out.GasConsumed = meter.consumed
		out.GasRequired = meter.required
	}()

	derr, err := s.prepareInstantiate(st, meter, req, &out.Account)
	if err != nil {
		return out, session.NewError("instantiate", err)
	}

	if derr != nil {
		out.DispatchErr = derr
		logger.Debug().Str("error", derr.String()).Msg("instantiation not dispatched")
		return out, nil
	}

	program, name, _ := s.registry.Lookup(req.CodeHash)

	f := s.newFrame(st, meter, req.Origin, out.Account, req.Value)

	out.Return, out.DispatchErr = s.run(logger, meter, func() ([]byte, error) {
		return program.Deploy(f, req.Data)
	})

	logger.Debug().
		Str("program", name).
		Stringer("mode", mode).
		Stringer("contract", out.Account).
		Bool("reverted", out.Return.DidRevert()).
		Bool("dispatched", out.DispatchErr == nil).
		Msg("instantiation executed")

	if out.DispatchErr != nil || out.Return.DidRevert() {
		return out, nil
	}

	out.Events = append(f.events, runtime.Event{
		Module:  ModuleName,
		Name:    "Instantiated",
		Emitter: out.Account,
		Data:    req.Origin[:],
	})

	if mode == session.Commit {
		err = s.store.Update(overlay.Apply)
		if err != nil {
			return out, session.NewError("instantiate", xerrors.Errorf("commit: %v", err))
		}

		logger.Debug().Int("writes", overlay.Len()).Msg("instantiation committed")
	}

	return out, nil
}

func (s *Sandbox) prepareInstantiate(st state, meter *meter,
	req session.InstantiateRequest, addr *runtime.AccountID) (*runtime.DispatchError, error) {

	if req.Origin.IsZero() {
		return &runtime.DispatchError{Kind: runtime.DispatchBadOrigin}, nil
	}

	cost := s.config.Schedule.Instantiate.
		Add(s.config.Schedule.InputByte.Mul(uint64(len(req.Data))))

	if meter.charge(cost) != nil {
		return moduleError(OutOfGas), nil
	}

	code, err := st.code(req.CodeHash)
	if err != nil {
		return nil, err
	}

	_, _, found := s.registry.Lookup(req.CodeHash)
	if code == nil || !found {
		return moduleError(CodeNotFound), nil
	}

	*addr = s.hasher.DeriveContract(req.Origin, req.CodeHash, req.Data, req.Salt)

	existing, err := st.contract(*addr)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return moduleError(DuplicateContract), nil
	}

	derr, err := st.transfer(req.Origin, *addr, req.Value)
	if err != nil || derr != nil {
		return derr, err
	}

	err = st.setContract(*addr, contractInfo{
		CodeHash: req.CodeHash,
		Deployer: req.Origin,
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to write contract: %v", err)
	}

	return nil, nil
}

// Call implements session.Session. It dispatches the message to the program of
// the destination contract.
func (s *Sandbox) Call(req session.CallRequest,
	mode session.Mode) (out session.Outcome, err error) {

	s.Lock()
	defer s.Unlock()

	logger := s.logger.With().Str("dispatch", xid.New().String()).Logger()

	overlay := mem.NewOverlay(s.store)
	st := state{snap: overlay}
	meter := newMeter(s.limit(req.GasLimit))

	defer func() {
		out.GasConsumed = meter.consumed
		out.GasRequired = meter.required
	}()

	program, name, derr, err := s.prepareCall(st, meter, req)
	if err != nil {
		return out, session.NewError("call", err)
	}

	if derr != nil {
		out.DispatchErr = derr
		logger.Debug().Str("error", derr.String()).Msg("call not dispatched")
		return out, nil
	}

	f := s.newFrame(st, meter, req.Origin, req.Dest, req.Value)

	out.Return, out.DispatchErr = s.run(logger, meter, func() ([]byte, error) {
		return program.Call(f, req.Data)
	})

	logger.Debug().
		Str("program", name).
		Stringer("mode", mode).
		Stringer("contract", req.Dest).
		Bool("reverted", out.Return.DidRevert()).
		Bool("dispatched", out.DispatchErr == nil).
		Msg("call executed")

	if out.DispatchErr != nil || out.Return.DidRevert() {
		return out, nil
	}

	out.Events = append(f.events, runtime.Event{
		Module:  ModuleName,
		Name:    "Called",
		Emitter: req.Dest,
		Data:    req.Origin[:],
	})

	if mode == session.Commit {
		err = s.store.Update(overlay.Apply)
		if err != nil {
			return out, session.NewError("call", xerrors.Errorf("commit: %v", err))
		}

		logger.Debug().Int("writes", overlay.Len()).Msg("call committed")
	}

	return out, nil
}

func (s *Sandbox) prepareCall(st state, meter *meter,
	req session.CallRequest) (Program, string, *runtime.DispatchError, error) {

	if req.Origin.IsZero() {
		return nil, "", &runtime.DispatchError{Kind: runtime.DispatchBadOrigin}, nil
	}

	cost := s.config.Schedule.Call.
		Add(s.config.Schedule.InputByte.Mul(uint64(len(req.Data))))

	if meter.charge(cost) != nil {
		return nil, "", moduleError(OutOfGas), nil
	}

	info, err := st.contract(req.Dest)
	if err != nil {
		return nil, "", nil, err
	}

	if info == nil {
		return nil, "", moduleError(ContractNotFound), nil
	}

	program, name, found := s.registry.Lookup(info.CodeHash)
	if !found {
		return nil, "", moduleError(CodeNotFound), nil
	}

	derr, err := st.transfer(req.Origin, req.Dest, req.Value)
	if err != nil || derr != nil {
		return nil, "", derr, err
	}

	return program, name, nil, nil
}

func (s *Sandbox) newFrame(st state, meter *meter, caller,
	self runtime.AccountID, value runtime.Balance) *frame {

	return &frame{
		state:    st,
		storage:  st.storage(self),
		meter:    meter,
		schedule: s.config.Schedule,
		ctx:      s.ctx,
		caller:   caller,
		self:     self,
		value:    value,
	}
}

// run executes the program and converts its outcome. An exhausted meter is a
// dispatch error whatever the program returned, otherwise errors and panics
// revert the execution.
func (s *Sandbox) run(logger zerolog.Logger, meter *meter,
	fn func() ([]byte, error)) (ret session.ExecReturn, derr *runtime.DispatchError) {

	defer func() {
		r := recover()
		if r != nil {
			logger.Debug().Interface("panic", r).Msg("program trapped")

			ret = session.ExecReturn{Flags: session.FlagRevert}
			derr = nil
		}

		if meter.exhausted {
			ret = session.ExecReturn{}
			derr = moduleError(OutOfGas)
		}
	}()

	data, err := fn()
	if err != nil {
		var revert RevertError
		if xerrors.As(err, &revert) {
			return session.ExecReturn{Flags: session.FlagRevert, Data: revert.Data}, nil
		}

		logger.Debug().Err(err).Msg("program trapped")

		return session.ExecReturn{Flags: session.FlagRevert}, nil
	}

	return session.ExecReturn{Data: data}, nil
}

func (s *Sandbox) limit(w runtime.Weight) runtime.Weight {
	if w.IsZero() {
		return s.config.GasLimit
	}

	return w
}

// commit stages the changes of the callback on top of the backend and applies
// them if the callback succeeds.
func (s *Sandbox) commit(fn func(state) error) error {
	staged, err := mem.NewOverlay(s.store).Stage(func(snap store.Snapshot) error {
		return fn(state{snap: snap})
	})
	if err != nil {
		return err
	}

	err = s.store.Update(staged.Apply)
	if err != nil {
		return xerrors.Errorf("commit: %v", err)
	}

	return nil
}

func moduleError(name string) *runtime.DispatchError {
	derr := runtime.NewModuleError(ModuleName, name)
	return &derr
}
