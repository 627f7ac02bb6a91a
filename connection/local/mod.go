// Package local implements a connection on top of an execution session that
// runs in the same process.
//
// The connection dispatches every operation to the session on behalf of a
// single origin account and classifies the outcome: a failure of the session
// is a session error, a dispatch error takes precedence over a revert, and
// only an operation that ran to completion produces a result.
//
// Documentation Last Review: 19.10.2026
//
package local

import (
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/inkconn"
	"go.dedis.ch/inkconn/connection"
	"go.dedis.ch/inkconn/core/runtime"
	"go.dedis.ch/inkconn/core/session"
)

// defines prometheus metrics
var (
	promOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inkconn_connection_operations_total",
		Help: "total number of operations per outcome",
	}, []string{"operation", "outcome"})

	promGas = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkconn_connection_gas_consumed",
		Help:    "reference time consumed by the operations that executed",
		Buckets: prometheus.ExponentialBuckets(1e6, 10, 8),
	}, []string{"operation"})
)

func init() {
	inkconn.PromCollectors = append(inkconn.PromCollectors, promOperations, promGas)
}

const outcomeOk = "ok"

// Connection is a connection to a local session.
//
// - implements connection.Connection
type Connection struct {
	session session.Session
	origin  runtime.AccountID
	config  runtime.Config[runtime.AccountID, runtime.Hash]
	tracer  opentracing.Tracer
}

type options struct {
	config runtime.Config[runtime.AccountID, runtime.Hash]
	tracer opentracing.Tracer
}

// Option is the type of option to create a local connection.
type Option func(*options)

// WithConfig sets the runtime configuration used to verify the code hashes.
// The default is the blake2b configuration.
func WithConfig(cfg runtime.Config[runtime.AccountID, runtime.Hash]) Option {
	return func(opts *options) {
		opts.config = cfg
	}
}

// WithTracer sets the tracer that records a span for every operation.
func WithTracer(tracer opentracing.Tracer) Option {
	return func(opts *options) {
		opts.tracer = tracer
	}
}

// NewConnection creates a connection that dispatches the operations to the
// session on behalf of the origin.
func NewConnection(s session.Session, origin runtime.AccountID, opts ...Option) *Connection {
	tmp := options{
		config: runtime.Blake2{},
		tracer: opentracing.NoopTracer{},
	}

	for _, opt := range opts {
		opt(&tmp)
	}

	return &Connection{
		session: s,
		origin:  origin,
		config:  tmp.config,
		tracer:  tmp.tracer,
	}
}

// Origin returns the account on behalf of which the operations are
// dispatched.
func (c *Connection) Origin() runtime.AccountID {
	return c.origin
}

// UploadCode implements connection.Connection. It uploads the code and
// verifies the hash if the call expects one.
func (c *Connection) UploadCode(call connection.UploadCall[runtime.Hash]) (runtime.Hash, error) {
	span := c.tracer.StartSpan("connection.upload_code")
	span.SetTag("size", len(call.Code))
	defer span.Finish()

	hash, err := c.upload(call)

	finish(span, "upload_code", err)

	return hash, err
}

func (c *Connection) upload(call connection.UploadCall[runtime.Hash]) (runtime.Hash, error) {
	hash, err := c.session.UploadCode(c.origin, call.Code)
	if err != nil {
		return hash, connection.NewSessionError(err)
	}

	if call.ExpectedHash != nil && *call.ExpectedHash != hash {
		return hash, connection.ErrCodeHashMismatch
	}

	return hash, nil
}

// Instantiate implements connection.Connection. When the call holds the code,
// it is uploaded first.
func (c *Connection) Instantiate(call connection.InstantiateCall[runtime.AccountID, runtime.Hash]) (
	connection.ContractResult[runtime.AccountID], error) {

	span := c.tracer.StartSpan("connection.instantiate")
	span.SetTag("code_hash", call.CodeHash.String())
	defer span.Finish()

	res, err := c.instantiate(call)

	finish(span, "instantiate", err)

	if err == nil {
		promGas.WithLabelValues("instantiate").Observe(float64(res.GasConsumed.RefTime))
		span.SetTag("contract", res.Result.String())
	}

	return res, err
}

func (c *Connection) instantiate(call connection.InstantiateCall[runtime.AccountID, runtime.Hash]) (
	connection.ContractResult[runtime.AccountID], error) {

	var res connection.ContractResult[runtime.AccountID]

	if call.Code != nil {
		if c.config.HashCode(call.Code) != call.CodeHash {
			return res, connection.ErrCodeHashMismatch
		}

		_, err := c.upload(connection.UploadCall[runtime.Hash]{
			Code:         call.Code,
			ExpectedHash: &call.CodeHash,
		})
		if err != nil {
			return res, err
		}
	}

	out, err := c.session.Instantiate(session.InstantiateRequest{
		Origin:   c.origin,
		CodeHash: call.CodeHash,
		Value:    call.Value,
		GasLimit: call.GasLimit,
		Data:     call.Data,
		Salt:     call.Salt,
	}, session.Commit)

	if err != nil {
		return res, connection.NewSessionError(err)
	}

	if out.DispatchErr != nil {
		return res, connection.NewDeploymentFailed(*out.DispatchErr)
	}

	if out.Return.DidRevert() {
		return res, connection.ErrDeploymentReverted
	}

	return connection.ContractResult[runtime.AccountID]{
		GasConsumed: out.GasConsumed,
		GasRequired: out.GasRequired,
		Result:      out.Account,
		Events:      out.Events,
	}, nil
}

// Exec implements connection.Connection. The message is committed.
func (c *Connection) Exec(call connection.ExecCall[runtime.AccountID]) (
	connection.ContractResult[[]byte], error) {

	return c.call("exec", session.CallRequest{
		Origin:   c.origin,
		Dest:     call.Account,
		Value:    call.Value,
		GasLimit: call.GasLimit,
		Data:     call.Data,
	}, session.Commit)
}

// Read implements connection.Connection. The message is dispatched as a dry
// run so that the session never commits the changes.
func (c *Connection) Read(call connection.ReadCall[runtime.AccountID]) (
	connection.ContractResult[[]byte], error) {

	return c.call("read", session.CallRequest{
		Origin:   c.origin,
		Dest:     call.Account,
		Value:    call.Value,
		GasLimit: call.GasLimit,
		Data:     call.Data,
	}, session.DryRun)
}

func (c *Connection) call(op string, req session.CallRequest,
	mode session.Mode) (connection.ContractResult[[]byte], error) {

	span := c.tracer.StartSpan("connection." + op)
	span.SetTag("contract", req.Dest.String())
	defer span.Finish()

	var res connection.ContractResult[[]byte]

	out, err := c.session.Call(req, mode)
	if err != nil {
		err = connection.NewSessionError(err)
	} else if out.DispatchErr != nil {
		err = connection.NewCallFailed(*out.DispatchErr)
	} else if out.Return.DidRevert() {
		err = connection.ErrCallReverted
	}

	finish(span, op, err)

	if err != nil {
		return res, err
	}

	promGas.WithLabelValues(op).Observe(float64(out.GasConsumed.RefTime))

	res = connection.ContractResult[[]byte]{
		GasConsumed: out.GasConsumed,
		GasRequired: out.GasRequired,
		Result:      out.Return.Data,
		Events:      out.Events,
	}

	return res, nil
}

// finish records the outcome of the operation.
func finish(span opentracing.Span, op string, err error) {
	outcome := outcomeOk

	if err != nil {
		outcome = "unknown"

		cerr, ok := err.(connection.Error)
		if ok {
			outcome = cerr.Kind.String()
		}

		span.SetTag("error", true)
		span.LogKV("event", "error", "message", err.Error())
	}

	span.SetTag("outcome", outcome)

	promOperations.WithLabelValues(op, outcome).Inc()
}
