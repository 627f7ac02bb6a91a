package controller

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"go.dedis.ch/inkconn/cli"
	"go.dedis.ch/inkconn/cli/node"
	"go.dedis.ch/inkconn/connection"
	"go.dedis.ch/inkconn/core/message"
	"go.dedis.ch/inkconn/core/runtime"
	"go.dedis.ch/inkconn/core/session/sandbox"
	"go.dedis.ch/inkconn/crypto/ed25519"
	sjson "go.dedis.ch/inkconn/serde/json"
	"golang.org/x/xerrors"
)

// uploadAction is an action to upload the code of a contract.
//
// - implements node.ActionTemplate
type uploadAction struct{}

// Execute implements node.ActionTemplate. It reads the code from the file and
// prints the code hash.
func (uploadAction) Execute(ctx node.Context) error {
	conn, err := resolveConn(ctx.Injector)
	if err != nil {
		return err
	}

	code, err := os.ReadFile(ctx.Flags.Path("code"))
	if err != nil {
		return xerrors.Errorf("failed to read code: %v", err)
	}

	call := connection.UploadCall[runtime.Hash]{Code: code}

	str := ctx.Flags.String("hash")
	if str != "" {
		expected, err := runtime.ParseHash(str)
		if err != nil {
			return xerrors.Errorf("invalid hash: %v", err)
		}

		call.ExpectedHash = &expected
	}

	hash, err := conn.UploadCode(call)
	if err != nil {
		return xerrors.Errorf("failed to upload: %v", err)
	}

	fmt.Fprintf(ctx.Out, "code hash: %v", hash)

	return nil
}

// instantiateAction is an action to instantiate a contract.
//
// - implements node.ActionTemplate
type instantiateAction struct{}

// Execute implements node.ActionTemplate. It instantiates the contract from
// the code hash, or from the code when the path is set, and prints the
// address of the contract.
func (instantiateAction) Execute(ctx node.Context) error {
	conn, err := resolveConn(ctx.Injector)
	if err != nil {
		return err
	}

	input, err := makeInput(ctx.Flags, ctx.Flags.String("constructor"))
	if err != nil {
		return err
	}

	call := connection.InstantiateCall[runtime.AccountID, runtime.Hash]{
		Data:     input,
		Salt:     []byte(ctx.Flags.String("salt")),
		Value:    runtime.Balance(ctx.Flags.Uint64("value")),
		GasLimit: gasLimit(ctx.Flags),
	}

	path := ctx.Flags.Path("code")
	if path != "" {
		call.Code, err = os.ReadFile(path)
		if err != nil {
			return xerrors.Errorf("failed to read code: %v", err)
		}

		call.CodeHash = runtime.Blake2{}.HashCode(call.Code)
	}

	str := ctx.Flags.String("hash")
	if str != "" {
		call.CodeHash, err = runtime.ParseHash(str)
		if err != nil {
			return xerrors.Errorf("invalid hash: %v", err)
		}
	} else if path == "" {
		return xerrors.New("missing code hash or code")
	}

	res, err := conn.Instantiate(call)
	if err != nil {
		return xerrors.Errorf("failed to instantiate: %v", err)
	}

	fmt.Fprintf(ctx.Out, "contract: %v", res.Result)
	printResult(ctx.Out, res.GasConsumed, res.GasRequired, res.Events)

	return nil
}

// callAction is an action to execute or to read a message of a contract.
//
// - implements node.ActionTemplate
type callAction struct {
	dryRun bool
}

// Execute implements node.ActionTemplate. It sends the message to the contract
// and prints the result returned by the contract.
func (a callAction) Execute(ctx node.Context) error {
	conn, err := resolveConn(ctx.Injector)
	if err != nil {
		return err
	}

	addr, err := runtime.ParseAccountID(ctx.Flags.String("address"))
	if err != nil {
		return xerrors.Errorf("invalid address: %v", err)
	}

	input, err := makeInput(ctx.Flags, ctx.Flags.String("message"))
	if err != nil {
		return err
	}

	value := runtime.Balance(ctx.Flags.Uint64("value"))

	var res connection.ContractResult[[]byte]

	if a.dryRun {
		res, err = conn.Read(connection.ReadCall[runtime.AccountID]{
			Account:  addr,
			Data:     input,
			Value:    value,
			GasLimit: gasLimit(ctx.Flags),
		})
	} else {
		res, err = conn.Exec(connection.ExecCall[runtime.AccountID]{
			Account:  addr,
			Data:     input,
			Value:    value,
			GasLimit: gasLimit(ctx.Flags),
		})
	}

	if err != nil {
		return xerrors.Errorf("failed to call: %v", err)
	}

	fmt.Fprintf(ctx.Out, "result: %s", formatReturn(res.Result))
	printResult(ctx.Out, res.GasConsumed, res.GasRequired, res.Events)

	return nil
}

// balanceAction is an action to print the balance of an account.
//
// - implements node.ActionTemplate
type balanceAction struct{}

// Execute implements node.ActionTemplate. It prints the balance of the account,
// or of the daemon account when the address is not set.
func (balanceAction) Execute(ctx node.Context) error {
	var sb *sandbox.Sandbox
	err := ctx.Injector.Resolve(&sb)
	if err != nil {
		return xerrors.Errorf("failed to resolve sandbox: %v", err)
	}

	var acct runtime.AccountID

	str := ctx.Flags.String("address")
	if str != "" {
		acct, err = runtime.ParseAccountID(str)
		if err != nil {
			return xerrors.Errorf("invalid address: %v", err)
		}
	} else {
		signer, err := resolveSigner(ctx.Injector)
		if err != nil {
			return err
		}

		acct = signer.Account()
	}

	balance, err := sb.Balance(acct)
	if err != nil {
		return xerrors.Errorf("failed to read balance: %v", err)
	}

	fmt.Fprintf(ctx.Out, "%v: %d", acct, balance)

	return nil
}

// keyAction is an action to print the account of the daemon.
//
// - implements node.ActionTemplate
type keyAction struct{}

// Execute implements node.ActionTemplate.
func (keyAction) Execute(ctx node.Context) error {
	signer, err := resolveSigner(ctx.Injector)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "account: %v", signer.Account())
	fmt.Fprintf(ctx.Out, "public key: %v", signer.GetPublicKey())

	return nil
}

func resolveConn(inj node.Injector) (Conn, error) {
	var conn Conn

	err := inj.Resolve(&conn)
	if err != nil {
		return nil, xerrors.Errorf("failed to resolve connection: %v", err)
	}

	return conn, nil
}

func resolveSigner(inj node.Injector) (ed25519.Signer, error) {
	var signer ed25519.Signer

	err := inj.Resolve(&signer)
	if err != nil {
		return signer, xerrors.Errorf("failed to resolve signer: %v", err)
	}

	return signer, nil
}

// makeInput returns the input made of the selector of the label and the
// arguments of the flags.
func makeInput(flags cli.Flags, label string) ([]byte, error) {
	if label == "" {
		return nil, xerrors.New("missing label")
	}

	var args interface{}

	str := flags.String("args")
	if str != "" {
		if !json.Valid([]byte(str)) {
			return nil, xerrors.Errorf("invalid JSON arguments: %s", str)
		}

		args = json.RawMessage(str)
	}

	input, err := message.Encode(sjson.NewContext(), message.NewSelector(label), args)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode input: %v", err)
	}

	return input, nil
}

func gasLimit(flags cli.Flags) runtime.Weight {
	return runtime.NewWeight(flags.Uint64("gas-ref"), flags.Uint64("gas-proof"))
}

// formatReturn returns a readable form of the data returned by a contract.
func formatReturn(data []byte) string {
	res, err := message.NewDecoder[json.RawMessage](sjson.NewContext()).Decode(data)
	if err != nil {
		return fmt.Sprintf("%#x", data)
	}

	code, failed := res.LangErr()
	if failed {
		return fmt.Sprintf("Err(%v)", code)
	}

	return fmt.Sprintf("Ok(%s)", res.Value())
}

func printResult(out io.Writer, consumed, required runtime.Weight, events []connection.ContractEvent) {
	fmt.Fprintf(out, "gas consumed: %v", consumed)
	fmt.Fprintf(out, "gas required: %v", required)

	for _, evt := range events {
		fmt.Fprintf(out, "event: %v", evt)
	}
}
