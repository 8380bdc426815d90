// Package entrypoint implements the EntryPointClient and ChainClient capabilities the simulation pipeline
// depends on, driving a live node over JSON-RPC exactly as the EntryPoint's off-chain simulateValidation
// and debug_traceCall conventions require.
package entrypoint

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/entrypointlabs/uopguard/pkg/entrypoint/reverts"
	"github.com/entrypointlabs/uopguard/pkg/simulation"
	"github.com/entrypointlabs/uopguard/pkg/tracer"
	"github.com/entrypointlabs/uopguard/pkg/userop"
)

// Client drives simulateValidation and its trace against one EntryPoint deployment on one chain. It
// implements simulation.EntryPointClient and simulation.ChainClient.
type Client struct {
	RPC        *rpc.Client
	Eth        *ethclient.Client
	EntryPoint common.Address
	TracerName string
}

// NewClient wraps an already-dialed JSON-RPC client. TracerName selects a natively registered tracer
// (e.g. "erc7562Tracer"); leave empty to fall back to the embedded JS collector tracer.
func NewClient(rpcClient *rpc.Client, entryPoint common.Address, tracerName string) *Client {
	return &Client{
		RPC:        rpcClient,
		Eth:        ethclient.NewClient(rpcClient),
		EntryPoint: entryPoint,
		TracerName: tracerName,
	}
}

var _ simulation.EntryPointClient = (*Client)(nil)
var _ simulation.ChainClient = (*Client)(nil)

// CodeAt implements simulation.ChainClient.
func (c *Client) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	return c.Eth.CodeAt(ctx, address, nil)
}

// SimulateValidation implements simulation.EntryPointClient by issuing simulateValidation as a static
// call expected to revert, then decoding whichever EntryPoint error the revert data carries.
func (c *Client) SimulateValidation(ctx context.Context, op *userop.UserOperation) (*simulation.SimulateValidationResult, *reverts.FailedOp, error) {
	data, err := EncodeSimulateValidationCall(op)
	if err != nil {
		return nil, nil, err
	}

	msg := ethereum.CallMsg{To: &c.EntryPoint, Data: data}
	_, callErr := c.Eth.CallContract(ctx, msg, nil)
	if callErr == nil {
		return nil, nil, errNoRevert
	}

	revertData := extractRevertData(callErr)
	if revertData == nil {
		return nil, nil, callErr
	}

	if failedOp, err := reverts.NewFailedOp(revertData); err == nil {
		return nil, failedOp, nil
	}

	plain, withAgg, err := reverts.NewValidationResult(revertData)
	if err != nil {
		return nil, nil, err
	}
	return &simulation.SimulateValidationResult{Plain: plain, WithAggregation: withAgg}, nil, nil
}

// SimulateValidationTrace implements simulation.EntryPointClient via debug_traceCall against the same
// simulateValidation call.
func (c *Client) SimulateValidationTrace(ctx context.Context, op *userop.UserOperation) (*tracer.CollectorReturn, *reverts.FailedOp, error) {
	data, err := EncodeSimulateValidationCall(op)
	if err != nil {
		return nil, nil, err
	}

	tracerSpec := c.TracerName
	if tracerSpec == "" {
		tracerSpec = tracer.CollectorTracerSource
	}

	req := traceCallReq{
		From:         common.Address{},
		To:           c.EntryPoint,
		Data:         data,
		MaxFeePerGas: hexutil.Big(*op.MaxFeePerGas),
	}
	opts := traceCallOpts{
		Tracer: tracerSpec,
		StateOverrides: map[common.Address]stateOverride{
			{}: {Balance: (*hexutil.Big)(new(big.Int).Lsh(big.NewInt(1), 128))},
		},
	}

	var res tracer.CollectorReturn
	if err := c.RPC.CallContext(ctx, &res, "debug_traceCall", &req, "latest", &opts); err != nil {
		revertData := extractRevertData(err)
		if revertData != nil {
			if failedOp, decodeErr := reverts.NewFailedOp(revertData); decodeErr == nil {
				return nil, failedOp, nil
			}
		}
		return nil, nil, err
	}
	return &res, nil, nil
}

type traceCallReq struct {
	From         common.Address `json:"from"`
	To           common.Address `json:"to"`
	Data         hexutil.Bytes  `json:"data"`
	MaxFeePerGas hexutil.Big    `json:"maxFeePerGas"`
}

type stateOverride struct {
	Balance *hexutil.Big `json:"balance,omitempty"`
}

type traceCallOpts struct {
	Tracer         string                           `json:"tracer"`
	StateOverrides map[common.Address]stateOverride `json:"stateOverrides,omitempty"`
}

// dataError is the interface go-ethereum's RPC error type implements when a call reverted with data.
type dataError interface {
	Error() string
	ErrorData() interface{}
}

func extractRevertData(err error) []byte {
	de, ok := err.(dataError)
	if !ok {
		return nil
	}
	raw := de.ErrorData()
	switch v := raw.(type) {
	case string:
		b, decodeErr := hexutil.Decode(v)
		if decodeErr != nil {
			return nil
		}
		return b
	case json.RawMessage:
		var s string
		if jsonErr := json.Unmarshal(v, &s); jsonErr != nil {
			return nil
		}
		b, decodeErr := hexutil.Decode(s)
		if decodeErr != nil {
			return nil
		}
		return b
	default:
		return nil
	}
}

var errNoRevert = simulationUnexpectedSuccess{}

type simulationUnexpectedSuccess struct{}

func (simulationUnexpectedSuccess) Error() string {
	return "entrypoint: simulateValidation did not revert as expected"
}
