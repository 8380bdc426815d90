// Package jsonrpc exposes the simulation pipeline over JSON-RPC 2.0 on Gin, the transport spec.md itself
// scopes out of the core but which this repo still needs to be runnable end to end.
package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/entrypointlabs/uopguard/internal/logger"
	"github.com/entrypointlabs/uopguard/pkg/simulation"
)

// Request is a JSON-RPC 2.0 request object.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

// Response is a JSON-RPC 2.0 response object. Exactly one of Result or Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Handler answers one JSON-RPC method call.
type Handler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Controller returns Gin middleware dispatching JSON-RPC requests to handlers by method name. Unknown
// methods and malformed request bodies get a JSON-RPC error response, never an HTTP error status.
func Controller(handlers map[string]Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, errorResponse(nil, InternalErrorCode, "invalid JSON-RPC request"))
			return
		}

		handler, ok := handlers[req.Method]
		if !ok {
			c.JSON(http.StatusOK, errorResponse(req.ID, MethodNotFoundErrorCode, "method not found: "+req.Method))
			return
		}

		log := logger.FromContext(c).WithValues("rpcMethod", req.Method)
		result, err := handler(c.Request.Context(), req.Params)
		if err != nil {
			code, msg := translateError(err)
			log.V(1).Info("rpc call failed", "code", code, "error", msg)
			c.JSON(http.StatusOK, errorResponse(req.ID, code, msg))
			return
		}

		c.JSON(http.StatusOK, Response{JSONRPC: "2.0", Result: result, ID: req.ID})
	}
}

// MethodNotFoundErrorCode is the standard JSON-RPC 2.0 code for an unrecognized method.
const MethodNotFoundErrorCode = -32601

// InternalErrorCode mirrors simulation.InternalErrorCode for transport-level failures that never reach the
// pipeline (a malformed request body, for instance).
const InternalErrorCode = simulation.InternalErrorCode

func translateError(err error) (int, string) {
	var simErr *simulation.SimulationError
	if errors.As(err, &simErr) {
		return simErr.RPCCode(), simErr.Error()
	}
	return InternalErrorCode, err.Error()
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: "2.0", Error: &Error{Code: code, Message: message}, ID: id}
}
