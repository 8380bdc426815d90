package simulation

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/entrypointlabs/uopguard/pkg/entrypoint/methods"
	"github.com/entrypointlabs/uopguard/pkg/tracer"
)

const validatePaymasterUserOpMethod = "validatePaymasterUserOp"

// ReduceCallStack folds the flat call/return/revert event sequence into completed CallEntry values,
// using a work stack keyed by call depth. A pop on an empty stack is silently ignored; trailing
// unclosed frames on the stack at EOF are discarded, since they carry no information the downstream
// checker needs.
func ReduceCallStack(calls []tracer.CallEvent) []CallEntry {
	var stack []tracer.CallEvent
	var out []CallEntry

	for _, event := range calls {
		switch event.Type {
		case "CALL", "DELEGATECALL", "STATICCALL", "CREATE", "CREATE2":
			stack = append(stack, event)
		case "RETURN", "REVERT":
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if strings.Contains(top.Type, "CREATE") {
				var to common.Address
				if top.To != nil {
					to = *top.To
				}
				out = append(out, CallEntry{Type: top.Type, From: top.From, To: to})
				continue
			}

			var to common.Address
			if top.To != nil {
				to = *top.To
			}
			entry := CallEntry{
				Type:   top.Type,
				From:   top.From,
				To:     to,
				Method: methodName(top.Method),
			}
			if event.Type == "REVERT" {
				entry.Rev = event.Data
				entry.Value = top.Value
			} else {
				entry.Ret = event.Data
			}
			out = append(out, entry)
		}
	}
	return out
}

func methodName(selector []byte) string {
	if len(selector) != 4 {
		return ""
	}
	var sel [4]byte
	copy(sel[:], selector)
	if name, ok := methods.FunctionNames[sel]; ok {
		return name
	}
	return ""
}

// CheckCallStack enforces the paymaster-context post-condition: a paymaster that returns a non-empty
// validation context to the EntryPoint must be staked.
func CheckCallStack(ctx context.Context, entries []CallEntry, vec EntityVector, reputation Reputation) error {
	paymaster := vec[Paymaster]
	if paymaster.Address == (common.Address{}) {
		return nil
	}

	var call *CallEntry
	for i := range entries {
		if entries[i].Method == validatePaymasterUserOpMethod && entries[i].To == paymaster.Address {
			call = &entries[i]
			break
		}
	}
	if call == nil {
		return nil
	}

	decoded, err := methods.DecodeValidatePaymasterUserOpReturn(call.Ret)
	if err != nil {
		return errUserOperationRejected("unknown error")
	}
	if len(decoded.Context) == 0 {
		return nil
	}

	if err := reputation.VerifyStake(ctx, "paymaster", paymaster); err != nil {
		return errCallStackValidation("Paymaster that is not staked should not return context")
	}
	return nil
}
