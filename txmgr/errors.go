package txmgr

import (
	"encoding/json"
	"fmt"

	"github.com/regolith-labs/ore-cli-sub000/errcode"
)

// parseTransactionError converts the error object reported in a signature
// status into a ProgramError.  Instruction errors carry the index of the
// failing instruction; custom program errors also carry their code.
//
// Typical shapes:
//
//	{"InstructionError":[2,{"Custom":0}]}
//	{"InstructionError":[1,"InvalidAccountData"]}
//	"AccountInUse"
func parseTransactionError(txErr interface{}) *errcode.ProgramError {
	if txErr == nil {
		return nil
	}
	raw, _ := json.Marshal(txErr)
	perr := &errcode.ProgramError{Instruction: -1, Raw: string(raw)}

	m, ok := txErr.(map[string]interface{})
	if !ok {
		return perr
	}
	ixErr, ok := m["InstructionError"].([]interface{})
	if !ok || len(ixErr) != 2 {
		return perr
	}
	if idx, ok := toInt(ixErr[0]); ok {
		perr.Instruction = int(idx)
	}
	if detail, ok := ixErr[1].(map[string]interface{}); ok {
		if code, ok := toInt(detail["Custom"]); ok {
			perr.Custom = true
			perr.Code = uint32(code)
		}
	}
	return perr
}

func toInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

func describe(perr *errcode.ProgramError) string {
	if perr == nil {
		return "none"
	}
	return fmt.Sprintf("%v (%s)", perr, perr.Raw)
}
