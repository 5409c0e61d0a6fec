package txmgr

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/regolith-labs/ore-cli-sub000/errcode"
)

func decode(t *testing.T, s string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatal(err.Error())
	}
	return v
}

func TestParseTransactionError(t *testing.T) {
	t.Run("test_1", func(t *testing.T) {
		perr := parseTransactionError(decode(t, `{"InstructionError":[2,{"Custom":0}]}`))
		if perr.Instruction != 2 || !perr.Custom || perr.Code != 0 {
			t.Errorf("unexpected %+v", perr)
		}
		if !errors.Is(perr, errcode.ErrNeedsReset) {
			t.Error("custom 0 not classified as needs reset")
		}
		if errcode.IsFatal(perr) {
			t.Error("needs reset classified as fatal")
		}
	})
	t.Run("test_2", func(t *testing.T) {
		perr := parseTransactionError(decode(t, `{"InstructionError":[3,{"Custom":1}]}`))
		if errors.Is(perr, errcode.ErrNeedsReset) || !errcode.IsFatal(perr) {
			t.Errorf("custom 1 misclassified: %v", perr)
		}
	})
	t.Run("test_3", func(t *testing.T) {
		perr := parseTransactionError(decode(t, `{"InstructionError":[1,"InvalidAccountData"]}`))
		if perr.Custom || perr.Instruction != 1 || !errcode.IsFatal(perr) {
			t.Errorf("unexpected %+v", perr)
		}
	})
	t.Run("test_4", func(t *testing.T) {
		perr := parseTransactionError("AccountInUse")
		if perr.Instruction != -1 || perr.Raw != `"AccountInUse"` {
			t.Errorf("unexpected %+v", perr)
		}
	})
	t.Run("test_5", func(t *testing.T) {
		if parseTransactionError(nil) != nil {
			t.Error("nil error parsed")
		}
	})
}
