package errcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/regolith-labs/ore-cli-sub000/constdef"
)

func TestProgramError_NeedsReset(t *testing.T) {
	t.Run("test_1", func(t *testing.T) {
		err := fmt.Errorf("submit: %w", &ProgramError{Instruction: 3, Code: constdef.NeedsResetCode, Custom: true})
		if !errors.Is(err, ErrNeedsReset) {
			t.Error("reset code not reported as ErrNeedsReset")
		}
		if IsFatal(err) {
			t.Error("needs reset is fatal")
		}
	})

	t.Run("test_2", func(t *testing.T) {
		err := &ProgramError{Instruction: 3, Code: constdef.NeedsResetCode + 6, Custom: true}
		if errors.Is(err, ErrNeedsReset) {
			t.Error("other custom code reported as ErrNeedsReset")
		}
		if !IsFatal(err) {
			t.Error("program error not fatal")
		}
	})

	t.Run("test_3", func(t *testing.T) {
		err := &ProgramError{Raw: "AccountInUse"}
		if errors.Is(err, ErrNeedsReset) {
			t.Error("non-custom error reported as ErrNeedsReset")
		}
	})
}
