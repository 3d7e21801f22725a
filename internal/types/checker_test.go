package types_test

import (
	"testing"

	"github.com/jordyorel/orus-lang-sub001/internal/diag"
	"github.com/jordyorel/orus-lang-sub001/internal/parser"
	"github.com/jordyorel/orus-lang-sub001/internal/types"
	"github.com/stretchr/testify/require"
)

func checkSource(t *testing.T, src string) *diag.Reporter {
	t.Helper()
	r := diag.NewReporter()
	prog := parser.Parse("test.orus", src, r)
	require.False(t, r.Failed(), "parse errors: %v", r.Errors())
	c := types.NewChecker(r)
	c.Check(prog)
	return r
}

func TestChecker_WellTypedProgram(t *testing.T) {
	r := checkSource(t, `
		fn add(a: i32, b: i32) -> i32 {
			return a + b;
		}
		fn main() {
			let total = add(1, 2);
			if total == 3 {
				return;
			}
		}
	`)
	require.False(t, r.Failed(), "unexpected diagnostics: %v", r.Errors())
}

func TestChecker_UndeclaredIdentifier(t *testing.T) {
	r := checkSource(t, `fn main() { let x = y; }`)
	require.True(t, r.Failed())
	require.Equal(t, diag.Name, r.Errors()[0].Kind)
}

func TestChecker_MismatchedLetType(t *testing.T) {
	r := checkSource(t, `fn main() { let x: bool = 1; }`)
	require.True(t, r.Failed())
	require.Equal(t, diag.Type, r.Errors()[0].Kind)
}

func TestChecker_NonLiteralForStep(t *testing.T) {
	r := checkSource(t, `
		fn main() {
			let step = 2;
			for i in 0..10..step {
			}
		}
	`)
	require.True(t, r.Failed())
	require.Equal(t, diag.Compile, r.Errors()[0].Kind)
}

func TestChecker_ArgumentCountMismatch(t *testing.T) {
	r := checkSource(t, `
		fn add(a: i32, b: i32) -> i32 { return a + b; }
		fn main() { let x = add(1); }
	`)
	require.True(t, r.Failed())
}

func TestChecker_IfConditionMustBeBool(t *testing.T) {
	r := checkSource(t, `fn main() { if 1 { } }`)
	require.True(t, r.Failed())
}
