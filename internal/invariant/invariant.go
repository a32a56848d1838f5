// Package invariant provides the fatal-assertion helpers used throughout the
// segment layer. A bad class signature, a rank set that isn't a singleton
// when required, a mutation that would temporarily violate the colour/rank
// invariants, or non-zero depth at free is a programming error, not a
// recoverable condition — it is never softened into an error return.
package invariant

import "fmt"

// Check panics if cond is false. The message should state the invariant that
// was broken, not the surrounding context.
func Check(cond bool, format string, args ...any) {
	if !cond {
		panic("invariant violated: " + fmt.Sprintf(format, args...))
	}
}

// Unreachable panics unconditionally. It is used for class operation slots
// that a class does not support — calling one is a programming error by the
// caller, who dispatched through the wrong class.
func Unreachable(format string, args ...any) {
	panic("not reached: " + fmt.Sprintf(format, args...))
}
