package build

import (
	"fmt"
	"os"
)

// Critical should be called when a state precondition held by the core
// itself has been violated (e.g. roll_up/roll_down invoked against a block
// that does not chain onto the current state). These are programming
// errors, never protocol errors, and are never safe to mask: the caller is
// responsible for invoking the core correctly, so masking here would let
// state quietly diverge. Critical always terminates the process,
// regardless of DEBUG.
func Critical(v ...interface{}) {
	s := "Critical error: " + fmt.Sprintln(v...)
	println(s)
	panic(s)
}

// Severe behaves like Critical in debug builds, and logs-and-continues in
// release builds. Use it for defects that are serious but whose blast
// radius is local to the calling goroutine, where a release build should
// still try to keep serving other callers.
func Severe(v ...interface{}) {
	s := "Severe error: " + fmt.Sprintln(v...)
	if DEBUG {
		panic(s)
	}
	fmt.Fprintln(os.Stderr, s)
}
