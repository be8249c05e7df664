package steg

import (
	"fmt"
	"io"
	"os"
)

// OutputLevel is how chatty the file-level operations are.
type OutputLevel int

const (
	OutputNothing OutputLevel = iota // Print nothing.
	OutputSteps                      // Print each step as it starts.
	OutputInfo                       // Also print image and payload details.
	OutputDebug                      // Also print bit-level dumps.
)

// Output is where progress messages go.
var Output io.Writer = os.Stdout

func printlnLvl(current, required OutputLevel, a ...interface{}) {
	if current >= required {
		fmt.Fprintln(Output, a...)
	}
}
