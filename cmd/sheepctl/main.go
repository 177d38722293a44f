// Command sheepctl drives the habit sheep farm from the terminal: adopt
// habits, submit morning check-ins, shear wool and inspect or migrate the
// persisted game state.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	exitFunc = os.Exit
	nowFunc  = time.Now
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{out: stdout}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	// Cobra reports command errors itself.
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil {
		fmt.Fprintln(stderr, "Error:", cerr)
		return 1
	}
	if err != nil {
		return 1
	}
	return 0
}
