package resilience

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/moby/sys/reexec"
	"golang.org/x/sys/unix"
)

// EnterDirChild is the name the binary is re-executed under to probe a
// directory. Programs using EnterDirCommand must call reexec.Init first thing
// in main.
const EnterDirChild = "mailgate-enter-dir"

func init() {
	reexec.Register(EnterDirChild, enterDir)
}

// enterDir is the child side: exit 0 when the directory could be entered,
// exit 1 when chdir failed, exit 2 on bad usage.
func enterDir() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <dir>\n", EnterDirChild)
		os.Exit(2)
	}
	if err := unix.Chdir(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "chdir %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
	os.Exit(0)
}

// EnterDirCommand returns a command that re-executes the current binary as a
// child which changes into dir and exits.
func EnterDirCommand(dir string) *exec.Cmd {
	return reexec.Command(EnterDirChild, dir)
}
