package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/ATSOTECK/pyhost/internal/pytype"
	"github.com/ATSOTECK/pyhost/internal/pytype/demo"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		fmt.Println("Usage: typeshell")
		fmt.Println("Interactive REPL over the live type registry. Type 'help' for commands.")
		return
	}

	core, err := demo.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build type core: %v\n", err)
		os.Exit(1)
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		runBatch(core, os.Stdin)
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enter raw mode: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(fd, oldState)

	tty := term.NewTerminal(os.Stdin, "typeshell> ")
	fmt.Fprintln(tty, "pyhost typeshell - interactive type registry inspector. 'help' for commands, 'exit' to quit.")

	for {
		line, err := tty.ReadLine()
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "exit" || line == "quit" {
			break
		}
		if out := dispatch(core, line); out != "" {
			fmt.Fprintln(tty, out)
		}
	}
}

// runBatch serves the same command language over a plain stdin pipe, for
// non-interactive callers (tests, scripted invocation) where raw mode
// can't attach.
func runBatch(core *demo.Core, in *os.File) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return
		}
		if out := dispatch(core, line); out != "" {
			fmt.Println(out)
		}
	}
}

// dispatch interprets one REPL command and returns its printable result,
// or "" for blank input. Recognized commands: help, types, mro <name>,
// dict <name>.
func dispatch(core *demo.Core, line string) string {
	if line == "" {
		return ""
	}
	fields := strings.Fields(line)
	switch fields[0] {
	case "help":
		return "commands: types | mro <name> | dict <name> | exit"
	case "types":
		return listTypes(core)
	case "mro":
		if len(fields) != 2 {
			return "usage: mro <name>"
		}
		return showMRO(core, fields[1])
	case "dict":
		if len(fields) != 2 {
			return "usage: dict <name>"
		}
		return showDict(core, fields[1])
	default:
		return fmt.Sprintf("unknown command %q (try 'help')", fields[0])
	}
}

func resolvePyType(core *demo.Core, name string) (*pytype.PyType, bool) {
	for _, t := range []*pytype.PyType{core.Object, core.Type, core.Int, core.Point, core.Dynamic, core.Leaf, core.Leaf2} {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

func listTypes(core *demo.Core) string {
	types := []*pytype.PyType{core.Object, core.Type, core.Int, core.Point, core.Dynamic, core.Leaf, core.Leaf2}
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.Name())
	}
	sort.Strings(names)
	return strings.Join(names, "\n")
}

func showMRO(core *demo.Core, name string) string {
	t, ok := resolvePyType(core, name)
	if !ok {
		return fmt.Sprintf("no such type: %s", name)
	}
	names := make([]string, 0, len(t.MRO()))
	for _, m := range t.MRO() {
		names = append(names, m.Name())
	}
	return strings.Join(names, " -> ")
}

func showDict(core *demo.Core, name string) string {
	t, ok := resolvePyType(core, name)
	if !ok {
		return fmt.Sprintf("no such type: %s", name)
	}
	dict := t.Dict()
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\n")
}
