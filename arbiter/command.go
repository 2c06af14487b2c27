package arbiter

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Kind identifies a top-level command.
type Kind int

const (
	// Nop is a blank line or a comment.
	Nop Kind = iota
	Unknown
	// Search is "s <phrase>".
	Search
	// URL is "u <url>...".
	URL
	// StateCmd is "st <sub>".
	StateCmd
	// OracleCmd is "o <sub>".
	OracleCmd
	SeerCmd
	ShowPointer
	ShowState
	// NewFunction starts recording a function.
	NewFunction
	CallFunction
	ListFunctions
	RemoveFunction
	// Run runs a script file.
	Run
	Help
)

// Kinds maps the first token of a line to its Kind.
var Kinds = map[string]Kind{
	"s":       Search,
	"u":       URL,
	"st":      StateCmd,
	"o":       OracleCmd,
	"oracle":  OracleCmd,
	"seer":    SeerCmd,
	"pointer": ShowPointer,
	"state":   ShowState,
	"newf":    NewFunction,
	"f":       CallFunction,
	"call":    CallFunction,
	"funcs":   ListFunctions,
	"rmf":     RemoveFunction,
	"run":     Run,
	"help":    Help,
}

// Command is a parsed line.
type Command struct {
	Kind Kind
	Name string
	Args []string
	Line string
}

// Rest returns the arguments joined by single spaces.
func (c *Command) Rest() string {
	return strings.Join(c.Args, " ")
}

// UnknownCommand is returned by Parse for a first token that isn't a
// command.
type UnknownCommand struct {
	Name string

	// Suggestions are known commands that look like Name.
	Suggestions []string
}

func (e *UnknownCommand) Error() string {
	msg := "unknown command: " + e.Name
	if 0 < len(e.Suggestions) {
		msg += " (did you mean " + strings.Join(e.Suggestions, ", ") + "?)"
	}
	return msg
}

// Parse tokenizes the line on whitespace and classifies it by its
// first token.
//
// Blank lines and comments (lines starting with '#') are Nop.  A line
// with an unknown first token gives a Command of Kind Unknown and an
// *UnknownCommand.
func Parse(line string) (*Command, error) {
	line = strings.TrimSpace(line)
	cmd := &Command{
		Line: line,
	}
	if line == "" || strings.HasPrefix(line, "#") {
		return cmd, nil
	}
	fs := strings.Fields(line)
	cmd.Name, cmd.Args = fs[0], fs[1:]
	k, have := Kinds[cmd.Name]
	if !have {
		cmd.Kind = Unknown
		return cmd, &UnknownCommand{
			Name:        cmd.Name,
			Suggestions: Suggest(cmd.Name, commandNames(), 3),
		}
	}
	cmd.Kind = k
	return cmd, nil
}

func commandNames() []string {
	acc := make([]string, 0, len(Kinds))
	for name := range Kinds {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

// Suggest returns at most n of the given names that fuzzily match
// the given word, best first.
func Suggest(word string, names []string, n int) []string {
	ms := fuzzy.Find(word, names)
	acc := make([]string, 0, n)
	for _, m := range ms {
		if len(acc) == n {
			break
		}
		acc = append(acc, m.Str)
	}
	return acc
}
