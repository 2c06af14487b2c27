package arbiter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/GRAYgoose124/wikicrawler/core"

	"go.uber.org/zap"
)

// Step is one command of a Script: a Literal or a Deferred.
type Step interface {
	isStep()
}

// Literal is a command line known in advance.
type Literal string

// Deferred computes its command line when the step runs, so it can
// see what earlier steps did.
type Deferred func(ctx context.Context) (string, error)

func (Literal) isStep()  {}
func (Deferred) isStep() {}

// Script is a named sequence of steps.
type Script struct {
	Name  string
	Steps []Step
}

// ScriptFromSteps makes a Script from the given steps.
func ScriptFromSteps(name string, steps ...Step) *Script {
	return &Script{
		Name:  name,
		Steps: steps,
	}
}

// ScriptFromLines makes a Script with one Literal per line.
func ScriptFromLines(name string, lines []string) *Script {
	steps := make([]Step, 0, len(lines))
	for _, line := range lines {
		steps = append(steps, Literal(line))
	}
	return ScriptFromSteps(name, steps...)
}

// ScriptFromString makes a Script with one Literal per line of src.
func ScriptFromString(name, src string) *Script {
	return ScriptFromLines(name, strings.Split(src, "\n"))
}

// Interpreter compiles the source of a script file.
type Interpreter interface {
	Compile(ctx context.Context, p *Prompt, name, src string) (*Script, error)
}

// Interpreters maps a file extension (like ".js") to the Interpreter
// for files with that extension.  Interpreter packages add
// themselves here.
var Interpreters = make(map[string]Interpreter)

// ScriptFromFile reads a script file.
//
// A file with an extension in Interpreters is compiled by that
// Interpreter.  Any other file is one command per line.
func (p *Prompt) ScriptFromFile(ctx context.Context, filename string) (*Script, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if i, have := p.Interpreters[filepath.Ext(filename)]; have {
		return i.Compile(ctx, p, filename, string(bs))
	}
	return ScriptFromString(filename, string(bs)), nil
}

// StepResult is what one step of a Script did.
type StepResult struct {
	Line   string
	Result *Result
	Err    error
}

func (r *StepResult) String() string {
	return r.Line + " => " + r.Result.String()
}

// Exec runs the Script's steps in order, non-interactively.
//
// A failing step is reported and the next step runs.  An
// unrecoverable error (or cancellation) stops the script and is
// returned.
func (p *Prompt) Exec(ctx context.Context, s *Script) ([]*StepResult, error) {
	acc := make([]*StepResult, 0, len(s.Steps))
	for i, step := range s.Steps {
		var (
			line string
			err  error
		)
		switch vv := step.(type) {
		case Literal:
			line = string(vv)
		case Deferred:
			line, err = vv(ctx)
			p.logger.Debug("deferred step", zap.String("script", s.Name), zap.Int("step", i), zap.String("line", line))
		default:
			err = fmt.Errorf("unknown step type %T", step)
		}

		var r *Result
		if err == nil {
			r, err = p.Do(ctx, line, false)
		}
		if err != nil {
			r = p.report(line, err)
		}
		acc = append(acc, &StepResult{
			Line:   line,
			Result: r,
			Err:    err,
		})
		if err == nil {
			continue
		}
		if core.IsUnrecoverable(err) {
			return acc, err
		}
		if err := ctx.Err(); err != nil {
			return acc, err
		}
	}
	return acc, nil
}

// RunScript runs src, which is a script when it has more than one
// line, otherwise the name of an existing script file, otherwise a
// single command.
func (p *Prompt) RunScript(ctx context.Context, src string) ([]*StepResult, error) {
	var s *Script
	if strings.Contains(src, "\n") {
		s = ScriptFromString("inline", src)
	} else if fi, err := os.Stat(src); err == nil && !fi.IsDir() {
		if s, err = p.ScriptFromFile(ctx, src); err != nil {
			return nil, err
		}
	} else {
		s = ScriptFromLines("inline", []string{src})
	}
	return p.Exec(ctx, s)
}

func stepsResult(rs []*StepResult) *Result {
	acc := make([]string, len(rs))
	for i, r := range rs {
		acc[i] = r.String()
	}
	return ListResult(acc)
}

func (p *Prompt) newFunction(cmd *Command) (*Result, error) {
	if len(cmd.Args) != 1 {
		return nil, &core.UsageError{Command: "newf", Usage: "newf <name>"}
	}
	p.mode = Recording
	p.recording = cmd.Args[0]
	p.pending = make([]string, 0, 8)
	return SuccessResult("recording " + p.recording + "; finish with end"), nil
}

func (p *Prompt) dropRecording() {
	p.mode, p.recording, p.pending = Normal, "", nil
}

func (p *Prompt) record(line string) *Result {
	line = strings.TrimSpace(line)
	if line != "end" {
		if line != "" {
			p.pending = append(p.pending, line)
		}
		return NoneResult("")
	}
	name, lines := p.recording, p.pending
	p.Session.Functions[name] = lines
	p.dropRecording()
	p.logger.Info("defined function", zap.String("name", name), zap.Int("lines", len(lines)))
	return SuccessResult(fmt.Sprintf("defined %s (%d commands)", name, len(lines)))
}

func (p *Prompt) call(ctx context.Context, cmd *Command) (*Result, error) {
	if len(cmd.Args) != 1 {
		return nil, &core.UsageError{Command: "f", Usage: "f <name>"}
	}
	name := cmd.Args[0]
	lines, have := p.Session.Functions[name]
	if !have {
		return nil, &core.UserError{Msg: "no function " + name}
	}
	if MaxCallDepth <= p.depth {
		return nil, &core.UserError{Msg: "functions nested too deeply at " + name}
	}
	p.depth++
	defer func() { p.depth-- }()

	rs, err := p.Exec(ctx, ScriptFromLines(name, lines))
	if err != nil {
		return nil, err
	}
	return stepsResult(rs), nil
}

func (p *Prompt) functionNames() []string {
	acc := make([]string, 0, len(p.Session.Functions))
	for name := range p.Session.Functions {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

func (p *Prompt) removeFunction(cmd *Command) (*Result, error) {
	if len(cmd.Args) != 1 {
		return nil, &core.UsageError{Command: "rmf", Usage: "rmf <name>"}
	}
	name := cmd.Args[0]
	if _, have := p.Session.Functions[name]; !have {
		return nil, &core.UserError{Msg: "no function " + name}
	}
	delete(p.Session.Functions, name)
	return SuccessResult("removed " + name), nil
}

func (p *Prompt) run(ctx context.Context, cmd *Command) (*Result, error) {
	if len(cmd.Args) != 1 {
		return nil, &core.UsageError{Command: "run", Usage: "run <file>"}
	}
	s, err := p.ScriptFromFile(ctx, cmd.Args[0])
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &core.UserError{Msg: "no script " + cmd.Args[0]}
		}
		return nil, err
	}
	rs, err := p.Exec(ctx, s)
	if err != nil {
		return nil, err
	}
	return stepsResult(rs), nil
}
