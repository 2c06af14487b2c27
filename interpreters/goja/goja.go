package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/GRAYgoose124/wikicrawler/arbiter"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
	"go.uber.org/zap"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned if the execution is interrupted.
	Interrupted = errors.New(InterruptedMessage)
)

// init adds an Interpreter for ".js" files to arbiter.Interpreters.
func init() {
	arbiter.Interpreters[".js"] = NewInterpreter()
}

// Interpreter compiles JavaScript into arbiter Scripts using Goja,
// which is a Go implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
//
// The script's completion value must be an array.  Each string in
// the array is a command.  Each function in the array is called, with
// no arguments, when its turn comes, and it returns the command to
// run.  A function can therefore see what earlier commands did.
type Interpreter struct {
	// LibraryProvider resolves the names given to require().  When
	// nil, names are "file://" paths relative to the script's
	// directory.
	LibraryProvider func(ctx context.Context, name string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) provider(name string) func(context.Context, string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider
	}
	return MakeFileLibraryProvider(filepath.Dir(name))
}

// script is the runtime state shared by a compiled Script's deferred
// steps.
type script struct {
	name   string
	rt     *goja.Runtime
	prompt *arbiter.Prompt
	logger *zap.Logger

	// ctx is the context of whatever is running now.
	ctx context.Context
}

// Compile implements arbiter.Interpreter.
//
// Compilation runs the script, so any _.cmd() calls at the top level
// execute now.
func (i *Interpreter) Compile(ctx context.Context, p *arbiter.Prompt, name, src string) (*arbiter.Script, error) {
	code, err := InlineRequires(ctx, src, i.provider(name))
	if err != nil {
		return nil, err
	}

	prog, err := goja.Compile(name, code, true)
	if err != nil {
		return nil, err
	}

	s := &script{
		name:   name,
		rt:     goja.New(),
		prompt: p,
		logger: p.Logger().Named("goja"),
		ctx:    ctx,
	}
	s.rt.Set("_", s.env())

	v, err := s.run(ctx, func() (goja.Value, error) {
		return s.rt.RunProgram(prog)
	})
	if err != nil {
		return nil, err
	}
	return s.steps(v)
}

// steps converts the script's completion value into Steps.
func (s *script) steps(v goja.Value) (*arbiter.Script, error) {
	obj, is := v.(*goja.Object)
	if !is || obj.ClassName() != "Array" {
		return nil, fmt.Errorf("%s: script value isn't an array", s.name)
	}
	n := int(obj.Get("length").ToInteger())
	acc := make([]arbiter.Step, 0, n)
	for i := 0; i < n; i++ {
		x := obj.Get(strconv.Itoa(i))
		if f, is := goja.AssertFunction(x); is {
			acc = append(acc, s.deferred(i, f))
			continue
		}
		line, is := x.Export().(string)
		if !is {
			return nil, fmt.Errorf("%s: step %d (%v) isn't a string or a function", s.name, i, x)
		}
		acc = append(acc, arbiter.Literal(line))
	}
	return arbiter.ScriptFromSteps(s.name, acc...), nil
}

func (s *script) deferred(i int, f goja.Callable) arbiter.Deferred {
	return func(ctx context.Context) (string, error) {
		s.ctx = ctx
		v, err := s.run(ctx, func() (goja.Value, error) {
			return f(goja.Undefined())
		})
		if err != nil {
			return "", err
		}
		line, is := v.Export().(string)
		if !is {
			return "", fmt.Errorf("%s: step %d returned %v, not a string", s.name, i, v)
		}
		return line, nil
	}
}

// run calls f and interrupts the runtime if ctx is done first.
func (s *script) run(ctx context.Context, f func() (goja.Value, error)) (goja.Value, error) {
	ictx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ictx.Done()
		if ctx.Err() != nil {
			s.rt.Interrupt(InterruptedMessage)
		}
	}()

	v, err := f()
	cancel()
	<-stopped
	s.rt.ClearInterrupt()

	if err != nil {
		var ie *goja.InterruptedError
		if errors.As(err, &ie) {
			return nil, Interrupted
		}
		return nil, err
	}
	return v, nil
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

func export(x interface{}) interface{} {
	if v, is := x.(goja.Value); is {
		return v.Export()
	}
	return x
}

func (s *script) str(x interface{}) string {
	str, is := export(x).(string)
	if !is {
		protest(s.rt, "not a string")
	}
	return str
}

// env makes the object available at _.
//
//    pointer(): the current pointer.
//    selection(): the selected title.
//    cmd(line): run a command now and return its rendered result.
//    log(x): log x.
//    cronNext(expr): the next time for the cron expression.
//    esc(s): URL query-escape the given string.
func (s *script) env() map[string]interface{} {
	env := make(map[string]interface{})

	env["pointer"] = func() interface{} {
		x, err := canonicalize(s.prompt.Session.Pointer)
		if err != nil {
			protest(s.rt, err.Error())
		}
		return x
	}

	env["selection"] = func() interface{} {
		return s.prompt.Session.Pointer.Selection
	}

	env["cmd"] = func(x interface{}) interface{} {
		return s.prompt.Execute(s.ctx, s.str(x), false).String()
	}

	env["log"] = func(x interface{}) interface{} {
		x = export(x)
		js, err := json.Marshal(&x)
		if err != nil {
			s.logger.Warn("log", zap.String("script", s.name), zap.String("unmarshalable", err.Error()))
		} else {
			s.logger.Info("log", zap.String("script", s.name), zap.String("x", string(js)))
		}
		return x
	}

	env["cronNext"] = func(x interface{}) interface{} {
		c, err := cronexpr.Parse(s.str(x))
		if err != nil {
			protest(s.rt, err.Error())
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	}

	env["esc"] = func(x interface{}) interface{} {
		return url.QueryEscape(s.str(x))
	}

	return env
}

// canonicalize makes x into plain maps and slices.
func canonicalize(x interface{}) (interface{}, error) {
	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		return nil, err
	}
	return y, nil
}
