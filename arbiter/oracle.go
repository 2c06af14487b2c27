package arbiter

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"

	"github.com/GRAYgoose124/wikicrawler/core"

	"go.uber.org/zap"
)

// Oracle moves through pages by similarity.
//
// Everything an Oracle does, it does by running commands on its
// Prompt.
type Oracle struct {
	prompt *Prompt

	// Rand chooses among search results during walks.
	Rand *rand.Rand

	// Control bounds walks.  Defaults to core.DefaultControl.
	Control *core.Control

	logger *zap.Logger
}

// NewOracle makes an Oracle for the given Prompt.
func NewOracle(p *Prompt, r *rand.Rand) *Oracle {
	return &Oracle{
		prompt:  p,
		Rand:    r,
		Control: core.DefaultControl.Copy(),
		logger:  p.logger.Named("oracle"),
	}
}

// ErrRecording is returned for oracle commands run while a function
// is being recorded.
var ErrRecording = &core.UserError{Msg: "a function is being recorded (finish it with end)"}

// aborts reports whether err should stop a walk.
func aborts(err error) bool {
	var se *SearchError
	return errors.As(err, &se) ||
		errors.Is(err, ErrRecording) ||
		core.IsUnrecoverable(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// run executes a line non-interactively and records it in the stride.
func (o *Oracle) run(ctx context.Context, s *core.Stride, line string) (*Result, error) {
	if o.prompt.Recording() {
		return nil, ErrRecording
	}
	if s != nil {
		s.Commands = append(s.Commands, line)
	}
	return o.prompt.Do(ctx, line, false)
}

// move searches for the phrase most similar to the given one and
// selects the search result at the given rank.
//
// sub is the state sub-command ("colloc" or "freq") and sentinel is
// the pointer field that the search uses.
func (o *Oracle) move(ctx context.Context, s *core.Stride, rank int, phrase, sub, sentinel string) (*core.Page, error) {
	if _, err := o.run(ctx, s, "st "+sub+" "+phrase); err != nil {
		return nil, err
	}
	r, err := o.run(ctx, s, "s "+sentinel)
	if err != nil {
		return nil, err
	}
	if r.Kind != PageResult {
		if _, err := o.run(ctx, s, "st found "+strconv.Itoa(rank)); err != nil {
			return nil, err
		}
	}
	return o.prompt.Session.Selected()
}

// MoveByCollocation selects the result at the given rank of a search
// for the selected page's collocation that is most similar to the
// phrase.
func (o *Oracle) MoveByCollocation(ctx context.Context, rank int, phrase string) (*core.Page, error) {
	return o.move(ctx, nil, rank, phrase, "colloc", "most_similar_colloc")
}

// MoveByFrequency is MoveByCollocation with the selected page's
// frequent words.
func (o *Oracle) MoveByFrequency(ctx context.Context, rank int, phrase string) (*core.Page, error) {
	return o.move(ctx, nil, rank, phrase, "freq", "most_similar_freq")
}

// pick selects a random search result when the last search has
// several.
func (o *Oracle) pick(ctx context.Context, s *core.Stride, r *Result) error {
	if r.Kind == PageResult {
		return nil
	}
	n := len(o.prompt.Session.State.LastSearch)
	if n == 0 {
		return core.NoSearch
	}
	_, err := o.run(ctx, s, "st found "+strconv.Itoa(o.Rand.Intn(n)))
	return err
}

// Autosearch walks from a search for the start phrase.
//
// Each subsequent step takes the selected page's most frequent word,
// finds the most similar collocation, searches for that, and selects
// a random result.  The hook, if not empty, is a command run after
// each step that didn't abort.
//
// A step that fails for want of something (no analysis, no
// results) is recorded and the walk goes on.  A failed search or an
// unrecoverable error aborts the walk.  So does a hook that starts
// recording a function, and the recording is dropped.
func (o *Oracle) Autosearch(ctx context.Context, start string, steps int, hook string) (*core.Page, *core.Walked, error) {
	if hook != "" {
		if cmd, err := Parse(hook); err == nil && cmd.Kind == NewFunction {
			return nil, nil, &core.UserError{Msg: "a walk hook can't record a function"}
		}
	}
	recording := o.prompt.Recording()
	defer func() {
		if !recording && o.prompt.Recording() {
			o.logger.Warn("dropping function recorded during walk", zap.String("name", o.prompt.recording))
			o.prompt.dropRecording()
		}
	}()

	c := o.Control
	if c == nil {
		c = core.DefaultControl
	}
	w := core.NewWalked()
	w.StoppedBecause = core.Done
	if c.Limit < steps {
		steps = c.Limit
		w.StoppedBecause = core.Limited
	}

	session := o.prompt.Session
	for i := 0; i < steps; i++ {
		s := &core.Stride{
			From: session.Pointer.Selection,
		}
		var err error
		if i == 0 {
			err = o.seed(ctx, s, start)
		} else {
			err = o.step(ctx, s)
		}
		if hook != "" && !aborts(err) {
			if _, herr := o.run(ctx, s, hook); err == nil {
				err = herr
			}
		}
		s.To = session.Pointer.Selection
		w.Add(s)

		if err != nil {
			s.Error = err.Error()
			if aborts(err) {
				o.logger.Warn("walk aborted", zap.Int("step", i), zap.Error(err))
				w.StoppedBecause = core.Aborted
				w.Error = err
				break
			}
			o.logger.Info("step failed", zap.Int("step", i), zap.Error(err))
		} else {
			o.logger.Debug("stepped", zap.Int("step", i), zap.String("from", s.From), zap.String("to", s.To))
		}

		if o.breaks(ctx, c) {
			w.StoppedBecause = core.BreakpointReached
			break
		}
	}

	page, err := session.Selected()
	if err != nil && !core.IsMissing(err) {
		return nil, w, err
	}
	return page, w, w.Error
}

func (o *Oracle) breaks(ctx context.Context, c *core.Control) bool {
	for id, b := range c.Breakpoints {
		if b(ctx, o.prompt.Session.Pointer) {
			o.logger.Debug("breakpoint", zap.String("id", id))
			return true
		}
	}
	return false
}

func (o *Oracle) seed(ctx context.Context, s *core.Stride, start string) error {
	r, err := o.run(ctx, s, "s "+start)
	if err != nil {
		return err
	}
	return o.pick(ctx, s, r)
}

func (o *Oracle) step(ctx context.Context, s *core.Stride) error {
	page, err := o.prompt.Session.Selected()
	if err != nil {
		return err
	}
	word, ok := page.Stats.Top()
	if !ok {
		return core.NoStats
	}
	if _, err := o.run(ctx, s, "st colloc "+word); err != nil {
		return err
	}
	r, err := o.run(ctx, s, "s most_similar_colloc")
	if err != nil {
		return err
	}
	return o.pick(ctx, s, r)
}

// BuildHistory renders every page in the history and then restores
// the pointer.
//
// Reselecting a page appends it to the history, so only the
// positions present at the start are visited.
func (o *Oracle) BuildHistory(ctx context.Context) ([]string, error) {
	session := o.prompt.Session
	saved := session.Pointer.Copy()
	defer func() {
		o.prompt.Session.Pointer = saved
	}()

	n := len(session.State.PageStack)
	acc := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if _, err := o.run(ctx, nil, "st hist "+strconv.Itoa(i)); err != nil {
			if aborts(err) {
				return acc, err
			}
			o.logger.Warn("reselect failed", zap.Int("index", i), zap.Error(err))
			continue
		}
		r, err := o.run(ctx, nil, "seer build")
		if err != nil {
			if aborts(err) {
				return acc, err
			}
			o.logger.Warn("build failed", zap.Int("index", i), zap.Error(err))
			continue
		}
		acc = append(acc, strings.TrimPrefix(r.Text, "built "))
	}
	return acc, nil
}

// Do runs an oracle sub-command.
func (o *Oracle) Do(ctx context.Context, cmd *Command, interactive bool) (*Result, error) {
	if len(cmd.Args) == 0 {
		return nil, &core.UsageError{Command: cmd.Name, Usage: cmd.Name + " <subcommand> (see o help)"}
	}
	sub, args := cmd.Args[0], cmd.Args[1:]
	switch sub {
	case "cmove", "fmove":
		if len(args) < 2 {
			return nil, &core.UsageError{Command: "o " + sub, Usage: "o " + sub + " <rank> <phrase>"}
		}
		rank, err := core.ParseIndex("rank", args[0])
		if err != nil {
			return nil, err
		}
		phrase := strings.Join(args[1:], " ")
		var page *core.Page
		if sub == "cmove" {
			page, err = o.MoveByCollocation(ctx, rank, phrase)
		} else {
			page, err = o.MoveByFrequency(ctx, rank, phrase)
		}
		if err != nil {
			return nil, err
		}
		return PageOf(page), nil

	case "auto":
		usage := &core.UsageError{Command: "o auto", Usage: "o auto <steps> <phrase> [| command]"}
		if len(args) < 2 {
			return nil, usage
		}
		steps, err := strconv.Atoi(args[0])
		if err != nil || steps < 1 {
			return nil, usage
		}
		phrase, hook := strings.Join(args[1:], " "), ""
		if i := strings.Index(phrase, "|"); 0 <= i {
			phrase, hook = strings.TrimSpace(phrase[:i]), strings.TrimSpace(phrase[i+1:])
		}
		if phrase == "" {
			return nil, usage
		}
		_, w, err := o.Autosearch(ctx, phrase, steps, hook)
		if err != nil {
			return nil, err
		}
		o.logger.Info("walked", zap.Int("strides", len(w.Strides)), zap.Stringer("stopped", w.StoppedBecause))
		return ListResult(w.Path()), nil

	case "help":
		return TextResult(OracleHelp), nil

	default:
		return nil, &core.UserError{Msg: "unknown oracle command: " + sub}
	}
}
