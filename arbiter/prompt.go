package arbiter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/GRAYgoose124/wikicrawler/core"

	"go.uber.org/zap"
)

var (
	// DefaultURLPattern matches URLs that the u command accepts.
	DefaultURLPattern = regexp.MustCompile(`^https?://.*\.wikipedia\.org.*`)

	// DefaultShowAmount is the amount used by "st show" and by
	// interactive analysis display.
	DefaultShowAmount = 0.1

	// MaxCallDepth bounds nested macro calls.
	MaxCallDepth = 8
)

// Mode is the interpretation mode of a Prompt.
type Mode int

const (
	// Normal mode executes each line.
	Normal Mode = iota

	// Recording mode appends each line to a pending macro until
	// a line "end".
	Recording
)

// Prompt executes command lines against a Session.
type Prompt struct {
	Session *core.Session

	Source   Source
	Analyzer Analyzer

	// Renderer is optional.  Without one, seer commands fail.
	Renderer Renderer

	// Snapshots is optional.  Without one, "st save" fails.
	Snapshots Snapshotter

	// Metric is used by "st colloc" and "st freq".
	Metric core.Metric

	// Precache asks the Source to resolve search results eagerly.
	Precache bool

	// URLPattern validates the arguments of the u command.
	URLPattern *regexp.Regexp

	// Out receives interactive display.
	Out io.Writer

	// Interpreters compile script files by extension.  Defaults
	// to the package's Interpreters.
	Interpreters map[string]Interpreter

	Oracle *Oracle

	logger *zap.Logger

	mode      Mode
	recording string
	pending   []string
	depth     int

	sentStart, sentStop string
}

// NewPrompt makes a Prompt with an empty Session.
func NewPrompt(src Source, an Analyzer, logger *zap.Logger) *Prompt {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Prompt{
		Session:      core.NewSession(),
		Source:       src,
		Analyzer:     an,
		Metric:       core.DefaultMetric,
		URLPattern:   DefaultURLPattern,
		Out:          os.Stdout,
		Interpreters: Interpreters,
		logger:       logger.Named("arbiter"),
		sentStart:    "0",
		sentStop:     "1",
	}
	p.Oracle = NewOracle(p, rand.New(rand.NewSource(time.Now().UnixNano())))
	return p
}

// Logger returns the Prompt's logger.
func (p *Prompt) Logger() *zap.Logger {
	return p.logger
}

// Mode returns the current mode.
func (p *Prompt) Mode() Mode {
	return p.mode
}

// Recording reports whether the Prompt is capturing a macro.
func (p *Prompt) Recording() bool {
	return p.mode == Recording
}

// Execute runs one line and never fails.
//
// Errors become results here and only here: missing state gives a
// None result, anything else a Failure.
func (p *Prompt) Execute(ctx context.Context, line string, interactive bool) *Result {
	r, err := p.Do(ctx, line, interactive)
	if err == nil {
		return r
	}
	return p.report(line, err)
}

func (p *Prompt) report(line string, err error) *Result {
	fields := []zap.Field{zap.String("line", line), zap.Error(err)}
	switch {
	case core.IsMissing(err):
		p.logger.Info("nothing to do", fields...)
		return NoneResult(err.Error())
	case core.IsUserError(err):
		p.logger.Warn("bad command", fields...)
	default:
		p.logger.Error("command failed", fields...)
	}
	return FailureResult(err)
}

// Do runs one line.
//
// Handlers validate before they mutate, so an error means the Session
// is unchanged except where a collaborator failed after registration.
func (p *Prompt) Do(ctx context.Context, line string, interactive bool) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.mode == Recording {
		return p.record(line), nil
	}

	cmd, err := Parse(line)
	if err != nil {
		var u *UnknownCommand
		if errors.As(err, &u) {
			p.logger.Info("unknown command", zap.String("line", line))
			return &Result{Kind: UnknownResult, Text: u.Error()}, nil
		}
		return nil, err
	}
	p.logger.Debug("do", zap.String("line", cmd.Line), zap.Bool("interactive", interactive))

	switch cmd.Kind {
	case Nop:
		return NoneResult(""), nil
	case Search:
		return p.search(ctx, cmd, interactive)
	case URL:
		return p.urls(ctx, cmd, interactive)
	case StateCmd:
		return p.state(ctx, cmd, interactive)
	case OracleCmd:
		return p.Oracle.Do(ctx, cmd, interactive)
	case SeerCmd:
		return p.seer(ctx, cmd)
	case ShowPointer:
		return ObjectResult(p.Session.Pointer), nil
	case ShowState:
		return ObjectResult(p.Session.State), nil
	case NewFunction:
		return p.newFunction(cmd)
	case CallFunction:
		return p.call(ctx, cmd)
	case ListFunctions:
		return ListResult(p.functionNames()), nil
	case RemoveFunction:
		return p.removeFunction(cmd)
	case Run:
		return p.run(ctx, cmd)
	case Help:
		return p.help(cmd)
	default:
		return nil, fmt.Errorf("no handler for %q", cmd.Name)
	}
}

// analyzePage is the only way a handler brings a page into the
// Session.
//
// It resolves the reference, analyzes the page if it hasn't been,
// shows the analysis when printing, and registers the page, which
// also selects it.
func (p *Prompt) analyzePage(ctx context.Context, ref core.PageRef, printing bool) (*core.Page, error) {
	page, err := core.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, &core.UserError{Msg: "no page"}
	}
	if page.Stats == nil {
		stats, err := p.Analyzer.Analyze(page)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", page.Title, err)
		}
		q := *page
		q.Stats = stats
		page = &q
	}
	if printing {
		if err := p.Analyzer.Show(p.Out, page, DefaultShowAmount); err != nil {
			p.logger.Warn("show failed", zap.String("title", page.Title), zap.Error(err))
		}
	}
	if err := p.Session.Register(page); err != nil {
		return nil, err
	}
	p.logger.Debug("registered", zap.String("title", page.Title), zap.Int("stack", len(p.Session.State.PageStack)))
	return page, nil
}

// follow retrieves the page at the URL and registers it.
func (p *Prompt) follow(ctx context.Context, url string, interactive bool) (*Result, error) {
	page, err := p.Source.Retrieve(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", url, err)
	}
	if page, err = p.analyzePage(ctx, core.Resolved{Page: page}, interactive); err != nil {
		return nil, err
	}
	return PageOf(page), nil
}

// Save writes the Session with the Snapshotter.
//
// The last search is forgotten first since it can't be persisted.
// Save has the signature of a store hook.
func (p *Prompt) Save(ctx context.Context) error {
	if p.Snapshots == nil {
		return &core.UserError{Msg: "no snapshot store"}
	}
	p.Session.State.LastSearch = nil
	if err := p.Snapshots.Save(ctx, p.Session); err != nil {
		return &core.Unrecoverable{Err: err}
	}
	return nil
}

// Load replaces the Session with the Snapshotter's.
func (p *Prompt) Load(ctx context.Context) error {
	if p.Snapshots == nil {
		return &core.UserError{Msg: "no snapshot store"}
	}
	s, err := p.Snapshots.Load(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		s = core.NewSession()
	}
	p.Session = s.Normalize()
	if err := p.Session.Check(); err != nil {
		p.logger.Warn("loaded session is inconsistent", zap.Error(err))
	}
	return nil
}

func (p *Prompt) search(ctx context.Context, cmd *Command, interactive bool) (*Result, error) {
	phrase := cmd.Rest()
	switch phrase {
	case "":
		return nil, &core.UsageError{Command: "s", Usage: "s <phrase>"}
	case "most_similar_colloc":
		if phrase = p.Session.Pointer.MostSimilarColloc; phrase == "" {
			return nil, &core.Missing{What: "no most similar collocation"}
		}
	case "most_similar_freq":
		if phrase = p.Session.Pointer.MostSimilarFreq; phrase == "" {
			return nil, &core.Missing{What: "no most similar frequent word"}
		}
	}

	results, err := p.Source.Search(ctx, phrase, p.Precache)
	if err != nil {
		p.Session.State.LastSearch = nil
		return nil, &SearchError{Phrase: phrase, Err: err}
	}
	p.Session.State.LastSearch = results
	p.logger.Debug("searched", zap.String("phrase", phrase), zap.Int("results", len(results)))

	switch len(results) {
	case 0:
		return nil, &core.Missing{What: "no results for " + phrase}
	case 1:
		page, err := p.analyzePage(ctx, results[0].Ref, interactive)
		if err != nil {
			return nil, err
		}
		return PageOf(page), nil
	default:
		return ListResult(resultNames(results)), nil
	}
}

// SearchError is a failure of the Source during a search.
type SearchError struct {
	Phrase string
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q: %v", e.Phrase, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

func resultNames(rs []core.SearchResult) []string {
	acc := make([]string, len(rs))
	for i, r := range rs {
		acc[i] = r.Name()
	}
	return acc
}

func (p *Prompt) urls(ctx context.Context, cmd *Command, interactive bool) (*Result, error) {
	if len(cmd.Args) == 0 {
		return nil, &core.UsageError{Command: "u", Usage: "u <url...>"}
	}
	var (
		acc = make([]string, 0, len(cmd.Args))
		bad = 0
	)
	for _, u := range cmd.Args {
		if !p.URLPattern.MatchString(u) {
			bad++
			acc = append(acc, "invalid Wikipedia URL: "+u)
			continue
		}
		r, err := p.follow(ctx, u, false)
		if err != nil {
			if core.IsUnrecoverable(err) {
				return nil, err
			}
			p.logger.Warn("retrieve failed", zap.String("url", u), zap.Error(err))
			acc = append(acc, "error: "+err.Error())
			continue
		}
		acc = append(acc, r.Page.Title)
	}
	if bad == len(cmd.Args) {
		return nil, &core.UserError{Msg: strings.Join(acc, "; ")}
	}
	return ListResult(acc), nil
}

func (p *Prompt) seer(ctx context.Context, cmd *Command) (*Result, error) {
	usage := &core.UsageError{Command: "seer", Usage: "seer build [all] | html | show | graph | help"}
	if len(cmd.Args) == 0 {
		return nil, usage
	}
	sub := cmd.Args[0]
	if sub == "help" {
		return TextResult(SeerHelp), nil
	}
	if p.Renderer == nil {
		return nil, &core.UserError{Msg: "no renderer"}
	}
	if sub == "graph" {
		dot, err := p.Renderer.Graph(p.Session.State)
		if err != nil {
			return nil, err
		}
		return TextResult(dot), nil
	}
	if sub == "build" && len(cmd.Args) == 2 && cmd.Args[1] == "all" {
		files, err := p.Oracle.BuildHistory(ctx)
		if err != nil {
			return nil, err
		}
		return ListResult(files), nil
	}

	page, err := p.Session.Selected()
	if err != nil {
		return nil, err
	}
	switch sub {
	case "build":
		filename, err := p.Renderer.Build(page)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", page.Title, err)
		}
		return SuccessResult("built " + filename), nil
	case "html":
		filename, err := p.Renderer.HTML(page)
		if err != nil {
			return nil, fmt.Errorf("html %s: %w", page.Title, err)
		}
		return SuccessResult("wrote " + filename), nil
	case "show":
		s, err := p.Renderer.Render(page)
		if err != nil {
			return nil, err
		}
		return TextResult(s), nil
	default:
		return nil, usage
	}
}
