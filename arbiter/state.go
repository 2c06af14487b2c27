package arbiter

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/GRAYgoose124/wikicrawler/core"

	"go.uber.org/zap"
)

// selectionFree names the state sub-commands that don't read the
// selected page.
var selectionFree = map[string]bool{
	"found":   true,
	"hist":    true,
	"pop":     true,
	"unpop":   true,
	"current": true,
	"save":    true,
	"del":     true,
	"help":    true,
}

func (p *Prompt) state(ctx context.Context, cmd *Command, interactive bool) (*Result, error) {
	if len(cmd.Args) == 0 {
		return nil, &core.UsageError{Command: "st", Usage: "st <subcommand> (see st help)"}
	}
	sub, args := cmd.Args[0], cmd.Args[1:]

	var page *core.Page
	if !selectionFree[sub] {
		var err error
		if page, err = p.Session.Selected(); err != nil {
			return nil, err
		}
	}

	switch sub {
	case "colloc":
		return p.colloc(page, args)
	case "freq":
		return p.freq(page, args)
	case "sa":
		return p.seeAlso(ctx, page, args, interactive)
	case "links":
		return p.links(ctx, page, args, interactive)
	case "hist":
		return p.hist(ctx, args, interactive)
	case "found":
		return p.found(ctx, args, interactive)
	case "pop":
		title, err := p.Session.Pop()
		if err != nil {
			return nil, err
		}
		return TextResult(title), nil
	case "unpop":
		title, err := p.Session.Unpop()
		if err != nil {
			return nil, err
		}
		return TextResult(title), nil
	case "current":
		if p.Session.Pointer.Selection == "" {
			return nil, core.NoSelection
		}
		return TextResult(p.Session.Pointer.Selection), nil
	case "show":
		return p.show(page, args, interactive)
	case "sents":
		return p.sents(page, args)
	case "save":
		if err := p.Save(ctx); err != nil {
			return nil, err
		}
		return SuccessResult("saved"), nil
	case "del":
		p.Session.Reset()
		if p.Snapshots != nil {
			if err := p.Save(ctx); err != nil {
				return nil, err
			}
		}
		return SuccessResult("deleted"), nil
	case "help":
		return TextResult(StateHelp), nil
	default:
		return nil, &core.UserError{Msg: "unknown state command: " + sub}
	}
}

func stats(page *core.Page) (*core.Stats, error) {
	if page.Stats == nil {
		return nil, core.NoStats
	}
	return page.Stats, nil
}

func (p *Prompt) colloc(page *core.Page, phrase []string) (*Result, error) {
	st, err := stats(page)
	if err != nil {
		return nil, err
	}
	if len(phrase) == 0 {
		return ListResult(st.Phrases()), nil
	}
	best, score, err := core.MostSimilar(p.Metric, strings.Join(phrase, " "), st.Phrases())
	if err != nil {
		return nil, err
	}
	p.logger.Debug("most similar collocation", zapPick(best, score)...)
	p.Session.Pointer.MostSimilarColloc = best
	return TextResult(best), nil
}

func (p *Prompt) freq(page *core.Page, phrase []string) (*Result, error) {
	st, err := stats(page)
	if err != nil {
		return nil, err
	}
	if len(phrase) == 0 {
		acc := make([]string, len(st.Frequencies))
		for i, f := range st.Frequencies {
			acc[i] = f.Word + " " + strconv.Itoa(f.Count)
		}
		return ListResult(acc), nil
	}
	best, score, err := core.MostSimilar(p.Metric, strings.Join(phrase, " "), st.Words())
	if err != nil {
		return nil, err
	}
	p.logger.Debug("most similar frequent word", zapPick(best, score)...)
	p.Session.Pointer.MostSimilarFreq = best
	return TextResult(best), nil
}

func (p *Prompt) seeAlso(ctx context.Context, page *core.Page, args []string, interactive bool) (*Result, error) {
	if len(args) == 0 {
		return ListResult(page.SeeAlso.Labels()), nil
	}
	i, err := core.ParseIndex("see also", args[0])
	if err != nil {
		return nil, err
	}
	l, err := page.SeeAlso.At("see also", i)
	if err != nil {
		return nil, err
	}
	return p.follow(ctx, l.URL, interactive)
}

func (p *Prompt) paragraphLinks(page *core.Page, arg string) (core.Links, error) {
	i, err := core.ParseIndex("paragraph", arg)
	if err != nil {
		return nil, err
	}
	if len(page.ParagraphLinks) <= i {
		return nil, &core.IndexError{
			What:  "paragraph",
			Index: i,
			Len:   len(page.ParagraphLinks),
		}
	}
	return page.ParagraphLinks[i], nil
}

func (p *Prompt) links(ctx context.Context, page *core.Page, args []string, interactive bool) (*Result, error) {
	switch len(args) {
	case 0:
		acc := make([]string, len(page.ParagraphLinks))
		for i, ls := range page.ParagraphLinks {
			acc[i] = strings.Join(ls.Labels(), " | ")
		}
		return ListResult(acc), nil
	case 1:
		ls, err := p.paragraphLinks(page, args[0])
		if err != nil {
			return nil, err
		}
		return ListResult(ls.Labels()), nil
	case 2:
		ls, err := p.paragraphLinks(page, args[0])
		if err != nil {
			return nil, err
		}
		i, err := core.ParseIndex("link", args[1])
		if err != nil {
			return nil, err
		}
		l, err := ls.At("link", i)
		if err != nil {
			return nil, err
		}
		return p.follow(ctx, l.URL, interactive)
	default:
		return nil, &core.UsageError{Command: "st links", Usage: "st links [paragraph [link]]"}
	}
}

func (p *Prompt) hist(ctx context.Context, args []string, interactive bool) (*Result, error) {
	st := p.Session.State
	if len(args) == 0 {
		return ListResult(append([]string{}, st.PageStack...)), nil
	}
	i, err := core.ParseIndex("history", args[0])
	if err != nil {
		return nil, err
	}
	if len(st.PageStack) <= i {
		return nil, &core.IndexError{
			What:  "history",
			Index: i,
			Len:   len(st.PageStack),
		}
	}
	title := st.PageStack[i]
	page, have := st.Pages[title]
	if !have {
		return nil, &core.InvariantViolation{What: "page_stack", Title: title}
	}
	if page, err = p.analyzePage(ctx, core.Resolved{Page: page}, interactive); err != nil {
		return nil, err
	}
	return PageOf(page), nil
}

func (p *Prompt) found(ctx context.Context, args []string, interactive bool) (*Result, error) {
	rs := p.Session.State.LastSearch
	if len(rs) == 0 {
		return nil, core.NoSearch
	}

	var ref core.PageRef
	switch {
	case len(rs) == 1:
		ref = rs[0].Ref
	case len(args) == 0:
		return ListResult(resultNames(rs)), nil
	default:
		i, err := core.ParseIndex("search result", args[0])
		if err != nil {
			return nil, err
		}
		if len(rs) <= i {
			return nil, &core.IndexError{
				What:  "search result",
				Index: i,
				Len:   len(rs),
			}
		}
		ref = rs[i].Ref
	}

	page, err := p.analyzePage(ctx, ref, interactive)
	if err != nil {
		return nil, err
	}
	return PageOf(page), nil
}

func (p *Prompt) show(page *core.Page, args []string, interactive bool) (*Result, error) {
	amount := DefaultShowAmount
	if 0 < len(args) {
		x, err := strconv.ParseFloat(args[0], 64)
		if err != nil || x < 0 {
			return nil, &core.UserError{Msg: "bad amount " + strconv.Quote(args[0])}
		}
		amount = x
	}
	if page.Stats == nil {
		return nil, core.NoStats
	}
	if interactive {
		if err := p.Analyzer.Show(p.Out, page, amount); err != nil {
			return nil, err
		}
		return SuccessResult(""), nil
	}
	var buf bytes.Buffer
	if err := p.Analyzer.Show(&buf, page, amount); err != nil {
		return nil, err
	}
	return TextResult(strings.TrimRight(buf.String(), "\n")), nil
}

func (p *Prompt) sents(page *core.Page, args []string) (*Result, error) {
	if 2 < len(args) {
		return nil, &core.UsageError{Command: "st sents", Usage: "st sents [start|-] [stop|-]"}
	}
	bound := func(i int, last string) (string, int, error) {
		s := last
		if i < len(args) && args[i] != "-" {
			s = args[i]
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return "", 0, &core.UserError{Msg: "bad sentence position " + strconv.Quote(s)}
		}
		return s, n, nil
	}
	startS, start, err := bound(0, p.sentStart)
	if err != nil {
		return nil, err
	}
	stopS, stop, err := bound(1, p.sentStop)
	if err != nil {
		return nil, err
	}

	ss := p.Analyzer.Sentences(page)
	lo, hi := core.SliceBounds(len(ss), start, stop)
	selected := append([]string{}, ss[lo:hi]...)

	p.sentStart, p.sentStop = startS, stopS
	p.Session.Pointer.SelectedText = selected
	return ListResult(selected), nil
}

func zapPick(best string, score float64) []zap.Field {
	return []zap.Field{zap.String("best", best), zap.Float64("score", score)}
}
