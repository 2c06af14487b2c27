package arbiter

import (
	"strings"

	"github.com/GRAYgoose124/wikicrawler/core"
)

// Usage gives a line of documentation for each command.
var Usage = map[string]string{
	"s":       "s <phrase> - search; most_similar_colloc and most_similar_freq use the pointer",
	"u":       "u <url...> - retrieve Wikipedia URLs",
	"st":      "st <subcommand> - work with the selected page (st help)",
	"o":       "o <subcommand> - similarity moves and walks (o help)",
	"oracle":  "oracle <subcommand> - same as o",
	"seer":    "seer <subcommand> - render pages (seer help)",
	"pointer": "pointer - show the pointer",
	"state":   "state - show the navigation state",
	"newf":    "newf <name> - record a function until a line 'end'",
	"f":       "f <name> - call a function",
	"call":    "call <name> - same as f",
	"funcs":   "funcs - list functions",
	"rmf":     "rmf <name> - remove a function",
	"run":     "run <file> - run a script file (.js or one command per line)",
	"help":    "help [command] - this message",
}

const (
	StateHelp = `st colloc [phrase] - list collocations, or pick the one most similar to phrase
st freq [phrase] - list word frequencies, or pick the word most similar to phrase
st sa [idx] - list see also pages, or follow one
st links [pg [idx]] - list paragraph links, or follow one
st hist [idx] - list history, or reselect a page from it
st found [idx] - list the last search results, or select one
st pop - move the top of the history to the pop stack and select it
st unpop - undo the last pop
st show [amount] - show the analysis (fraction if <= 1, else sentence count)
st sents [start|-] [stop|-] - select sentences by position
st current - the selected title
st save - save the session
st del - forget the session
st help - this message`

	OracleHelp = `o cmove <rank> <phrase> - search for the collocation most similar to phrase and take result rank
o fmove <rank> <phrase> - the same with word frequencies
o auto <steps> <phrase> [| command] - random walk from a search, running command after each step
o help - this message`

	SeerHelp = `seer build - write the selected page as Markdown
seer build all - write every page in the history
seer html - write the selected page as HTML
seer show - render the selected page
seer graph - the navigation history as Graphviz
seer help - this message`
)

func (p *Prompt) help(cmd *Command) (*Result, error) {
	if len(cmd.Args) == 0 {
		names := commandNames()
		acc := make([]string, 0, len(names))
		for _, name := range names {
			acc = append(acc, Usage[name])
		}
		return TextResult(strings.Join(acc, "\n")), nil
	}
	name := cmd.Args[0]
	switch name {
	case "st":
		return TextResult(StateHelp), nil
	case "o", "oracle":
		return TextResult(OracleHelp), nil
	case "seer":
		return TextResult(SeerHelp), nil
	}
	if u, have := Usage[name]; have {
		return TextResult(u), nil
	}
	return nil, &core.UserError{Msg: (&UnknownCommand{
		Name:        name,
		Suggestions: Suggest(name, commandNames(), 3),
	}).Error()}
}
