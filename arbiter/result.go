package arbiter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GRAYgoose124/wikicrawler/core"
)

// ResultKind says what a Result holds.
type ResultKind int

const (
	// None is an empty result, possibly with a diagnostic.
	None ResultKind = iota
	Text
	// List is an enumerated list of items.
	List
	// PageResult is a selected page.
	PageResult
	// Object is a value to be rendered as JSON.
	Object
	Success
	Failure
	// UnknownResult is for lines that aren't commands.
	UnknownResult
)

var resultKindNames = []string{"none", "text", "list", "page", "object", "success", "failure", "unknown"}

func (k ResultKind) String() string {
	if k < 0 || int(k) >= len(resultKindNames) {
		return "invalid"
	}
	return resultKindNames[k]
}

func (k ResultKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ResultKind) UnmarshalJSON(bs []byte) error {
	var s string
	if err := json.Unmarshal(bs, &s); err != nil {
		return err
	}
	for i, name := range resultKindNames {
		if name == s {
			*k = ResultKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown result kind %q", s)
}

// Result is what a command produced.
type Result struct {
	Kind   ResultKind  `json:"kind"`
	Text   string      `json:"text,omitempty"`
	Items  []string    `json:"items,omitempty"`
	Page   *core.Page  `json:"-"`
	Object interface{} `json:"object,omitempty"`
}

// NoneResult is an empty result with an optional message.
func NoneResult(msg string) *Result {
	return &Result{Kind: None, Text: msg}
}

// TextResult wraps a string.
func TextResult(s string) *Result {
	return &Result{Kind: Text, Text: s}
}

// ListResult wraps a list of items.
func ListResult(items []string) *Result {
	return &Result{Kind: List, Items: items}
}

// PageOf makes a result for a page, titled by the page.
func PageOf(p *core.Page) *Result {
	return &Result{Kind: PageResult, Page: p, Text: p.Title}
}

// ObjectResult wraps a value that renders as JSON.
func ObjectResult(x interface{}) *Result {
	return &Result{Kind: Object, Object: x}
}

// SuccessResult reports that a command did what it said.
func SuccessResult(msg string) *Result {
	return &Result{Kind: Success, Text: msg}
}

// FailureResult reports the error.
func FailureResult(err error) *Result {
	return &Result{Kind: Failure, Text: err.Error()}
}

// Failed reports whether the result is a Failure or an unknown
// command.
func (r *Result) Failed() bool {
	return r.Kind == Failure || r.Kind == UnknownResult
}

// String renders the result for a person.
func (r *Result) String() string {
	if r == nil {
		return ""
	}
	switch r.Kind {
	case List:
		var b strings.Builder
		for i, item := range r.Items {
			if 0 < i {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%d: %s", i, item)
		}
		return b.String()
	case PageResult:
		return Summarize(r.Page)
	case Object:
		js, err := json.MarshalIndent(&r.Object, "", "  ")
		if err != nil {
			return fmt.Sprintf("%#v", r.Object)
		}
		return string(js)
	case Success:
		if r.Text == "" {
			return "ok"
		}
		return r.Text
	case Failure:
		return "error: " + r.Text
	default:
		return r.Text
	}
}

// Summarize describes a page in a few lines.
func Summarize(p *core.Page) string {
	if p == nil {
		return ""
	}
	links := 0
	for _, ls := range p.ParagraphLinks {
		links += len(ls)
	}
	s := fmt.Sprintf("%s <%s>\n%d paragraphs, %d links, %d see also, %d references",
		p.Title, p.URL, len(p.Paragraphs), links, len(p.SeeAlso), len(p.References))
	if p.Stats != nil {
		s += fmt.Sprintf(", %d words, %d collocations", len(p.Stats.Frequencies), len(p.Stats.Collocations))
	}
	return s
}
