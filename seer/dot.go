package seer

import (
	"fmt"
	"io"
	"strings"

	"github.com/GRAYgoose124/wikicrawler/core"
)

func quote(s string) string {
	return `"` + strings.Replace(s, `"`, `\"`, -1) + `"`
}

// Dot makes a Graphviz dot file for the given navigation State.
//
// Each page on the stack is a node and consecutive stack entries are
// joined by numbered edges.  The current page is red.  Popped pages
// that aren't on the stack are dashed.
func Dot(st *core.State, w io.Writer) error {
	if st == nil {
		return fmt.Errorf("no state")
	}

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=LR,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	top, _ := st.Top()

	seen := make(map[string]bool)
	node := func(title, style string) {
		if seen[title] {
			return
		}
		seen[title] = true
		color := "black"
		fillcolor := "#99ddc8"
		if title == top {
			color = "red"
			fillcolor = "#f98b8b"
		}
		label := title
		if p, have := st.Pages[title]; have && p.Stats != nil {
			if word, ok := p.Stats.Top(); ok {
				label += "\\n" + word
			}
		}
		fmt.Fprintf(w, "  %s [style=%s, color=\"%s\", fillcolor=\"%s\", label=%s]\n",
			quote(title), quote(style), color, fillcolor, quote(label))
	}

	for _, title := range st.PageStack {
		node(title, "rounded,filled")
	}
	for i := 1; i < len(st.PageStack); i++ {
		fmt.Fprintf(w, "  %s -> %s [label=\"%d\"]\n",
			quote(st.PageStack[i-1]), quote(st.PageStack[i]), i)
	}

	for _, title := range st.PopStack {
		node(title, "rounded,filled,dashed")
	}

	fmt.Fprintf(w, "}\n")

	return nil
}
