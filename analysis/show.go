package analysis

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/GRAYgoose124/wikicrawler/core"

	"github.com/fatih/color"
)

var (
	titleColor    = color.New(color.FgCyan, color.Bold)
	headingColor  = color.New(color.FgYellow)
	positiveColor = color.New(color.FgGreen)
	negativeColor = color.New(color.FgRed)
)

// Count converts an amount into a number of sentences out of n.
//
// An amount no greater than 1 is a fraction.  Anything larger is a
// count.
func Count(amount float64, n int) int {
	var k int
	if amount <= 1 {
		k = int(math.Ceil(amount * float64(n)))
	} else {
		k = int(amount)
	}
	if k < 0 {
		k = 0
	}
	if n < k {
		k = n
	}
	return k
}

// Show writes the page's analysis followed by some of its sentences,
// colored by polarity.
func (a *Analyzer) Show(w io.Writer, p *core.Page, amount float64) error {
	titleColor.Fprintf(w, "%s\n", p.Title)
	fmt.Fprintf(w, "%s\n", p.URL)

	if st := p.Stats; st != nil {
		headingColor.Fprintf(w, "frequencies: ")
		top := st.Frequencies
		if 10 < len(top) {
			top = top[:10]
		}
		fs := make([]string, len(top))
		for i, f := range top {
			fs[i] = fmt.Sprintf("%s(%d)", f.Word, f.Count)
		}
		fmt.Fprintln(w, strings.Join(fs, " "))

		headingColor.Fprintf(w, "collocations: ")
		fmt.Fprintln(w, strings.Join(st.Phrases(), ", "))
	}

	sents := a.Sentences(p)
	for _, s := range sents[:Count(amount, len(sents))] {
		var err error
		switch pol := a.Sentiment.Polarity(s); {
		case 0 < pol:
			_, err = positiveColor.Fprintln(w, s)
		case pol < 0:
			_, err = negativeColor.Fprintln(w, s)
		default:
			_, err = fmt.Fprintln(w, s)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
