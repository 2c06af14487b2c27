package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/GRAYgoose124/wikicrawler/core"
)

// scored is a candidate collocation with its likelihood ratio.
type scored struct {
	words []string
	score float64
	first int
}

func rank(cs []scored, n int) []core.Collocation {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].score != cs[j].score {
			return cs[j].score < cs[i].score
		}
		return cs[i].first < cs[j].first
	})
	if n < len(cs) {
		cs = cs[:n]
	}
	acc := make([]core.Collocation, len(cs))
	for i, c := range cs {
		acc[i] = core.Collocation(c.words)
	}
	return acc
}

func (a *Analyzer) keep(w string) bool {
	return a.MinWordLen <= len([]rune(w)) && !a.stop[w]
}

// llr computes Dunning's log-likelihood ratio for a contingency
// table given as observed counts and their expectations.
func llr(obs, exp []float64) float64 {
	var sum float64
	for i, o := range obs {
		if o <= 0 || exp[i] <= 0 {
			continue
		}
		sum += o * math.Log(o/exp[i])
	}
	return 2 * sum
}

// bigrams ranks adjacent word pairs by likelihood ratio.
func (a *Analyzer) bigrams(words []string) []core.Collocation {
	n := float64(len(words) - 1)
	if n < 1 {
		return []core.Collocation{}
	}
	var (
		pairs  = make(map[string]int)
		firsts = make(map[string]int)
		lefts  = make(map[string]int)
		rights = make(map[string]int)
	)
	for i := 0; i+1 < len(words); i++ {
		w1, w2 := words[i], words[i+1]
		key := w1 + " " + w2
		if _, have := firsts[key]; !have {
			firsts[key] = i
		}
		pairs[key]++
		lefts[w1]++
		rights[w2]++
	}

	cs := make([]scored, 0, len(pairs))
	for key, n11 := range pairs {
		ws := strings.SplitN(key, " ", 2)
		if !a.keep(ws[0]) || !a.keep(ws[1]) {
			continue
		}
		var (
			o11 = float64(n11)
			o12 = float64(lefts[ws[0]] - n11)
			o21 = float64(rights[ws[1]] - n11)
			o22 = n - o11 - o12 - o21
			r1  = o11 + o12
			r2  = o21 + o22
			c1  = o11 + o21
			c2  = o12 + o22
		)
		obs := []float64{o11, o12, o21, o22}
		exp := []float64{r1 * c1 / n, r1 * c2 / n, r2 * c1 / n, r2 * c2 / n}
		cs = append(cs, scored{
			words: ws,
			score: llr(obs, exp),
			first: firsts[key],
		})
	}
	return rank(cs, a.Bigrams)
}

// trigrams ranks adjacent word triples by likelihood ratio.
func (a *Analyzer) trigrams(words []string) []core.Collocation {
	n := float64(len(words) - 2)
	if n < 1 {
		return []core.Collocation{}
	}

	// Marginal counts are keyed by the words that are fixed,
	// with "" for a free position.
	var (
		triples = make(map[[3]string]int)
		firsts  = make(map[[3]string]int)
		margins = make(map[[3]string]int)
	)
	for i := 0; i+2 < len(words); i++ {
		t := [3]string{words[i], words[i+1], words[i+2]}
		if _, have := firsts[t]; !have {
			firsts[t] = i
		}
		triples[t]++
		for mask := 1; mask < 7; mask++ {
			margins[project(t, mask)]++
		}
	}

	cs := make([]scored, 0, len(triples))
	for t, count := range triples {
		if count < a.TrigramMinFreq {
			continue
		}
		if !a.keep(t[0]) || !a.keep(t[2]) {
			continue
		}

		// at(mask) counts windows agreeing with t on the
		// positions in mask.
		at := func(mask int) float64 {
			switch mask {
			case 0:
				return n
			case 7:
				return float64(count)
			default:
				return float64(margins[project(t, mask)])
			}
		}

		// Inclusion-exclusion turns the "agrees on at least
		// these positions" counts into exact cells.
		obs := make([]float64, 8)
		for cell := 0; cell < 8; cell++ {
			var v float64
			for sup := cell; sup < 8; sup = (sup + 1) | cell {
				sign := 1.0
				if bitsOn(sup^cell)%2 == 1 {
					sign = -1
				}
				v += sign * at(sup)
			}
			obs[cell] = v
		}

		exp := make([]float64, 8)
		for cell := 0; cell < 8; cell++ {
			e := 1.0
			for k := 0; k < 3; k++ {
				var marg float64
				for other := 0; other < 8; other++ {
					if (other>>k)&1 == (cell>>k)&1 {
						marg += obs[other]
					}
				}
				e *= marg
			}
			exp[cell] = e / (n * n)
		}

		cs = append(cs, scored{
			words: []string{t[0], t[1], t[2]},
			score: llr(obs, exp),
			first: firsts[t],
		})
	}
	return rank(cs, a.Trigrams)
}

// project blanks the positions of t that aren't in mask.
func project(t [3]string, mask int) [3]string {
	var p [3]string
	for k := 0; k < 3; k++ {
		if (mask>>k)&1 == 1 {
			p[k] = t[k]
		}
	}
	return p
}

func bitsOn(x int) int {
	n := 0
	for ; x != 0; x &= x - 1 {
		n++
	}
	return n
}
