package arbiter

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/GRAYgoose124/wikicrawler/core"
	"github.com/GRAYgoose124/wikicrawler/util/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type renderer struct {
	built []string
}

func (r *renderer) Build(p *core.Page) (string, error) {
	r.built = append(r.built, p.Title)
	return p.Title + ".md", nil
}

func (r *renderer) Render(p *core.Page) (string, error) {
	return "# " + p.Title, nil
}

func (r *renderer) HTML(p *core.Page) (string, error) {
	return p.Title + ".html", nil
}

func (r *renderer) Graph(s *core.State) (string, error) {
	return "digraph { " + strings.Join(s.PageStack, " -> ") + " }", nil
}

type snapshots struct {
	bs []byte
}

func (s *snapshots) Save(ctx context.Context, sess *core.Session) error {
	bs, err := json.Marshal(sess)
	s.bs = bs
	return err
}

func (s *snapshots) Load(ctx context.Context) (*core.Session, error) {
	if s.bs == nil {
		return core.NewSession(), nil
	}
	var sess core.Session
	err := json.Unmarshal(s.bs, &sess)
	return &sess, err
}

type fixture struct {
	*Prompt
	src      *testutil.Source
	analyzer *testutil.Analyzer
	renderer *renderer
	out      *bytes.Buffer
}

// newFixture makes a Prompt over a small world of pages about stars.
func newFixture(t *testing.T) *fixture {
	var (
		star     = testutil.StarPage()
		sun      = testutil.SimplePage("Sun", "The Sun is the star at the center of the Solar System. The Sun is hot.")
		redGiant = testutil.SimplePage("Red giant", "A red giant is a luminous giant star. Red giant stars are cool.")
		branch   = testutil.SimplePage("Red-giant branch", "The red-giant branch is part of the giant branch.")
		mainSeq  = testutil.SimplePage("Main sequence", "The main sequence is a band of stars.")
		plasma   = testutil.SimplePage("Plasma (physics)", "Plasma is a state of matter.")
	)
	src := testutil.NewSource().
		Direct("Star", star).
		Direct("star", star).
		Direct("main sequence", mainSeq).
		Ambiguous("red giant", redGiant, branch).
		Add(sun, plasma)

	f := &fixture{
		src:      src,
		analyzer: testutil.NewAnalyzer(),
		renderer: &renderer{},
		out:      &bytes.Buffer{},
	}
	f.Prompt = NewPrompt(src, f.analyzer, zap.NewNop())
	f.Prompt.Renderer = f.renderer
	f.Prompt.Snapshots = &snapshots{}
	f.Prompt.Out = f.out
	f.Prompt.Oracle.Rand = rand.New(rand.NewSource(42))
	return f
}

func (f *fixture) exec(t *testing.T, line string) *Result {
	r := f.Execute(context.Background(), line, false)
	require.NotNil(t, r, line)
	require.NoError(t, f.Session.Check(), line)
	return r
}

func TestSearchSingleResult(t *testing.T) {
	f := newFixture(t)

	r := f.exec(t, "s Star")
	require.Equal(t, PageResult, r.Kind, r.String())
	assert.Equal(t, "Star", r.Page.Title)
	assert.Equal(t, "Star", f.Session.Pointer.Selection)
	assert.Contains(t, f.Session.State.Pages, "Star")
	assert.Equal(t, []string{"Star"}, f.Session.State.PageStack)
	assert.Equal(t, []string{"Star"}, f.Session.State.UserChoiceStack)
	assert.Len(t, f.Session.State.LastSearch, 1)

	// Non-interactive execution doesn't display.
	assert.Empty(t, f.analyzer.Shown)
	assert.Equal(t, 0, f.out.Len())
}

func TestSearchInteractiveShows(t *testing.T) {
	f := newFixture(t)
	r := f.Execute(context.Background(), "s Star", true)
	require.Equal(t, PageResult, r.Kind)
	assert.Equal(t, []string{"Star"}, f.analyzer.Shown)
	assert.Equal(t, "Star (0.1)\n", f.out.String())
}

func TestSearchAnalyzesUnanalyzed(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "s main sequence")
	p, err := f.Session.Selected()
	require.NoError(t, err)
	require.NotNil(t, p.Stats)
	assert.Equal(t, []string{"Main sequence"}, f.analyzer.Analyzed)

	// The cached page itself isn't modified.
	assert.Nil(t, f.src.Pages[testutil.WikiURL("Main sequence")].Stats)
}

func TestSearchListed(t *testing.T) {
	f := newFixture(t)

	r := f.exec(t, "s red giant")
	require.Equal(t, List, r.Kind)
	assert.Equal(t, []string{"Red giant", "Red-giant branch"}, r.Items)
	assert.Equal(t, "", f.Session.Pointer.Selection)
	assert.Empty(t, f.src.Retrieved)

	r = f.exec(t, "st found")
	assert.Equal(t, []string{"Red giant", "Red-giant branch"}, r.Items)

	r = f.exec(t, "st found 1")
	require.Equal(t, PageResult, r.Kind)
	assert.Equal(t, "Red-giant branch", f.Session.Pointer.Selection)
	assert.Equal(t, []string{testutil.WikiURL("Red-giant branch")}, f.src.Retrieved)

	r = f.exec(t, "st found 9")
	assert.Equal(t, Failure, r.Kind)
	assert.Equal(t, "Red-giant branch", f.Session.Pointer.Selection)
}

func TestSearchSentinels(t *testing.T) {
	f := newFixture(t)

	r := f.exec(t, "s most_similar_colloc")
	assert.Equal(t, None, r.Kind)
	assert.Empty(t, f.src.Searches)

	f.Session.Pointer.MostSimilarFreq = "main sequence"
	f.exec(t, "s most_similar_freq")
	assert.Equal(t, []string{"main sequence"}, f.src.Searches)
	assert.Equal(t, "Main sequence", f.Session.Pointer.Selection)
}

func TestSearchNoResults(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "s Star")
	r := f.exec(t, "s nothing at all")
	assert.Equal(t, None, r.Kind)
	assert.Empty(t, f.Session.State.LastSearch)
	assert.Equal(t, "Star", f.Session.Pointer.Selection)
}

func TestSearchFailure(t *testing.T) {
	f := newFixture(t)
	f.src.SearchErr = assert.AnError
	_, err := f.Do(context.Background(), "s Star", false)
	var se *SearchError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Star", se.Phrase)
	assert.Equal(t, Failure, f.exec(t, "s Star").Kind)
}

func TestStarScenario(t *testing.T) {
	f := newFixture(t)

	f.exec(t, "s Star")
	require.Equal(t, "Star", f.Session.Pointer.Selection)

	r := f.exec(t, "st colloc giant red")
	assert.Equal(t, "red giant", r.Text)
	assert.Equal(t, "red giant", f.Session.Pointer.MostSimilarColloc)

	// Same answer every time.
	for i := 0; i < 3; i++ {
		assert.Equal(t, "red giant", f.exec(t, "st colloc giant red").Text)
	}

	r = f.exec(t, "st colloc")
	assert.Equal(t, []string{"red giant", "main sequence"}, r.Items)
}

func TestCollocTieBreak(t *testing.T) {
	f := newFixture(t)
	p := testutil.SimplePage("Ties", "Nothing much.")
	p.Stats = &core.Stats{
		Collocations: []core.Collocation{{"a", "b"}, {"c", "d"}},
	}
	f.src.Direct("ties", p)
	f.exec(t, "s ties")
	for i := 0; i < 3; i++ {
		assert.Equal(t, "a b", f.exec(t, "st colloc x y").Text)
	}
}

func TestFreq(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "s Star")

	r := f.exec(t, "st freq")
	assert.Equal(t, []string{"star 4", "giant 1", "sun 1"}, r.Items)

	r = f.exec(t, "st freq sta")
	assert.Equal(t, "star", r.Text)
	assert.Equal(t, "star", f.Session.Pointer.MostSimilarFreq)
}

func TestNoSelection(t *testing.T) {
	f := newFixture(t)
	for _, line := range []string{"st colloc", "st freq x", "st sa", "st links", "st show", "st sents 0 1", "st current", "seer build"} {
		_, err := f.Do(context.Background(), line, false)
		assert.True(t, core.IsMissing(err), line)
		assert.Equal(t, None, f.exec(t, line).Kind, line)
	}
}

func TestFoundWithoutSearch(t *testing.T) {
	f := newFixture(t)

	_, err := f.Do(context.Background(), "st found", false)
	assert.ErrorIs(t, err, core.NoSearch)

	r := f.exec(t, "st found")
	assert.Equal(t, None, r.Kind)
	r = f.exec(t, "st found 2")
	assert.Equal(t, None, r.Kind)
	assert.Empty(t, f.Session.State.Pages)
}

func TestFoundSingleIgnoresIndex(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "s Star")
	r := f.exec(t, "st found 7")
	require.Equal(t, PageResult, r.Kind)
	assert.Equal(t, []string{"Star", "Star"}, f.Session.State.PageStack)
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "s Star")
	before, err := json.Marshal(f.Session)
	require.NoError(t, err)

	r := f.exec(t, "sate")
	assert.Equal(t, UnknownResult, r.Kind)
	assert.Contains(t, r.Text, "unknown command: sate")
	assert.Contains(t, r.Text, "state")

	r = f.exec(t, "st bogus")
	assert.Equal(t, Failure, r.Kind)

	after, err := json.Marshal(f.Session)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestNop(t *testing.T) {
	f := newFixture(t)
	for _, line := range []string{"", "   ", "# a comment"} {
		assert.Equal(t, None, f.exec(t, line).Kind)
	}
}

func TestURL(t *testing.T) {
	f := newFixture(t)

	r := f.exec(t, "u ftp://example.com/x")
	assert.Equal(t, Failure, r.Kind)
	assert.Contains(t, r.Text, "invalid")

	r = f.exec(t, "u "+testutil.WikiURL("Sun")+" https://example.com/wiki/Sun")
	require.Equal(t, List, r.Kind)
	assert.Equal(t, "Sun", r.Items[0])
	assert.Contains(t, r.Items[1], "invalid")
	assert.Equal(t, "Sun", f.Session.Pointer.Selection)

	r = f.exec(t, "u "+testutil.WikiURL("Nowhere"))
	require.Equal(t, List, r.Kind)
	assert.Contains(t, r.Items[0], "error")
	assert.Equal(t, "Sun", f.Session.Pointer.Selection)

	assert.Equal(t, Failure, f.exec(t, "u").Kind)
}

func TestSeeAlsoAndLinks(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "s Star")

	r := f.exec(t, "st sa")
	assert.Equal(t, []string{"Sun", "Red giant"}, r.Items)

	r = f.exec(t, "st links")
	assert.Equal(t, []string{"plasma | Sun", "red giant"}, r.Items)
	r = f.exec(t, "st links 0")
	assert.Equal(t, []string{"plasma", "Sun"}, r.Items)
	assert.Equal(t, Failure, f.exec(t, "st links 5").Kind)
	assert.Equal(t, Failure, f.exec(t, "st links 0 5").Kind)
	assert.Equal(t, Failure, f.exec(t, "st links x").Kind)

	r = f.exec(t, "st links 0 0")
	require.Equal(t, PageResult, r.Kind)
	assert.Equal(t, "Plasma (physics)", f.Session.Pointer.Selection)

	f.exec(t, "st hist 0")
	r = f.exec(t, "st sa 0")
	require.Equal(t, PageResult, r.Kind)
	assert.Equal(t, "Sun", f.Session.Pointer.Selection)
	assert.Equal(t, Failure, f.exec(t, "st sa 3").Kind)

	assert.Equal(t, []string{"Star", "Plasma (physics)", "Star", "Sun"}, f.exec(t, "st hist").Items)
	assert.Equal(t, []string{"Star", "Plasma (physics)", "Star", "Sun"}, f.Session.State.UserChoiceStack)
}

func TestPopUnpop(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "s Star")
	f.exec(t, "u "+testutil.WikiURL("Sun"))
	f.exec(t, "st hist 0")

	stack := append([]string{}, f.Session.State.PageStack...)
	selection := f.Session.Pointer.Selection

	r := f.exec(t, "st pop")
	assert.Equal(t, "Star", r.Text)
	assert.Equal(t, []string{"Star", "Sun"}, f.Session.State.PageStack)
	assert.Equal(t, []string{"Star"}, f.Session.State.PopStack)

	f.exec(t, "st unpop")
	assert.Equal(t, stack, f.Session.State.PageStack)
	assert.Equal(t, selection, f.Session.Pointer.Selection)

	assert.Equal(t, None, f.exec(t, "st unpop").Kind)
}

func TestShowAndSents(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "s Star")

	r := f.exec(t, "st show")
	assert.Equal(t, "Star (0.1)", r.Text)
	r = f.exec(t, "st show 3")
	assert.Equal(t, "Star (3)", r.Text)
	assert.Equal(t, Failure, f.exec(t, "st show lots").Kind)

	r = f.Execute(context.Background(), "st show 0.5", true)
	assert.Equal(t, Success, r.Kind)
	assert.Equal(t, "Star (0.5)\n", f.out.String())

	// Showing doesn't register anything.
	assert.Equal(t, []string{"Star"}, f.Session.State.PageStack)

	r = f.exec(t, "st sents 1 3")
	assert.Equal(t, []string{
		"The nearest star to Earth is the Sun.",
		"A red giant is a late stage of a star.",
	}, r.Items)
	assert.Equal(t, r.Items, f.Session.Pointer.SelectedText)

	r = f.exec(t, "st sents - -1")
	assert.Len(t, r.Items, 2)
	r = f.exec(t, "st sents 0 -")
	assert.Len(t, r.Items, 3)
	r = f.exec(t, "st sents -2")
	assert.Len(t, r.Items, 1)
	r = f.exec(t, "st sents 10 20")
	assert.Empty(t, r.Items)

	assert.Equal(t, Failure, f.exec(t, "st sents a b").Kind)
}

func TestCurrentPointerState(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "s Star")

	assert.Equal(t, "Star", f.exec(t, "st current").Text)

	r := f.exec(t, "pointer")
	require.Equal(t, Object, r.Kind)
	assert.Same(t, f.Session.Pointer, r.Object)
	assert.Contains(t, r.String(), `"selection": "Star"`)

	r = f.exec(t, "state")
	require.Equal(t, Object, r.Kind)
	assert.Same(t, f.Session.State, r.Object)
}

func TestRecordAndCall(t *testing.T) {
	f := newFixture(t)

	r := f.exec(t, "newf tour")
	assert.Equal(t, Success, r.Kind)
	assert.True(t, f.Recording())

	f.exec(t, "s Star")
	f.exec(t, "")
	f.exec(t, "st colloc giant red")
	assert.Equal(t, "", f.Session.Pointer.Selection)

	r = f.exec(t, "end")
	assert.Equal(t, Success, r.Kind)
	assert.Equal(t, Normal, f.Mode())
	assert.Equal(t, []string{"s Star", "st colloc giant red"}, f.Session.Functions["tour"])

	r = f.exec(t, "f tour")
	require.Equal(t, List, r.Kind)
	assert.Len(t, r.Items, 2)
	assert.Equal(t, "Star", f.Session.Pointer.Selection)
	assert.Equal(t, "red giant", f.Session.Pointer.MostSimilarColloc)

	assert.Equal(t, []string{"tour"}, f.exec(t, "funcs").Items)
	assert.Equal(t, Failure, f.exec(t, "f nope").Kind)
	assert.Equal(t, Success, f.exec(t, "rmf tour").Kind)
	assert.Empty(t, f.exec(t, "funcs").Items)
	assert.Equal(t, Failure, f.exec(t, "newf").Kind)
}

func TestRecursiveFunction(t *testing.T) {
	f := newFixture(t)
	f.Session.Functions["loop"] = []string{"f loop"}
	r := f.exec(t, "f loop")
	require.Equal(t, List, r.Kind)
	assert.Equal(t, 0, f.depth)
}

func TestHelp(t *testing.T) {
	f := newFixture(t)
	assert.Contains(t, f.exec(t, "help").Text, "s <phrase>")
	assert.Equal(t, StateHelp, f.exec(t, "help st").Text)
	assert.Equal(t, OracleHelp, f.exec(t, "o help").Text)
	assert.Equal(t, SeerHelp, f.exec(t, "seer help").Text)
	assert.Equal(t, StateHelp, f.exec(t, "st help").Text)
	assert.Equal(t, Failure, f.exec(t, "help sx").Kind)
}

func TestSeer(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "s Star")

	r := f.exec(t, "seer build")
	assert.Equal(t, "built Star.md", r.String())
	assert.Equal(t, "wrote Star.html", f.exec(t, "seer html").Text)
	assert.Equal(t, "# Star", f.exec(t, "seer show").Text)
	assert.Equal(t, "digraph { Star }", f.exec(t, "seer graph").Text)
	assert.Equal(t, Failure, f.exec(t, "seer").Kind)

	f.Renderer = nil
	assert.Equal(t, Failure, f.exec(t, "seer build").Kind)
}

func TestSaveLoad(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "s Star")
	f.exec(t, "st colloc giant red")
	f.exec(t, "st sents 0 2")
	f.exec(t, "st pop")
	f.Session.Functions["tour"] = []string{"s Star"}
	f.exec(t, "s red giant")
	require.NotEmpty(t, f.Session.State.LastSearch)

	require.Equal(t, Success, f.exec(t, "st save").Kind)
	assert.Nil(t, f.Session.State.LastSearch)

	g := newFixture(t)
	g.Snapshots = f.Snapshots
	require.NoError(t, g.Load(context.Background()))

	if diff := cmp.Diff(f.Session, g.Session, cmpopts.EquateEmpty()); diff != "" {
		t.Fatal(diff)
	}
	require.NoError(t, g.Session.Check())
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "s Star")
	f.Session.Functions["tour"] = []string{"s Star"}

	require.Equal(t, Success, f.exec(t, "st del").Kind)
	assert.Empty(t, f.Session.State.Pages)
	assert.Empty(t, f.Session.Functions)
	assert.Equal(t, "", f.Session.Pointer.Selection)

	require.NoError(t, f.Load(context.Background()))
	assert.Empty(t, f.Session.State.Pages)
}

func TestSaveWithoutSnapshots(t *testing.T) {
	f := newFixture(t)
	f.Snapshots = nil
	assert.Equal(t, Failure, f.exec(t, "st save").Kind)
	assert.Equal(t, Success, f.exec(t, "st del").Kind)
}

func TestInvariantsUnderRandomCommands(t *testing.T) {
	f := newFixture(t)
	lines := []string{
		"s Star",
		"s red giant",
		"s main sequence",
		"s nothing",
		"st found",
		"st found 0",
		"st found 1",
		"st found 5",
		"st pop",
		"st pop",
		"st unpop",
		"st hist 0",
		"st hist 3",
		"st sa 0",
		"st sa 1",
		"st links 0 1",
		"st colloc giant",
		"st freq star",
		"s most_similar_colloc",
		"u " + testutil.WikiURL("Sun"),
		"u " + testutil.WikiURL("Nowhere"),
		"o cmove 0 giant",
		"st del",
		"bogus",
	}
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		line := lines[r.Intn(len(lines))]
		f.exec(t, line)
	}
}

func TestCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Do(ctx, "s Star", false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.src.Searches)
}
