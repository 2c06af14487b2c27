package arbiter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GRAYgoose124/wikicrawler/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferredStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.exec(t, "s Star")
	require.Equal(t, "", f.Session.Pointer.MostSimilarColloc)

	s := ScriptFromSteps("deferred",
		Literal("st colloc giant red"),
		Deferred(func(ctx context.Context) (string, error) {
			return "s " + f.Session.Pointer.MostSimilarColloc, nil
		}),
		Literal("st found 0"),
	)
	rs, err := f.Exec(ctx, s)
	require.NoError(t, err)
	require.Len(t, rs, 3)
	assert.Equal(t, "s red giant", rs[1].Line)
	assert.Equal(t, []string{"Star", "red giant"}, f.src.Searches)
	assert.Equal(t, "Red giant", f.Session.Pointer.Selection)
}

func TestScriptFailSoft(t *testing.T) {
	f := newFixture(t)
	s := ScriptFromString("soft", "st found 3\nbogus\nu ftp://nope\n\ns Star\n")
	rs, err := f.Exec(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, rs, 6)
	assert.True(t, core.IsMissing(rs[0].Err))
	assert.Equal(t, UnknownResult, rs[1].Result.Kind)
	assert.True(t, core.IsUserError(rs[2].Err))
	assert.Equal(t, Failure, rs[2].Result.Kind)
	assert.Equal(t, "Star", f.Session.Pointer.Selection)
}

func TestScriptStopsWhenUnrecoverable(t *testing.T) {
	f := newFixture(t)
	broken := errors.New("disk on fire")
	s := ScriptFromSteps("fatal",
		Literal("s Star"),
		Deferred(func(ctx context.Context) (string, error) {
			return "", &core.Unrecoverable{Err: broken}
		}),
		Literal("s main sequence"),
	)
	rs, err := f.Exec(context.Background(), s)
	assert.ErrorIs(t, err, broken)
	assert.Len(t, rs, 2)
	assert.Equal(t, "Star", f.Session.Pointer.Selection)
}

func TestScriptDeferredError(t *testing.T) {
	f := newFixture(t)
	s := ScriptFromSteps("soft",
		Deferred(func(ctx context.Context) (string, error) {
			return "", &core.UserError{Msg: "nope"}
		}),
		Literal("s Star"),
	)
	rs, err := f.Exec(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, Failure, rs[0].Result.Kind)
	assert.Equal(t, "Star", f.Session.Pointer.Selection)
}

func TestScriptRecords(t *testing.T) {
	f := newFixture(t)
	_, err := f.RunScript(context.Background(), "newf tour\ns Star\nend\nf tour")
	require.NoError(t, err)
	assert.Equal(t, []string{"s Star"}, f.Session.Functions["tour"])
	assert.Equal(t, "Star", f.Session.Pointer.Selection)
}

func TestRunScript(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir := t.TempDir()

	filename := filepath.Join(dir, "tour.txt")
	require.NoError(t, os.WriteFile(filename, []byte("s Star\nst colloc giant red\n"), 0644))

	rs, err := f.RunScript(ctx, filename)
	require.NoError(t, err)
	assert.Len(t, rs, 3)
	assert.Equal(t, "red giant", f.Session.Pointer.MostSimilarColloc)

	rs, err = f.RunScript(ctx, "st current")
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "Star", rs[0].Result.Text)

	r := f.exec(t, "run "+filename)
	require.Equal(t, List, r.Kind)
	assert.Equal(t, "s Star => Star <https://en.wikipedia.org/wiki/Star>", strings.SplitN(r.Items[0], "\n", 2)[0])

	assert.Equal(t, Failure, f.exec(t, "run "+filepath.Join(dir, "missing.txt")).Kind)
}

type upper struct{}

func (upper) Compile(ctx context.Context, p *Prompt, name, src string) (*Script, error) {
	return ScriptFromString(name, strings.ToLower(src)), nil
}

func TestScriptInterpreter(t *testing.T) {
	f := newFixture(t)
	f.Interpreters = map[string]Interpreter{".up": upper{}}

	filename := filepath.Join(t.TempDir(), "tour.up")
	require.NoError(t, os.WriteFile(filename, []byte("S MAIN SEQUENCE"), 0644))

	_, err := f.RunScript(context.Background(), filename)
	require.NoError(t, err)
	assert.Equal(t, "Main sequence", f.Session.Pointer.Selection)
}
