package arbiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for line, kind := range map[string]Kind{
		"s red giant":   Search,
		"  u http://x ": URL,
		"st colloc":     StateCmd,
		"o auto 3 Star": OracleCmd,
		"oracle help":   OracleCmd,
		"seer build":    SeerCmd,
		"pointer":       ShowPointer,
		"state":         ShowState,
		"newf tour":     NewFunction,
		"f tour":        CallFunction,
		"call tour":     CallFunction,
		"funcs":         ListFunctions,
		"rmf tour":      RemoveFunction,
		"run x.js":      Run,
		"help st":       Help,
		"":              Nop,
		"# comment":     Nop,
	} {
		cmd, err := Parse(line)
		require.NoError(t, err, line)
		assert.Equal(t, kind, cmd.Kind, line)
	}
}

func TestParseArgs(t *testing.T) {
	cmd, err := Parse("  s   red   giant ")
	require.NoError(t, err)
	assert.Equal(t, "s", cmd.Name)
	assert.Equal(t, []string{"red", "giant"}, cmd.Args)
	assert.Equal(t, "red giant", cmd.Rest())
	assert.Equal(t, "s   red   giant", cmd.Line)
}

func TestParseUnknown(t *testing.T) {
	cmd, err := Parse("pointr now")
	assert.Equal(t, Unknown, cmd.Kind)
	var u *UnknownCommand
	require.ErrorAs(t, err, &u)
	assert.Equal(t, "pointr", u.Name)
	assert.Contains(t, u.Suggestions, "pointer")
	assert.Contains(t, err.Error(), "did you mean")

	_, err = Parse("zzz")
	require.ErrorAs(t, err, &u)
	assert.Empty(t, u.Suggestions)
	assert.Equal(t, "unknown command: zzz", err.Error())
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "0: a\n1: b", ListResult([]string{"a", "b"}).String())
	assert.Equal(t, "ok", SuccessResult("").String())
	assert.Equal(t, "error: nope", (&Result{Kind: Failure, Text: "nope"}).String())
	assert.Equal(t, "", (*Result)(nil).String())
	assert.Equal(t, "{\n  \"a\": 1\n}", ObjectResult(map[string]int{"a": 1}).String())
}

func TestResultKindJSON(t *testing.T) {
	for k := None; k <= UnknownResult; k++ {
		js, err := k.MarshalJSON()
		require.NoError(t, err)
		var j ResultKind
		require.NoError(t, j.UnmarshalJSON(js))
		assert.Equal(t, k, j)
	}
}
