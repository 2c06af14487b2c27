package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GRAYgoose124/wikicrawler/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newWiki serves a search that always goes directly to an article
// named after the phrase.
func newWiki(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/wiki/")
		if name == "Special:Search" {
			http.Redirect(w, r, "/wiki/"+r.URL.Query().Get("search"), http.StatusFound)
			return
		}
		fmt.Fprintf(w, `<html><body><h1 id="firstHeading">%s</h1><div class="mw-parser-output"><p>The %s is a luminous star. A star is bright.</p></div></body></html>`, name, name)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T) *config.Config {
	root := t.TempDir()
	t.Setenv(config.RootEnv, root)
	for _, k := range []string{"WIKICRAWLER_TOKEN", "WIKICRAWLER_LOG_LEVEL", "WIKICRAWLER_USER_AGENT", "WIKICRAWLER_SEED"} {
		t.Setenv(k, "")
	}
	conf := config.Default(root)
	conf.WikiURL = newWiki(t).URL
	conf.Rate = 0
	conf.Log.Level = "error"
	conf.Log.File = ""
	return conf
}

func TestAppSessionSurvives(t *testing.T) {
	ctx := context.Background()
	conf := testConfig(t)

	a, err := newApp(ctx, conf, &options{seed: 1}, nil)
	require.NoError(t, err)

	var lines []string
	err = a.runScripts(ctx, []string{"s Star", "st current\nnewf again\ns Star\nend"}, func(s string) {
		lines = append(lines, s)
	})
	require.NoError(t, err)
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "s Star => Star <"), lines[0])
	assert.Equal(t, "st current => Star", lines[1])
	require.NoError(t, a.close(ctx))

	_, err = os.Stat(conf.Path(conf.PromptState))
	require.NoError(t, err)

	b, err := newApp(ctx, conf, nil, nil)
	require.NoError(t, err)
	defer b.close(ctx)
	sess := b.prompt.Session
	assert.Equal(t, []string{"Star"}, sess.State.PageStack)
	assert.Contains(t, sess.State.Pages, "Star")
	assert.Equal(t, "Star", sess.Pointer.Selection)
	assert.Equal(t, []string{"s Star"}, sess.Functions["again"])
	require.NoError(t, sess.Check())
}

func TestAppBadSchedule(t *testing.T) {
	conf := testConfig(t)
	conf.Schedules = []config.Schedule{{Cron: "whenever", Command: "s Star"}}
	_, err := newApp(context.Background(), conf, nil, nil)
	require.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	conf := testConfig(t)
	filename := filepath.Join(conf.DataRoot, "config.yaml")
	require.NoError(t, conf.Write(filename))

	script := filepath.Join(t.TempDir(), "walk.txt")
	require.NoError(t, os.WriteFile(script, []byte("# a walk\ns Sun\nst current\n"), 0644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filename, "--no-color", "run", "s Star", script})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	got := out.String()
	assert.Contains(t, got, "s Star => Star <")
	assert.Contains(t, got, "s Sun => Sun <")
	assert.Contains(t, got, "st current => Sun")
}

func TestConfigCommand(t *testing.T) {
	conf := testConfig(t)
	filename := filepath.Join(conf.DataRoot, "config.yaml")
	require.NoError(t, conf.Write(filename))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", filename, "config"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), conf.WikiURL)
}
