package sio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/GRAYgoose124/wikicrawler/core"
	"github.com/GRAYgoose124/wikicrawler/util/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStoreMissing(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "prompt"))
	sess, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sess.State.Pages)
	assert.Empty(t, sess.State.PageStack)
	assert.Equal(t, &core.Pointer{}, sess.Pointer)
	assert.NotNil(t, sess.Functions)
}

func TestJSONStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "prompt")
	s := NewJSONStore(dir)

	sess := core.NewSession()
	require.NoError(t, sess.Register(testutil.StarPage()))
	require.NoError(t, sess.Register(testutil.SimplePage("Sun", "The Sun is a star.")))
	_, err := sess.Pop()
	require.NoError(t, err)
	sess.Pointer.MostSimilarColloc = "red giant"
	sess.Pointer.SelectedText = []string{"A star is a ball."}
	sess.Functions["walk"] = []string{"s Star", "st colloc 0"}

	require.NoError(t, s.Save(ctx, sess))

	for _, name := range []string{"crawl_state.json", "pointer.json", "functions_cache.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}

	got, err := s.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(sess, got, cmpopts.EquateEmpty(), cmpopts.IgnoreFields(core.State{}, "LastSearch")); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
	require.NoError(t, got.Check())
}

func TestJSONStorePartial(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewJSONStore(dir)
	require.NoError(t, os.WriteFile(s.PointerFilename, []byte(`{"selection":""}`), 0644))

	sess, err := s.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, sess.State)
	assert.NotNil(t, sess.Functions)

	require.NoError(t, os.WriteFile(s.FunctionsFilename, []byte(`{`), 0644))
	_, err = s.Load(ctx)
	require.Error(t, err)
}
