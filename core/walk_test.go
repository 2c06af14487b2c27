package core

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkedPath(t *testing.T) {
	w := NewWalked()
	assert.Equal(t, "", w.To())

	w.Add(&Stride{To: "Star"})
	w.Add(&Stride{From: "Star", Error: "no stats"})
	w.Add(&Stride{From: "Star", To: "Star"})
	w.Add(&Stride{From: "Star", To: "Red giant"})

	assert.Equal(t, "Red giant", w.To())
	assert.Equal(t, []string{"Star", "Red giant"}, w.Path())
	assert.True(t, w.Strides[0].Moved())
	assert.False(t, w.Strides[1].Moved())
	assert.False(t, w.Strides[2].Moved())
}

func TestWalkedJSON(t *testing.T) {
	w := NewWalked()
	w.Add(&Stride{To: "Star", Commands: []string{"s Star"}})
	w.StoppedBecause = Limited

	js, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"strides":[{"to":"Star","commands":["s Star"]}],"stoppedBecause":"limited"}`, string(js))
	assert.Equal(t, "unknown", StopReason(42).String())
}

func TestControlCopy(t *testing.T) {
	c := &Control{
		Limit: 3,
		Breakpoints: map[string]Breakpoint{
			"sun": func(ctx context.Context, p *Pointer) bool { return p.Selection == "Sun" },
		},
	}
	d := c.Copy()
	d.Limit = 5
	delete(d.Breakpoints, "sun")

	assert.Equal(t, 3, c.Limit)
	assert.Len(t, c.Breakpoints, 1)
	assert.True(t, c.Breakpoints["sun"](context.Background(), &Pointer{Selection: "Sun"}))
}
