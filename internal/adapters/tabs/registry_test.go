package tabs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := New()
	_, ok := r.Active()
	assert.False(t, ok)

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.Open(Tab{ID: "1", URL: "https://a.test", OpenedAt: t0})
	r.Open(Tab{ID: "2", URL: "https://b.test", OpenedAt: t0.Add(time.Second)})

	active, ok := r.Active()
	assert.True(t, ok)
	assert.Equal(t, "2", active.ID)
	assert.True(t, active.Active)

	assert.True(t, r.Activate("1"))
	assert.False(t, r.Activate("9"))
	list := r.List()
	assert.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)
	assert.True(t, list[0].Active)
	assert.False(t, list[1].Active)

	assert.True(t, r.Close("1"))
	assert.False(t, r.Close("1"))
	_, ok = r.Active()
	assert.False(t, ok, "closing the active tab leaves none active")
	_, ok = r.Get("2")
	assert.True(t, ok)
}
