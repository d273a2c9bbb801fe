package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Sanitize(t *testing.T) {
	out := New().Sanitize(`<h2>Title</h2><p onclick="x()">text<script>alert(1)</script></p><img src="https://a.test/i.png" alt="i">`)
	assert.Contains(t, out, "<h2>Title</h2>")
	assert.Contains(t, out, `src="https://a.test/i.png"`)
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "onclick")
}
