package httpcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadersCaseInsensitiveGet(t *testing.T) {
	var h Headers
	h.Add("Content-Type", "text/html")

	assert.True(t, h.Has("content-type"))
	assert.Equal(t, "text/html", h.Get("CONTENT-TYPE"))
	assert.Equal(t, "", h.Get("X-Missing"))
}

func TestHeadersDuplicateKeysAppend(t *testing.T) {
	var h Headers
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "a=1", h.Get("Set-Cookie")) // first match wins
	all := h.All()
	assert.Equal(t, "a=1", all[0].Value)
	assert.Equal(t, "b=2", all[1].Value)
}
