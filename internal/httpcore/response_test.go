package httpcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestResponseFinalizeSetsDefaultHeaders(t *testing.T) {
	resp := NewResponse()
	resp.AddHeader("Content-Type", "text/html")
	resp.Body.AppendString("hello\n")

	resp.Finalize("littlekitten/0.1", fixedClock())

	assert.Equal(t, "6", resp.Headers.Get("Content-Length"))
	assert.Equal(t, "littlekitten/0.1", resp.Headers.Get("Server"))
	assert.NotEmpty(t, resp.Headers.Get("Date"))
	assert.Contains(t, resp.Head.String(), "HTTP/1.0 200 OK\r\n")
	assert.Contains(t, resp.Head.String(), "Content-Length: 6\r\n")
}

// TestResponseFinalizeIsIdempotent covers spec section 8's idempotence
// invariant: calling finalize twice must not let a later AddHeader leak
// into the already-frozen wire image.
func TestResponseFinalizeIsIdempotent(t *testing.T) {
	resp := NewResponse()
	resp.Body.AppendString("abc")
	resp.Finalize("littlekitten/0.1", fixedClock())

	frozenHead := resp.Head.String()
	require.True(t, resp.Finalized())

	resp.AddHeader("X-Late", "should-not-appear")
	resp.Finalize("littlekitten/0.1", fixedClock()) // second call is a no-op

	assert.Equal(t, frozenHead, resp.Head.String())
	assert.NotContains(t, resp.Head.String(), "X-Late")
}

// TestResponseHeadMatchesGetForHead covers spec section 8's HEAD
// invariant: Content-Length reflects the pre-clear body length, and the
// body is empty afterward.
func TestResponseHeadMatchesGetForHead(t *testing.T) {
	resp := NewResponse()
	resp.AddHeader("Content-Type", "text/html")
	resp.Body.AppendString("hello\n")

	resp.Finalize("littlekitten/0.1", fixedClock())
	contentLengthBeforeClear := resp.Headers.Get("Content-Length")
	resp.ClearBodyForHead()

	assert.Equal(t, "6", contentLengthBeforeClear)
	assert.Equal(t, 0, resp.Body.Len())
	assert.Equal(t, "6", resp.Headers.Get("Content-Length")) // head image already frozen
}
