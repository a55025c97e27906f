package httpcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferAppendAndCursor(t *testing.T) {
	buf := NewBuffer(0)
	buf.AppendString("hello ")
	buf.AppendString("world")
	require.Equal(t, "hello world", buf.String())
	require.Equal(t, 11, buf.Len())

	assert.Equal(t, []byte("hello world"), buf.Remaining())
	buf.Advance(6)
	assert.Equal(t, []byte("world"), buf.Remaining())
	assert.False(t, buf.Drained())

	buf.Advance(100) // overshoot clamps to len
	assert.True(t, buf.Drained())
	assert.Equal(t, 11, buf.Cursor())
}

func TestBufferGrowthDoubling(t *testing.T) {
	buf := NewBuffer(4)
	for i := 0; i < 100; i++ {
		buf.AppendString("x")
	}
	assert.Equal(t, 100, buf.Len())
	assert.Equal(t, "x", string(buf.Bytes()[99:]))
}

func TestBufferClearResetsCursor(t *testing.T) {
	buf := NewBuffer(0)
	buf.AppendString("abc")
	buf.Advance(2)
	buf.Clear()
	assert.Equal(t, 0, buf.Len())
	assert.Equal(t, 0, buf.Cursor())
	assert.True(t, buf.Drained())
}

func TestBufferAppendf(t *testing.T) {
	buf := NewBuffer(0)
	buf.Appendf("%s %d\r\n", "HTTP/1.0", 200)
	assert.Equal(t, "HTTP/1.0 200\r\n", buf.String())
}
