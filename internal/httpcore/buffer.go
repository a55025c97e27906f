// Copyright 2015 Matthew Holt and The Caddy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpcore

import "fmt"

// Buffer is a growable byte container with an implicit read cursor.
// It backs request bodies, response bodies, and the head images written
// out by the response assembler and the proxy dispatcher.
type Buffer struct {
	bytes []byte
	cur   int
}

// NewBuffer returns a Buffer with at least size bytes of initial capacity.
func NewBuffer(size int) *Buffer {
	if size < 0 {
		size = 0
	}
	return &Buffer{bytes: make([]byte, 0, size)}
}

// Append adds b to the buffer, growing capacity by doubling as needed.
func (buf *Buffer) Append(b []byte) {
	buf.grow(len(b))
	buf.bytes = append(buf.bytes, b...)
}

// AppendString is a convenience wrapper over Append for string literals.
func (buf *Buffer) AppendString(s string) {
	buf.Append([]byte(s))
}

// Appendf appends formatted text to the buffer.
func (buf *Buffer) Appendf(format string, args ...any) {
	buf.AppendString(fmt.Sprintf(format, args...))
}

// grow ensures capacity for at least needed additional bytes, doubling
// the current capacity until it fits rather than growing exactly to fit.
func (buf *Buffer) grow(needed int) {
	if cap(buf.bytes)-len(buf.bytes) >= needed {
		return
	}
	newCap := cap(buf.bytes)
	if newCap == 0 {
		newCap = 64
	}
	for newCap-len(buf.bytes) < needed {
		newCap *= 2
	}
	grown := make([]byte, len(buf.bytes), newCap)
	copy(grown, buf.bytes)
	buf.bytes = grown
}

// Clear empties the buffer and resets the read cursor.
func (buf *Buffer) Clear() {
	buf.bytes = buf.bytes[:0]
	buf.cur = 0
}

// Len returns the number of bytes currently held.
func (buf *Buffer) Len() int {
	return len(buf.bytes)
}

// Bytes returns the full contents of the buffer.
func (buf *Buffer) Bytes() []byte {
	return buf.bytes
}

// Cursor returns the current read-cursor offset.
func (buf *Buffer) Cursor() int {
	return buf.cur
}

// Remaining returns the bytes from the cursor to the end of the buffer.
func (buf *Buffer) Remaining() []byte {
	return buf.bytes[buf.cur:]
}

// Drained reports whether the cursor has consumed the whole buffer.
func (buf *Buffer) Drained() bool {
	return buf.cur >= len(buf.bytes)
}

// Advance moves the read cursor forward by n bytes.
func (buf *Buffer) Advance(n int) {
	buf.cur += n
	if buf.cur > len(buf.bytes) {
		buf.cur = len(buf.bytes)
	}
}

// String renders the full contents as a string, for logging/tests.
func (buf *Buffer) String() string {
	return string(buf.bytes)
}
