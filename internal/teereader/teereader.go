// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"unicode/utf8"
)

// MaxLineLength caps how much of a single line is kept for LastLine.
// Longer lines keep their head.
const MaxLineLength = 64 * 1024

// LastLineTeeReader wraps an io.Reader, keeps up to a fixed number of bytes of
// everything read through it, and tracks the last complete line.
// Bytes past the limit are still passed to the caller, only not retained,
// so the producer on the other end of a pipe never stalls.
// It is safe for concurrent use.
type LastLineTeeReader struct {
	reader    io.Reader
	max       int
	mu        sync.RWMutex
	buf       bytes.Buffer
	partial   strings.Builder
	lastLine  string
	truncated bool
}

// NewLastLineTeeReader wraps r. max <= 0 means unlimited retention.
func NewLastLineTeeReader(r io.Reader, max int) *LastLineTeeReader {
	return &LastLineTeeReader{reader: r, max: max}
}

// Read implements io.Reader.
func (lt *LastLineTeeReader) Read(p []byte) (int, error) {
	n, err := lt.reader.Read(p)
	if n > 0 {
		lt.mu.Lock()
		lt.retain(p[:n])
		lt.track(p[:n])
		lt.mu.Unlock()
	}

	return n, err //nolint:wrapcheck
}

func (lt *LastLineTeeReader) retain(b []byte) {
	if lt.max <= 0 {
		lt.buf.Write(b)
		return
	}

	room := lt.max - lt.buf.Len()
	if room >= len(b) {
		lt.buf.Write(b)
		return
	}

	if room > 0 {
		lt.buf.Write(b[:room])
	}

	lt.truncated = true
}

func (lt *LastLineTeeReader) track(b []byte) {
	for len(b) > 0 {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			lt.appendPartial(b)
			return
		}

		lt.appendPartial(b[:i])
		lt.lastLine = strings.TrimRight(lt.partial.String(), "\r")
		lt.partial.Reset()
		b = b[i+1:]
	}
}

func (lt *LastLineTeeReader) appendPartial(b []byte) {
	room := MaxLineLength - lt.partial.Len()
	if room <= 0 {
		return
	}

	if len(b) > room {
		b = b[:runeStart(b, room)]
	}

	lt.partial.Write(b)
}

// runeStart returns the largest index <= n that does not split a rune in b.
func runeStart(b []byte, n int) int {
	for n > 0 && n < len(b) && !utf8.RuneStart(b[n]) {
		n--
	}

	return n
}

// LastLine returns the last complete line read so far. When maxLength > 3 and the
// line is longer, it is cut and suffixed with "...".
func (lt *LastLineTeeReader) LastLine(maxLength int) string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	if maxLength > 3 && len(lt.lastLine) > maxLength {
		cut := runeStart([]byte(lt.lastLine), maxLength-3)
		return lt.lastLine[:cut] + "..."
	}

	return lt.lastLine
}

// Bytes returns a copy of the retained output.
func (lt *LastLineTeeReader) Bytes() []byte {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return bytes.Clone(lt.buf.Bytes())
}

// Truncated reports whether output was discarded because of the retention limit.
func (lt *LastLineTeeReader) Truncated() bool {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.truncated
}
