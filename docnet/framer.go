package docnet

import (
	"bytes"
	"strings"

	"docdb-go/docp"
)

// lineFramer reassembles the inbound byte stream into complete protocol
// lines. TCP may hand the read loop any slicing of the stream; the framer
// keeps the bytes after the last delimiter buffered until a later chunk
// completes them.
type lineFramer struct {
	buf []byte
}

// feed appends chunk to the buffer and returns every line that is now
// complete, oldest first. Lines that are blank after trimming are dropped as
// protocol no-ops. Returned lines are copies; they stay valid after the next
// feed.
func (f *lineFramer) feed(chunk []byte) []string {
	f.buf = append(f.buf, chunk...)

	var lines []string
	rest := f.buf
	for {
		i := bytes.IndexByte(rest, docp.Delim)
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(rest[:i]))
		rest = rest[i+1:]
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	f.buf = append(f.buf[:0], rest...)
	return lines
}

// buffered reports how many bytes are waiting for a delimiter.
func (f *lineFramer) buffered() int { return len(f.buf) }
