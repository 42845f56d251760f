package testsupport

import (
	"bytes"
	"io"
)

// ChunkReader returns a reader that yields each chunk from a separate Read
// call, mimicking a network body that delivers data in fragments.
func ChunkReader(chunks ...[]byte) io.Reader {
	return &chunkReader{chunks: chunks}
}

type chunkReader struct {
	chunks [][]byte
	cur    []byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for len(r.cur) == 0 {
		if len(r.chunks) == 0 {
			return 0, io.EOF
		}
		r.cur, r.chunks = r.chunks[0], r.chunks[1:]
	}
	n := copy(p, r.cur)
	r.cur = r.cur[n:]
	return n, nil
}

// SplitAt cuts data at the given ascending offsets.
func SplitAt(data []byte, offsets ...int) [][]byte {
	parts := make([][]byte, 0, len(offsets)+1)
	prev := 0
	for _, off := range offsets {
		parts = append(parts, data[prev:off])
		prev = off
	}
	return append(parts, data[prev:])
}

// NDJSON joins lines with a trailing newline after each.
func NDJSON(lines ...string) []byte {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
