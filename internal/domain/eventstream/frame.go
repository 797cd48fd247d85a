package eventstream

import (
	"bufio"
	"io"
	"strings"
)

// Frame is one dispatched server-sent event block.
type Frame struct {
	ID    string
	Event string
	Data  string
}

// FrameReader splits a server-sent event stream into frames.
type FrameReader struct {
	r      *bufio.Reader
	lastID string
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// LastID is the most recent "id:" value seen, including in blocks without data.
func (fr *FrameReader) LastID() string { return fr.lastID }

// Next returns the next block that carries data. Comment lines and blocks
// without data are consumed silently. A trailing incomplete block is dropped
// and the read error returned.
func (fr *FrameReader) Next() (Frame, error) {
	var (
		event string
		data  strings.Builder
		has   bool
	)
	for {
		line, err := fr.r.ReadString('\n')
		if err != nil {
			return Frame{}, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if has {
				return Frame{ID: fr.lastID, Event: event, Data: data.String()}, nil
			}
			event = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			if has {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			has = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				fr.lastID = value
			}
		case "event":
			event = value
		}
	}
}
