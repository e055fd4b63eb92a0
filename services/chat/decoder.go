package chat

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	eventMarker = "event: "
	dataMarker  = "data: "
)

// Frame is one decoded (event-type, payload) unit from the upstream stream.
type Frame struct {
	EventType string
	Data      map[string]any
}

// FrameDecoder turns raw byte chunks into frames. It retains a pending-bytes
// buffer so chunk boundaries never affect the decoded frame sequence; the
// decoded output for a given byte stream is identical however it is chunked.
type FrameDecoder struct {
	buf       bytes.Buffer
	eventType string
}

func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{}
}

// Write appends a chunk and returns all frames completed by it. Lines with an
// "event: " marker set the current event type; "data: " lines are parsed as
// JSON. Malformed JSON on a data line is dropped and decoding continues, so a
// corrupt frame never poisons the rest of the stream. Blank lines separate
// frames and produce no output.
func (d *FrameDecoder) Write(chunk []byte) []Frame {
	d.buf.Write(chunk)

	var frames []Frame
	for {
		raw := d.buf.Bytes()
		idx := bytes.IndexByte(raw, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(string(raw[:idx]))
		d.buf.Next(idx + 1)

		if line == "" {
			continue
		}

		if strings.HasPrefix(line, eventMarker) {
			d.eventType = strings.TrimSpace(line[len(eventMarker):])
			continue
		}

		if strings.HasPrefix(line, dataMarker) {
			var data map[string]any
			if err := json.Unmarshal([]byte(line[len(dataMarker):]), &data); err != nil {
				continue
			}
			frames = append(frames, Frame{EventType: d.eventType, Data: data})
		}
	}

	return frames
}
