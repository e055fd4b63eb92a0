package chat

import (
	"reflect"
	"testing"
)

const sampleStream = "event: conversation_start\n" +
	"data: {\"data\": {\"conversation_id\": \"abc-123\"}}\n" +
	"\n" +
	"event: reasoning\n" +
	"data: {\"data\": {\"reasoning\": \"thinking about boots\"}}\n" +
	"\n" +
	"data: {\"data\": {\"text_chunk\": \"Hello\"}}\n" +
	"\n" +
	"data: not json at all\n" +
	"\n" +
	"data: {\"data\": {\"text_chunk\": \" world\"}}\n" +
	"\n"

func decodeAll(t *testing.T, input string, chunkSize int) []Frame {
	t.Helper()
	decoder := NewFrameDecoder()

	var frames []Frame
	data := []byte(input)
	for start := 0; start < len(data); start += chunkSize {
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		frames = append(frames, decoder.Write(data[start:end])...)
	}
	return frames
}

func TestFrameDecoderBasic(t *testing.T) {
	frames := decodeAll(t, sampleStream, len(sampleStream))

	if len(frames) != 4 {
		t.Fatalf("expected 4 frames (malformed JSON dropped), got %d", len(frames))
	}

	if frames[0].EventType != "conversation_start" {
		t.Errorf("frame 0 event type = %q, want conversation_start", frames[0].EventType)
	}
	data, _ := frames[0].Data["data"].(map[string]any)
	if data["conversation_id"] != "abc-123" {
		t.Errorf("frame 0 conversation_id = %v", data["conversation_id"])
	}

	if frames[1].EventType != "reasoning" {
		t.Errorf("frame 1 event type = %q, want reasoning", frames[1].EventType)
	}
}

func TestFrameDecoderChunkInvariance(t *testing.T) {
	want := decodeAll(t, sampleStream, len(sampleStream))

	for _, chunkSize := range []int{1, 2, 3, 7, 16, 64, 1024} {
		got := decodeAll(t, sampleStream, chunkSize)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("chunk size %d changed decoded output: got %d frames, want %d",
				chunkSize, len(got), len(want))
		}
	}
}

func TestFrameDecoderIncompleteLineHeldBack(t *testing.T) {
	decoder := NewFrameDecoder()

	frames := decoder.Write([]byte(`data: {"data": {"text_chunk": "par`))
	if len(frames) != 0 {
		t.Fatalf("incomplete line should produce no frames, got %d", len(frames))
	}

	frames = decoder.Write([]byte("tial\"}}\n"))
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame after completion, got %d", len(frames))
	}
	data, _ := frames[0].Data["data"].(map[string]any)
	if data["text_chunk"] != "partial" {
		t.Errorf("text_chunk = %v, want partial", data["text_chunk"])
	}
}

func TestFrameDecoderCRLF(t *testing.T) {
	decoder := NewFrameDecoder()

	frames := decoder.Write([]byte("event: message\r\ndata: {\"x\": 1}\r\n\r\n"))
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame from CRLF input, got %d", len(frames))
	}
	if frames[0].EventType != "message" {
		t.Errorf("event type = %q, want message", frames[0].EventType)
	}
}

func TestFrameDecoderBlankLinesOnly(t *testing.T) {
	decoder := NewFrameDecoder()
	if frames := decoder.Write([]byte("\n\n\n")); len(frames) != 0 {
		t.Errorf("blank lines produced %d frames", len(frames))
	}
}

func BenchmarkFrameDecoder(b *testing.B) {
	data := []byte(sampleStream)
	for i := 0; i < b.N; i++ {
		decoder := NewFrameDecoder()
		decoder.Write(data)
	}
}
