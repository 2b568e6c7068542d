package server

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	// streamChunkSize bounds the size of the text fragments produced for the
	// wire from an already-complete reply.
	streamChunkSize = 40

	// flushInterval bounds how often buffered fragments are written out, so
	// slow fine-grained producers cannot generate one frame per delta.
	flushInterval = 25 * time.Millisecond
)

type textFrame struct {
	Text string `json:"text"`
}

type doneFrame struct {
	Done bool `json:"done"`
}

// streamText writes the reply to the caller as a server-sent event sequence:
// one data frame per flush, then a terminal done frame. Fragments are queued
// by a producer goroutine and flushed by the consumer no more often than the
// flush interval, or when the producer finishes.
func streamText(w http.ResponseWriter, r *http.Request, text string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)

	fragments := make(chan string, 16)
	go func() {
		defer close(fragments)
		runes := []rune(text)
		for start := 0; start < len(runes); start += streamChunkSize {
			end := start + streamChunkSize
			if end > len(runes) {
				end = len(runes)
			}
			select {
			case fragments <- string(runes[start:end]):
			case <-r.Context().Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	var buffered string
	flush := func() {
		if buffered == "" {
			return
		}
		writeFrame(w, flusher, textFrame{Text: buffered})
		buffered = ""
	}

	for {
		select {
		case fragment, ok := <-fragments:
			if !ok {
				flush()
				writeFrame(w, flusher, doneFrame{Done: true})
				return
			}
			buffered += fragment
		case <-ticker.C:
			flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeFrame(w http.ResponseWriter, flusher http.Flusher, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	_, _ = w.Write([]byte("data: "))
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n\n"))
	if flusher != nil {
		flusher.Flush()
	}
}
