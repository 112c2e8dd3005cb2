package main

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

const defaultDebounce = 250 * time.Millisecond

// lineWriter serializes JSON lines from concurrent workers.
type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newLineWriter(w io.Writer) *lineWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &lineWriter{enc: enc}
}

func (l *lineWriter) write(v any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(v)
}
