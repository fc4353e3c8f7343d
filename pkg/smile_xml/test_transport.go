package smile_xml

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// TestTransport serves a canned document and records every write. Used by
// package tests and kept exported so downstream packages can reuse it.
type TestTransport struct {
	mu       sync.Mutex
	document []byte
	getErr   error
	putErr   error
	puts     []RecordedPut
}

type RecordedPut struct {
	Path string
	Body string
}

func NewTestTransport(document []byte) *TestTransport {
	return &TestTransport{document: document}
}

// NewFixtureTransport serves the XML document at the given path.
func NewFixtureTransport(path string) (*TestTransport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewTestTransport(data), nil
}

func (t *TestTransport) Get(_ context.Context, path string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.getErr != nil {
		return nil, t.getErr
	}
	if path != PathDomainObjects {
		return nil, fmt.Errorf("unexpected path %s", path)
	}
	return t.document, nil
}

func (t *TestTransport) Put(_ context.Context, path string, body []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.putErr != nil {
		return t.putErr
	}
	t.puts = append(t.puts, RecordedPut{Path: path, Body: string(body)})
	return nil
}

// SetGetError makes every following Get fail with err. Pass nil to clear.
func (t *TestTransport) SetGetError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.getErr = err
}

func (t *TestTransport) RecordedPuts() []RecordedPut {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]RecordedPut, len(t.puts))
	copy(out, t.puts)
	return out
}
