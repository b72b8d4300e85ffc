package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/xaionaro-go/voicecapture/pkg/format"
)

// Memory is a Store that lives in memory only.
type Memory struct {
	locker sync.Mutex
	record *format.Blob
	closed bool
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(ctx context.Context, blob format.Blob) (string, error) {
	m.locker.Lock()
	defer m.locker.Unlock()
	if m.closed {
		return "", fmt.Errorf("%w: closed", ErrStoreUnavailable)
	}
	m.record = &format.Blob{
		MimeType: blob.MimeType,
		Data:     append([]byte{}, blob.Data...),
	}
	return RecordID, nil
}

func (m *Memory) Get(ctx context.Context, id string) (*format.Blob, error) {
	m.locker.Lock()
	defer m.locker.Unlock()
	if m.closed {
		return nil, fmt.Errorf("%w: closed", ErrStoreUnavailable)
	}
	if id != RecordID || m.record == nil {
		return nil, nil
	}
	return &format.Blob{
		MimeType: m.record.MimeType,
		Data:     append([]byte{}, m.record.Data...),
	}, nil
}

func (m *Memory) Close() error {
	m.locker.Lock()
	defer m.locker.Unlock()
	m.closed = true
	m.record = nil
	return nil
}
