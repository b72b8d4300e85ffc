// Package store keeps the latest recording on the local machine.
//
// A store holds at most one record: every Save replaces whatever was
// stored before, under the fixed RecordID.
package store

import (
	"context"
	"errors"
	"io"

	"github.com/xaionaro-go/voicecapture/pkg/format"
)

const (
	// RecordID is the id the single record is stored under.
	RecordID = "audioFile"

	// SchemaVersion is the version of the persistent layout this package
	// reads and writes.
	SchemaVersion = 1
)

// ErrStoreUnavailable means the store cannot be opened, is closed or its
// layout is not the expected one. It is not worth retrying.
var ErrStoreUnavailable = errors.New("the audio store is unavailable")

type Store interface {
	io.Closer

	// Save replaces the stored record with blob and returns its id.
	Save(ctx context.Context, blob format.Blob) (string, error)

	// Get returns the stored blob if id is the id of the stored record,
	// and nil (without an error) otherwise.
	Get(ctx context.Context, id string) (*format.Blob, error)
}
