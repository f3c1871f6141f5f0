package interfaces

import (
	"context"
	"io"
)

// PhotoStore serves and stores student photographs. Open falls back to the
// default photo when the student has none.
type PhotoStore interface {
	Open(ctx context.Context, studentID string) (io.ReadCloser, error)
	Save(ctx context.Context, studentID string, body io.Reader) error
}
