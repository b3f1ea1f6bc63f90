package domain

import (
	"context"
	"io"
	"time"
)

// StoredImage describes one file held by an ImageStore.
type StoredImage struct {
	Ref     string
	ModTime time.Time
}

// ImageStore keeps uploaded event images and hands back the reference saved on the event.
type ImageStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	Remove(ctx context.Context, ref string) error
	List(ctx context.Context) ([]StoredImage, error)
	// Key normalizes a reference so differently written references to one file compare equal.
	// ok is false when ref does not point into the store.
	Key(ref string) (key string, ok bool)
}
