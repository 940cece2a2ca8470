package domain

import "context"

// BlobWriter writes serialized objects to blob storage.
type BlobWriter interface {
	Write(ctx context.Context, key string, data []byte, contentType string) error
}

// BlobReader reads objects back from blob storage.
type BlobReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Archiver snapshots resolved markets into long-term blob storage.
type Archiver interface {
	ArchiveResolved(ctx context.Context, market Market, finalOdds []float64) error
}
