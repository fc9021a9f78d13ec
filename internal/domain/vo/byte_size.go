package vo

import (
	"errors"

	"github.com/dustin/go-humanize"
)

// ByteSize represents a byte count value object.
// It provides type-safe conversions and human-readable formatting.
type ByteSize struct {
	bytes int64
}

const (
	KB int64 = 1024
	MB int64 = 1024 * KB
	GB int64 = 1024 * MB
)

var (
	ErrNegativeSize = errors.New("byte size cannot be negative")
)

// NewByteSize creates a new ByteSize value object.
func NewByteSize(bytes int64) (ByteSize, error) {
	if bytes < 0 {
		return ByteSize{}, ErrNegativeSize
	}
	return ByteSize{bytes: bytes}, nil
}

// MustByteSize creates a new ByteSize, panicking if invalid.
func MustByteSize(bytes int64) ByteSize {
	bs, err := NewByteSize(bytes)
	if err != nil {
		panic(err)
	}
	return bs
}

// ByteSizeFromGB creates a ByteSize from gibibytes.
func ByteSizeFromGB(gb float64) ByteSize {
	return ByteSize{bytes: int64(gb * float64(GB))}
}

// Bytes returns the size in bytes.
func (bs ByteSize) Bytes() int64 {
	return bs.bytes
}

// GB returns the size in gibibytes.
func (bs ByteSize) GB() float64 {
	return float64(bs.bytes) / float64(GB)
}

// MB returns the size in mebibytes.
func (bs ByteSize) MB() float64 {
	return float64(bs.bytes) / float64(MB)
}

// String returns a human-readable representation, e.g. "1.2 GiB".
func (bs ByteSize) String() string {
	return humanize.IBytes(uint64(bs.bytes))
}

// LessThan reports whether this size is strictly smaller than other.
func (bs ByteSize) LessThan(other ByteSize) bool {
	return bs.bytes < other.bytes
}
