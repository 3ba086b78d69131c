package objectstore

import (
	"io"
	"time"
)

// ObjectInfo describes a single stored object.
type ObjectInfo struct {
	// URI is the full address of the object.
	URI URI

	// Size is the byte size of the object. -1 if unknown.
	Size int64

	// ContentType is the MIME type reported by the store.
	ContentType string

	// ETag is the object's entity tag, as returned by the store.
	ETag string

	// LastModified is when the object was last written.
	LastModified time.Time
}

// Object is a streaming handle to an object's content.
// The caller MUST call Close() after reading to avoid resource leaks.
type Object interface {
	io.ReadCloser

	// Info returns the metadata for this object.
	Info() *ObjectInfo
}

// NewObject pairs a body with its metadata. Drivers use it to build an Object.
func NewObject(body io.ReadCloser, info *ObjectInfo) Object {
	return &object{ReadCloser: body, info: info}
}

type object struct {
	io.ReadCloser
	info *ObjectInfo
}

func (o *object) Info() *ObjectInfo {
	return o.info
}
