package objectstore

import (
	"fmt"
	"strings"
)

// Supported object storage schemes.
const (
	SchemeGCS = "gs"
	SchemeS3  = "s3"
)

// URI is a parsed object reference of the form scheme://bucket/key.
type URI struct {
	Scheme string
	Bucket string
	Key    string
}

// String renders the URI.
func (u URI) String() string {
	return fmt.Sprintf("%s://%s/%s", u.Scheme, u.Bucket, u.Key)
}

// ParseURI splits an object URI into scheme, bucket and key.
func ParseURI(raw string) (URI, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return URI{}, fmt.Errorf("object uri %q: missing scheme", raw)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return URI{}, fmt.Errorf("object uri %q: missing bucket", raw)
	}

	return URI{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

// IsObjectURI reports whether raw points into a supported object store.
func IsObjectURI(raw string) bool {
	return strings.HasPrefix(raw, SchemeGCS+"://") || strings.HasPrefix(raw, SchemeS3+"://")
}

// Join appends path elements to a base URI with single slashes.
func Join(base string, elems ...string) string {
	out := strings.TrimRight(base, "/")
	for _, e := range elems {
		e = strings.Trim(e, "/")
		if e == "" {
			continue
		}
		out += "/" + e
	}
	return out
}
