//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// FileObject describes one object in the knowledge-base bucket.
type FileObject struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// ValidateObjectKey rejects keys that would escape the bucket namespace or
// collide with path handling in the HTTP layer.
func ValidateObjectKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("object key is required")
	}
	if strings.HasPrefix(key, "/") {
		return errors.New("object key must not start with '/'")
	}
	for _, part := range strings.Split(key, "/") {
		if part == "." || part == ".." {
			return errors.New("object key must not contain path traversal segments")
		}
	}
	return nil
}
