// Package blob stores opaque document bytes and hands back their URLs.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

//go:generate mockgen -source=blob.go -destination=mocks/mocks.go -package=mocks Store

var ErrEmptyObject = errors.New("blob: object is empty")

// Store is the external blob collaborator.
type Store interface {
	// Upload writes data under ownerID/key and returns its public URL.
	Upload(ctx context.Context, ownerID uuid.UUID, key string, data []byte, contentType string) (string, error)
	PublicURL(key string) string
}

// ObjectKey builds the storage path of an owner's object.
func ObjectKey(ownerID uuid.UUID, key string) string {
	return path.Join(ownerID.String(), strings.TrimLeft(key, "/"))
}

// DocumentKey names an uploaded file so repeated uploads never collide.
func DocumentKey(docType, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s/%s-%s", docType, uuid.NewString(), base)
}
