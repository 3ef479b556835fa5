package blob

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreUpload(t *testing.T) {
	store := NewMemoryStore("https://files.test/")
	owner := uuid.New()

	url, err := store.Upload(context.Background(), owner, "/passport/scan.pdf", []byte("pdf"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://files.test/"+owner.String()+"/passport/scan.pdf", url)

	data, ok := store.Object(owner.String() + "/passport/scan.pdf")
	require.True(t, ok)
	assert.Equal(t, []byte("pdf"), data)
}

func TestMemoryStoreRejectsEmptyAndCancelled(t *testing.T) {
	store := NewMemoryStore("")

	_, err := store.Upload(context.Background(), uuid.New(), "k", nil, "")
	assert.ErrorIs(t, err, ErrEmptyObject)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Upload(ctx, uuid.New(), "k", []byte("x"), "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.Len())
}

func TestDocumentKeyStripsDirectories(t *testing.T) {
	key := DocumentKey("passport", `..\..\etc/passwd`)
	assert.True(t, strings.HasPrefix(key, "passport/"))
	assert.True(t, strings.HasSuffix(key, "-passwd"))
	assert.NotContains(t, key, "..")
}
