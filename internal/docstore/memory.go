package docstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
	"docuflow/pkg/requestcontext"
)

// InMemory stores blobs in a map, keyed {clientID}/{requirementID}/{filename}.
// Re-uploading the same filename for the same requirement overwrites.
type InMemory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{blobs: make(map[string][]byte)}
}

func (s *InMemory) Upload(ctx context.Context, content io.Reader, filename string, clientID id.ClientID, requirementID id.RequirementID) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUploadFailed, "read attachment content")
	}
	blobID := fmt.Sprintf("%s/%s/%s", clientID, requirementID, filename)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[blobID] = data
	return blobID, nil
}

func (s *InMemory) TemporaryURL(ctx context.Context, blobID string) (string, error) {
	s.mu.RLock()
	_, ok := s.blobs[blobID]
	s.mu.RUnlock()
	if !ok {
		return "", dErrors.Newf(dErrors.CodeNotFound, "blob %q not found", blobID)
	}
	expires := requestcontext.Now(ctx).Add(URLValidity)
	return fmt.Sprintf("memory://blobs/%s?expires=%d", url.PathEscape(blobID), expires.Unix()), nil
}

// Get returns stored blob content, for tests.
func (s *InMemory) Get(blobID string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[blobID]
	return data, ok
}

// Len reports the number of stored blobs, for tests.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
