package docstore

import (
	"context"
	"io"
	"math/rand"
	"sync"

	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
)

// Flaky wraps a Storage and fails a configurable fraction of uploads with a
// CodeUploadFailed error. The random source is injected so tests seed it and
// get a reproducible failure sequence.
type Flaky struct {
	inner       Storage
	failureRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewFlaky(inner Storage, failureRate float64, rng *rand.Rand) *Flaky {
	return &Flaky{inner: inner, failureRate: failureRate, rng: rng}
}

func (f *Flaky) Upload(ctx context.Context, content io.Reader, filename string, clientID id.ClientID, requirementID id.RequirementID) (string, error) {
	if f.roll() {
		return "", dErrors.Newf(dErrors.CodeUploadFailed, "simulated storage fault uploading %q", filename)
	}
	return f.inner.Upload(ctx, content, filename, clientID, requirementID)
}

func (f *Flaky) TemporaryURL(ctx context.Context, blobID string) (string, error) {
	return f.inner.TemporaryURL(ctx, blobID)
}

func (f *Flaky) roll() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.Float64() < f.failureRate
}
