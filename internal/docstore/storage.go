// Package docstore is the document storage gateway: attachment bytes go in,
// an opaque tracking id comes out. Retention and access control live behind
// the interface.
package docstore

import (
	"context"
	"io"
	"time"

	id "docuflow/pkg/domain"
)

// URLValidity is how long a temporary access URL stays usable.
const URLValidity = 15 * time.Minute

// Storage persists attachment content.
//
// Upload returns an opaque blob id; any transport or storage fault surfaces
// as a CodeUploadFailed error. TemporaryURL returns a short-lived access URL
// for an existing blob.
type Storage interface {
	Upload(ctx context.Context, content io.Reader, filename string, clientID id.ClientID, requirementID id.RequirementID) (string, error)
	TemporaryURL(ctx context.Context, blobID string) (string, error)
}
