package processing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientmodels "docuflow/internal/client/models"
	clientservice "docuflow/internal/client/service"
	clientstore "docuflow/internal/client/store"
	"docuflow/internal/docstore"
	"docuflow/internal/forwarding"
	"docuflow/internal/intake"
	"docuflow/internal/platform/kafka/consumer"
	"docuflow/internal/processing"
	"docuflow/internal/processing/matching"
	reqservice "docuflow/internal/requirement/service"
	reqstore "docuflow/internal/requirement/store"
	id "docuflow/pkg/domain"
)

func newTestHandler(t *testing.T) (*processing.Handler, *forwarding.Recorder) {
	t.Helper()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	clients := clientstore.NewInMemory()
	client, err := clientmodels.NewClient(id.NewClientID(), "Acme Corp", "compliance@acme.test", []string{"reports@acme.test"}, now)
	require.NoError(t, err)
	require.NoError(t, clients.CreateIfEmailAvailable(ctx, client))

	recorder := forwarding.NewRecorder()
	proc := processing.New(
		clientservice.New(clients),
		reqservice.New(reqstore.NewInMemory(), clients, stubDocTypes{}),
		matching.NewEarliestDue(),
		docstore.NewInMemory(),
		recorder,
	)
	return processing.NewHandler(proc, nil), recorder
}

func TestHandleMalformedRecordCommits(t *testing.T) {
	handler, _ := newTestHandler(t)

	err := handler.Handle(context.Background(), &consumer.Message{
		Topic: "docuflow.intake.mail",
		Key:   []byte("msg-1"),
		Value: []byte("{not json"),
	})
	assert.NoError(t, err, "malformed records must not wedge the partition")
}

func TestHandleMissingSenderCommits(t *testing.T) {
	handler, _ := newTestHandler(t)

	msg := &intake.Message{Subject: "no sender"}
	data, err := msg.Encode()
	require.NoError(t, err)

	err = handler.Handle(context.Background(), &consumer.Message{Key: []byte("msg-2"), Value: data})
	assert.NoError(t, err)
}

func TestHandleUnknownSenderCommits(t *testing.T) {
	handler, recorder := newTestHandler(t)

	msg := &intake.Message{From: "stranger@elsewhere.test", Subject: "hello"}
	data, err := msg.Encode()
	require.NoError(t, err)

	err = handler.Handle(context.Background(), &consumer.Message{Key: []byte("msg-3"), Value: data})
	assert.NoError(t, err)
	assert.Empty(t, recorder.Sent())
}
