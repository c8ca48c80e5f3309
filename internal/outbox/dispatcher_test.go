package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"imageserver/internal/config"
	"imageserver/internal/events"
	"imageserver/internal/models"
	"imageserver/internal/outbox"
	"imageserver/internal/repository/repositorytest"
	"imageserver/internal/service"
)

type recordingPublisher struct {
	topics   []string
	payloads []any
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload any) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func newDispatcherFixture(pub *recordingPublisher) (*repositorytest.FakeStore, *outbox.Dispatcher) {
	st := repositorytest.NewFakeStore()
	txm := repositorytest.NewFakeTxManager(st)
	sequences := service.NewSequenceService(txm, zerolog.Nop())
	cfg := config.OutboxConfig{PollInterval: time.Second, BatchSize: 50}
	return st, outbox.NewDispatcher(txm, sequences, pub, cfg, zerolog.Nop())
}

func appendBatchEvent(t *testing.T, st *repositorytest.FakeStore, id, referenceID, typeCode string, imageIDs []string) {
	t.Helper()
	items := make([]events.SequencedItem, 0, len(imageIDs))
	for i, imgID := range imageIDs {
		items = append(items, events.SequencedItem{ImageID: imgID, ReferenceID: referenceID, SequenceNumber: i})
	}
	payload, err := json.Marshal(events.ImagesChanged{ReferenceID: referenceID, Items: items})
	require.NoError(t, err)
	st.Outbox = append(st.Outbox, models.OutboxEvent{
		ID:          id,
		ReferenceID: referenceID,
		TypeCode:    typeCode,
		Kind:        models.OutboxImagesChanged,
		Payload:     payload,
		CreatedAt:   time.Now(),
	})
}

func TestDispatchRebuildsSequencesAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	st, d := newDispatcherFixture(pub)
	appendBatchEvent(t, st, "ev-1", "prod-1", "PRODUCT", []string{"img-z", "img-x"})

	require.NoError(t, d.Dispatch(context.Background()))

	require.Equal(t, []string{"img-z", "img-x"}, st.Sequences["prod-1"])
	require.Equal(t, []string{"product-image-changed"}, pub.topics)
	require.NotNil(t, st.Outbox[0].ProcessedAt)
}

func TestDispatchSingleImageEvent(t *testing.T) {
	pub := &recordingPublisher{}
	st, d := newDispatcherFixture(pub)

	payload, err := json.Marshal(events.ImageChanged{ReferenceID: "user-7", ImageID: "img-1", ImageURL: "u"})
	require.NoError(t, err)
	st.Outbox = append(st.Outbox, models.OutboxEvent{
		ID:          "ev-1",
		ReferenceID: "user-7",
		TypeCode:    "PROFILE",
		Kind:        models.OutboxImageChanged,
		Payload:     payload,
		CreatedAt:   time.Now(),
	})

	require.NoError(t, d.Dispatch(context.Background()))

	require.Equal(t, []string{"img-1"}, st.Sequences["user-7"])
	require.Equal(t, []string{"profile-image-changed"}, pub.topics)
}

func TestDispatchDetachmentClearsSequences(t *testing.T) {
	pub := &recordingPublisher{}
	st, d := newDispatcherFixture(pub)
	st.Sequences["prod-1"] = []string{"img-a", "img-b"}
	appendBatchEvent(t, st, "ev-1", "prod-1", "PRODUCT", nil)

	require.NoError(t, d.Dispatch(context.Background()))

	require.NotContains(t, st.Sequences, "prod-1")
	require.Len(t, pub.topics, 1)
}

func TestDispatchMarksProcessedDespitePublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker unreachable")}
	st, d := newDispatcherFixture(pub)
	appendBatchEvent(t, st, "ev-1", "prod-1", "PRODUCT", []string{"img-a"})

	require.NoError(t, d.Dispatch(context.Background()))

	// Sequencing happened and the event does not retry forever.
	require.Equal(t, []string{"img-a"}, st.Sequences["prod-1"])
	require.NotNil(t, st.Outbox[0].ProcessedAt)
}

func TestDispatchSkipsUndecodablePayload(t *testing.T) {
	pub := &recordingPublisher{}
	st, d := newDispatcherFixture(pub)
	st.Outbox = append(st.Outbox, models.OutboxEvent{
		ID:          "ev-bad",
		ReferenceID: "prod-1",
		TypeCode:    "PRODUCT",
		Kind:        models.OutboxImagesChanged,
		Payload:     []byte("{not json"),
		CreatedAt:   time.Now(),
	})
	appendBatchEvent(t, st, "ev-good", "prod-2", "PRODUCT", []string{"img-a"})

	require.NoError(t, d.Dispatch(context.Background()))

	require.NotNil(t, st.Outbox[0].ProcessedAt)
	require.NotNil(t, st.Outbox[1].ProcessedAt)
	require.Equal(t, []string{"product-image-changed"}, pub.topics)
}

func TestDispatchProcessesInCreationOrder(t *testing.T) {
	pub := &recordingPublisher{}
	st, d := newDispatcherFixture(pub)
	appendBatchEvent(t, st, "ev-1", "prod-1", "PRODUCT", []string{"img-a"})
	appendBatchEvent(t, st, "ev-2", "prod-1", "PRODUCT", []string{"img-b", "img-a"})

	require.NoError(t, d.Dispatch(context.Background()))

	// The later event wins the final sequence state.
	require.Equal(t, []string{"img-b", "img-a"}, st.Sequences["prod-1"])
	require.Len(t, pub.topics, 2)
}
