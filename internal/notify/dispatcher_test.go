package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studia-dev/classhub-api/pkg/jobs"
	"github.com/studia-dev/classhub-api/pkg/mail"
)

type stubMailer struct {
	mu       sync.Mutex
	sent     []mail.Message
	failWith error
	notify   chan struct{}
}

func (m *stubMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, msg)
	if m.notify != nil {
		m.notify <- struct{}{}
	}
	return nil
}

func (m *stubMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

type stubRecorder struct {
	mu        sync.Mutex
	delivered map[string]int
	failed    map[string]int
}

func newStubRecorder() *stubRecorder {
	return &stubRecorder{delivered: map[string]int{}, failed: map[string]int{}}
}

func (r *stubRecorder) RecordNotification(event string, delivered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if delivered {
		r.delivered[event]++
	} else {
		r.failed[event]++
	}
}

func gradedJob() jobs.Job {
	event := baseEvent(EventSubmissionGraded)
	event.Submission = gradedDetail(14)
	return jobs.Job{ID: "j1", Type: string(event.Type), Payload: event}
}

func TestHandleSendsEveryMessage(t *testing.T) {
	mailer := &stubMailer{}
	recorder := newStubRecorder()
	d := NewDispatcher(mailer, nil, DispatcherConfig{SiteURL: "https://classhub.example.edu", Recorder: recorder})

	err := d.handle(context.Background(), gradedJob())
	require.NoError(t, err)

	sent := mailer.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, 2, recorder.delivered["submission.graded"])
	assert.Empty(t, recorder.failed)
}

func TestHandleSwallowsSendFailures(t *testing.T) {
	mailer := &stubMailer{failWith: errors.New("smtp down")}
	recorder := newStubRecorder()
	d := NewDispatcher(mailer, nil, DispatcherConfig{Recorder: recorder})

	// A failed delivery must never surface as a job error, otherwise the
	// queue would retry and a later success could double-send.
	err := d.handle(context.Background(), gradedJob())
	require.NoError(t, err)
	assert.Equal(t, 2, recorder.failed["submission.graded"])
	assert.Empty(t, recorder.delivered)
}

func TestHandleIgnoresForeignPayload(t *testing.T) {
	mailer := &stubMailer{}
	d := NewDispatcher(mailer, nil, DispatcherConfig{})

	err := d.handle(context.Background(), jobs.Job{ID: "j1", Type: "garbage", Payload: "not an event"})
	require.NoError(t, err)
	assert.Empty(t, mailer.messages())
}

func TestEmitBeforeStartIsDropped(t *testing.T) {
	mailer := &stubMailer{}
	d := NewDispatcher(mailer, nil, DispatcherConfig{})

	event := baseEvent(EventMembershipCreated)
	assert.NotPanics(t, func() { d.Emit(event) })
	assert.Empty(t, mailer.messages())
}

func TestDispatcherRoundTrip(t *testing.T) {
	mailer := &stubMailer{notify: make(chan struct{}, 4)}
	d := NewDispatcher(mailer, nil, DispatcherConfig{Workers: 2, BufferSize: 4, SiteURL: "https://classhub.example.edu"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	event := baseEvent(EventMembershipCreated)
	event.Student = gradedDetail(14).Participants()[0]
	d.Emit(event)

	select {
	case <-mailer.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("notification was never delivered")
	}

	sent := mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Welcome to Web Engineering!", sent[0].Subject)
}
