package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mock-interview/backend/internal/client"
	"github.com/zhouzirui/mock-interview/backend/internal/service/encoder"
)

type fakeStream struct {
	chunks chan []byte
	closed int
	mu     sync.Mutex
}

func (s *fakeStream) Chunks() <-chan []byte { return s.chunks }

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeStream) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeMic struct {
	stream *fakeStream
	err    error
	opened int
}

func (m *fakeMic) Open(context.Context) (CaptureStream, error) {
	m.opened++
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

type fakeExchanger struct {
	greeting   string
	greetErr   error
	answer     string
	question   string
	askErr     error
	block      bool
	gotAudio   []byte
	gotMime    string
	gotSession string
}

func (f *fakeExchanger) Greet(_ context.Context, sessionID string) (*client.Reply, error) {
	f.gotSession = sessionID
	if f.greetErr != nil {
		return nil, f.greetErr
	}
	payload, _ := encoder.Encode(f.greeting)
	return &client.Reply{Answer: f.greeting, AudioURL: payload}, nil
}

func (f *fakeExchanger) Ask(ctx context.Context, sessionID string, audio []byte, mimeType string) (*client.Reply, error) {
	f.gotSession = sessionID
	f.gotMime = mimeType
	f.gotAudio = append([]byte(nil), audio...)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.askErr != nil {
		return nil, f.askErr
	}
	q := f.question
	payload, _ := encoder.Encode(f.answer)
	return &client.Reply{Question: &q, Answer: f.answer, AudioURL: payload, SessionID: sessionID}, nil
}

type fakeSpeaker struct {
	mu     sync.Mutex
	spoken []string
	err    error
	during []State
	rec    *Recorder
}

func (s *fakeSpeaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	if s.rec != nil {
		s.during = append(s.during, s.rec.State())
	}
	return s.err
}

func newFixture(t *testing.T) (*Recorder, *fakeMic, *fakeExchanger, *fakeSpeaker) {
	t.Helper()
	mic := &fakeMic{stream: &fakeStream{chunks: make(chan []byte, 8)}}
	ex := &fakeExchanger{greeting: "Hello!", question: "Why Go?", answer: "Simplicity."}
	sp := &fakeSpeaker{}
	rec := New(mic, ex, sp, WithSessionID("s1"), WithRequestTimeout(time.Second))
	sp.rec = rec
	return rec, mic, ex, sp
}

func TestBootSpeaksGreetingAndStaysIdle(t *testing.T) {
	rec, _, ex, sp := newFixture(t)

	var states []State
	rec.OnStateChange(func(s State) { states = append(states, s) })

	rec.Boot(context.Background())

	assert.Equal(t, "s1", ex.gotSession)
	assert.Equal(t, []string{"Hello!"}, sp.spoken)
	assert.Equal(t, []State{StateSpeaking}, sp.during)
	assert.Equal(t, []State{StateSpeaking, StateIdle}, states)
	assert.Equal(t, StateIdle, rec.State())
	assert.Equal(t, []Exchange{{Answer: "Hello!"}}, rec.Transcript())
}

func TestBootFailureIsLoggedOnly(t *testing.T) {
	rec, _, ex, sp := newFixture(t)
	ex.greetErr = errors.New("server down")

	rec.Boot(context.Background())

	assert.Empty(t, sp.spoken)
	assert.Equal(t, StateIdle, rec.State())
	assert.Empty(t, rec.Transcript())
}

func TestFullExchange(t *testing.T) {
	rec, mic, ex, sp := newFixture(t)

	var states []State
	rec.OnStateChange(func(s State) { states = append(states, s) })

	require.NoError(t, rec.Start(context.Background()))
	assert.Equal(t, StateListening, rec.State())

	mic.stream.chunks <- []byte("ab")
	mic.stream.chunks <- []byte("cd")

	exchange, err := rec.Stop(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "abcd", string(ex.gotAudio))
	assert.Equal(t, 1, mic.stream.closeCount())
	assert.Equal(t, &Exchange{Question: "Why Go?", Answer: "Simplicity."}, exchange)
	assert.Equal(t, []string{"Simplicity."}, sp.spoken)
	assert.Equal(t, []State{StateSpeaking}, sp.during)
	assert.Equal(t, StateIdle, rec.State())
	assert.Equal(t, []State{StateListening, StateThinking, StateSpeaking, StateIdle}, states)
}

func TestFailedExchangeReturnsToIdleWithoutSpeaking(t *testing.T) {
	rec, mic, ex, sp := newFixture(t)
	ex.askErr = &client.Error{Status: 500, Message: "No text transcribed from audio"}

	var states []State
	rec.OnStateChange(func(s State) { states = append(states, s) })

	require.NoError(t, rec.Start(context.Background()))
	_, err := rec.Stop(context.Background())

	var apiErr *client.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "No text transcribed from audio", apiErr.Message)
	assert.Empty(t, sp.spoken)
	assert.Equal(t, 1, mic.stream.closeCount())
	assert.Equal(t, StateIdle, rec.State())
	assert.Equal(t, []State{StateListening, StateThinking, StateIdle}, states)
}

func TestRequestTimeoutReturnsToIdle(t *testing.T) {
	mic := &fakeMic{stream: &fakeStream{chunks: make(chan []byte, 1)}}
	ex := &fakeExchanger{block: true}
	rec := New(mic, ex, &fakeSpeaker{}, WithRequestTimeout(20*time.Millisecond))

	require.NoError(t, rec.Start(context.Background()))
	_, err := rec.Stop(context.Background())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateIdle, rec.State())
}

func TestSpeakerErrorCountsAsCompletion(t *testing.T) {
	rec, _, _, sp := newFixture(t)
	sp.err = errors.New("no audio device")

	require.NoError(t, rec.Start(context.Background()))
	_, err := rec.Stop(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateIdle, rec.State())
}

func TestMicrophoneFailure(t *testing.T) {
	rec, mic, _, _ := newFixture(t)
	mic.err = errors.New("permission denied")

	err := rec.Start(context.Background())

	require.ErrorIs(t, err, ErrMicrophone)
	assert.Contains(t, err.Error(), MicrophoneDeniedMessage)
	assert.Equal(t, StateIdle, rec.State())
}

func TestNoReentrantStart(t *testing.T) {
	rec, mic, _, _ := newFixture(t)

	require.NoError(t, rec.Start(context.Background()))
	assert.ErrorIs(t, rec.Start(context.Background()), ErrInvalidTransition)
	assert.Equal(t, 1, mic.opened)

	_, err := rec.Stop(context.Background())
	require.NoError(t, err)
}

func TestStopWhenIdle(t *testing.T) {
	rec, _, _, _ := newFixture(t)

	_, err := rec.Stop(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGeneratedSessionID(t *testing.T) {
	rec := New(&fakeMic{}, &fakeExchanger{}, &fakeSpeaker{})
	assert.Len(t, rec.SessionID(), 36)
}

type typedStream struct {
	fakeStream
}

func (*typedStream) MimeType() string { return "audio/ogg" }

func TestStreamMimeTypeOverridesDefault(t *testing.T) {
	stream := &typedStream{fakeStream{chunks: make(chan []byte, 1)}}
	ex := &fakeExchanger{question: "q", answer: "a"}
	mic := micFunc(func(context.Context) (CaptureStream, error) { return stream, nil })
	rec := New(mic, ex, &fakeSpeaker{})

	require.NoError(t, rec.Start(context.Background()))
	_, err := rec.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "audio/ogg", ex.gotMime)
}

type micFunc func(context.Context) (CaptureStream, error)

func (f micFunc) Open(ctx context.Context) (CaptureStream, error) { return f(ctx) }

type blockingSpeaker struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSpeaker) Speak(context.Context, string) error {
	close(s.entered)
	<-s.release
	return nil
}

func TestStartRejectedWhileGreetingPlays(t *testing.T) {
	mic := &fakeMic{stream: &fakeStream{chunks: make(chan []byte, 1)}}
	sp := &blockingSpeaker{entered: make(chan struct{}), release: make(chan struct{})}
	rec := New(mic, &fakeExchanger{greeting: "Hello!"}, sp)

	booted := make(chan struct{})
	go func() {
		rec.Boot(context.Background())
		close(booted)
	}()
	<-sp.entered

	assert.Equal(t, StateSpeaking, rec.State())
	assert.ErrorIs(t, rec.Start(context.Background()), ErrInvalidTransition)
	_, err := rec.Stop(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 0, mic.opened)

	close(sp.release)
	<-booted

	assert.Equal(t, StateIdle, rec.State())
	require.NoError(t, rec.Start(context.Background()))
	assert.Equal(t, StateListening, rec.State())
}

type pendingMic struct {
	requested chan struct{}
	grant     chan error
	stream    *fakeStream
}

func (m *pendingMic) Open(context.Context) (CaptureStream, error) {
	close(m.requested)
	if err := <-m.grant; err != nil {
		return nil, err
	}
	return m.stream, nil
}

func TestStateReadableWhileMicrophonePending(t *testing.T) {
	mic := &pendingMic{
		requested: make(chan struct{}),
		grant:     make(chan error, 1),
		stream:    &fakeStream{chunks: make(chan []byte, 1)},
	}
	rec := New(mic, &fakeExchanger{}, &fakeSpeaker{})

	started := make(chan error, 1)
	go func() { started <- rec.Start(context.Background()) }()
	<-mic.requested

	read := make(chan State, 1)
	go func() { read <- rec.State() }()
	select {
	case s := <-read:
		assert.Equal(t, StateIdle, s)
	case <-time.After(time.Second):
		t.Fatal("State blocked while microphone permission pending")
	}

	assert.Empty(t, rec.Transcript())
	assert.ErrorIs(t, rec.Start(context.Background()), ErrInvalidTransition)
	_, err := rec.Stop(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	mic.grant <- nil
	require.NoError(t, <-started)
	assert.Equal(t, StateListening, rec.State())
}

func TestMicrophoneDeniedAfterPendingClearsFlag(t *testing.T) {
	mic := &pendingMic{
		requested: make(chan struct{}),
		grant:     make(chan error, 1),
	}
	rec := New(mic, &fakeExchanger{}, &fakeSpeaker{})

	mic.grant <- errors.New("denied")
	require.ErrorIs(t, rec.Start(context.Background()), ErrMicrophone)
	assert.Equal(t, StateIdle, rec.State())

	// 再次 Start 应该重新请求麦克风，而不是被视为忙碌
	mic.requested = make(chan struct{})
	mic.grant <- errors.New("denied again")
	assert.ErrorIs(t, rec.Start(context.Background()), ErrMicrophone)
}
