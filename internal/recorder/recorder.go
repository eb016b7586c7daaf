package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/mock-interview/backend/internal/client"
)

// MicrophoneDeniedMessage is shown when capture cannot start.
const MicrophoneDeniedMessage = "Microphone access denied. Please enable microphone permissions."

// ErrMicrophone wraps every capture acquisition failure.
var ErrMicrophone = errors.New(MicrophoneDeniedMessage)

const defaultRequestTimeout = 60 * time.Second

// CaptureStream is an open capture session. Close releases the device.
type CaptureStream interface {
	Chunks() <-chan []byte
	Close() error
}

// mimeTyper is implemented by streams that know their container format.
type mimeTyper interface {
	MimeType() string
}

// Microphone acquires capture streams.
type Microphone interface {
	Open(ctx context.Context) (CaptureStream, error)
}

// Exchanger sends greetings and recorded questions to the server.
type Exchanger interface {
	Greet(ctx context.Context, sessionID string) (*client.Reply, error)
	Ask(ctx context.Context, sessionID string, audio []byte, mimeType string) (*client.Reply, error)
}

// Speaker renders answer text as speech.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Exchange is one entry of the client-side transcript. Question is empty for the greeting.
type Exchange struct {
	Question string
	Answer   string
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithSessionID pins the session id instead of generating one.
func WithSessionID(id string) Option {
	return func(r *Recorder) { r.sessionID = id }
}

// WithRequestTimeout bounds each server round trip.
func WithRequestTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.requestTimeout = d
		}
	}
}

// WithMimeType sets the content type of uploaded recordings.
func WithMimeType(mimeType string) Option {
	return func(r *Recorder) { r.mimeType = mimeType }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Recorder runs the idle → listening → thinking → speaking loop.
type Recorder struct {
	mic       Microphone
	exchanger Exchanger
	speaker   Speaker

	sessionID      string
	mimeType       string
	requestTimeout time.Duration
	logger         *zap.Logger

	mu         sync.Mutex
	state      State
	booting    bool // 开场问候进行中
	greeting   bool // 正在朗读问候语
	starting   bool // 等待麦克风授权
	transcript []Exchange
	observers  []func(State)
	capture    *capture
}

type capture struct {
	stream CaptureStream
	stop   chan struct{}
	done   chan struct{}
	buf    bytes.Buffer
}

// New creates a recorder in the idle state.
func New(mic Microphone, exchanger Exchanger, speaker Speaker, opts ...Option) *Recorder {
	r := &Recorder{
		mic:            mic,
		exchanger:      exchanger,
		speaker:        speaker,
		mimeType:       "audio/webm",
		requestTimeout: defaultRequestTimeout,
		logger:         zap.NewNop(),
		state:          StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sessionID == "" {
		r.sessionID = uuid.NewString()
	}
	return r
}

// SessionID returns the id sent with every request.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// State returns the current state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.greeting {
		return StateSpeaking
	}
	return r.state
}

// Transcript returns a copy of the exchanges so far.
func (r *Recorder) Transcript() []Exchange {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Exchange, len(r.transcript))
	copy(out, r.transcript)
	return out
}

// OnStateChange registers an observer called after every transition.
func (r *Recorder) OnStateChange(fn func(State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Boot greets the interviewer. Failures are logged and the recorder stays idle.
// Start and Stop are rejected until Boot returns.
func (r *Recorder) Boot(ctx context.Context) {
	r.mu.Lock()
	if r.state != StateIdle || r.busyLocked() {
		r.mu.Unlock()
		return
	}
	r.booting = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.booting = false
		r.mu.Unlock()
	}()

	reqCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	reply, err := r.exchanger.Greet(reqCtx, r.sessionID)
	cancel()
	if err != nil {
		r.logger.Warn("greeting failed", zap.String("session", r.sessionID), zap.Error(err))
		return
	}

	text, err := reply.SpeechText()
	if err != nil {
		r.logger.Warn("greeting payload invalid", zap.String("session", r.sessionID), zap.Error(err))
		return
	}

	r.mu.Lock()
	r.transcript = append(r.transcript, Exchange{Answer: reply.Answer})
	r.mu.Unlock()

	r.setGreeting(true)
	r.speak(ctx, text)
	r.setGreeting(false)
}

// Start acquires the microphone and begins buffering audio.
// The lock is not held while waiting for the microphone.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.busyLocked() {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s while busy", ErrInvalidTransition, EventStart)
	}
	if _, err := Next(r.state, EventStart); err != nil {
		r.mu.Unlock()
		return err
	}
	r.starting = true
	r.mu.Unlock()

	stream, err := r.mic.Open(ctx)

	r.mu.Lock()
	r.starting = false
	if err != nil {
		r.mu.Unlock()
		r.logger.Warn("microphone unavailable", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrMicrophone, err)
	}

	c := &capture{
		stream: stream,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go c.collect()
	r.capture = c

	notify := r.transitionLocked(EventStart)
	r.mu.Unlock()
	notify()
	return nil
}

// Stop uploads the recording, speaks the answer and returns to idle.
func (r *Recorder) Stop(ctx context.Context) (*Exchange, error) {
	r.mu.Lock()
	if r.busyLocked() {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s while busy", ErrInvalidTransition, EventStop)
	}
	if _, err := Next(r.state, EventStop); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	c := r.capture
	r.capture = nil
	notify := r.transitionLocked(EventStop)
	r.mu.Unlock()
	notify()

	audio := c.finish()
	if err := c.stream.Close(); err != nil {
		r.logger.Warn("release microphone failed", zap.Error(err))
	}

	mimeType := r.mimeType
	if mt, ok := c.stream.(mimeTyper); ok && mt.MimeType() != "" {
		mimeType = mt.MimeType()
	}

	reqCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	reply, err := r.exchanger.Ask(reqCtx, r.sessionID, audio, mimeType)
	cancel()

	var text string
	if err == nil {
		text, err = reply.SpeechText()
	}
	if err != nil {
		r.logger.Warn("interview request failed", zap.String("session", r.sessionID), zap.Error(err))
		r.transition(EventFailed)
		return nil, err
	}

	ex := Exchange{Answer: reply.Answer}
	if reply.Question != nil {
		ex.Question = *reply.Question
	}

	r.mu.Lock()
	r.transcript = append(r.transcript, ex)
	r.mu.Unlock()

	r.transition(EventAnswered)
	r.speak(ctx, text)
	r.transition(EventSpoken)
	return &ex, nil
}

// speak 播放错误视为播放结束
func (r *Recorder) speak(ctx context.Context, text string) {
	if err := r.speaker.Speak(ctx, text); err != nil {
		r.logger.Warn("speech rendering failed", zap.String("session", r.sessionID), zap.Error(err))
	}
}

// busyLocked 需持有 r.mu
func (r *Recorder) busyLocked() bool {
	return r.booting || r.starting
}

// setGreeting 问候语朗读期间对外显示 speaking，不经过状态表
func (r *Recorder) setGreeting(on bool) {
	r.mu.Lock()
	r.greeting = on
	state := r.state
	if on {
		state = StateSpeaking
	}
	observers := append([]func(State){}, r.observers...)
	r.mu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
}

func (r *Recorder) transition(event Event) {
	r.mu.Lock()
	notify := r.transitionLocked(event)
	r.mu.Unlock()
	notify()
}

// transitionLocked 需持有 r.mu，返回的回调在解锁后调用
func (r *Recorder) transitionLocked(event Event) func() {
	next, err := Next(r.state, event)
	if err != nil {
		r.logger.Error("unexpected transition", zap.Error(err))
		return func() {}
	}
	r.state = next

	observers := append([]func(State){}, r.observers...)
	return func() {
		for _, fn := range observers {
			fn(next)
		}
	}
}

func (c *capture) collect() {
	defer close(c.done)
	chunks := c.stream.Chunks()
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			c.buf.Write(chunk)
		case <-c.stop:
			// 取走已缓冲的数据
			for {
				select {
				case chunk, ok := <-chunks:
					if !ok {
						return
					}
					c.buf.Write(chunk)
				default:
					return
				}
			}
		}
	}
}

// finish 停止收集并返回拼接后的音频
func (c *capture) finish() []byte {
	close(c.stop)
	<-c.done
	return c.buf.Bytes()
}
