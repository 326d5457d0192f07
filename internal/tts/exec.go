package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-shellwords"
	"golang.org/x/sync/errgroup"

	"github.com/example/go-wyoming-silero/internal/audio"
	"github.com/example/go-wyoming-silero/internal/wyoming"
)

const (
	// maxStderr bounds the sidecar diagnostics copied into errors.
	maxStderr = 512
	// stopGrace is how long a sidecar may take to exit after its stdin
	// closes before it is killed.
	stopGrace = 5 * time.Second
	// maxReplyBytes bounds one WAV reply, about 45 minutes at 48 kHz.
	maxReplyBytes = 256 << 20
)

// Sidecar reply types. Requests reuse wyoming.TypeDescribe and
// wyoming.TypeSynthesize.
const (
	replySpeakers = "speakers"
	replyAudio    = "audio"
	replyError    = "error"
)

// ErrEngineClosed is returned by ExecEngine.Synthesize after Close.
var ErrEngineClosed = errors.New("engine closed")

// ExecEngine hosts the Silero model in long-lived sidecar processes started
// as "<cmd> serve --model <pkg>". Each process loads the model once and then
// answers Wyoming-framed events on stdin/stdout, one at a time:
//
//	describe   -> speakers {"speakers": [...], "ssml": bool}
//	synthesize {"text"|"ssml_text", "speaker", "sample_rate"}
//	           -> audio with a mono 16-bit WAV payload, or error {"text": "..."}
//
// Processes are started on demand up to the configured maximum. One that
// exits or breaks the framing is discarded and replaced by the next request.
type ExecEngine struct {
	argv      []string
	model     string
	env       []string
	processes int
	log       *slog.Logger

	speakers []string
	markup   bool

	idle  chan *sidecar
	slots chan struct{}

	mu     sync.Mutex
	live   map[*sidecar]struct{}
	closed bool
	wg     sync.WaitGroup
}

type execSpeakers struct {
	Speakers []string `json:"speakers"`
	SSML     bool     `json:"ssml"`
}

type execRequest struct {
	Text       string `json:"text,omitempty"`
	SSMLText   string `json:"ssml_text,omitempty"`
	Speaker    string `json:"speaker,omitempty"`
	SampleRate int    `json:"sample_rate"`
}

type execError struct {
	Text string `json:"text"`
}

// ExecOption configures an ExecEngine.
type ExecOption func(*ExecEngine)

// WithEnv appends environment entries ("KEY=value") for the sidecar.
func WithEnv(env ...string) ExecOption {
	return func(e *ExecEngine) { e.env = append(e.env, env...) }
}

// WithProcesses caps the number of sidecar processes. Values below one
// mean one.
func WithProcesses(n int) ExecOption {
	return func(e *ExecEngine) { e.processes = n }
}

// WithExecLogger sets the logger for sidecar lifecycle events.
func WithExecLogger(l *slog.Logger) ExecOption {
	return func(e *ExecEngine) { e.log = l }
}

// NewExecEngine parses command with shell word rules, starts the first
// sidecar and asks it for its speaker set. model is the path of the
// downloaded model package.
func NewExecEngine(ctx context.Context, command, model string, opts ...ExecOption) (*ExecEngine, error) {
	argv, err := shellwords.NewParser().Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse engine command: %w", err)
	}
	if len(argv) == 0 {
		return nil, errors.New("engine command empty")
	}

	e := &ExecEngine{
		argv:  argv,
		model: model,
		log:   slog.New(slog.DiscardHandler),
		live:  make(map[*sidecar]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.processes = max(e.processes, 1)
	e.idle = make(chan *sidecar, e.processes)
	e.slots = make(chan struct{}, e.processes)

	reply, err := e.call(ctx, wyoming.Event{Type: wyoming.TypeDescribe}, replySpeakers)
	if err != nil {
		_ = e.Close(context.Background())
		return nil, fmt.Errorf("query engine speakers: %w", err)
	}
	var resp execSpeakers
	if err := reply.Decode(&resp); err != nil {
		_ = e.Close(context.Background())
		return nil, fmt.Errorf("decode engine speakers: %w", err)
	}
	e.speakers = resp.Speakers
	e.markup = resp.SSML
	return e, nil
}

// Speakers implements SpeakerLister.
func (e *ExecEngine) Speakers() []string { return slices.Clone(e.speakers) }

// SupportsMarkup implements MarkupSupporter.
func (e *ExecEngine) SupportsMarkup() bool { return e.markup }

// Command returns the parsed sidecar argv.
func (e *ExecEngine) Command() []string { return slices.Clone(e.argv) }

// Processes returns the number of running sidecars.
func (e *ExecEngine) Processes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.live)
}

// Synthesize implements Engine. Concurrent calls run on separate sidecars,
// up to the process limit; further calls wait for a free one.
func (e *ExecEngine) Synthesize(ctx context.Context, req Request) ([]float32, error) {
	payload := execRequest{Speaker: req.Speaker, SampleRate: req.SampleRate}
	if req.Markup {
		payload.SSMLText = req.Text
	} else {
		payload.Text = req.Text
	}
	ev, err := wyoming.NewEvent(wyoming.TypeSynthesize, payload, nil)
	if err != nil {
		return nil, err
	}

	reply, err := e.call(ctx, ev, replyAudio)
	if err != nil {
		return nil, err
	}
	if len(reply.Payload) == 0 {
		return []float32{}, nil
	}

	clip, err := audio.DecodeWAV(reply.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode engine output: %w", err)
	}
	if req.SampleRate > 0 && clip.SampleRate != req.SampleRate {
		return nil, fmt.Errorf("%w: engine returned %d Hz, requested %d Hz",
			audio.ErrFormatMismatch, clip.SampleRate, req.SampleRate)
	}
	return clip.Samples, nil
}

// Close stops idle sidecars at once and busy ones when their request
// finishes, then waits for them to exit. Sidecars still running when ctx
// ends are killed.
func (e *ExecEngine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	var g errgroup.Group
	for drained := false; !drained; {
		select {
		case sc := <-e.idle:
			g.Go(func() error { return e.retire(sc, true) })
		default:
			drained = true
		}
	}

	var errs []error
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		e.mu.Lock()
		for sc := range e.live {
			sc.kill()
		}
		e.mu.Unlock()
		<-done
		errs = append(errs, fmt.Errorf("stopping engine sidecars: %w", ctx.Err()))
	}
	errs = append(errs, g.Wait())
	return errors.Join(errs...)
}

// call sends req to a sidecar and returns its reply of type want. When ctx
// ends first the sidecar finishes the request in the background and is
// reused afterwards.
func (e *ExecEngine) call(ctx context.Context, req wyoming.Event, want string) (wyoming.Event, error) {
	sc, err := e.acquire(ctx)
	if err != nil {
		return wyoming.Event{}, err
	}

	type result struct {
		ev  wyoming.Event
		err error
	}
	results := make(chan result, 1)
	go func() {
		ev, err := sc.roundTrip(req)
		healthy := err == nil && (ev.Type == want || ev.Type == replyError)
		e.release(sc, healthy)
		results <- result{ev, err}
	}()

	var res result
	select {
	case res = <-results:
	case <-ctx.Done():
		return wyoming.Event{}, ctx.Err()
	}

	switch {
	case res.err != nil:
		return wyoming.Event{}, e.failure(sc, res.err)
	case res.ev.Type == replyError:
		var msg execError
		_ = res.ev.Decode(&msg)
		return wyoming.Event{}, fmt.Errorf("%s: %s", e.argv[0], msg.Text)
	case res.ev.Type != want:
		return wyoming.Event{}, fmt.Errorf("%s: unexpected %q reply to %s", e.argv[0], res.ev.Type, req.Type)
	}
	return res.ev, nil
}

// acquire returns an idle sidecar, or starts one while below the limit.
func (e *ExecEngine) acquire(ctx context.Context) (*sidecar, error) {
	select {
	case sc := <-e.idle:
		return sc, nil
	default:
	}

	select {
	case sc := <-e.idle:
		return sc, nil
	case e.slots <- struct{}{}:
		sc, err := e.start()
		if err != nil {
			<-e.slots
			return nil, err
		}
		return sc, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *ExecEngine) release(sc *sidecar, healthy bool) {
	e.mu.Lock()
	if healthy && !e.closed {
		e.idle <- sc
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	if !healthy {
		e.log.Warn("engine sidecar discarded, next request starts a new one",
			slog.Int("pid", sc.pid()))
	}
	_ = e.retire(sc, healthy)
}

// retire stops sc and frees its slot.
func (e *ExecEngine) retire(sc *sidecar, graceful bool) error {
	err := sc.stop(graceful)
	e.mu.Lock()
	delete(e.live, sc)
	e.mu.Unlock()
	<-e.slots
	e.wg.Done()
	return err
}

func (e *ExecEngine) start() (*sidecar, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEngineClosed
	}

	args := append(slices.Clone(e.argv[1:]), "serve")
	if e.model != "" {
		args = append(args, "--model", e.model)
	}
	cmd := exec.Command(e.argv[0], args...)
	if len(e.env) > 0 {
		cmd.Env = append(os.Environ(), e.env...)
	}

	sc := &sidecar{cmd: cmd, stopped: make(chan struct{})}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = &sc.stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", e.argv[0], err)
	}
	sc.stdin = stdin
	sc.w = wyoming.NewWriter(stdin)
	sc.r = wyoming.NewReaderLimit(stdout, maxReplyBytes)

	e.live[sc] = struct{}{}
	e.wg.Add(1)
	e.log.Info("engine sidecar started", slog.Int("pid", sc.pid()), slog.Int("running", len(e.live)))
	return sc, nil
}

// failure describes a broken sidecar, with its exit status and stderr tail
// once it has stopped.
func (e *ExecEngine) failure(sc *sidecar, err error) error {
	<-sc.stopped
	if sc.waitErr != nil {
		err = fmt.Errorf("%w (%v)", err, sc.waitErr)
	}
	if msg := sc.stderr.String(); msg != "" {
		return fmt.Errorf("%s serve: %w: %s", e.argv[0], err, msg)
	}
	return fmt.Errorf("%s serve: %w", e.argv[0], err)
}

// sidecar is one running engine process. Only the goroutine holding it
// reads or writes its pipes.
type sidecar struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	w      *wyoming.Writer
	r      *wyoming.Reader
	stderr tailBuffer

	once    sync.Once
	stopped chan struct{}
	waitErr error
}

func (sc *sidecar) pid() int {
	if sc.cmd.Process == nil {
		return 0
	}
	return sc.cmd.Process.Pid
}

func (sc *sidecar) roundTrip(req wyoming.Event) (wyoming.Event, error) {
	if err := sc.w.WriteEvent(req); err != nil {
		return wyoming.Event{}, fmt.Errorf("send %s: %w", req.Type, err)
	}
	ev, err := sc.r.ReadEvent()
	if err != nil {
		return wyoming.Event{}, fmt.Errorf("read reply to %s: %w", req.Type, err)
	}
	return ev, nil
}

// stop ends the process: gracefully by closing stdin, otherwise by killing
// it. It returns the exit error of a graceful stop.
func (sc *sidecar) stop(graceful bool) error {
	sc.once.Do(func() {
		done := make(chan error, 1)
		_ = sc.stdin.Close()
		if !graceful {
			sc.kill()
		}
		go func() { done <- sc.cmd.Wait() }()
		select {
		case sc.waitErr = <-done:
		case <-time.After(stopGrace):
			sc.kill()
			sc.waitErr = <-done
		}
		close(sc.stopped)
	})
	<-sc.stopped
	if graceful {
		return sc.waitErr
	}
	return nil
}

func (sc *sidecar) kill() {
	if sc.cmd.Process != nil {
		_ = sc.cmd.Process.Kill()
	}
}

// tailBuffer keeps the last maxStderr bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - maxStderr; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
