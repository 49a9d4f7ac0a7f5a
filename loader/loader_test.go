package loader_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/resourcekit/codec"
	"github.com/kbukum/resourcekit/httpclient"
	"github.com/kbukum/resourcekit/loader"
	"github.com/kbukum/resourcekit/logger"
	"github.com/kbukum/resourcekit/provider"
	"github.com/kbukum/resourcekit/resource"
)

type acronym struct {
	ID    int    `json:"id"`
	Short string `json:"short" validate:"required"`
	Long  string `json:"long" validate:"required"`
}

type createAcronym struct {
	Short string `json:"short"`
	Long  string `json:"long"`
}

type unencodable struct{}

func (unencodable) MarshalJSON() ([]byte, error) {
	return nil, errors.New("cannot encode")
}

const waitTimeout = 5 * time.Second

func newLoader(t *testing.T, opts ...loader.Option) *loader.Loader {
	t.Helper()
	opts = append([]loader.Option{loader.WithLogger(logger.Nop())}, opts...)
	l, err := loader.New(loader.Config{Name: "test"}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = l.Close(context.Background()) })
	return l
}

func fakeTransport(fn func(ctx context.Context, req resource.Request) ([]byte, error)) loader.Transport {
	return provider.Func("fake", fn)
}

func staticServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func await[M any](t *testing.T, l *loader.Loader, res *resource.Resource[M]) loader.Result[M] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	r := loader.Await(ctx, l, res)
	if errors.Is(r.Err(), context.DeadlineExceeded) {
		t.Fatal("result never delivered")
	}
	return r
}

func mustNew(t *testing.T, cfg loader.Config, opts ...loader.Option) *loader.Loader {
	t.Helper()
	l, err := loader.New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func okResult[M any](t *testing.T, r loader.Result[M]) M {
	t.Helper()
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r.Value()
}

// --- acronym scenario ---

func TestDispatch_AcronymListSuccess(t *testing.T) {
	srv := staticServer(t, http.StatusOK, `[{"id":1,"short":"AFK","long":"Away From Keyboard"}]`)
	l := newLoader(t)
	res := resource.Must(resource.NewGet[[]acronym](srv.URL + "/acronyms"))

	r := await(t, l, res)

	got := okResult(t, r)
	want := []acronym{{ID: 1, Short: "AFK", Long: "Away From Keyboard"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if r.Outcome() != loader.OutcomeSuccess {
		t.Errorf("expected outcome success, got %s", r.Outcome())
	}
}

func TestDispatch_AcronymMissingFieldIsDecodeError(t *testing.T) {
	srv := staticServer(t, http.StatusOK, `[{"id":1,"short":"AFK"}]`)
	l := newLoader(t)
	res := resource.Must(resource.NewGet[[]acronym](srv.URL + "/acronyms"))

	r := await(t, l, res)

	if r.IsSuccess() {
		t.Fatal("expected failure")
	}
	var de *codec.DecodeError
	if !errors.As(r.Err(), &de) {
		t.Fatalf("expected *codec.DecodeError, got %v", r.Err())
	}
	if de.Field != "long" || de.Reason != codec.ReasonMissing {
		t.Errorf("expected long missing, got %q (%s)", de.Field, de.Reason)
	}
	if loader.IsTransportError(r.Err()) {
		t.Error("decode error reported as transport error")
	}
	if r.Outcome() != loader.OutcomeDecodeError {
		t.Errorf("expected outcome decode_error, got %s", r.Outcome())
	}
	if r.Value() != nil {
		t.Errorf("expected nil value, got %+v", r.Value())
	}
}

func TestDispatch_AcronymEmptyLongIsSuccess(t *testing.T) {
	srv := staticServer(t, http.StatusOK, `[{"id":1,"short":"AFK","long":""}]`)
	l := newLoader(t)

	got := okResult(t, await(t, l, resource.Must(resource.NewGet[[]acronym](srv.URL+"/acronyms"))))
	if len(got) != 1 || got[0].Long != "" {
		t.Errorf("unexpected value: %+v", got)
	}
}

func TestDispatch_NullListIsDecodeError(t *testing.T) {
	srv := staticServer(t, http.StatusOK, `null`)
	l := newLoader(t)

	r := await(t, l, resource.Must(resource.NewGet[[]acronym](srv.URL+"/acronyms")))
	if !codec.IsDecodeError(r.Err()) {
		t.Errorf("expected decode error, got %v", r.Err())
	}
}

func TestDispatch_MalformedBodyIsDecodeError(t *testing.T) {
	srv := staticServer(t, http.StatusOK, `<html>`)
	l := newLoader(t)

	r := await(t, l, resource.Must(resource.NewGet[[]acronym](srv.URL)))
	if !codec.IsDecodeError(r.Err()) {
		t.Errorf("expected decode error, got %v", r.Err())
	}
}

// --- wire format ---

func TestDispatch_GetQueryReachesServer(t *testing.T) {
	var gotQuery, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.Query().Get("term")
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()
	l := newLoader(t)

	res := resource.Must(resource.New[[]acronym](srv.URL+"/acronyms/search", resource.Get(map[string]string{"term": "away from"})))
	okResult(t, await(t, l, res))

	if gotMethod != http.MethodGet {
		t.Errorf("expected GET, got %s", gotMethod)
	}
	if gotQuery != "away from" {
		t.Errorf("expected term=away from, got %q", gotQuery)
	}
}

func TestDispatch_PostSendsJSON(t *testing.T) {
	var gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":7,"short":"BRB","long":"Be Right Back"}`)
	}))
	defer srv.Close()
	l := newLoader(t)

	res := resource.Must(resource.New[acronym](srv.URL+"/acronyms", resource.Post(createAcronym{Short: "BRB", Long: "Be Right Back"})))
	got := okResult(t, await(t, l, res))

	if got.ID != 7 {
		t.Errorf("expected id 7, got %d", got.ID)
	}
	if gotBody != `{"short":"BRB","long":"Be Right Back"}` {
		t.Errorf("unexpected body: %s", gotBody)
	}
	if gotType != "application/json" {
		t.Errorf("expected application/json, got %q", gotType)
	}
}

func TestDispatch_PostWithDroppedBodySendsNoBody(t *testing.T) {
	var gotLen int64 = -1
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLen = r.ContentLength
		_, _ = io.WriteString(w, `{"id":1,"short":"A","long":"B"}`)
	}))
	defer srv.Close()
	l := newLoader(t)

	res := resource.Must(resource.New[acronym](srv.URL, resource.Post(unencodable{})))
	okResult(t, await(t, l, res))

	if gotLen != 0 {
		t.Errorf("expected empty body, got content length %d", gotLen)
	}
}

// --- transport failures ---

func TestDispatch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	l := newLoader(t)

	r := await(t, l, resource.Must(resource.NewGet[[]acronym](url)))

	if !loader.IsTransportError(r.Err()) {
		t.Fatalf("expected transport error, got %v", r.Err())
	}
	if !httpclient.IsConnection(r.Err()) {
		t.Errorf("expected connection error, got %v", r.Err())
	}
	if r.Outcome() != loader.OutcomeTransportError {
		t.Errorf("expected outcome transport_error, got %s", r.Outcome())
	}
	if code := loader.StatusCode(r.Err()); code != 0 {
		t.Errorf("expected no status code, got %d", code)
	}
}

func TestDispatch_NonSuccessStatusIsTransportError(t *testing.T) {
	srv := staticServer(t, http.StatusNotFound, `{"error":"no such acronym"}`)
	l := newLoader(t)

	r := await(t, l, resource.Must(resource.NewGet[acronym](srv.URL+"/acronyms/99")))

	var te *loader.TransportError
	if !errors.As(r.Err(), &te) {
		t.Fatalf("expected *TransportError, got %v", r.Err())
	}
	if te.Method != http.MethodGet || te.URL != srv.URL+"/acronyms/99" {
		t.Errorf("unexpected request on error: %s %s", te.Method, te.URL)
	}
	if !httpclient.IsNotFound(r.Err()) {
		t.Errorf("expected not found, got %v", r.Err())
	}
	if code := loader.StatusCode(r.Err()); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestDispatch_AcceptAnyStatusDecodesBody(t *testing.T) {
	srv := staticServer(t, http.StatusInternalServerError, `{"id":1,"short":"ERR","long":"Error"}`)
	l := mustNew(t, loader.Config{HTTP: httpclient.Config{AcceptAnyStatus: true}}, loader.WithLogger(logger.Nop()))
	defer l.Close(context.Background())

	got := okResult(t, await(t, l, resource.Must(resource.NewGet[acronym](srv.URL))))
	if got.Short != "ERR" {
		t.Errorf("expected ERR, got %q", got.Short)
	}
}

func TestDispatch_NoBodyNoErrorIsTransportError(t *testing.T) {
	l := newLoader(t, loader.WithTransport(fakeTransport(func(context.Context, resource.Request) ([]byte, error) {
		return nil, nil
	})))

	r := await(t, l, resource.Must(resource.NewGet[acronym]("http://localhost:8080/acronyms/1")))

	if !loader.IsTransportError(r.Err()) {
		t.Fatalf("expected transport error, got %v", r.Err())
	}
	if !errors.Is(r.Err(), loader.ErrNoResponse) {
		t.Errorf("expected ErrNoResponse, got %v", r.Err())
	}
}

func TestDispatch_TransportErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	l := newLoader(t, loader.WithTransport(fakeTransport(func(context.Context, resource.Request) ([]byte, error) {
		return []byte(`{"id":1}`), boom
	})))

	r := await(t, l, resource.Must(resource.NewGet[acronym]("http://localhost:8080/acronyms/1")))

	if !errors.Is(r.Err(), boom) || !loader.IsTransportError(r.Err()) {
		t.Errorf("expected wrapped transport error, got %v", r.Err())
	}
	if r.Value() != (acronym{}) {
		t.Errorf("expected zero value, got %+v", r.Value())
	}
}

// --- callback delivery ---

func TestDispatch_CallbackNotOnDispatchingGoroutine(t *testing.T) {
	release := make(chan struct{})
	l := newLoader(t, loader.WithTransport(fakeTransport(func(context.Context, resource.Request) ([]byte, error) {
		<-release
		return []byte(`{"id":1,"short":"A","long":"B"}`), nil
	})))

	var returned atomic.Bool
	done := make(chan bool, 1)
	loader.Dispatch(context.Background(), l, resource.Must(resource.NewGet[acronym]("http://x.test/a")), func(loader.Result[acronym]) {
		done <- returned.Load()
	})
	returned.Store(true)
	close(release)

	select {
	case sawReturned := <-done:
		if !sawReturned {
			t.Error("callback ran before Dispatch returned")
		}
	case <-time.After(waitTimeout):
		t.Fatal("callback never ran")
	}
}

func TestDispatch_ExactlyOnceAndSerial(t *testing.T) {
	var n atomic.Int32
	l := newLoader(t, loader.WithTransport(fakeTransport(func(_ context.Context, req resource.Request) ([]byte, error) {
		switch n.Add(1) % 3 {
		case 0:
			return nil, errors.New("down")
		case 1:
			return []byte(`{"id":1}`), nil
		default:
			return []byte(`{"id":1,"short":"A","long":"B"}`), nil
		}
	})))
	res := resource.Must(resource.NewGet[acronym]("http://x.test/a"))

	const total = 60
	var (
		calls     atomic.Int32
		active    atomic.Int32
		overlap   atomic.Bool
		wg        sync.WaitGroup
		outcomes  = make(map[loader.Outcome]int)
		outcomeMu sync.Mutex
	)
	wg.Add(total)
	for range total {
		loader.Dispatch(context.Background(), l, res, func(r loader.Result[acronym]) {
			defer wg.Done()
			if active.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			calls.Add(1)
			outcomeMu.Lock()
			outcomes[r.Outcome()]++
			outcomeMu.Unlock()
			active.Add(-1)
		})
	}
	wg.Wait()
	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := calls.Load(); got != total {
		t.Errorf("expected %d callbacks, got %d", total, got)
	}
	if overlap.Load() {
		t.Error("callbacks overlapped on the serial executor")
	}
	for _, o := range []loader.Outcome{loader.OutcomeSuccess, loader.OutcomeDecodeError, loader.OutcomeTransportError} {
		if outcomes[o] != total/3 {
			t.Errorf("expected %d %s results, got %d", total/3, o, outcomes[o])
		}
	}
}

type countingExecutor struct {
	loader.GoExecutor
	submitted atomic.Int32
}

func (c *countingExecutor) Submit(task func()) {
	c.submitted.Add(1)
	c.GoExecutor.Submit(task)
}

func TestDispatch_UsesConfiguredExecutor(t *testing.T) {
	exec := &countingExecutor{}
	l := newLoader(t, loader.WithExecutor(exec), loader.WithTransport(fakeTransport(func(context.Context, resource.Request) ([]byte, error) {
		return []byte(`{"id":1,"short":"A","long":"B"}`), nil
	})))

	okResult(t, await(t, l, resource.Must(resource.NewGet[acronym]("http://x.test/a"))))
	if got := exec.submitted.Load(); got != 1 {
		t.Errorf("expected 1 submitted task, got %d", got)
	}
}

func TestDispatch_ResourceIsReusable(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `[{"id":1,"short":"AFK","long":"Away From Keyboard"}]`)
	}))
	defer srv.Close()
	l := newLoader(t)
	res := resource.Must(resource.NewGet[[]acronym](srv.URL))

	first := okResult(t, await(t, l, res))
	second := okResult(t, await(t, l, res))

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected equal results, got %+v and %+v", first, second)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

// --- context handling ---

func TestDispatch_IgnoresCallerCancellation(t *testing.T) {
	var sawErr atomic.Value
	l := newLoader(t, loader.WithTransport(fakeTransport(func(ctx context.Context, _ resource.Request) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			sawErr.Store(err)
		}
		return []byte(`{"id":1,"short":"A","long":"B"}`), nil
	})))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	select {
	case r := <-loader.Load(ctx, l, resource.Must(resource.NewGet[acronym]("http://x.test/a"))):
		okResult(t, r)
	case <-time.After(waitTimeout):
		t.Fatal("result never delivered")
	}
	if err := sawErr.Load(); err != nil {
		t.Errorf("transport saw cancelled context: %v", err)
	}
}

func TestAwait_StopsWaitingWhenContextDone(t *testing.T) {
	release := make(chan struct{})
	l := newLoader(t, loader.WithTransport(fakeTransport(func(context.Context, resource.Request) ([]byte, error) {
		<-release
		return []byte(`{"id":1,"short":"A","long":"B"}`), nil
	})))
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	r := loader.Await(ctx, l, resource.Must(resource.NewGet[acronym]("http://x.test/a")))

	if !errors.Is(r.Err(), context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", r.Err())
	}
}

func TestAwait_NilContext(t *testing.T) {
	l := newLoader(t, loader.WithTransport(fakeTransport(func(context.Context, resource.Request) ([]byte, error) {
		return []byte(`{"id":1,"short":"A","long":"B"}`), nil
	})))

	var ctx context.Context
	r := loader.Await(ctx, l, resource.Must(resource.NewGet[acronym]("http://x.test/a")))

	if got := okResult(t, r); got.Short != "A" {
		t.Errorf("expected A, got %q", got.Short)
	}
}

// --- lifecycle ---

func TestClose_WaitsForInFlightCallbacks(t *testing.T) {
	l := mustNew(t, loader.Config{}, loader.WithLogger(logger.Nop()), loader.WithTransport(fakeTransport(func(context.Context, resource.Request) ([]byte, error) {
		time.Sleep(20 * time.Millisecond)
		return []byte(`{"id":1,"short":"A","long":"B"}`), nil
	})))

	var delivered atomic.Bool
	loader.Dispatch(context.Background(), l, resource.Must(resource.NewGet[acronym]("http://x.test/a")), func(loader.Result[acronym]) {
		delivered.Store(true)
	})
	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !delivered.Load() {
		t.Error("Close returned before the callback ran")
	}
	if err := l.Close(context.Background()); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestDispatch_AfterCloseFailsWithErrClosed(t *testing.T) {
	l := mustNew(t, loader.Config{}, loader.WithLogger(logger.Nop()))
	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case r := <-loader.Load(context.Background(), l, resource.Must(resource.NewGet[acronym]("http://x.test/a"))):
		if !errors.Is(r.Err(), loader.ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", r.Err())
		}
		if r.Outcome() != loader.OutcomeClosed {
			t.Errorf("expected outcome closed, got %s", r.Outcome())
		}
	case <-time.After(waitTimeout):
		t.Fatal("callback dropped after Close")
	}
}

func TestDispatch_NilResource(t *testing.T) {
	l := newLoader(t)
	r := await[acronym](t, l, nil)
	if !loader.IsTransportError(r.Err()) {
		t.Errorf("expected transport error, got %v", r.Err())
	}
}

// --- ambient ---

func TestDispatch_LogsCompletion(t *testing.T) {
	var buf syncBuffer
	log := logger.New(&logger.Config{Level: "debug", Format: logger.FormatJSON, Writer: &buf}, "test")
	l := newLoader(t, loader.WithLogger(log), loader.WithTransport(fakeTransport(func(context.Context, resource.Request) ([]byte, error) {
		return []byte(`{"id":1}`), nil
	})))

	await(t, l, resource.Must(resource.NewGet[acronym]("http://x.test/a")))

	out := buf.String()
	for _, want := range []string{
		`"message":"dispatch complete"`,
		`"outcome":"decode_error"`,
		`"request_id":"`,
		`"url":"http://x.test/a"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestWithMiddleware(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	record := func(inner loader.Transport) loader.Transport {
		return provider.Func(inner.Name(), func(ctx context.Context, req resource.Request) ([]byte, error) {
			mu.Lock()
			seen = append(seen, req.String())
			mu.Unlock()
			return inner.Execute(ctx, req)
		})
	}
	l := newLoader(t,
		loader.WithMiddleware(record),
		loader.WithTransport(fakeTransport(func(context.Context, resource.Request) ([]byte, error) {
			return []byte(`{"id":1,"short":"A","long":"B"}`), nil
		})),
	)

	await(t, l, resource.Must(resource.NewGet[acronym]("http://x.test/a")))

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != "GET http://x.test/a" {
		t.Errorf("unexpected requests seen by middleware: %v", seen)
	}
}

func TestDispatch_MaxInFlight(t *testing.T) {
	var active, peak atomic.Int32
	tr := fakeTransport(func(context.Context, resource.Request) ([]byte, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
		return []byte(`{"id":1,"short":"A","long":"B"}`), nil
	})
	l := mustNew(t, loader.Config{MaxInFlight: 2}, loader.WithLogger(logger.Nop()), loader.WithTransport(tr))

	res := resource.Must(resource.NewGet[acronym]("http://x.test/a"))
	var failed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(20)
	for range 20 {
		loader.Dispatch(context.Background(), l, res, func(r loader.Result[acronym]) {
			if r.Err() != nil {
				failed.Add(1)
			}
			wg.Done()
		})
	}
	wg.Wait()
	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if n := failed.Load(); n != 0 {
		t.Errorf("expected no failures, got %d", n)
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("expected at most 2 concurrent round trips, got %d", p)
	}
}

func TestConfig(t *testing.T) {
	cfg := loader.Config{}
	cfg.ApplyDefaults()
	if cfg.Name != "loader" {
		t.Errorf("expected name loader, got %q", cfg.Name)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.HTTP.Timeout)
	}

	_, err := loader.New(loader.Config{HTTP: httpclient.Config{Headers: map[string]string{"": "x"}}})
	if err == nil || !strings.HasPrefix(err.Error(), "loader.http") {
		t.Errorf("expected loader.http error, got %v", err)
	}

	_, err = loader.New(loader.Config{MaxInFlight: -1})
	if err == nil || !strings.Contains(err.Error(), "max_in_flight") {
		t.Errorf("expected max_in_flight error, got %v", err)
	}
}
