package asset

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFetching blocks until count callers have joined an in-flight fetch.
func waitFetching(t *testing.T, l *Loader, count int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for l.Fetching() < count {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d callers waiting on a fetch; got %d", count, l.Fetching())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLoaderDeliversBlob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("model-bytes"))
	}))
	defer server.Close()

	var got *Blob
	l := NewLoader(0)
	l.Go(server.URL+"/assets/demo.glb", func(blob *Blob) error {
		got = blob
		return nil
	})

	if err := l.Wait(); err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected load callback to be invoked")
	}
	if string(got.Data) != "model-bytes" {
		t.Fatalf("expected blob data to be 'model-bytes'; got %q", string(got.Data))
	}
	if got.Name != "demo.glb" {
		t.Fatalf("expected blob name to be demo.glb; got %s", got.Name)
	}
	if l.Pending() != 0 {
		t.Fatalf("expected no pending loads; got %d", l.Pending())
	}
}

func TestLoaderGoDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("late"))
	}))
	defer server.Close()

	l := NewLoader(0)
	start := time.Now()
	l.Go(server.URL+"/slow.env", func(*Blob) error { return nil })
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("expected Go to return immediately; took %s", elapsed)
	}
	if l.Pending() != 1 {
		t.Fatalf("expected 1 pending load; got %d", l.Pending())
	}

	close(release)
	if err := l.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderSharesConcurrentFetches(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Write([]byte("env"))
	}))
	defer server.Close()

	var (
		mu    sync.Mutex
		blobs []*Blob
	)
	collect := func(blob *Blob) error {
		mu.Lock()
		blobs = append(blobs, blob)
		mu.Unlock()
		return nil
	}

	l := NewLoader(0)
	uri := server.URL + "/peppermint_blue.env"
	l.Go(uri, collect)
	l.Go(uri, collect)

	waitFetching(t, l, 2)
	close(release)

	if err := l.Wait(); err != nil {
		t.Fatal(err)
	}
	if h := atomic.LoadInt32(&hits); h != 1 {
		t.Fatalf("expected a single fetch; got %d", h)
	}
	if len(blobs) != 2 {
		t.Fatalf("expected both callbacks to be invoked; got %d", len(blobs))
	}
}

func TestLoaderReportsFailures(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	var hooked []error
	l := NewLoader(0)
	l.OnError(func(err error) { hooked = append(hooked, err) })

	called := false
	uri := server.URL + "/missing.glb"
	l.Go(uri, func(*Blob) error {
		called = true
		return nil
	})

	err := l.Wait()
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected a *LoadError; got %v", err)
	}
	if loadErr.URI != uri {
		t.Fatalf("expected error for %s; got %s", uri, loadErr.URI)
	}
	if called {
		t.Fatal("expected load callback not to be invoked on fetch failure")
	}
	if len(l.Errors()) != 1 || len(hooked) != 1 {
		t.Fatalf("expected one recorded and one hooked error; got %d and %d", len(l.Errors()), len(hooked))
	}
}

func TestLoaderReportsDecodeFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("garbage"))
	}))
	defer server.Close()

	errDecode := errors.New("bad magic")
	l := NewLoader(0)
	l.Go(server.URL+"/broken.env", func(*Blob) error { return errDecode })

	if err := l.Wait(); !errors.Is(err, errDecode) {
		t.Fatalf("expected decode error to be wrapped; got %v", err)
	}
}

func TestLoaderRecoversPanics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("garbage"))
	}))
	defer server.Close()

	var hookErr error
	l := NewLoader(0)
	l.OnError(func(err error) { hookErr = err })
	l.Go(server.URL+"/corrupt.glb", func(blob *Blob) error {
		var faces [][]byte
		_ = faces[len(blob.Data)]
		return nil
	})

	err := l.Wait()
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected a *LoadError; got %v", err)
	}
	if !errors.Is(err, ErrLoadPanic) {
		t.Fatalf("expected error to wrap ErrLoadPanic; got %v", err)
	}
	if loadErr.URI != server.URL+"/corrupt.glb" {
		t.Fatalf("expected error URI to be %s/corrupt.glb; got %s", server.URL, loadErr.URI)
	}
	if hookErr != err {
		t.Fatalf("expected error hook to receive %v; got %v", err, hookErr)
	}
	if l.Pending() != 0 {
		t.Fatalf("expected no pending loads; got %d", l.Pending())
	}
}

func TestLoaderTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	l := NewLoader(50 * time.Millisecond)
	l.Go(server.URL+"/never.glb", func(*Blob) error { return nil })

	var loadErr *LoadError
	if err := l.Wait(); !errors.As(err, &loadErr) {
		t.Fatalf("expected timed out load to fail with a *LoadError; got %v", err)
	}
}
