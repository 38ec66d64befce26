package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/achilleasa/heartglow/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrLoadPanic is wrapped by the LoadError of a load that panicked.
var ErrLoadPanic = errors.New("asset: load panicked")

// LoadError reports a failed fetch or decode of an asset.
type LoadError struct {
	URI string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("asset: could not load %s: %v", e.URI, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// A Blob is the fully buffered content of a fetched resource. Blobs may be
// shared between concurrent loads of the same URI and must not be modified.
type Blob struct {
	URI  string
	Name string
	Data []byte
}

// Reader returns a fresh reader over the blob data.
func (b *Blob) Reader() *bytes.Reader {
	return bytes.NewReader(b.Data)
}

// LoadFunc decodes a fetched blob. It runs on a loader goroutine.
type LoadFunc func(blob *Blob) error

// The Loader runs fire-and-forget asset loads in the background. Concurrent
// loads of the same URI share a single fetch. Failures are logged and
// collected; they never propagate to the caller of Go.
type Loader struct {
	logger  log.Logger
	timeout time.Duration

	group   errgroup.Group
	fetches singleflight.Group

	mu       sync.Mutex
	errs     []error
	pending  int
	fetching int
	onError  func(error)
}

// NewLoader creates a loader. A zero timeout disables per-load deadlines.
func NewLoader(timeout time.Duration) *Loader {
	return &Loader{
		logger:  log.New("asset"),
		timeout: timeout,
	}
}

// OnError registers a hook invoked with every load failure, after it has
// been logged. It must be set before the first call to Go.
func (l *Loader) OnError(fn func(error)) {
	l.mu.Lock()
	l.onError = fn
	l.mu.Unlock()
}

// Go fetches uri in the background and hands the result to fn. Go never
// blocks on the network.
func (l *Loader) Go(uri string, fn LoadFunc) {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()

	l.group.Go(func() (err error) {
		defer func() {
			l.mu.Lock()
			l.pending--
			l.mu.Unlock()
		}()

		// A malformed asset must not take down the process
		defer func() {
			if r := recover(); r != nil {
				err = l.fail(uri, fmt.Errorf("%w: %v", ErrLoadPanic, r))
			}
		}()

		start := time.Now()
		blob, err := l.fetch(uri)
		if err == nil {
			err = fn(blob)
		}
		if err != nil {
			return l.fail(uri, err)
		}

		l.logger.Infof("loaded %s in %d ms", uri, time.Since(start).Milliseconds())
		return nil
	})
}

// Fetch synchronously buffers the resource at uri, honoring the loader timeout.
func (l *Loader) Fetch(uri string) (*Blob, error) {
	blob, err := l.fetch(uri)
	if err != nil {
		return nil, &LoadError{URI: uri, Err: err}
	}
	return blob, nil
}

func (l *Loader) fetch(uri string) (*Blob, error) {
	ch := l.fetches.DoChan(uri, func() (interface{}, error) {
		ctx := context.Background()
		if l.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, l.timeout)
			defer cancel()
		}

		res, err := NewResourceContext(ctx, uri, nil)
		if err != nil {
			return nil, err
		}
		defer res.Close()

		data, err := io.ReadAll(res)
		if err != nil {
			return nil, err
		}
		return &Blob{URI: uri, Name: res.Name(), Data: data}, nil
	})

	// The caller is now registered with the in-flight fetch for uri
	l.mu.Lock()
	l.fetching++
	l.mu.Unlock()

	res := <-ch

	l.mu.Lock()
	l.fetching--
	l.mu.Unlock()

	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		l.logger.Debugf("shared fetch for %s", uri)
	}
	return res.Val.(*Blob), nil
}

func (l *Loader) fail(uri string, err error) error {
	loadErr := &LoadError{URI: uri, Err: err}
	l.logger.Error(loadErr.Error())

	l.mu.Lock()
	l.errs = append(l.errs, loadErr)
	hook := l.onError
	l.mu.Unlock()

	if hook != nil {
		hook(loadErr)
	}
	return loadErr
}

// Pending returns the number of loads that have not completed yet.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// Fetching returns the number of callers waiting on a network fetch. Callers
// of the same URI share one fetch but are counted individually.
func (l *Loader) Fetching() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetching
}

// Errors returns all load failures observed so far.
func (l *Loader) Errors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errs...)
}

// Wait blocks until all loads started so far complete and returns the first
// failure, if any.
func (l *Loader) Wait() error {
	return l.group.Wait()
}
