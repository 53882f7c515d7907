package testsupport

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-campaign-client/gateway"
)

// Handler answers one call on a FakeActor.
type Handler func(call gateway.Call) (gateway.Reply, error)

// FakeActor is a scriptable gateway.Actor. It records every call, answers
// from per-method handlers and can hold calls on a gate until released.
type FakeActor struct {
	mu       sync.Mutex
	calls    []gateway.Call
	handlers map[string]Handler
	gates    map[string]chan struct{}
	latency  time.Duration
}

func NewFakeActor() *FakeActor {
	return &FakeActor{
		handlers: make(map[string]Handler),
		gates:    make(map[string]chan struct{}),
	}
}

// Handle installs h for method.
func (f *FakeActor) Handle(method string, h Handler) *FakeActor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
	return f
}

// Reply answers method with an ok reply carrying v.
func (f *FakeActor) Reply(method string, v any) *FakeActor {
	return f.Handle(method, func(gateway.Call) (gateway.Reply, error) {
		return gateway.OK(v)
	})
}

// Fail answers method with an error reply.
func (f *FakeActor) Fail(method, message string) *FakeActor {
	return f.Handle(method, func(gateway.Call) (gateway.Reply, error) {
		return gateway.Fail(message), nil
	})
}

// Break makes method fail at the transport level.
func (f *FakeActor) Break(method string, err error) *FakeActor {
	return f.Handle(method, func(gateway.Call) (gateway.Reply, error) {
		return gateway.Reply{}, err
	})
}

// WithLatency delays every call.
func (f *FakeActor) WithLatency(d time.Duration) *FakeActor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latency = d
	return f
}

// Gate holds calls to method until the returned release is called.
func (f *FakeActor) Gate(method string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[method] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gates[method] == ch {
				delete(f.gates, method)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *FakeActor) Call(ctx context.Context, call gateway.Call) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	h, ok := f.handlers[call.Method]
	gate := f.gates[call.Method]
	latency := f.latency
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if !ok {
		return gateway.EncodeReply(gateway.Fail("unsupported method " + call.Method))
	}
	reply, err := h(call)
	if err != nil {
		return nil, err
	}
	return gateway.EncodeReply(reply)
}

// Calls returns a copy of every recorded call.
func (f *FakeActor) Calls() []gateway.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gateway.Call(nil), f.calls...)
}

// CallCount counts the recorded calls to method.
func (f *FakeActor) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// WaitCalls blocks until method was called at least n times or timeout
// elapses.
func (f *FakeActor) WaitCalls(method string, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if f.CallCount(method) >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// Reset forgets recorded calls. Handlers stay installed.
func (f *FakeActor) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
