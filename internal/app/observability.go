package app

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// OpObserver is notified after every service operation completes.
type OpObserver interface {
	ObserveOp(op, name string, duration time.Duration, err error)
}

type OpLogger struct {
	logger *log.Logger
}

func NewOpLogger(logger *log.Logger) *OpLogger {
	return &OpLogger{logger: logger}
}

func (l *OpLogger) ObserveOp(op, name string, duration time.Duration, err error) {
	if l == nil || l.logger == nil {
		return
	}
	ms := float64(duration.Microseconds()) / 1000.0
	if err != nil {
		l.logger.Warn("policy_op", "op", op, "name", name, "duration_ms", ms, "err", err)
		return
	}
	l.logger.Debug("policy_op", "op", op, "name", name, "duration_ms", ms)
}

// AsyncOpObserver moves observation off the caller's path. Events that do
// not fit in the buffer, or arrive after Close, are counted and dropped.
type AsyncOpObserver struct {
	next    OpObserver
	events  chan opEvent
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

type opEvent struct {
	op       string
	name     string
	duration time.Duration
	err      error
}

func NewAsyncOpObserver(next OpObserver, buffer int) *AsyncOpObserver {
	if buffer <= 0 {
		buffer = 1
	}

	o := &AsyncOpObserver{
		next:   next,
		events: make(chan opEvent, buffer),
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for ev := range o.events {
			if o.next == nil {
				continue
			}
			o.next.ObserveOp(ev.op, ev.name, ev.duration, ev.err)
		}
	}()

	return o
}

func (o *AsyncOpObserver) ObserveOp(op, name string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.dropped.Add(1)
		return
	}
	select {
	case o.events <- opEvent{op: op, name: name, duration: duration, err: err}:
	default:
		o.dropped.Add(1)
	}
}

func (o *AsyncOpObserver) Dropped() uint64 {
	if o == nil {
		return 0
	}
	return o.dropped.Load()
}

// Close drains pending events and stops the worker. Safe to call twice.
func (o *AsyncOpObserver) Close() {
	if o == nil {
		return
	}
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.events)
		o.mu.Unlock()
		o.wg.Wait()
	})
}
