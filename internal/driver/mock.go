package driver

import (
	"errors"
	"sync"
)

// Mock is an in-memory Binding with scripted events and failure injection.
type Mock struct {
	// Failure injection, set before use.
	OpenErr  error
	CloseErr error
	FdErr    error
	Desc     int

	mu     sync.Mutex
	cond   *sync.Cond
	opens  int
	closes int
	open   bool
	sens   float64
	queue  []RawEvent
}

func NewMock() *Mock {
	m := &Mock{Desc: 42, sens: 1.0}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *Mock) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.opens++
	m.open = true
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	m.open = false
	m.cond.Broadcast()
	return m.CloseErr
}

func (m *Mock) Fd() (int, error) {
	if m.FdErr != nil {
		return -1, m.FdErr
	}
	return m.Desc, nil
}

func (m *Mock) WaitEvent(ev *RawEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.queue) == 0 {
		if !m.open {
			return errors.New("driver connection closed")
		}
		m.cond.Wait()
	}
	*ev = m.queue[0]
	m.queue = m.queue[1:]
	return nil
}

func (m *Mock) PollEvent(ev *RawEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return false
	}
	*ev = m.queue[0]
	m.queue = m.queue[1:]
	return true
}

func (m *Mock) RemoveEvents(kind int32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	kept := m.queue[:0]
	for _, qe := range m.queue {
		if kind == KindAny || qe.Kind == kind {
			removed++
		} else {
			kept = append(kept, qe)
		}
	}
	m.queue = kept
	return removed
}

func (m *Mock) SetSensitivity(sens float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sens = sens
	return nil
}

// Emit queues one raw event for delivery to a waiter or poller.
func (m *Mock) Emit(ev RawEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, ev)
	m.cond.Signal()
}

// Opens reports how many times Open succeeded.
func (m *Mock) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Closes reports how many times Close was invoked.
func (m *Mock) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// Sensitivity reports the last value passed to SetSensitivity.
func (m *Mock) Sensitivity() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sens
}
