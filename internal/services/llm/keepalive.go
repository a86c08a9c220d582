package llm

import (
	"sync"
	"time"
)

// KeepAlive remembers when each model last answered so a warm model is not
// probed again. The zero value is not usable; call NewKeepAlive.
type KeepAlive struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewKeepAlive returns a tracker treating models as warm for window after
// their last use. A nil clock uses time.Now.
func NewKeepAlive(window time.Duration, now func() time.Time) *KeepAlive {
	if now == nil {
		now = time.Now
	}
	return &KeepAlive{window: window, now: now, last: make(map[string]time.Time)}
}

// Touch records that model just answered.
func (k *KeepAlive) Touch(model string) {
	if k == nil {
		return
	}
	k.mu.Lock()
	k.last[model] = k.now()
	k.mu.Unlock()
}

// Warm reports whether model answered within the keep-alive window.
func (k *KeepAlive) Warm(model string) bool {
	if k == nil || k.window <= 0 {
		return false
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	at, ok := k.last[model]
	if !ok {
		return false
	}
	return k.now().Sub(at) < k.window
}

// Forget drops what is known about model, e.g. after a failed call.
func (k *KeepAlive) Forget(model string) {
	if k == nil {
		return
	}
	k.mu.Lock()
	delete(k.last, model)
	k.mu.Unlock()
}
