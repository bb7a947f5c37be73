package reservation

import (
	"context"
	"sync"
)

// MemoryRefundLog keeps refunded payment refs for the life of the process.
type MemoryRefundLog struct {
	mu   sync.Mutex
	refs map[string]struct{}
}

func NewMemoryRefundLog() *MemoryRefundLog {
	return &MemoryRefundLog{refs: make(map[string]struct{})}
}

func (l *MemoryRefundLog) MarkRefunded(ctx context.Context, paymentRef string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.refs[paymentRef]; ok {
		return false, nil
	}

	l.refs[paymentRef] = struct{}{}

	return true, nil
}

func (l *MemoryRefundLog) Forget(ctx context.Context, paymentRef string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.refs, paymentRef)

	return nil
}
