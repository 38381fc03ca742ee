package service

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/echoform/internal/domain"
)

// axisSequencer serializes updates per axis in arrival order. A caller
// enqueues on all of its axes at once, so two batches sharing axes always
// hold them in the same relative order and cannot deadlock. Batches on
// disjoint axes do not wait on each other.
type axisSequencer struct {
	mu     sync.Mutex
	queues map[domain.IdentityAxis][]chan struct{}
}

func newAxisSequencer() *axisSequencer {
	return &axisSequencer{queues: make(map[domain.IdentityAxis][]chan struct{})}
}

// acquire blocks until the caller is at the head of every axis queue. The
// returned release must be called exactly once.
func (q *axisSequencer) acquire(ctx context.Context, axes []domain.IdentityAxis) (func(), error) {
	tickets := make([]chan struct{}, len(axes))

	q.mu.Lock()
	for i, ax := range axes {
		ch := make(chan struct{})
		if len(q.queues[ax]) == 0 {
			close(ch)
		}
		q.queues[ax] = append(q.queues[ax], ch)
		tickets[i] = ch
	}
	q.mu.Unlock()

	release := func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		for i, ax := range axes {
			q.leave(ax, tickets[i])
		}
	}

	for _, ch := range tickets {
		select {
		case <-ch:
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

// leave removes ticket from the axis queue and wakes the next waiter if the
// ticket was at the head. Caller holds q.mu.
func (q *axisSequencer) leave(ax domain.IdentityAxis, ticket chan struct{}) {
	queue := q.queues[ax]
	for i, ch := range queue {
		if ch != ticket {
			continue
		}
		queue = append(queue[:i], queue[i+1:]...)
		if len(queue) == 0 {
			delete(q.queues, ax)
			return
		}
		q.queues[ax] = queue
		if i == 0 {
			close(queue[0])
		}
		return
	}
}

// queued reports how many callers hold or wait for an axis.
func (q *axisSequencer) queued(ax domain.IdentityAxis) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[ax])
}
