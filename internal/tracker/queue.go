package tracker

import "sync"

// queue runs tasks one at a time in push order on its own goroutine. It
// also counts outside work (next-chapter loads) so wait covers both.
type queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	pending int
	closed  bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

func (q *queue) push(task func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.tasks = append(q.tasks, task)
	q.pending++
	q.cond.Broadcast()
	return true
}

func (q *queue) run() {
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		task()
		q.done()
	}
}

// begin registers outside work; pair with done.
func (q *queue) begin() {
	q.mu.Lock()
	q.pending++
	q.mu.Unlock()
}

func (q *queue) done() {
	q.mu.Lock()
	q.pending--
	if q.pending == 0 {
		q.cond.Broadcast()
	}
	q.mu.Unlock()
}

// wait blocks until no task is queued or running and no outside work is
// registered.
func (q *queue) wait() {
	q.mu.Lock()
	for q.pending > 0 {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

// close drops queued tasks and stops the worker once the running task,
// if any, returns.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.pending -= len(q.tasks)
	q.tasks = nil
	q.cond.Broadcast()
}
