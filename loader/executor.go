package loader

import (
	"fmt"
	"sync"

	"github.com/kbukum/resourcekit/logger"
)

// Executor runs completion callbacks. Submit must not run task on the
// calling goroutine. Close runs every task already submitted, then returns.
type Executor interface {
	Submit(task func())
	Close()
}

// SerialExecutor runs tasks one at a time, in submission order, on a single
// dedicated goroutine. Its queue is unbounded so Submit never blocks.
type SerialExecutor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
	log    *logger.Logger
}

// NewSerialExecutor starts the executor goroutine.
func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{
		done: make(chan struct{}),
		log:  logger.Get("loader"),
	}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

// Submit queues task. Tasks submitted after Close are run on a fresh goroutine.
func (e *SerialExecutor) Submit(task func()) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		go e.safeRun(task)
		return
	}
	e.queue = append(e.queue, task)
	e.mu.Unlock()
	e.cond.Signal()
}

// Close drains the queue and stops the goroutine. It must not be called
// from a task.
func (e *SerialExecutor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.done
		return
	}
	e.closed = true
	e.mu.Unlock()
	e.cond.Broadcast()
	<-e.done
}

func (e *SerialExecutor) run() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}
		task := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()

		e.safeRun(task)
	}
}

// safeRun keeps one panicking callback from stopping later ones.
func (e *SerialExecutor) safeRun(task func()) {
	runRecovered(e.log, task)
}

func runRecovered(log *logger.Logger, task func()) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("callback panicked", logger.Fields(logger.FieldError, fmt.Sprint(p)))
		}
	}()
	task()
}

// GoExecutor runs every task on its own goroutine. Callbacks may then run
// concurrently with each other. A panicking task is logged, not re-raised.
// The zero value is ready to use.
type GoExecutor struct {
	wg sync.WaitGroup
}

// Submit starts task on a new goroutine.
func (g *GoExecutor) Submit(task func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		runRecovered(logger.Get("loader"), task)
	}()
}

// Close waits for running tasks.
func (g *GoExecutor) Close() {
	g.wg.Wait()
}
