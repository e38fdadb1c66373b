package telegram

import "sync"

// dispatcher runs jobs in arrival order per key and in parallel across keys.
// A key's worker exits once its queue drains.
type dispatcher struct {
	mu     sync.Mutex
	queues map[string][]func()
	wg     sync.WaitGroup
}

func newDispatcher() *dispatcher {
	return &dispatcher{queues: make(map[string][]func())}
}

func (d *dispatcher) Submit(key string, job func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	queue, running := d.queues[key]
	d.queues[key] = append(queue, job)
	if running {
		return
	}

	d.wg.Add(1)
	go d.work(key)
}

func (d *dispatcher) work(key string) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		queue := d.queues[key]
		if len(queue) == 0 {
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		job := queue[0]
		d.queues[key] = queue[1:]
		d.mu.Unlock()

		job()
	}
}

// Wait blocks until every submitted job has finished.
func (d *dispatcher) Wait() {
	d.wg.Wait()
}

func (d *dispatcher) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}
