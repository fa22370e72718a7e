package invoicing

import (
	"sync"
	"time"
)

// Debouncer retrasa la entrega de un valor: cada Trigger reinicia la espera y solo el último
// valor llega a fn, una vez transcurrido delay sin nuevos Trigger.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	timer   *time.Timer
	seq     uint64
	stopped bool
}

// NewDebouncer construye el debouncer. fn se ejecuta en la goroutine del timer.
func NewDebouncer[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Trigger programa fn(v) y cancela cualquier entrega pendiente.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, v) })
}

func (d *Debouncer[T]) fire(seq uint64, v T) {
	d.mu.Lock()
	// un timer que ya disparó puede perder la carrera contra Trigger/Stop
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn(v)
}

// Stop cancela la entrega pendiente; los Trigger posteriores no tienen efecto.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
