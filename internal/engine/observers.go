package engine

// Observer receives a snapshot copy after every mutation.
type Observer func(Snapshot)

// Subscribe registers an observer and returns its unsubscribe func. Every
// mutation broadcasts one immutable copy to all current observers, in
// mutation order, before the next mutation is processed. Observers run on
// the engine's dispatch path and must not call back into the engine.
func (e *Engine) Subscribe(fn Observer) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextObserver
	e.nextObserver++
	e.observers[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.observers, id)
	}
}

func (e *Engine) broadcastLocked() {
	if len(e.observers) == 0 {
		return
	}
	snap := e.snap.clone()
	for _, fn := range e.observers {
		fn(snap)
	}
}
