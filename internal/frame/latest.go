package frame

import "sync"

// Latest is the single producer, many consumer handoff for the most recent
// capture. The producer publishes finished frames; readers always get their
// own copy, so nobody can observe a frame while it is being replaced.
type Latest struct {
	mu    sync.Mutex
	frame *Frame
	seq   uint64
}

// Publish stores f, taking ownership, and releases the previous frame.
// It returns the sequence number of the new frame.
func (l *Latest) Publish(f *Frame) uint64 {
	l.mu.Lock()
	old := l.frame
	l.frame = f
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	old.Close()
	return seq
}

// Snapshot returns a private copy of the current frame and its sequence
// number. ok is false until something was published.
func (l *Latest) Snapshot() (f *Frame, seq uint64, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frame == nil {
		return nil, l.seq, false
	}
	return l.frame.Clone(), l.seq, true
}

// Seq returns the sequence number of the newest frame, 0 if none.
func (l *Latest) Seq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

func (l *Latest) Close() {
	l.mu.Lock()
	old := l.frame
	l.frame = nil
	l.mu.Unlock()
	old.Close()
}
