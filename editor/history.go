package editor

import "github.com/pipeboard/pipeboard"

// snapshot is an immutable copy of the graph taken before a mutating action.
type snapshot struct {
	nodes []pipeboard.Node
	edges []pipeboard.Edge
}

// history is a fixed-capacity deque of snapshots. Pushing onto a full
// history evicts the oldest entry, so the newest HistoryLimit snapshots
// always win.
type history struct {
	buf   []snapshot
	start int
	count int
}

func newHistory(capacity int) *history {
	return &history{buf: make([]snapshot, capacity)}
}

func (h *history) push(s snapshot) {
	if h.count == len(h.buf) {
		h.buf[h.start] = s
		h.start = (h.start + 1) % len(h.buf)
		return
	}
	h.buf[(h.start+h.count)%len(h.buf)] = s
	h.count++
}

// pop removes and returns the most recent snapshot.
func (h *history) pop() (snapshot, bool) {
	if h.count == 0 {
		return snapshot{}, false
	}
	h.count--
	i := (h.start + h.count) % len(h.buf)
	s := h.buf[i]
	h.buf[i] = snapshot{}
	return s, true
}

func (h *history) clear() {
	for i := range h.buf {
		h.buf[i] = snapshot{}
	}
	h.start = 0
	h.count = 0
}

func (h *history) len() int { return h.count }
