package components

// TrailSpacing is the number of head samples between consecutive body segments.
const TrailSpacing = 3

// TrailOffset returns the ring-buffer offset a body segment reads from.
// Segment 0 is the head and always sits at the live position.
func TrailOffset(segment int) int {
	return segment*TrailSpacing + 2
}

// TrailCapacity returns the ring-buffer capacity needed for n segments.
func TrailCapacity(n, slack int) int {
	if slack < 1 {
		slack = 1
	}
	return n*TrailSpacing + slack
}

// Trail is a fixed-capacity ring buffer of historical head positions.
// It is always full: construction pre-fills it so every offset resolves.
type Trail struct {
	buf  []Vec2
	head int // index of the newest sample
}

// NewTrail creates a trail of the given capacity laid out in a straight line
// behind start, opposite to heading dir, one sample every spacing units.
func NewTrail(capacity int, start, dir Vec2, spacing float64) Trail {
	if capacity < 1 {
		capacity = 1
	}
	t := Trail{buf: make([]Vec2, capacity), head: capacity - 1}
	back := dir.Normalize().Scale(-spacing)
	for age := 0; age < capacity; age++ {
		t.buf[t.index(age)] = start.Add(back.Scale(float64(age)))
	}
	return t
}

// Cap returns the buffer capacity.
func (t *Trail) Cap() int { return len(t.buf) }

// Push records a new newest sample, overwriting the oldest.
func (t *Trail) Push(p Vec2) {
	t.head++
	if t.head == len(t.buf) {
		t.head = 0
	}
	t.buf[t.head] = p
}

// At returns the sample recorded offset pushes ago. Offsets past the
// capacity resolve to the oldest sample.
func (t *Trail) At(offset int) Vec2 {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(t.buf) {
		offset = len(t.buf) - 1
	}
	return t.buf[t.index(offset)]
}

// Oldest returns the oldest sample.
func (t *Trail) Oldest() Vec2 {
	return t.At(len(t.buf) - 1)
}

// Reserve grows the buffer to at least capacity samples, keeping order.
// New slots are filled with the oldest sample. It never shrinks.
func (t *Trail) Reserve(capacity int) {
	old := len(t.buf)
	if capacity <= old {
		return
	}
	buf := make([]Vec2, capacity)
	oldest := t.Oldest()
	for age := 0; age < capacity; age++ {
		if age < old {
			buf[capacity-1-age] = t.At(age)
		} else {
			buf[capacity-1-age] = oldest
		}
	}
	t.buf = buf
	t.head = capacity - 1
}

// Translate shifts every sample by d.
func (t *Trail) Translate(d Vec2) {
	for i := range t.buf {
		t.buf[i] = t.buf[i].Add(d)
	}
}

// index maps an age (0 = newest) to a slot.
func (t *Trail) index(age int) int {
	n := len(t.buf)
	return ((t.head-age)%n + n) % n
}
