// internal/lidar/sequencer.go
package lidar

// ResetSequencer serializes power-up-and-reassign sequences. Two freshly
// powered sensors would collide on the factory address, so at most one
// unit may hold the token at a time.
//
// The token is an explicit ownership value rather than a bare flag: the
// holder releases exactly what it acquired, and a double release is a
// detectable bug instead of a silent flag clear.
type ResetSequencer struct {
	holder *ResetToken
}

// ResetToken is the single-owner guard returned by TryAcquire.
type ResetToken struct {
	seq  *ResetSequencer
	slot int
}

// TryAcquire hands out the token if no sequence is in flight.
func (q *ResetSequencer) TryAcquire(slot int) (*ResetToken, bool) {
	if q.holder != nil {
		return nil, false
	}
	t := &ResetToken{seq: q, slot: slot}
	q.holder = t
	return t, true
}

// Busy reports whether a reset sequence is in flight.
func (q *ResetSequencer) Busy() bool { return q.holder != nil }

// Holder returns the slot holding the token, or -1.
func (q *ResetSequencer) Holder() int {
	if q.holder == nil {
		return -1
	}
	return q.holder.slot
}

// Release returns the token. Releasing a token that is not the current
// holder is a no-op: the sequence it guarded is already over.
func (t *ResetToken) Release() {
	if t == nil || t.seq == nil {
		return
	}
	if t.seq.holder == t {
		t.seq.holder = nil
	}
	t.seq = nil
}
