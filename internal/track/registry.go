package track

import "go1090track/internal/message"

// registry is a fixed-size bucket-array hash table of Aircraft, keyed by
// 24-bit ICAO address, generalized from the teacher's map-based Sky type
// into the bucket-chain shape the original tracker uses. AircraftsBuckets
// is a power of two so the bucket index is a mask, not a modulo.
type registry struct {
	buckets [AircraftsBuckets]*Aircraft
	count   int
}

func newRegistry() *registry {
	return &registry{}
}

func bucketIndex(addr uint32) uint32 {
	return addr & (AircraftsBuckets - 1)
}

// find returns the aircraft for addr, or nil.
func (r *registry) find(addr uint32) *Aircraft {
	for a := r.buckets[bucketIndex(addr)]; a != nil; a = a.Next {
		if a.Address == addr {
			return a
		}
	}
	return nil
}

// getOrCreate returns the existing aircraft for msg.Addr, or creates and
// inserts a new one at the head of its bucket chain.
func (r *registry) getOrCreate(msg *message.Message) (a *Aircraft, created bool) {
	if existing := r.find(msg.Addr); existing != nil {
		return existing, false
	}
	a = newAircraft(msg)
	idx := bucketIndex(a.Address)
	a.Next = r.buckets[idx]
	r.buckets[idx] = a
	r.count++
	return a, true
}

// removeStale walks every bucket and unlinks aircraft for which shouldReap
// returns true, returning how many were removed and how many of those had
// only ever received a single message.
func (r *registry) removeStale(shouldReap func(*Aircraft) bool) (removed, singleMessage int) {
	for i := range r.buckets {
		var prev *Aircraft
		a := r.buckets[i]
		for a != nil {
			next := a.Next
			if shouldReap(a) {
				if a.Messages == 1 {
					singleMessage++
				}
				if prev == nil {
					r.buckets[i] = next
				} else {
					prev.Next = next
				}
				removed++
				r.count--
			} else {
				prev = a
			}
			a = next
		}
	}
	return removed, singleMessage
}

// forEach visits every live aircraft. Order is unspecified.
func (r *registry) forEach(fn func(*Aircraft)) {
	for i := range r.buckets {
		for a := r.buckets[i]; a != nil; a = a.Next {
			fn(a)
		}
	}
}

// Count returns the number of tracked aircraft.
func (r *registry) Count() int {
	return r.count
}
