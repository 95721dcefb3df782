package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	// Seed a PRNG from crypto/rand so ULID entropy is unpredictable.
	// ulid.Monotonic keeps ids generated within the same millisecond
	// lexicographically increasing.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID string stamped with the current wall clock.
func New() string {
	return NewAt(time.Now())
}

// NewAt returns a ULID string stamped with t. Trade entries and notes take
// their ids from the journal clock so ids sort in the order they were created,
// even when the clock is simulated.
func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), mono)
	if err != nil {
		// Monotonic entropy only fails when a millisecond overflows or the
		// clock moves backwards; fall back to fresh entropy.
		id = ulid.MustNew(ulid.Timestamp(t.UTC()), cryptoRand.Reader)
	}
	return id.String()
}

// Time returns the timestamp embedded in a ULID string.
func Time(s string) (time.Time, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(id.Time()), nil
}
