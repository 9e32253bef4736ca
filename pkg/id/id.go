// Package id generates time-sortable identifiers for trade and pattern
// records. ULIDs keep SQLite primary-key indexes append-friendly and make
// record IDs sort by creation time.
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
	// ulid.Monotonic keeps IDs generated within the same millisecond
	// lexicographically increasing.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID string.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), mono)
	if err != nil {
		// Only possible if time goes backwards or entropy fails.
		panic(err)
	}
	return id.String()
}

// NewTrade returns an identifier for a live trade decision. Backtest
// imports carry their own BT- identifiers; live records use this form.
func NewTrade() string {
	return "T-" + New()
}

// NewObservation returns an identifier for a hand-entered pattern.
func NewObservation() string {
	return "OBS-" + New()
}
