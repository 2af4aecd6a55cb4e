package arena

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/laphilosophia/mindfry/common"
)

// PayloadStore holds the extern payload bytes an Engram.PayloadId
// points at. It is backed by a zero-GC-overhead byte cache
// (VictoriaMetrics/fastcache) rather than a Go map, since payload
// blobs are write-once, read-rarely and can be numerous enough that a
// map of []byte would otherwise pressure the GC scan.
type PayloadStore struct {
	cache *fastcache.Cache
	next  uint64
}

// NewPayloadStore creates a payload store with the given approximate
// working-set size in bytes.
func NewPayloadStore(maxBytes int) *PayloadStore {
	return &PayloadStore{cache: fastcache.New(maxBytes)}
}

func payloadKey(id common.PayloadId) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

// Put stores payload and returns the id it can later be retrieved by.
func (p *PayloadStore) Put(payload []byte) common.PayloadId {
	id := common.PayloadId(atomic.AddUint64(&p.next, 1) - 1)
	p.cache.Set(payloadKey(id), payload)
	return id
}

// Get retrieves a previously stored payload. Returns false if id is
// the null sentinel or unknown to the cache (e.g. evicted).
func (p *PayloadStore) Get(id common.PayloadId) ([]byte, bool) {
	if id.IsNull() {
		return nil, false
	}
	buf, found := p.cache.HasGet(nil, payloadKey(id))
	return buf, found
}

// Reset clears the store, e.g. before a resurrect restores a fresh arena set.
func (p *PayloadStore) Reset() {
	p.cache.Reset()
	atomic.StoreUint64(&p.next, 0)
}
