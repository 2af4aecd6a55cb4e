package persistence

import (
	"encoding/binary"

	"github.com/laphilosophia/mindfry/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// namespace prefixes every key by entity kind, so lineage, bond and
// snapshot ids can share one flat leveldb instance without colliding
// (grounded on the teacher's rawdb key-prefixing convention, e.g.
// headerPrefix/blockBodyPrefix in core/rawdb/schema.go).
type namespace byte

const (
	nsLineage namespace = iota
	nsBond
	nsSnapshot
	nsKeyIndex
)

// Store is the durable storage engine backing snapshot persistence: a
// single leveldb database with big-endian 8-byte keys per namespace,
// so iteration within a namespace is numerically ordered.
type Store struct {
	db *leveldb.DB
}

// OpenStore opens (creating if absent) a leveldb database at path.
func OpenStore(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, &common.KindError{Err: common.ErrStorage, Detail: err.Error()}
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error { return s.db.Close() }

func key(ns namespace, id uint64) []byte {
	b := make([]byte, 9)
	b[0] = byte(ns)
	binary.BigEndian.PutUint64(b[1:], id)
	return b
}

// Put writes value under (ns, id), overwriting any prior value.
func (s *Store) put(ns namespace, id uint64, value []byte) error {
	if err := s.db.Put(key(ns, id), value, &opt.WriteOptions{Sync: true}); err != nil {
		return &common.KindError{Err: common.ErrStorage, Detail: err.Error()}
	}
	return nil
}

func (s *Store) get(ns namespace, id uint64) ([]byte, bool) {
	v, err := s.db.Get(key(ns, id), nil)
	if err != nil {
		return nil, false
	}
	return v, true
}

func (s *Store) delete(ns namespace, id uint64) error {
	return s.db.Delete(key(ns, id), nil)
}

// iterateNamespace walks every (id, value) pair in ns, in ascending
// key order, until fn returns false.
func (s *Store) iterateNamespace(ns namespace, fn func(id uint64, value []byte) bool) {
	prefix := []byte{byte(ns)}
	it := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()
	for it.Next() {
		id := binary.BigEndian.Uint64(it.Key()[1:])
		value := append([]byte(nil), it.Value()...)
		if !fn(id, value) {
			return
		}
	}
}
