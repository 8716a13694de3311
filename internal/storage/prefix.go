package storage

// PrefixDB is a keyspace inside another DB: every key gets a fixed prefix.
// The address index keeps its address and per-wallet tables apart this way.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB returns a namespace of inner under prefix.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: append([]byte(nil), prefix...)}
}

func prefixKey(prefix, key []byte) []byte {
	out := make([]byte, len(prefix)+len(key))
	copy(out, prefix)
	copy(out[len(prefix):], key)
	return out
}

// Prefix returns a copy of the namespace prefix.
func (p *PrefixDB) Prefix() []byte {
	return append([]byte(nil), p.prefix...)
}

func (p *PrefixDB) Get(key []byte) ([]byte, error) {
	return p.inner.Get(prefixKey(p.prefix, key))
}

func (p *PrefixDB) Put(key, value []byte) error {
	return p.inner.Put(prefixKey(p.prefix, key), value)
}

func (p *PrefixDB) Delete(key []byte) error {
	return p.inner.Delete(prefixKey(p.prefix, key))
}

func (p *PrefixDB) Has(key []byte) (bool, error) {
	return p.inner.Has(prefixKey(p.prefix, key))
}

// ForEach iterates over keys starting with prefix inside the namespace.
// Keys passed to fn have the namespace prefix stripped.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.prefix)
	return p.inner.ForEach(prefixKey(p.prefix, prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// Close is a no-op; the inner DB owns the lifecycle.
func (p *PrefixDB) Close() error {
	return nil
}

// PrefixedBatch wraps b so every key gets prefix prepended. One batch of
// the inner DB can then write several namespaces in a single commit.
func PrefixedBatch(b Batch, prefix []byte) Batch {
	return &prefixBatch{inner: b, prefix: append([]byte(nil), prefix...)}
}

type prefixBatch struct {
	inner  Batch
	prefix []byte
}

func (pb *prefixBatch) Put(key, value []byte) error {
	return pb.inner.Put(prefixKey(pb.prefix, key), value)
}

func (pb *prefixBatch) Delete(key []byte) error {
	return pb.inner.Delete(prefixKey(pb.prefix, key))
}

func (pb *prefixBatch) Commit() error {
	return pb.inner.Commit()
}
