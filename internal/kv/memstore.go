package kv

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/oxhq/qdb/internal/qerr"
)

// MemStore is an in-memory Store, used by internal/exec and internal/session
// tests in place of a real backend (spec.md §4.10's "reference backends" are
// non-goals for production but the test suite needs one of its own).
type MemStore struct {
	mu   sync.Mutex
	data map[string][]byte // committed state only
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: map[string][]byte{}}
}

func (s *MemStore) Begin(ctx context.Context) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string][]byte, len(s.data))
	for k, v := range s.data {
		snapshot[k] = v
	}
	return &memTx{
		store:    s,
		snapshot: snapshot,
		pending:  map[string]*pendingWrite{},
	}, nil
}

func (s *MemStore) Close() error { return nil }

type pendingWrite struct {
	val     []byte
	deleted bool
}

// memTx is a copy-on-write transaction: reads check pending first, then the
// snapshot taken at Begin; Commit replays pending into the store under lock.
type memTx struct {
	store    *MemStore
	snapshot map[string][]byte
	pending  map[string]*pendingWrite
	marks    []map[string]*pendingWrite // savepoint stack, each a copy of pending at mark time
	done     bool
}

func (t *memTx) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	if t.done {
		return nil, false, qerr.New(qerr.ECRuntime, "transaction already closed")
	}
	k := string(key)
	if pw, ok := t.pending[k]; ok {
		if pw.deleted {
			return nil, false, nil
		}
		return pw.val, true, nil
	}
	v, ok := t.snapshot[k]
	return v, ok, nil
}

func (t *memTx) Set(_ context.Context, key, val []byte) error {
	if t.done {
		return qerr.New(qerr.ECRuntime, "transaction already closed")
	}
	cp := append([]byte(nil), val...)
	t.pending[string(key)] = &pendingWrite{val: cp}
	return nil
}

func (t *memTx) Delete(_ context.Context, key []byte) error {
	if t.done {
		return qerr.New(qerr.ECRuntime, "transaction already closed")
	}
	t.pending[string(key)] = &pendingWrite{deleted: true}
	return nil
}

func (t *memTx) ScanRange(_ context.Context, from, to []byte, fromIncl, toIncl, reverse bool) (Iterator, error) {
	if t.done {
		return nil, qerr.New(qerr.ECRuntime, "transaction already closed")
	}
	seen := map[string]bool{}
	var keys []string
	collect := func(k string) {
		if seen[k] {
			return
		}
		seen[k] = true
		kb := []byte(k)
		if from != nil {
			c := bytes.Compare(kb, from)
			if c < 0 || (c == 0 && !fromIncl) {
				return
			}
		}
		if to != nil {
			c := bytes.Compare(kb, to)
			if c > 0 || (c == 0 && !toIncl) {
				return
			}
		}
		keys = append(keys, k)
	}
	for k := range t.snapshot {
		collect(k)
	}
	for k := range t.pending {
		collect(k)
	}
	sort.Strings(keys)
	if reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}

	rows := make([]kvPair, 0, len(keys))
	for _, k := range keys {
		val, ok, _ := t.Get(context.Background(), []byte(k))
		if !ok {
			continue
		}
		rows = append(rows, kvPair{key: []byte(k), val: val})
	}
	return &memIterator{rows: rows, pos: -1}, nil
}

func (t *memTx) Savepoint(_ context.Context) (Savepoint, error) {
	if t.done {
		return nil, qerr.New(qerr.ECRuntime, "transaction already closed")
	}
	mark := make(map[string]*pendingWrite, len(t.pending))
	for k, v := range t.pending {
		mark[k] = v
	}
	idx := len(t.marks)
	t.marks = append(t.marks, mark)
	return &memSavepoint{tx: t, idx: idx}, nil
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return qerr.New(qerr.ECRuntime, "transaction already closed")
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for k, pw := range t.pending {
		if pw.deleted {
			delete(t.store.data, k)
		} else {
			t.store.data[k] = pw.val
		}
	}
	t.done = true
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	t.done = true
	return nil
}

type memSavepoint struct {
	tx  *memTx
	idx int
}

func (sp *memSavepoint) RollbackTo(_ context.Context) error {
	if sp.idx >= len(sp.tx.marks) {
		return qerr.New(qerr.ECRuntime, "savepoint already released")
	}
	sp.tx.pending = sp.tx.marks[sp.idx]
	sp.tx.marks = sp.tx.marks[:sp.idx]
	return nil
}

func (sp *memSavepoint) Release(_ context.Context) error {
	if sp.idx < len(sp.tx.marks) {
		sp.tx.marks = sp.tx.marks[:sp.idx]
	}
	return nil
}

type kvPair struct {
	key []byte
	val []byte
}

type memIterator struct {
	rows []kvPair
	pos  int
}

func (it *memIterator) Next() bool {
	it.pos++
	return it.pos < len(it.rows)
}

func (it *memIterator) Key() []byte   { return it.rows[it.pos].key }
func (it *memIterator) Value() []byte { return it.rows[it.pos].val }
func (it *memIterator) Err() error    { return nil }
func (it *memIterator) Close() error  { return nil }
