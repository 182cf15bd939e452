// Package handle exposes the battery library through opaque handles, the
// way it crosses a C boundary: every acquired handle is released exactly
// once, values are fixed-width scalars and absent values are sentinels.
package handle

import (
	"fmt"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battinfo/pkg/battery"
	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

// Handle is an opaque reference to a resource held by a Registry. The
// zero value is the null handle.
type Handle uint64

// Null is returned when there is no resource: end of sequence, absent
// string or failure.
const Null Handle = 0

// Kind is the type of resource a handle refers to.
type Kind uint8

const (
	KindManager Kind = iota + 1
	KindIterator
	KindBattery
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindManager:
		return "manager"
	case KindIterator:
		return "iterator"
	case KindBattery:
		return "battery"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

type entry struct {
	kind  Kind
	value any
	// owner is the manager an iterator was created from.
	owner Handle
}

// Stats counts handle operations of a Registry.
type Stats struct {
	Acquired uint64 `json:"acquired"`
	Released uint64 `json:"released"`
	Live     uint64 `json:"live"`
}

// Registry owns every resource handed out through handles. Handles are
// never reused, so a released handle stays invalid.
type Registry struct {
	mu        sync.Mutex
	next      Handle
	entries   map[Handle]*entry
	iterators map[Handle]int
	acquired  uint64
	released  uint64
	lastErr   error
	opts      []battery.Option
}

// NewRegistry returns an empty Registry. opts are passed to every
// manager created through it.
func NewRegistry(opts ...battery.Option) *Registry {
	return &Registry{
		entries:   make(map[Handle]*entry),
		iterators: make(map[Handle]int),
		opts:      opts,
	}
}

// Default is the registry used by the C library.
var Default = NewRegistry()

func (r *Registry) acquire(kind Kind, value any, owner Handle) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := r.next
	r.entries[h] = &entry{kind: kind, value: value, owner: owner}
	r.acquired++
	if kind == KindIterator {
		r.iterators[owner]++
	}

	return h
}

func (r *Registry) lookup(h Handle, kind Kind) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lookupLocked(h, kind)
}

func (r *Registry) lookupLocked(h Handle, kind Kind) (*entry, error) {
	e, ok := r.entries[h]
	if !ok {
		return nil, pkgerrors.Wrapf(ErrInvalidHandle, "%s handle %d", kind, h)
	}
	if e.kind != kind {
		return nil, pkgerrors.Wrapf(ErrWrongKind, "handle %d is a %s, not a %s", h, e.kind, kind)
	}
	return e, nil
}

// release removes h after check approves the entry.
func (r *Registry) release(h Handle, kind Kind, check func(*entry) error) (*entry, error) {
	if h == Null {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookupLocked(h, kind)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(e); err != nil {
			return nil, err
		}
	}

	delete(r.entries, h)
	r.released++
	if kind == KindIterator {
		r.iterators[e.owner]--
		if r.iterators[e.owner] <= 0 {
			delete(r.iterators, e.owner)
		}
	}

	return e, nil
}

// Stats returns the handle counters.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		Acquired: r.acquired,
		Released: r.released,
		Live:     uint64(len(r.entries)),
	}
}

func (r *Registry) setLastError(err error) {
	logrus.Debugf("battery handle call failed: %v", err)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastErr = err
}

// LastError returns and clears the error of the last failed call.
func (r *Registry) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.lastErr
	r.lastErr = nil
	return err
}

// HaveLastError reports whether a failed call left an error behind.
func (r *Registry) HaveLastError() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastErr != nil
}

// LastErrorMessage returns the text of the stored error without clearing
// it, or "" when there is none.
func (r *Registry) LastErrorMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastErr == nil {
		return ""
	}
	return r.lastErr.Error()
}

// ClearLastError drops the stored error.
func (r *Registry) ClearLastError() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastErr = nil
}

// ManagerNew creates a manager. On failure it returns Null and stores the
// error.
func (r *Registry) ManagerNew() Handle {
	r.ClearLastError()

	m, err := battery.NewManager(r.opts...)
	if err != nil {
		r.setLastError(err)
		return Null
	}

	return r.acquire(KindManager, m, Null)
}

// ManagerIter starts an enumeration on manager m. On failure it returns
// Null and stores the error.
func (r *Registry) ManagerIter(m Handle) Handle {
	r.ClearLastError()

	e, err := r.lookup(m, KindManager)
	if err != nil {
		r.setLastError(err)
		return Null
	}

	it, err := e.value.(*battery.Manager).Batteries()
	if err != nil {
		r.setLastError(err)
		return Null
	}

	return r.acquire(KindIterator, it, m)
}

// ManagerRefresh updates battery b in place. It returns 0 on success and
// 1 on failure, in which case the error is stored.
func (r *Registry) ManagerRefresh(m, b Handle) int {
	r.ClearLastError()

	me, err := r.lookup(m, KindManager)
	if err != nil {
		r.setLastError(err)
		return 1
	}
	be, err := r.lookup(b, KindBattery)
	if err != nil {
		r.setLastError(err)
		return 1
	}

	if err := me.value.(*battery.Manager).Refresh(be.value.(*powerinfo.Battery)); err != nil {
		r.setLastError(err)
		return 1
	}

	return 0
}

// IteratorNext returns the next battery of it. Null means the end of the
// sequence, unless HaveLastError reports a failure.
func (r *Registry) IteratorNext(it Handle) Handle {
	r.ClearLastError()

	e, err := r.lookup(it, KindIterator)
	if err != nil {
		r.setLastError(err)
		return Null
	}

	b, err := e.value.(*battery.Iterator).Next()
	if err != nil {
		r.setLastError(err)
		return Null
	}
	if b == nil {
		return Null
	}

	return r.acquire(KindBattery, b, Null)
}

// ManagerFree releases m. Iterators created from m must be released first.
func (r *Registry) ManagerFree(m Handle) error {
	e, err := r.release(m, KindManager, func(*entry) error {
		if n := r.iterators[m]; n > 0 {
			return pkgerrors.Wrapf(ErrHandleInUse, "manager %d has %d live iterators", m, n)
		}
		return nil
	})
	if err != nil || e == nil {
		return err
	}

	return e.value.(*battery.Manager).Close()
}

// IteratorFree releases it.
func (r *Registry) IteratorFree(it Handle) error {
	e, err := r.release(it, KindIterator, nil)
	if err != nil || e == nil {
		return err
	}

	err = e.value.(*battery.Iterator).Close()
	if pkgerrors.Is(err, battery.ErrIteratorClosed) {
		return nil
	}
	return err
}

// BatteryFree releases b.
func (r *Registry) BatteryFree(b Handle) error {
	_, err := r.release(b, KindBattery, nil)
	return err
}

// StrFree releases s.
func (r *Registry) StrFree(s Handle) error {
	_, err := r.release(s, KindString, nil)
	return err
}

// Str returns the text behind a string handle. It panics on an invalid
// handle.
func (r *Registry) Str(s Handle) string {
	e, err := r.lookup(s, KindString)
	if err != nil {
		panic(err)
	}
	return e.value.(string)
}
