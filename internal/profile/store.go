package profile

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/debashish-mukherjee/go-snmpsim/internal/walkfile"
)

// slot holds one device_type's current Profile behind an atomic pointer so
// readers never observe a partially-rebuilt tree, plus a refcount tracking
// how many device actors currently hold a reference to it.
type slot struct {
	ptr  atomic.Pointer[Profile]
	refs int32
}

// Store is the registry of all loaded profiles, keyed by device_type.
// Reloading a device_type publishes a brand new Profile via an atomic
// pointer swap; actors that acquired the old Profile keep it alive (Go's
// GC, not an explicit refcount collector) until they release it, at which
// point the refcount purely serves list_profiles/usage reporting.
type Store struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

// NewStore returns an empty profile registry.
func NewStore() *Store {
	return &Store{slots: make(map[string]*slot)}
}

// UnknownDeviceTypeError reports a lookup against a device_type that has
// never been loaded.
type UnknownDeviceTypeError struct {
	DeviceType string
}

func (e *UnknownDeviceTypeError) Error() string {
	return fmt.Sprintf("profile: unknown device_type %q", e.DeviceType)
}

// LoadWalkProfile parses the walk file at path and publishes it as the
// current Profile for deviceType, creating the slot if this is the first
// load or swapping it atomically if deviceType was already loaded.
func (s *Store) LoadWalkProfile(deviceType, path string) (*Profile, error) {
	return s.LoadWalkProfileWithExtras(deviceType, path, nil)
}

// LoadWalkProfileWithExtras is LoadWalkProfile plus synthetic entries (e.g.
// the firmware-upgrade control group's server/filename/status OIDs) that
// don't come from the walk file itself but must be part of the published
// Profile so they resolve on GET/GETNEXT the same as any walked OID.
func (s *Store) LoadWalkProfileWithExtras(deviceType, path string, extra []walkfile.Entry) (*Profile, error) {
	res, err := walkfile.LoadFile(path)
	if err != nil {
		return nil, err
	}
	entries := append(res.Entries, extra...)
	p, err := Build(deviceType, entries)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sl, ok := s.slots[deviceType]
	if !ok {
		sl = &slot{}
		s.slots[deviceType] = sl
	}
	s.mu.Unlock()

	sl.ptr.Store(p)
	return p, nil
}

// Acquire returns the current Profile for deviceType and increments its
// refcount; callers (device actors) must call Release on teardown.
func (s *Store) Acquire(deviceType string) (*Profile, error) {
	s.mu.RLock()
	sl, ok := s.slots[deviceType]
	s.mu.RUnlock()
	if !ok {
		return nil, &UnknownDeviceTypeError{DeviceType: deviceType}
	}
	p := sl.ptr.Load()
	if p == nil {
		return nil, &UnknownDeviceTypeError{DeviceType: deviceType}
	}
	atomic.AddInt32(&sl.refs, 1)
	return p, nil
}

// Release decrements the refcount previously obtained by Acquire.
func (s *Store) Release(deviceType string) {
	s.mu.RLock()
	sl, ok := s.slots[deviceType]
	s.mu.RUnlock()
	if !ok {
		return
	}
	atomic.AddInt32(&sl.refs, -1)
}

// Get returns the current Profile for deviceType without affecting the
// refcount; used by read-only callers like list_profiles and scenario
// planning that don't hold a device actor's lifetime reference.
func (s *Store) Get(deviceType string) (*Profile, bool) {
	s.mu.RLock()
	sl, ok := s.slots[deviceType]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	p := sl.ptr.Load()
	return p, p != nil
}

// ProfileSummary is one list_profiles row.
type ProfileSummary struct {
	DeviceType string
	OIDCount   int
	RefCount   int32
}

// List returns a summary of every loaded profile.
func (s *Store) List() []ProfileSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ProfileSummary, 0, len(s.slots))
	for dt, sl := range s.slots {
		p := sl.ptr.Load()
		n := 0
		if p != nil {
			n = p.Size()
		}
		out = append(out, ProfileSummary{DeviceType: dt, OIDCount: n, RefCount: atomic.LoadInt32(&sl.refs)})
	}
	return out
}
