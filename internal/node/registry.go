// Package node is the in-process device-node namespace.
//
// Registration publishes an eve.Device at a fixed path per chip
// variant ("/dev/ft800", "/dev/ft801"); callers open handles by path
// and remove nodes with Unlink. Minor numbers come from a small
// bitmask free-list, independent of the device core.
//
// Unlinking a path removes it from the namespace immediately — no new
// opens can reach the device — and then signals the device, which
// destroys itself once the last open handle closes.
package node

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-display/internal/eve"
)

// Domain errors for the node package.
var (
	// ErrNotFound is returned when a path is not in the namespace.
	ErrNotFound = errors.New("node: not found")

	// ErrExists is returned when publishing a path that is already taken.
	ErrExists = errors.New("node: already exists")

	// ErrNoFreeMinor is returned when the minor-number table is full.
	ErrNoFreeMinor = errors.New("node: no free minor number")
)

// maxMinors is the size of the minor-number table.
const maxMinors = 32

// Info describes one published node.
type Info struct {
	Path  string
	Minor int
}

// Registry maps node paths to registered devices.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	nodes  map[string]*entry
	minors uint32 // bitmask of allocated minor numbers
}

type entry struct {
	dev   *eve.Device
	minor int
}

// NewRegistry creates an empty namespace.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]*entry)}
}

// Publish makes dev reachable at path, allocating a minor number.
func (r *Registry) Publish(path string, dev *eve.Device) (int, error) {
	if path == "" || dev == nil {
		return 0, errors.New("node: path and device are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[path]; ok {
		return 0, fmt.Errorf("%w: %s", ErrExists, path)
	}

	minor, err := r.allocMinorLocked()
	if err != nil {
		return 0, err
	}

	r.nodes[path] = &entry{dev: dev, minor: minor}
	return minor, nil
}

// Open opens a handle on the device published at path.
func (r *Registry) Open(path string) (*eve.Handle, error) {
	r.mu.Lock()
	e, ok := r.nodes[path]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return e.dev.Open()
}

// Device returns the device published at path, for monitoring.
func (r *Registry) Device(path string) (*eve.Device, error) {
	r.mu.Lock()
	e, ok := r.nodes[path]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return e.dev, nil
}

// Unlink removes the node at path and marks its device unlinked. The
// device destroys itself now if nothing holds it open, otherwise when
// the last handle closes.
func (r *Registry) Unlink(path string) error {
	r.mu.Lock()
	e, ok := r.nodes[path]
	if ok {
		delete(r.nodes, path)
		r.freeMinorLocked(e.minor)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return e.dev.Unlink()
}

// List returns the published nodes sorted by path.
func (r *Registry) List() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Info, 0, len(r.nodes))
	for path, e := range r.nodes {
		out = append(out, Info{Path: path, Minor: e.minor})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// allocMinorLocked takes the lowest free slot from the minor table.
// Caller holds mu.
func (r *Registry) allocMinorLocked() (int, error) {
	for minor := 0; minor < maxMinors; minor++ {
		if r.minors&(1<<minor) == 0 {
			r.minors |= 1 << minor
			return minor, nil
		}
	}
	return 0, ErrNoFreeMinor
}

// freeMinorLocked returns a slot to the minor table. Caller holds mu.
func (r *Registry) freeMinorLocked(minor int) {
	if minor >= 0 && minor < maxMinors {
		r.minors &^= 1 << minor
	}
}
