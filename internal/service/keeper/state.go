package keeper

import (
	"fmt"

	"github.com/vertextoedge/plots-begone/internal/domain"
	"github.com/vertextoedge/plots-begone/internal/domain/event"
)

// Role is the place a directory currently holds in the rotation
type Role int

const (
	RoleCandidate Role = iota // Waiting in the pool, never cleaned
	RoleIndexed               // Held open for new plots
	RoleSpent                 // Ran out of old plots, never reconsidered
)

// String returns a human-readable name for the role
func (r Role) String() string {
	switch r {
	case RoleIndexed:
		return "indexed"
	case RoleSpent:
		return "spent"
	default:
		return "candidate"
	}
}

// State owns every directory record and its role.
// It is only ever touched by the goroutine processing events.
type State struct {
	reserve int

	index []*domain.Directory
	pool  []*domain.Directory
	spent []*domain.Directory

	roles map[string]Role
	dirs  map[string]*domain.Directory
}

// NewState creates an empty State holding at most reserve indexed directories
func NewState(reserve int) *State {
	return &State{
		reserve: reserve,
		roles:   make(map[string]Role),
		dirs:    make(map[string]*domain.Directory),
	}
}

// Reserve returns the target index size
func (s *State) Reserve() int {
	return s.reserve
}

// Directory looks up a managed directory by path
func (s *State) Directory(path string) (*domain.Directory, bool) {
	d, ok := s.dirs[path]
	return d, ok
}

// Role returns the role of a managed directory
func (s *State) Role(path string) (Role, bool) {
	r, ok := s.roles[path]
	return r, ok
}

// IsIndexed reports whether path is currently in the index
func (s *State) IsIndexed(path string) bool {
	r, ok := s.roles[path]
	return ok && r == RoleIndexed
}

// Index returns the indexed directories in promotion order
func (s *State) Index() []*domain.Directory {
	return append([]*domain.Directory(nil), s.index...)
}

// Candidates returns the pool in the order it will be drawn from
func (s *State) Candidates() []*domain.Directory {
	return append([]*domain.Directory(nil), s.pool...)
}

// Spent returns the directories that left the rotation for good
func (s *State) Spent() []*domain.Directory {
	return append([]*domain.Directory(nil), s.spent...)
}

// Membership returns the current sizes of the three sets
func (s *State) Membership() event.Membership {
	return event.Membership{
		Indexed:    len(s.index),
		Candidates: len(s.pool),
		Spent:      len(s.spent),
	}
}

func (s *State) register(d *domain.Directory, role Role) error {
	if _, ok := s.dirs[d.Path]; ok {
		return fmt.Errorf("directory %s is already managed", d.Path)
	}
	s.dirs[d.Path] = d
	s.roles[d.Path] = role
	return nil
}

func (s *State) addIndexed(d *domain.Directory) error {
	if len(s.index) >= s.reserve {
		return fmt.Errorf("index is full (%d directories)", s.reserve)
	}
	if err := s.register(d, RoleIndexed); err != nil {
		return err
	}
	s.index = append(s.index, d)
	return nil
}

func (s *State) addCandidate(d *domain.Directory) error {
	if err := s.register(d, RoleCandidate); err != nil {
		return err
	}
	s.pool = append(s.pool, d)
	return nil
}

func (s *State) addSpent(d *domain.Directory) error {
	if err := s.register(d, RoleSpent); err != nil {
		return err
	}
	s.spent = append(s.spent, d)
	return nil
}

// demote moves an indexed directory to the spent set
func (s *State) demote(path string) bool {
	if !s.IsIndexed(path) {
		return false
	}
	for i, d := range s.index {
		if d.Path == path {
			s.index = append(s.index[:i], s.index[i+1:]...)
			s.spent = append(s.spent, d)
			s.roles[path] = RoleSpent
			return true
		}
	}
	return false
}

// popCandidate removes the front of the pool. The caller must either
// promote the directory or retire it.
func (s *State) popCandidate() (*domain.Directory, bool) {
	if len(s.pool) == 0 {
		return nil, false
	}
	d := s.pool[0]
	s.pool = s.pool[1:]
	return d, true
}

// promote marks a directory taken from the pool as indexed
func (s *State) promote(d *domain.Directory) error {
	if r, ok := s.roles[d.Path]; !ok || r != RoleCandidate {
		return fmt.Errorf("directory %s is not a candidate", d.Path)
	}
	if len(s.index) >= s.reserve {
		return fmt.Errorf("index is full (%d directories)", s.reserve)
	}
	s.index = append(s.index, d)
	s.roles[d.Path] = RoleIndexed
	return nil
}

// retire moves a directory taken from the pool straight to the spent set
func (s *State) retire(d *domain.Directory) {
	s.spent = append(s.spent, d)
	s.roles[d.Path] = RoleSpent
}

// Verify checks the membership invariants: the index never exceeds the
// reserve and every managed directory sits in exactly one set.
func (s *State) Verify() error {
	if len(s.index) > s.reserve {
		return fmt.Errorf("index holds %d directories, reserve is %d", len(s.index), s.reserve)
	}

	seen := make(map[string]Role, len(s.dirs))
	check := func(list []*domain.Directory, role Role) error {
		for _, d := range list {
			if prev, dup := seen[d.Path]; dup {
				return fmt.Errorf("directory %s is both %s and %s", d.Path, prev, role)
			}
			if s.roles[d.Path] != role {
				return fmt.Errorf("directory %s is listed as %s but recorded as %s", d.Path, role, s.roles[d.Path])
			}
			seen[d.Path] = role
		}
		return nil
	}
	if err := check(s.index, RoleIndexed); err != nil {
		return err
	}
	if err := check(s.pool, RoleCandidate); err != nil {
		return err
	}
	if err := check(s.spent, RoleSpent); err != nil {
		return err
	}
	if len(seen) != len(s.dirs) {
		return fmt.Errorf("%d directories managed but %d placed", len(s.dirs), len(seen))
	}
	return nil
}
