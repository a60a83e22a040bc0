package world

import (
	"battlesim/coords"
	"battlesim/simerr"

	"github.com/bytearena/ecs"
	"github.com/brentp/intintmap"
)

// Store is the columnar squad store. Ids are caller-assigned and stable
// while the squad is in the store. Remove forgets the id entirely, so the
// store does not stop a later Spawn from reusing it. Internally, a squad id
// maps through a dense int64 index (intintmap, as dragonfly's world storage
// uses for id->slot lookups) into a parallel slice of *ecs.Entity, so
// Get/Remove are O(1) instead of the linear entity scan the teacher's
// GetComponentTypeByID falls back to when a library has no native id
// lookup.
type Store struct {
	Manager    *ecs.Manager
	Components *Components

	index    *intintmap.Map // squad id (int64) -> dense slot (int64)
	entities []*ecs.Entity
	ids      []uint32 // entities[i] has id ids[i]
}

// NewStore creates an empty world store.
func NewStore() *Store {
	manager := ecs.NewManager()
	return &Store{
		Manager:    manager,
		Components: newComponents(manager),
		index:      intintmap.New(1024, 0.6),
		entities:   make([]*ecs.Entity, 0, 1024),
		ids:        make([]uint32, 0, 1024),
	}
}

// Len returns the number of live (including one-tick-dead) squads.
func (s *Store) Len() int { return len(s.entities) }

// Has reports whether id currently exists in the store.
func (s *Store) Has(id uint32) bool {
	_, ok := s.index.Get(int64(id))
	return ok
}

// Get resolves a squad id to its entity in O(1), or (nil, false) if it
// does not exist.
func (s *Store) Get(id uint32) (*ecs.Entity, bool) {
	slot, ok := s.index.Get(int64(id))
	if !ok {
		return nil, false
	}
	return s.entities[slot], true
}

// Spawn creates a new squad entity with the given id. Returns IdConflict if
// the id already exists (§4.1): the command fails and no squad is created.
func (s *Store) Spawn(id uint32, faction Faction, pos coords.Position) (*ecs.Entity, error) {
	if s.Has(id) {
		return nil, &simerr.IdConflict{ID: id}
	}

	c := s.Components
	e := s.Manager.NewEntity().
		AddComponent(c.Position, &coords.Position{X: pos.X, Y: pos.Y}).
		AddComponent(c.Velocity, &coords.Vector{}).
		AddComponent(c.Core, &SquadCore{ID: id, Faction: faction, Order: Order{Kind: OrderHold}}).
		AddComponent(c.Activity, &ActivityFlags{}).
		AddComponent(c.LOD, &LODTierState{Tier: LODHigh}).
		AddComponent(c.Sector, &SectorID{}).
		AddComponent(c.Perception, &PerceptionCache{})

	slot := int64(len(s.entities))
	s.entities = append(s.entities, e)
	s.ids = append(s.ids, id)
	s.index.Put(int64(id), slot)

	return e, nil
}

// Remove deletes the squad permanently from the store (swap-remove keeps
// the dense slice compact) and disposes its ECS entity.
func (s *Store) Remove(id uint32) bool {
	slot, ok := s.index.Get(int64(id))
	if !ok {
		return false
	}

	last := int64(len(s.entities) - 1)
	e := s.entities[slot]

	if slot != last {
		movedEntity := s.entities[last]
		movedID := s.ids[last]
		s.entities[slot] = movedEntity
		s.ids[slot] = movedID
		s.index.Put(int64(movedID), slot)
	}

	s.entities = s.entities[:last]
	s.ids = s.ids[:last]
	s.index.Del(int64(id))

	s.Manager.DisposeEntity(e)
	simerr.Assertf(len(s.entities) == len(s.ids), "store: entities/ids length mismatch after Remove: %d vs %d", len(s.entities), len(s.ids))
	return true
}

// All returns the dense slice of every entity currently in the store. It
// is the store's only "iterate raw storage" escape hatch, used internally
// by systems; every external-facing query goes through typed accessors
// instead (§4.1).
func (s *Store) All() []*ecs.Entity {
	return s.entities
}
