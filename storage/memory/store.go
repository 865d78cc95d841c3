// Package memory provides an in-process operation backend for tests and
// single-node development.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nacam403/phenyl"
	"github.com/nacam403/phenyl/internal/operation"
)

// Store implements [phenyl.OperationBackend] over nested maps. Entities are
// cloned on the way in and out, so callers can scrub or mutate results
// without touching stored data. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	data     map[string]map[string]phenyl.Entity
	versions map[string]map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		data:     make(map[string]map[string]phenyl.Entity),
		versions: make(map[string]map[string]string),
	}
}

func notFound(msg string) error {
	return phenyl.NewError(phenyl.KindNotFound, msg)
}

func (s *Store) collection(entityName string) map[string]phenyl.Entity {
	if s.data[entityName] == nil {
		s.data[entityName] = make(map[string]phenyl.Entity)
		s.versions[entityName] = make(map[string]string)
	}
	return s.data[entityName]
}

func (s *Store) Find(_ context.Context, q *phenyl.WhereQuery) (*phenyl.EntitiesResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := &phenyl.EntitiesResult{OK: 1, Entities: []phenyl.Entity{}, VersionsByID: map[string]string{}}
	for id, e := range s.data[q.EntityName] {
		if operation.Match(e, q.Where) {
			res.Entities = append(res.Entities, e.Clone())
			res.VersionsByID[id] = s.versions[q.EntityName][id]
		}
	}
	return res, nil
}

func (s *Store) FindOne(_ context.Context, q *phenyl.WhereQuery) (*phenyl.EntityResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, e := range s.data[q.EntityName] {
		if operation.Match(e, q.Where) {
			return &phenyl.EntityResult{OK: 1, Entity: e.Clone(), VersionID: s.versions[q.EntityName][id]}, nil
		}
	}
	return nil, notFound("entity not found")
}

func (s *Store) Get(_ context.Context, q *phenyl.IDQuery) (*phenyl.EntityResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[q.EntityName][q.ID]
	if !ok {
		return nil, notFound("entity " + q.ID + " not found")
	}
	return &phenyl.EntityResult{OK: 1, Entity: e.Clone(), VersionID: s.versions[q.EntityName][q.ID]}, nil
}

func (s *Store) GetByIDs(_ context.Context, q *phenyl.IDsQuery) (*phenyl.EntitiesResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := &phenyl.EntitiesResult{OK: 1, Entities: []phenyl.Entity{}, VersionsByID: map[string]string{}}
	for _, id := range q.IDs {
		e, ok := s.data[q.EntityName][id]
		if !ok {
			return nil, notFound("entity " + id + " not found")
		}
		res.Entities = append(res.Entities, e.Clone())
		res.VersionsByID[id] = s.versions[q.EntityName][id]
	}
	return res, nil
}

// insertOne stores a clone and returns (id, versionId). Caller holds the lock.
func (s *Store) insertOne(entityName string, e phenyl.Entity) (string, string) {
	stored := e.Clone()
	id := stored.ID()
	if id == "" {
		id = uuid.NewString()
		stored["id"] = id
	}
	version := uuid.NewString()
	s.collection(entityName)[id] = stored
	s.versions[entityName][id] = version
	return id, version
}

func (s *Store) values(c *phenyl.InsertCommand) []phenyl.Entity {
	if c.Value != nil {
		return []phenyl.Entity{c.Value}
	}
	return c.Values
}

func (s *Store) Insert(_ context.Context, c *phenyl.InsertCommand) (*phenyl.CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.values(c)
	if len(values) == 0 {
		return nil, phenyl.NewError(phenyl.KindBadRequest, "insert command carries no values")
	}

	res := &phenyl.CommandResult{OK: 1, N: len(values)}
	if c.Value != nil {
		_, res.VersionID = s.insertOne(c.EntityName, c.Value)
		return res, nil
	}
	res.VersionsByID = map[string]string{}
	for _, e := range values {
		id, version := s.insertOne(c.EntityName, e)
		res.VersionsByID[id] = version
	}
	return res, nil
}

func (s *Store) InsertAndGet(_ context.Context, c *phenyl.InsertCommand) (*phenyl.EntityResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Value == nil {
		return nil, phenyl.NewError(phenyl.KindBadRequest, "insertAndGet requires a single value")
	}
	id, version := s.insertOne(c.EntityName, c.Value)
	return &phenyl.EntityResult{OK: 1, Entity: s.data[c.EntityName][id].Clone(), VersionID: version}, nil
}

func (s *Store) InsertAndFetch(_ context.Context, c *phenyl.InsertCommand) (*phenyl.EntitiesResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.values(c)
	if len(values) == 0 {
		return nil, phenyl.NewError(phenyl.KindBadRequest, "insertAndFetch carries no values")
	}
	res := &phenyl.EntitiesResult{OK: 1, Entities: []phenyl.Entity{}, VersionsByID: map[string]string{}}
	for _, e := range values {
		id, version := s.insertOne(c.EntityName, e)
		res.Entities = append(res.Entities, s.data[c.EntityName][id].Clone())
		res.VersionsByID[id] = version
	}
	return res, nil
}

// targets resolves the ids an update or delete applies to. Caller holds the
// lock. A by-id miss is an error; an empty by-where match is not.
func (s *Store) targets(entityName, id string, where map[string]any) ([]string, error) {
	if id != "" {
		if _, ok := s.data[entityName][id]; !ok {
			return nil, notFound("entity " + id + " not found")
		}
		return []string{id}, nil
	}
	var ids []string
	for eid, e := range s.data[entityName] {
		if operation.Match(e, where) {
			ids = append(ids, eid)
		}
	}
	return ids, nil
}

func (s *Store) updateTargets(c *phenyl.UpdateCommand) ([]string, error) {
	ids, err := s.targets(c.EntityName, c.ID, c.Where)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		updated, err := operation.Apply(s.data[c.EntityName][id], c.Operation)
		if err != nil {
			return nil, phenyl.NewError(phenyl.KindBadRequest, err.Error())
		}
		s.data[c.EntityName][id] = updated
		s.versions[c.EntityName][id] = uuid.NewString()
	}
	return ids, nil
}

func (s *Store) Update(_ context.Context, c *phenyl.UpdateCommand) (*phenyl.CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.updateTargets(c)
	if err != nil {
		return nil, err
	}
	res := &phenyl.CommandResult{OK: 1, N: len(ids), VersionsByID: map[string]string{}}
	for _, id := range ids {
		res.VersionsByID[id] = s.versions[c.EntityName][id]
	}
	return res, nil
}

func (s *Store) UpdateAndGet(_ context.Context, c *phenyl.UpdateCommand) (*phenyl.EntityResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		return nil, phenyl.NewError(phenyl.KindBadRequest, "updateAndGet requires an id")
	}
	if _, err := s.updateTargets(c); err != nil {
		return nil, err
	}
	return &phenyl.EntityResult{OK: 1, Entity: s.data[c.EntityName][c.ID].Clone(), VersionID: s.versions[c.EntityName][c.ID]}, nil
}

func (s *Store) UpdateAndFetch(_ context.Context, c *phenyl.UpdateCommand) (*phenyl.EntitiesResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.updateTargets(c)
	if err != nil {
		return nil, err
	}
	res := &phenyl.EntitiesResult{OK: 1, Entities: []phenyl.Entity{}, VersionsByID: map[string]string{}}
	for _, id := range ids {
		res.Entities = append(res.Entities, s.data[c.EntityName][id].Clone())
		res.VersionsByID[id] = s.versions[c.EntityName][id]
	}
	return res, nil
}

func (s *Store) Delete(_ context.Context, c *phenyl.DeleteCommand) (*phenyl.CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.targets(c.EntityName, c.ID, c.Where)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		delete(s.data[c.EntityName], id)
		delete(s.versions[c.EntityName], id)
	}
	return &phenyl.CommandResult{OK: 1, N: len(ids)}, nil
}
