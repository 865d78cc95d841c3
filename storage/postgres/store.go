// Package postgres provides a PostgreSQL operation backend storing entities
// as jsonb rows.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nacam403/phenyl"
	"github.com/nacam403/phenyl/internal/operation"
)

var entitiesTable = `create table if not exists phenyl_entities (
    entity_name text not null,
    id          text not null,
    version_id  text not null,
    body        jsonb not null,
    primary key (entity_name, id))`

// Store implements [phenyl.OperationBackend] over a single jsonb table.
// Equality filters are pushed down with the @> containment operator; update
// operators are applied in Go and written back whole.
type Store struct {
	pool *pgxpool.Pool
}

// New bootstraps the schema and returns the store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, entitiesTable); err != nil {
		return nil, fmt.Errorf("bootstrap entities table: %w", err)
	}
	return &Store{pool: pool}, nil
}

func notFound(msg string) error {
	return phenyl.NewError(phenyl.KindNotFound, msg)
}

func whereJSON(where map[string]any) ([]byte, error) {
	if where == nil {
		where = map[string]any{}
	}
	return json.Marshal(where)
}

func scanEntity(body []byte) (phenyl.Entity, error) {
	var e phenyl.Entity
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("corrupt entity row: %w", err)
	}
	return e, nil
}

func (s *Store) Find(ctx context.Context, q *phenyl.WhereQuery) (*phenyl.EntitiesResult, error) {
	filter, err := whereJSON(q.Where)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`select id, version_id, body from phenyl_entities where entity_name = $1 and body @> $2`,
		q.EntityName, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &phenyl.EntitiesResult{OK: 1, Entities: []phenyl.Entity{}, VersionsByID: map[string]string{}}
	for rows.Next() {
		var id, version string
		var body []byte
		if err := rows.Scan(&id, &version, &body); err != nil {
			return nil, err
		}
		e, err := scanEntity(body)
		if err != nil {
			return nil, err
		}
		res.Entities = append(res.Entities, e)
		res.VersionsByID[id] = version
	}
	return res, rows.Err()
}

func (s *Store) FindOne(ctx context.Context, q *phenyl.WhereQuery) (*phenyl.EntityResult, error) {
	filter, err := whereJSON(q.Where)
	if err != nil {
		return nil, err
	}
	var version string
	var body []byte
	err = s.pool.QueryRow(ctx,
		`select version_id, body from phenyl_entities where entity_name = $1 and body @> $2 limit 1`,
		q.EntityName, filter).Scan(&version, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("entity not found")
	}
	if err != nil {
		return nil, err
	}
	e, err := scanEntity(body)
	if err != nil {
		return nil, err
	}
	return &phenyl.EntityResult{OK: 1, Entity: e, VersionID: version}, nil
}

func (s *Store) Get(ctx context.Context, q *phenyl.IDQuery) (*phenyl.EntityResult, error) {
	var version string
	var body []byte
	err := s.pool.QueryRow(ctx,
		`select version_id, body from phenyl_entities where entity_name = $1 and id = $2`,
		q.EntityName, q.ID).Scan(&version, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("entity " + q.ID + " not found")
	}
	if err != nil {
		return nil, err
	}
	e, err := scanEntity(body)
	if err != nil {
		return nil, err
	}
	return &phenyl.EntityResult{OK: 1, Entity: e, VersionID: version}, nil
}

func (s *Store) GetByIDs(ctx context.Context, q *phenyl.IDsQuery) (*phenyl.EntitiesResult, error) {
	rows, err := s.pool.Query(ctx,
		`select id, version_id, body from phenyl_entities where entity_name = $1 and id = any($2)`,
		q.EntityName, q.IDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := map[string]phenyl.Entity{}
	versions := map[string]string{}
	for rows.Next() {
		var id, version string
		var body []byte
		if err := rows.Scan(&id, &version, &body); err != nil {
			return nil, err
		}
		e, err := scanEntity(body)
		if err != nil {
			return nil, err
		}
		found[id] = e
		versions[id] = version
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res := &phenyl.EntitiesResult{OK: 1, Entities: []phenyl.Entity{}, VersionsByID: map[string]string{}}
	for _, id := range q.IDs {
		e, ok := found[id]
		if !ok {
			return nil, notFound("entity " + id + " not found")
		}
		res.Entities = append(res.Entities, e)
		res.VersionsByID[id] = versions[id]
	}
	return res, nil
}

// insertOne writes one entity row and returns (id, versionId).
func (s *Store) insertOne(ctx context.Context, entityName string, e phenyl.Entity) (string, string, error) {
	stored := e.Clone()
	id := stored.ID()
	if id == "" {
		id = uuid.NewString()
		stored["id"] = id
	}
	version := uuid.NewString()
	body, err := json.Marshal(stored)
	if err != nil {
		return "", "", err
	}
	_, err = s.pool.Exec(ctx,
		`insert into phenyl_entities(entity_name, id, version_id, body) values($1, $2, $3, $4)`,
		entityName, id, version, body)
	if err != nil {
		return "", "", err
	}
	return id, version, nil
}

func insertValues(c *phenyl.InsertCommand) []phenyl.Entity {
	if c.Value != nil {
		return []phenyl.Entity{c.Value}
	}
	return c.Values
}

func (s *Store) Insert(ctx context.Context, c *phenyl.InsertCommand) (*phenyl.CommandResult, error) {
	values := insertValues(c)
	if len(values) == 0 {
		return nil, phenyl.NewError(phenyl.KindBadRequest, "insert command carries no values")
	}

	res := &phenyl.CommandResult{OK: 1, N: len(values)}
	if c.Value != nil {
		_, version, err := s.insertOne(ctx, c.EntityName, c.Value)
		if err != nil {
			return nil, err
		}
		res.VersionID = version
		return res, nil
	}
	res.VersionsByID = map[string]string{}
	for _, e := range values {
		id, version, err := s.insertOne(ctx, c.EntityName, e)
		if err != nil {
			return nil, err
		}
		res.VersionsByID[id] = version
	}
	return res, nil
}

func (s *Store) InsertAndGet(ctx context.Context, c *phenyl.InsertCommand) (*phenyl.EntityResult, error) {
	if c.Value == nil {
		return nil, phenyl.NewError(phenyl.KindBadRequest, "insertAndGet requires a single value")
	}
	id, _, err := s.insertOne(ctx, c.EntityName, c.Value)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, &phenyl.IDQuery{EntityName: c.EntityName, ID: id})
}

func (s *Store) InsertAndFetch(ctx context.Context, c *phenyl.InsertCommand) (*phenyl.EntitiesResult, error) {
	values := insertValues(c)
	if len(values) == 0 {
		return nil, phenyl.NewError(phenyl.KindBadRequest, "insertAndFetch carries no values")
	}
	ids := make([]string, 0, len(values))
	for _, e := range values {
		id, _, err := s.insertOne(ctx, c.EntityName, e)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return s.GetByIDs(ctx, &phenyl.IDsQuery{EntityName: c.EntityName, IDs: ids})
}

// updateIDs applies the operation to every target row inside one transaction
// and returns the ids touched with their new version ids.
func (s *Store) updateIDs(ctx context.Context, c *phenyl.UpdateCommand) (map[string]string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var rows pgx.Rows
	if c.ID != "" {
		rows, err = tx.Query(ctx,
			`select id, body from phenyl_entities where entity_name = $1 and id = $2 for update`,
			c.EntityName, c.ID)
	} else {
		filter, ferr := whereJSON(c.Where)
		if ferr != nil {
			return nil, ferr
		}
		rows, err = tx.Query(ctx,
			`select id, body from phenyl_entities where entity_name = $1 and body @> $2 for update`,
			c.EntityName, filter)
	}
	if err != nil {
		return nil, err
	}

	type target struct {
		id   string
		body phenyl.Entity
	}
	var targets []target
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			rows.Close()
			return nil, err
		}
		e, err := scanEntity(body)
		if err != nil {
			rows.Close()
			return nil, err
		}
		targets = append(targets, target{id: id, body: e})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if c.ID != "" && len(targets) == 0 {
		return nil, notFound("entity " + c.ID + " not found")
	}

	versions := map[string]string{}
	for _, t := range targets {
		updated, err := operation.Apply(t.body, c.Operation)
		if err != nil {
			return nil, phenyl.NewError(phenyl.KindBadRequest, err.Error())
		}
		body, err := json.Marshal(updated)
		if err != nil {
			return nil, err
		}
		version := uuid.NewString()
		if _, err := tx.Exec(ctx,
			`update phenyl_entities set body = $1, version_id = $2 where entity_name = $3 and id = $4`,
			body, version, c.EntityName, t.id); err != nil {
			return nil, err
		}
		versions[t.id] = version
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return versions, nil
}

func (s *Store) Update(ctx context.Context, c *phenyl.UpdateCommand) (*phenyl.CommandResult, error) {
	versions, err := s.updateIDs(ctx, c)
	if err != nil {
		return nil, err
	}
	return &phenyl.CommandResult{OK: 1, N: len(versions), VersionsByID: versions}, nil
}

func (s *Store) UpdateAndGet(ctx context.Context, c *phenyl.UpdateCommand) (*phenyl.EntityResult, error) {
	if c.ID == "" {
		return nil, phenyl.NewError(phenyl.KindBadRequest, "updateAndGet requires an id")
	}
	if _, err := s.updateIDs(ctx, c); err != nil {
		return nil, err
	}
	return s.Get(ctx, &phenyl.IDQuery{EntityName: c.EntityName, ID: c.ID})
}

func (s *Store) UpdateAndFetch(ctx context.Context, c *phenyl.UpdateCommand) (*phenyl.EntitiesResult, error) {
	versions, err := s.updateIDs(ctx, c)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(versions))
	for id := range versions {
		ids = append(ids, id)
	}
	return s.GetByIDs(ctx, &phenyl.IDsQuery{EntityName: c.EntityName, IDs: ids})
}

func (s *Store) Delete(ctx context.Context, c *phenyl.DeleteCommand) (*phenyl.CommandResult, error) {
	if c.ID != "" {
		tag, err := s.pool.Exec(ctx,
			`delete from phenyl_entities where entity_name = $1 and id = $2`,
			c.EntityName, c.ID)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, notFound("entity " + c.ID + " not found")
		}
		return &phenyl.CommandResult{OK: 1, N: 1}, nil
	}

	filter, err := whereJSON(c.Where)
	if err != nil {
		return nil, err
	}
	tag, err := s.pool.Exec(ctx,
		`delete from phenyl_entities where entity_name = $1 and body @> $2`,
		c.EntityName, filter)
	if err != nil {
		return nil, err
	}
	return &phenyl.CommandResult{OK: 1, N: int(tag.RowsAffected())}, nil
}
