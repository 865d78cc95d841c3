package phenyl

import (
	"context"

	"github.com/nacam403/phenyl/session"
)

// Registry routes the pipeline hooks to per-entity definitions and the custom
// handlers registered by name. A definition is any value; the registry probes
// it for the optional capabilities ([Authorizer], [Validator],
// [ExecutionWrapper], [Authenticator]) and falls back to pass-through for the
// ones it does not implement. Registration happens at construction time;
// after that the registry is read-only and safe for concurrent use.
type Registry struct {
	definitions map[string]any
	queries     map[string]CustomQueryHandler
	commands    map[string]CustomCommandHandler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]any),
		queries:     make(map[string]CustomQueryHandler),
		commands:    make(map[string]CustomCommandHandler),
	}
}

// RegisterEntity binds a definition to an entity name, replacing any previous
// one.
func (r *Registry) RegisterEntity(entityName string, def any) *Registry {
	r.definitions[entityName] = def
	return r
}

// RegisterUser binds a standard user definition under its own entity name.
func (r *Registry) RegisterUser(def *StandardUserDefinition) *Registry {
	return r.RegisterEntity(def.EntityName(), def)
}

// RegisterCustomQuery binds a read-only handler to a query name.
func (r *Registry) RegisterCustomQuery(name string, h CustomQueryHandler) *Registry {
	r.queries[name] = h
	return r
}

// RegisterCustomCommand binds a side-effecting handler to a command name.
func (r *Registry) RegisterCustomCommand(name string, h CustomCommandHandler) *Registry {
	r.commands[name] = h
	return r
}

// Authorize consults the target entity's definition, allowing by default.
func (r *Registry) Authorize(ctx context.Context, cmd *Command, sess *session.Session, b Backends) (bool, error) {
	if a, ok := r.definitions[cmd.EntityName()].(Authorizer); ok {
		return a.Authorize(ctx, cmd, sess, b)
	}
	return true, nil
}

// Validate consults the target entity's definition, accepting by default.
func (r *Registry) Validate(ctx context.Context, cmd *Command, sess *session.Session, b Backends) (bool, error) {
	if v, ok := r.definitions[cmd.EntityName()].(Validator); ok {
		return v.Validate(ctx, cmd, sess, b)
	}
	return true, nil
}

// Wrap hands dispatch to the target entity's wrapper, or dispatches directly
// when the definition has none.
func (r *Registry) Wrap(ctx context.Context, cmd *Command, sess *session.Session, b Backends, next Dispatch) (*Result, error) {
	if w, ok := r.definitions[cmd.EntityName()].(ExecutionWrapper); ok {
		return w.Wrap(ctx, cmd, sess, b, next)
	}
	return next(ctx, cmd, sess), nil
}

// Authenticate delegates to the login entity's authenticator. Entities
// without one cannot log in.
func (r *Registry) Authenticate(ctx context.Context, cmd *LoginCommand, sess *session.Session, b Backends) (*AuthenticationResult, error) {
	if a, ok := r.definitions[cmd.EntityName].(Authenticator); ok {
		return a.Authenticate(ctx, cmd, sess, b)
	}
	return nil, NewError(KindUnauthorized, "entity "+cmd.EntityName+" does not support login")
}

// RunCustomQuery resolves the handler by name.
func (r *Registry) RunCustomQuery(ctx context.Context, q *CustomQuery, sess *session.Session, b Backends) (*CustomResult, error) {
	h, ok := r.queries[q.Name]
	if !ok {
		return nil, NewError(KindNotFound, "Invalid method name.")
	}
	return h.RunCustomQuery(ctx, q, sess, b)
}

// RunCustomCommand resolves the handler by name.
func (r *Registry) RunCustomCommand(ctx context.Context, c *CustomCommand, sess *session.Session, b Backends) (*CustomResult, error) {
	h, ok := r.commands[c.Name]
	if !ok {
		return nil, NewError(KindNotFound, "Invalid method name.")
	}
	return h.RunCustomCommand(ctx, c, sess, b)
}
