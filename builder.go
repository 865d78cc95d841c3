package phenyl

import (
	"errors"

	"go.uber.org/zap"

	"github.com/nacam403/phenyl/session"
)

// Builder assembles an [Engine]. Hooks left unset behave as pass-through: a
// nil authorizer allows everything, a nil validator accepts everything, a nil
// wrapper dispatches directly.
type Builder struct {
	config Config

	backend  OperationBackend
	sessions session.Store

	authorizer     Authorizer
	validator      Validator
	wrapper        ExecutionWrapper
	authenticator  Authenticator
	customQueries  CustomQueryHandler
	customCommands CustomCommandHandler

	logger *zap.Logger

	built bool
}

// New starts a builder with defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBackend sets the operation backend. Required.
func (b *Builder) WithBackend(backend OperationBackend) *Builder {
	b.backend = backend
	return b
}

// WithSessionStore sets the session store. Required.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessions = store
	return b
}

// WithAuthorizer sets the ACL hook.
func (b *Builder) WithAuthorizer(a Authorizer) *Builder {
	b.authorizer = a
	return b
}

// WithValidator sets the semantic validation hook.
func (b *Builder) WithValidator(v Validator) *Builder {
	b.validator = v
	return b
}

// WithExecutionWrapper sets the execution-wrapping hook.
func (b *Builder) WithExecutionWrapper(w ExecutionWrapper) *Builder {
	b.wrapper = w
	return b
}

// WithAuthenticator sets the credential verification hook.
func (b *Builder) WithAuthenticator(a Authenticator) *Builder {
	b.authenticator = a
	return b
}

// WithCustomQueries sets the runCustomQuery handler.
func (b *Builder) WithCustomQueries(h CustomQueryHandler) *Builder {
	b.customQueries = h
	return b
}

// WithCustomCommands sets the runCustomCommand handler.
func (b *Builder) WithCustomCommands(h CustomCommandHandler) *Builder {
	b.customCommands = h
	return b
}

// WithRegistry binds every hook to a per-entity definition registry.
func (b *Builder) WithRegistry(r *Registry) *Builder {
	b.authorizer = r
	b.validator = r
	b.wrapper = r
	b.authenticator = r
	b.customQueries = r
	b.customCommands = r
	return b
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles the engine. The builder is
// single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.backend == nil {
		return nil, errors.New("operation backend required")
	}
	if b.sessions == nil {
		return nil, errors.New("session store required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var metrics *Metrics
	if b.config.Metrics.Enabled {
		metrics = newMetrics()
	}

	b.built = true
	return &Engine{
		config:         b.config,
		backend:        b.backend,
		sessions:       b.sessions,
		authorizer:     b.authorizer,
		validator:      b.validator,
		wrapper:        b.wrapper,
		authenticator:  b.authenticator,
		customQueries:  b.customQueries,
		customCommands: b.customCommands,
		metrics:        metrics,
		logger:         logger,
	}, nil
}
