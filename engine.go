package phenyl

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nacam403/phenyl/session"
)

// Engine is the authorization pipeline and command dispatcher. Configure it
// through [Builder]; after Build it holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	config         Config
	backend        OperationBackend
	sessions       session.Store
	authorizer     Authorizer
	validator      Validator
	wrapper        ExecutionWrapper
	authenticator  Authenticator
	customQueries  CustomQueryHandler
	customCommands CustomCommandHandler
	metrics        *Metrics
	logger         *zap.Logger
}

func (e *Engine) backends() Backends {
	return Backends{Entity: e.backend, Session: e.sessions}
}

// Run is the sole pipeline entry point. It resolves the session, runs the ACL
// and validation hooks in order, hands the command to the execution wrapper,
// and dispatches to the matching backend operation. Run never returns an
// error and never panics: every failure, including a panic in a hook or
// collaborator, resolves to a *Result carrying an *Error.
func (e *Engine) Run(ctx context.Context, cmd *Command, sessionID string) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("pipeline panic recovered", zap.Any("panic", r))
			res = &Result{Err: NewError(KindInternal, fmt.Sprintf("%v", r))}
			e.metricInc(MetricRunFailure)
			e.metricInc(MetricInternalError)
		}
	}()

	e.metricInc(MetricRunTotal)
	res = e.run(ctx, cmd, sessionID)
	if res.Err != nil {
		e.metricInc(MetricRunFailure)
		e.metricIncKind(res.Err.Kind)
		e.logger.Debug("pipeline rejected request",
			zap.String("kind", res.Err.Kind.String()),
			zap.String("message", res.Err.Message))
	}
	return res
}

func (e *Engine) run(ctx context.Context, cmd *Command, sessionID string) *Result {
	// An absent or stale session id is not an error; hooks decide what an
	// anonymous request may do.
	var sess *session.Session
	if sessionID != "" {
		s, err := e.sessions.Get(ctx, sessionID)
		if err != nil {
			return &Result{Err: AsError(err)}
		}
		sess = s
	}

	if cmd == nil {
		return &Result{Err: NewError(KindInvalidRequest, "missing command")}
	}
	if err := cmd.validate(); err != nil {
		return &Result{Err: err}
	}

	b := e.backends()

	if e.authorizer != nil {
		ok, err := e.authorizer.Authorize(ctx, cmd, sess, b)
		if err != nil {
			return &Result{Err: AsError(err)}
		}
		if !ok {
			return &Result{Err: NewError(KindUnauthorized, "Authorization Required.")}
		}
	}

	if e.validator != nil {
		ok, err := e.validator.Validate(ctx, cmd, sess, b)
		if err != nil {
			return &Result{Err: AsError(err)}
		}
		if !ok {
			return &Result{Err: NewError(KindBadRequest, "Params are not valid.")}
		}
	}

	if e.wrapper != nil {
		res, err := e.wrapper.Wrap(ctx, cmd, sess, b, e.dispatch)
		if err != nil {
			return &Result{Err: AsError(err)}
		}
		return res
	}
	return e.dispatch(ctx, cmd, sess)
}

// dispatch invokes the backend operation matching the command variant. Shape
// was already validated, so payload assertions here cannot fail for
// recognized kinds.
func (e *Engine) dispatch(ctx context.Context, cmd *Command, sess *session.Session) *Result {
	switch cmd.Kind {
	case CmdFind:
		r, err := e.backend.Find(ctx, cmd.Payload.(*WhereQuery))
		return outcome(cmd.Kind, r, err)
	case CmdFindOne:
		r, err := e.backend.FindOne(ctx, cmd.Payload.(*WhereQuery))
		return outcome(cmd.Kind, r, err)
	case CmdGet:
		r, err := e.backend.Get(ctx, cmd.Payload.(*IDQuery))
		return outcome(cmd.Kind, r, err)
	case CmdGetByIDs:
		r, err := e.backend.GetByIDs(ctx, cmd.Payload.(*IDsQuery))
		return outcome(cmd.Kind, r, err)
	case CmdInsert:
		r, err := e.backend.Insert(ctx, cmd.Payload.(*InsertCommand))
		return outcome(cmd.Kind, r, err)
	case CmdInsertAndGet:
		r, err := e.backend.InsertAndGet(ctx, cmd.Payload.(*InsertCommand))
		return outcome(cmd.Kind, r, err)
	case CmdInsertAndFetch:
		r, err := e.backend.InsertAndFetch(ctx, cmd.Payload.(*InsertCommand))
		return outcome(cmd.Kind, r, err)
	case CmdUpdate:
		r, err := e.backend.Update(ctx, cmd.Payload.(*UpdateCommand))
		return outcome(cmd.Kind, r, err)
	case CmdUpdateAndGet:
		r, err := e.backend.UpdateAndGet(ctx, cmd.Payload.(*UpdateCommand))
		return outcome(cmd.Kind, r, err)
	case CmdUpdateAndFetch:
		r, err := e.backend.UpdateAndFetch(ctx, cmd.Payload.(*UpdateCommand))
		return outcome(cmd.Kind, r, err)
	case CmdDelete:
		r, err := e.backend.Delete(ctx, cmd.Payload.(*DeleteCommand))
		return outcome(cmd.Kind, r, err)
	case CmdRunCustomQuery:
		if e.customQueries == nil {
			return &Result{Err: NewError(KindNotFound, "Invalid method name.")}
		}
		r, err := e.customQueries.RunCustomQuery(ctx, cmd.Payload.(*CustomQuery), sess, e.backends())
		return outcome(cmd.Kind, r, err)
	case CmdRunCustomCommand:
		if e.customCommands == nil {
			return &Result{Err: NewError(KindNotFound, "Invalid method name.")}
		}
		r, err := e.customCommands.RunCustomCommand(ctx, cmd.Payload.(*CustomCommand), sess, e.backends())
		return outcome(cmd.Kind, r, err)
	case CmdLogin:
		return e.login(ctx, cmd.Payload.(*LoginCommand), sess)
	case CmdLogout:
		return e.logout(ctx, cmd.Payload.(*LogoutCommand))
	default:
		return &Result{Err: NewError(KindNotFound, "Invalid method name.")}
	}
}

// outcome wraps a backend call's result-or-error under the matching variant.
// Backend failures pass through verbatim, never retried.
func outcome(kind CommandKind, payload any, err error) *Result {
	if err != nil {
		return &Result{Err: AsError(err)}
	}
	return &Result{Kind: kind, Payload: payload}
}
