package phenyl

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nacam403/phenyl/session"
)

// login delegates credential verification to the configured authenticator and
// materializes its pre-session into a persisted session. A verification
// failure passes through with its kind intact; only store failures collapse
// to the generic kind.
func (e *Engine) login(ctx context.Context, cmd *LoginCommand, sess *session.Session) *Result {
	if e.authenticator == nil {
		e.metricInc(MetricLoginFailure)
		return &Result{Err: NewError(KindUnauthorized, "no authentication strategy configured")}
	}

	auth, err := e.authenticator.Authenticate(ctx, cmd, sess, e.backends())
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return &Result{Err: AsError(err)}
	}

	pre := auth.PreSession
	if pre.ExpiredAt.IsZero() {
		pre.ExpiredAt = time.Now().Add(e.config.Session.DefaultTTL)
	}

	created, err := e.sessions.Create(ctx, pre)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return &Result{Err: AsError(err)}
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.logger.Debug("session created",
		zap.String("entityName", created.EntityName),
		zap.String("userId", created.UserID))

	return &Result{Kind: CmdLogin, Payload: &LoginResult{
		OK:        1,
		User:      auth.User,
		Session:   created,
		VersionID: auth.VersionID,
	}}
}

// logout destroys the named session. The session id comes from the command,
// not from the resolved request session, so a client can log out a session it
// merely holds the id of.
func (e *Engine) logout(ctx context.Context, cmd *LogoutCommand) *Result {
	deleted, err := e.sessions.Delete(ctx, cmd.SessionID)
	if err != nil {
		return &Result{Err: AsError(err)}
	}
	if !deleted {
		return &Result{Err: NewError(KindBadRequest, "sessionId not found")}
	}

	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionDeleted)
	return &Result{Kind: CmdLogout, Payload: &LogoutResult{OK: 1}}
}
