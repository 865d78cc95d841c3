package phenyl

import (
	"context"
	"time"

	"github.com/nacam403/phenyl/password"
	"github.com/nacam403/phenyl/session"
)

const (
	defaultAccountField  = "account"
	defaultPasswordField = "password"
	defaultSessionTTL    = 365 * 24 * time.Hour
)

// StandardUserDefinition is the account/password authentication strategy for
// one user-like entity. It implements [Authenticator] (credential
// verification) and [ExecutionWrapper] (password confidentiality across the
// request/response boundary), so registering it on an entity wires both.
type StandardUserDefinition struct {
	entityName    string
	accountField  string
	passwordField string
	transform     password.Transform
	sessionTTL    time.Duration
}

// NewStandardUserDefinition builds the strategy with defaults: fields
// "account"/"password", the SHA-256 transform, a one-year session TTL.
func NewStandardUserDefinition(entityName string) *StandardUserDefinition {
	return &StandardUserDefinition{
		entityName:    entityName,
		accountField:  defaultAccountField,
		passwordField: defaultPasswordField,
		transform:     password.SHA256{},
		sessionTTL:    defaultSessionTTL,
	}
}

// WithAccountField overrides the credential field holding the account name.
func (d *StandardUserDefinition) WithAccountField(name string) *StandardUserDefinition {
	d.accountField = name
	return d
}

// WithPasswordField overrides the credential field holding the password.
func (d *StandardUserDefinition) WithPasswordField(name string) *StandardUserDefinition {
	d.passwordField = name
	return d
}

// WithTransform overrides the one-way password transform.
func (d *StandardUserDefinition) WithTransform(t password.Transform) *StandardUserDefinition {
	d.transform = t
	return d
}

// WithSessionTTL overrides the session time-to-live.
func (d *StandardUserDefinition) WithSessionTTL(ttl time.Duration) *StandardUserDefinition {
	d.sessionTTL = ttl
	return d
}

// EntityName returns the user entity this definition governs.
func (d *StandardUserDefinition) EntityName() string {
	return d.entityName
}

// Authenticate verifies the credentials by recomputing the transform and
// querying for an exact match on both fields. Verification failures and
// backend failures are deliberately indistinguishable to the caller: both
// yield Unauthorized carrying the backend's message.
func (d *StandardUserDefinition) Authenticate(ctx context.Context, cmd *LoginCommand, _ *session.Session, b Backends) (*AuthenticationResult, error) {
	account := cmd.Credentials[d.accountField]
	plaintext := cmd.Credentials[d.passwordField]

	encrypted, err := d.transform.Apply(plaintext)
	if err != nil {
		return nil, NewError(KindUnauthorized, err.Error())
	}

	res, err := b.Entity.FindOne(ctx, &WhereQuery{
		EntityName: cmd.EntityName,
		Where: map[string]any{
			d.accountField:  account,
			d.passwordField: encrypted,
		},
	})
	if err != nil {
		return nil, NewError(KindUnauthorized, AsError(err).Message)
	}

	user := res.Entity
	return &AuthenticationResult{
		PreSession: session.PreSession{
			EntityName: cmd.EntityName,
			UserID:     user.ID(),
			ExpiredAt:  time.Now().Add(d.sessionTTL),
		},
		User:      user,
		VersionID: res.VersionID,
	}, nil
}

// Wrap encrypts inbound passwords before dispatch and scrubs outbound ones
// after. Login commands are left untouched on the way in — Authenticate
// applies the one transform during lookup, and transforming here as well
// would double-encrypt — but login responses are still scrubbed.
func (d *StandardUserDefinition) Wrap(ctx context.Context, cmd *Command, sess *session.Session, _ Backends, next Dispatch) (*Result, error) {
	if cmd.Kind != CmdLogin {
		scrubbed, err := EncryptPasswordInCommand(cmd, d.passwordField, d.transform)
		if err != nil {
			return nil, err
		}
		cmd = scrubbed
	}

	res := next(ctx, cmd, sess)
	RemovePasswordFromResult(res, d.passwordField)
	return res, nil
}
