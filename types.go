package phenyl

import (
	"context"

	"github.com/nacam403/phenyl/session"
)

// CommandKind names one command envelope variant. The string values are the
// wire keys of both the command and the result envelopes.
type CommandKind string

const (
	CmdFind             CommandKind = "find"
	CmdFindOne          CommandKind = "findOne"
	CmdGet              CommandKind = "get"
	CmdGetByIDs         CommandKind = "getByIds"
	CmdInsert           CommandKind = "insert"
	CmdInsertAndGet     CommandKind = "insertAndGet"
	CmdInsertAndFetch   CommandKind = "insertAndFetch"
	CmdUpdate           CommandKind = "update"
	CmdUpdateAndGet     CommandKind = "updateAndGet"
	CmdUpdateAndFetch   CommandKind = "updateAndFetch"
	CmdDelete           CommandKind = "delete"
	CmdRunCustomQuery   CommandKind = "runCustomQuery"
	CmdRunCustomCommand CommandKind = "runCustomCommand"
	CmdLogin            CommandKind = "login"
	CmdLogout           CommandKind = "logout"
)

// DispatchOrder is the fixed first-match priority used when a wire envelope
// populates more than one variant. Kept positional for compatibility with the
// original runtime.
var DispatchOrder = []CommandKind{
	CmdFind, CmdFindOne, CmdGet, CmdGetByIDs,
	CmdInsert, CmdInsertAndGet, CmdInsertAndFetch,
	CmdUpdate, CmdUpdateAndGet, CmdUpdateAndFetch,
	CmdDelete, CmdRunCustomQuery, CmdRunCustomCommand,
	CmdLogin, CmdLogout,
}

// Entity is an opaque stored record. The pipeline only ever interprets the
// "id" field and, in the standard user strategy, the configured account and
// password fields.
type Entity map[string]any

// ID returns the entity's "id" field, or "" when absent or not a string.
func (e Entity) ID() string {
	id, _ := e["id"].(string)
	return id
}

// Clone returns a shallow copy. Scrubbing and update application always work
// on clones so backend-held maps are never mutated through a response.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// WhereQuery selects entities by equality on the given fields.
type WhereQuery struct {
	EntityName string         `json:"entityName"`
	Where      map[string]any `json:"where"`
}

// IDQuery selects a single entity by id.
type IDQuery struct {
	EntityName string `json:"entityName"`
	ID         string `json:"id"`
}

// IDsQuery selects entities by id list.
type IDsQuery struct {
	EntityName string   `json:"entityName"`
	IDs        []string `json:"ids"`
}

// InsertCommand inserts one entity (Value) or several (Values). Exactly one
// of the two should be populated; Value wins when both are.
type InsertCommand struct {
	EntityName string   `json:"entityName"`
	Value      Entity   `json:"value,omitempty"`
	Values     []Entity `json:"values,omitempty"`
}

// UpdateCommand updates the entity named by ID, or every entity matching
// Where. Operation holds "$set"-style operators; bare keys are treated as a
// plain $set.
type UpdateCommand struct {
	EntityName string         `json:"entityName"`
	ID         string         `json:"id,omitempty"`
	Where      map[string]any `json:"where,omitempty"`
	Operation  map[string]any `json:"operation"`
}

// DeleteCommand deletes by id or by equality filter.
type DeleteCommand struct {
	EntityName string         `json:"entityName"`
	ID         string         `json:"id,omitempty"`
	Where      map[string]any `json:"where,omitempty"`
}

// CustomQuery invokes a registered read-only handler by name.
type CustomQuery struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// CustomCommand invokes a registered side-effecting handler by name.
type CustomCommand struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// LoginCommand carries credentials for one user entity.
type LoginCommand struct {
	EntityName  string            `json:"entityName"`
	Credentials map[string]string `json:"credentials"`
}

// LogoutCommand names the session to destroy.
type LogoutCommand struct {
	SessionID string `json:"sessionId"`
}

// Command is the normalized command envelope: one discriminant, one payload.
// Construct through the typed constructors or [WireEnvelope.Normalize] so the
// payload type always matches the kind.
type Command struct {
	Kind    CommandKind
	Payload any
}

func FindCommand(q *WhereQuery) *Command          { return &Command{Kind: CmdFind, Payload: q} }
func FindOneCommand(q *WhereQuery) *Command       { return &Command{Kind: CmdFindOne, Payload: q} }
func GetCommand(q *IDQuery) *Command              { return &Command{Kind: CmdGet, Payload: q} }
func GetByIDsCommand(q *IDsQuery) *Command        { return &Command{Kind: CmdGetByIDs, Payload: q} }
func InsertCmd(c *InsertCommand) *Command         { return &Command{Kind: CmdInsert, Payload: c} }
func InsertAndGetCmd(c *InsertCommand) *Command   { return &Command{Kind: CmdInsertAndGet, Payload: c} }
func InsertAndFetchCmd(c *InsertCommand) *Command { return &Command{Kind: CmdInsertAndFetch, Payload: c} }
func UpdateCmd(c *UpdateCommand) *Command         { return &Command{Kind: CmdUpdate, Payload: c} }
func UpdateAndGetCmd(c *UpdateCommand) *Command   { return &Command{Kind: CmdUpdateAndGet, Payload: c} }
func UpdateAndFetchCmd(c *UpdateCommand) *Command { return &Command{Kind: CmdUpdateAndFetch, Payload: c} }
func DeleteCmd(c *DeleteCommand) *Command         { return &Command{Kind: CmdDelete, Payload: c} }
func RunCustomQueryCmd(q *CustomQuery) *Command   { return &Command{Kind: CmdRunCustomQuery, Payload: q} }
func RunCustomCommandCmd(c *CustomCommand) *Command {
	return &Command{Kind: CmdRunCustomCommand, Payload: c}
}
func LoginCmd(c *LoginCommand) *Command   { return &Command{Kind: CmdLogin, Payload: c} }
func LogoutCmd(c *LogoutCommand) *Command { return &Command{Kind: CmdLogout, Payload: c} }

// EntityName returns the entity the command targets, or "" for commands that
// have none (custom handlers, logout).
func (c *Command) EntityName() string {
	switch p := c.Payload.(type) {
	case *WhereQuery:
		return p.EntityName
	case *IDQuery:
		return p.EntityName
	case *IDsQuery:
		return p.EntityName
	case *InsertCommand:
		return p.EntityName
	case *UpdateCommand:
		return p.EntityName
	case *DeleteCommand:
		return p.EntityName
	case *LoginCommand:
		return p.EntityName
	default:
		return ""
	}
}

// EntityResult wraps a single entity success payload.
type EntityResult struct {
	OK        int    `json:"ok"`
	Entity    Entity `json:"entity"`
	VersionID string `json:"versionId,omitempty"`
}

// EntitiesResult wraps a list success payload.
type EntitiesResult struct {
	OK           int               `json:"ok"`
	Entities     []Entity          `json:"entities"`
	VersionsByID map[string]string `json:"versionsById,omitempty"`
}

// CommandResult wraps a write acknowledgement.
type CommandResult struct {
	OK           int               `json:"ok"`
	N            int               `json:"n"`
	VersionID    string            `json:"versionId,omitempty"`
	VersionsByID map[string]string `json:"versionsById,omitempty"`
}

// CustomResult wraps a custom handler's payload.
type CustomResult struct {
	OK     int `json:"ok"`
	Result any `json:"result,omitempty"`
}

// LoginResult wraps a successful login.
type LoginResult struct {
	OK        int              `json:"ok"`
	User      Entity           `json:"user"`
	Session   *session.Session `json:"session"`
	VersionID string           `json:"versionId,omitempty"`
}

// LogoutResult acknowledges a logout.
type LogoutResult struct {
	OK int `json:"ok"`
}

// Result is the result envelope: either Kind+Payload on success or Err on
// failure, never both.
type Result struct {
	Kind    CommandKind
	Payload any
	Err     *Error
}

// OperationBackend performs the data operations against stored entities.
// Failures are returned as errors; a *Error return keeps its kind all the way
// to the caller, anything else becomes the generic kind.
type OperationBackend interface {
	Find(ctx context.Context, q *WhereQuery) (*EntitiesResult, error)
	FindOne(ctx context.Context, q *WhereQuery) (*EntityResult, error)
	Get(ctx context.Context, q *IDQuery) (*EntityResult, error)
	GetByIDs(ctx context.Context, q *IDsQuery) (*EntitiesResult, error)
	Insert(ctx context.Context, c *InsertCommand) (*CommandResult, error)
	InsertAndGet(ctx context.Context, c *InsertCommand) (*EntityResult, error)
	InsertAndFetch(ctx context.Context, c *InsertCommand) (*EntitiesResult, error)
	Update(ctx context.Context, c *UpdateCommand) (*CommandResult, error)
	UpdateAndGet(ctx context.Context, c *UpdateCommand) (*EntityResult, error)
	UpdateAndFetch(ctx context.Context, c *UpdateCommand) (*EntitiesResult, error)
	Delete(ctx context.Context, c *DeleteCommand) (*CommandResult, error)
}

// Backends bundles the shared collaborators handed to every hook.
type Backends struct {
	Entity  OperationBackend
	Session session.Store
}

// Dispatch is the bound raw dispatcher an [ExecutionWrapper] decorates.
type Dispatch func(ctx context.Context, cmd *Command, sess *session.Session) *Result

// Authorizer is the ACL hook, consulted before validation. Returning false
// rejects the request with Unauthorized; an error aborts with the generic kind.
type Authorizer interface {
	Authorize(ctx context.Context, cmd *Command, sess *session.Session, b Backends) (bool, error)
}

// Validator is the semantic validation hook, consulted after the ACL hook.
// Returning false rejects the request with BadRequest.
type Validator interface {
	Validate(ctx context.Context, cmd *Command, sess *session.Session, b Backends) (bool, error)
}

// ExecutionWrapper decorates the raw dispatcher. It may transform the command
// before calling next and the result after; its result is the pipeline's
// final result.
type ExecutionWrapper interface {
	Wrap(ctx context.Context, cmd *Command, sess *session.Session, b Backends, next Dispatch) (*Result, error)
}

// AuthenticationResult is a successful credential verification: the
// pre-session to materialize, the matched user, and its version id.
type AuthenticationResult struct {
	PreSession session.PreSession
	User       Entity
	VersionID  string
}

// Authenticator verifies login credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, cmd *LoginCommand, sess *session.Session, b Backends) (*AuthenticationResult, error)
}

// CustomQueryHandler serves runCustomQuery commands.
type CustomQueryHandler interface {
	RunCustomQuery(ctx context.Context, q *CustomQuery, sess *session.Session, b Backends) (*CustomResult, error)
}

// CustomCommandHandler serves runCustomCommand commands.
type CustomCommandHandler interface {
	RunCustomCommand(ctx context.Context, c *CustomCommand, sess *session.Session, b Backends) (*CustomResult, error)
}
