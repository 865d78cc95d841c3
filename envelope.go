package phenyl

import "encoding/json"

// WireEnvelope is the JSON form of the command envelope: one optional field
// per variant plus the session id. A well-formed envelope populates exactly
// one variant; Normalize tolerates more by picking the first recognized one
// in [DispatchOrder].
type WireEnvelope struct {
	SessionID string `json:"sessionId,omitempty"`

	Find             *WhereQuery    `json:"find,omitempty"`
	FindOne          *WhereQuery    `json:"findOne,omitempty"`
	Get              *IDQuery       `json:"get,omitempty"`
	GetByIDs         *IDsQuery      `json:"getByIds,omitempty"`
	Insert           *InsertCommand `json:"insert,omitempty"`
	InsertAndGet     *InsertCommand `json:"insertAndGet,omitempty"`
	InsertAndFetch   *InsertCommand `json:"insertAndFetch,omitempty"`
	Update           *UpdateCommand `json:"update,omitempty"`
	UpdateAndGet     *UpdateCommand `json:"updateAndGet,omitempty"`
	UpdateAndFetch   *UpdateCommand `json:"updateAndFetch,omitempty"`
	Delete           *DeleteCommand `json:"delete,omitempty"`
	RunCustomQuery   *CustomQuery   `json:"runCustomQuery,omitempty"`
	RunCustomCommand *CustomCommand `json:"runCustomCommand,omitempty"`
	Login            *LoginCommand  `json:"login,omitempty"`
	Logout           *LogoutCommand `json:"logout,omitempty"`
}

func (w *WireEnvelope) payload(kind CommandKind) any {
	switch kind {
	case CmdFind:
		if w.Find != nil {
			return w.Find
		}
	case CmdFindOne:
		if w.FindOne != nil {
			return w.FindOne
		}
	case CmdGet:
		if w.Get != nil {
			return w.Get
		}
	case CmdGetByIDs:
		if w.GetByIDs != nil {
			return w.GetByIDs
		}
	case CmdInsert:
		if w.Insert != nil {
			return w.Insert
		}
	case CmdInsertAndGet:
		if w.InsertAndGet != nil {
			return w.InsertAndGet
		}
	case CmdInsertAndFetch:
		if w.InsertAndFetch != nil {
			return w.InsertAndFetch
		}
	case CmdUpdate:
		if w.Update != nil {
			return w.Update
		}
	case CmdUpdateAndGet:
		if w.UpdateAndGet != nil {
			return w.UpdateAndGet
		}
	case CmdUpdateAndFetch:
		if w.UpdateAndFetch != nil {
			return w.UpdateAndFetch
		}
	case CmdDelete:
		if w.Delete != nil {
			return w.Delete
		}
	case CmdRunCustomQuery:
		if w.RunCustomQuery != nil {
			return w.RunCustomQuery
		}
	case CmdRunCustomCommand:
		if w.RunCustomCommand != nil {
			return w.RunCustomCommand
		}
	case CmdLogin:
		if w.Login != nil {
			return w.Login
		}
	case CmdLogout:
		if w.Logout != nil {
			return w.Logout
		}
	}
	return nil
}

// Normalize collapses the wire envelope to a typed [Command], picking the
// first populated variant in dispatch order. An envelope with no recognized
// variant yields a NotFound error.
func (w *WireEnvelope) Normalize() (*Command, error) {
	for _, kind := range DispatchOrder {
		if p := w.payload(kind); p != nil {
			return &Command{Kind: kind, Payload: p}, nil
		}
	}
	return nil, NewError(KindNotFound, "Invalid method name.")
}

// validate checks the structural shape of the command: a recognized kind must
// carry a non-nil payload of the matching type. Unknown kinds are left for
// dispatch, which reports NotFound.
func (c *Command) validate() *Error {
	malformed := func() *Error {
		return NewError(KindInvalidRequest, "malformed "+string(c.Kind)+" command")
	}
	switch c.Kind {
	case CmdFind, CmdFindOne:
		if q, ok := c.Payload.(*WhereQuery); !ok || q == nil {
			return malformed()
		}
	case CmdGet:
		if q, ok := c.Payload.(*IDQuery); !ok || q == nil {
			return malformed()
		}
	case CmdGetByIDs:
		if q, ok := c.Payload.(*IDsQuery); !ok || q == nil {
			return malformed()
		}
	case CmdInsert, CmdInsertAndGet, CmdInsertAndFetch:
		if p, ok := c.Payload.(*InsertCommand); !ok || p == nil {
			return malformed()
		}
	case CmdUpdate, CmdUpdateAndGet, CmdUpdateAndFetch:
		if p, ok := c.Payload.(*UpdateCommand); !ok || p == nil {
			return malformed()
		}
	case CmdDelete:
		if p, ok := c.Payload.(*DeleteCommand); !ok || p == nil {
			return malformed()
		}
	case CmdRunCustomQuery:
		if p, ok := c.Payload.(*CustomQuery); !ok || p == nil {
			return malformed()
		}
	case CmdRunCustomCommand:
		if p, ok := c.Payload.(*CustomCommand); !ok || p == nil {
			return malformed()
		}
	case CmdLogin:
		if p, ok := c.Payload.(*LoginCommand); !ok || p == nil {
			return malformed()
		}
	case CmdLogout:
		if p, ok := c.Payload.(*LogoutCommand); !ok || p == nil {
			return malformed()
		}
	}
	return nil
}

// MarshalJSON emits the result envelope wire form: {"error":…} on failure,
// {"<variant>":…} on success. Callers distinguish the two solely by key.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(map[string]*Error{"error": r.Err})
	}
	return json.Marshal(map[CommandKind]any{r.Kind: r.Payload})
}
