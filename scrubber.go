package phenyl

import "github.com/nacam403/phenyl/password"

// EncryptPasswordInCommand returns a copy of the command with any plaintext
// password replaced by its transformed value, so the plaintext never reaches
// the operation backend. Covered variants: the insert and update families and
// login credentials. Commands without a password field pass through unchanged.
//
// The default transform is not idempotent; apply this exactly once per
// request.
func EncryptPasswordInCommand(cmd *Command, field string, t password.Transform) (*Command, error) {
	switch p := cmd.Payload.(type) {
	case *InsertCommand:
		value, err := encryptEntity(p.Value, field, t)
		if err != nil {
			return nil, err
		}
		values, err := encryptEntities(p.Values, field, t)
		if err != nil {
			return nil, err
		}
		if value == nil && values == nil {
			return cmd, nil
		}
		out := *p
		if value != nil {
			out.Value = value
		}
		if values != nil {
			out.Values = values
		}
		return &Command{Kind: cmd.Kind, Payload: &out}, nil

	case *UpdateCommand:
		op, err := encryptOperation(p.Operation, field, t)
		if err != nil {
			return nil, err
		}
		if op == nil {
			return cmd, nil
		}
		out := *p
		out.Operation = op
		return &Command{Kind: cmd.Kind, Payload: &out}, nil

	case *LoginCommand:
		plaintext, ok := p.Credentials[field]
		if !ok {
			return cmd, nil
		}
		encrypted, err := t.Apply(plaintext)
		if err != nil {
			return nil, err
		}
		creds := make(map[string]string, len(p.Credentials))
		for k, v := range p.Credentials {
			creds[k] = v
		}
		creds[field] = encrypted
		out := *p
		out.Credentials = creds
		return &Command{Kind: cmd.Kind, Payload: &out}, nil

	default:
		return cmd, nil
	}
}

// encryptEntity returns a clone with the field transformed, or nil when the
// entity carries no such field.
func encryptEntity(e Entity, field string, t password.Transform) (Entity, error) {
	plaintext, ok := e[field].(string)
	if !ok {
		return nil, nil
	}
	encrypted, err := t.Apply(plaintext)
	if err != nil {
		return nil, err
	}
	out := e.Clone()
	out[field] = encrypted
	return out, nil
}

func encryptEntities(es []Entity, field string, t password.Transform) ([]Entity, error) {
	var out []Entity
	for i, e := range es {
		enc, err := encryptEntity(e, field, t)
		if err != nil {
			return nil, err
		}
		if enc == nil {
			continue
		}
		if out == nil {
			out = make([]Entity, len(es))
			copy(out, es)
		}
		out[i] = enc
	}
	return out, nil
}

// encryptOperation transforms the field inside "$set" and among bare
// (operator-less) keys. Returns nil when the operation is untouched.
func encryptOperation(op map[string]any, field string, t password.Transform) (map[string]any, error) {
	set, _ := op["$set"].(map[string]any)
	_, inSet := set[field].(string)
	_, bare := op[field].(string)
	if !inSet && !bare {
		return nil, nil
	}

	out := make(map[string]any, len(op))
	for k, v := range op {
		out[k] = v
	}
	if bare {
		encrypted, err := t.Apply(op[field].(string))
		if err != nil {
			return nil, err
		}
		out[field] = encrypted
	}
	if inSet {
		newSet := make(map[string]any, len(set))
		for k, v := range set {
			newSet[k] = v
		}
		encrypted, err := t.Apply(set[field].(string))
		if err != nil {
			return nil, err
		}
		newSet[field] = encrypted
		out["$set"] = newSet
	}
	return out, nil
}

// RemovePasswordFromResult deletes the password field from every entity in a
// success payload, in place. Error results pass through unchanged. Backends
// return cloned entities, so scrubbing never reaches stored data.
func RemovePasswordFromResult(res *Result, field string) {
	if res == nil || res.Err != nil {
		return
	}
	switch p := res.Payload.(type) {
	case *EntityResult:
		delete(p.Entity, field)
	case *EntitiesResult:
		for _, e := range p.Entities {
			delete(e, field)
		}
	case *LoginResult:
		delete(p.User, field)
	}
}
