package session

import "time"

// Session is a persisted login session. Instances are immutable after
// creation; the store deletes them on logout or lets them lapse at ExpiredAt.
type Session struct {
	ID         string    `json:"id"`
	EntityName string    `json:"entityName"`
	UserID     string    `json:"userId"`
	ExpiredAt  time.Time `json:"expiredAt"`
}

// PreSession is the ephemeral descriptor produced by a successful
// authentication attempt. It is consumed exactly once by [Store.Create] to
// materialize a [Session]; it carries no identifier of its own.
type PreSession struct {
	EntityName string    `json:"entityName"`
	UserID     string    `json:"userId"`
	ExpiredAt  time.Time `json:"expiredAt"`
}
