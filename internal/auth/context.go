package auth

import "strings"

// Context is the authenticated session handed to each session object at
// construction. The zero value is an anonymous visitor.
type Context struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
	Role   string `json:"role,omitempty"`
	Email  string `json:"email,omitempty"`
}

func (c Context) Authenticated() bool {
	return strings.TrimSpace(c.UserID) != "" && strings.TrimSpace(c.Token) != ""
}

// Anonymous is the unauthenticated context.
var Anonymous = Context{}
