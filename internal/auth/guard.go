// Package auth implements the wallet allow-list role checks and the admin
// route guard. This is UI-level gating only: the Policast contract's role
// system rejects unauthorized writes regardless of what the gateway serves,
// so the allow-lists are injectable configuration, not a security control.
package auth

import "strings"

// Roles holds the configured wallet allow-lists, one per privileged role.
type Roles struct {
	Admins     []string
	Creators   []string
	Validators []string
	Resolvers  []string
}

// RoleSet answers allow-list membership queries. Addresses are compared
// case-insensitively.
type RoleSet struct {
	admins map[string]bool
	all    map[string]bool
}

// NewRoleSet builds a RoleSet from configured allow-lists. Any wallet that
// holds any special role counts as an admin for UI access.
func NewRoleSet(roles Roles) *RoleSet {
	rs := &RoleSet{
		admins: make(map[string]bool),
		all:    make(map[string]bool),
	}
	for _, addr := range roles.Admins {
		rs.admins[strings.ToLower(addr)] = true
	}
	for _, list := range [][]string{roles.Admins, roles.Creators, roles.Validators, roles.Resolvers} {
		for _, addr := range list {
			rs.all[strings.ToLower(addr)] = true
		}
	}
	return rs
}

// IsAdmin reports whether the address holds any privileged role.
func (rs *RoleSet) IsAdmin(address string) bool {
	if address == "" {
		return false
	}
	return rs.all[strings.ToLower(address)]
}

// ConnState is the wallet connection state as reported by the caller.
type ConnState string

const (
	ConnDisconnected ConnState = "disconnected"
	ConnConnecting   ConnState = "connecting"
	ConnConnected    ConnState = "connected"
)

// Decision is the route guard's verdict.
type Decision int

const (
	// DecisionNotFound hides the protected route behind a not-found state.
	DecisionNotFound Decision = iota
	// DecisionLoading defers the verdict while the connection state is
	// still indeterminate.
	DecisionLoading
	// DecisionAuthorized renders the protected content.
	DecisionAuthorized
)

// Guard decides whether protected admin content should be served. While the
// connection is still being established no authorization decision is made.
func (rs *RoleSet) Guard(state ConnState, address string) Decision {
	switch state {
	case ConnConnecting:
		return DecisionLoading
	case ConnConnected:
		if rs.IsAdmin(address) {
			return DecisionAuthorized
		}
	}
	return DecisionNotFound
}
