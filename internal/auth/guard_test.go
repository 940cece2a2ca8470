package auth

import "testing"

const adminAddr = "0xF9CAd870aA579Dd5932f294EC833ca419d46b4bC"

func testRoleSet() *RoleSet {
	return NewRoleSet(Roles{
		Admins:    []string{"0xf9cad870aa579dd5932f294ec833ca419d46b4bc"},
		Resolvers: []string{"0xAAAA00000000000000000000000000000000aaaa"},
	})
}

func TestIsAdmin(t *testing.T) {
	rs := testRoleSet()

	if !rs.IsAdmin(adminAddr) {
		t.Error("mixed-case admin address should match case-insensitively")
	}
	if !rs.IsAdmin("0xaaaa00000000000000000000000000000000aaaa") {
		t.Error("resolver-only wallet should count as admin for UI access")
	}
	if rs.IsAdmin("0x1111111111111111111111111111111111111111") {
		t.Error("unknown address should not be admin")
	}
	if rs.IsAdmin("") {
		t.Error("empty address should not be admin")
	}
}

func TestGuard(t *testing.T) {
	rs := testRoleSet()

	tests := []struct {
		name    string
		state   ConnState
		address string
		want    Decision
	}{
		{name: "connected admin", state: ConnConnected, address: adminAddr, want: DecisionAuthorized},
		{name: "connected non-admin", state: ConnConnected, address: "0x2222222222222222222222222222222222222222", want: DecisionNotFound},
		{name: "disconnected admin", state: ConnDisconnected, address: adminAddr, want: DecisionNotFound},
		{name: "connecting", state: ConnConnecting, address: adminAddr, want: DecisionLoading},
		{name: "connected no address", state: ConnConnected, address: "", want: DecisionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rs.Guard(tt.state, tt.address); got != tt.want {
				t.Errorf("Guard(%s, %s) = %d, want %d", tt.state, tt.address, got, tt.want)
			}
		})
	}
}
