package middleware

import (
	"net/http"

	"github.com/policastlabs/policastd/internal/auth"
)

// walletHeader carries the caller's wallet address. The gateway trusts
// the frontend's connected-wallet claim for routing; the contract still
// enforces real authorization on every write.
const walletHeader = "X-Wallet-Address"

// Wallet extracts the caller's wallet address from the request.
func Wallet(r *http.Request) string {
	return r.Header.Get(walletHeader)
}

// AdminOnly returns middleware gating admin routes on the role allow-list.
// Requests without a wallet header or from unlisted wallets get 404, not
// 403: the admin surface should not advertise its existence.
func AdminOnly(roles *auth.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !roles.IsAdmin(Wallet(r)) {
				http.NotFound(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
