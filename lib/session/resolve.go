package session

import (
	"slices"
	"strings"
	"sync"

	convAuth "github.com/sofmon/posgate/lib/auth"
	convCfg "github.com/sofmon/posgate/lib/cfg"
	convCtx "github.com/sofmon/posgate/lib/ctx"
)

const (
	DefaultSuperAdminAccount = "root"
)

var superAdminAccount = sync.OnceValue(func() string {
	return convCfg.StringOrDefault(convCfg.ConfigKeySuperAdminAccount, DefaultSuperAdminAccount)
})

// IsSuperAdminAccount reports whether name is the reserved platform account.
func IsSuperAdminAccount(name string) bool {
	return name != "" && strings.EqualFold(name, superAdminAccount())
}

type Result struct {
	Changed  bool
	Resolved Resolved
}

// Resolve merges the claims into the current state. Superadmin status is never
// dropped here: once the current state holds it, the result holds it too.
// Claims without roles keep the current authority.
func Resolve(claims convAuth.Claims, current Resolved) Result {

	authority := claims.Roles.Authority()
	if len(authority) == 0 {
		authority = slices.Clone(current.Authority)
	}

	superAdmin := claims.IsSuperAdmin ||
		IsSuperAdminAccount(claims.Subject) ||
		claims.Roles.HasSuperAdmin() ||
		current.IsSuperAdmin ||
		current.Authority.Contains(convAuth.RoleSuperAdmin)

	if superAdmin {
		authority = authority.Union(convAuth.RoleSuperAdmin)
	}

	res := Resolved{
		Authority:       authority,
		IsSuperAdmin:    superAdmin,
		ActiveCompanyID: claims.ActiveCompanyID,
		TenantRole:      claims.TenantRole,
	}

	return Result{
		Changed:  !res.Equal(current),
		Resolved: res,
	}
}

// Refresh resolves the claims against the record. The subject falls back to
// the record's username so the reserved account keeps being recognised.
func (r Record) Refresh(claims convAuth.Claims) (Record, bool) {

	if claims.Subject == "" {
		claims.Subject = r.Username
	}

	res := Resolve(claims, r.Resolved)
	r.Resolved = res.Resolved

	return r, res.Changed
}

// Resync is the rehydration pass: it decodes the token and refreshes the
// record. Calling it again with the same token reports no change.
func Resync(ctx convCtx.Context, token string, current Record) (Record, bool) {
	return current.Refresh(convAuth.ExtractClaims(ctx.Logger(), token))
}
