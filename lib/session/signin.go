package session

import (
	"slices"

	convAuth "github.com/sofmon/posgate/lib/auth"
	convCtx "github.com/sofmon/posgate/lib/ctx"
)

// SignInPayload is the backend's sign-in response.
type SignInPayload struct {
	Token string      `json:"token"`
	User  *SignInUser `json:"user,omitempty"`
}

type SignInUser struct {
	Username     string               `json:"username"`
	Roles        convAuth.RoleEntries `json:"roles"`
	IsSuperAdmin bool                 `json:"isSuperAdmin"`
	Employee     *struct {
		Fullname string `json:"fullname"`
	} `json:"employee,omitempty"`
	Company *struct {
		SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	} `json:"company,omitempty"`
}

// FromSignIn seeds a new record from the sign-in response. Roles of the user
// object and the token are merged, tenant fields come from the token. The
// record is resolved from scratch, so a sign-in is where superadmin status
// can be revoked.
func FromSignIn(ctx convCtx.Context, payload SignInPayload) (rec Record) {

	claims := convAuth.ExtractClaims(ctx.Logger(), payload.Token)

	u := payload.User
	if u == nil {
		ctx.Logger().Warn("sign-in response has no user object, continuing with token claims only")
		rec.Username = claims.Subject
		rec.OwnerDisplayName = claims.Subject
		rec.Resolved = Resolve(claims, Resolved{}).Resolved
		return
	}

	merged := claims
	merged.Roles = append(slices.Clone(u.Roles), claims.Roles...)
	merged.IsSuperAdmin = claims.IsSuperAdmin || u.IsSuperAdmin || IsSuperAdminAccount(u.Username)
	if merged.Subject == "" {
		merged.Subject = u.Username
	}

	rec.Username = u.Username
	if rec.Username == "" {
		rec.Username = claims.Subject
	}

	rec.OwnerDisplayName = rec.Username
	if u.Employee != nil && u.Employee.Fullname != "" {
		rec.OwnerDisplayName = u.Employee.Fullname
	}

	if u.Company != nil {
		rec.SubscriptionStatus = u.Company.SubscriptionStatus
	}

	rec.Resolved = Resolve(merged, Resolved{}).Resolved
	return
}
