package access

import (
	"net/url"
	"strings"

	convAuth "github.com/sofmon/posgate/lib/auth"
)

// Session is what the arbiter needs to know about the navigating user.
type Session struct {
	Authenticated      bool
	Authority          convAuth.Authority
	IsSuperAdmin       bool
	ActiveCompanyID    *convAuth.CompanyID
	SubscriptionStatus string
}

func (s Session) HasTenant() bool {
	return s.ActiveCompanyID != nil && *s.ActiveCompanyID != ""
}

type Arbiter struct {
	cfg Config
}

func NewArbiter(cfg Config) Arbiter {
	return Arbiter{cfg.withDefaults()}
}

func (a Arbiter) Config() Config {
	return a.cfg
}

// Authorize decides a navigation to requested (the concrete path, optionally
// with a query) matched to route. Checks run in a fixed order and the first
// failing one decides: authentication, tenant admission, subscription
// admission, superadmin-only routes, required authority.
func (a Arbiter) Authorize(s Session, route Route, requested string) Decision {

	if requested == "" {
		requested = route.Path
	}
	path, _, _ := strings.Cut(requested, "?")

	if !s.Authenticated {
		return Decision{
			Kind:     RedirectUnauthenticated,
			Redirect: a.signInRedirect(requested),
		}
	}

	if d, ok := a.admit(s, path); !ok {
		return d
	}

	return authorizeRoute(s, route)
}

func (a Arbiter) admit(s Session, path string) (Decision, bool) {

	if !s.HasTenant() && !a.cfg.IsTenantExempt(path) {
		if s.IsSuperAdmin {
			return Decision{Kind: BlockNoTenantSuperAdmin, Message: MessageNoTenantSuperAdmin}, false
		}
		return Decision{Kind: BlockNoTenantRegular, Message: MessageNoTenantRegular}, false
	}

	if !a.cfg.IsSubscriptionAllowed(s.SubscriptionStatus) && !a.cfg.IsSubscriptionExempt(path) {
		return Decision{
			Kind:     RedirectSubscriptionInactive,
			Redirect: a.cfg.SubscriptionPath,
			Message:  MessageSubscriptionInactive,
		}, false
	}

	return Decision{}, true
}

func authorizeRoute(s Session, route Route) Decision {

	if route.SuperAdminOnly && !s.IsSuperAdmin {
		return Decision{Kind: DenyInsufficientAuthority, Message: MessageSuperAdminOnly}
	}

	if len(route.RequiredAuthority) == 0 || s.Authority.Intersects(route.RequiredAuthority) {
		return Decision{Kind: Allow}
	}

	return Decision{Kind: DenyInsufficientAuthority, Message: MessageInsufficientAuthority}
}

func (a Arbiter) signInRedirect(requested string) string {
	if requested == "" || requested == a.cfg.SignInPath {
		return a.cfg.SignInPath
	}
	return a.cfg.SignInPath + "?" + url.Values{a.cfg.RedirectParam: {requested}}.Encode()
}
