package access

type DecisionKind int

const (
	Allow DecisionKind = iota
	RedirectUnauthenticated
	BlockNoTenantSuperAdmin
	BlockNoTenantRegular
	RedirectSubscriptionInactive
	DenyInsufficientAuthority
)

func (k DecisionKind) String() string {
	switch k {
	case Allow:
		return "ALLOW"
	case RedirectUnauthenticated:
		return "REDIRECT_UNAUTHENTICATED"
	case BlockNoTenantSuperAdmin:
		return "BLOCK_NO_TENANT_SUPERADMIN"
	case BlockNoTenantRegular:
		return "BLOCK_NO_TENANT_REGULAR"
	case RedirectSubscriptionInactive:
		return "REDIRECT_SUBSCRIPTION_INACTIVE"
	case DenyInsufficientAuthority:
		return "DENY_INSUFFICIENT_AUTHORITY"
	default:
		return "UNKNOWN"
	}
}

const (
	MessageNoTenantSuperAdmin    = "Select a company to operate on before opening this page."
	MessageNoTenantRegular       = "Your user is not assigned to any company. Contact your administrator."
	MessageSubscriptionInactive  = "Your company's subscription is not active. Choose a plan to continue."
	MessageInsufficientAuthority = "You do not have permission to access this page."
	MessageSuperAdminOnly        = "This page is restricted to platform administrators."
)

// Decision is the outcome of a navigation attempt. Redirect is set for the
// redirect kinds, Message for everything but Allow.
type Decision struct {
	Kind     DecisionKind
	Redirect string
	Message  string
}

func (d Decision) Allowed() bool {
	return d.Kind == Allow
}

func (d Decision) IsRedirect() bool {
	return d.Kind == RedirectUnauthenticated || d.Kind == RedirectSubscriptionInactive
}
