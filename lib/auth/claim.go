package auth

// Claims is the structured view of a bearer token payload. The zero value is
// what a token that fails to decode yields: no subject, no tenant, no roles.
type Claims struct {
	Subject         string
	ActiveCompanyID *CompanyID
	TenantRole      *string
	IsSuperAdmin    bool
	Roles           RoleEntries
}

const (
	claimSubject         = "sub"
	claimUsername        = "username"
	claimActiveCompanyID = "activeCompanyId"
	claimTenantRole      = "tenantRole"
	claimIsSuperAdmin    = "isSuperAdmin"
	claimRoles           = "roles"
	claimIssuedAt        = "iat"
)

// HasTenant reports whether the claims select an operating tenant.
func (c Claims) HasTenant() bool {
	return c.ActiveCompanyID != nil && *c.ActiveCompanyID != ""
}
