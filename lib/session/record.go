package session

import (
	convAuth "github.com/sofmon/posgate/lib/auth"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Resolved is the authority derived from token claims and the previously
// known record.
type Resolved struct {
	Authority       convAuth.Authority  `json:"authority"`
	IsSuperAdmin    bool                `json:"is_super_admin"`
	ActiveCompanyID *convAuth.CompanyID `json:"active_company_id,omitempty"`
	TenantRole      *string             `json:"tenant_role,omitempty"`
}

func (r Resolved) HasTenant() bool {
	return r.ActiveCompanyID != nil && *r.ActiveCompanyID != ""
}

// Equal compares by value; authority is compared as a set.
func (r Resolved) Equal(other Resolved) bool {
	return r.Authority.Equal(other.Authority) &&
		r.IsSuperAdmin == other.IsSuperAdmin &&
		equalPtr(r.ActiveCompanyID, other.ActiveCompanyID) &&
		equalPtr(r.TenantRole, other.TenantRole)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Record is the user state kept for the lifetime of an authenticated session.
type Record struct {
	Username           string             `json:"username"`
	OwnerDisplayName   string             `json:"owner_display_name"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	Resolved
}

// Empty is the record of a signed-out session.
func Empty() Record {
	return Record{}
}

func (r Record) Equal(other Record) bool {
	return r.Username == other.Username &&
		r.OwnerDisplayName == other.OwnerDisplayName &&
		r.SubscriptionStatus == other.SubscriptionStatus &&
		r.Resolved.Equal(other.Resolved)
}
