package access

import (
	"errors"
	"strings"

	convCfg "github.com/sofmon/posgate/lib/cfg"
)

const (
	DefaultSignInPath       = "/sign-in"
	DefaultSubscriptionPath = "/billing/plans"
	DefaultRedirectParam    = "redirectUrl"
)

// Config is the admission data supplied by the deployment: which paths skip
// the tenant and subscription checks and where to send users that fail them.
type Config struct {
	Public                      []string `json:"public,omitempty"`
	TenantExempt                []string `json:"tenant_exempt,omitempty"`
	SubscriptionExempt          []string `json:"subscription_exempt,omitempty"`
	AllowedSubscriptionStatuses []string `json:"allowed_subscription_statuses,omitempty"`
	SignInPath                  string   `json:"sign_in_path,omitempty"`
	SubscriptionPath            string   `json:"subscription_path,omitempty"`
	RedirectParam               string   `json:"redirect_param,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		AllowedSubscriptionStatuses: []string{"active", "trialing"},
		SignInPath:                  DefaultSignInPath,
		SubscriptionPath:            DefaultSubscriptionPath,
		RedirectParam:               DefaultRedirectParam,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.AllowedSubscriptionStatuses) == 0 {
		c.AllowedSubscriptionStatuses = def.AllowedSubscriptionStatuses
	}
	if c.SignInPath == "" {
		c.SignInPath = def.SignInPath
	}
	if c.SubscriptionPath == "" {
		c.SubscriptionPath = def.SubscriptionPath
	}
	if c.RedirectParam == "" {
		c.RedirectParam = def.RedirectParam
	}
	return c
}

// LoadConfig reads the 'access' config key; a missing key yields DefaultConfig.
func LoadConfig() (c Config, err error) {
	c, err = convCfg.Object[Config](convCfg.ConfigKeyAccess)
	if errors.Is(err, convCfg.ErrNotFound) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return
	}
	c = c.withDefaults()
	return
}

// IsPublic reports paths served without a session, the sign-in page included.
func (c Config) IsPublic(path string) bool {
	return path == c.SignInPath || matchesAnyPrefix(path, c.Public)
}

func (c Config) IsTenantExempt(path string) bool {
	return matchesAnyPrefix(path, c.TenantExempt)
}

func (c Config) IsSubscriptionExempt(path string) bool {
	return matchesAnyPrefix(path, c.SubscriptionExempt)
}

func (c Config) IsSubscriptionAllowed(status string) bool {
	for _, s := range c.AllowedSubscriptionStatuses {
		if strings.EqualFold(s, status) {
			return true
		}
	}
	return false
}

// matchesAnyPrefix matches whole segments: "/admin" covers "/admin" and
// "/admin/companies" but not "/administration".
func matchesAnyPrefix(path string, prefixes []string) bool {
	path, _, _ = strings.Cut(path, "?")
	path = "/" + strings.Trim(path, "/")
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		prefix = "/" + strings.Trim(prefix, "/")
		if prefix == "/" || path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
