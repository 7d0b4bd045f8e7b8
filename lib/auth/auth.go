package auth

import (
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"
)

type User string

type Role string

const (
	RoleSuperAdmin Role = "SUPERADMIN"
)

// NormalizeRole returns the canonical (trimmed, uppercase) form of a role label.
func NormalizeRole(label string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(label)))
}

// Authority is a set of canonical role labels. It is kept sorted and free of
// duplicates so that two authorities holding the same labels are equal by value.
// Operations never modify the receiver.
type Authority []Role

func NewAuthority(labels ...string) Authority {
	res := make(Authority, 0, len(labels))
	for _, label := range labels {
		role := NormalizeRole(label)
		if role == "" {
			continue
		}
		res = append(res, role)
	}
	slices.Sort(res)
	return slices.Compact(res)
}

func (a Authority) Contains(role Role) bool {
	_, found := slices.BinarySearch(a, NormalizeRole(string(role)))
	return found
}

// Union returns a new authority holding the labels of both sets.
func (a Authority) Union(other ...Role) Authority {
	labels := make([]string, 0, len(a)+len(other))
	for _, r := range a {
		labels = append(labels, string(r))
	}
	for _, r := range other {
		labels = append(labels, string(r))
	}
	return NewAuthority(labels...)
}

// Intersects reports whether at least one of the required labels is held.
func (a Authority) Intersects(required []string) bool {
	for _, label := range required {
		if a.Contains(Role(label)) {
			return true
		}
	}
	return false
}

func (a Authority) Equal(other Authority) bool {
	return slices.Equal(a, other)
}

func (a Authority) Strings() []string {
	res := make([]string, len(a))
	for i, r := range a {
		res[i] = string(r)
	}
	return res
}

func (a *Authority) UnmarshalJSON(b []byte) error {
	var labels []string
	if err := json.Unmarshal(b, &labels); err != nil {
		return err
	}
	*a = NewAuthority(labels...)
	return nil
}

// RoleEntry is a role as issued by the backend: either a plain name or an
// object carrying a "name" field.
type RoleEntry struct {
	name  string
	named bool
}

var (
	ErrInvalidRoleEntry = errors.New("role entry must be a string or an object with a string 'name'")
)

func PlainName(name string) RoleEntry {
	return RoleEntry{name: name}
}

func NamedObject(name string) RoleEntry {
	return RoleEntry{name: name, named: true}
}

func (e RoleEntry) Name() string {
	return e.name
}

func (e RoleEntry) IsNamedObject() bool {
	return e.named
}

func (e RoleEntry) MarshalJSON() ([]byte, error) {
	if e.named {
		return json.Marshal(struct {
			Name string `json:"name"`
		}{e.name})
	}
	return json.Marshal(e.name)
}

func (e *RoleEntry) UnmarshalJSON(b []byte) error {

	if string(b) == "null" {
		return ErrInvalidRoleEntry
	}

	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*e = PlainName(name)
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil || obj == nil {
		return ErrInvalidRoleEntry
	}

	raw, ok := obj["name"]
	if !ok {
		return ErrInvalidRoleEntry
	}
	if err := json.Unmarshal(raw, &name); err != nil {
		return ErrInvalidRoleEntry
	}

	*e = NamedObject(name)
	return nil
}

type RoleEntries []RoleEntry

// UnmarshalJSON accepts a JSON array and drops entries that are neither a
// string nor an object with a string name.
func (es *RoleEntries) UnmarshalJSON(b []byte) error {

	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}

	var res RoleEntries
	for _, item := range items {
		var entry RoleEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		res = append(res, entry)
	}

	*es = res
	return nil
}

// Authority normalizes the entries to a set of canonical labels.
func (es RoleEntries) Authority() Authority {
	labels := make([]string, len(es))
	for i, e := range es {
		labels[i] = e.name
	}
	return NewAuthority(labels...)
}

// HasSuperAdmin reports whether any entry names the superadmin role, ignoring case.
func (es RoleEntries) HasSuperAdmin() bool {
	for _, e := range es {
		if NormalizeRole(e.name) == RoleSuperAdmin {
			return true
		}
	}
	return false
}

func PlainNames(names ...string) RoleEntries {
	res := make(RoleEntries, len(names))
	for i, n := range names {
		res[i] = PlainName(n)
	}
	return res
}

// CompanyID identifies a tenant. The backend issues it either as a JSON number
// or as a string; both decode to the same value.
type CompanyID string

func (id CompanyID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *CompanyID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = CompanyID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = CompanyID(n.String())
	return nil
}

func CompanyIDPtr(id CompanyID) *CompanyID {
	return &id
}
