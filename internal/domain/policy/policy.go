// Package policy decides whether a principal may perform a request.
//
// Every endpoint is guarded twice: once at collection level, before the
// target is resolved, and once at object level for the resolved entity.
// Read-only (safe) methods short-circuit both phases before any ownership
// is looked at.
package policy

import (
	"net/http"

	"yamdb/proj/internal/domain/models"
)

// Level is the privilege rank of a principal. Levels are ordered, so a
// requirement is always expressed as a minimum.
type Level int

const (
	LevelAnonymous Level = iota
	LevelUser
	LevelModerator
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelAnonymous:
		return "anonymous"
	case LevelUser:
		return "user"
	case LevelModerator:
		return "moderator"
	case LevelAdmin:
		return "admin"
	}
	return "unknown"
}

// PrivilegeLevel maps a principal to its rank. admin and super_user are
// the same rank; unknown roles get the rank of a plain user.
func PrivilegeLevel(u *models.User) Level {
	if u.IsAnonymous() {
		return LevelAnonymous
	}
	switch u.Role {
	case models.RoleAdmin, models.RoleSuperUser:
		return LevelAdmin
	case models.RoleModerator:
		return LevelModerator
	default:
		return LevelUser
	}
}

func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Owned is implemented by entities that have an author.
type Owned interface {
	OwnerID() int64
}

type Request struct {
	Method    string
	Principal *models.User
}

func (r Request) safe() bool   { return IsSafeMethod(r.Method) }
func (r Request) level() Level { return PrivilegeLevel(r.Principal) }

func (r Request) owns(obj Owned) bool {
	return !r.Principal.IsAnonymous() && obj != nil && obj.OwnerID() == r.Principal.ID
}

type Permission interface {
	HasPermission(req Request) bool
	HasObjectPermission(req Request, obj Owned) bool
}

type readOnlyOrRole struct {
	min Level
}

// ReadOnlyOrRole allows safe methods to anyone and writes to principals of
// at least the given level, in both phases.
func ReadOnlyOrRole(min Level) Permission {
	return readOnlyOrRole{min: min}
}

func (p readOnlyOrRole) HasPermission(req Request) bool {
	return req.safe() || req.level() >= p.min
}

func (p readOnlyOrRole) HasObjectPermission(req Request, _ Owned) bool {
	return p.HasPermission(req)
}

type roleRequired struct {
	min Level
}

// RoleRequired demands the given level for every method.
func RoleRequired(min Level) Permission {
	return roleRequired{min: min}
}

func (p roleRequired) HasPermission(req Request) bool {
	return req.level() >= p.min
}

func (p roleRequired) HasObjectPermission(req Request, _ Owned) bool {
	return req.level() >= p.min
}

type readOnlyOrOwner struct {
	// bypass lets principals of this level act on objects they do not own;
	// LevelAnonymous disables it.
	bypass Level
}

// ReadOnlyOrOwner lets anyone read, lets authenticated principals reach the
// collection, and restricts object writes to the author or to principals
// of at least the bypass level.
func ReadOnlyOrOwner(bypass Level) Permission {
	return readOnlyOrOwner{bypass: bypass}
}

func (p readOnlyOrOwner) HasPermission(req Request) bool {
	return req.safe() || req.level() >= LevelUser
}

func (p readOnlyOrOwner) HasObjectPermission(req Request, obj Owned) bool {
	if req.safe() {
		return true
	}
	if req.level() < LevelUser {
		return false
	}
	if req.owns(obj) {
		return true
	}
	return p.bypass > LevelAnonymous && req.level() >= p.bypass
}

type all []Permission

// All grants only when every permission grants.
func All(perms ...Permission) Permission {
	return all(perms)
}

func (ps all) HasPermission(req Request) bool {
	for _, p := range ps {
		if !p.HasPermission(req) {
			return false
		}
	}
	return true
}

func (ps all) HasObjectPermission(req Request, obj Owned) bool {
	for _, p := range ps {
		if !p.HasObjectPermission(req, obj) {
			return false
		}
	}
	return true
}

type anyOf []Permission

// Any grants when at least one permission grants.
func Any(perms ...Permission) Permission {
	return anyOf(perms)
}

func (ps anyOf) HasPermission(req Request) bool {
	for _, p := range ps {
		if p.HasPermission(req) {
			return true
		}
	}
	return false
}

func (ps anyOf) HasObjectPermission(req Request, obj Owned) bool {
	for _, p := range ps {
		if p.HasObjectPermission(req, obj) {
			return true
		}
	}
	return false
}

var (
	// ReadOnlyOrAdmin guards categories, genres and titles.
	ReadOnlyOrAdmin = ReadOnlyOrRole(LevelAdmin)
	// AdminOnly guards user management.
	AdminOnly = RoleRequired(LevelAdmin)
	// AuthorMatch guards the caller's own profile.
	AuthorMatch = All(RoleRequired(LevelUser), ReadOnlyOrOwner(LevelAnonymous))
	// AuthorOrModerator guards reviews and comments.
	AuthorOrModerator = ReadOnlyOrOwner(LevelModerator)
)

// Decision is the outcome of a check, split so callers can tell an
// unauthenticated caller (401) from an insufficiently privileged one (403).
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

func decide(granted bool, req Request) Decision {
	switch {
	case granted:
		return Allow
	case req.Principal.IsAnonymous():
		return DenyUnauthenticated
	default:
		return DenyForbidden
	}
}

// Check evaluates the collection-level phase.
func Check(p Permission, req Request) Decision {
	return decide(p.HasPermission(req), req)
}

// CheckObject evaluates the object-level phase.
func CheckObject(p Permission, req Request, obj Owned) Decision {
	return decide(p.HasObjectPermission(req, obj), req)
}
