package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

// Caller is the authenticated identity a report is built for.
type Caller struct {
	Role    string
	OwnerID string
}

// Directory maps owners to the reservation-system ids of their properties.
type Directory interface {
	ExternalIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
}

// Scope is the set of properties a caller may see. An unrestricted scope has
// no id set at all; a restricted one with no ids sees nothing.
type Scope struct {
	Role        string
	Restricted  bool
	PropertyIDs []string
}

// Empty reports whether the caller is restricted to zero properties.
func (s Scope) Empty() bool {
	return s.Restricted && len(s.PropertyIDs) == 0
}

// Filter is the property filter to hand to the fetcher: nil when unrestricted.
func (s Scope) Filter() []string {
	if !s.Restricted {
		return nil
	}
	if s.PropertyIDs == nil {
		return []string{}
	}
	return s.PropertyIDs
}

// cacheKey identifies the scope inside cache keys without exposing the ids.
func (s Scope) cacheKey() string {
	if !s.Restricted {
		return "all"
	}
	h := sha256.Sum256([]byte(strings.Join(s.PropertyIDs, "\x00")))
	return "ids:" + hex.EncodeToString(h[:])
}

type ScopeResolver struct {
	dir      Directory
	elevated map[string]struct{}
	log      *zap.Logger
}

// NewScopeResolver treats the listed roles as elevated. With none given, only
// RoleAdmin is.
func NewScopeResolver(dir Directory, elevatedRoles []string, log *zap.Logger) *ScopeResolver {
	if log == nil {
		log = zap.NewNop()
	}
	r := &ScopeResolver{dir: dir, elevated: map[string]struct{}{}, log: log}
	for _, role := range elevatedRoles {
		if role = normalizeRole(role); role != "" {
			r.elevated[role] = struct{}{}
		}
	}
	if len(r.elevated) == 0 {
		r.elevated[RoleAdmin] = struct{}{}
	}
	return r
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

func (r *ScopeResolver) IsElevated(role string) bool {
	_, ok := r.elevated[normalizeRole(role)]
	return ok
}

// Resolve never fails open: any directory problem yields an empty restricted
// scope.
func (r *ScopeResolver) Resolve(ctx context.Context, role, ownerID string) Scope {
	role = normalizeRole(role)
	if r.IsElevated(role) {
		return Scope{Role: role}
	}
	scope := Scope{Role: role, Restricted: true}
	if strings.TrimSpace(ownerID) == "" || r.dir == nil {
		return scope
	}

	ids, err := r.dir.ExternalIDsByOwner(ctx, ownerID)
	if err != nil {
		r.log.Error("property directory lookup failed, scoping to no properties",
			zap.String("owner_id", ownerID), zap.Error(err))
		return scope
	}
	scope.PropertyIDs = dedupe(ids)
	return scope
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
