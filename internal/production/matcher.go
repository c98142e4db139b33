package production

import (
	"fmt"
	"strings"

	"github.com/printdesk/printdesk/internal/rbac"
)

// RoleMatcher decides whether a staff role corresponds to a phase.
type RoleMatcher interface {
	Matches(role rbac.Role, phase Phase) bool
}

// KindMatcher maps each phase kind to the roles allowed to work on it.
type KindMatcher struct {
	roles map[PhaseKind][]rbac.Role
}

// NewKindMatcher returns the default kind → role table.
func NewKindMatcher() KindMatcher {
	return KindMatcher{roles: map[PhaseKind][]rbac.Role{
		KindDesign:      {rbac.RoleDesigner},
		KindPrint:       {rbac.RolePrint},
		KindPress:       {rbac.RolePress},
		KindCut:         {rbac.RoleCut},
		KindSew:         {rbac.RoleSew},
		KindQC:          {rbac.RoleQC},
		KindIronPacking: {rbac.RoleIronPacking},
	}}
}

// Matches implements RoleMatcher.
func (m KindMatcher) Matches(role rbac.Role, phase Phase) bool {
	kind := phase.Kind
	if kind == "" {
		kind = KindFromName(phase.Name)
	}
	role = role.Normalize()
	for _, allowed := range m.roles[kind] {
		if allowed == role {
			return true
		}
	}
	return false
}

// legacyPairs is the free-text role ↔ phase name correspondence of the first
// console release: a role containing the left token matches a phase whose name
// contains the right token.
var legacyPairs = [][2]string{
	{"design", "design"},
	{"print", "print"},
	{"press", "press"},
	{"cut", "cut"},
	{"sew", "sew"},
	{"qc", "quality"},
	{"iron", "iron"},
	{"pack", "pack"},
}

// SubstringMatcher keeps the lenient substring matching for deployments whose
// roles or phase names do not follow the canonical kinds.
type SubstringMatcher struct{}

// Matches implements RoleMatcher.
func (SubstringMatcher) Matches(role rbac.Role, phase Phase) bool {
	r := strings.ToLower(string(role))
	name := strings.ToLower(phase.Name)
	for _, pair := range legacyPairs {
		if strings.Contains(r, pair[0]) && strings.Contains(name, pair[1]) {
			return true
		}
	}
	return false
}

// MatcherFor resolves the PHASE_ROLE_MATCHING setting.
func MatcherFor(mode string) (RoleMatcher, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "strict":
		return NewKindMatcher(), nil
	case "legacy":
		return SubstringMatcher{}, nil
	default:
		return nil, fmt.Errorf("production: unknown phase role matching %q", mode)
	}
}
