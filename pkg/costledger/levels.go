package costledger

import (
	"fmt"
	"strings"
)

// Level names a consolidation granularity and the ordered organizational
// columns that define its groups. Levels are configuration, fixed when the
// Core is opened; they are never derived from data.
type Level struct {
	Name string   `json:"name"`
	Keys []string `json:"keys"`
}

// DefaultLevels returns the standard consolidation hierarchy, from the whole
// book down to individual accounts. Keys are cumulative: each level refines
// the one above it.
func DefaultLevels() []Level {
	return []Level{
		{Name: "All", Keys: []string{}},
		{Name: "Portfolio", Keys: []string{ColPortfolio}},
		{Name: "Parent company", Keys: []string{ColPortfolio, ColParentCompany}},
		{Name: "Legal entity", Keys: []string{ColPortfolio, ColParentCompany, ColLegalEntity}},
		{Name: "Account", Keys: []string{ColPortfolio, ColParentCompany, ColLegalEntity, ColCustodian, ColAccount}},
	}
}

func isGroupKeyColumn(name string) bool {
	for _, col := range GroupKeyColumns {
		if col == name {
			return true
		}
	}
	return false
}

func validateLevels(levels []Level) error {
	if len(levels) == 0 {
		return NewError(ErrCodeValidation, "at least one consolidation level is required")
	}
	seen := make(map[string]struct{}, len(levels))
	for _, level := range levels {
		name := strings.TrimSpace(level.Name)
		if name == "" {
			return NewError(ErrCodeValidation, "consolidation level name must not be empty")
		}
		if _, dup := seen[name]; dup {
			return NewError(ErrCodeValidation, fmt.Sprintf("duplicate consolidation level %q", name))
		}
		seen[name] = struct{}{}
		for _, key := range level.Keys {
			if !isGroupKeyColumn(key) {
				return NewError(ErrCodeValidation, fmt.Sprintf("level %q: unknown grouping column %q", name, key))
			}
		}
	}
	return nil
}

func findLevel(levels []Level, name string) (Level, bool) {
	for _, level := range levels {
		if level.Name == name {
			return level, true
		}
	}
	return Level{}, false
}

// groupKey identifies one WAC-tracked position line within a level. It is a
// comparable composite of the level's key column values plus the security,
// never a concatenated string, so heterogeneous values cannot collide.
// Security is always part of the identity: blending different securities'
// costs into one average would be economically meaningless.
type groupKey struct {
	portfolio     string
	parentCompany string
	legalEntity   string
	custodian     string
	account       string
	security      string
}

func (l Level) keyFor(t Transaction) groupKey {
	key := groupKey{security: t.Security}
	for _, col := range l.Keys {
		switch col {
		case ColPortfolio:
			key.portfolio = t.Portfolio
		case ColParentCompany:
			key.parentCompany = t.ParentCompany
		case ColLegalEntity:
			key.legalEntity = t.LegalEntity
		case ColCustodian:
			key.custodian = t.Custodian
		case ColAccount:
			key.account = t.Account
		}
	}
	return key
}

// keyValue returns the value of one of the organizational key columns.
func keyValue(t Transaction, col string) string {
	switch col {
	case ColPortfolio:
		return t.Portfolio
	case ColParentCompany:
		return t.ParentCompany
	case ColLegalEntity:
		return t.LegalEntity
	case ColCustodian:
		return t.Custodian
	case ColAccount:
		return t.Account
	}
	return ""
}
