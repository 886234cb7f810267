package auth

import (
	"fmt"

	"hrms/apperr"
	"hrms/models"
)

// RoleSet is the set of roles allowed to invoke an operation.
type RoleSet map[models.Role]struct{}

func Roles(roles ...models.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Has(role models.Role) bool {
	_, ok := s[role]
	return ok
}

// Authorize allows claims whose role is a member of required. There is no
// role hierarchy: ADMIN passes an EMPLOYEE-only check only if listed.
func Authorize(claims *Claims, required RoleSet) error {
	if claims == nil || claims.AccountID == "" {
		return apperr.ErrUnauthenticated
	}
	if !required.Has(claims.Role) {
		return apperr.Wrap(apperr.ErrForbidden, fmt.Errorf("role %s", claims.Role))
	}
	return nil
}
