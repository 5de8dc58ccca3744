package models

// Role is a privilege tier. Roles are totally ordered by rank.
type Role string

const (
	RoleUser          Role = "kayttaja"
	RoleExamOfficer   Role = "tenttiarkistovirkailija"
	RoleMemberOfficer Role = "jasenvirkailija"
	RoleAdmin         Role = "yllapitaja"
)

var roleRank = map[Role]int{
	RoleUser:          1,
	RoleExamOfficer:   2,
	RoleMemberOfficer: 3,
	RoleAdmin:         4,
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank is the position of r in the ladder; unknown roles rank 0.
func (r Role) Rank() int {
	return roleRank[r]
}

// AtLeast reports whether r grants everything required grants.
func (r Role) AtLeast(required Role) bool {
	return CompareRoles(r, required) >= 0
}

// CompareRoles returns a negative number when a ranks below b, zero when
// they rank equally and a positive number when a ranks above b.
func CompareRoles(a, b Role) int {
	return a.Rank() - b.Rank()
}
