package validators

import (
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
)

var memberships = map[string]bool{
	models.MembershipNonMember:  true,
	models.MembershipMember:     true,
	models.MembershipSupporting: true,
	models.MembershipHonorary:   true,
	models.MembershipExternal:   true,
}

// NewUserInput is a registration request.
type NewUserInput struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Screenname string `json:"screen_name"`
	Residence  string `json:"residence"`
	Phone      string `json:"phone"`
	HYYMember  bool   `json:"hyy_member"`
	Membership string `json:"membership"`
	Role       string `json:"role"`
}

// UserUpdateInput is a partial profile update. Nil fields are left unchanged.
type UserUpdateInput struct {
	Name       *string `json:"name"`
	Screenname *string `json:"screen_name"`
	Email      *string `json:"email"`
	Residence  *string `json:"residence"`
	Phone      *string `json:"phone"`
	HYYMember  *bool   `json:"hyy_member"`
	Membership *string `json:"membership"`
	Role       *string `json:"role"`
	Password   *string `json:"password"`
}

// ValidateCreateUser returns the user to insert and the plain password.
// Registration always yields the lowest role and ignores any client id.
func ValidateCreateUser(in *NewUserInput) (*models.User, string, error) {
	if in == nil {
		return nil, "", common.NewValidationError("Invalid POST data")
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"username", in.Username},
		{"password", in.Password},
		{"email", in.Email},
		{"name", in.Name},
		{"screen_name", in.Screenname},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, "", common.NewValidationError("Missing required fields: " + strings.Join(missing, ", "))
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, "", err
	}

	membership := in.Membership
	if membership == "" {
		membership = models.MembershipNonMember
	}
	if !memberships[membership] {
		return nil, "", common.NewValidationError("Invalid membership")
	}

	u := &models.User{
		Username:   strings.TrimSpace(in.Username),
		Name:       strings.TrimSpace(in.Name),
		Screenname: strings.TrimSpace(in.Screenname),
		Email:      email,
		Residence:  in.Residence,
		Phone:      in.Phone,
		HYYMember:  in.HYYMember,
		Membership: membership,
		Role:       models.RoleUser,
	}
	return u, in.Password, nil
}

// ValidateUpdateUser applies in to a copy of existing on behalf of requester.
// Users may edit their own profile. Editing others needs the member officer
// role and at least the target's role; resetting their password needs a
// strictly higher role. Nobody can grant a role above their own. The returned
// password is empty when unchanged.
func ValidateUpdateUser(existing *models.User, in *UserUpdateInput, requester *models.User) (*models.User, string, error) {
	if in == nil {
		return nil, "", common.NewValidationError("Invalid PATCH data")
	}

	officer := requester.Role.AtLeast(models.RoleMemberOfficer)
	other := requester.ID != existing.ID
	if other && (!officer || !requester.Role.AtLeast(existing.Role)) {
		return nil, "", common.NewForbiddenError("Forbidden")
	}

	u := *existing

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, "", common.NewValidationError("Name cannot be empty")
		}
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Screenname != nil {
		if strings.TrimSpace(*in.Screenname) == "" {
			return nil, "", common.NewValidationError("Screen name cannot be empty")
		}
		u.Screenname = strings.TrimSpace(*in.Screenname)
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, "", err
		}
		u.Email = email
	}
	if in.Residence != nil {
		u.Residence = *in.Residence
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.HYYMember != nil {
		u.HYYMember = *in.HYYMember
	}

	if in.Membership != nil && *in.Membership != existing.Membership {
		if !officer {
			return nil, "", common.NewForbiddenError("Forbidden")
		}
		if !memberships[*in.Membership] {
			return nil, "", common.NewValidationError("Invalid membership")
		}
		u.Membership = *in.Membership
	}

	if in.Role != nil && models.Role(*in.Role) != existing.Role {
		role := models.Role(*in.Role)
		if !role.Valid() {
			return nil, "", common.NewValidationError("Invalid role")
		}
		if !officer || !requester.Role.AtLeast(role) || !requester.Role.AtLeast(existing.Role) {
			return nil, "", common.NewForbiddenError("Forbidden")
		}
		u.Role = role
	}

	var password string
	if in.Password != nil {
		if *in.Password == "" {
			return nil, "", common.NewValidationError("Password cannot be empty")
		}
		// Another user's password can only be reset from a strictly higher role.
		if other && models.CompareRoles(requester.Role, existing.Role) <= 0 {
			return nil, "", common.NewForbiddenError("Forbidden")
		}
		password = *in.Password
	}

	return &u, password, nil
}

func normalizeEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", common.NewValidationError("Invalid email address")
	}
	return s, nil
}
