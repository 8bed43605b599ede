package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/feedesk/core"
)

// Roles
const (
	RoleAdmin         = "admin"
	RolePrincipal     = "principal"
	RoleExamHead      = "exam_head"
	RoleTransportDept = "transport_dept"
	RoleRegistrar     = "registrar"
	RoleStudent       = "student"
)

var (
	StaffRoles = []string{RoleAdmin, RolePrincipal, RoleExamHead, RoleTransportDept, RoleRegistrar}
	AllRoles   = append(append([]string{}, StaffRoles...), RoleStudent)

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Principal", Value: RolePrincipal},
		{Name: "Exam Head", Value: RoleExamHead},
		{Name: "Transport Department", Value: RoleTransportDept},
		{Name: "Registrar", Value: RoleRegistrar},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"` // USN for students, employee ID for staff
	Email        string    `json:"email"`
	IsActive     bool      `json:"isActive"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
	LastLogin    time.Time `json:"lastLogin"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) HasRole(roles ...string) bool {
	for _, have := range u.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

func (u *User) IsStudent() bool { return u.HasRole(RoleStudent) }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name     string   `json:"name" validate:"required"`
	Username string   `json:"username" validate:"required,alphanum_"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Password string   `json:"password" validate:"required"`
	Roles    []string `json:"roles" validate:"omitempty,allroles"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Clean()
	return validate.Struct(nu)
}

// ResetUserPassword is used by registrars to set a new password for any account.
type ResetUserPassword struct {
	Username    string `json:"username" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error {
	rp.Username = core.CleanString(rp.Username, true /* lower */)
	return validate.Struct(rp)
}
