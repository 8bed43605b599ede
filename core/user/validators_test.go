package user_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/user"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func TestNewUser_Validate(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name    string
		nu      user.NewUser
		wantTag string
	}{
		{name: "valid", nu: user.NewUser{Name: "Lata Iyer", Username: "emp001", Password: "Str0ng&Passw0rd", Roles: []string{user.RoleRegistrar}}},
		{name: "too short", nu: user.NewUser{Name: "Lata", Username: "emp001", Password: "S0&p"}, wantTag: "pwdminlen"},
		{name: "whitespace", nu: user.NewUser{Name: "Lata", Username: "emp001", Password: "Str0ng& Passw0rd"}, wantTag: "pwdnospace"},
		{name: "all numeric", nu: user.NewUser{Name: "Lata", Username: "emp001", Password: "1234567890"}, wantTag: "pwdnotallnum"},
		{name: "not complex", nu: user.NewUser{Name: "Lata", Username: "emp001", Password: "strongpassword1"}, wantTag: "pwdcplx"},
		{name: "similar to username", nu: user.NewUser{Name: "Lata", Username: "latha_iyer", Password: "Latha_Iyer1"}, wantTag: "pwdtoosim"},
		{name: "unknown role", nu: user.NewUser{Name: "Lata", Username: "emp001", Password: "Str0ng&Passw0rd", Roles: []string{"dean"}}, wantTag: "allroles"},
		{name: "bad username", nu: user.NewUser{Name: "Lata", Username: "emp-001", Password: "Str0ng&Passw0rd"}, wantTag: "alphanum_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(validate)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
		})
	}
}

func TestNewUser_Clean(t *testing.T) {
	nu := user.NewUser{Name: "  Lata Iyer ", Username: " EMP001 ", Email: " Lata@College.EDU "}
	nu.Clean()
	assert.Equal(t, "Lata Iyer", nu.Name)
	assert.Equal(t, "emp001", nu.Username)
	assert.Equal(t, "lata@college.edu", nu.Email)
}

func TestUser_Password(t *testing.T) {
	var usr user.User
	require.NoError(t, usr.SetPassword("Str0ng&Passw0rd"))
	assert.NoError(t, usr.CheckPassword("Str0ng&Passw0rd"))
	assert.Error(t, usr.CheckPassword("str0ng&passw0rd"))
}
