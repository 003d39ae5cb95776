package forms

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drimsoft/planifika-admin/internal/client"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	return verr.Fields
}

func TestCreateUserForm(t *testing.T) {
	v := New()

	valid := CreateUserForm{
		Name: "Ana", Email: "ana@drimsoft.com", Password: "secret1", ConfirmPassword: "secret1",
		RoleID: 1, StatusID: 1,
	}
	require.NoError(t, v.Validate(valid))

	bad := valid
	bad.Name = "   "
	bad.Email = "not-an-email"
	bad.Password = "123"
	bad.ConfirmPassword = "124"
	bad.RoleID = 3
	bad.StatusID = 0

	err := v.Validate(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrValidation))

	fields := fieldsOf(t, err)
	assert.Equal(t, "Name is required", fields["name"])
	assert.Equal(t, "Enter a valid email address", fields["email"])
	assert.Equal(t, "Password must be at least 6 characters", fields["password"])
	assert.Equal(t, "Passwords do not match", fields["confirmPassword"])
	assert.Equal(t, "Role is not a valid option", fields["roleId"])
	assert.Equal(t, "Status is required", fields["userStatusId"])
}

func TestCreateUserForm_Request(t *testing.T) {
	req := CreateUserForm{Name: " Ana ", Email: " ana@drimsoft.com", Password: "secret1", RoleID: 2, StatusID: 1}.Request()
	assert.Equal(t, "Ana", req.Name)
	assert.Equal(t, "ana@drimsoft.com", req.Email)
	assert.Equal(t, int64(2), req.RoleID)
}

func TestProfileForm(t *testing.T) {
	v := New()

	err := v.Validate(ProfileForm{})
	assert.Equal(t, "Enter a new name or password", fieldsOf(t, err)["name"])

	require.NoError(t, v.Validate(ProfileForm{Name: "Bob"}))
	require.NoError(t, v.Validate(ProfileForm{Password: "secret1", ConfirmPassword: "secret1"}))

	err = v.Validate(ProfileForm{Password: "secret1", ConfirmPassword: "secret2"})
	assert.Equal(t, "Passwords do not match", fieldsOf(t, err)["confirmPassword"])

	err = v.Validate(ProfileForm{Password: "abc", ConfirmPassword: "abc"})
	assert.Contains(t, fieldsOf(t, err), "password")
}

func TestProfileForm_Update(t *testing.T) {
	u := ProfileForm{Name: "  Bob ", Password: ""}.Update()
	assert.Equal(t, client.ProfileUpdate{Name: "Bob"}, u)
}

func TestOrganizationForm(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(OrganizationForm{NIT: "900123", Name: "Acme"}))
	require.NoError(t, v.Validate(OrganizationForm{
		NIT: "900123", Name: "Acme", PhotoURL: "https://cdn.example.com/a.png", Domain: "acme.com",
	}))

	err := v.Validate(OrganizationForm{PhotoURL: "not a url", Domain: "bad domain"})
	fields := fieldsOf(t, err)
	assert.Equal(t, "NIT is required", fields["nit"])
	assert.Equal(t, "Name is required", fields["name"])
	assert.Equal(t, "Photo URL must be a valid URL", fields["photoURL"])
	assert.Equal(t, "Domain must be a valid host name", fields["domain"])
}

func TestTicketForms(t *testing.T) {
	v := New()

	assert.Error(t, v.Validate(TicketAnswerForm{Answer: "  \n"}))
	assert.NoError(t, v.Validate(TicketAnswerForm{Answer: "Fixed"}))

	assert.Error(t, v.Validate(TicketStatusForm{StatusID: 9}))
	assert.NoError(t, v.Validate(TicketStatusForm{StatusID: 5}))

	assert.Error(t, v.Validate(TicketAssignForm{}))
	assert.NoError(t, v.Validate(TicketAssignForm{UserID: 3}))
}

func TestTicketCreateForm(t *testing.T) {
	v := New()

	fields := fieldsOf(t, v.Validate(TicketCreateForm{Title: " "}))
	assert.Equal(t, "Planifika user is required", fields["idplanifikauser"])
	assert.Equal(t, "Title is required", fields["title"])
	assert.Equal(t, "Description is required", fields["description"])

	form := TicketCreateForm{PlanifikaUserID: 4, Title: " Login broken ", Description: "Loop"}
	assert.NoError(t, v.Validate(form))
	req := form.Request()
	assert.Equal(t, "Login broken", req.Title)
	assert.Equal(t, int64(4), req.PlanifikaUserID)
}

func TestLoginForm(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(LoginForm{Email: "a@b.co", Password: "x"}))

	fields := fieldsOf(t, v.Validate(LoginForm{}))
	assert.Equal(t, "Email is required", fields["email"])
	assert.Equal(t, "Password is required", fields["password"])
}

func TestValidationError_MessageIsStable(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "second", "a": "first"}}
	assert.Equal(t, "first; second", err.Error())
}

func TestEditUserForm_Rename(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(EditUserForm{RoleID: 1, StatusID: 1}))
	assert.Error(t, v.Validate(EditUserForm{Name: strings.Repeat("x", 101), RoleID: 1, StatusID: 1}))

	name, ok := EditUserForm{Name: "  Luis M "}.Rename("Luis")
	assert.True(t, ok)
	assert.Equal(t, "Luis M", name)

	_, ok = EditUserForm{Name: " Luis "}.Rename("Luis")
	assert.False(t, ok)
	_, ok = EditUserForm{}.Rename("Luis")
	assert.False(t, ok)
}
