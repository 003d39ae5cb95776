// Package forms validates the input of every dashboard form. The server and
// the CLI share the same rules.
package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/drimsoft/planifika-admin/internal/client"
	"github.com/drimsoft/planifika-admin/internal/models"
)

// LoginForm is the login form
type LoginForm struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// CreateUserForm creates an internal user
type CreateUserForm struct {
	Name            string `json:"name" form:"name" validate:"notblank,max=100"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"eqfield=Password"`
	RoleID          int64  `json:"roleId" form:"roleId" validate:"required,oneof=1 2"`
	StatusID        int64  `json:"userStatusId" form:"userStatusId" validate:"required,oneof=1 2 3"`
}

// Request converts the form into a create call
func (f CreateUserForm) Request() client.CreateUserRequest {
	return client.CreateUserRequest{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		RoleID:   f.RoleID,
		StatusID: f.StatusID,
	}
}

// EditUserForm changes the role and status of an internal user, and
// optionally renames it
type EditUserForm struct {
	Name     string `json:"name" form:"name" validate:"omitempty,max=100"`
	RoleID   int64  `json:"roleId" form:"roleId" validate:"required,oneof=1 2"`
	StatusID int64  `json:"userStatusId" form:"userStatusId" validate:"required,oneof=1 2 3"`
}

// Rename returns the trimmed new name when it differs from current
func (f EditUserForm) Rename(current string) (string, bool) {
	name := strings.TrimSpace(f.Name)
	return name, name != "" && name != current
}

// ProfileForm edits the signed-in user's profile. At least one of name and
// password must be set.
type ProfileForm struct {
	Name            string `json:"name" form:"name" validate:"omitempty,max=100"`
	Password        string `json:"password" form:"password" validate:"omitempty,min=6"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"eqfield=Password"`
}

// Update converts the form into a profile update
func (f ProfileForm) Update() client.ProfileUpdate {
	return client.ProfileUpdate{Name: strings.TrimSpace(f.Name), Password: f.Password}
}

// OrganizationForm creates or edits an organization
type OrganizationForm struct {
	NIT      string `json:"nit" form:"nit" validate:"notblank,max=50"`
	Name     string `json:"name" form:"name" validate:"notblank,max=200"`
	Address  string `json:"address" form:"address" validate:"max=300"`
	Phone    string `json:"phone" form:"phone" validate:"max=50"`
	PhotoURL string `json:"photoURL" form:"photoURL" validate:"omitempty,url"`
	Domain   string `json:"domain" form:"domain" validate:"omitempty,hostname_rfc1123"`
}

// Input converts the form into an API body
func (f OrganizationForm) Input() models.OrganizationInput {
	return models.OrganizationInput{
		NIT:      strings.TrimSpace(f.NIT),
		Name:     strings.TrimSpace(f.Name),
		Address:  strings.TrimSpace(f.Address),
		Phone:    strings.TrimSpace(f.Phone),
		PhotoURL: strings.TrimSpace(f.PhotoURL),
		Domain:   strings.TrimSpace(f.Domain),
	}
}

// TicketCreateForm opens a ticket on behalf of a Planifika user
type TicketCreateForm struct {
	PlanifikaUserID int64  `json:"idplanifikauser" form:"idplanifikauser" validate:"required,gt=0"`
	Title           string `json:"title" form:"title" validate:"notblank,max=200"`
	Description     string `json:"description" form:"description" validate:"notblank"`
}

// Request converts the form into a create call
func (f TicketCreateForm) Request() models.TicketCreateRequest {
	return models.TicketCreateRequest{
		PlanifikaUserID: f.PlanifikaUserID,
		Title:           strings.TrimSpace(f.Title),
		Description:     strings.TrimSpace(f.Description),
		StatusID:        models.TicketStatusOpen,
	}
}

// TicketAnswerForm answers a ticket
type TicketAnswerForm struct {
	Answer string `json:"answer" form:"answer" validate:"notblank"`
}

// TicketStatusForm moves a ticket to another status
type TicketStatusForm struct {
	StatusID int64 `json:"statusId" form:"statusId" validate:"required,oneof=1 2 3 4 5"`
}

// TicketAssignForm assigns a ticket
type TicketAssignForm struct {
	UserID int64 `json:"userId" form:"userId" validate:"required,gt=0"`
}

// Validator validates forms
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the custom rules registered
func New() *Validator {
	validate := validator.New()

	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		f := sl.Current().Interface().(ProfileForm)
		if strings.TrimSpace(f.Name) == "" && f.Password == "" {
			sl.ReportError(f.Name, "Name", "name", "nameorpassword", "")
		}
	}, ProfileForm{})

	return &Validator{validate: validate}
}

// Validate checks form and returns a *ValidationError listing every
// offending field
func (v *Validator) Validate(form any) error {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[jsonName(fe.Field())] = message(fe)
	}
	return &ValidationError{Fields: fields}
}

// ValidationError maps field names to messages. It matches
// client.ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return client.ErrValidation
}

func jsonName(field string) string {
	switch field {
	case "NIT":
		return "nit"
	case "PhotoURL":
		return "photoURL"
	case "RoleID":
		return "roleId"
	case "StatusID":
		return "userStatusId"
	case "UserID":
		return "userId"
	case "PlanifikaUserID":
		return "idplanifikauser"
	}
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", label(fe.Field()))
	case "email":
		return "Enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label(fe.Field()), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label(fe.Field()), fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "oneof":
		return fmt.Sprintf("%s is not a valid option", label(fe.Field()))
	case "url":
		return "Photo URL must be a valid URL"
	case "hostname_rfc1123":
		return "Domain must be a valid host name"
	case "nameorpassword":
		return "Enter a new name or password"
	}
	return fmt.Sprintf("%s is invalid", label(fe.Field()))
}

func label(field string) string {
	switch field {
	case "NIT":
		return "NIT"
	case "PhotoURL":
		return "Photo URL"
	case "RoleID":
		return "Role"
	case "StatusID":
		return "Status"
	case "UserID":
		return "User"
	case "ConfirmPassword":
		return "Password confirmation"
	case "PlanifikaUserID":
		return "Planifika user"
	}
	return field
}
