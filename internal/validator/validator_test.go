package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Years    *int   `json:"years_of_experience" validate:"required,min=0"`
	Role     string `json:"role" validate:"omitempty,oneof=client lawyer"`
}

func TestStruct(t *testing.T) {
	v := New()
	years := 3

	fields, err := v.Struct(signup{Email: "a@x.com", Password: "Secret123!", Years: &years})
	require.NoError(t, err)
	assert.Nil(t, fields)

	fields, err = v.Struct(signup{Email: "nope", Password: "short", Role: "judge"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"email":               "Must be a valid email address",
		"password":            "Must be at least 8 characters long",
		"years_of_experience": "This field is required",
		"role":                "Must be one of: client, lawyer",
	}, fields)
}

func TestVar(t *testing.T) {
	v := New()
	assert.Nil(t, v.Var("code", "123456", "required,len=6,numeric"))
	assert.Equal(t, map[string]string{"code": "Must be exactly 6 characters long"}, v.Var("code", "123", "required,len=6,numeric"))
	assert.Equal(t, map[string]string{"code": "This field is required"}, v.Var("code", "", "required,len=6,numeric"))
}
