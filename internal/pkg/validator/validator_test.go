package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type idParam struct {
	ID string `validate:"required,uuid"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(idParam{ID: "0b4e7a0e-5b2f-4b7f-9a57-0a7a4a1f4b11"}))
	assert.Equal(t, map[string]string{"ID": "uuid"}, Validate(idParam{ID: "42"}))
	assert.Equal(t, map[string]string{"ID": "required"}, Validate(idParam{}))
}
