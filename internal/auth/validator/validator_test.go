package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authvalidator "crm_backend/internal/auth/validator"
	"crm_backend/platform/validator"
)

func TestCredentialRules(t *testing.T) {
	val := validator.New()
	require.NoError(t, authvalidator.Register(val))

	assert.NoError(t, val.Var("s3cretpass", "password"))
	assert.Error(t, val.Var("short1", "password"))
	assert.Error(t, val.Var("lettersonly", "password"))
	assert.Error(t, val.Var("1234567890", "password"))

	assert.NoError(t, val.Var("jane.doe_1", "username"))
	assert.Error(t, val.Var("ab", "username"))
	assert.Error(t, val.Var("jane doe", "username"))
	assert.Error(t, val.Var("jäne", "username"))
}
