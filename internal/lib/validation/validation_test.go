package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_CollectsFields(t *testing.T) {
	v := New()
	require.NoError(t, v.Err())

	v.Add("price", "Price must be a number ≥ 0.")
	v.Add("customer", "Customer is required.")
	v.Add("price", "second message is ignored")

	err := v.Err()
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Price must be a number ≥ 0.", verr.Fields["price"])
	assert.True(t, verr.Has("customer"))
	assert.False(t, verr.Has("note"))
	assert.Equal(t, "validation failed: customer, price", err.Error())
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("alice@example.com"))
	assert.False(t, IsEmail("alice"))
	assert.False(t, IsEmail(""))
}

func TestTooLong(t *testing.T) {
	assert.False(t, TooLong(strings.Repeat("я", MaxVarchar), MaxVarchar))
	assert.True(t, TooLong(strings.Repeat("a", MaxVarchar+1), MaxVarchar))
}
