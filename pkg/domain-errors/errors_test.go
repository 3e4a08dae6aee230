package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeNotFound, "Pokemon not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeUpstream))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("lookup: %w", New(CodeValidation, "Name cannot be null"))
		assert.True(t, HasCode(err, CodeValidation))
	})

	t.Run("matches nested classified cause", func(t *testing.T) {
		inner := New(CodeValidation, "Sprite cannot be null")
		outer := Wrap(inner, CodeUpstream, "map pokemon")
		assert.True(t, HasCode(outer, CodeUpstream))
		assert.True(t, HasCode(outer, CodeValidation))
	})

	t.Run("unclassified error has no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeUpstream, "ignored"))

	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUpstream, "fetch pokemon")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "fetch pokemon: connection refused", err.Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "x")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, "x", MessageOf(New(CodeNotFound, "x")))
	assert.Empty(t, MessageOf(errors.New("plain")))
}
