package cerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilPassthrough(t *testing.T) {
	assert.Nil(t, New(CodeTimeout, nil))
}

func TestCodeOf_Wrapped(t *testing.T) {
	base := Newf(CodeProcessFailure, "tool exited with code %d", 2)
	wrapped := fmt.Errorf("running lacosmic: %w", base)

	assert.Equal(t, CodeProcessFailure, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, CodeProcessFailure))
	assert.False(t, IsCode(wrapped, CodeTimeout))
}

func TestCodeOf_Uncoded(t *testing.T) {
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeUnknown, CodeOf(nil))
}

func TestError_Message(t *testing.T) {
	err := New(CodeOutputMissing, errors.New("no such file"))
	require.Error(t, err)
	assert.Equal(t, "output_missing: no such file", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("killed after 100ms")
	err := New(CodeTimeout, inner)
	assert.ErrorIs(t, err, inner)
}
