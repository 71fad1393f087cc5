package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := Precondition("change_admin", "account %s has no transactions", "0:abc")
	assert.Equal(t, "change_admin: precondition: account 0:abc has no transactions", err.Error())

	cause := errors.New("unexpected eof")
	wrapped := Wrap(cause, KindDecode, "get_jetton_data", "read admin")
	assert.Equal(t, "get_jetton_data: decode: read admin: unexpected eof", wrapped.Error())
	assert.Equal(t, cause, errors.Unwrap(wrapped))
}

func TestIsThroughWrapping(t *testing.T) {
	base := Postcondition("change_state", "state is still %v", false)
	err := fmt.Errorf("run action: %w", base)

	assert.True(t, Is(err, KindPostcondition))
	assert.False(t, Is(err, KindTimeout))
	assert.Equal(t, KindPostcondition, KindOf(err))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestKindsAreDistinct(t *testing.T) {
	kinds := []Kind{KindPrecondition, KindValidation, KindTimeout, KindPostcondition, KindDecode}
	seen := make(map[string]bool)
	for _, k := range kinds {
		assert.False(t, seen[k.String()], "duplicate kind name %s", k)
		seen[k.String()] = true
	}
	assert.Equal(t, "unknown", Kind(99).String())
}
