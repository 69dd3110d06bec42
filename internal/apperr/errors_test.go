package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus_UnauthorizedIsAuthenticationExpired(t *testing.T) {
	err := FromStatus(http.StatusUnauthorized, "token expired")
	assert.ErrorIs(t, err, ErrAuthenticationExpired)

	_, ok := IsUpstream(err)
	assert.False(t, ok, "401 must not be reported as a generic upstream error")
}

func TestFromStatus_OtherStatusIsUpstream(t *testing.T) {
	err := fmt.Errorf("list hubs: %w", FromStatus(http.StatusBadGateway, "bad gateway"))
	status, ok := IsUpstream(err)
	require.True(t, ok, "expected UpstreamError, got %v", err)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestIndexLoadError_Unwraps(t *testing.T) {
	cause := errors.New("boom")
	err := &IndexLoadError{Path: "x.json", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "x.json")
}
