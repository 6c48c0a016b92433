package newserr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/newsdesk/internal/newserr"
)

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	base := newserr.Upstream("apiKeyInvalid")
	wrapped := fmt.Errorf("primary: %w", base)

	require.Equal(t, newserr.UpstreamError, newserr.KindOf(wrapped))
	require.Equal(t, newserr.Kind(0), newserr.KindOf(errors.New("plain")))
	require.Equal(t, "apiKeyInvalid", wrapped.Error()[len("primary: "):])
}

func TestErrorMessageFallsBackToCause(t *testing.T) {
	err := newserr.Unavailable(errors.New("dial tcp: refused"))
	require.Equal(t, "dial tcp: refused", err.Error())
	require.True(t, err.Retryable())
	require.False(t, newserr.Upstream("bad").Retryable())

	cacheErr := newserr.Cache("read", errors.New("permission denied"))
	require.Equal(t, newserr.CacheUnavailable, cacheErr.Kind)
	require.Contains(t, cacheErr.Error(), "cache read")
}

func TestUnavailableMsgKeepsCauseBehindMessage(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:443: connect: refused")
	err := newserr.UnavailableMsg("headlines request failed", cause)

	require.Equal(t, "headlines request failed", err.Error())
	require.Equal(t, newserr.UpstreamUnavailable, newserr.KindOf(err))
	require.ErrorIs(t, err, cause)
}
