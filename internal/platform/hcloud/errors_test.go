package hcloud

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/oxide/internal/fault"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	apiErr := func(code hcloud.ErrorCode) error {
		return hcloud.Error{Code: code, Message: string(code)}
	}

	tests := []struct {
		name string
		err  error
		want fault.Kind
	}{
		{"not found", apiErr(hcloud.ErrorCodeNotFound), fault.NotFound},
		{"uniqueness", apiErr(hcloud.ErrorCodeUniquenessError), fault.Conflict},
		{"conflict", apiErr(hcloud.ErrorCodeConflict), fault.Conflict},
		{"resource in use", apiErr(hcloud.ErrorCodeResourceInUse), fault.Busy},
		{"locked", apiErr(hcloud.ErrorCodeLocked), fault.Busy},
		{"unavailable", apiErr(hcloud.ErrorCodeResourceUnavailable), fault.Busy},
		{"rate limited", apiErr(hcloud.ErrorCodeRateLimitExceeded), fault.Busy},
		{"invalid input", apiErr(hcloud.ErrorCodeInvalidInput), fault.Other},
		{"wrapped", fmt.Errorf("ctx: %w", apiErr(hcloud.ErrorCodeNotFound)), fault.NotFound},
		{"plain", errors.New("boom"), fault.Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, kindOf(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.NoError(t, classify("get server", nil))

	err := classify("delete firewall", hcloud.Error{Code: hcloud.ErrorCodeResourceInUse, Message: "in use"})
	require.Error(t, err)
	assert.True(t, fault.IsBusy(err))
	assert.Contains(t, err.Error(), "delete firewall")
	assert.True(t, hcloud.IsError(err, hcloud.ErrorCodeResourceInUse), "original error stays in the chain")
}

func TestCleanupError(t *testing.T) {
	t.Parallel()

	ce := &CleanupError{}
	ce.Add(nil)
	assert.False(t, ce.HasErrors())
	assert.NoError(t, ce.ErrOrNil())

	notFound := fault.New(fault.NotFound, "delete network", "gone")
	ce.Add(notFound)
	assert.Equal(t, notFound.Error(), ce.Error())

	ce.Add(errors.New("ssh key: denied"))
	require.Error(t, ce.ErrOrNil())
	assert.Contains(t, ce.Error(), "cleanup encountered 2 errors")
	assert.ErrorIs(t, ce, notFound)
}

func TestMockClient_Defaults(t *testing.T) {
	t.Parallel()

	m := &MockClient{}
	ip, err := m.GetPublicIP(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.10", ip)

	server, err := m.CreateServer(t.Context(), ServerCreateOpts{Name: "demo-worker-1"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ServerIPv4(server))
	assert.Empty(t, ServerPrivateIP(server))

	assert.Equal(t, []string{"GetPublicIP", "CreateServer"}, m.Calls())
	assert.Equal(t, 1, m.CallCount("CreateServer"))
}
