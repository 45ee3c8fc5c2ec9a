package http

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/aussiebroadwan/agileboard/internal/board/service"
	"github.com/stretchr/testify/require"
)

func TestToSendResponse(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	inv := &domain.Invitation{ID: "inv-1", ProjectID: "p-1", Email: "new@x.com", CreatedAt: now, ExpiresAt: now.Add(domain.InvitationTTL)}
	member := &domain.Member{ProjectID: "p-1", UserID: "u-1", Role: domain.RoleMember, AddedAt: now}

	tests := []struct {
		name    string
		res     service.SendResult
		message string
	}{
		{"direct add", service.SendResult{Kind: service.SendDirectAdd, Member: member}, "User added to the project"},
		{"sent", service.SendResult{Kind: service.SendInvitationSent, Invitation: inv, Token: "tok"}, "Invitation sent"},
		{"resent", service.SendResult{Kind: service.SendResent, Invitation: inv, Token: "tok"}, "Invitation resent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := toSendResponse(tt.res)
			require.NoError(t, err)
			require.Equal(t, string(tt.res.Kind), out.Type)
			require.Equal(t, tt.message, out.Message)
			require.Equal(t, tt.res.Member != nil, out.Member != nil)
			require.Equal(t, tt.res.Invitation != nil, out.Invitation != nil)
		})
	}
}

func TestToSendResponse_UnknownKind(t *testing.T) {
	_, err := toSendResponse(service.SendResult{Kind: service.SendKind("bulk_add")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "bulk_add")

	_, err = toSendResponse(service.SendResult{})
	require.Error(t, err)
}
