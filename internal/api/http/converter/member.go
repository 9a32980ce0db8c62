package converter

import (
	"time"

	"github.com/samber/lo"
	"github.com/thisissairam/vidoo-backend/internal/domain"
)

type MemberResponse struct {
	PeerID      string              `json:"peer_id"`
	DisplayName string              `json:"display_name"`
	Status      domain.ClientStatus `json:"status"`
	ConnectedAt time.Time           `json:"connected_at"`
}

func MembersToApi(members []*domain.Client) []MemberResponse {
	return lo.Map(members, func(client *domain.Client, _ int) MemberResponse {
		client.Mutex.RLock()
		defer client.Mutex.RUnlock()

		return MemberResponse{
			PeerID:      client.ID,
			DisplayName: client.DisplayName,
			Status:      client.Status,
			ConnectedAt: client.ConnectedAt,
		}
	})
}
