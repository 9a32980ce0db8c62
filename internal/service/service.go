package service

import (
	"context"

	"github.com/thisissairam/vidoo-backend/internal/domain"
)

type SignalInteractor interface {
	HandleSignal(clientID string, event *domain.Event) error
	Disconnect(clientID string)
	Members(roomKey string) []*domain.Client
}

type UserInteractor interface {
	Register(ctx context.Context, name string, username string, password string) (*domain.User, error)
	Login(ctx context.Context, username string, password string) (*domain.User, error)
}
