package application

import (
	"sync"

	"github.com/google/uuid"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/domain"
)

// Registry holds the live auction aggregates. Every caller that mutates an
// auction goes through the same aggregate instance here, so the aggregate's
// own lock serializes concurrent bids near supply exhaustion.
type Registry struct {
	mu       sync.RWMutex
	auctions map[uuid.UUID]*domain.Auction
}

func NewRegistry() *Registry {
	return &Registry{auctions: make(map[uuid.UUID]*domain.Auction)}
}

func (r *Registry) Add(a *domain.Auction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auctions[a.ID()] = a
}

func (r *Registry) Get(id uuid.UUID) (*domain.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return a, nil
}
