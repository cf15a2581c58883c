package bot

import (
	"context"

	"github.com/fadedpez/playtimeshop/pkg/catalog"
	"github.com/fadedpez/playtimeshop/pkg/entities"
	"github.com/stretchr/testify/mock"
)

// MockShop implements Shop for testing
type MockShop struct {
	mock.Mock
}

func (m *MockShop) ShowPoints(ctx context.Context, playerID string) (int64, error) {
	args := m.Called(ctx, playerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShop) Buy(ctx context.Context, playerID, offerText string) (entities.PurchaseResult, error) {
	args := m.Called(ctx, playerID, offerText)
	return args.Get(0).(entities.PurchaseResult), args.Error(1)
}

func (m *MockShop) Catalog() *catalog.Catalog {
	args := m.Called()
	return args.Get(0).(*catalog.Catalog)
}

func (m *MockShop) Rate() entities.RewardRate {
	args := m.Called()
	return args.Get(0).(entities.RewardRate)
}
