package mocks

import (
	"context"

	"github.com/NeuralTrust/TrustRelay/pkg/domain/relay"
	"github.com/stretchr/testify/mock"
)

type Gateway struct {
	mock.Mock
}

func NewGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *Gateway {
	m := &Gateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Gateway) SendText(ctx context.Context, to relay.SenderKey, text string) error {
	args := m.Called(ctx, to, text)
	return args.Error(0)
}

func (m *Gateway) SendItem(ctx context.Context, to relay.SenderKey, item relay.PayloadItem) error {
	args := m.Called(ctx, to, item)
	return args.Error(0)
}

func (m *Gateway) SendGroup(ctx context.Context, to relay.SenderKey, items []relay.PayloadItem) error {
	args := m.Called(ctx, to, items)
	return args.Error(0)
}
