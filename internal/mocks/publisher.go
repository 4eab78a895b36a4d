package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/daloestt55/connecta-sub001/internal/telemetry"
)

// PublisherMock doubles the event transport behind the audit emitter.
type PublisherMock struct {
	mock.Mock
}

// Publish records the routing key and event for assertion.
func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ telemetry.Publisher = (*PublisherMock)(nil)
