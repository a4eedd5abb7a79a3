package customer

import (
	"context"
	"customer-manager/internal/event"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) Load(ctx context.Context) ([]Record, error) {
	ret := _m.Called(ctx)

	var r0 []Record
	if rf, ok := ret.Get(0).(func(context.Context) []Record); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]Record)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockRepository) Save(ctx context.Context, records []Record) error {
	ret := _m.Called(ctx, records)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, []Record) error); ok {
		r0 = rf(ctx, records)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

type MockEventPublisher struct {
	mock.Mock
}

func (_m *MockEventPublisher) Publish(ctx context.Context, evt event.CustomerEvent) error {
	ret := _m.Called(ctx, evt)
	return ret.Error(0)
}
