package db

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MockCollection is a mock implementation of Collection
type MockCollection struct {
	mock.Mock
}

func (m *MockCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (Cursor, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Cursor), args.Error(1)
}

func (m *MockCollection) InsertOne(ctx context.Context, document interface{}) error {
	args := m.Called(ctx, document)
	return args.Error(0)
}

func (m *MockCollection) UpdateOne(ctx context.Context, filter, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	args := m.Called(ctx, filter, update)
	return args.Get(0).(int64), args.Error(1)
}

// MockCursor is a mock implementation of Cursor
type MockCursor struct {
	mock.Mock
}

func (m *MockCursor) All(ctx context.Context, out interface{}) error {
	args := m.Called(ctx, out)
	return args.Error(0)
}

func (m *MockCursor) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// cursorOf returns a cursor whose All fills a *[]T with docs.
func cursorOf[T any](docs ...T) *MockCursor {
	c := new(MockCursor)
	c.On("All", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		out := args.Get(1).(*[]T)
		*out = append((*out)[:0], docs...)
	}).Return(nil)
	c.On("Close", mock.Anything).Return(nil)
	return c
}
