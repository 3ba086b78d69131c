// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/koustreak/featurerepo/internal/objectstore"
)

// MockFileSystem is a mock implementation of objectstore.FileSystem.
type MockFileSystem struct {
	mock.Mock
}

// NewMockFileSystem creates a mock and asserts its expectations on cleanup.
func NewMockFileSystem(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockFileSystem {
	m := &MockFileSystem{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Provider provides a mock function with given fields:
func (m *MockFileSystem) Provider() objectstore.Provider {
	ret := m.Called()
	return ret.Get(0).(objectstore.Provider)
}

// Endpoint provides a mock function with given fields:
func (m *MockFileSystem) Endpoint() *objectstore.Endpoint {
	ret := m.Called()

	var r0 *objectstore.Endpoint
	if v := ret.Get(0); v != nil {
		r0 = v.(*objectstore.Endpoint)
	}
	return r0
}

// Ping provides a mock function with given fields: ctx, bucket
func (m *MockFileSystem) Ping(ctx context.Context, bucket string) error {
	ret := m.Called(ctx, bucket)
	return ret.Error(0)
}

// Stat provides a mock function with given fields: ctx, uri
func (m *MockFileSystem) Stat(ctx context.Context, uri objectstore.URI) (*objectstore.ObjectInfo, error) {
	ret := m.Called(ctx, uri)

	var r0 *objectstore.ObjectInfo
	if v := ret.Get(0); v != nil {
		r0 = v.(*objectstore.ObjectInfo)
	}
	return r0, ret.Error(1)
}

// Open provides a mock function with given fields: ctx, uri
func (m *MockFileSystem) Open(ctx context.Context, uri objectstore.URI) (objectstore.Object, error) {
	ret := m.Called(ctx, uri)

	var r0 objectstore.Object
	if v := ret.Get(0); v != nil {
		r0 = v.(objectstore.Object)
	}
	return r0, ret.Error(1)
}

// Download provides a mock function with given fields: ctx, uri, dst
func (m *MockFileSystem) Download(ctx context.Context, uri objectstore.URI, dst string) (int64, error) {
	ret := m.Called(ctx, uri, dst)
	return ret.Get(0).(int64), ret.Error(1)
}

// Close provides a mock function with given fields:
func (m *MockFileSystem) Close() error {
	ret := m.Called()
	return ret.Error(0)
}
