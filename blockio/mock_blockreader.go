// Code generated in the style of mockgen for the BlockReader interface.
// Hand-maintained because this module has no build step that regenerates it.

package blockio

import (
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"
)

// MockBlockReader is a mock of the BlockReader interface, used by tests
// (currently diskfs's) to inject short reads, out-of-range reads, and I/O
// failures without needing a real block device.
type MockBlockReader struct {
	ctrl     *gomock.Controller
	recorder *MockBlockReaderMockRecorder
}

// MockBlockReaderMockRecorder is the mock recorder for MockBlockReader.
type MockBlockReaderMockRecorder struct {
	mock *MockBlockReader
}

// NewMockBlockReader creates a new mock instance.
func NewMockBlockReader(ctrl *gomock.Controller) *MockBlockReader {
	mock := &MockBlockReader{ctrl: ctrl}
	mock.recorder = &MockBlockReaderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockBlockReader) EXPECT() *MockBlockReaderMockRecorder {
	return m.recorder
}

// ReadAt mocks base method.
func (m *MockBlockReader) ReadAt(offset int64, length int) ([]byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ReadAt", offset, length)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ReadAt indicates an expected call of ReadAt.
func (mr *MockBlockReaderMockRecorder) ReadAt(offset, length interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReadAt", reflect.TypeOf((*MockBlockReader)(nil).ReadAt), offset, length)
}

// Size mocks base method.
func (m *MockBlockReader) Size() int64 {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Size")
	ret0, _ := ret[0].(int64)
	return ret0
}

// Size indicates an expected call of Size.
func (mr *MockBlockReaderMockRecorder) Size() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Size", reflect.TypeOf((*MockBlockReader)(nil).Size))
}
