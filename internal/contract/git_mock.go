package contract

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGitClient is a mock implementation of GitClient for testing.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	var mockArgs []any
	mockArgs = append(mockArgs, ctx, repoPath)
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// RunWithEnv implements the GitClient interface.
func (m *MockGitClient) RunWithEnv(ctx context.Context, repoPath string, env []string, args ...string) ([]byte, error) {
	var mockArgs []any
	mockArgs = append(mockArgs, ctx, repoPath, env)
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// CloneMirror implements the GitClient interface.
func (m *MockGitClient) CloneMirror(ctx context.Context, url, mirrorDir string) error {
	return m.Called(ctx, url, mirrorDir).Error(0)
}

// UpdateMirror implements the GitClient interface.
func (m *MockGitClient) UpdateMirror(ctx context.Context, mirrorDir string) error {
	return m.Called(ctx, mirrorDir).Error(0)
}

// HasRevision implements the GitClient interface.
func (m *MockGitClient) HasRevision(ctx context.Context, repoPath, ref string) bool {
	return m.Called(ctx, repoPath, ref).Bool(0)
}

// CheckoutTree implements the GitClient interface.
func (m *MockGitClient) CheckoutTree(ctx context.Context, repoPath, ref, target string) error {
	return m.Called(ctx, repoPath, ref, target).Error(0)
}

// GetActivityLog implements the GitClient interface.
func (m *MockGitClient) GetActivityLog(ctx context.Context, repoPath, ref string, all bool) ([]byte, error) {
	ret := m.Called(ctx, repoPath, ref, all)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// GetShortlog implements the GitClient interface.
func (m *MockGitClient) GetShortlog(ctx context.Context, repoPath, ref string) ([]byte, error) {
	ret := m.Called(ctx, repoPath, ref)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}
