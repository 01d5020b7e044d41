package contract

import (
	"context"

	"github.com/huangsam/srcmeasure/schema"
	"github.com/stretchr/testify/mock"
)

// MockMaterializer is a mock implementation of Materializer for testing.
type MockMaterializer struct {
	mock.Mock
}

var _ Materializer = &MockMaterializer{} // Compile-time check

// Extract implements the Materializer interface.
func (m *MockMaterializer) Extract(ctx context.Context, repo, ref, target string) error {
	args := m.Called(ctx, repo, ref, target)
	return args.Error(0)
}

// MirrorDir implements the Materializer interface.
func (m *MockMaterializer) MirrorDir(repo string) string {
	args := m.Called(repo)
	return args.String(0)
}

// MockLineCounter is a mock implementation of LineCounter for testing.
type MockLineCounter struct {
	mock.Mock
}

var _ LineCounter = &MockLineCounter{} // Compile-time check

// Count implements the LineCounter interface.
func (m *MockLineCounter) Count(ctx context.Context, dir string) (int, error) {
	args := m.Called(ctx, dir)
	return args.Int(0), args.Error(1)
}

// MockActivityAnalyzer is a mock implementation of ActivityAnalyzer for testing.
type MockActivityAnalyzer struct {
	mock.Mock
}

var _ ActivityAnalyzer = &MockActivityAnalyzer{} // Compile-time check

// Activity implements the ActivityAnalyzer interface.
func (m *MockActivityAnalyzer) Activity(ctx context.Context, mirrorDir, ref string) (schema.ActivityStats, error) {
	args := m.Called(ctx, mirrorDir, ref)
	return args.Get(0).(schema.ActivityStats), args.Error(1)
}

// MockAuthorCounter is a mock implementation of AuthorCounter for testing.
type MockAuthorCounter struct {
	mock.Mock
}

var _ AuthorCounter = &MockAuthorCounter{} // Compile-time check

// Authors implements the AuthorCounter interface.
func (m *MockAuthorCounter) Authors(ctx context.Context, mirrorDir, ref string) (int, error) {
	args := m.Called(ctx, mirrorDir, ref)
	return args.Int(0), args.Error(1)
}

// MockComponentMeasurer is a mock implementation of ComponentMeasurer for testing.
type MockComponentMeasurer struct {
	mock.Mock
}

var _ ComponentMeasurer = &MockComponentMeasurer{} // Compile-time check

// Measure implements the ComponentMeasurer interface.
func (m *MockComponentMeasurer) Measure(ctx context.Context, name, repo, ref string) (schema.MetricsRecord, error) {
	args := m.Called(ctx, name, repo, ref)
	return args.Get(0).(schema.MetricsRecord), args.Error(1)
}
