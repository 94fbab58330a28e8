package handlers

import (
	"context"

	"studyquiz/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockQuizService is a testify mock for services.QuizServiceInterface
type MockQuizService struct {
	mock.Mock
}

// GenerateQuiz mocks quiz generation
func (m *MockQuizService) GenerateQuiz(ctx context.Context, spec *models.CourseSpec) (*models.Quiz, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

// GetQuiz mocks quiz lookup
func (m *MockQuizService) GetQuiz(ctx context.Context, id int) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

// CompleteQuiz mocks quiz completion
func (m *MockQuizService) CompleteQuiz(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CompletionResult), args.Error(1)
}

// MockCourseService is a testify mock for services.CourseServiceInterface
type MockCourseService struct {
	mock.Mock
}

// GetCourseByName mocks course lookup
func (m *MockCourseService) GetCourseByName(ctx context.Context, name string) (*models.Course, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

// GetOrCreateCourse mocks course get-or-create
func (m *MockCourseService) GetOrCreateCourse(ctx context.Context, spec *models.CourseSpec) (*models.Course, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

// CreateCourse mocks course creation
func (m *MockCourseService) CreateCourse(ctx context.Context, spec *models.CourseSpec) (*models.Course, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

// DeleteCourse mocks course deletion
func (m *MockCourseService) DeleteCourse(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// ListCourses mocks course listing
func (m *MockCourseService) ListCourses(ctx context.Context) ([]models.CourseProgress, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CourseProgress), args.Error(1)
}

// ListCompletedCourses mocks completed-course listing
func (m *MockCourseService) ListCompletedCourses(ctx context.Context) ([]models.CompletedCourseSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CompletedCourseSummary), args.Error(1)
}

// MockStatsService is a testify mock for services.StatsServiceInterface
type MockStatsService struct {
	mock.Mock
}

// GetLearnerStats mocks stats retrieval
func (m *MockStatsService) GetLearnerStats(ctx context.Context) (*models.LearnerStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LearnerStats), args.Error(1)
}
