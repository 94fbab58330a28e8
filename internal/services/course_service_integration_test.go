//go:build integration
// +build integration

package services

import (
	"context"
	"testing"

	"studyquiz/internal/models"
	contextutils "studyquiz/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseService_CreateCourse_AppliesDefaults_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	courseService, _, _ := newTestServices(t, db)

	course, err := courseService.CreateCourse(context.Background(), &models.CourseSpec{Topic: "Spanish Basics"})
	require.NoError(t, err)

	assert.Equal(t, "Spanish Basics", course.Name)
	assert.Equal(t, 7, course.DaysToComplete)
	assert.Equal(t, 1, course.QuizzesPerDay)
	assert.Equal(t, 5, course.QuestionsPerQuiz)
	assert.Equal(t, 7, course.RequiredQuizzes())
}

func TestCourseService_CreateCourse_DuplicateName_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	courseService, _, _ := newTestServices(t, db)

	first, err := courseService.CreateCourse(context.Background(), &models.CourseSpec{
		Topic: "Spanish Basics", DaysToComplete: 3, QuizzesPerDay: 2,
	})
	require.NoError(t, err)

	// Creating the same name again returns the existing row untouched
	second, err := courseService.CreateCourse(context.Background(), &models.CourseSpec{
		Topic: "Spanish Basics", DaysToComplete: 30, QuizzesPerDay: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.DaysToComplete)
	assert.Equal(t, 2, second.QuizzesPerDay)
}

func TestCourseService_CreateCourse_RejectsInvalidCadence_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	courseService, _, _ := newTestServices(t, db)

	_, err := courseService.CreateCourse(context.Background(), &models.CourseSpec{
		Topic: "Spanish Basics", DaysToComplete: 366,
	})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))

	_, err = courseService.CreateCourse(context.Background(), &models.CourseSpec{
		Topic: "Spanish Basics", QuizzesPerDay: 6,
	})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
}

func TestCourseService_GetCourseByName_NotFound_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	courseService, _, _ := newTestServices(t, db)

	_, err := courseService.GetCourseByName(context.Background(), "no-such-course")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeCourseNotFound, contextutils.GetErrorCode(err))
}

func TestCourseService_DeleteCourse_Cascades_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	courseService, quizService, _ := newTestServices(t, db)

	spec := &models.CourseSpec{Topic: "Spanish Basics", DaysToComplete: 1, QuizzesPerDay: 1, QuestionsPerQuiz: 2}
	generateAndComplete(t, quizService, "Spanish Basics", spec)

	require.NoError(t, courseService.DeleteCourse(context.Background(), "Spanish Basics"))

	var quizCount, completedCount, courseCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM quizzes WHERE course_name = 'Spanish Basics'`).Scan(&quizCount))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM completed_courses WHERE course_name = 'Spanish Basics'`).Scan(&completedCount))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM courses WHERE name = 'Spanish Basics'`).Scan(&courseCount))
	assert.Zero(t, quizCount)
	assert.Zero(t, completedCount)
	assert.Zero(t, courseCount)
}

func TestCourseService_DeleteCourse_NotFound_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	courseService, _, _ := newTestServices(t, db)

	err := courseService.DeleteCourse(context.Background(), "no-such-course")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeCourseNotFound, contextutils.GetErrorCode(err))
}

func TestCourseService_ListCourses_ReportsProgress_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	courseService, quizService, _ := newTestServices(t, db)

	spec := &models.CourseSpec{Topic: "Spanish Basics", DaysToComplete: 1, QuizzesPerDay: 1, QuestionsPerQuiz: 2}
	generateAndComplete(t, quizService, "Spanish Basics", spec)

	_, err := courseService.CreateCourse(context.Background(), &models.CourseSpec{
		Topic: "French Basics", DaysToComplete: 5, QuizzesPerDay: 2,
	})
	require.NoError(t, err)

	courses, err := courseService.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)

	byName := map[string]models.CourseProgress{}
	for _, c := range courses {
		byName[c.Course.Name] = c
	}

	spanish := byName["Spanish Basics"]
	assert.Equal(t, 1, spanish.CompletedQuizzes)
	assert.Equal(t, 1, spanish.RequiredQuizzes)
	assert.True(t, spanish.IsCompleted)

	french := byName["French Basics"]
	assert.Equal(t, 0, french.CompletedQuizzes)
	assert.Equal(t, 10, french.RequiredQuizzes)
	assert.False(t, french.IsCompleted)
}

func TestCourseService_ListCompletedCourses_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	courseService, quizService, _ := newTestServices(t, db)

	spec := &models.CourseSpec{Topic: "Spanish Basics", DaysToComplete: 1, QuizzesPerDay: 1, QuestionsPerQuiz: 3}
	result := generateAndComplete(t, quizService, "Spanish Basics", spec)
	require.True(t, result.IsCourseCompleted)

	completed, err := courseService.ListCompletedCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, completed, 1)

	summary := completed[0]
	assert.Equal(t, "Spanish Basics", summary.Name)
	assert.Equal(t, 1, summary.TotalQuizzes)
	assert.Equal(t, 3, summary.CorrectAnswers)
	assert.Equal(t, 0, summary.WrongAnswers)
	assert.InDelta(t, 100.0, summary.AverageScore, 0.001)
	assert.Equal(t, 1, summary.QuizzesCompleted)
}
