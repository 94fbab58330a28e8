package services

import (
	"context"
	"database/sql"
	"errors"

	"studyquiz/internal/config"
	"studyquiz/internal/models"
	"studyquiz/internal/observability"
	contextutils "studyquiz/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// CourseServiceInterface defines the interface for course-related operations.
// This allows for easier mocking in tests.
type CourseServiceInterface interface {
	GetCourseByName(ctx context.Context, name string) (*models.Course, error)
	GetOrCreateCourse(ctx context.Context, spec *models.CourseSpec) (*models.Course, error)
	CreateCourse(ctx context.Context, spec *models.CourseSpec) (*models.Course, error)
	DeleteCourse(ctx context.Context, name string) error
	ListCourses(ctx context.Context) ([]models.CourseProgress, error)
	ListCompletedCourses(ctx context.Context) ([]models.CompletedCourseSummary, error)
}

// CourseService provides course management on top of the record store.
type CourseService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewCourseService creates a new course service
func NewCourseService(db *sql.DB, logger *observability.Logger) *CourseService {
	return &CourseService{db: db, logger: logger}
}

const courseSelectFields = `id, name, content, days_to_complete, quizzes_per_day, questions_per_quiz, additional_info, created_at`

func scanCourse(row interface{ Scan(...interface{}) error }) (result0 *models.Course, err error) {
	course := &models.Course{}
	err = row.Scan(
		&course.ID,
		&course.Name,
		&course.Content,
		&course.DaysToComplete,
		&course.QuizzesPerDay,
		&course.QuestionsPerQuiz,
		&course.AdditionalInfo,
		&course.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return course, nil
}

// GetCourseByName returns the stored course record for name
func (s *CourseService) GetCourseByName(ctx context.Context, name string) (result0 *models.Course, err error) {
	ctx, span := observability.TraceCourseFunction(ctx, "GetCourseByName",
		observability.AttributeCourseName(name),
	)
	defer observability.FinishSpan(span, &err)

	row := s.db.QueryRowContext(ctx, `SELECT `+courseSelectFields+` FROM courses WHERE name = $1`, name)
	course, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contextutils.ErrCourseNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query course")
	}
	return course, nil
}

// GetOrCreateCourse returns the existing course for the spec's topic or
// creates it with the spec's cadence. Cadence fields from the spec are ignored
// for an existing course; the stored record is authoritative.
func (s *CourseService) GetOrCreateCourse(ctx context.Context, spec *models.CourseSpec) (result0 *models.Course, err error) {
	ctx, span := observability.TraceCourseFunction(ctx, "GetOrCreateCourse",
		observability.AttributeCourseName(spec.Topic),
	)
	defer observability.FinishSpan(span, &err)

	if err := contextutils.ValidateStruct(spec); err != nil {
		return nil, err
	}

	course, err := s.GetCourseByName(ctx, spec.Topic)
	if err == nil {
		return course, nil
	}
	if contextutils.GetErrorCode(err) != contextutils.ErrorCodeCourseNotFound {
		return nil, err
	}

	return s.CreateCourse(ctx, spec)
}

// CreateCourse inserts a new course, applying defaults for cadence fields the
// spec leaves at zero. A concurrent insert of the same name is resolved by
// re-reading the winner's row.
func (s *CourseService) CreateCourse(ctx context.Context, spec *models.CourseSpec) (result0 *models.Course, err error) {
	ctx, span := observability.TraceCourseFunction(ctx, "CreateCourse",
		observability.AttributeCourseName(spec.Topic),
	)
	defer observability.FinishSpan(span, &err)

	if err := contextutils.ValidateStruct(spec); err != nil {
		return nil, err
	}

	days := spec.DaysToComplete
	if days == 0 {
		days = config.DefaultDaysToComplete
	}
	perDay := spec.QuizzesPerDay
	if perDay == 0 {
		perDay = config.DefaultQuizzesPerDay
	}
	perQuiz := spec.QuestionsPerQuiz
	if perQuiz == 0 {
		perQuiz = config.DefaultQuestionsPerQuiz
	}

	additionalInfo := sql.NullString{String: spec.AdditionalInfo, Valid: spec.AdditionalInfo != ""}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO courses (name, content, days_to_complete, quizzes_per_day, questions_per_quiz, additional_info)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO NOTHING
		RETURNING `+courseSelectFields,
		spec.Topic, spec.Content, days, perDay, perQuiz, additionalInfo,
	)
	course, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost the race to a concurrent creator; the existing row wins.
		return s.GetCourseByName(ctx, spec.Topic)
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert course")
	}

	s.logger.Info(ctx, "Course created", map[string]interface{}{
		"course_name":        course.Name,
		"days_to_complete":   course.DaysToComplete,
		"quizzes_per_day":    course.QuizzesPerDay,
		"questions_per_quiz": course.QuestionsPerQuiz,
	})
	return course, nil
}

// DeleteCourse removes the course with all its quizzes and any completion
// record. The cascade runs in one transaction; it is not reversible.
func (s *CourseService) DeleteCourse(ctx context.Context, name string) (err error) {
	ctx, span := observability.TraceCourseFunction(ctx, "DeleteCourse",
		observability.AttributeCourseName(name),
	)
	defer observability.FinishSpan(span, &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return contextutils.WrapError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.logger.Warn(ctx, "Failed to rollback transaction", map[string]interface{}{"error": rollbackErr.Error()})
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM quizzes WHERE course_name = $1`, name); err != nil {
		return contextutils.WrapError(err, "failed to delete course quizzes")
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM completed_courses WHERE course_name = $1`, name); err != nil {
		return contextutils.WrapError(err, "failed to delete course completion record")
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE name = $1`, name)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete course")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to read rows affected")
	}
	if affected == 0 {
		err = contextutils.ErrCourseNotFound
		return err
	}

	if err = tx.Commit(); err != nil {
		return contextutils.WrapError(err, "failed to commit transaction")
	}

	s.logger.Info(ctx, "Course deleted", map[string]interface{}{"course_name": name})
	return nil
}

// ListCourses returns every course with its completion progress
func (s *CourseService) ListCourses(ctx context.Context) (result0 []models.CourseProgress, err error) {
	ctx, span := observability.TraceCourseFunction(ctx, "ListCourses")
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.content, c.days_to_complete, c.quizzes_per_day, c.questions_per_quiz, c.additional_info, c.created_at,
		       COALESCE(q.completed_count, 0),
		       cc.id IS NOT NULL
		FROM courses c
		LEFT JOIN (
			SELECT course_name, COUNT(*) AS completed_count
			FROM quizzes
			WHERE completed = TRUE
			GROUP BY course_name
		) q ON q.course_name = c.name
		LEFT JOIN completed_courses cc ON cc.course_name = c.name
		ORDER BY c.created_at`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query courses")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var progress []models.CourseProgress
	for rows.Next() {
		var p models.CourseProgress
		if err = rows.Scan(
			&p.Course.ID,
			&p.Course.Name,
			&p.Course.Content,
			&p.Course.DaysToComplete,
			&p.Course.QuizzesPerDay,
			&p.Course.QuestionsPerQuiz,
			&p.Course.AdditionalInfo,
			&p.Course.CreatedAt,
			&p.CompletedQuizzes,
			&p.IsCompleted,
		); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan course row")
		}
		p.RequiredQuizzes = p.Course.RequiredQuizzes()
		progress = append(progress, p)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate course rows")
	}

	span.SetAttributes(attribute.Int("courses.count", len(progress)))
	return progress, nil
}

// ListCompletedCourses returns summaries of finished courses, most recent first
func (s *CourseService) ListCompletedCourses(ctx context.Context) (result0 []models.CompletedCourseSummary, err error) {
	ctx, span := observability.TraceCourseFunction(ctx, "ListCompletedCourses")
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, course_name, completion_date, total_score, total_questions, days_to_complete, quizzes_completed, quizzes_per_day
		FROM completed_courses
		ORDER BY completion_date DESC`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query completed courses")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var summaries []models.CompletedCourseSummary
	for rows.Next() {
		var cc models.CompletedCourse
		if err = rows.Scan(
			&cc.ID,
			&cc.CourseName,
			&cc.CompletionDate,
			&cc.TotalScore,
			&cc.TotalQuestions,
			&cc.DaysToComplete,
			&cc.QuizzesCompleted,
			&cc.QuizzesPerDay,
		); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan completed course row")
		}
		summaries = append(summaries, models.CompletedCourseSummary{
			Name:             cc.CourseName,
			TotalQuizzes:     cc.QuizzesCompleted,
			CorrectAnswers:   cc.TotalScore,
			WrongAnswers:     cc.WrongAnswers(),
			AverageScore:     cc.AverageScore(),
			CompletedDate:    cc.CompletionDate,
			DaysToComplete:   cc.DaysToComplete,
			QuizzesCompleted: cc.QuizzesCompleted,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate completed course rows")
	}

	span.SetAttributes(attribute.Int("completed_courses.count", len(summaries)))
	return summaries, nil
}
