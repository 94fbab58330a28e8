// Package models defines data structures used throughout the study quiz application.
package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Course represents a named study topic with a target cadence. Courses are
// immutable once created.
type Course struct {
	ID               int            `json:"id" yaml:"id"`
	Name             string         `json:"name" yaml:"name"`
	Content          string         `json:"content" yaml:"content"`
	DaysToComplete   int            `json:"days_to_complete" yaml:"days_to_complete"`
	QuizzesPerDay    int            `json:"quizzes_per_day" yaml:"quizzes_per_day"`
	QuestionsPerQuiz int            `json:"questions_per_quiz" yaml:"questions_per_quiz"`
	AdditionalInfo   sql.NullString `json:"additional_info" yaml:"additional_info"`
	CreatedAt        time.Time      `json:"created_at" yaml:"created_at"`
}

// RequiredQuizzes returns the number of completed quizzes needed to finish the course.
func (c *Course) RequiredQuizzes() int {
	return c.DaysToComplete * c.QuizzesPerDay
}

// MarshalJSON customizes JSON marshaling for Course to handle sql.NullString properly
func (c Course) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID               int       `json:"id"`
		Name             string    `json:"name"`
		Content          string    `json:"content"`
		DaysToComplete   int       `json:"days_to_complete"`
		QuizzesPerDay    int       `json:"quizzes_per_day"`
		QuestionsPerQuiz int       `json:"questions_per_quiz"`
		AdditionalInfo   *string   `json:"additional_info"`
		CreatedAt        time.Time `json:"created_at"`
	}{
		ID:               c.ID,
		Name:             c.Name,
		Content:          c.Content,
		DaysToComplete:   c.DaysToComplete,
		QuizzesPerDay:    c.QuizzesPerDay,
		QuestionsPerQuiz: c.QuestionsPerQuiz,
		AdditionalInfo:   nullStringToPointer(c.AdditionalInfo),
		CreatedAt:        c.CreatedAt,
	})
}

// QuizQuestion is a single multiple-choice question within a quiz. Options
// always hold exactly four entries and CorrectAnswer indexes into them.
type QuizQuestion struct {
	Question      string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer int      `json:"correct_answer" yaml:"correct_answer"`
}

// Quiz represents one generated set of questions tied to a course.
// A quiz transitions from created to completed exactly once.
type Quiz struct {
	ID             int            `json:"id" yaml:"id"`
	CourseName     string         `json:"course_name" yaml:"course_name"`
	Questions      []QuizQuestion `json:"questions" yaml:"questions"`
	Completed      bool           `json:"completed" yaml:"completed"`
	Score          sql.NullInt32  `json:"score" yaml:"score"`
	TotalQuestions sql.NullInt32  `json:"total_questions" yaml:"total_questions"`
	CompletedDate  sql.NullTime   `json:"completed_date" yaml:"completed_date"`
	UserAnswers    []int          `json:"user_answers" yaml:"user_answers"`
	CreatedAt      time.Time      `json:"created_at" yaml:"created_at"`
}

// MarshalJSON customizes JSON marshaling for Quiz to handle sql.Null types properly
func (q Quiz) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID             int            `json:"id"`
		CourseName     string         `json:"course_name"`
		Questions      []QuizQuestion `json:"questions"`
		Completed      bool           `json:"completed"`
		Score          *int32         `json:"score"`
		TotalQuestions *int32         `json:"total_questions"`
		CompletedDate  *time.Time     `json:"completed_date"`
		UserAnswers    []int          `json:"user_answers,omitempty"`
		CreatedAt      time.Time      `json:"created_at"`
	}{
		ID:             q.ID,
		CourseName:     q.CourseName,
		Questions:      q.Questions,
		Completed:      q.Completed,
		Score:          nullInt32ToPointer(q.Score),
		TotalQuestions: nullInt32ToPointer(q.TotalQuestions),
		CompletedDate:  nullTimeToPointer(q.CompletedDate),
		UserAnswers:    q.UserAnswers,
		CreatedAt:      q.CreatedAt,
	})
}

// MarshalQuestionsToJSON serializes the question list for storage
func (q *Quiz) MarshalQuestionsToJSON() (result0 string, err error) {
	data, err := json.Marshal(q.Questions)
	return string(data), err
}

// UnmarshalQuestionsFromJSON deserializes a stored question list
func (q *Quiz) UnmarshalQuestionsFromJSON(data string) error {
	return json.Unmarshal([]byte(data), &q.Questions)
}

// CompletedCourse is the durable verdict record marking a course as fully
// completed. At most one row exists per course name.
type CompletedCourse struct {
	ID               int       `json:"id" yaml:"id"`
	CourseName       string    `json:"course_name" yaml:"course_name"`
	CompletionDate   time.Time `json:"completion_date" yaml:"completion_date"`
	TotalScore       int       `json:"total_score" yaml:"total_score"`
	TotalQuestions   int       `json:"total_questions" yaml:"total_questions"`
	DaysToComplete   int       `json:"days_to_complete" yaml:"days_to_complete"`
	QuizzesCompleted int       `json:"quizzes_completed" yaml:"quizzes_completed"`
	QuizzesPerDay    int       `json:"quizzes_per_day" yaml:"quizzes_per_day"`
}

// WrongAnswers returns the number of incorrect answers across the course.
func (cc *CompletedCourse) WrongAnswers() int {
	return cc.TotalQuestions - cc.TotalScore
}

// AverageScore calculates the accuracy percentage, 0 when no questions were answered.
func (cc *CompletedCourse) AverageScore() float64 {
	if cc.TotalQuestions == 0 {
		return 0.0
	}
	return float64(cc.TotalScore) / float64(cc.TotalQuestions) * 100
}

// MaxLevel is the terminal gamification level; no promotion happens beyond it.
const MaxLevel = 10

// levelNames maps each level to its display name.
var levelNames = map[int]string{
	1:  "Novice Learner",
	2:  "Knowledge Seeker",
	3:  "Study Enthusiast",
	4:  "Academic Explorer",
	5:  "Learning Champion",
	6:  "Study Master",
	7:  "Knowledge Guardian",
	8:  "Academic Legend",
	9:  "Study Sage",
	10: "Learning Oracle",
}

// levelRequirements maps the current level to the cumulative quizzes-completed
// count required to reach the next level. Level 10 is terminal; its entry is
// only reported as the max-level figure.
var levelRequirements = map[int]int{
	1:  1,
	2:  5,
	3:  15,
	4:  25,
	5:  40,
	6:  60,
	7:  85,
	8:  115,
	9:  150,
	10: 300,
}

// LearnerStats is the singleton gamification state for the single learner
// using the system. It is stored as one fixed row and mutated on every quiz
// completion.
type LearnerStats struct {
	ID               int          `json:"id" yaml:"id"`
	QuizzesCompleted int          `json:"quizzes_completed" yaml:"quizzes_completed"`
	TotalStars       int          `json:"total_stars" yaml:"total_stars"`
	CurrentLevel     int          `json:"current_level" yaml:"current_level"`
	CurrentStreak    int          `json:"current_streak" yaml:"current_streak"`
	LastQuizDate     sql.NullTime `json:"last_quiz_date" yaml:"last_quiz_date"`
}

// LevelName returns the display name for the learner's current level.
func (s *LearnerStats) LevelName() string {
	if name, ok := levelNames[s.CurrentLevel]; ok {
		return name
	}
	return "Novice Learner"
}

// NextLevelRequirement returns the cumulative completed-quiz count required
// for the next level promotion.
func (s *LearnerStats) NextLevelRequirement() int {
	if req, ok := levelRequirements[s.CurrentLevel]; ok {
		return req
	}
	return levelRequirements[MaxLevel]
}

// MarshalJSON customizes JSON marshaling for LearnerStats to handle sql.NullTime properly
func (s LearnerStats) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID               int        `json:"id"`
		QuizzesCompleted int        `json:"quizzes_completed"`
		TotalStars       int        `json:"total_stars"`
		CurrentLevel     int        `json:"current_level"`
		CurrentStreak    int        `json:"current_streak"`
		LastQuizDate     *time.Time `json:"last_quiz_date"`
	}{
		ID:               s.ID,
		QuizzesCompleted: s.QuizzesCompleted,
		TotalStars:       s.TotalStars,
		CurrentLevel:     s.CurrentLevel,
		CurrentStreak:    s.CurrentStreak,
		LastQuizDate:     nullTimeToPointer(s.LastQuizDate),
	})
}

// Helper functions for converting sql.Null types to pointers
func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func nullTimeToPointer(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

func nullInt32ToPointer(ni sql.NullInt32) *int32 {
	if ni.Valid {
		return &ni.Int32
	}
	return nil
}

// CourseSpec carries the caller-supplied course parameters for quiz generation.
// Cadence fields only apply when the course does not exist yet; thresholds for
// existing courses are always read from the stored Course record.
type CourseSpec struct {
	Topic            string `json:"topic" validate:"required,min=1,max=255"`
	Content          string `json:"content,omitempty"`
	AdditionalInfo   string `json:"additional_info,omitempty"`
	DaysToComplete   int    `json:"days_to_complete" validate:"omitempty,min=1,max=365"`
	QuizzesPerDay    int    `json:"quizzes_per_day" validate:"omitempty,min=1,max=5"`
	QuestionsPerQuiz int    `json:"questions_per_quiz" validate:"omitempty,min=1,max=50"`
}

// CompletionRequest carries a quiz completion submission. The score is
// recomputed server-side from the stored correct answers.
type CompletionRequest struct {
	QuizID      int    `json:"quiz_id" validate:"required,min=1"`
	CourseName  string `json:"course_name" validate:"required,min=1,max=255"`
	UserAnswers []int  `json:"answers" validate:"required"`
}

// CompletionResult is the outcome of a quiz completion: the course-completion
// verdict plus the refreshed gamification snapshot.
type CompletionResult struct {
	IsCourseCompleted bool          `json:"is_course_completed"`
	Score             int           `json:"score"`
	TotalQuestions    int           `json:"total_questions"`
	CompletedQuizzes  int           `json:"completed_quizzes"`
	RequiredQuizzes   int           `json:"total_required_quizzes"`
	Stats             *LearnerStats `json:"stats"`
}

// CourseProgress summarizes a course's completion state for listings.
type CourseProgress struct {
	Course           Course `json:"course"`
	CompletedQuizzes int    `json:"completed_quizzes"`
	RequiredQuizzes  int    `json:"required_quizzes"`
	IsCompleted      bool   `json:"is_completed"`
}

// CompletedCourseSummary is the client-facing view of a completed course with
// derived statistics.
type CompletedCourseSummary struct {
	Name             string    `json:"name"`
	TotalQuizzes     int       `json:"totalQuizzes"`
	CorrectAnswers   int       `json:"correctAnswers"`
	WrongAnswers     int       `json:"wrongAnswers"`
	AverageScore     float64   `json:"averageScore"`
	CompletedDate    time.Time `json:"completedDate"`
	DaysToComplete   int       `json:"daysToComplete"`
	QuizzesCompleted int       `json:"quizzesCompleted"`
}
