package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"studyquiz/internal/observability"
	"studyquiz/internal/services"
	contextutils "studyquiz/internal/utils"

	"github.com/spf13/cobra"
)

// CourseCommands returns the course inspection commands
func CourseCommands(courseService services.CourseServiceInterface, logger *observability.Logger) *cobra.Command {
	courseCmd := &cobra.Command{
		Use:   "course",
		Short: "Course inspection commands",
		Long: `Course inspection commands for the studyquiz backend.

Available commands:
  list       - List all courses with quiz progress
  completed  - List completed courses with aggregate scores
  delete     - Delete a course and its quizzes`,
	}

	courseCmd.AddCommand(courseListCmd(courseService, logger))
	courseCmd.AddCommand(courseCompletedCmd(courseService, logger))
	courseCmd.AddCommand(courseDeleteCmd(courseService, logger))

	return courseCmd
}

func courseListCmd(courseService services.CourseServiceInterface, _ *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all courses with quiz progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			courses, err := courseService.ListCourses(cmd.Context())
			if err != nil {
				return contextutils.WrapError(err, "failed to list courses")
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCOMPLETED\tREQUIRED\tDONE")
			for _, c := range courses {
				fmt.Fprintf(w, "%s\t%d\t%d\t%t\n", c.Course.Name, c.CompletedQuizzes, c.RequiredQuizzes, c.IsCompleted)
			}
			return w.Flush()
		},
	}
}

func courseCompletedCmd(courseService services.CourseServiceInterface, _ *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "completed",
		Short: "List completed courses with aggregate scores",
		RunE: func(cmd *cobra.Command, _ []string) error {
			completed, err := courseService.ListCompletedCourses(cmd.Context())
			if err != nil {
				return contextutils.WrapError(err, "failed to list completed courses")
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tQUIZZES\tCORRECT\tWRONG\tAVG\tCOMPLETED")
			for _, c := range completed {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f\t%s\n",
					c.Name, c.QuizzesCompleted, c.CorrectAnswers, c.WrongAnswers,
					c.AverageScore, c.CompletedDate.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}

func courseDeleteCmd(courseService services.CourseServiceInterface, _ *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a course and its quizzes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := courseService.DeleteCourse(cmd.Context(), name); err != nil {
				return contextutils.WrapErrorf(err, "failed to delete course %q", name)
			}
			fmt.Printf("Deleted course %q\n", name)
			return nil
		},
	}
}
