package commands

import (
	"fmt"

	"studyquiz/internal/observability"
	"studyquiz/internal/services"
	contextutils "studyquiz/internal/utils"

	"github.com/spf13/cobra"
)

// StatsCommands returns the learner statistics commands
func StatsCommands(statsService services.StatsServiceInterface, logger *observability.Logger) *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Learner statistics commands",
		Long: `Learner statistics commands for the studyquiz backend.

Available commands:
  show - Show the learner's progress counters`,
	}

	statsCmd.AddCommand(statsShowCmd(statsService, logger))

	return statsCmd
}

func statsShowCmd(statsService services.StatsServiceInterface, _ *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the learner's progress counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := statsService.GetLearnerStats(cmd.Context())
			if err != nil {
				return contextutils.WrapError(err, "failed to load learner stats")
			}

			fmt.Printf("Quizzes completed: %d\n", stats.QuizzesCompleted)
			fmt.Printf("Total stars:       %d\n", stats.TotalStars)
			fmt.Printf("Level:             %d (%s)\n", stats.CurrentLevel, stats.LevelName())
			fmt.Printf("Streak:            %d\n", stats.CurrentStreak)
			if stats.LastQuizDate.Valid {
				fmt.Printf("Last quiz:         %s\n", stats.LastQuizDate.Time.Format("2006-01-02"))
			} else {
				fmt.Println("Last quiz:         never")
			}
			return nil
		},
	}
}
