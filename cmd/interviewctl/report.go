package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/mock-interview/internal/adapter/repository"
	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/infrastructure/database"
	"github.com/johnquangdev/mock-interview/internal/usecase/interview"
)

var reportCmd = &cobra.Command{
	Use:   "report [mockId]",
	Short: "Print reconciled knowledge, audio and behavior scores",
	Long:  "Print reconciled scores of one interview, or of every interview of --owner.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		if (len(args) == 0) == (owner == "") {
			return errors.New("pass either a mockId or --owner")
		}

		l, err := newLogger()
		if err != nil {
			return err
		}
		defer l.Sync()

		db, _, err := openDB(l)
		if err != nil {
			return err
		}
		defer database.CloseDB(db)

		answers := repository.NewAnswerRepository(db)
		records := repository.NewAnalysisRepository(db)
		ctx := cmd.Context()

		var (
			answerList   []*entities.AnswerRecord
			analysisList []*entities.AnalysisRecord
		)
		if owner != "" {
			if answerList, err = answers.ListByOwner(ctx, owner); err != nil {
				return err
			}
			if analysisList, err = records.ListByOwner(ctx, owner); err != nil {
				return err
			}
		} else {
			if answerList, err = answers.ListByMockID(ctx, args[0]); err != nil {
				return err
			}
			if analysisList, err = records.ListByMockID(ctx, args[0]); err != nil {
				return err
			}
		}

		return printJSON(interview.Reconcile(interview.ContentStream(answerList, analysisList)))
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile <mockId>",
	Short: "Print the skill profile of an interview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger()
		if err != nil {
			return err
		}
		defer l.Sync()

		db, _, err := openDB(l)
		if err != nil {
			return err
		}
		defer database.CloseDB(db)

		session, err := repository.NewSessionRepository(db).FindByMockID(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		profile := session.Profile()
		skills := make([]string, 0, len(profile))
		for skill := range profile {
			skills = append(skills, skill)
		}
		sort.Strings(skills)

		fmt.Printf("%s (%s, %s) state=%s\n", session.MockID, session.JobType, session.JobExperience, session.State)
		for _, skill := range skills {
			fmt.Printf("  %-24s %d\n", skill, profile[skill])
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().String("owner", "", "reconcile every interview of this owner")
	rootCmd.AddCommand(reportCmd, profileCmd)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
