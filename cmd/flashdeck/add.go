package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/flashdeck/internal/review"
)

var addCmd = &cobra.Command{
	Use:   "add FRONT BACK",
	Short: "Add a card to the collection",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	session, err := review.New(ctx, db)
	if err != nil {
		return err
	}

	card, err := session.AddCard(ctx, args[0], args[1])
	if errors.Is(err, review.ErrDuplicateCard) {
		fmt.Fprintln(cmd.OutOrStdout(), "This card already exists!")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added card %s\n", card.ID)
	return nil
}
