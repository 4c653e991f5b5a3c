// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tomtom215/corkboard/internal/client"
	"github.com/tomtom215/corkboard/internal/models"
	"github.com/tomtom215/corkboard/internal/printer"
)

func newCardCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Add and move cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newCardAddCmd(opts), newCardMoveCmd(opts))
	return cmd
}

func newCardAddCmd(opts *rootOptions) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <boardId> <columnId> <title>",
		Short: "Append a card to a column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			card, err := c.CreateCard(cmd.Context(), args[0], args[1], models.CreateCardRequest{
				Title:       args[2],
				Description: description,
			})
			if err != nil {
				return opts.report("Adding the card", err)
			}
			opts.out.Success("Added %s %s\n", printer.Emphasis(card.Title), printer.Muted(card.ID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "card description")
	return cmd
}

func newCardMoveCmd(opts *rootOptions) *cobra.Command {
	var (
		to    string
		index int
	)
	cmd := &cobra.Command{
		Use:   "move <boardId> <cardId> --to <columnId>",
		Short: "Move a card to another column or position",
		Long: `Move a card optimistically. The card is placed locally first and the
server is asked to confirm. If another user moved it in the meantime the
move is reverted and the current board is fetched again.

--index counts from 0 in the destination column; omit it to append.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, cardID := args[0], args[1]
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			sess, err := client.Open(ctx, c, boardID, opts.user, opts.sessionOptions()...)
			if err != nil {
				return opts.report("Opening the board", err)
			}
			defer func() { _ = sess.Close() }()

			if index < 0 {
				index = appendIndex(sess.Board(), cardID, to)
			}

			card, err := sess.Move(ctx, cardID, to, index)
			if err != nil {
				if errors.Is(err, client.ErrConflict) {
					err = opts.report("Moving the card", err)
					opts.out.Println("")
					opts.out.Info("Board after resync:\n")
					renderBoard(opts.out, sess.Board())
					return err
				}
				return opts.report("Moving the card", err)
			}

			tree := sess.Board()
			dst := to
			if col := tree.Column(card.ColumnID); col != nil {
				dst = col.Title
			}
			opts.out.Success("Moved %s to %s at position %d %s\n",
				printer.Emphasis(card.Title), printer.Emphasis(dst), card.Position+1,
				printer.Muted("("+sess.Reconciler().State(card.ID).String()+")"))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "destination column id")
	cmd.Flags().IntVar(&index, "index", -1, "0-based position in the destination column")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// appendIndex is the index that puts cardID last in dstColumnID. A card
// already in the destination does not count toward the length.
func appendIndex(tree models.BoardTree, cardID, dstColumnID string) int {
	col := tree.Column(dstColumnID)
	if col == nil {
		return 0
	}
	n := len(col.Cards)
	for _, card := range col.Cards {
		if card.ID == cardID {
			n--
			break
		}
	}
	return n
}
