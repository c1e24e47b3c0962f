package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CrazyNoDota/nomadway-sub000/internal/api"
	"github.com/CrazyNoDota/nomadway-sub000/internal/collection"
	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
	"github.com/CrazyNoDota/nomadway-sub000/internal/output"
)

var favCmd = &cobra.Command{
	Use:     "fav",
	Short:   "Manage saved places",
	GroupID: "planning",
	Aliases: []string{"favorites"},
}

var (
	favType     string
	favTitle    string
	favRegion   string
	favNotes    string
	favCategory string

	favNoteNotes    string
	favNoteCategory string
)

var favListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved places",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		items := a.favs.Items()
		if flagJSON {
			return output.JSON(map[string]any{
				"mode":  a.favs.Mode(),
				"items": items,
			})
		}
		if len(items) == 0 {
			output.Info("No saved places (%s mode)", a.favs.Mode())
			return nil
		}
		for _, it := range items {
			output.Info("%s", output.FormatFavorite(it))
		}
		return nil
	},
}

var favAddCmd = &cobra.Command{
	Use:   "add [subject-id]",
	Short: "Save a place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectType := models.SubjectType(favType)
		if !models.IsValidSubjectType(subjectType) {
			return fail(output.ErrCodeValidation, fmt.Errorf("invalid type %q: want attraction, tour or route", favType))
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		item := models.FavoriteItem{
			SubjectID:   args[0],
			SubjectType: subjectType,
			Title:       favTitle,
			Region:      favRegion,
			Notes:       favNotes,
			Category:    favCategory,
		}
		if err := a.favs.Add(cmd.Context(), item); err != nil {
			if errors.Is(err, collection.ErrLoginRequired) {
				if flagJSON {
					output.JSONError(output.ErrCodeLoginRequired, err.Error())
				}
				return err
			}
			return fail(output.ErrCodeInternal, fmt.Errorf("save place: %w", err))
		}
		output.Success("Saved %s", args[0])
		return nil
	},
}

var favNoteCmd = &cobra.Command{
	Use:   "note [key]",
	Short: "Set notes or category on a saved place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := api.FavoritePatch{}
		if cmd.Flags().Changed("notes") {
			patch.Notes = &favNoteNotes
		}
		if cmd.Flags().Changed("category") {
			patch.Category = &favNoteCategory
		}
		if patch.Notes == nil && patch.Category == nil {
			return fail(output.ErrCodeValidation, fmt.Errorf("nothing to update: pass --notes or --category"))
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		if err := a.favs.Update(cmd.Context(), models.ParseKey(args[0]), patch); err != nil {
			return fail(output.ErrCodeInternal, fmt.Errorf("update saved place: %w", err))
		}
		output.Success("Updated %s", args[0])
		return nil
	},
}

var favRemoveCmd = &cobra.Command{
	Use:   "remove [key...]",
	Short: "Remove saved places",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		for _, arg := range args {
			if err := a.favs.Remove(cmd.Context(), models.ParseKey(arg)); err != nil {
				output.Error("remove %s: %v", arg, err)
				continue
			}
			output.Info("REMOVED %s", arg)
		}
		return nil
	},
}

var favClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every saved place",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		if err := a.favs.Clear(cmd.Context()); err != nil {
			return fail(output.ErrCodeInternal, fmt.Errorf("clear saved places: %w", err))
		}
		output.Success("Saved places cleared")
		return nil
	},
}

func init() {
	favAddCmd.Flags().StringVar(&favType, "type", "attraction", "subject type: attraction, tour or route")
	favAddCmd.Flags().StringVar(&favTitle, "title", "", "display title")
	favAddCmd.Flags().StringVar(&favRegion, "region", "", "catalog region")
	favAddCmd.Flags().StringVar(&favNotes, "notes", "", "free-form notes")
	favAddCmd.Flags().StringVar(&favCategory, "category", "", "personal category")

	favNoteCmd.Flags().StringVar(&favNoteNotes, "notes", "", "free-form notes")
	favNoteCmd.Flags().StringVar(&favNoteCategory, "category", "", "personal category")

	favCmd.AddCommand(favListCmd, favAddCmd, favNoteCmd, favRemoveCmd, favClearCmd)
	rootCmd.AddCommand(favCmd)
}
