package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/CrazyNoDota/nomadway-sub000/internal/api"
	"github.com/CrazyNoDota/nomadway-sub000/internal/collection"
	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
	"github.com/CrazyNoDota/nomadway-sub000/internal/output"
)

var cartCmd = &cobra.Command{
	Use:     "cart",
	Short:   "Manage your trip cart",
	GroupID: "planning",
}

var (
	cartType    string
	cartQty     int
	cartDate    string
	cartNotes   string
	cartTitle   string
	cartRegion  string
	cartMin     float64
	cartMax     float64
	cartSeasons []int
	cartDays    float64

	cartUpdateQty   int
	cartUpdateDate  string
	cartUpdateNotes string
)

var cartListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cart contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		items := a.cart.Items()
		if flagJSON {
			return output.JSON(map[string]any{
				"mode":  a.cart.Mode(),
				"items": items,
			})
		}
		if len(items) == 0 {
			output.Info("Cart is empty (%s mode)", a.cart.Mode())
			return nil
		}
		for _, it := range items {
			output.Info("%s", output.FormatCartItem(it))
		}
		return nil
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add [subject-id]",
	Short: "Add an experience to the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectType := models.SubjectType(cartType)
		if !models.IsValidSubjectType(subjectType) {
			return fail(output.ErrCodeValidation, fmt.Errorf("invalid type %q: want attraction, tour or route", cartType))
		}
		if cartQty < 1 {
			return fail(output.ErrCodeValidation, fmt.Errorf("quantity must be at least 1"))
		}
		item := models.CartItem{
			SubjectID:    args[0],
			SubjectType:  subjectType,
			Quantity:     cartQty,
			Price:        models.PriceRange{Min: cartMin, Max: cartMax},
			Notes:        cartNotes,
			Title:        cartTitle,
			Region:       cartRegion,
			BestSeasons:  cartSeasons,
			DurationDays: cartDays,
		}
		if cartDate != "" {
			d, err := time.Parse("2006-01-02", cartDate)
			if err != nil {
				return fail(output.ErrCodeValidation, fmt.Errorf("invalid date %q: want YYYY-MM-DD", cartDate))
			}
			item.SelectedDate = &d
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		if err := a.cart.Add(cmd.Context(), item); err != nil {
			if errors.Is(err, collection.ErrLoginRequired) {
				if flagJSON {
					output.JSONError(output.ErrCodeLoginRequired, err.Error())
				}
				return err
			}
			return fail(output.ErrCodeInternal, fmt.Errorf("add to cart: %w", err))
		}
		output.Success("Added %s to cart", args[0])
		return nil
	},
}

var cartUpdateCmd = &cobra.Command{
	Use:   "update [key]",
	Short: "Change quantity, date or notes on a cart entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := api.CartItemPatch{}
		if cmd.Flags().Changed("qty") {
			if cartUpdateQty < 1 {
				return fail(output.ErrCodeValidation, fmt.Errorf("quantity must be at least 1"))
			}
			patch.Quantity = &cartUpdateQty
		}
		if cmd.Flags().Changed("date") {
			d, err := time.Parse("2006-01-02", cartUpdateDate)
			if err != nil {
				return fail(output.ErrCodeValidation, fmt.Errorf("invalid date %q: want YYYY-MM-DD", cartUpdateDate))
			}
			patch.SelectedDate = &d
		}
		if cmd.Flags().Changed("notes") {
			patch.Notes = &cartUpdateNotes
		}
		if patch.Quantity == nil && patch.SelectedDate == nil && patch.Notes == nil {
			return fail(output.ErrCodeValidation, fmt.Errorf("nothing to update: pass --qty, --date or --notes"))
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		if err := a.cart.Update(cmd.Context(), models.ParseKey(args[0]), patch); err != nil {
			return fail(output.ErrCodeInternal, fmt.Errorf("update cart entry: %w", err))
		}
		output.Success("Updated %s", args[0])
		return nil
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove [key...]",
	Short: "Remove entries from the cart",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		for _, arg := range args {
			if err := a.cart.Remove(cmd.Context(), models.ParseKey(arg)); err != nil {
				output.Error("remove %s: %v", arg, err)
				continue
			}
			output.Info("REMOVED %s", arg)
		}
		return nil
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		if err := a.cart.Clear(cmd.Context()); err != nil {
			return fail(output.ErrCodeInternal, fmt.Errorf("clear cart: %w", err))
		}
		output.Success("Cart cleared")
		return nil
	},
}

func init() {
	cartAddCmd.Flags().StringVar(&cartType, "type", "attraction", "subject type: attraction, tour or route")
	cartAddCmd.Flags().IntVar(&cartQty, "qty", 1, "traveler slots")
	cartAddCmd.Flags().StringVar(&cartDate, "date", "", "selected date (YYYY-MM-DD)")
	cartAddCmd.Flags().StringVar(&cartNotes, "notes", "", "free-form notes")
	cartAddCmd.Flags().StringVar(&cartTitle, "title", "", "display title")
	cartAddCmd.Flags().StringVar(&cartRegion, "region", "", "catalog region")
	cartAddCmd.Flags().Float64Var(&cartMin, "price-min", 0, "price band minimum")
	cartAddCmd.Flags().Float64Var(&cartMax, "price-max", 0, "price band maximum")
	cartAddCmd.Flags().IntSliceVar(&cartSeasons, "seasons", nil, "best months (1-12)")
	cartAddCmd.Flags().Float64Var(&cartDays, "days", 0, "duration in days")

	cartUpdateCmd.Flags().IntVar(&cartUpdateQty, "qty", 0, "traveler slots")
	cartUpdateCmd.Flags().StringVar(&cartUpdateDate, "date", "", "selected date (YYYY-MM-DD)")
	cartUpdateCmd.Flags().StringVar(&cartUpdateNotes, "notes", "", "free-form notes")

	cartCmd.AddCommand(cartListCmd, cartAddCmd, cartUpdateCmd, cartRemoveCmd, cartClearCmd)
	rootCmd.AddCommand(cartCmd)
}
