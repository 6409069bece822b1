package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stowlog/pkg/types"
)

// errNothingToEdit is returned by edit when no field flag is given.
var errNothingToEdit = fmt.Errorf("%w: no fields to change", types.ErrValidation)

// entryFlags are the field flags shared by add and edit.
type entryFlags struct {
	item, location, inventory, date, notes string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.item, "item", "", "what is stored")
	cmd.Flags().StringVar(&f.location, "location", "", "where it is kept")
	cmd.Flags().StringVar(&f.inventory, "inventory", "", "how many or how much")
	cmd.Flags().StringVar(&f.date, "date", "", "free-form date label")
	cmd.Flags().StringVar(&f.notes, "notes", "", "anything else")
}

// patch returns a Patch holding only the flags set on the command line.
func (f *entryFlags) patch(cmd *cobra.Command) types.Patch {
	pick := func(name string, v *string) *string {
		if cmd.Flags().Changed(name) {
			return v
		}
		return nil
	}
	return types.Patch{
		Item:      pick("item", &f.item),
		Location:  pick("location", &f.location),
		Inventory: pick("inventory", &f.inventory),
		Date:      pick("date", &f.date),
		Notes:     pick("notes", &f.notes),
	}
}

func (a *app) emitEntry(cmd *cobra.Command, e types.Entry) error {
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), e)
	}
	return printEntry(cmd.OutOrStdout(), e)
}

func newAddCmd(a *app) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "add [item]",
		Short: "Log a new entry",
		Long:  "Log a new entry. The item may be given as an argument or with --item.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				f.item = args[0]
			}
			fields := types.Fields{
				Item:      f.item,
				Location:  f.location,
				Inventory: f.inventory,
				Date:      f.date,
				Notes:     f.notes,
			}
			var created types.Entry
			err := a.withServices(func(svc *services) error {
				var err error
				created, err = svc.entries.Create(cmd.Context(), fields)
				return err
			})
			if err != nil {
				return err
			}
			return a.emitEntry(cmd, created)
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an entry",
		Long:  "Change the fields given as flags. Fields not given keep their stored value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := f.patch(cmd)
			if p.Empty() {
				return errNothingToEdit
			}
			var updated types.Entry
			err := a.withServices(func(svc *services) error {
				var err error
				updated, err = svc.entries.Update(cmd.Context(), args[0], p)
				return err
			})
			if err != nil {
				return err
			}
			return a.emitEntry(cmd, updated)
		},
	}
	f.register(cmd)
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Remove entries",
		Long:    "Remove the given entries. Unknown ids are ignored.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.withServices(func(svc *services) error {
				var errs []error
				for _, id := range args {
					if err := svc.entries.Remove(cmd.Context(), id); err != nil {
						errs = append(errs, err)
					}
				}
				return errors.Join(errs...)
			})
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{"removed": args})
			}
			for _, id := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)
			}
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var e types.Entry
			err := a.withServices(func(svc *services) error {
				var err error
				e, err = svc.entries.Get(cmd.Context(), args[0])
				return err
			})
			if err != nil {
				return err
			}
			return a.emitEntry(cmd, e)
		},
	}
}
