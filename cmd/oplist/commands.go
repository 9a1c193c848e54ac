package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"operation-list/internal/booking"
	"operation-list/internal/models"
)

func (c *cli) bookCmd() *cobra.Command {
	var req booking.Request
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a slot",
		Example: `  oplist book --date 2025-06-12 --room "Room 1" --hour 10:30 \
    --doctor "Dr. Karwan" --surgery Phaco`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			receipt, err := c.rt.Service.Book(cmd.Context(), req)
			if err != nil {
				return err
			}
			b := receipt.Booking
			fmt.Fprintf(cmd.OutOrStdout(), "Booked %s: %s %s %s, %s (%s)\n", b.ID, b.DateString(), b.Hour, b.Room, b.Doctor, b.Surgery)
			warnMirror(cmd, receipt)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Date, "date", "", "operation date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.Room, "room", "", "operating room")
	cmd.Flags().StringVar(&req.Hour, "hour", "", "start time (HH:MM, every 30 minutes from 10:00 to 22:00)")
	cmd.Flags().StringVar(&req.Doctor, "doctor", "", "doctor name")
	cmd.Flags().StringVar(&req.Surgery, "surgery", "", "surgery type")
	for _, name := range []string{"date", "room", "hour", "doctor", "surgery"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var (
		past   bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming operations, or past ones with --archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []*models.Booking
			if past {
				var err error
				if rows, err = c.rt.Service.Archive(cmd.Context()); err != nil {
					return err
				}
			} else {
				groups, err := c.rt.Service.Upcoming(cmd.Context())
				if err != nil {
					return err
				}
				for _, g := range groups {
					rows = append(rows, g.Bookings...)
				}
			}
			return writeBookings(cmd.OutOrStdout(), format, rows)
		},
	}
	cmd.Flags().BoolVar(&past, "archive", false, "list operations before today, newest first")
	cmd.Flags().StringVarP(&format, "format", "o", "table", "output format: table, csv, yaml or json")
	return cmd
}

func (c *cli) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a booking, freeing its slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			receipt, err := c.rt.Service.Cancel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s\n", args[0])
			warnMirror(cmd, receipt)
			return nil
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a booking from the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			receipt, err := c.rt.Service.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			warnMirror(cmd, receipt)
			return nil
		},
	}
}

func (c *cli) pullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Overwrite the local archive with the remote copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.rt.Pull(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %d rows\n", n)
			return nil
		},
	}
}

func (c *cli) pushCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload the local archive to the remote copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.rt.Push(cmd.Context(), message); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Pushed archive")
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "Update Operation Archive via cli", "commit message")
	return cmd
}

func warnMirror(cmd *cobra.Command, receipt *booking.Receipt) {
	if receipt.MirrorErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: saved locally but the remote archive was not updated: %v\n", receipt.MirrorErr)
	}
}
