package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"notecal/internal/logger"
	"notecal/pkg/models"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Manage the calendars events are written to",
}

var calendarAddCmd = &cobra.Command{
	Use:     "add [name]",
	Short:   "Create a calendar",
	Example: `  notecal calendar add Personal --primary`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCalendarAdd,
}

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List calendars, primary first",
	RunE:  runCalendarList,
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.AddCommand(calendarAddCmd, calendarListCmd)

	calendarAddCmd.Flags().Bool("primary", false, "Make this the primary calendar")
}

func runCalendarAdd(cmd *cobra.Command, args []string) error {
	primary, _ := cmd.Flags().GetBool("primary")
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return fmt.Errorf("calendar name must not be empty")
	}

	ctx, cancel := commandContext(30*time.Second, logger.WithComponent("calendar"))
	defer cancel()

	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	log := logger.WithUser("calendar", a.userID)
	defer a.Close(log)

	cal := &models.Calendar{UserID: a.userID, Name: name, IsPrimary: primary}
	if err := a.store.CreateCalendar(ctx, cal); err != nil {
		return fmt.Errorf("failed to create calendar: %w", err)
	}

	log.Info().Int64("calendar_id", cal.ID).Str("name", name).Bool("primary", primary).Msg("Calendar created")
	fmt.Printf("Created calendar %d (%s)\n", cal.ID, name)
	return nil
}

func runCalendarList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(30*time.Second, logger.WithComponent("calendar"))
	defer cancel()

	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close(logger.WithUser("calendar", a.userID))

	calendars, err := a.store.ListCalendars(ctx, a.userID)
	if err != nil {
		return fmt.Errorf("failed to list calendars: %w", err)
	}
	if len(calendars) == 0 {
		fmt.Println("No calendars. Create one with: notecal calendar add <name> --primary")
		return nil
	}

	for _, c := range calendars {
		marker := " "
		if c.IsPrimary {
			marker = "*"
		}
		fmt.Printf("%s %4d  %s\n", marker, c.ID, c.Name)
	}
	return nil
}
