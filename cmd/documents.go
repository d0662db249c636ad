package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"notecal/internal/logger"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Inspect the local document index",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	RunE:  runDocumentsList,
}

var documentsAgendaCmd = &cobra.Command{
	Use:   "agenda [document-id]",
	Short: "Flag a document as agenda so sync never removes it",
	Example: `  notecal documents agenda 12
  notecal documents agenda 12 --off`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentsAgenda,
}

func init() {
	rootCmd.AddCommand(documentsCmd)
	documentsCmd.AddCommand(documentsListCmd, documentsAgendaCmd)

	documentsListCmd.Flags().Bool("pending", false, "Only documents that still need processing")
	documentsAgendaCmd.Flags().Bool("off", false, "Remove the agenda flag")
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
	pending, _ := cmd.Flags().GetBool("pending")

	ctx, cancel := commandContext(30*time.Second, logger.WithComponent("documents"))
	defer cancel()

	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close(logger.WithUser("documents", a.userID))

	list := a.store.ListDocuments
	if pending {
		list = a.store.ListUnprocessed
	}
	docs, err := list(ctx, a.userID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("No documents. Run notecal sync first.")
		return nil
	}

	fmt.Printf("%5s  %-9s  %-6s  %-16s  %s\n", "ID", "STATUS", "AGENDA", "MODIFIED", "NAME")
	for _, d := range docs {
		status := "pending"
		if d.IsProcessed {
			status = "processed"
		}
		agenda := ""
		if d.IsAgenda {
			agenda = "yes"
		}
		fmt.Printf("%5d  %-9s  %-6s  %-16s  %s\n",
			d.ID, status, agenda, d.LastModified.In(a.cfg.Location()).Format("2006-01-02 15:04"), d.Name)
	}
	return nil
}

func runDocumentsAgenda(cmd *cobra.Command, args []string) error {
	off, _ := cmd.Flags().GetBool("off")
	documentID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || documentID <= 0 {
		return fmt.Errorf("invalid document id %q", args[0])
	}

	ctx, cancel := commandContext(30*time.Second, logger.WithComponent("documents"))
	defer cancel()

	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	log := logger.WithUser("documents", a.userID)
	defer a.Close(log)

	if err := a.store.SetAgenda(ctx, a.userID, documentID, !off); err != nil {
		return fmt.Errorf("failed to update document %d: %w", documentID, err)
	}

	log.Info().Int64("document_id", documentID).Bool("agenda", !off).Msg("Agenda flag updated")
	fmt.Printf("Document %d agenda: %t\n", documentID, !off)
	return nil
}
