package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"infosec-dashboard/internal/assessment"
	"infosec-dashboard/internal/bootstrap"
	"infosec-dashboard/internal/chat"
	"infosec-dashboard/internal/gateway"
)

// withSession wires the application, signs in with the persistent flags and
// runs fn. The session is always signed out afterwards.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if email == "" || password == "" {
		return errors.New("--email and --password (or INFOSEC_EMAIL and INFOSEC_PASSWORD) are required")
	}

	app, err := setup(ctx, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.Dashboard.Auth.SignIn(ctx, email, password); err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}
	defer func() { _ = app.Dashboard.Auth.SignOut(context.Background()) }()
	return fn(ctx, app)
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, app *bootstrap.App) error {
				turn, err := app.Dashboard.Chat().Send(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				prose, refs := chat.ParseReferences(turn.Reply.Text, app.Config.Backend.StoragePrefix)
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, prose)
				if len(refs) > 0 {
					fmt.Fprintln(out, "\nRelevant documents:")
					for _, r := range refs {
						fmt.Fprintf(out, "  %s  %s\n", r.Name, r.URL)
					}
				}
				return nil
			})
		},
	}
}

func newDocsCmd() *cobra.Command {
	var search, status, upload, uploader string
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "List or upload knowledge base documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, app *bootstrap.App) error {
				docs := app.Dashboard.Documents
				if upload != "" {
					data, err := os.ReadFile(upload)
					if err != nil {
						return fmt.Errorf("read %s failed: %w", upload, err)
					}
					receipt, err := docs.Upload(ctx, gateway.Upload{
						FileName:     filepath.Base(upload),
						Data:         data,
						UploaderName: uploader,
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%d pages) as %s\n", receipt.FileName, receipt.Pages, receipt.UploaderName)
				} else if err := docs.Refresh(ctx); err != nil {
					return err
				}

				docs.SetSearch(search)
				docs.SetStatus(status)
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tUPLOADER\tSTATUS\tCREATED")
				for _, d := range docs.Visible() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.DocName, d.UploaderName, d.Status, d.CreatedAt.Format(time.DateOnly))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by document or uploader name")
	cmd.Flags().StringVar(&status, "status", "all", "filter by exact status")
	cmd.Flags().StringVar(&upload, "upload", "", "PDF file to upload before listing")
	cmd.Flags().StringVar(&uploader, "uploader", "", "uploader name recorded with --upload")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <sheet-url>",
		Short: "Submit a Google Sheet for assessment analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !gateway.ValidSheetURL(args[0]) {
				return gateway.ErrInvalidSheetURL
			}
			return withSession(cmd, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.Dashboard.Sheets.Analyze(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "submitted %s at %s\n", result.URL, result.SubmittedAt.Format(time.RFC3339))
				return nil
			})
		},
	}
}

func newAssessmentsCmd() *cobra.Command {
	var date, status string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "assessments",
		Short: "List past assessments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := assessment.ParseDateFilter(date)
			if err != nil {
				return err
			}
			app, err := setup(cmd.Context(), bootstrap.Options{})
			if err != nil {
				return err
			}
			defer app.Close()

			history := app.Dashboard.Assessments
			if err := history.Refresh(cmd.Context()); err != nil {
				return err
			}
			history.SetDateFilter(filter)
			history.SetStatusFilter(status)
			items := history.Visible(time.Now())

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tSTATUS\tNAME\tSHEET")
			for _, a := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.CompletionDate.Format(time.DateOnly), a.Status, a.Name, a.SheetURL)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&date, "date", "all", "all, last30 or older")
	cmd.Flags().StringVar(&status, "status", "all", "filter by exact status")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
