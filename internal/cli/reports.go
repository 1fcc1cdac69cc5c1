package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ikkim/dealer-backend/internal/app/service"
	"github.com/ikkim/dealer-backend/internal/scheduler"
	"github.com/ikkim/dealer-backend/internal/storage"
	"github.com/spf13/cobra"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Export analytics workbooks",
}

var reportsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the analytics workbook for a date range",
	Long: `Builds the analytics workbook. Without --from and --to the previous
calendar month is exported. With --upload the workbook goes to the configured
S3 bucket instead of a local file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		fromFlag, _ := cmd.Flags().GetString("from")
		toFlag, _ := cmd.Flags().GetString("to")
		dir, _ := cmd.Flags().GetString("out")
		upload, _ := cmd.Flags().GetBool("upload")

		start, end, err := reportRange(fromFlag, toFlag, time.Now().UTC())
		if err != nil {
			return err
		}

		var uploader service.ReportUploader
		if upload {
			if !current.cfg.S3.Enabled() {
				return service.ErrReportStorageDisabled
			}
			s3Storage, err := storage.NewS3Storage(ctx, current.cfg.S3)
			if err != nil {
				return fmt.Errorf("init storage: %w", err)
			}
			uploader = s3Storage
		}
		exporter := service.NewReportExportService(current.analytics, uploader, nil)
		out := cmd.OutOrStdout()

		if upload {
			uploaded, err := exporter.ExportAndUpload(ctx, start, end)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Uploaded %s\n%s\n", uploaded.Key, uploaded.URL)
			return nil
		}

		report, err := exporter.Export(ctx, start, end)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, report.FileName)
		if err := os.WriteFile(path, report.Content, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s (%d bytes)\n", path, len(report.Content))
		return nil
	},
}

func init() {
	reportsExportCmd.Flags().String("from", "", "first day, YYYY-MM-DD")
	reportsExportCmd.Flags().String("to", "", "last day, YYYY-MM-DD")
	reportsExportCmd.Flags().String("out", ".", "output directory")
	reportsExportCmd.Flags().Bool("upload", false, "upload to S3 instead of writing a file")
	reportsCmd.AddCommand(reportsExportCmd)
}

// reportRange resolves the flags; both empty means the month before now.
func reportRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	if from == "" && to == "" {
		start, end := scheduler.PreviousMonth(now)
		return start, end, nil
	}
	if from == "" || to == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--from and --to must be given together")
	}
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q", from)
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q", to)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to is before --from")
	}
	return start, end, nil
}
