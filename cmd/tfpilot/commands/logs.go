package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tfpilot/tfpilot/cmd/tfpilot/handlers"
	"github.com/tfpilot/tfpilot/internal/archive"
)

// Logs returns the command that tails, lists, or archives recorded logs.
//
// Optional flags:
//
//	--project, -p: Project directory (default: current directory)
//	--command, -c: Narrow to one command's logs (config, up, down)
//	--tail, -n:    Number of trailing lines to show (default: 50)
//	--list, -l:    List recorded logs instead of tailing
//	--archive:     Upload recorded logs to an S3-compatible bucket
//	--bucket, --endpoint, --region, --prefix: Archive destination
//
// Environment variables:
//
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY: archive credentials (the
//	standard AWS credential chain also applies)
func Logs() *cobra.Command {
	var (
		projectDir string
		command    string
		tail       int
		list       bool
		doArchive  bool
		bucket     string
		endpoint   string
		region     string
		prefix     string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show or archive recorded execution logs",
		Long: `Show the recorded execution logs.

Every supervised run records its complete output under .tfpilot-history/.
By default the latest log is tailed; --list enumerates all recorded logs and
--archive copies them to an S3-compatible bucket.

Examples:
  # Tail the latest log
  tfpilot logs

  # Last 200 lines of the latest 'up' log
  tfpilot logs -c up -n 200

  # List everything recorded
  tfpilot logs --list

  # Archive all logs
  tfpilot logs --archive --bucket my-logs --region eu-central-1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := handlers.LogsOptions{
				ProjectDir: projectDir,
				Command:    command,
				Tail:       tail,
				List:       list,
			}
			if doArchive {
				opts.Archive = &archive.Config{
					Endpoint:  endpoint,
					Region:    region,
					Bucket:    bucket,
					AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
					SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
					Prefix:    prefix,
				}
			}
			return handlers.Logs(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "Project directory")
	cmd.Flags().StringVarP(&command, "command", "c", "", "Narrow to one command (config, up, down)")
	cmd.Flags().IntVarP(&tail, "tail", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List recorded logs")
	cmd.Flags().BoolVar(&doArchive, "archive", false, "Upload recorded logs to object storage")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Archive bucket name")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Archive endpoint (empty for AWS S3)")
	cmd.Flags().StringVar(&region, "region", "", "Archive bucket region")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix for archived logs")
	cmd.MarkFlagsRequiredTogether("archive", "bucket")

	return cmd
}
