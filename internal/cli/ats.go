package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"resumelens/internal/ats"
	"resumelens/internal/common"
	"resumelens/internal/utils"

	"github.com/spf13/cobra"
)

var atsCmd = &cobra.Command{
	Use:   "ats [resume-file]",
	Short: "Run the local ATS check on a resume file",
	Long: `Run the local ATS friendliness check on a resume file. The check is
deterministic and offline: it scores the filename and returns fixed advisory
findings, exactly as the ats tab of the application does.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if atsConfig.OutputFormat == "" {
			atsConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(atsConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runATS,
}

var atsConfig common.CommandConfig

func init() {
	atsCmd.Flags().StringVarP(&atsConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	atsCmd.Flags().StringVar(&atsConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = atsCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runATS(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	// The file must exist, but only its name feeds the check.
	if err := utils.ValidateInputFile(args[0]); err != nil {
		return err
	}

	filename := filepath.Base(args[0])
	if !utils.IsResumeFile(filename) {
		logger.Warn("File extension is not a typical resume format",
			"filename", filename)
	}
	if info, err := os.Stat(args[0]); err == nil {
		logger.Debug("Input file",
			"filename", filename,
			"size", utils.FormatFileSize(info.Size()))
	}

	logger.Info("Running local ATS check",
		"filename", filename,
		"output_format", atsConfig.OutputFormat)

	report := ats.Check(filename)

	outputHandler := common.NewOutputHandler(logger)
	if err := outputHandler.HandleOutput(report, atsConfig); err != nil {
		return fmt.Errorf("failed to output ATS report: %w", err)
	}

	logger.Info("ATS check completed", "score", report.Score.Percent())
	return nil
}
