package cli

import (
	"context"
	"fmt"

	"resumelens/internal/common"
	"resumelens/internal/skills"
	"resumelens/internal/types"

	"github.com/spf13/cobra"
)

var skillsCmd = &cobra.Command{
	Use:   "skills [jd-file]",
	Short: "Scan a job description for known skills",
	Long: `Scan a job description file against the fixed skill vocabulary. This is
the same scan the analysis flow runs locally to derive the required-skills
list before calling the backend.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if skillsConfig.OutputFormat == "" {
			skillsConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(skillsConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runSkills,
}

var skillsConfig common.CommandConfig

func init() {
	skillsCmd.Flags().StringVarP(&skillsConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	skillsCmd.Flags().StringVar(&skillsConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = skillsCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

type skillScanInput struct {
	JobDescription string
}

func runSkills(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	createInput := func(contents []string) (skillScanInput, error) {
		if len(contents) != 1 {
			return skillScanInput{}, fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return skillScanInput{JobDescription: contents[0]}, nil
	}

	logDetails := func(input skillScanInput, cfg common.CommandConfig) {
		logger.Info("Starting skill scan",
			"jd_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	scanOperation := func(ctx context.Context, input skillScanInput) (types.SkillScan, error) {
		return skills.Extract(input.JobDescription), nil
	}

	err := common.RunFileCommand(
		cmd.Context(),
		logger,
		skillsConfig,
		args,
		createInput,
		scanOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to scan job description: %w", err)
	}
	logger.Info("Skill scan completed successfully")
	return nil
}
