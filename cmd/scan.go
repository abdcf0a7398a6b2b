package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/devguard-labs/devguard/internal/model"
	"github.com/devguard-labs/devguard/internal/render"
	"github.com/devguard-labs/devguard/internal/resolver"
	"github.com/devguard-labs/devguard/internal/session"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func scanCmd() *cobra.Command {
	var (
		liveURL     string
		filePath    string
		openapiText string
		openapiPath string
		severity    string
		applyIDs    []string
		exportPath  string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Submit a specimen to the backend and display the scored findings",
		Long: `Submit a specimen to the DevGuard backend and display the security score
with the prioritized findings.

A live URL beats an uploaded file beats pasted spec text; with no input at
all the built-in demo specimen is scanned.

Examples:
  # Scan a live URL
  devguard scan --url https://myapp.example.com

  # Scan an exported app definition
  devguard scan --file export.json

  # Scan a pasted OpenAPI spec and only show high findings
  devguard scan --openapi-file spec.yaml --severity high

  # Scan, apply a fix, and save the PDF report
  devguard scan --file export.json --apply auto_0 --export report.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !model.ValidFilter(severity) {
				return fmt.Errorf("invalid severity filter: %q (use all, high, med or low)", severity)
			}

			inputs := resolver.Inputs{URL: liveURL, OpenAPI: openapiText}
			if filePath != "" {
				data, err := os.ReadFile(filePath)
				if err != nil {
					return fmt.Errorf("failed to read upload file: %w", err)
				}
				inputs.File = data
			}
			if openapiPath != "" && strings.TrimSpace(openapiText) == "" {
				data, err := os.ReadFile(openapiPath)
				if err != nil {
					return fmt.Errorf("failed to read spec file: %w", err)
				}
				inputs.OpenAPI = string(data)
			}

			ctrl, cleanup, err := newSession()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			if err := ctrl.RunScan(ctx, inputs); err != nil {
				return err
			}
			if err := ctrl.SetFilter(severity); err != nil {
				return err
			}
			if err := printResults(cmd, ctrl, asJSON); err != nil {
				return err
			}

			if len(applyIDs) > 0 {
				log.Info().Strs("ids", applyIDs).Msg("Applying fixes")
				if err := ctrl.ApplyFix(ctx, applyIDs...); err != nil {
					return err
				}
				log.Info().Msg("Fix applied and re-scanned")
				if err := printResults(cmd, ctrl, asJSON); err != nil {
					return err
				}
			}

			if exportPath != "" {
				return exportReport(cmd, ctrl, exportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&liveURL, "url", "", "Live URL of the app to scan")
	cmd.Flags().StringVar(&filePath, "file", "", "Path to an exported app definition (JSON/YAML)")
	cobra.CheckErr(cmd.MarkFlagFilename("file", "json", "yaml", "yml"))
	cmd.Flags().StringVar(&openapiText, "openapi", "", "Inline OpenAPI spec text")
	cmd.Flags().StringVar(&openapiPath, "openapi-file", "", "Path to an OpenAPI spec file")
	cobra.CheckErr(cmd.MarkFlagFilename("openapi-file", "json", "yaml", "yml"))
	cmd.Flags().StringVar(&severity, "severity", model.SeverityAll, "Severity filter for the findings list (all, high, med, low)")
	cmd.Flags().StringSliceVar(&applyIDs, "apply", nil, "Finding ids to remediate after the scan")
	cmd.Flags().StringVar(&exportPath, "export", "", "Path to save the PDF report")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the results view as JSON")

	return cmd
}

func printResults(cmd *cobra.Command, ctrl *session.Controller, asJSON bool) error {
	result, findings, filter, err := ctrl.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	view := render.Build(result, findings, filter)
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	render.WriteText(cmd.OutOrStdout(), view)
	return nil
}

// exportReport downloads the PDF artifact into memory first, so a failed
// fetch never leaves a partial file behind.
func exportReport(cmd *cobra.Command, ctrl *session.Controller, path string) error {
	var buf bytes.Buffer
	if err := ctrl.ExportReport(cmd.Context(), &buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	log.Info().Str("output", path).Msg("Report saved")
	return nil
}
