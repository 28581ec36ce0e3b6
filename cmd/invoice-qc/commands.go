package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
	"github.com/joseph-ayodele/invoice-qc/internal/export"
	"github.com/joseph-ayodele/invoice-qc/internal/ingest"
	"github.com/joseph-ayodele/invoice-qc/internal/schema"
)

func newExtractCmd(flags *rootFlags) *cobra.Command {
	var dir, output, profile string
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract invoice records from every document in a directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, flags, profile)
			if err != nil {
				return err
			}
			defer a.Cleanup()

			paths, err := scanDir(cmd, a.Processor.Text.Scanner, dir)
			if err != nil {
				return err
			}
			invoices, failures, err := a.Processor.ExtractFiles(ctx, paths)
			if err != nil {
				return err
			}
			if err := writeJSONFile(output, invoices); err != nil {
				return err
			}
			printExtraction(cmd.OutOrStdout(), len(paths), invoices, failures)
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted invoices saved to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "pdf-dir", "", "directory of documents (required)")
	cmd.Flags().StringVar(&output, "output", "", "output JSON file (required)")
	cmd.Flags().StringVar(&profile, "profile", "", "extraction profile (default EXTRACT_PROFILE)")
	_ = cmd.MarkFlagRequired("pdf-dir")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newValidateCmd(flags *rootFlags) *cobra.Command {
	var input, reportPath string
	var tolerance float64
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a JSON array of invoice records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := checkTolerance(cmd, tolerance); err != nil {
				return err
			}
			body, err := os.ReadFile(input)
			if err != nil {
				return common.WrapError(err, "read input")
			}
			if err := schema.ValidateBatch(body); err != nil {
				return err
			}
			var invoices []*entity.Invoice
			if err := json.Unmarshal(body, &invoices); err != nil {
				return common.NewAppError("INVALID_INVOICE", input, err)
			}

			a, err := buildApp(ctx, flags, "")
			if err != nil {
				return err
			}
			defer a.Cleanup()

			report, err := a.Processor.WithOverrides(nil, tolerance).ValidateAndStore(ctx, invoices, "cli:validate")
			if err != nil {
				return err
			}
			if err := writeJSONFile(reportPath, report); err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), &report)
			fmt.Fprintf(cmd.OutOrStdout(), "Validation report saved to %s\n", reportPath)
			if report.Summary.InvalidInvoices > 0 {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "JSON file of invoices (required)")
	cmd.Flags().StringVar(&reportPath, "report", "", "output report JSON file (required)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "relative amount tolerance (default VALIDATE_TOLERANCE)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}

func newFullRunCmd(flags *rootFlags) *cobra.Command {
	var dir, reportPath, savePath, xlsxPath, profile string
	var tolerance float64
	cmd := &cobra.Command{
		Use:   "full-run",
		Short: "Extract every document in a directory and validate the results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := checkTolerance(cmd, tolerance); err != nil {
				return err
			}
			a, err := buildApp(ctx, flags, profile)
			if err != nil {
				return err
			}
			defer a.Cleanup()

			paths, err := scanDir(cmd, a.Processor.Text.Scanner, dir)
			if err != nil {
				return err
			}
			out, err := a.Processor.WithOverrides(nil, tolerance).Run(ctx, paths, "cli:full-run")
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printExtraction(w, len(paths), out.Invoices, out.Failures)
			if len(out.Invoices) == 0 {
				fmt.Fprintln(w, "No invoices extracted; nothing to validate.")
				return nil
			}
			if savePath != "" {
				if err := writeJSONFile(savePath, out.Invoices); err != nil {
					return err
				}
				fmt.Fprintf(w, "Extracted invoices saved to %s\n", savePath)
			}
			if err := writeJSONFile(reportPath, out.Report); err != nil {
				return err
			}
			if xlsxPath != "" {
				b, err := export.NewService(a.Reports, a.Logger).ReportXLSX(&out.Report, out.Invoices)
				if err != nil {
					return err
				}
				if err := os.WriteFile(xlsxPath, b, 0o644); err != nil {
					return common.WrapError(err, "write xlsx")
				}
				fmt.Fprintf(w, "Workbook saved to %s\n", xlsxPath)
			}
			printReport(w, &out.Report)
			fmt.Fprintf(w, "Validation report saved to %s\n", reportPath)
			if out.Report.Summary.InvalidInvoices > 0 {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "pdf-dir", "", "directory of documents (required)")
	cmd.Flags().StringVar(&reportPath, "report", "", "output report JSON file (required)")
	cmd.Flags().StringVar(&savePath, "save-extracted", "", "also write the extracted invoices as JSON")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the report as an XLSX workbook")
	cmd.Flags().StringVar(&profile, "profile", "", "extraction profile (default EXTRACT_PROFILE)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "relative amount tolerance (default VALIDATE_TOLERANCE)")
	_ = cmd.MarkFlagRequired("pdf-dir")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}

func checkTolerance(cmd *cobra.Command, tolerance float64) error {
	if !cmd.Flags().Changed("tolerance") {
		return nil
	}
	return common.ValidateAndReturnError(common.NewValidator().Field("tolerance", tolerance, common.Tolerance))
}

func scanDir(cmd *cobra.Command, scanner *ingest.Scanner, dir string) ([]string, error) {
	refs, stats, err := scanner.ScanDirectory(cmd.Context(), dir, true)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, common.NewAppError("NO_DOCUMENTS", "no supported documents in "+dir, common.ErrNotFound)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Found %d documents in %s (%d unreadable)\n", stats.Matched, dir, stats.Failed)
	return ingest.Paths(refs), nil
}

func writeJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return common.WrapError(err, "encode "+path)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return common.WrapError(err, "write "+path)
	}
	return nil
}
