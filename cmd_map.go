package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nconklindev/leadmap/internal/logging"
	"github.com/nconklindev/leadmap/internal/mapper"
	"github.com/nconklindev/leadmap/internal/sheet"
	"github.com/nconklindev/leadmap/internal/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type mapReport struct {
	File    string         `json:"file" yaml:"file"`
	Rows    int            `json:"rows" yaml:"rows"`
	Mapping []mapper.Entry `json:"mapping" yaml:"mapping"`
	Preview []types.Lead   `json:"preview" yaml:"preview"`
}

type mappedFile struct {
	data    *types.FileData
	mapping mapper.Mapping
	log     *zap.Logger
}

// mapFile reads path, infers the mapping and applies --assign overrides.
func (a *app) mapFile(path string, assigns []string) (*mappedFile, error) {
	data, err := sheet.ReadFileData(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	log, _ := logging.ForImport(a.logger, filepath.Base(path))

	m := mapper.Infer(data.Headers, data.Rows)
	log.Info("column mapping detected", logging.Mapping(data.Headers, m))

	if len(assigns) > 0 {
		if err := applyAssignments(&m, data.Headers, assigns); err != nil {
			return nil, err
		}
		log.Info("mapping overridden", logging.Mapping(data.Headers, m))
	}
	return &mappedFile{data: data, mapping: m, log: log}, nil
}

func (a *app) newMapCmd() *cobra.Command {
	var (
		format  string
		preview int
		assigns []string
	)

	cmd := &cobra.Command{
		Use:   "map [file]",
		Short: "Print the detected column mapping and a preview of normalized leads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := a.mapFile(args[0], assigns)
			if err != nil {
				return err
			}

			rows := mf.data.Rows
			if preview >= 0 && preview < len(rows) {
				rows = rows[:preview]
			}
			report := mapReport{
				File:    args[0],
				Rows:    len(mf.data.Rows),
				Mapping: mf.mapping.Describe(mf.data.Headers),
				Preview: mapper.MaterializeAll(rows, mf.mapping),
			}

			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(report)
			default:
				return fmt.Errorf("unsupported output format %q (want yaml or json)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	cmd.Flags().IntVar(&preview, "preview", 5, "number of leads to include (-1 for all)")
	cmd.Flags().StringArrayVar(&assigns, "assign", nil, "override a field, e.g. --assign email=3 or --assign team=\"Sales Team\" or --assign contact2=-")
	return cmd
}

func (a *app) newExportCmd() *cobra.Command {
	var (
		output   string
		assigns  []string
		doUpload bool
	)

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write normalized leads without the interactive review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if doUpload && a.cfg.API.BaseURL == "" {
				return fmt.Errorf("--upload needs api.base_url or LEADMAP_API_BASE_URL")
			}
			mf, err := a.mapFile(input, assigns)
			if err != nil {
				return err
			}

			if output == "" {
				output = sheet.OutputPath(input, a.cfg.ExportExt())
			}
			result, err := sheet.Export(input, output, mapper.MaterializeAll(mf.data.Rows, mf.mapping), nil)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			mf.log.Info("export written", zap.String("output", result.OutputFile), zap.Int("leads", result.LeadsWritten))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d leads to %s\n", result.LeadsWritten, result.OutputFile)

			if up := a.uploader(doUpload); up != nil {
				res, err := up.UploadFile(cmd.Context(), input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (HTTP %d)\n", filepath.Base(input), res.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path; the extension picks csv or xlsx")
	cmd.Flags().StringArrayVar(&assigns, "assign", nil, "override a field, e.g. --assign email=3")
	cmd.Flags().BoolVar(&doUpload, "upload", false, "upload the original file after exporting")
	return cmd
}

// applyAssignments applies field=column overrides. The column is a 0-based
// index, a header (case-insensitive) or "-" to unmap.
func applyAssignments(m *mapper.Mapping, headers []string, args []string) error {
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("invalid --assign %q: want field=column", arg)
		}
		f, err := mapper.ParseField(strings.TrimSpace(name))
		if err != nil {
			return fmt.Errorf("invalid --assign %q: %w", arg, err)
		}
		col, err := resolveColumn(headers, strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid --assign %q: %w", arg, err)
		}
		m.Assign(f, col)
	}
	return nil
}

func resolveColumn(headers []string, v string) (int, error) {
	if v == "-" {
		return mapper.Unmapped, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n >= len(headers) {
			return 0, fmt.Errorf("column %d out of range (file has %d)", n, len(headers))
		}
		return n, nil
	}
	for i, h := range headers {
		if v != "" && strings.EqualFold(h, v) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no column named %q", v)
}
