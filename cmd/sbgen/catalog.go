package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mmrzaf/sbgen/internal/registry"
	"github.com/mmrzaf/sbgen/internal/spatial"
	"github.com/spf13/cobra"
)

func tablesCmd() *cobra.Command {
	var output string
	var sf float64

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the generated tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output); err != nil {
				return err
			}
			if !(sf > 0) {
				return fmt.Errorf("scale factor must be positive")
			}
			entries := registry.DefaultTableRegistry().List()

			if output == "json" {
				type tableJSON struct {
					Name       string   `json:"name"`
					Alias      string   `json:"alias"`
					Rows       int64    `json:"rows"`
					AvgRowSize int64    `json:"avg_row_size"`
					Columns    []string `json:"columns"`
				}
				list := make([]tableJSON, 0, len(entries))
				for _, e := range entries {
					list = append(list, tableJSON{
						Name:       e.Name,
						Alias:      e.Alias,
						Rows:       e.TotalRows(sf),
						AvgRowSize: e.AvgRowSize,
						Columns:    e.Schema.ColumnNames(),
					})
				}
				return printJSON(list)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tALIAS\tROWS\tAVG ROW\tCOLUMNS")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", e.Name, e.Alias, e.TotalRows(sf), e.AvgRowSize, len(e.Schema.Columns))
			}
			w.Flush()
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table|json)")
	cmd.Flags().Float64VarP(&sf, "scale-factor", "s", 1, "Scale factor row counts are shown for")
	return cmd
}

func spatialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spatial",
		Short: "Inspect spatial configurations",
	}

	var output string
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "List the named spatial presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output); err != nil {
				return err
			}
			names := spatial.PresetNames()
			if output == "json" {
				out := make(map[string]spatial.InlineConfig, len(names))
				for _, n := range names {
					c, err := spatial.Preset(n)
					if err != nil {
						return err
					}
					out[n] = spatial.Inline(c)
				}
				return printJSON(out)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDISTRIBUTION\tGEOMETRY\tSEED")
			for _, n := range names {
				c, err := spatial.Preset(n)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", n, c.Distribution, c.Geometry, c.Seed)
			}
			w.Flush()
			return nil
		},
	}
	presetsCmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table|json)")

	validateCmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a spatial config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := spatial.LoadFile(args[0])
			if err != nil {
				fmt.Printf("Validation failed: %v\n", err)
				return err
			}
			if o.Trip == nil && o.Building == nil {
				return fmt.Errorf("%s overrides neither trip nor building", args[0])
			}
			if err := checkSpatialTable("trip", o.Trip, true); err != nil {
				fmt.Printf("Validation failed: %v\n", err)
				return err
			}
			if err := checkSpatialTable("building", o.Building, false); err != nil {
				fmt.Printf("Validation failed: %v\n", err)
				return err
			}
			fmt.Printf("Spatial config '%s' is valid\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(presetsCmd, validateCmd)
	return cmd
}

// checkSpatialTable builds a generator for c and draws one geometry.
func checkSpatialTable(table string, c *spatial.Config, points bool) error {
	if c == nil {
		return nil
	}
	if points != (c.Geometry == spatial.PointGeom) {
		return fmt.Errorf("%s: geometry %s does not fit the table", table, c.Geometry)
	}
	g, err := spatial.NewGenerator(*c, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", table, err)
	}
	fmt.Printf("%s: %s %s, sample %s\n", table, c.Distribution, c.Geometry, g.Generate(1).WKT())
	return nil
}
