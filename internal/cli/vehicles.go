package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

var vehiclesCmd = &cobra.Command{
	Use:   "vehicles",
	Short: "Manage inventory",
}

var vehiclesImportCmd = &cobra.Command{
	Use:   "import [file.xlsx]",
	Short: "Import vehicles from the first sheet of a workbook",
	Long: `Reads vehicles from the first sheet of an XLSX workbook. The first row
holds column names; vin, make, model and year are required. Optional columns:
color, mileage, purchase_price, selling_price, msrp, condition, engine_type,
transmission, fuel_type, location, description, purchase_date (YYYY-MM-DD).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()

		vehicles, err := readVehicles(file)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Read %d vehicle row(s) from %s\n", len(vehicles), args[0])

		if dryRun {
			return nil
		}

		result, err := current.vehicles.ImportVehicles(vehicles)
		if err != nil {
			return fmt.Errorf("import vehicles: %w", err)
		}

		fmt.Fprintf(out, "Imported: %d\n", result.Imported)
		if len(result.Rejected) > 0 {
			fmt.Fprintf(out, "Rejected: %d\n", len(result.Rejected))
			keys := make([]string, 0, len(result.Rejected))
			for k := range result.Rejected {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %-20s %s\n", k, result.Rejected[k])
			}
		}
		return nil
	},
}

func init() {
	vehiclesImportCmd.Flags().Bool("dry-run", false, "parse the workbook without writing")
	vehiclesCmd.AddCommand(vehiclesImportCmd)
}

var requiredVehicleColumns = []string{"vin", "make", "model", "year"}

// readVehicles parses the first sheet of an XLSX workbook. Cell level errors
// carry the spreadsheet row number.
func readVehicles(r io.Reader) ([]model.Vehicle, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredVehicleColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var vehicles []model.Vehicle
	for i, row := range rows[1:] {
		line := i + 2
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		if strings.Join(row, "") == "" {
			continue
		}

		v := model.Vehicle{
			VIN:          cell("vin"),
			Make:         cell("make"),
			Model:        cell("model"),
			Color:        cell("color"),
			Condition:    model.VehicleCondition(strings.ToUpper(cell("condition"))),
			EngineType:   cell("engine_type"),
			Transmission: cell("transmission"),
			FuelType:     cell("fuel_type"),
			Location:     cell("location"),
			Description:  cell("description"),
		}

		if v.Year, err = strconv.Atoi(cell("year")); err != nil {
			return nil, fmt.Errorf("row %d: invalid year %q", line, cell("year"))
		}
		if raw := cell("mileage"); raw != "" {
			if v.Mileage, err = strconv.Atoi(raw); err != nil {
				return nil, fmt.Errorf("row %d: invalid mileage %q", line, raw)
			}
		}

		for _, money := range []struct {
			column string
			dest   **decimal.Decimal
		}{
			{"purchase_price", &v.PurchasePrice},
			{"selling_price", &v.SellingPrice},
			{"msrp", &v.MSRP},
		} {
			raw := cell(money.column)
			if raw == "" {
				continue
			}
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid %s %q", line, money.column, raw)
			}
			*money.dest = &d
		}

		if raw := cell("purchase_date"); raw != "" {
			date, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid purchase_date %q", line, raw)
			}
			v.PurchaseDate = &date
		}

		vehicles = append(vehicles, v)
	}
	return vehicles, nil
}
