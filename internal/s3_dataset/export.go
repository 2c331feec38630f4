package s3_dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/wonny/stox/backend/internal/contracts"
)

const csvDateLayout = "2006-01-02"

// WriteCSV writes training rows then predictor rows as one table.
// Columns: date, market, ticker, <features...>, future, predictor. NaN is written as an empty cell.
func WriteCSV(w io.Writer, ds *contracts.Dataset) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(ds.Columns)+5)
	header = append(header, "date", "market", "ticker")
	header = append(header, ds.Columns...)
	header = append(header, "future", "predictor")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(header))
	write := func(row contracts.FeatureRow, predictor bool) error {
		if len(row.Values) != len(ds.Columns) {
			return fmt.Errorf("%s %s: %d values for %d columns",
				row.Symbol, row.Date.Format(csvDateLayout), len(row.Values), len(ds.Columns))
		}
		record[0] = row.Date.Format(csvDateLayout)
		record[1] = row.Symbol.Market
		record[2] = row.Symbol.Ticker
		for i, v := range row.Values {
			record[i+3] = formatCell(v)
		}
		record[len(record)-2] = formatCell(row.Future)
		record[len(record)-1] = strconv.FormatBool(predictor)
		return cw.Write(record)
	}

	for _, row := range ds.Rows {
		if err := write(row, false); err != nil {
			return err
		}
	}
	for _, row := range ds.Predictors {
		if err := write(row, true); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
