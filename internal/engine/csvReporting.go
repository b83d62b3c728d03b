package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/helymenezes/bot-trade-coinbase/types"
)

// WriteBarsCSVFile writes the per-bar rows of a run to a CSV file at the given path.
func WriteBarsCSVFile(path string, bars []Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bars file: %w", err)
	}
	defer f.Close()

	return WriteBarsCSV(f, bars)
}

// WriteBarsCSV writes bars to any io.Writer as CSV.
func WriteBarsCSV(w io.Writer, bars []Bar) error {
	cw := csv.NewWriter(w)

	header := []string{
		"timestamp", // RFC3339
		"open",
		"high",
		"low",
		"close",
		"volume",
		"ema_short",
		"ema_long",
		"signal",
		"position",
		"portfolio_value",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, b := range bars {
		record := []string{
			b.Timestamp.Format(time.RFC3339),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			b.Volume.String(),
			b.EmaShort.String(),
			b.EmaLong.String(),
			strconv.Itoa(int(b.Signal)),
			string(b.Position),
			b.Value.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteTradesCSVFile writes the trade ledger to a CSV file at the given path.
func WriteTradesCSVFile(path string, trades []types.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return WriteTradesCSV(f, trades)
}

// WriteTradesCSV writes one row per round trip.
func WriteTradesCSV(w io.Writer, trades []types.Trade) error {
	cw := csv.NewWriter(w)

	header := []string{
		"trade_id",
		"entry_time",
		"entry_price",
		"entry_fee",
		"shares",
		"exit_time",
		"exit_price",
		"exit_fee",
		"net_profit",
		"forced",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, t := range trades {
		record := []string{
			strconv.Itoa(i),
			t.EntryTime.Format(time.RFC3339),
			t.EntryPrice.String(),
			t.EntryFee.String(),
			t.Shares.String(),
			t.ExitTime.Format(time.RFC3339),
			t.ExitPrice.String(),
			t.ExitFee.String(),
			t.NetProfit().String(),
			strconv.FormatBool(t.Forced),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
