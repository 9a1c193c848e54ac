package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"operation-list/internal/models"
	"operation-list/internal/store"
)

func writeBookings(w io.Writer, format string, rows []*models.Booking) error {
	switch format {
	case "table", "":
		writeTable(w, rows)
		return nil
	case "csv":
		return store.EncodeCSV(w, rows)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(nonNil(rows)); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(nonNil(rows))
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func nonNil(rows []*models.Booking) []*models.Booking {
	if rows == nil {
		return []*models.Booking{}
	}
	return rows
}

func writeTable(w io.Writer, rows []*models.Booking) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Date", "Hour", "Room", "Doctor", "Surgery", "ID"})
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: false, Right: false, Top: true, Bottom: true})

	data := make([][]string, 0, len(rows))
	for i, b := range rows {
		data = append(data, []string{strconv.Itoa(i + 1), b.DateString(), b.Hour, b.Room, b.Doctor, b.Surgery, b.ID})
	}
	table.AppendBulk(data)
	table.Render()
}
