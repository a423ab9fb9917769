package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// Output форматирует результаты команд: таблицы для людей,
// JSON для скриптов (--json).
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит строки через tabwriter. Каждая ячейка нормализуется:
// пустое значение — "-", метки времени API приводятся к компактному
// виду в UTC.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = formatCell(cell)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	tw.Flush()
}

// Logs выводит журнал run построчно в хронологическом порядке:
// время, уровень, узел, сообщение. Записи уровня run идут без узла.
func (o *Output) Logs(entries []LogEntryResponse) {
	if o.jsonMode {
		o.JSON(entries)
		return
	}

	for _, e := range entries {
		node := e.NodeID
		if node == "" {
			node = "run"
		}
		fmt.Fprintf(o.w, "%s  %-5s  [%s]  %s\n",
			formatCell(e.TS), strings.ToUpper(e.Level), node, e.Message)
	}
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}

// formatCell нормализует значение ячейки. Незавершённые node runs
// приходят с пустыми timestamp-полями — вместо пустоты печатается "-".
func formatCell(s string) string {
	if s == "" {
		return "-"
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UTC().Format("2006-01-02 15:04:05")
	}
	return s
}
