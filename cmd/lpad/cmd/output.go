package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/aardel/launchpad/internal/store"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	boldColor    = color.New(color.Bold)
	dimColor     = color.New(color.Faint)
)

// Success, Error, Warning and Info print one prefixed line. Errors and
// warnings go to stderr so --json output stays clean.
func Success(format string, a ...any) {
	successColor.Fprintf(os.Stdout, "✓ "+format+"\n", a...)
}

func Error(format string, a ...any) {
	errorColor.Fprintf(os.Stderr, "✗ "+format+"\n", a...)
}

func Warning(format string, a ...any) {
	warningColor.Fprintf(os.Stderr, "⚠ "+format+"\n", a...)
}

func Info(format string, a ...any) {
	infoColor.Fprintf(os.Stdout, "ℹ "+format+"\n", a...)
}

// Bold formats text in bold.
func Bold(format string, a ...any) string {
	return boldColor.Sprintf(format, a...)
}

// Dim formats text in a faint style.
func Dim(format string, a ...any) string {
	return dimColor.Sprintf(format, a...)
}

// PromptConfirm reads a y/N answer from stdin. Anything but yes is no.
func PromptConfirm(message string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", message)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.TrimSpace(line)
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

// PrintKeyValue prints a key-value pair with the key highlighted.
func PrintKeyValue(key, value string) {
	fmt.Printf("%-10s %s\n", boldColor.Sprint(key+":"), value)
}

// kindColors gives each item kind a stable color in listings.
var kindColors = map[store.ItemKind]*color.Color{
	store.KindBookmark: color.New(color.FgBlue),
	store.KindSSH:      color.New(color.FgMagenta),
	store.KindApp:      color.New(color.FgGreen),
	store.KindPassword: color.New(color.FgYellow),
}

// KindLabel renders an item kind for terminal output.
func KindLabel(kind store.ItemKind) string {
	if c, ok := kindColors[kind]; ok {
		return c.Sprint(string(kind))
	}
	return string(kind)
}

// table writes aligned columns to stdout.
type table struct {
	tw *tabwriter.Writer
}

// newTable starts a table and prints its bold header row.
func newTable(columns ...string) *table {
	t := &table{tw: tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)}
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = boldColor.Sprint(col)
	}
	fmt.Fprintln(t.tw, strings.Join(header, "\t"))
	return t
}

// Row adds one row. Values are formatted with %v.
func (t *table) Row(values ...any) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = fmt.Sprint(v)
	}
	fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

// Flush writes the buffered rows.
func (t *table) Flush() error {
	return t.tw.Flush()
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
