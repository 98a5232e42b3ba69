package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"example.com/photofeed/internal/api"
	"example.com/photofeed/internal/session"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	stdout  io.Writer = os.Stdout
	stderr  io.Writer = os.Stderr
	printer           = message.NewPrinter(language.English)
)

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printError renders err the way each error kind is meant to reach the user.
func printError(err error) {
	var (
		aerr *api.AuthError
		nerr *api.NetworkError
		serr *session.StorageError
	)
	switch {
	case errors.As(err, &aerr):
		fmt.Fprintln(stderr, aerr.Message)
	case errors.As(err, &nerr):
		msg := nerr.Message
		if msg == "" {
			msg = "request failed"
		}
		if nerr.StatusCode != 0 {
			fmt.Fprintf(stderr, "Error: %s (HTTP %d)\n", msg, nerr.StatusCode)
		} else {
			fmt.Fprintf(stderr, "Error: could not reach the server: %v\n", nerr.Err)
		}
	case errors.As(err, &serr):
		fmt.Fprintln(stderr, "Error: could not access local token storage")
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
}

func printTableHeader(w io.Writer, cols ...string) {
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
