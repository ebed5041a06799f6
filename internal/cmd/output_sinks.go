package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errwrap "github.com/osudump/osudump/internal/errors"
	"github.com/osudump/osudump/internal/output"
)

type outputSink struct {
	writer io.Writer
	close  func() error
	path   string
}

func resolveOutputFormat(cmd *cobra.Command) (output.Format, error) {
	value, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", err
	}
	format, err := output.ParseFormat(value)
	if err != nil {
		return "", errwrap.WrapInvalidInput(cmd.Context(), err, err.Error())
	}
	return format, nil
}

// openSink opens path for writing; an empty path or "-" is stdout.
func openSink(path string, stdout io.Writer) (*outputSink, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		return &outputSink{writer: stdout, close: func() error { return nil }, path: "-"}, nil
	}

	if err := os.MkdirAll(filepath.Dir(trimmed), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(trimmed)
	if err != nil {
		return nil, err
	}
	return &outputSink{writer: file, close: file.Close, path: trimmed}, nil
}

// writeRendered writes a rendered report followed by a newline.
func writeRendered(path string, stdout io.Writer, rendered string) error {
	sink, err := openSink(path, stdout)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(sink.writer, rendered); err != nil {
		_ = sink.close()
		return fmt.Errorf("write output: %w", err)
	}
	if !strings.HasSuffix(rendered, "\n") {
		if _, err := io.WriteString(sink.writer, "\n"); err != nil {
			_ = sink.close()
			return fmt.Errorf("write output: %w", err)
		}
	}

	if err := sink.close(); err != nil {
		return fmt.Errorf("close output %s: %w", sink.path, err)
	}
	return nil
}
