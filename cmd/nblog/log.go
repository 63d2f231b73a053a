package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrzor/nblog/internal/timeline"
	"github.com/mrzor/nblog/internal/writer"

	"github.com/spf13/cobra"
)

func newLogCmd(a *app) *cobra.Command {
	var (
		name   string
		format string
		hash   uint64
	)
	cmd := &cobra.Command{
		Use:   "log [args...]",
		Short: "Append an entry to a shared timeline",
		Example: `  # A plain string entry
  nblog log --name mixer "underrun detected"

  # A formatted record; arguments are converted per specifier
  nblog log --name mixer --format "frames=%d gain=%f by %p" 256 0.5`,
		RunE: func(_ *cobra.Command, args []string) error {
			region, err := timeline.OpenRegion(a.dir, name)
			if err != nil {
				return err
			}
			defer func() { _ = region.Close() }()

			w := writer.New(region.Timeline)
			if format == "" {
				w.Log(strings.Join(args, " "))
				return nil
			}
			values, err := formatArgs(format, args)
			if err != nil {
				return err
			}
			w.LogFormat(format, hash, values...)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "timeline name")
	cmd.Flags().StringVar(&format, "format", "", "format string with %s %t %d %f %p specifiers")
	cmd.Flags().Uint64Var(&hash, "hash", 0, "content hash of the record")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// formatArgs converts command line arguments to the types the specifiers
// of format expect. %p and %% take no argument.
func formatArgs(format string, args []string) ([]any, error) {
	var values []any
	next := 0
	for i := 0; i < len(format)-1; i++ {
		if format[i] != '%' {
			continue
		}
		i++
		spec := format[i]
		if spec == '%' || spec == 'p' {
			continue
		}
		if next >= len(args) {
			return nil, fmt.Errorf("missing argument for %%%c", spec)
		}
		arg := args[next]
		next++
		switch spec {
		case 's':
			values = append(values, arg)
		case 'd':
			v, err := strconv.ParseInt(arg, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %d for %%d: %w", next, err)
			}
			values = append(values, int32(v)) //nolint:gosec // parsed with bitSize 32
		case 't':
			v, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d for %%t: %w", next, err)
			}
			values = append(values, v)
		case 'f':
			v, err := strconv.ParseFloat(arg, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %d for %%f: %w", next, err)
			}
			values = append(values, float32(v))
		default:
			return nil, fmt.Errorf("unsupported specifier %%%c", spec)
		}
	}
	if next < len(args) {
		return nil, fmt.Errorf("%d unused arguments", len(args)-next)
	}
	return values, nil
}
