package main

import (
	"fmt"

	"github.com/mrzor/nblog/internal/timeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCreateCmd(a *app) *cobra.Command {
	var (
		name string
		size int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a shared timeline",
		Example: `  # A 64 KiB timeline other processes can write to
  nblog create --name mixer --size 65536`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size <= 0 {
				size = a.cfg.BufferSize
			}
			region, err := timeline.CreateRegion(a.dir, name, size)
			if err != nil {
				return err
			}
			a.logger.Debug("created timeline",
				zap.String("path", region.Path),
				zap.Int("capacity", region.Timeline.Capacity()),
			)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), region.Path)
			if closeErr := region.Close(); err == nil {
				err = closeErr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "timeline name")
	cmd.Flags().IntVar(&size, "size", 0, "buffer size in bytes, rounded up to a power of two (default NBLOG_BUFFER_SIZE)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
