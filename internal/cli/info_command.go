package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ctoth/mixkit/mixer"
)

// newInfoCommand creates the info command
func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info [FILE...]",
		Short: "Show the negotiated device format and decoder support",
		Long: `Bring up the audio backend and report what the device accepted, which
decoder families are available and why any optional family failed.

Given files, each one is loaded as a sound effect and described.

Examples:
  mixkit info
  mixkit info --driver null boom.wav theme.ogg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := cliFromContext(cmd.Context())
			m, err := cli.openMixer()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			writeBackendInfo(out, cli.cfg.Driver, m)

			if len(args) == 0 {
				return nil
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Files:")
			var failed int
			for _, name := range args {
				path, err := cli.resolveSound(name)
				if err != nil {
					return err
				}
				chunk, err := m.LoadSound(path)
				if err != nil {
					fmt.Fprintf(out, "  %s: %v\n", path, err)
					failed++
					continue
				}
				size := "unknown size"
				if stat, err := cli.fsys.Stat(path); err == nil {
					size = humanize.Bytes(uint64(stat.Size()))
				}
				fmt.Fprintf(out, "  %s: %s, %s frames, %s, %s\n",
					path,
					chunk.Format(),
					humanize.Comma(int64(chunk.Len())),
					chunk.Duration().Round(time.Millisecond),
					size)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be loaded", failed, len(args))
			}
			return nil
		},
	}
}

func writeBackendInfo(out io.Writer, driver string, m *mixer.Mixer) {
	backend := m.Backend()
	spec := backend.Spec()

	fmt.Fprintf(out, "Driver:     %s\n", driver)
	fmt.Fprintf(out, "Device:     %s\n", spec)
	fmt.Fprintf(out, "Channels:   %d mixing channels\n", m.AllocatedChannels())
	fmt.Fprintf(out, "Formats:    %s\n", backend.Formats())
	fmt.Fprintf(out, "Decoders:   %s\n", strings.Join(backend.SupportedFormats(), ", "))

	formatErrors := backend.FormatErrors()
	if len(formatErrors) == 0 {
		return
	}

	flags := make([]mixer.FormatFlag, 0, len(formatErrors))
	for flag := range formatErrors {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })

	fmt.Fprintln(out, "Unavailable:")
	for _, flag := range flags {
		fmt.Fprintf(out, "  %s: %v\n", flag, formatErrors[flag])
	}
}
