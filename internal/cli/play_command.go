package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ctoth/mixkit/mixer"
)

const (
	pollInterval = 20 * time.Millisecond
	renderBlock  = 4096
)

type playbackFlags struct {
	loops   int
	volume  int
	timeout time.Duration
}

func (f *playbackFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.loops, "loops", 0, "Extra passes after the first, -1 loops until stopped")
	cmd.Flags().IntVar(&f.volume, "volume", mixer.MaxVolume, "Volume from 0 to 128")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Stop after this long (0 waits for playback to finish)")
}

func (f *playbackFlags) validate() error {
	if f.loops < -1 {
		return fmt.Errorf("--loops must be -1 or greater, got %d", f.loops)
	}
	if f.volume < 0 || f.volume > mixer.MaxVolume {
		return fmt.Errorf("--volume must be between 0 and %d, got %d", mixer.MaxVolume, f.volume)
	}
	return nil
}

// newPlayCommand creates the play command for sound effects
func newPlayCommand() *cobra.Command {
	var flags playbackFlags
	var channel int

	cmd := &cobra.Command{
		Use:   "play FILE...",
		Short: "Play sound effects on mixing channels",
		Long: `Load each file fully into memory and play it on its own mixing channel.
A FILE that does not exist is looked up in the configured sounds table and
then in the sound search path, with or without an extension.

All files start together. The command returns when every channel has gone
idle, when --timeout elapses, or when Enter is pressed on a terminal.

Examples:
  mixkit play boom.wav
  mixkit play --loops 2 --volume 64 click.ogg
  mixkit play --channel 3 --loops -1 engine.flac
  mixkit play kick.wav snare.wav hat.wav`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			if channel >= 0 && len(args) > 1 {
				return errors.New("--channel can only be used with a single file")
			}

			cli := cliFromContext(cmd.Context())
			m, err := cli.openMixer()
			if err != nil {
				return err
			}

			if channel >= m.AllocatedChannels() {
				m.AllocateChannels(channel + 1)
			}
			if len(args) > m.AllocatedChannels() {
				m.AllocateChannels(len(args))
			}
			m.VolumeChunk(channel, flags.volume)

			chunks := make([]*mixer.Chunk, 0, len(args))
			for _, name := range args {
				path, err := cli.resolveSound(name)
				if err != nil {
					return err
				}
				chunk, err := m.LoadSound(path)
				if err != nil {
					return err
				}
				chunks = append(chunks, chunk)
			}

			channels := make([]int, 0, len(chunks))
			for _, chunk := range chunks {
				ch, err := m.PlayChannel(chunk, channel, flags.loops)
				if err != nil {
					m.HaltChannel(-1)
					return err
				}
				channels = append(channels, ch)
				cmd.Printf("playing %s on channel %d (%s, %s)\n",
					chunk.Path(), ch, chunk.Format(), chunk.Duration().Round(time.Millisecond))
			}

			busy := func() bool {
				for _, ch := range channels {
					if m.Playing(ch) {
						return true
					}
				}
				return false
			}
			cli.waitForPlayback(cmd, flags.timeout, busy)

			for _, ch := range channels {
				m.HaltChannel(ch)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&channel, "channel", -1, "Channel to play on, -1 picks the first idle channel")

	return cmd
}

// newMusicCommand creates the music command for the single music track
func newMusicCommand() *cobra.Command {
	var flags playbackFlags

	cmd := &cobra.Command{
		Use:   "music FILE",
		Short: "Stream a music track",
		Long: `Stream FILE from disk on the music channel.

Examples:
  mixkit music theme.ogg
  mixkit music --loops -1 --volume 96 ambience.mp3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}

			cli := cliFromContext(cmd.Context())
			m, err := cli.openMixer()
			if err != nil {
				return err
			}

			path, err := cli.resolveSound(args[0])
			if err != nil {
				return err
			}
			music, err := m.LoadMusic(path)
			if err != nil {
				return err
			}
			defer func() {
				if err := music.Close(); err != nil {
					slog.Warn("closing music stream failed", "path", music.Path(), "error", err)
				}
			}()

			m.VolumeMusic(flags.volume)
			if err := m.PlayMusic(music, flags.loops); err != nil {
				return err
			}
			cmd.Printf("playing %s (%s, %d Hz)\n", music.Path(), music.Format(), music.SampleRate())

			cli.waitForPlayback(cmd, flags.timeout, m.PlayingMusic)
			m.HaltMusic()
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// waitForPlayback blocks until busy reports false, the timeout elapses, the
// process is interrupted, or Enter is pressed. With the null driver nothing
// pulls audio, so the mix is rendered here as fast as possible.
func (c *CLI) waitForPlayback(cmd *cobra.Command, timeout time.Duration, busy func() bool) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ctx, cancel, interactive := c.stopOnEnter(ctx, cmd.InOrStdin())
	defer cancel()
	if interactive {
		cmd.Println("press Enter to stop")
	}

	if c.cfg.Driver == "null" {
		block := make([][2]float64, renderBlock)
		for busy() && ctx.Err() == nil {
			c.backend.Render(block)
		}
		return
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for busy() {
		select {
		case <-ctx.Done():
			slog.Debug("playback wait cancelled", "reason", context.Cause(ctx))
			return
		case <-ticker.C:
		}
	}
}
