package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Zereker/p2pstream"
)

// hexPreview is how many body bytes are printed per message.
const hexPreview = 16

func decodeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a captured byte stream",
		Long: `Decode reads a raw captured stream from file, or stdin when file is
omitted or "-", and prints one line per decoded message.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}

			in := io.Reader(cmd.InOrStdin())
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Wrap(err, "open input")
				}
				defer f.Close()
				in = f
			}

			return runDecode(in, cmd.OutOrStdout(), cfg, newLogger(cfg, cmd.ErrOrStderr()))
		},
	}
}

type decodeSummary struct {
	messages int
	bytes    uint64
}

// runDecode pushes r into a stream in cfg.ChunkSize reads and prints every
// message to w. It returns the stream error, if any.
func runDecode(r io.Reader, w io.Writer, cfg config, logger p2pstream.Logger) error {
	var sum decodeSummary

	stream, err := p2pstream.NewStream(
		p2pstream.NetworkOption(cfg.magic()),
		p2pstream.LoggerOption(logger),
		p2pstream.OnMessageOption(func(m p2pstream.Message) {
			sum.messages++
			sum.bytes += uint64(m.Length())
			printMessage(w, m)
		}),
	)
	if err != nil {
		return err
	}

	buf := make([]byte, cfg.ChunkSize)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			stream.Push(buf[:n])
		}
		if stream.Destroyed() {
			break
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return errors.Wrap(rerr, "read input")
		}
	}

	fmt.Fprintf(w, "%d messages, %s payload\n", sum.messages, humanize.Bytes(sum.bytes))

	if err := stream.Err(); err != nil {
		return errors.Wrapf(err, "decode failed after %d messages", sum.messages)
	}
	return nil
}

func printMessage(w io.Writer, m p2pstream.Message) {
	preview := m.Body
	if len(preview) > hexPreview {
		preview = preview[:hexPreview]
	}
	fmt.Fprintf(w, "%-12s %8s %s\n", m.Command, humanize.Bytes(uint64(m.Length())), hex.EncodeToString(preview))
}
