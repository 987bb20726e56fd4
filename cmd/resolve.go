package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/streamwave/internal/errmsg"
	"github.com/llehouerou/streamwave/internal/state"
	"github.com/llehouerou/streamwave/internal/stream"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <media-id>",
	Short: "Resolve a track to its stream source and print the selected format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		id := args[0]
		src, err := a.resolver.Resolve(ctx, id, stream.ByteRange{Length: -1})
		if err != nil {
			return fmt.Errorf("%s: %w", errmsg.Describe(err), err)
		}
		a.reconciler.Wait()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "id:       %s\n", id)
		fmt.Fprintf(out, "origin:   %s\n", src.Origin)
		if src.URL != "" {
			fmt.Fprintf(out, "url:      %s\n", src.URL)
		}
		rec, err := a.state.GetFormat(id)
		if err != nil {
			return err
		}
		printFormat(out, rec)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func printFormat(out io.Writer, rec *state.FormatRecord) {
	if rec == nil {
		fmt.Fprintln(out, "format:   unknown")
		return
	}
	fmt.Fprintf(out, "format:   itag %d, %s", rec.Itag, rec.MimeType)
	if rec.Codecs != "" {
		fmt.Fprintf(out, " (%s)", rec.Codecs)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "bitrate:  %s\n", humanize.SIWithDigits(float64(rec.Bitrate), 0, "bps"))
	if rec.SampleRate > 0 {
		fmt.Fprintf(out, "rate:     %s\n", humanize.SIWithDigits(float64(rec.SampleRate), 1, "Hz"))
	}
	if rec.ContentLength > 0 {
		fmt.Fprintf(out, "size:     %s\n", humanize.IBytes(uint64(rec.ContentLength)))
	}
	if rec.LoudnessDb != nil {
		fmt.Fprintf(out, "loudness: %+.1f dB\n", *rec.LoudnessDb)
	}
}
