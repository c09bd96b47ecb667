package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voxely/naturalvoice/pkg/audio/mp3"
	"github.com/voxely/naturalvoice/pkg/audio/wavfile"
	"github.com/voxely/naturalvoice/pkg/azuretts"
)

var (
	sayVoice   string
	sayOutput  string
	sayRawSSML bool
)

var sayCmd = &cobra.Command{
	Use:   "say <text>",
	Short: "Synthesize text to speech",
	Long: `Synthesize text and save the decoded audio as a WAV file.

The text is wrapped in an SSML document for the chosen voice. With --ssml the
input is sent as-is and must be a complete SSML document.

Examples:
  naturalvoice --edge say --voice en-US-AvaNeural -o hello.wav "Hello there"
  naturalvoice --edge say --ssml -o hello.wav "<speak version='1.0' xml:lang='en-US'>...</speak>"

Interrupting with Ctrl-C stops the synthesis; audio decoded so far is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := effective()
		if sayVoice == "" {
			sayVoice = cfg.Voice
		}
		if sayVoice == "" {
			return fmt.Errorf("--voice is required (try 'naturalvoice voices')")
		}
		if sayOutput == "" {
			return fmt.Errorf("output file is required, use -o flag")
		}

		cat, err := catalog(cfg)
		if err != nil {
			return err
		}

		input := args[0]
		if !sayRawSSML {
			input = wrapSSML(sayVoice, input)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return runSay(ctx, cat.WebsocketURL(), cfg, input)
	},
}

func init() {
	sayCmd.Flags().StringVar(&sayVoice, "voice", "", "voice short name, e.g. en-US-AvaNeural")
	sayCmd.Flags().StringVarP(&sayOutput, "output", "o", "", "output WAV file")
	sayCmd.Flags().BoolVar(&sayRawSSML, "ssml", false, "treat the input as a complete SSML document")
}

func runSay(ctx context.Context, endpoint string, cfg *Config, ssml string) error {
	out, err := os.Create(sayOutput)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()
	sink := wavfile.NewWriter(out, mp3.Format)

	opts := []azuretts.Option{
		azuretts.WithEndpoint(endpoint),
		azuretts.WithSubscriptionKey(cfg.Key),
		azuretts.WithSink(sink),
	}
	if cfg.OutputFormat != "" {
		opts = append(opts, azuretts.WithOutputFormat(cfg.OutputFormat))
	}
	if verbose {
		opts = append(opts,
			azuretts.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))),
			azuretts.WithCallbacks(azuretts.Callbacks{
				WordBoundary: func(offset uint64, pos, length int) {
					fmt.Fprintf(os.Stderr, "word   %8s  pos=%d len=%d\n", ticks(offset), pos, length)
				},
				SentenceBoundary: func(offset uint64, pos, length int) {
					fmt.Fprintf(os.Stderr, "sent   %8s  pos=%d len=%d\n", ticks(offset), pos, length)
				},
			}),
		)
	}

	client, err := azuretts.NewClient(opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	h := client.SpeakAsync(ssml)
	go func() {
		<-ctx.Done()
		client.Stop()
	}()
	if err := h.Wait(context.Background()); err != nil {
		return err
	}

	if err := sink.Close(); err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "wrote %s\n", sayOutput)
	}
	return nil
}

// ticks formats a 100-nanosecond tick offset as seconds.
func ticks(offset uint64) string {
	return fmt.Sprintf("%.3fs", float64(offset)/1e7)
}

// wrapSSML builds a minimal SSML document speaking text with the given
// voice. The language is taken from the voice short name's locale prefix.
func wrapSSML(voice, text string) string {
	lang := "en-US"
	if parts := strings.SplitN(voice, "-", 3); len(parts) == 3 {
		lang = parts[0] + "-" + parts[1]
	}
	var b strings.Builder
	b.WriteString("<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='")
	b.WriteString(lang)
	b.WriteString("'><voice name='")
	b.WriteString(voice)
	b.WriteString("'>")
	b.WriteString(escapeXML(text))
	b.WriteString("</voice></speak>")
	return b.String()
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlReplacer.Replace(s)
}
