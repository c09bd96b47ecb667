package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var voicesLocale string

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List available voices",
	Long: `List the voices of the configured catalog.

Examples:
  naturalvoice --edge voices
  naturalvoice --region westus --key $KEY voices --locale en-US`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := effective()
		cat, err := catalog(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		list, err := cat.List(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SHORT NAME\tGENDER\tLOCALE\tSTATUS")
		for _, v := range list {
			if voicesLocale != "" && !strings.EqualFold(v.Locale, voicesLocale) {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ShortName, v.Gender, v.Locale, v.Status)
		}
		return w.Flush()
	},
}

func init() {
	voicesCmd.Flags().StringVar(&voicesLocale, "locale", "", "only show voices for this locale, e.g. en-US")
}
