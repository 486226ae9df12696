package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/cifsgate/pkg/apiclient"
)

var (
	sharesFlags   adminFlags
	sharesSession string
)

var sharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "List the shares of a running server",
	Long: `List the shares of a running server with their access rules.

With --session the list is filtered the way that session sees it in a
share enumeration.

Examples:
  cifsgate shares
  cifsgate shares --session 3`,
	Args: cobra.NoArgs,
	RunE: runShares,
}

func init() {
	sharesFlags.register(sharesCmd)
	sharesCmd.Flags().StringVar(&sharesSession, "session", "", "Only shares visible to this session ID")
}

func runShares(cmd *cobra.Command, args []string) error {
	printer, err := sharesFlags.printer(cmd)
	if err != nil {
		return err
	}
	client := sharesFlags.client()
	ctx := cmdContext(cmd)

	var shares []apiclient.Share
	if sharesSession != "" {
		id, err := parseSessionID(sharesSession)
		if err != nil {
			return err
		}
		shares, err = client.SharesFor(ctx, id)
		if err != nil {
			return err
		}
	} else if shares, err = client.Shares(ctx); err != nil {
		return err
	}
	return printer.Print(shareTable(shares))
}

type shareTable []apiclient.Share

func (t shareTable) Headers() []string {
	return []string{"NAME", "TYPE", "HIDDEN", "COMMENT", "RULES"}
}

func (t shareTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, s := range t {
		rules := make([]string, 0, len(s.Rules))
		for _, r := range s.Rules {
			rules = append(rules, r.Verdict+" "+r.Type+":"+r.Name)
		}
		rows = append(rows, []string{s.Name, s.Type, strconv.FormatBool(s.Hidden), s.Comment, strings.Join(rules, ", ")})
	}
	return rows
}
