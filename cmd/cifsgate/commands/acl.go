package commands

import (
	"fmt"
	"net"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/cifsgate/internal/cli/output"
	"github.com/marmos91/cifsgate/pkg/acl"
	"github.com/marmos91/cifsgate/pkg/config"
	"github.com/marmos91/cifsgate/pkg/share"
)

var aclCmd = &cobra.Command{
	Use:   "acl",
	Short: "Evaluate access control rules offline",
	Long: `Evaluate the access control rules of a configuration file without
starting the server.`,
}

var aclCheck struct {
	address  string
	user     string
	domain   string
	protocol string
	output   string
}

var aclCheckCmd = &cobra.Command{
	Use:   "check [share...]",
	Short: "Show which shares a client would be allowed to use",
	Long: `Evaluate share and server rules for a hypothetical client and print
the verdict per share. Without share arguments every share is checked,
hidden ones included.

A client without --user is treated as not logged on, so user and domain
rules do not match it.

Examples:
  cifsgate acl check --address 192.168.1.20
  cifsgate acl check PUBLIC --address 10.0.0.5 --user alice --domain WORKGROUP`,
	RunE: runACLCheck,
}

var aclTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the supported rule types",
	Run: func(cmd *cobra.Command, args []string) {
		mgr := acl.NewManager()
		for _, t := range mgr.Types() {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), t)
		}
	},
}

func init() {
	f := aclCheckCmd.Flags()
	f.StringVar(&aclCheck.address, "address", "", "Client IPv4 address")
	f.StringVar(&aclCheck.user, "user", "", "Logged-on user name")
	f.StringVar(&aclCheck.domain, "domain", "", "Logon domain")
	f.StringVar(&aclCheck.protocol, "protocol", "tcp", "Transport the client arrived on (tcp|netbios)")
	f.StringVarP(&aclCheck.output, "output", "o", "table", "Output format (table|json|yaml)")

	aclCmd.AddCommand(aclCheckCmd)
	aclCmd.AddCommand(aclTypesCmd)
}

// client is a hypothetical subject built from flags.
type client struct {
	addr     net.IP
	protocol string
	identity acl.Identity
	loggedOn bool
}

func (c client) RemoteAddress() net.IP          { return c.addr }
func (c client) Protocol() string               { return c.protocol }
func (c client) Identity() (acl.Identity, bool) { return c.identity, c.loggedOn }

// ShareVerdict is one row of acl check.
type ShareVerdict struct {
	Share   string `json:"share" yaml:"share"`
	Verdict string `json:"verdict" yaml:"verdict"`
	Allowed bool   `json:"allowed" yaml:"allowed"`
}

type verdictTable []ShareVerdict

func (t verdictTable) Headers() []string { return []string{"SHARE", "VERDICT"} }

func (t verdictTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, v := range t {
		rows = append(rows, []string{v.Share, v.Verdict})
	}
	return rows
}

func runACLCheck(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(aclCheck.output)
	if err != nil {
		return err
	}

	subj := client{protocol: strings.ToLower(aclCheck.protocol)}
	if aclCheck.address != "" {
		if subj.addr = net.ParseIP(aclCheck.address).To4(); subj.addr == nil {
			return fmt.Errorf("invalid IPv4 address %q", aclCheck.address)
		}
	}
	if aclCheck.user != "" {
		subj.identity = acl.Identity{UserName: aclCheck.user, Domain: aclCheck.domain}
		subj.loggedOn = true
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	mgr, shares, err := config.BuildAccessControl(cfg, nil)
	if err != nil {
		return err
	}

	results, err := checkShares(mgr, shares, subj, args)
	if err != nil {
		return err
	}
	return output.NewPrinter(cmd.OutOrStdout(), format, true).Print(verdictTable(results))
}

// checkShares evaluates names, or every share when names is empty.
func checkShares(mgr *acl.Manager, shares *share.List, subj acl.Subject, names []string) ([]ShareVerdict, error) {
	devices := shares.All(true)
	if len(names) > 0 {
		devices = devices[:0:0]
		for _, name := range names {
			dev, ok := shares.Find(name)
			if !ok {
				return nil, fmt.Errorf("share %q is not configured", name)
			}
			devices = append(devices, dev)
		}
	}

	results := make([]ShareVerdict, 0, len(devices))
	for _, dev := range devices {
		v := mgr.CheckAccessControl(subj, dev)
		results = append(results, ShareVerdict{
			Share:   dev.Name,
			Verdict: strings.ToLower(v.String()),
			Allowed: v == acl.Allow,
		})
	}
	return results, nil
}
