package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/cifsgate/internal/cli/output"
	"github.com/marmos91/cifsgate/internal/cli/timeutil"
	"github.com/marmos91/cifsgate/pkg/apiclient"
)

var sessionsFlags adminFlags

var sessionsCmd = &cobra.Command{
	Use:   "sessions [id]",
	Short: "List the sessions of a running server",
	Long: `List the active sessions of a running server, or show one session
with its connected trees.

Examples:
  cifsgate sessions
  cifsgate sessions 3 -o yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessions,
}

func init() {
	sessionsFlags.register(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	printer, err := sessionsFlags.printer(cmd)
	if err != nil {
		return err
	}
	client := sessionsFlags.client()
	ctx := cmdContext(cmd)

	if len(args) == 1 {
		id, err := parseSessionID(args[0])
		if err != nil {
			return err
		}
		s, err := client.Session(ctx, id)
		if err != nil {
			return err
		}
		if printer.Structured() {
			return printer.Print(s)
		}
		return output.PrintFields(printer.Writer(), sessionFields(s))
	}

	sessions, err := client.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 && !printer.Structured() {
		printer.Printf("No active sessions\n")
		return nil
	}
	return printer.Print(sessionTable(sessions))
}

func parseSessionID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid session id %q", s)
	}
	return uint32(id), nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func sessionUser(s apiclient.Session) string {
	switch {
	case s.User == "":
		return "-"
	case s.Domain != "":
		return s.Domain + `\` + s.User
	}
	return s.User
}

type sessionTable []apiclient.Session

func (t sessionTable) Headers() []string {
	return []string{"ID", "PROTOCOL", "CLIENT", "USER", "LOGON", "TREES", "AGE"}
}

func (t sessionTable) Rows() [][]string {
	now := time.Now()
	rows := make([][]string, 0, len(t))
	for _, s := range t {
		logon := s.LogonType
		if logon == "" {
			logon = "-"
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(s.ID), 10),
			s.Protocol,
			s.RemoteAddress,
			sessionUser(s),
			logon,
			strconv.Itoa(len(s.Trees)),
			timeutil.FormatAge(s.CreatedAt, now),
		})
	}
	return rows
}

func sessionFields(s *apiclient.Session) output.Fields {
	var f output.Fields
	f.Add("ID", strconv.FormatUint(uint64(s.ID), 10))
	f.Add("Protocol", s.Protocol)
	f.Add("Client", s.RemoteAddress)
	f.Add("User", sessionUser(*s))
	if s.LogonType != "" {
		f.Add("Logon", s.LogonType)
	}
	if s.OperatingSystem != "" {
		f.Add("OS", s.OperatingSystem)
	}
	f.Add("Created", timeutil.FormatTime(s.CreatedAt))
	if s.ProcessID != 0 {
		f.Add("Process ID", strconv.FormatUint(uint64(s.ProcessID), 10))
	}
	trees := make([]string, 0, len(s.Trees))
	for _, t := range s.Trees {
		trees = append(trees, fmt.Sprintf("%d=%s", t.ID, t.Share))
	}
	if len(trees) > 0 {
		f.Add("Trees", strings.Join(trees, ", "))
	}
	return f
}
