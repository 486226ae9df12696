package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/cifsgate/internal/cli/output"
	"github.com/marmos91/cifsgate/internal/cli/timeutil"
	"github.com/marmos91/cifsgate/pkg/apiclient"
)

var statusFlags adminFlags

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running server",
	Long: `Query the admin API of a running server and print its summary and
session handlers.

Examples:
  cifsgate status
  cifsgate status --api http://10.0.0.2:8080 -o json`,
	RunE: runStatus,
}

func init() {
	statusFlags.register(statusCmd)
}

// ServerStatus is the combined result printed by status.
type ServerStatus struct {
	Running  bool                  `json:"running" yaml:"running"`
	Ready    bool                  `json:"ready" yaml:"ready"`
	API      string                `json:"api" yaml:"api"`
	Server   *apiclient.ServerInfo `json:"server,omitempty" yaml:"server,omitempty"`
	Handlers []apiclient.Handler   `json:"handlers,omitempty" yaml:"handlers,omitempty"`
	Error    string                `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	printer, err := statusFlags.printer(cmd)
	if err != nil {
		return err
	}
	client := statusFlags.client().WithTimeout(2 * time.Second)
	ctx := cmdContext(cmd)

	status := ServerStatus{API: client.BaseURL()}
	ready, err := client.Ready(ctx)
	if err != nil {
		status.Error = err.Error()
	} else {
		status.Running = true
		status.Ready = ready.Healthy()
		status.Server, err = client.Server(ctx)
		if err == nil {
			status.Handlers, err = client.Handlers(ctx)
		}
		if err != nil {
			status.Error = err.Error()
		}
	}

	if printer.Structured() {
		return printer.Print(status)
	}
	return printStatus(printer, status)
}

func printStatus(p *output.Printer, s ServerStatus) error {
	if !s.Running {
		p.Error("Server is not running")
		p.Printf("  API:   %s\n  Error: %s\n", s.API, s.Error)
		return nil
	}
	if s.Ready {
		p.Success("Server is running")
	} else {
		p.Warning("Server is running but not ready")
	}

	var fields output.Fields
	fields.Add("API", s.API)
	if s.Server != nil {
		fields.Add("Name", s.Server.Name)
		fields.Add("Started", timeutil.FormatTime(s.Server.StartedAt))
		fields.Add("Uptime", timeutil.FormatUptime(s.Server.Uptime))
		fields.Add("Sessions", strconv.Itoa(s.Server.Sessions))
		fields.Add("Shares", strconv.Itoa(s.Server.Shares))
		fields.Add("Access rules", fmt.Sprintf("%d (default %s)", s.Server.Rules, s.Server.DefaultVerdict))
		fields.Add("Open files", strconv.Itoa(s.Server.OpenFiles))
	}
	if err := output.PrintFields(p.Writer(), fields); err != nil {
		return err
	}
	if s.Error != "" {
		p.Warning(s.Error)
	}

	if len(s.Handlers) > 0 {
		p.Printf("\n")
		return output.PrintTable(p.Writer(), handlerTable(s.Handlers))
	}
	return nil
}

type handlerTable []apiclient.Handler

func (t handlerTable) Headers() []string {
	return []string{"NAME", "PROTOCOL", "ADDRESS", "LISTENING", "CONNECTIONS"}
}

func (t handlerTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, h := range t {
		conns := "-"
		if h.ActiveConnections != nil {
			conns = strconv.Itoa(int(*h.ActiveConnections))
		}
		rows = append(rows, []string{h.Name, h.Protocol, h.Address, strconv.FormatBool(h.Listening), conns})
	}
	return rows
}
