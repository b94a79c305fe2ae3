package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Row is one metric line of a two column table.
type Row struct {
	Name  string
	Value string
}

// MetricTableView renders rows under a Metric/Value header.
func MetricTableView(rows []Row) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Name, r.Value})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Metric", "Value").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

// RelayStatus is what `duo status` shows for a relay.
type RelayStatus struct {
	URL         string
	Status      string
	Rooms       int
	Connections int
	Latency     time.Duration
}

func RelayStatusView(s RelayStatus) string {
	return MetricTableView([]Row{
		{"Relay", s.URL},
		{"Status", s.Status},
		{"Rooms", strconv.Itoa(s.Rooms)},
		{"Connections", strconv.Itoa(s.Connections)},
		{"Latency", s.Latency.Round(time.Millisecond).String()},
	})
}

// ProbeSummary describes the peer reached over the data channel.
type ProbeSummary struct {
	Room          string
	RemotePeer    string
	RemoteConn    string
	RemoteVersion string
	RTT           time.Duration
}

func ProbeSummaryView(s ProbeSummary) string {
	return MetricTableView([]Row{
		{"Room", s.Room},
		{"Peer", s.RemotePeer},
		{"Connection", s.RemoteConn},
		{"Version", s.RemoteVersion},
		{"Round Trip", s.RTT.Round(time.Microsecond).String()},
	})
}

// RoomView boxes the room name so the other side can copy it.
func RoomView(room string, members int) string {
	content := fmt.Sprintf("%s Joined room\n\n%s Room:     %s\n%s Members:  %d/2",
		IconSuccess,
		IconCopy, BoldStyle.Foreground(Primary).Render(room),
		IconPeer, members,
	)
	return RoomBoxStyle.Render(content)
}
