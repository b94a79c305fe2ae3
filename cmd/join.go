package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/duo/internal/client"
	"github.com/BioHazard786/duo/internal/config"
	"github.com/BioHazard786/duo/internal/logging"
	"github.com/BioHazard786/duo/internal/peer"
	"github.com/BioHazard786/duo/internal/roomname"
	"github.com/BioHazard786/duo/internal/signaling"
	"github.com/BioHazard786/duo/internal/ui"
	"github.com/BioHazard786/duo/internal/version"
)

var (
	joinOpts    config.ClientOptions
	joinTimeout time.Duration
	joinNoProbe bool
)

var joinCmd = &cobra.Command{
	Use:     "join [room]",
	Aliases: []string{"j"},
	Short:   "Join a room and probe the other peer",
	Long: `Join a room on the relay. Without a room name a memorable one is
generated. Once a second peer is present the two sides negotiate a WebRTC
connection through the relay and measure the round trip over a data channel.

Examples:
  duo join
  duo join plucky-heron-cello-meadow --peer-id laptop
  duo join lobby --no-probe --server wss://relay.example.com/ws`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room := ""
		if len(args) == 1 {
			room = args[0]
		}
		return joinRoom(cmd.Context(), room)
	},
}

func init() {
	joinOpts.BindFlags(joinCmd.Flags())
	joinCmd.Flags().DurationVarP(&joinTimeout, "timeout", "t", 2*time.Minute, "Give up if no peer connection is made in time")
	joinCmd.Flags().BoolVar(&joinNoProbe, "no-probe", false, "Only watch room events, skip the WebRTC probe")
	rootCmd.AddCommand(joinCmd)
}

func joinRoom(ctx context.Context, room string) error {
	cfg, err := config.LoadClient(joinOpts)
	if err != nil {
		return err
	}
	if room == "" {
		if room, err = roomname.Generate(nil); err != nil {
			return fmt.Errorf("failed to generate room name: %w", err)
		}
	}

	deadline, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()

	stopSpinner := ui.RunConnectionSpinner("Connecting to relay...")
	sess, err := client.Dial(deadline, cfg.ServerURL, slog.Default())
	stopSpinner()
	if err != nil {
		return err
	}
	defer sess.Close()
	ui.PrintInfof("Connected as %s", ui.MutedStyle.Render(string(sess.ID)))

	members, err := sess.Join(deadline, room, cfg.PeerID)
	if err != nil {
		return err
	}
	fmt.Println(ui.RoomView(room, members))

	if joinNoProbe {
		watchRoom(ctx, sess)
		return sess.Leave()
	}

	// The newcomer offers; whoever was already waiting answers.
	initiate := members == 2
	if !initiate {
		if err := waitForPeer(deadline, sess, room); err != nil {
			return err
		}
	}

	res, err := runProbe(deadline, sess, room, cfg, initiate)
	if err != nil {
		return err
	}

	fmt.Println(ui.ProbeSummaryView(ui.ProbeSummary{
		Room:          room,
		RemotePeer:    res.RemotePeer,
		RemoteConn:    string(res.RemoteConn),
		RemoteVersion: res.RemoteVersion,
		RTT:           res.RTT,
	}))
	ui.PrintSuccessf("Peer connection to %s works", ui.BoldStyle.Render(res.RemotePeer))
	return sess.Leave()
}

func waitForPeer(ctx context.Context, sess *client.Session, room string) error {
	sp := ui.NewWaitingSpinner(fmt.Sprintf("Waiting for a peer to join %s...", room))
	sp.Start()

	select {
	case uc := <-sess.Handler.PeerJoined:
		sp.Success(fmt.Sprintf("%s %s joined", ui.IconPeer, peerName(uc)))
		return nil
	case <-sess.Handler.Closed:
		sp.Stop()
		return client.NewError("wait for peer", client.ErrServerClosed)
	case <-ctx.Done():
		sp.Stop()
		return client.WrapError("wait for peer", client.ErrTimeout, ctx.Err().Error())
	}
}

func runProbe(ctx context.Context, sess *client.Session, room string, cfg *config.Client, initiate bool) (*peer.Result, error) {
	label := cfg.PeerID
	if label == "" {
		// Matches the server's default for an anonymous join.
		label = string(sess.ID)
	}

	probe, err := peer.New(sess, room, peer.Config{
		STUNServers: cfg.GetSTUNServers(),
		PeerID:      label,
		Version:     version.Version,
		LogLevel:    logging.Level(slog.LevelInfo),
	}, slog.Default())
	if err != nil {
		return nil, err
	}

	stopSpinner := ui.RunConnectionSpinner("Establishing WebRTC connection...")
	defer stopSpinner()
	return probe.Run(ctx, initiate)
}

// watchRoom prints membership changes until ctx ends or the relay goes away.
func watchRoom(ctx context.Context, sess *client.Session) {
	ui.PrintInfo("Watching room events, press Ctrl+C to leave")
	for {
		select {
		case uc := <-sess.Handler.PeerJoined:
			ui.PrintInfof("%s %s joined", ui.IconPeer, peerName(uc))
		case peerID := <-sess.Handler.PeerLeft:
			ui.PrintWarningf("%s left", peerID)
		case msg := <-sess.Handler.Signal:
			ui.PrintInfof("%s %s", ui.MutedStyle.Render(msg.Type), string(msg.Payload))
		case <-sess.Handler.Closed:
			ui.PrintError("Relay closed the connection")
			return
		case <-ctx.Done():
			return
		}
	}
}

func peerName(uc signaling.UserConnected) string {
	if uc.PeerID == string(uc.ConnectionID) {
		return string(uc.ConnectionID)
	}
	return fmt.Sprintf("%s (%s)", uc.PeerID, uc.ConnectionID)
}
