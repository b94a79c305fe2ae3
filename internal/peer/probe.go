// Package peer runs a short WebRTC handshake against the other member of a
// room to prove the relay delivered a usable offer, answer and candidates.
package peer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/BioHazard786/duo/internal/client"
	"github.com/BioHazard786/duo/internal/signaling"
)

// Label names the probe data channel.
const Label = "duo-probe"

// closeGrace lets the final pong leave before the connection is torn down.
const closeGrace = 500 * time.Millisecond

var (
	ErrPeerLeft         = errors.New("peer left the room")
	ErrConnectionFailed = errors.New("peer connection failed")
)

// Config controls a single probe.
type Config struct {
	STUNServers []string
	PeerID      string
	Version     string
	LogLevel    slog.Level
}

// Result describes the peer on the other end.
type Result struct {
	RemoteConn    signaling.ConnID
	RemotePeer    string
	RemoteVersion string
	RTT           time.Duration
}

// Probe drives one peer connection over an already joined session.
type Probe struct {
	session *client.Session
	room    string
	cfg     Config
	log     *slog.Logger
	pc      *webrtc.PeerConnection

	// Only touched from Run.
	described bool
	pending   []webrtc.ICECandidateInit

	mu       sync.Mutex
	remote   signaling.ConnID
	hello    *Hello
	rtt      time.Duration
	measured bool
	ponged   bool

	done       chan Result
	failed     chan error
	finishOnce sync.Once
}

// signalBody is the part of an offer, answer or candidate the probe reads.
type signalBody struct {
	From      signaling.ConnID           `json:"fromConnectionId"`
	SDP       *webrtc.SessionDescription `json:"sdp"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate"`
}

// New prepares a probe for room. The session must already hold a seat.
func New(session *client.Session, room string, cfg Config, logger *slog.Logger) (*Probe, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var se webrtc.SettingEngine
	se.LoggerFactory = loggerFactory(cfg.LogLevel)
	api := webrtc.NewAPI(webrtc.WithSettingEngine(se))

	var iceServers []webrtc.ICEServer
	if len(cfg.STUNServers) > 0 {
		iceServers = []webrtc.ICEServer{{URLs: cfg.STUNServers}}
	}
	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	p := &Probe{
		session: session,
		room:    room,
		cfg:     cfg,
		log:     logger.With("room", room),
		pc:      pc,
		done:    make(chan Result, 1),
		failed:  make(chan error, 1),
	}
	p.setupHandlers()
	return p, nil
}

func (p *Probe) setupHandlers() {
	p.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		if err := p.signal(signaling.EventICECandidate, map[string]any{"candidate": c.ToJSON()}); err != nil {
			p.log.Debug("candidate not sent", "error", err)
		}
	})

	p.pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		p.log.Debug("peer connection state", "state", state.String())
		if state == webrtc.PeerConnectionStateFailed {
			p.fail(ErrConnectionFailed)
		}
	})

	p.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != Label {
			p.log.Debug("ignoring data channel", "label", dc.Label())
			return
		}
		p.attach(dc)
	})
}

// Run performs the handshake. The initiator creates the data channel and
// broadcasts the offer to the room; the other side answers the sender.
func (p *Probe) Run(ctx context.Context, initiate bool) (*Result, error) {
	defer p.pc.Close()

	if initiate {
		if err := p.offer(); err != nil {
			return nil, err
		}
	}

	h := p.session.Handler
	for {
		select {
		case msg := <-h.Signal:
			if err := p.handleSignal(msg); err != nil {
				return nil, err
			}

		case peer := <-h.PeerLeft:
			select {
			case res := <-p.done:
				return &res, nil
			default:
			}
			return nil, fmt.Errorf("%w: %s", ErrPeerLeft, peer)

		case <-h.Closed:
			return nil, client.NewError("probe", client.ErrServerClosed)

		case err := <-p.failed:
			return nil, err

		case res := <-p.done:
			select {
			case <-time.After(closeGrace):
			case <-ctx.Done():
			}
			return &res, nil

		case <-ctx.Done():
			return nil, client.WrapError("probe", client.ErrTimeout, ctx.Err().Error())
		}
	}
}

func (p *Probe) offer() error {
	dc, err := p.pc.CreateDataChannel(Label, nil)
	if err != nil {
		return fmt.Errorf("create data channel: %w", err)
	}
	p.attach(dc)

	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	// Candidates trickle through OnICECandidate once this is set.
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	return p.signal(signaling.EventOffer, map[string]any{"sdp": offer})
}

func (p *Probe) handleSignal(msg *signaling.Message) error {
	var body signalBody
	if err := json.Unmarshal(msg.Payload, &body); err != nil {
		return client.WrapError("decode "+msg.Type, client.ErrProtocol, err.Error())
	}
	if body.From != "" {
		p.setRemote(body.From)
	}

	switch msg.Type {
	case signaling.EventOffer:
		if body.SDP == nil {
			return client.WrapError("decode offer", client.ErrProtocol, "missing sdp")
		}
		if err := p.describe(*body.SDP); err != nil {
			return err
		}
		answer, err := p.pc.CreateAnswer(nil)
		if err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		if err := p.pc.SetLocalDescription(answer); err != nil {
			return fmt.Errorf("set local description: %w", err)
		}
		// Answers are relayed untouched, so the sender names itself.
		return p.signal(signaling.EventAnswer, map[string]any{
			"sdp":              answer,
			"fromConnectionId": p.session.ID,
		})

	case signaling.EventAnswer:
		if body.SDP == nil {
			return client.WrapError("decode answer", client.ErrProtocol, "missing sdp")
		}
		return p.describe(*body.SDP)

	case signaling.EventICECandidate:
		if body.Candidate == nil {
			return nil
		}
		if !p.described {
			p.pending = append(p.pending, *body.Candidate)
			return nil
		}
		if err := p.pc.AddICECandidate(*body.Candidate); err != nil {
			p.log.Warn("rejected remote candidate", "error", err)
		}
	}
	return nil
}

// describe applies the remote description and flushes early candidates.
func (p *Probe) describe(desc webrtc.SessionDescription) error {
	if err := p.pc.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	p.described = true
	for _, c := range p.pending {
		if err := p.pc.AddICECandidate(c); err != nil {
			p.log.Warn("rejected remote candidate", "error", err)
		}
	}
	p.pending = nil
	return nil
}

// signal targets the remote connection once known and the room until then.
func (p *Probe) signal(kind string, body map[string]any) error {
	p.mu.Lock()
	target := p.remote
	p.mu.Unlock()

	if target != "" {
		return p.session.Client.SendSignal(kind, target, "", body)
	}
	return p.session.Client.SendSignal(kind, "", p.room, body)
}

func (p *Probe) setRemote(id signaling.ConnID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.remote == "" {
		p.remote = id
	}
}

func (p *Probe) attach(dc *webrtc.DataChannel) {
	dc.OnOpen(func() {
		p.log.Debug("probe channel open")
		p.send(dc, FrameHello, Hello{PeerID: p.cfg.PeerID, Version: p.cfg.Version})
		p.send(dc, FramePing, Ping{Seq: 1, SentAt: time.Now().UnixNano()})
	})

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		f, err := DecodeFrame(msg.Data)
		if err != nil {
			p.log.Warn("bad probe frame", "error", err)
			return
		}

		switch f.Type {
		case FrameHello:
			var h Hello
			if err := f.DecodePayload(&h); err != nil {
				p.log.Warn("bad hello", "error", err)
				return
			}
			p.mu.Lock()
			p.hello = &h
			p.mu.Unlock()

		case FramePing:
			var ping Ping
			if err := f.DecodePayload(&ping); err != nil {
				p.log.Warn("bad ping", "error", err)
				return
			}
			p.send(dc, FramePong, ping)
			p.mu.Lock()
			p.ponged = true
			p.mu.Unlock()

		case FramePong:
			var ping Ping
			if err := f.DecodePayload(&ping); err != nil {
				p.log.Warn("bad pong", "error", err)
				return
			}
			p.mu.Lock()
			p.rtt = ping.RTT(time.Now())
			p.measured = true
			p.mu.Unlock()

		default:
			p.log.Debug("unknown probe frame", "type", f.Type)
			return
		}
		p.maybeFinish()
	})
}

func (p *Probe) send(dc *webrtc.DataChannel, t string, payload any) {
	data, err := EncodeFrame(t, payload)
	if err != nil {
		p.fail(fmt.Errorf("encode %s: %w", t, err))
		return
	}
	if err := dc.Send(data); err != nil {
		p.fail(fmt.Errorf("send %s: %w", t, err))
	}
}

// maybeFinish reports once the peer introduced itself, answered our ping
// and got its own ping answered.
func (p *Probe) maybeFinish() {
	p.mu.Lock()
	ready := p.hello != nil && p.measured && p.ponged
	var res Result
	if ready {
		res = Result{
			RemoteConn:    p.remote,
			RemotePeer:    p.hello.PeerID,
			RemoteVersion: p.hello.Version,
			RTT:           p.rtt,
		}
	}
	p.mu.Unlock()

	if ready {
		p.finishOnce.Do(func() { p.done <- res })
	}
}

func (p *Probe) fail(err error) {
	select {
	case p.failed <- err:
	default:
	}
}
