// Package config loads settings for the duo server and client.
//
// Each value is resolved with the following priority:
//  1. CLI flags (passed via Options) - highest priority
//  2. Environment variables
//  3. The YAML file named by --config or DUO_CONFIG
//  4. Hardcoded defaults - lowest priority
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Default configuration values
const (
	DefaultPort           = 5000
	DefaultAllowedOrigins = "*"
	DefaultMaxMessageSize = 64 * 1024
	DefaultSendBuffer     = 256
	DefaultServerURL      = "ws://localhost:5000/ws"
	DefaultSTUN           = "stun:stun.l.google.com:19302"
)

// Server holds the relay server configuration.
type Server struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxMessageSize int64    `yaml:"max_message_size"`
	SendBuffer     int      `yaml:"send_buffer"`
}

// Client holds configuration for the duo peer commands.
type Client struct {
	// ServerURL is the websocket endpoint of the relay.
	ServerURL string `yaml:"server"`

	// STUNServer is handed to the WebRTC probe.
	STUNServer string `yaml:"stun_server"`

	// PeerID is the label announced on join. Empty means the server
	// uses the connection id.
	PeerID string `yaml:"peer_id"`
}

// File is the layout of the optional YAML config file.
type File struct {
	Server Server `yaml:"server"`
	Client Client `yaml:"client"`
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// ReadFile parses a YAML config file. An empty path yields an empty File.
func ReadFile(path string) (*File, error) {
	var f File
	if path == "" {
		return &f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &f, nil
}

// ServerOptions carries flag values for the server. Zero values mean
// "not set on the command line".
type ServerOptions struct {
	ConfigPath     string
	Port           int
	AllowedOrigins string
	MaxMessageSize int64
	SendBuffer     int
}

// BindFlags registers the server flags on fs.
func (o *ServerOptions) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigPath, "config", "c", "", "YAML config file")
	fs.IntVarP(&o.Port, "port", "p", 0, "Listening port")
	fs.StringVar(&o.AllowedOrigins, "allowed-origins", "", "Comma-separated allowed origins, * for any")
	fs.Int64Var(&o.MaxMessageSize, "max-message-size", 0, "Largest accepted websocket frame in bytes")
	fs.IntVar(&o.SendBuffer, "send-buffer", 0, "Per-connection outbound queue length")
}

// LoadServer resolves the server configuration.
func LoadServer(opts ServerOptions) (*Server, error) {
	file, err := ReadFile(firstNonEmpty(opts.ConfigPath, os.Getenv("DUO_CONFIG")))
	if err != nil {
		return nil, err
	}
	cfg := file.Server

	// Load port: CLI flag > env > file > default
	port, err := intSetting(opts.Port, "PORT", cfg.Port, DefaultPort)
	if err != nil {
		return nil, err
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrInvalid, port)
	}
	cfg.Port = port

	// Load allowed origins: CLI flag > env > file > default
	origins := firstNonEmpty(opts.AllowedOrigins, os.Getenv("ALLOWED_ORIGINS"))
	switch {
	case origins != "":
		cfg.AllowedOrigins = SplitList(origins)
	case len(cfg.AllowedOrigins) == 0:
		cfg.AllowedOrigins = SplitList(DefaultAllowedOrigins)
	}

	size, err := intSetting(int(opts.MaxMessageSize), "MAX_MESSAGE_SIZE", int(cfg.MaxMessageSize), DefaultMaxMessageSize)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: max message size must be positive", ErrInvalid)
	}
	cfg.MaxMessageSize = int64(size)

	buffer, err := intSetting(opts.SendBuffer, "SEND_BUFFER", cfg.SendBuffer, DefaultSendBuffer)
	if err != nil {
		return nil, err
	}
	if buffer <= 0 {
		return nil, fmt.Errorf("%w: send buffer must be positive", ErrInvalid)
	}
	cfg.SendBuffer = buffer

	return &cfg, nil
}

// Addr returns the listen address for http.Server.
func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// ClientOptions carries flag values for the client commands.
type ClientOptions struct {
	ConfigPath string
	ServerURL  string
	STUNServer string
	PeerID     string
}

// BindFlags registers the client flags on fs.
func (o *ClientOptions) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigPath, "config", "c", "", "YAML config file")
	fs.StringVarP(&o.ServerURL, "server", "s", "", "Relay websocket URL")
	fs.StringVar(&o.STUNServer, "stun", "", "Custom STUN server")
	fs.StringVar(&o.PeerID, "peer-id", "", "Peer label announced to the room")
}

// LoadClient resolves the client configuration.
func LoadClient(opts ClientOptions) (*Client, error) {
	file, err := ReadFile(firstNonEmpty(opts.ConfigPath, os.Getenv("DUO_CONFIG")))
	if err != nil {
		return nil, err
	}
	cfg := file.Client

	cfg.ServerURL = firstNonEmpty(opts.ServerURL, os.Getenv("DUO_SERVER"), cfg.ServerURL, DefaultServerURL)
	cfg.STUNServer = firstNonEmpty(opts.STUNServer, os.Getenv("STUN_SERVER"), cfg.STUNServer, DefaultSTUN)
	cfg.PeerID = firstNonEmpty(opts.PeerID, os.Getenv("DUO_PEER_ID"), cfg.PeerID)

	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("%w: server URL: %v", ErrInvalid, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("%w: server URL must use ws or wss, got %q", ErrInvalid, u.Scheme)
	}

	return &cfg, nil
}

// HealthURL derives the relay's /health endpoint from its websocket URL.
func (c *Client) HealthURL() (string, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "wss":
		u.Scheme = "https"
	default:
		u.Scheme = "http"
	}
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/ws") + "/health"
	u.RawQuery = ""
	return u.String(), nil
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Client) GetSTUNServers() []string {
	if c.STUNServer == "" {
		return nil
	}
	return []string{c.STUNServer}
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// intSetting applies flag > env > file > default for an integer.
func intSetting(flag int, env string, file, def int) (int, error) {
	if flag != 0 {
		return flag, nil
	}
	if raw := os.Getenv(env); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, env, raw)
		}
		return n, nil
	}
	if file != 0 {
		return file, nil
	}
	return def, nil
}
