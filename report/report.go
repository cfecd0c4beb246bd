// Package report publishes playback events to an MQTT broker.
//
// The reporter is transport agnostic: on the Pico W it runs over an lneto
// TCP connection, on a host over a net.Conn. Events come from the
// sequencer through a buffered channel, so a slow or missing broker never
// delays a note.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/harveysanders/soundcard/sequencer"
	"github.com/harveysanders/soundcard/tune"
	mqtt "github.com/soypat/natiu-mqtt"
)

var pubFlags, _ = mqtt.NewPublishFlags(mqtt.QoS0, false, false)

// Dialer opens a fresh transport to the broker.
type Dialer func() (io.ReadWriteCloser, error)

type deadliner interface {
	SetDeadline(t time.Time) error
}

// Config configures a Reporter.
type Config struct {
	ClientID string
	Username string // optional
	Password string // optional, requires Username
	// Topic events are published to. Defaults to "soundcard/events".
	Topic             string
	Timeout           time.Duration
	HeartbeatInterval time.Duration
	// RetryDelay is waited after a failed dial or connect.
	RetryDelay time.Duration
	// ConnectPolls bounds how many times the CONNACK is polled for, with
	// PollInterval in between.
	ConnectPolls int
	PollInterval time.Duration
	Logger       *slog.Logger
}

func (c *Config) setDefaults() {
	if c.ClientID == "" {
		c.ClientID = "soundcard"
	}
	if c.Topic == "" {
		c.Topic = "soundcard/events"
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.ConnectPolls == 0 {
		c.ConnectPolls = 50
	}
	if c.PollInterval == 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
}

// Reporter owns one MQTT client session at a time.
type Reporter struct {
	cfg     Config
	client  *mqtt.Client
	varconn mqtt.VariablesConnect
	pubVar  mqtt.VariablesPublish
	conn    io.ReadWriteCloser
	packet  uint16
}

// New returns a disconnected Reporter.
func New(cfg Config) *Reporter {
	cfg.setDefaults()
	r := &Reporter{
		cfg: cfg,
		pubVar: mqtt.VariablesPublish{
			TopicName: []byte(cfg.Topic),
		},
	}
	r.varconn.SetDefaultMQTT([]byte(cfg.ClientID))
	if cfg.Username != "" {
		r.varconn.Username = []byte(cfg.Username)
		if cfg.Password != "" {
			r.varconn.Password = []byte(cfg.Password)
		}
	}
	r.client = mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1024)},
		OnPub: func(pubHead mqtt.Header, varPub mqtt.VariablesPublish, rd io.Reader) error {
			r.cfg.Logger.Info("mqtt:received", slog.String("topic", string(varPub.TopicName)))
			return nil
		},
	})
	return r
}

// Connect starts an MQTT session over conn and waits for the broker to
// accept it.
func (r *Reporter) Connect(conn io.ReadWriteCloser) error {
	r.conn = conn
	r.setDeadline()
	if err := r.client.StartConnect(conn, &r.varconn); err != nil {
		return errors.New("mqtt start connect:" + err.Error())
	}
	for i := 0; i < r.cfg.ConnectPolls && !r.client.IsConnected(); i++ {
		time.Sleep(r.cfg.PollInterval)
		if err := r.client.HandleNext(); err != nil {
			r.cfg.Logger.Error("mqtt:handle-next-failed", slog.String("err", err.Error()))
		}
	}
	if !r.client.IsConnected() {
		return errors.New("mqtt connect timed out")
	}
	r.cfg.Logger.Info("mqtt:connected", slog.String("client", r.cfg.ClientID))
	return nil
}

// Connected reports whether the session is up.
func (r *Reporter) Connected() bool { return r.client.IsConnected() }

// Publish sends ev as JSON on the configured topic.
func (r *Reporter) Publish(ev sequencer.Event) error {
	payload, err := Payload(ev)
	if err != nil {
		return err
	}
	r.setDeadline()
	r.packet++
	r.pubVar.PacketIdentifier = r.packet
	if err := r.client.PublishPayload(pubFlags, r.pubVar, payload); err != nil {
		return errors.New("mqtt publish:" + err.Error())
	}
	return nil
}

// Ping keeps the session alive by handling the next broker packet.
func (r *Reporter) Ping() error {
	r.setDeadline()
	return r.client.HandleNext()
}

// Run dials, connects and publishes events until ctx is done or events
// is closed, reconnecting whenever the session drops.
func (r *Reporter) Run(ctx context.Context, dial Dialer, events <-chan sequencer.Event) error {
	log := r.cfg.Logger
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := dial()
		if err != nil {
			log.Error("mqtt:dial-failed", slog.String("err", err.Error()))
			if !sleep(ctx, r.cfg.RetryDelay) {
				return ctx.Err()
			}
			continue
		}
		if err := r.Connect(conn); err != nil {
			log.Error("mqtt:connect-failed", slog.String("err", err.Error()))
			conn.Close()
			if !sleep(ctx, r.cfg.RetryDelay) {
				return ctx.Err()
			}
			continue
		}
		done, err := r.pump(ctx, events)
		conn.Close()
		if done {
			return err
		}
		log.Error("mqtt:disconnected", slog.Any("reason", r.client.Err()))
	}
}

// pump publishes until the session drops (false) or Run must return (true).
func (r *Reporter) pump(ctx context.Context, events <-chan sequencer.Event) (bool, error) {
	heartbeat := time.NewTicker(r.cfg.HeartbeatInterval)
	defer heartbeat.Stop()
	for r.client.IsConnected() {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return true, nil
			}
			if err := r.Publish(ev); err != nil {
				r.cfg.Logger.Error("mqtt:publish-failed", slog.Any("reason", err))
				continue
			}
			r.cfg.Logger.Debug("mqtt:published",
				slog.String("kind", ev.Kind.String()),
				slog.Uint64("packetID", uint64(r.packet)),
			)
		case <-heartbeat.C:
			if err := r.Ping(); err != nil {
				r.cfg.Logger.Error("mqtt:handle-next-failed", slog.String("err", err.Error()))
			}
		}
	}
	return false, nil
}

func (r *Reporter) setDeadline() {
	if d, ok := r.conn.(deadliner); ok {
		d.SetDeadline(time.Now().Add(r.cfg.Timeout))
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// eventPayload is the JSON body of a published event.
type eventPayload struct {
	Kind     string  `json:"kind"`
	Cycle    int     `json:"cycle"`
	Index    int     `json:"index"`
	Total    int     `json:"total"`
	Note     string  `json:"note,omitempty"`
	Hz       float64 `json:"hz,omitempty"`
	Ms       uint32  `json:"ms,omitempty"`
	Rest     bool    `json:"rest,omitempty"`
	Period   uint32  `json:"period,omitempty"`
	Duty     uint32  `json:"duty,omitempty"`
	Overflow bool    `json:"overflow,omitempty"`
	LED      bool    `json:"led,omitempty"`
}

// Payload encodes ev as published on the wire.
func Payload(ev sequencer.Event) ([]byte, error) {
	p := eventPayload{
		Kind:  ev.Kind.String(),
		Cycle: ev.Cycle,
		Index: ev.Index,
		Total: ev.Total,
	}
	if ev.Kind == sequencer.NotePlayed {
		p.Ms = ev.Note.Ms
		p.LED = ev.LED
		p.Rest = ev.Note.IsRest()
		if !p.Rest {
			p.Note = tune.NameOf(ev.Note.Pitch)
			p.Hz = float64(ev.Note.Pitch)
		}
		p.Period, p.Duty = ev.Settings.Registers()
		p.Overflow = ev.Settings.Overflows()
	}
	out, err := json.Marshal(p)
	if err != nil {
		return nil, errors.New("encode event:" + err.Error())
	}
	return out, nil
}
