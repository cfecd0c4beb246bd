// Package display shows playback status on a 16x2 HD44780 LCD.
//
// Messages arrive over a channel so the sequencer never waits on the I2C
// bus:
//
//	messages := make(chan display.Message, 4)
//	go display.NewHandler(&lcd, messages, logger).Run()
//
//	events := make(chan sequencer.Event, 8)
//	go display.Follow(events, messages)
package display

import (
	"io"
	"log/slog"
	"strconv"

	"github.com/harveysanders/soundcard/sequencer"
)

// Device is the part of hd44780i2c.Device used here.
type Device interface {
	ClearDisplay()
	SetCursor(col, row uint8)
	Print(data []byte)
}

// Message represents a two-line LCD message.
type Message struct {
	Line1 []byte
	Line2 []byte
}

// Handler processes LCD messages from a channel.
type Handler struct {
	device   Device
	messages <-chan Message
	logger   *slog.Logger
	columns  int
}

// NewHandler creates a new 16x2 LCD message handler.
func NewHandler(device Device, messages <-chan Message, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		device:   device,
		messages: messages,
		logger:   logger,
		columns:  16,
	}
}

// Run processes messages until the channel is closed.
// Run should be called in a separate goroutine.
func (h *Handler) Run() {
	for msg := range h.messages {
		h.display(msg)
	}
	h.logger.Debug("lcd:stopped")
}

func (h *Handler) display(msg Message) {
	h.device.ClearDisplay()
	h.device.SetCursor(0, 0)
	h.device.Print(h.clip(msg.Line1))
	h.device.SetCursor(0, 1)
	h.device.Print(h.clip(msg.Line2))
}

// clip truncates in place, no allocation.
func (h *Handler) clip(line []byte) []byte {
	if len(line) > h.columns {
		return line[:h.columns]
	}
	return line
}

// Send queues a message without blocking. It reports false if the
// message was dropped because the channel is full.
func Send(ch chan<- Message, line1, line2 string) bool {
	select {
	case ch <- Message{Line1: []byte(line1), Line2: []byte(line2)}:
		return true
	default:
		return false
	}
}

// FromEvent renders a sequencer event as an LCD message.
func FromEvent(ev sequencer.Event) Message {
	buf := make([]byte, 0, 32)
	switch ev.Kind {
	case sequencer.Started:
		buf = append(buf, "Playing #"...)
		buf = strconv.AppendInt(buf, int64(ev.Cycle), 10)
		return Message{Line1: buf, Line2: []byte("0/" + strconv.Itoa(ev.Total))}
	case sequencer.Finished:
		buf = append(buf, "Done #"...)
		buf = strconv.AppendInt(buf, int64(ev.Cycle), 10)
		return Message{Line1: buf, Line2: []byte("Press to play")}
	}
	buf = append(buf, "Note "...)
	buf = strconv.AppendInt(buf, int64(ev.Index+1), 10)
	buf = append(buf, '/')
	buf = strconv.AppendInt(buf, int64(ev.Total), 10)
	return Message{Line1: buf, Line2: []byte(ev.Note.String())}
}

// Follow turns sequencer events into messages until events is closed.
// Messages the LCD can't keep up with are dropped.
func Follow(events <-chan sequencer.Event, messages chan<- Message) {
	for ev := range events {
		select {
		case messages <- FromEvent(ev):
		default:
		}
	}
}

// Idle returns the message shown while waiting for the button.
func Idle(song string) Message {
	return Message{Line1: []byte(song), Line2: []byte("Press to play")}
}
