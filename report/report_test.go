package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harveysanders/soundcard/sequencer"
	"github.com/harveysanders/soundcard/tone"
	"github.com/harveysanders/soundcard/tune"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentBroker accepts writes and never answers.
type silentBroker struct {
	written bytes.Buffer
	closed  bool
}

func (b *silentBroker) Read(p []byte) (int, error)  { return 0, io.EOF }
func (b *silentBroker) Write(p []byte) (int, error) { return b.written.Write(p) }
func (b *silentBroker) Close() error {
	b.closed = true
	return nil
}

func TestPayloadNote(t *testing.T) {
	g := tone.MustNew(tone.Default)
	ev := sequencer.Event{
		Kind:     sequencer.NotePlayed,
		Cycle:    1,
		Index:    3,
		Total:    29,
		Note:     tune.Note{Pitch: tune.D6, Ms: 500},
		Settings: g.Compute(tune.D6),
		LED:      true,
	}

	out, err := Payload(ev)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "note", got["kind"])
	assert.Equal(t, "D6", got["note"])
	assert.Equal(t, float64(500), got["ms"])
	assert.Equal(t, float64(212), got["period"])
	assert.Equal(t, true, got["led"])
	assert.NotContains(t, got, "rest")
}

func TestPayloadRestAndOverflow(t *testing.T) {
	g := tone.MustNew(tone.Default)
	out, err := Payload(sequencer.Event{
		Kind:     sequencer.NotePlayed,
		Note:     tune.Note{Pitch: tune.G4, Ms: 10},
		Settings: g.Compute(tune.G4),
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"overflow":true`)

	out, err = Payload(sequencer.Event{Kind: sequencer.NotePlayed, Note: tune.Note{Pitch: tune.Rest, Ms: 1}, Settings: g.Silence()})
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, true, got["rest"])
	assert.Equal(t, "note", got["kind"])
	assert.NotContains(t, got, "note")
	assert.NotContains(t, got, "hz")
}

func TestPayloadLifecycle(t *testing.T) {
	out, err := Payload(sequencer.Event{Kind: sequencer.Finished, Cycle: 2, Index: 29, Total: 29})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"finished","cycle":2,"index":29,"total":29}`, string(out))
}

func TestConnectWithoutAck(t *testing.T) {
	broker := &silentBroker{}
	r := New(Config{ClientID: "test", ConnectPolls: 2, PollInterval: time.Millisecond})

	err := r.Connect(broker)

	assert.Error(t, err)
	assert.False(t, r.Connected())
	require.NotZero(t, broker.written.Len())
	assert.Equal(t, byte(0x10), broker.written.Bytes()[0], "CONNECT packet")
}

func TestRunRetriesDial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var dials atomic.Int32
	dial := func() (io.ReadWriteCloser, error) {
		if dials.Add(1) == 3 {
			cancel()
		}
		return nil, errors.New("no route")
	}
	r := New(Config{RetryDelay: time.Millisecond})

	err := r.Run(ctx, dial, make(chan sequencer.Event))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(3), dials.Load())
}

func TestRunClosesFailedConn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	broker := &silentBroker{}
	dial := func() (io.ReadWriteCloser, error) {
		cancel()
		return broker, nil
	}
	r := New(Config{RetryDelay: time.Millisecond, ConnectPolls: 1, PollInterval: time.Millisecond})

	err := r.Run(ctx, dial, make(chan sequencer.Event))

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, broker.closed)
}

// ackBroker answers the CONNECT with a CONNACK, then reads EOF.
type ackBroker struct {
	silentBroker
	replies *bytes.Reader
}

func newAckBroker() *ackBroker {
	return &ackBroker{replies: bytes.NewReader([]byte{0x20, 0x02, 0x00, 0x00})}
}

func (b *ackBroker) Read(p []byte) (int, error) { return b.replies.Read(p) }

// packets splits the written stream into MQTT packets.
func packets(t *testing.T, raw []byte) [][]byte {
	t.Helper()
	var out [][]byte
	for len(raw) > 0 {
		// Remaining length is a base-128 varint after the type byte.
		length, mult, i := 0, 1, 1
		for {
			require.Less(t, i, len(raw))
			length += int(raw[i]&0x7f) * mult
			mult *= 128
			i++
			if raw[i-1]&0x80 == 0 {
				break
			}
		}
		n := i + length
		require.GreaterOrEqual(t, len(raw), n)
		out = append(out, raw[:n])
		raw = raw[n:]
	}
	return out
}

func TestConnectAndPublish(t *testing.T) {
	broker := newAckBroker()
	r := New(Config{ClientID: "test", Topic: "card/events", ConnectPolls: 5, PollInterval: time.Millisecond})

	require.NoError(t, r.Connect(broker))
	require.True(t, r.Connected())

	ev := sequencer.Event{Kind: sequencer.Started, Cycle: 1, Index: -1, Total: 29}
	require.NoError(t, r.Publish(ev))

	pkts := packets(t, broker.written.Bytes())
	require.Len(t, pkts, 2)
	assert.Equal(t, byte(0x10), pkts[0][0], "CONNECT")
	assert.Equal(t, byte(0x30), pkts[1][0], "PUBLISH QoS0")
	want, err := Payload(ev)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(pkts[1], want), "payload ends the PUBLISH packet")
	assert.True(t, bytes.Contains(pkts[1], []byte("card/events")))
}

func TestRunPublishesUntilEventsClosed(t *testing.T) {
	broker := newAckBroker()
	dials := 0
	dial := func() (io.ReadWriteCloser, error) {
		dials++
		return broker, nil
	}
	r := New(Config{
		ConnectPolls:      5,
		PollInterval:      time.Millisecond,
		HeartbeatInterval: time.Hour,
	})
	events := make(chan sequencer.Event, 3)
	events <- sequencer.Event{Kind: sequencer.Started, Cycle: 1, Index: -1, Total: 1}
	events <- sequencer.Event{Kind: sequencer.NotePlayed, Cycle: 1, Total: 1, Note: tune.Note{Pitch: tune.C6, Ms: 10}}
	events <- sequencer.Event{Kind: sequencer.Finished, Cycle: 1, Index: 1, Total: 1}
	close(events)

	err := r.Run(context.Background(), dial, events)

	require.NoError(t, err)
	assert.Equal(t, 1, dials)
	assert.True(t, broker.closed)

	pkts := packets(t, broker.written.Bytes())
	require.Len(t, pkts, 4)
	for _, p := range pkts[1:] {
		assert.Equal(t, byte(0x30), p[0])
	}
	assert.True(t, bytes.Contains(pkts[3], []byte(`"kind":"finished"`)))
}
