//go:build tinygo

// Package netlink brings up WiFi on a Pico W (CYW43439) and gives the
// reporter a TCP connection to the MQTT broker over the lneto stack.
//
// WiFi credentials and the broker address are linked in:
//
//	tinygo flash -target=pico-w -ldflags="-X github.com/harveysanders/soundcard/netlink.ssid=home -X github.com/harveysanders/soundcard/netlink.pass=secret -X github.com/harveysanders/soundcard/netlink.broker=10.0.0.9:1883" ./soundcard
//
// An optional netlink.addr (e.g. 10.0.0.42) is requested from DHCP and used
// as a static address if DHCP does not complete.
package netlink

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/lneto/tcp"
	"github.com/soypat/lneto/x/xnet"
)

const (
	mtu      = cyw43439.MTU
	pollTime = 5 * time.Millisecond
)

var (
	ssid   string
	pass   string
	broker string
)

// Enabled reports whether an SSID was linked into the firmware.
func Enabled() bool { return ssid != "" }

// Broker returns the linked MQTT broker address (host:port).
func Broker() string { return broker }

// Link is a joined WiFi interface with a running packet pump.
type Link struct {
	s       xnet.StackAsync
	dev     *cyw43439.Device
	log     *slog.Logger
	sendbuf []byte
	tcpBuf  int
}

// Up initializes the radio, joins the linked network, runs DHCP and
// starts the packet pump goroutine.
func Up(hostname string, logger *slog.Logger) (*Link, error) {
	if !Enabled() {
		return nil, errors.New("netlink: no ssid linked in")
	}
	start := time.Now()
	dev := cyw43439.NewPicoWDevice()
	dev.SetLogger(logger)
	if err := dev.Init(cyw43439.DefaultWifiConfig()); err != nil {
		return nil, errors.New("wifi init failed:" + err.Error())
	}
	logger.Info("wifi:init", slog.Duration("duration", time.Since(start)))

	for {
		err := dev.JoinWPA2(ssid, pass)
		if err == nil {
			break
		}
		logger.Error("wifi:join-failed", slog.String("ssid", ssid), slog.String("err", err.Error()))
		time.Sleep(5 * time.Second)
	}
	mac, err := dev.HardwareAddr6()
	if err != nil {
		return nil, errors.New("get hardware address:" + err.Error())
	}
	logger.Info("wifi:joined", slog.String("mac", net.HardwareAddr(mac[:]).String()))

	l := &Link{dev: dev, log: logger, sendbuf: make([]byte, mtu), tcpBuf: 2030}
	err = l.s.Reset(xnet.StackConfig{
		Hostname:        hostname,
		MaxTCPConns:     1,
		RandSeed:        time.Since(start).Nanoseconds(),
		HardwareAddress: mac,
		MTU:             mtu,
	})
	if err != nil {
		return nil, errors.New("stack reset:" + err.Error())
	}
	dev.RecvEthHandle(func(pkt []byte) error {
		return l.s.Demux(pkt, 0)
	})
	go l.pump()

	if err := l.dhcp(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Link) dhcp() error {
	requested, err := parseRequested(addr)
	if err != nil {
		return err
	}
	rstack := l.s.StackRetrying(50 * time.Millisecond)
	l.log.Info("dhcp:starting", slog.String("requested", requested.String()))
	results, err := rstack.DoDHCPv4(requested.As4(), 3*time.Second, 3)
	if err != nil {
		if staticFallback(requested) {
			l.log.Info("dhcp:incomplete, assigning static IP", slog.String("ip", requested.String()))
			l.s.SetIPAddr(requested)
			return nil
		}
		return errors.New("dhcp failed:" + err.Error())
	}
	if err := l.s.AssimilateDHCPResults(results); err != nil {
		return errors.New("assimilate dhcp:" + err.Error())
	}
	gw, err := rstack.DoResolveHardwareAddress6(results.Router, 500*time.Millisecond, 4)
	if err != nil {
		return errors.New("resolve gateway:" + err.Error())
	}
	l.s.SetGateway6(gw)
	l.log.Info("dhcp:complete", slog.String("ip", results.AssignedAddr.String()))
	return nil
}

// pump moves packets between the radio and the stack forever.
func (l *Link) pump() {
	for {
		if _, err := l.dev.PollOne(); err != nil {
			l.log.Error("netlink:poll", slog.String("err", err.Error()))
		}
		n, err := l.s.Encapsulate(l.sendbuf, -1, 0)
		if err != nil {
			l.log.Error("netlink:encapsulate", slog.String("err", err.Error()))
		}
		if n > 0 {
			if err := l.dev.SendEth(l.sendbuf[:n]); err != nil {
				l.log.Error("netlink:send", slog.Int("plen", n), slog.String("err", err.Error()))
			}
			continue
		}
		time.Sleep(pollTime)
	}
}

// Dial resolves addr (host:port) and opens a TCP connection to it. It
// matches report.Dialer once bound to an address.
func (l *Link) Dial(addr string) (io.ReadWriteCloser, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, errors.New("parse broker address:" + err.Error())
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, errors.New("parse broker port:" + err.Error())
	}
	rstack := l.s.StackRetrying(pollTime)
	ip, err := netip.ParseAddr(host)
	if err != nil {
		addrs, err := rstack.DoLookupIP(host, 5*time.Second, 3)
		if err != nil {
			return nil, errors.New("dns lookup for " + host + ":" + err.Error())
		}
		if len(addrs) == 0 {
			return nil, errors.New("dns lookup for " + host + ": no addresses returned")
		}
		ip = addrs[0]
	}

	conn := new(tcp.Conn)
	err = conn.Configure(tcp.ConnConfig{
		RxBuf:             make([]byte, l.tcpBuf),
		TxBuf:             make([]byte, l.tcpBuf),
		TxPacketQueueSize: 3,
	})
	if err != nil {
		return nil, errors.New("tcp configure:" + err.Error())
	}
	localPort := uint16(l.s.Prand32()>>17) + 1024
	err = rstack.DoDialTCP(conn, localPort, netip.AddrPortFrom(ip, uint16(port)), 10*time.Second, 3)
	if err != nil {
		conn.Abort()
		return nil, errors.New("tcp dial:" + err.Error())
	}
	l.log.Info("tcp:connected", slog.String("addr", addr))
	return conn, nil
}
