package adcs

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/kit/log/level"
)

func resetLog(t *testing.T) {
	if err := SetLog(LogConfig{Level: "info"}); err != nil {
		t.Fatal(err)
	}
}

func TestLogConsole(t *testing.T) {
	defer resetLog(t)
	// Loggers created before the configuration use it too.
	logger := Logger("test")
	var buf bytes.Buffer
	if err := InitLog(LogConfig{Level: "debug", Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	level.Debug(logger).Log("k", "v")
	out := buf.String()
	if !strings.Contains(out, "level=debug subsys=test k=v") {
		t.Fatalf("unexpected entry: %s", out)
	}
	if !strings.HasPrefix(out, "ts=") {
		t.Fatalf("entry is not timestamped: %s", out)
	}
	// Entries without a level are tagged too.
	buf.Reset()
	logger.Log("message", "no level")
	if !strings.Contains(buf.String(), `subsys=test message="no level"`) {
		t.Fatalf("unexpected entry: %s", buf.String())
	}
	if conf := CurrentLog(); conf.Level != "debug" || conf.Node != 0 {
		t.Fatalf("unexpected configuration: %+v", conf)
	}
}

func TestLogLevel(t *testing.T) {
	defer resetLog(t)
	var buf bytes.Buffer
	if err := SetLog(LogConfig{Level: "warn", Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	logger := Logger("test")
	level.Info(logger).Log("message", "hidden")
	level.Debug(logger).Log("message", "hidden")
	if buf.Len() != 0 {
		t.Fatalf("entries below the level were written: %s", buf.String())
	}
	level.Error(logger).Log("message", "shown")
	if !strings.Contains(buf.String(), "level=error subsys=test message=shown") {
		t.Fatalf("unexpected entry: %s", buf.String())
	}
	if CurrentLog().Level != "warning" {
		t.Fatal("level was not canonicalized")
	}
	// An invalid configuration keeps the previous one.
	if err := SetLog(LogConfig{Level: "verbose"}); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
	if CurrentLog().Level != "warning" {
		t.Fatal("invalid configuration was applied")
	}
	buf.Reset()
	level.Warn(logger).Log("message", "still here")
	if !strings.Contains(buf.String(), "still here") {
		t.Fatal("previous sink was dropped")
	}
}

func TestLogDatagram(t *testing.T) {
	defer resetLog(t)
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()
	if err := SetLog(LogConfig{Level: "info", Node: 3, Address: pc.LocalAddr().String()}); err != nil {
		t.Fatal(err)
	}
	logger := Logger("comm")
	if err := level.Info(logger).Log("message", "short"); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 2048)
	pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(buf[:n]); !strings.HasPrefix(got, "node=3 level=info subsys=comm message=short") {
		t.Fatalf("unexpected datagram: %q", got)
	}

	if err := level.Info(logger).Log("message", strings.Repeat("x", 1000)); err != nil {
		t.Fatal(err)
	}
	pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err = pc.ReadFrom(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != MaxLogDatagram {
		t.Fatalf("datagram of %d bytes, expected it truncated to %d", n, MaxLogDatagram)
	}
}
