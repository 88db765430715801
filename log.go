package adcs

import (
	"io"
	"net"
	"os"
	"sync"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// MaxLogDatagram is the largest payload of a remote log entry, longer entries are truncated.
const MaxLogDatagram = 256

// LogConfig selects the level and the sink of the process logger. Node 0 logs to the console
// (Writer, or stdout if nil); a positive Node sends each entry as one UDP datagram to Address.
type LogConfig struct {
	Level   string
	Node    int
	Address string
	Writer  io.Writer
}

// logState is the process wide logging configuration. InitLog must be called before the
// other tasks start; until then entries go to stdout at the info level.
var logState = struct {
	sync.Mutex
	conf   LogConfig
	logger kitlog.Logger
	closer io.Closer
}{
	conf:   LogConfig{Level: "info"},
	logger: level.NewFilter(consoleLogger(os.Stdout), level.AllowInfo()),
}

// InitLog configures the process logger.
func InitLog(conf LogConfig) error {
	return SetLog(conf)
}

// SetLog changes the level, the node and therefore the sink of the process logger. On error the
// previous configuration is kept.
func SetLog(conf LogConfig) error {
	lvl, err := ParseLevel(conf.Level)
	if err != nil {
		return err
	}
	var sink kitlog.Logger
	var closer io.Closer
	if conf.Node > 0 {
		conn, err := net.Dial("udp", conf.Address)
		if err != nil {
			return err
		}
		sink = kitlog.NewLogfmtLogger(&datagramWriter{conn: conn})
		sink = kitlog.With(sink, "node", conf.Node)
		closer = conn
	} else {
		w := conf.Writer
		if w == nil {
			w = os.Stdout
		}
		sink = consoleLogger(w)
	}

	logState.Lock()
	defer logState.Unlock()
	if logState.closer != nil {
		logState.closer.Close()
	}
	conf.Level = lvl
	logState.conf = conf
	logState.logger = level.NewFilter(sink, levelOption(lvl))
	logState.closer = closer
	return nil
}

// CurrentLog returns the active logging configuration.
func CurrentLog() LogConfig {
	logState.Lock()
	defer logState.Unlock()
	return logState.conf
}

// Logger returns a logger which tags every entry with the subsystem name. The sink is looked up
// on each entry, so a later SetLog applies to loggers created before it.
func Logger(subsys string) kitlog.Logger {
	return subsysLogger(subsys)
}

type subsysLogger string

func (s subsysLogger) Log(keyvals ...interface{}) error {
	kv := make([]interface{}, 0, len(keyvals)+2)
	if len(keyvals) >= 2 && keyvals[0] == level.Key() {
		kv = append(kv, keyvals[:2]...)
		keyvals = keyvals[2:]
	}
	kv = append(kv, "subsys", string(s))
	kv = append(kv, keyvals...)

	logState.Lock()
	defer logState.Unlock()
	return logState.logger.Log(kv...)
}

func consoleLogger(w io.Writer) kitlog.Logger {
	return kitlog.With(kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w)), "ts", kitlog.DefaultTimestampUTC)
}

func levelOption(lvl string) level.Option {
	switch lvl {
	case "debug":
		return level.AllowDebug()
	case "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	case "none":
		return level.AllowNone()
	default:
		return level.AllowInfo()
	}
}

// datagramWriter sends every write as a single datagram of at most MaxLogDatagram bytes.
type datagramWriter struct {
	conn net.Conn
}

func (w *datagramWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n > MaxLogDatagram {
		p = p[:MaxLogDatagram]
	}
	if _, err := w.conn.Write(p); err != nil {
		return 0, err
	}
	return n, nil
}
