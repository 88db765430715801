package main

import (
	"encoding/json"
	"net"
	"net/http"

	adcs "github.com/RSecxxx/SUCHAI-Flight-Software"
	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/websocket"
)

const (
	socketBufferSize  = 1024
	messageBufferSize = 10
)

var upgrader = &websocket.Upgrader{ReadBufferSize: socketBufferSize, WriteBufferSize: socketBufferSize}

// frame is the telemetry message of one estimate.
type frame struct {
	Time      string     `json:"time"`
	Attitude  [4]float64 `json:"q"`
	Euler     [3]float64 `json:"ypr"`
	Bias      [3]float64 `json:"wb"`
	Sigma     [3]float64 `json:"sigma"`
	Residual  [3]float64 `json:"residual"`
	Corrected bool       `json:"corrected"`
	Skipped   uint64     `json:"skipped"`
}

func newFrame(est adcs.Estimate) frame {
	yaw, pitch, roll := est.Attitude.Euler321()
	return frame{
		Time:      est.DT.UTC().Format("2006-01-02T15:04:05.000"),
		Attitude:  est.Attitude,
		Euler:     [3]float64{adcs.Rad2deg180(yaw), adcs.Rad2deg180(pitch), adcs.Rad2deg180(roll)},
		Bias:      est.Bias,
		Sigma:     est.AttitudeSigma(),
		Residual:  est.Residual,
		Corrected: est.Corrected,
		Skipped:   est.Skipped,
	}
}

type client struct {
	socket *websocket.Conn
	send   chan []byte
	room   *room
}

// read discards the incoming messages until the client leaves.
func (c *client) read() {
	defer c.socket.Close()
	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) write() {
	defer c.socket.Close()
	for msg := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// room broadcasts the estimates to every connected websocket client.
type room struct {
	forward chan []byte
	join    chan *client
	leave   chan *client
	clients map[*client]bool
	done    chan struct{}
	logger  kitlog.Logger
}

func newRoom() *room {
	return &room{
		forward: make(chan []byte),
		join:    make(chan *client),
		leave:   make(chan *client),
		clients: make(map[*client]bool),
		done:    make(chan struct{}),
		logger:  adcs.Logger("telemetry"),
	}
}

func (r *room) run() {
	for {
		select {
		case c := <-r.join:
			r.clients[c] = true
			level.Info(r.logger).Log("message", "client joined", "clients", len(r.clients))
		case c := <-r.leave:
			delete(r.clients, c)
			close(c.send)
			level.Info(r.logger).Log("message", "client left", "clients", len(r.clients))
		case msg := <-r.forward:
			for c := range r.clients {
				select {
				case c.send <- msg:
				default:
					level.Debug(r.logger).Log("message", "client too slow, frame dropped")
				}
			}
		case <-r.done:
			for c := range r.clients {
				close(c.send)
			}
			return
		}
	}
}

// broadcast sends the estimate to all clients, dropping it if the room is closed.
func (r *room) broadcast(est adcs.Estimate) {
	msg, err := json.Marshal(newFrame(est))
	if err != nil {
		level.Error(r.logger).Log("message", "could not marshal frame", "err", err)
		return
	}
	select {
	case r.forward <- msg:
	case <-r.done:
	}
}

func (r *room) close() {
	close(r.done)
}

func (r *room) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	socket, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		level.Error(r.logger).Log("message", "upgrade failed", "err", err)
		return
	}
	c := &client{socket: socket, send: make(chan []byte, messageBufferSize), room: r}
	select {
	case r.join <- c:
	case <-r.done:
		socket.Close()
		return
	}
	defer func() {
		select {
		case r.leave <- c:
		case <-r.done:
		}
	}()
	go c.write()
	c.read()
}

// startTelemetry listens on addr and serves the room on /telemetry.
func startTelemetry(addr string) (*room, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	r := newRoom()
	mux := http.NewServeMux()
	mux.Handle("/telemetry", r)
	srv := &http.Server{Handler: mux}
	go r.run()
	go func() {
		<-r.done
		srv.Close()
	}()
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			level.Error(r.logger).Log("message", "telemetry server stopped", "err", err)
		}
	}()
	level.Info(r.logger).Log("message", "listening", "addr", ln.Addr())
	return r, nil
}
