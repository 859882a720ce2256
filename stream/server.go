// Package stream broadcasts per-tick particle snapshots to websocket
// clients as compact binary frames.
package stream

import (
	"encoding/binary"
	"log/slog"
	"math"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/slurry/sim"
)

// Frame layout, little-endian:
//
//	int32  tick
//	int32  particle count
//	then per particle: pos xyz float32, vel xyz float32, density float32,
//	material uint8
const particleStride = 3*4 + 3*4 + 4 + 1

// Server accepts websocket clients and pushes snapshot frames to them.
// Slow or dead clients are dropped rather than back-pressuring the sim
// loop.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	httpSrv  *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex

	buf []byte
}

// NewServer creates a server bound to addr (e.g. ":8723").
func NewServer(addr string) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1 << 16,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Start begins listening in a background goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.httpSrv = &http.Server{Addr: s.addr, Handler: mux}

	go func() {
		slog.Info("stream listening", "addr", s.addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("stream server failed", "error", err)
		}
	}()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = &sync.Mutex{}
	n := len(s.clients)
	s.mu.Unlock()
	slog.Info("stream client connected", "remote", conn.RemoteAddr().String(), "clients", n)

	// Reader loop exists only to notice disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		conn.Close()
	}
	n := len(s.clients)
	s.mu.Unlock()
	slog.Info("stream client disconnected", "clients", n)
}

// HasClients reports whether anyone is listening; callers can skip
// snapshot copies when nobody is.
func (s *Server) HasClients() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients) > 0
}

// Broadcast encodes the snapshot once and sends it to every client.
func (s *Server) Broadcast(snap *sim.Snapshot) {
	s.mu.Lock()
	if len(s.clients) == 0 {
		s.mu.Unlock()
		return
	}
	conns := make([]*websocket.Conn, 0, len(s.clients))
	locks := make([]*sync.Mutex, 0, len(s.clients))
	for c, l := range s.clients {
		conns = append(conns, c)
		locks = append(locks, l)
	}
	s.mu.Unlock()

	frame := s.encode(snap)
	for i, conn := range conns {
		locks[i].Lock()
		err := conn.WriteMessage(websocket.BinaryMessage, frame)
		locks[i].Unlock()
		if err != nil {
			s.drop(conn)
		}
	}
}

func (s *Server) encode(snap *sim.Snapshot) []byte {
	n := len(snap.Pos)
	need := 8 + n*particleStride
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	binary.LittleEndian.PutUint32(buf[0:], uint32(snap.Tick))
	binary.LittleEndian.PutUint32(buf[4:], uint32(n))
	off := 8
	for i := 0; i < n; i++ {
		p := snap.Pos[i]
		v := snap.Vel[i]
		binary.LittleEndian.PutUint32(buf[off+0:], floatBits(p[0]))
		binary.LittleEndian.PutUint32(buf[off+4:], floatBits(p[1]))
		binary.LittleEndian.PutUint32(buf[off+8:], floatBits(p[2]))
		binary.LittleEndian.PutUint32(buf[off+12:], floatBits(v[0]))
		binary.LittleEndian.PutUint32(buf[off+16:], floatBits(v[1]))
		binary.LittleEndian.PutUint32(buf[off+20:], floatBits(v[2]))
		binary.LittleEndian.PutUint32(buf[off+24:], floatBits(snap.Density[i]))
		buf[off+28] = byte(snap.Material[i])
		off += particleStride
	}
	return buf
}

func floatBits(f float32) uint32 {
	return math.Float32bits(f)
}

// Close disconnects all clients and stops the listener.
func (s *Server) Close() {
	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]*sync.Mutex)
	s.mu.Unlock()

	if s.httpSrv != nil {
		s.httpSrv.Close()
	}
}
