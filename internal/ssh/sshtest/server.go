// Package sshtest provides an in-process SSH server for tests. It accepts
// one authorized key and supports direct-tcpip channels as well as
// tcpip-forward requests, the two ways tunnels are carried.
package sshtest

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// Server is a minimal SSH server listening on 127.0.0.1.
type Server struct {
	listener net.Listener
	config   *ssh.ServerConfig

	mu    sync.Mutex
	conns []net.Conn
}

// NewServer starts a server that accepts authorized. It is closed when the
// test ends.
func NewServer(t testing.TB, authorized ssh.PublicKey) *Server {
	t.Helper()

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate host key: %v", err)
	}
	hostSigner, err := ssh.NewSignerFromKey(hostPriv)
	if err != nil {
		t.Fatalf("failed to create host signer: %v", err)
	}

	cfg := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if string(key.Marshal()) == string(authorized.Marshal()) {
				return nil, nil
			}
			return nil, io.EOF
		},
	}
	cfg.AddHostKey(hostSigner)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := &Server{listener: l, config: cfg}
	t.Cleanup(func() {
		l.Close()
		s.CloseConnections()
	})

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.conns = append(s.conns, conn)
			s.mu.Unlock()
			go s.serve(conn)
		}
	}()

	return s
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Port returns the port the server listens on.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// CloseConnections drops every client connection without a clean SSH
// disconnect. Reverse listeners of those connections are closed.
func (s *Server) CloseConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
	s.conns = nil
}

func (s *Server) serve(conn net.Conn) {
	sconn, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		conn.Close()
		return
	}
	go handleGlobal(sconn, reqs)

	for nc := range chans {
		if nc.ChannelType() != "direct-tcpip" {
			nc.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		go handleDirect(nc)
	}
}

func handleDirect(nc ssh.NewChannel) {
	var payload struct {
		Host     string
		Port     uint32
		OrigHost string
		OrigPort uint32
	}
	if err := ssh.Unmarshal(nc.ExtraData(), &payload); err != nil {
		nc.Reject(ssh.ConnectionFailed, "bad payload")
		return
	}
	target, err := net.Dial("tcp", net.JoinHostPort(payload.Host, strconv.Itoa(int(payload.Port))))
	if err != nil {
		nc.Reject(ssh.ConnectionFailed, err.Error())
		return
	}
	ch, chReqs, err := nc.Accept()
	if err != nil {
		target.Close()
		return
	}
	go ssh.DiscardRequests(chReqs)
	splice(ch, target)
}

type forwardRequest struct {
	Addr string
	Port uint32
}

// handleGlobal serves tcpip-forward requests until the connection ends,
// then closes the listeners it opened.
func handleGlobal(sconn *ssh.ServerConn, reqs <-chan *ssh.Request) {
	listeners := make(map[string]net.Listener)
	defer func() {
		for _, l := range listeners {
			l.Close()
		}
	}()

	for req := range reqs {
		switch req.Type {
		case "tcpip-forward":
			var fr forwardRequest
			if err := ssh.Unmarshal(req.Payload, &fr); err != nil {
				req.Reply(false, nil)
				continue
			}
			l, err := net.Listen("tcp", net.JoinHostPort(fr.Addr, strconv.Itoa(int(fr.Port))))
			if err != nil {
				req.Reply(false, nil)
				continue
			}
			fr.Port = uint32(l.Addr().(*net.TCPAddr).Port)
			listeners[net.JoinHostPort(fr.Addr, strconv.Itoa(int(fr.Port)))] = l
			req.Reply(true, ssh.Marshal(struct{ Port uint32 }{fr.Port}))
			go acceptForwarded(sconn, l, fr)

		case "cancel-tcpip-forward":
			var fr forwardRequest
			if err := ssh.Unmarshal(req.Payload, &fr); err != nil {
				req.Reply(false, nil)
				continue
			}
			key := net.JoinHostPort(fr.Addr, strconv.Itoa(int(fr.Port)))
			if l, ok := listeners[key]; ok {
				l.Close()
				delete(listeners, key)
			}
			req.Reply(true, nil)

		default:
			if req.WantReply {
				req.Reply(false, nil)
			}
		}
	}
}

func acceptForwarded(sconn *ssh.ServerConn, l net.Listener, fr forwardRequest) {
	for {
		c, err := l.Accept()
		if err != nil {
			return
		}
		origin := c.RemoteAddr().(*net.TCPAddr)
		payload := struct {
			Addr       string
			Port       uint32
			OriginAddr string
			OriginPort uint32
		}{fr.Addr, fr.Port, origin.IP.String(), uint32(origin.Port)}

		ch, chReqs, err := sconn.OpenChannel("forwarded-tcpip", ssh.Marshal(&payload))
		if err != nil {
			c.Close()
			continue
		}
		go ssh.DiscardRequests(chReqs)
		go splice(ch, c)
	}
}

func splice(ch ssh.Channel, c net.Conn) {
	go func() {
		io.Copy(ch, c)
		ch.CloseWrite()
	}()
	io.Copy(c, ch)
	c.Close()
	ch.Close()
}

// ClientKey writes a fresh ed25519 private key into a temp dir and returns
// its path and public key.
func ClientKey(t testing.TB) (string, ssh.PublicKey) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate client key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "test")
	if err != nil {
		t.Fatalf("failed to marshal client key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		t.Fatalf("failed to write client key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("failed to create client signer: %v", err)
	}
	return path, signer.PublicKey()
}
