package remote

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// testServer is an in-process SSH server that answers "scp -f" exec
// requests from an in-memory file map. Other commands are looked up in
// commands.
type testServer struct {
	host, port string
	signer     ssh.Signer // client key accepted by the server
	keyPath    string     // same key in OpenSSH PEM form

	mu       sync.Mutex
	files    map[string][]byte
	commands map[string]func(s *testServer) (string, uint32)
	ran      []string
}

// handle registers fn as the handler of command.
func (s *testServer) handle(command string, fn func(s *testServer) (string, uint32)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commands == nil {
		s.commands = map[string]func(*testServer) (string, uint32){}
	}
	s.commands[command] = fn
}

// put stores a file; handlers call it to simulate server side writes.
func (s *testServer) put(p string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[p] = data
}

// history returns every command the server received, in order.
func (s *testServer) history() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ran...)
}

func newTestServer(t *testing.T, files map[string][]byte) *testServer {
	t.Helper()

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	hostSigner, err := ssh.NewSignerFromKey(hostPriv)
	require.NoError(t, err)

	_, clientPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	clientSigner, err := ssh.NewSignerFromKey(clientPriv)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(clientPriv, "")
	require.NoError(t, err)
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(block), 0600))

	authorized := clientSigner.PublicKey().Marshal()
	cfg := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if bytes.Equal(key.Marshal(), authorized) {
				return nil, nil
			}
			return nil, fmt.Errorf("unknown key")
		},
	}
	cfg.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	if files == nil {
		files = map[string][]byte{}
	}
	s := &testServer{signer: clientSigner, keyPath: keyPath, files: files}
	s.host, s.port, _ = net.SplitHostPort(ln.Addr().String())

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serveConn(conn, cfg)
		}
	}()
	return s
}

func (s *testServer) serveConn(conn net.Conn, cfg *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)
	for nc := range chans {
		if nc.ChannelType() != "session" {
			nc.Reject(ssh.UnknownChannelType, "session only")
			continue
		}
		ch, requests, err := nc.Accept()
		if err != nil {
			continue
		}
		go s.serveSession(ch, requests)
	}
}

func (s *testServer) serveSession(ch ssh.Channel, requests <-chan *ssh.Request) {
	for req := range requests {
		if req.Type != "exec" {
			req.Reply(false, nil)
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			req.Reply(false, nil)
			continue
		}
		req.Reply(true, nil)
		status := s.exec(ch, payload.Command)
		ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
		ch.Close()
		return
	}
}

func (s *testServer) exec(ch ssh.Channel, command string) uint32 {
	s.mu.Lock()
	s.ran = append(s.ran, command)
	fn := s.commands[command]
	s.mu.Unlock()
	if fn != nil {
		out, status := fn(s)
		io.WriteString(ch, out)
		return status
	}

	switch {
	case strings.HasPrefix(command, "scp -f "):
		p := strings.TrimPrefix(command, "scp -f ")
		p = strings.ReplaceAll(strings.Trim(p, "'"), `'\''`, "'")
		return s.scpSource(ch, p)
	case command == "echo ok":
		io.WriteString(ch, "ok\n")
		return 0
	}
	io.WriteString(ch.Stderr(), "unknown command\n")
	return 127
}

func (s *testServer) scpSource(ch ssh.Channel, p string) uint32 {
	buf := make([]byte, 1)
	if _, err := io.ReadFull(ch, buf); err != nil {
		return 1
	}
	s.mu.Lock()
	data, ok := s.files[p]
	s.mu.Unlock()
	if !ok {
		fmt.Fprintf(ch, "\x01scp: %s: No such file or directory\n", p)
		return 1
	}
	fmt.Fprintf(ch, "C0644 %d %s\n", len(data), path.Base(p))
	if _, err := io.ReadFull(ch, buf); err != nil {
		return 1
	}
	ch.Write(data)
	ch.Write([]byte{0})
	if _, err := io.ReadFull(ch, buf); err != nil {
		return 1
	}
	return 0
}
