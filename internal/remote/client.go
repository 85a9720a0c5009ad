package remote

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

var ErrNotConnected = errors.New("ssh client not connected")

// SSHClient represents an SSH client connection
type SSHClient struct {
	mu     sync.Mutex
	client *ssh.Client
	config *ssh.ClientConfig
	host   string
	port   string
}

// NewSSHClient creates a new SSH client authenticating with the private key
// at privateKeyPath.
func NewSSHClient(username, privateKeyPath, host, port string) (*SSHClient, error) {
	key, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read private key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key: %w", err)
	}
	return NewSSHClientWithSigner(username, signer, host, port), nil
}

// NewSSHClientWithSigner is NewSSHClient for an already parsed key.
func NewSSHClientWithSigner(username string, signer ssh.Signer, host, port string) *SSHClient {
	if port == "" {
		port = "22"
	}
	return &SSHClient{
		config: &ssh.ClientConfig{
			User:            username,
			Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
			HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TODO: verify against ~/.ssh/known_hosts via x/crypto/ssh/knownhosts
			Timeout:         15 * time.Second,
		},
		host: host,
		port: port,
	}
}

// Connect establishes the SSH connection. Cancelling ctx aborts the dial
// and closes an established connection.
func (c *SSHClient) Connect(ctx context.Context) error {
	addr := net.JoinHostPort(c.host, c.port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, c.config)
	if err != nil {
		conn.Close()
		return fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			client.Close()
		case <-closed(client):
		}
	}()
	return nil
}

func closed(client *ssh.Client) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		_ = client.Wait()
		close(ch)
	}()
	return ch
}

// Close closes the SSH connection
func (c *SSHClient) Close() error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()
	if client != nil {
		return client.Close()
	}
	return nil
}

func (c *SSHClient) session() (*ssh.Session, error) {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return nil, ErrNotConnected
	}
	s, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// RunCommandWithOutput executes a command on the remote server and returns
// its standard output.
func (c *SSHClient) RunCommandWithOutput(cmd string) (string, error) {
	session, err := c.session()
	if err != nil {
		return "", err
	}
	defer session.Close()

	output, err := session.Output(cmd)
	if err != nil {
		return "", fmt.Errorf("command failed: %w", err)
	}
	return string(output), nil
}

// DownloadFile downloads a remote file to localPath using the scp -f
// protocol. The file is written to a temporary name and renamed on success.
func (c *SSHClient) DownloadFile(localPath, remotePath string) error {
	session, err := c.session()
	if err != nil {
		return err
	}
	defer session.Close()

	stdin, err := session.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := session.Start("scp -f " + shellQuote(remotePath)); err != nil {
		return fmt.Errorf("failed to start scp on remote: %w", err)
	}

	fail := func(err error) error {
		stdin.Close()
		_ = session.Wait()
		return err
	}
	// failStderr reports whatever the remote wrote to stderr before it exited.
	failStderr := func(prefix string) error {
		stdin.Close()
		msg, _ := io.ReadAll(io.LimitReader(stderr, 1024))
		_ = session.Wait()
		return fmt.Errorf("%s: %s", prefix, strings.TrimSpace(string(msg)))
	}
	ack := func() error {
		if _, err := stdin.Write([]byte{0}); err != nil {
			return fmt.Errorf("failed to write scp null byte: %w", err)
		}
		return nil
	}

	if err := ack(); err != nil {
		return fail(err)
	}

	reader := bufio.NewReader(stdout)
	b, err := reader.ReadByte()
	if err != nil {
		return fail(fmt.Errorf("failed to read scp header byte: %w", err))
	}
	if b == 1 || b == 2 {
		line, _ := reader.ReadString('\n')
		if msg := strings.TrimSpace(line); msg != "" {
			return fail(fmt.Errorf("scp remote error: %s", msg))
		}
		return failStderr("scp remote error")
	}
	if b != 'C' {
		return fail(fmt.Errorf("unexpected scp header: %v", b))
	}

	// header format: <mode> <size> <filename>\n
	headerLine, err := reader.ReadString('\n')
	if err != nil {
		return fail(fmt.Errorf("failed to read scp header line: %w", err))
	}
	parts := strings.Fields(strings.TrimSpace(headerLine))
	if len(parts) < 3 {
		return fail(fmt.Errorf("invalid scp header: %s", headerLine))
	}
	size, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return fail(fmt.Errorf("invalid size in scp header: %w", err))
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fail(fmt.Errorf("failed to create local directories: %w", err))
	}
	tmp := localPath + ".part"
	lf, err := os.Create(tmp)
	if err != nil {
		return fail(fmt.Errorf("failed to create local file: %w", err))
	}
	defer os.Remove(tmp)

	if err := ack(); err != nil {
		lf.Close()
		return fail(err)
	}
	if _, err := io.CopyN(lf, reader, size); err != nil {
		lf.Close()
		return fail(fmt.Errorf("failed to copy file data: %w", err))
	}
	if err := lf.Close(); err != nil {
		return fail(fmt.Errorf("failed to write local file: %w", err))
	}

	if b, err := reader.ReadByte(); err != nil || b != 0 {
		if err != nil {
			return fail(fmt.Errorf("failed after data copy: %w", err))
		}
		return failStderr("scp did not acknowledge data")
	}
	if err := ack(); err != nil {
		return fail(err)
	}

	stdin.Close()
	if err := session.Wait(); err != nil {
		return fmt.Errorf("remote scp command failed: %w", err)
	}
	if err := os.Rename(tmp, localPath); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	return nil
}

// shellQuote quotes a POSIX path using single quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
