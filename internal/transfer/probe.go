package transfer

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"golang.org/x/crypto/ssh"
)

const (
	SessionUser  = "cdsw"
	RemoteHome   = "/home/cdsw/"
	probeTimeout = 10 * time.Second
)

// SSHProbe checks that a local ssh endpoint accepts our key and can run a
// command.
type SSHProbe struct {
	host    string
	user    string
	keyPath string
}

func NewSSHProbe(keyPath string) *SSHProbe {
	return &SSHProbe{host: "localhost", user: SessionUser, keyPath: keyPath}
}

func (p *SSHProbe) Probe(ctx context.Context, port int) error {
	key, err := os.ReadFile(p.keyPath)
	if err != nil {
		return fmt.Errorf("failed to read ssh key %s: %w", p.keyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to parse ssh key %s: %w", p.keyPath, err)
	}

	config := &ssh.ClientConfig{
		User:            p.user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         probeTimeout,
	}

	addr := net.JoinHostPort(p.host, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: probeTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return err
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()

	return session.Run("true")
}

func waitReady(ctx context.Context, prober Prober, port int, log *logger.Logger) error {
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			return prober.Probe(ctx, port)
		},
		NotifyFunc: func(err error, attempt int) {
			log.Debug("session_not_ready").
				Int("port", port).
				Int("attempt", attempt).
				Err(err).
				Send()
		},
		Attempts:    retry.UnlimitedAttempts,
		Delay:       time.Second,
		MaxDelay:    10 * time.Second,
		BackoffFunc: retry.DoubleDelay,
		Clock:       clock.WallClock,
		Stop:        ctx.Done(),
	})
	if err != nil {
		return unwrapRetry(ctx, err)
	}
	return nil
}
