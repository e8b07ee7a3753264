package transfer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpointPort(t *testing.T) {
	tests := []struct {
		line string
		port int
		ok   bool
	}{
		{line: "You can SSH to it using", ok: false},
		{line: "  ssh -p 6237 cdsw@localhost", port: 6237, ok: true},
		{line: "ssh  -p\t40022 cdsw@localhost", port: 40022, ok: true},
		{line: "ssh -p 99999 cdsw@localhost", ok: false},
		{line: "ssh -p abc", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			port, ok := parseEndpointPort(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.port, port)
		})
	}
}

func TestWaitForPort(t *testing.T) {
	out := strings.NewReader("Forwarding local port...\nssh -p 5555 cdsw@localhost\nmore\n")

	port, err := waitForPort(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, 5555, port)
}

func TestWaitForPort_EndpointExits(t *testing.T) {
	_, err := waitForPort(context.Background(), strings.NewReader("error: project not found\n"))
	assert.Error(t, err)
}

func TestWaitForPort_Timeout(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := waitForPort(ctx, r)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type flakyProber struct {
	failures int32
	calls    int32
}

func (p *flakyProber) Probe(ctx context.Context, port int) error {
	n := atomic.AddInt32(&p.calls, 1)
	if n <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitReady(t *testing.T) {
	prober := &flakyProber{failures: 1}

	err := waitReady(context.Background(), prober, 2222, logger.NewTest())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&prober.calls))
}

func TestWaitReady_GivesUpWhenContextEnds(t *testing.T) {
	prober := &flakyProber{failures: 1 << 30}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := waitReady(ctx, prober, 2222, logger.NewTest())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 900*time.Millisecond, "must not wait for the next attempt")
}

func TestCDSWCtlOpener_AbortLogsTerminateFailure(t *testing.T) {
	var buf bytes.Buffer
	opener := &CDSWCtlOpener{logger: logger.NewTestWithOutput(&buf)}

	session := &MockSession{}
	session.On("Terminate").Return(errors.New("process already reaped")).Once()

	opener.abort(session, testIdentity)

	session.AssertExpectations(t)
	assert.Contains(t, buf.String(), "process already reaped")
	assert.Contains(t, buf.String(), testIdentity.ProjectPath())
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestCDSWCtlOpener_AbortQuietOnCleanTerminate(t *testing.T) {
	var buf bytes.Buffer
	opener := &CDSWCtlOpener{logger: logger.NewTestWithOutput(&buf)}

	session := &MockSession{}
	session.On("Terminate").Return(nil).Once()

	opener.abort(session, testIdentity)

	session.AssertExpectations(t)
	assert.Empty(t, buf.String())
}
