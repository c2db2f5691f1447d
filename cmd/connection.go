// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Thermoquad/nexstar/pkg/nexstar"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// WebSocketConnection carries the serial byte stream over a WebSocket bridge.
// A reader goroutine queues incoming binary messages so that Read can honour
// the reply timeout the same way a serial port does.
type WebSocketConnection struct {
	conn        *websocket.Conn
	messages    chan []byte
	done        chan struct{}
	closing     chan struct{}
	closeOnce   sync.Once
	readErr     error
	readTimeout time.Duration
	buf         []byte
}

func newWebSocketConnection(conn *websocket.Conn, readTimeout time.Duration) *WebSocketConnection {
	w := &WebSocketConnection{
		conn:        conn,
		messages:    make(chan []byte, 64),
		done:        make(chan struct{}),
		closing:     make(chan struct{}),
		readTimeout: readTimeout,
	}
	go w.readerLoop()
	return w
}

// readerLoop pumps binary messages until the connection fails
func (w *WebSocketConnection) readerLoop() {
	defer close(w.done)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.readErr = err
			return
		}
		// The bridge only forwards binary frames
		if messageType != websocket.BinaryMessage {
			continue
		}
		select {
		case w.messages <- data:
		case <-w.closing:
			return
		}
	}
}

// Read returns buffered bytes, or waits up to the read timeout for the next
// message. A timeout reads as (0, nil).
func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if len(w.buf) > 0 {
		n := copy(p, w.buf)
		w.buf = w.buf[n:]
		return n, nil
	}

	timer := time.NewTimer(w.readTimeout)
	defer timer.Stop()

	select {
	case data := <-w.messages:
		n := copy(p, data)
		w.buf = data[n:]
		return n, nil
	case <-w.done:
		if w.readErr != nil {
			return 0, fmt.Errorf("%w: %v", ErrConnectionClosed, w.readErr)
		}
		return 0, ErrConnectionClosed
	case <-timer.C:
		return 0, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// ResetInputBuffer drops the partial message and every queued message
func (w *WebSocketConnection) ResetInputBuffer() error {
	w.buf = nil
	for {
		select {
		case <-w.messages:
		default:
			return nil
		}
	}
}

// Close stops the reader goroutine, even when the queue is full
func (w *WebSocketConnection) Close() error {
	w.closeOnce.Do(func() { close(w.closing) })
	return w.conn.Close()
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool, readTimeout time.Duration) (*WebSocketConnection, error) {
	// Parse and validate URL
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return newWebSocketConnection(conn, readTimeout), nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("NEXSTAR_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// mountSession is an open codec plus the resources tied to it
type mountSession struct {
	*nexstar.Codec
	info     string
	trace    *os.File
	recorder *nexstar.CBORRecorder
}

// Close releases the port and flushes the trace file
func (s *mountSession) Close() error {
	err := s.Codec.Close()
	if s.trace != nil {
		if recErr := s.recorder.Err(); recErr != nil {
			logger.Warn("trace incomplete", zap.Error(recErr))
		}
		if cerr := s.trace.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// OpenMount opens a serial or WebSocket connection based on flags and wraps
// it in a codec
func OpenMount() (*mountSession, error) {
	s := &mountSession{}

	opts := []nexstar.Option{
		nexstar.WithLogger(logger.Named("nexstar")),
		nexstar.WithBaudRate(baudRate),
		nexstar.WithReadTimeout(readTimeout),
		nexstar.WithSettleDelay(settleDelay),
	}

	if traceFile != "" {
		f, err := os.Create(traceFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		s.trace = f
		s.recorder = nexstar.NewCBORRecorder(f)
		opts = append(opts, nexstar.WithRecorder(s.recorder))
	}

	closeTrace := func() {
		if s.trace != nil {
			s.trace.Close()
		}
	}

	switch {
	case wsURL != "":
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				closeTrace()
				return nil, err
			}
		}

		conn, err := OpenWebSocketConnection(wsURL, wsUsername, password, wsNoSSLVerify, readTimeout)
		if err != nil {
			closeTrace()
			return nil, err
		}

		s.Codec = nexstar.New(conn, opts...)
		s.info = fmt.Sprintf("WebSocket: %s", wsURL)

	case portName != "":
		logger.Info("waiting for mount interface", zap.String("port", portName), zap.Duration("settle", settleDelay))

		codec, err := nexstar.Open(portName, opts...)
		if err != nil {
			closeTrace()
			return nil, err
		}

		s.Codec = codec
		s.info = fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate)

	default:
		closeTrace()
		return nil, fmt.Errorf("either --port or --url must be specified")
	}

	return s, nil
}
