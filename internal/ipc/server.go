// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// DefaultSocketPath is the well known location of the daemon socket.
const DefaultSocketPath = "/run/fairshared.sock"

// DefaultTimeout bounds a single request exchange on either end.
const DefaultTimeout = 5 * time.Second

// Handler processes a single authenticated request. uid is the peer
// credential of the connecting process as reported by the kernel.
type Handler interface {
	Handle(ctx context.Context, req Request, uid uint32) Response
}

// HandlerFunc adapts a plain function to the [Handler] interface.
type HandlerFunc func(ctx context.Context, req Request, uid uint32) Response

// Handle implements the [Handler] interface.
func (f HandlerFunc) Handle(ctx context.Context, req Request, uid uint32) Response {
	return f(ctx, req, uid)
}

// Server accepts request connections on a Unix domain socket and
// dispatches them to a [Handler].
type Server struct {
	// Path of the socket file. Empty selects [DefaultSocketPath].
	Path string
	// Handler receives all decoded requests.
	Handler Handler
	// Timeout bounds each connection. Zero selects [DefaultTimeout].
	Timeout time.Duration
}

// Serve binds the socket and accepts connections until ctx is
// canceled. A stale socket file from a previous run is removed before
// binding. The socket is world writable since peer authentication
// happens per connection via SO_PEERCRED.
func (s *Server) Serve(ctx context.Context) error {
	path := s.Path
	if path == "" {
		path = DefaultSocketPath
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}

	var cfg net.ListenConfig

	listener, err := cfg.Listen(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("bind socket: %w", err)
	}
	defer func() { _ = os.Remove(path) }()

	if err := os.Chmod(path, 0o666); err != nil {
		_ = listener.Close()
		return fmt.Errorf("set socket permissions: %w", err)
	}

	slog.Info("IPC server listening", slog.String("path", path))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-ctx.Done()
		return listener.Close()
	})

	group.Go(func() error {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}

				return fmt.Errorf("accept: %w", err)
			}

			group.Go(func() error {
				s.handleConn(ctx, conn)
				return nil
			})
		}
	})

	err = group.Wait()

	slog.Debug("IPC server stopped", slog.String("path", path))

	return err
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := s.serveConn(ctx, conn); err != nil {
		slog.Error("Handle IPC connection", slog.Any("error", err))
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) error {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	uid, err := peerUID(conn)
	if err != nil {
		return err
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && (!errors.Is(err, io.EOF) || len(line) == 0) {
		return fmt.Errorf("read request: %w", err)
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		_ = writeResponse(conn, ErrorResponse("malformed request"))
		return fmt.Errorf("decode request: %w", err)
	}

	slog.Debug("IPC request",
		slog.String("type", req.Type),
		slog.String("id", req.ID),
		slog.Int("uid", int(uid)),
	)

	resp := s.Handler.Handle(ctx, req, uid)
	resp.ID = req.ID

	return writeResponse(conn, resp)
}

func writeResponse(conn net.Conn, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	data = append(data, '\n')

	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

// peerUID reads the UID of the process on the other end of a Unix
// socket connection.
func peerUID(conn net.Conn) (uint32, error) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return 0, fmt.Errorf("peer credentials: not a unix connection: %T", conn)
	}

	raw, err := unixConn.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("peer credentials: %w", err)
	}

	var (
		cred    *unix.Ucred
		credErr error
	)

	err = raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil {
		return 0, fmt.Errorf("peer credentials: %w", err)
	}

	if credErr != nil {
		return 0, fmt.Errorf("peer credentials: %w", credErr)
	}

	return cred.Uid, nil
}
