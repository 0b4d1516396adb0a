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
	"log/slog"
	"net"
	"time"
)

// Client sends single request exchanges to the daemon socket.
type Client struct {
	// Path of the socket file. Empty selects [DefaultSocketPath].
	Path string
	// Timeout bounds a whole exchange including the connection
	// attempt. Zero selects [DefaultTimeout].
	Timeout time.Duration
}

// NewClient returns a [Client] for the socket at path with the default
// timeout. An empty path selects [DefaultSocketPath].
func NewClient(path string) *Client {
	if path == "" {
		path = DefaultSocketPath
	}

	return &Client{
		Path:    path,
		Timeout: DefaultTimeout,
	}
}

// Do sends req and waits for the daemon's response. A connection
// failure is reported as [ErrUnavailable] so callers can distinguish
// an absent daemon from a failed request.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	deadline := time.Now().Add(timeout)

	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var dialer net.Dialer

	conn, err := dialer.DialContext(dialCtx, "unix", c.Path)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}

	slog.Debug("IPC request sent",
		slog.String("type", req.Type),
		slog.String("id", req.ID),
	)

	data, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	data = append(data, '\n')

	if _, err := conn.Write(data); err != nil {
		return Response{}, fmt.Errorf("write request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && (!errors.Is(err, io.EOF) || len(line) == 0) {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}

	slog.Debug("IPC response received",
		slog.String("type", resp.Type),
		slog.String("id", resp.ID),
	)

	return resp, nil
}
