// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ipc

import "github.com/google/uuid"

// Request types understood by the daemon.
const (
	TypeRequestResources = "request_resources"
	TypeRelease          = "release"
	TypeStatus           = "status"
)

// Response types sent by the daemon.
const (
	TypeSuccess    = "success"
	TypeError      = "error"
	TypeStatusInfo = "status_info"
)

// Request is a single message from a client to the daemon. Type
// selects the operation and determines which other fields are set.
type Request struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	// CPU and Mem are set for [TypeRequestResources] only. Mem uses
	// the human readable format accepted by sysinfo.ParseMemoryGB.
	CPU uint32 `json:"cpu,omitempty"`
	Mem string `json:"mem,omitempty"`
}

// Response is a single message from the daemon back to a client. The
// daemon echoes the request ID.
type Response struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	// AllocatedCPU and AllocatedMem are set for [TypeStatusInfo] only.
	AllocatedCPU uint32 `json:"allocated_cpu,omitempty"`
	AllocatedMem string `json:"allocated_mem,omitempty"`
}

// Err returns the transported error for [TypeError] responses and nil
// for all others.
func (r Response) Err() error {
	if r.Type != TypeError {
		return nil
	}

	return &RemoteError{Message: r.Error}
}

// NewResourceRequest builds a [TypeRequestResources] request with a
// fresh ID.
func NewResourceRequest(cpu uint32, mem string) Request {
	return Request{
		Type: TypeRequestResources,
		ID:   uuid.NewString(),
		CPU:  cpu,
		Mem:  mem,
	}
}

// NewReleaseRequest builds a [TypeRelease] request with a fresh ID.
func NewReleaseRequest() Request {
	return Request{
		Type: TypeRelease,
		ID:   uuid.NewString(),
	}
}

// NewStatusRequest builds a [TypeStatus] request with a fresh ID.
func NewStatusRequest() Request {
	return Request{
		Type: TypeStatus,
		ID:   uuid.NewString(),
	}
}

// SuccessResponse builds a [TypeSuccess] response. The server fills in
// the ID.
func SuccessResponse(message string) Response {
	return Response{
		Type:    TypeSuccess,
		Message: message,
	}
}

// ErrorResponse builds a [TypeError] response. The server fills in the
// ID.
func ErrorResponse(message string) Response {
	return Response{
		Type:  TypeError,
		Error: message,
	}
}

// StatusResponse builds a [TypeStatusInfo] response. The server fills
// in the ID.
func StatusResponse(cpu uint32, mem string) Response {
	return Response{
		Type:         TypeStatusInfo,
		AllocatedCPU: cpu,
		AllocatedMem: mem,
	}
}
