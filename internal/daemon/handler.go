// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package daemon

import (
	"context"
	"fmt"
	"math"

	"github.com/WilliamJudge94/fairshare/internal/fairshare"
	"github.com/WilliamJudge94/fairshare/internal/ipc"
	"github.com/WilliamJudge94/fairshare/internal/sysinfo"
	"github.com/WilliamJudge94/fairshare/internal/systemd"
)

// Handler serves IPC requests against a [fairshare.Manager]. Failed
// operations are reported to the client as error responses, never as
// dropped connections.
type Handler struct {
	Manager *fairshare.Manager

	// ValidateUID guards every request. Nil selects
	// [systemd.ValidateUID], which refuses root and system users.
	ValidateUID func(uid uint32) error
}

// Handle implements the [ipc.Handler] interface.
func (h *Handler) Handle(
	ctx context.Context, req ipc.Request, uid uint32,
) ipc.Response {
	validate := h.ValidateUID
	if validate == nil {
		validate = systemd.ValidateUID
	}

	if err := validate(uid); err != nil {
		return ipc.ErrorResponse(err.Error())
	}

	switch req.Type {
	case ipc.TypeRequestResources:
		return h.request(ctx, req, uid)
	case ipc.TypeRelease:
		return h.release(ctx, uid)
	case ipc.TypeStatus:
		return h.status(ctx, uid)
	default:
		return ipc.ErrorResponse(fmt.Sprintf("unknown request type: %q", req.Type))
	}
}

func (h *Handler) request(
	ctx context.Context, req ipc.Request, uid uint32,
) ipc.Response {
	memGB := uint32(math.Floor(sysinfo.ParseMemoryGB(req.Mem)))
	if memGB == 0 {
		return ipc.ErrorResponse(fmt.Sprintf("invalid memory amount: %q", req.Mem))
	}

	grant, err := h.Manager.Request(ctx, uid, req.CPU, memGB)
	if err != nil {
		return ipc.ErrorResponse(err.Error())
	}

	return ipc.SuccessResponse(fmt.Sprintf(
		"Allocated %d CPU(s) and %dG RAM.", grant.CPUs, grant.MemoryGB,
	))
}

func (h *Handler) release(ctx context.Context, uid uint32) ipc.Response {
	if err := h.Manager.Release(ctx, uid); err != nil {
		return ipc.ErrorResponse(err.Error())
	}

	return ipc.SuccessResponse("Released user limits back to defaults.")
}

func (h *Handler) status(ctx context.Context, uid uint32) ipc.Response {
	info, err := h.Manager.Info(ctx, uid)
	if err != nil {
		return ipc.ErrorResponse(err.Error())
	}

	return ipc.StatusResponse(
		uint32(math.Round(info.Limits.CPUs())),
		fmt.Sprintf("%.0fG", info.Limits.MemoryGB()),
	)
}
