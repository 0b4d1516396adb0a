// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package systemd wraps the systemctl interactions for per-user resource
// limits. Limits are applied to the user's slice unit (user-UID.slice), so
// they cover every process of the user's sessions. All commands run through
// an injectable runner so tests do not need a systemd instance.
package systemd
