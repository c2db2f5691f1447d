// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// NexStar - Celestron mount control over serial and WebSocket bridges

package main

import (
	"os"

	"github.com/Thermoquad/nexstar/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
