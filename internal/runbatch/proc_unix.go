// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package runbatch

import (
	"errors"
	"os"
	"syscall"
)

// sysProcAttr puts the child in its own process group so a timeout can take
// down anything it spawned as well.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func killTree(ps *os.Process) error {
	err := syscall.Kill(-ps.Pid, syscall.SIGKILL)
	if err == nil {
		return nil
	}

	if errors.Is(err, syscall.ESRCH) {
		return nil
	}

	return ps.Kill() //nolint:wrapcheck
}
