// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/snaplocate/snaplocate/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
