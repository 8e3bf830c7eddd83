// SPDX-License-Identifier: MPL-2.0

// xrun runs commands locally, over SSH, or inside containers and pods.
package main

import cmd "github.com/xrunhq/xrun/cmd/xrun"

func main() {
	cmd.Execute()
}
