// SPDX-License-Identifier: MPL-2.0

// Command mizkit reorders and inspects DCS World mission archives.
package main

func main() {
	Execute()
}
