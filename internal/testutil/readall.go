// SPDX-License-Identifier: MPL-2.0

package testutil

import "io"

func readAll(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}
