// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package device

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// QuitPrompt is printed before waiting for operator input.
const QuitPrompt = "Press Q to quit"

// QuitOnInput prompts on w and reads lines from r in the background. The
// returned channel is closed when the operator enters "Q" or "q". Reaching
// the end of r never quits.
func QuitOnInput(r io.Reader, w io.Writer) <-chan struct{} {
	quit := make(chan struct{})
	fmt.Fprintln(w, QuitPrompt)

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if strings.EqualFold(strings.TrimSpace(scanner.Text()), "q") {
				close(quit)
				return
			}
		}
	}()

	return quit
}
