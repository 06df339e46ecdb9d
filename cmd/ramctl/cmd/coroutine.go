/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"

	"github.com/blacktop/go-machine-rt/coroutine"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(coroutineCmd)
}

var coroutineDemoCount int

func init() {
	coroutineCmd.Flags().IntVar(&coroutineDemoCount, "count", 3, "number of values the producer yields before terminating")
}

var coroutineCmd = &cobra.Command{
	Use:   "coroutine-demo",
	Short: "Run a small producer coroutine demo",
	Long: `coroutine-demo creates a coroutine on the default scheduling context
that yields once per value produced, re-entering it from the root frame
until it terminates, and prints the hand-off order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var trace []string

		producer := coroutine.Create(func(self *coroutine.Coroutine, arg any) {
			n := arg.(int)
			for i := 0; i < n; i++ {
				trace = append(trace, fmt.Sprintf("produce %d", i))
				self.Yield()
			}
		}, coroutineDemoCount)

		for i := 0; i <= coroutineDemoCount; i++ {
			coroutine.Enter(producer)
			trace = append(trace, "back in root frame")
		}

		for _, line := range trace {
			color.Cyan(line)
		}
		return nil
	},
}
