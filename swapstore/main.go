// Command swapstore simulates how a small RAM pages processes in and out
// under a chosen replacement policy.
package main

import "github.com/sarchlab/swapstore/swapstore/cmd"

func main() {
	cmd.Execute()
}
