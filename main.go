// Command stackweaver builds an application from a concept file in
// dependency-ordered phases.
package main

import "github.com/stackweaver/stackweaver/cmd"

func main() {
	cmd.Execute()
}
