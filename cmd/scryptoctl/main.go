// Command scryptoctl exercises the avl/store libraries from a shell:
// it opens a persistent prover against a Badger directory, applies
// modifications given on the command line, and prints the resulting
// digest and proof.
package main

import "github.com/reyzin/scrypto/cmd/scryptoctl/commands"

func main() {
	commands.Execute()
}
