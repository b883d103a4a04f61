// Command pantry imports a grocery/recipe export into a food-chain service.
package main

import "github.com/mesh-intelligence/pantry/internal/cli"

func main() {
	cli.Execute()
}
