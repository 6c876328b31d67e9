// Command nl2sql answers natural-language questions about the facility
// tables by generating and running PostgreSQL queries.
package main

import "github.com/optimusx/nl2sql/internal/cli"

func main() {
	cli.Execute()
}
