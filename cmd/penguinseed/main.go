// Command penguinseed loads the embedded penguin observations into a SQLite
// database so penguind can run with PENGUINDASH_DATASET_SOURCE=sqlite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"penguindash/internal/dataset"
)

var exitFunc = os.Exit

func main() {
	path := flag.String("db", "penguindash.db", "sqlite database path to seed")
	flag.Parse()

	if err := seed(*path); err != nil {
		fmt.Fprintf(os.Stderr, "penguinseed: %v\n", err)
		exitFunc(1)
	}
}

func seed(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	table, err := dataset.EmbeddedSource{}.Load(ctx)
	if err != nil {
		return err
	}
	if err := dataset.SeedSQLite(ctx, path, table); err != nil {
		return err
	}
	fmt.Printf("seeded %d rows into %s\n", table.Len(), path)
	return nil
}
