/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

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
	"context"

	"github.com/gnames/fungidb/internal/ioschema"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

// getCreateCmd returns the create command.
// Extracted as a function to facilitate testing and dynamic
// command registration.
func getCreateCmd() *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create the species collection and its indexes",
		Long: `Create the collection that keeps species documents.

This command:
  1. Connects to the document store selected by store.uri
  2. Creates the collection (store.collection) if it does not exist
  3. Creates indexes on scientific_name (unique), common_name and family

On PostgreSQL the table is created with GORM AutoMigrate and
scientific_name gets the "C" collation. SQLite stores create the
same layout with JSON text documents.

Running the command again does not change existing data.

Examples:
  fungidb create
  FUNGIDB_STORE_URI=sqlite:///tmp/fungi.db fungidb create`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runCreate(cmd.Context())
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	return createCmd
}

func runCreate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	sm := ioschema.NewManager(store)

	gn.Info("Creating collection <em>%s</em>...", cfg.Store.Collection)
	if err = sm.Create(ctx, cfg); err != nil {
		return err
	}

	gn.Info(`Collection is ready.

Next steps:
  - Run '<em>fungidb load</em>' to import CSV exports
  - Run '<em>fungidb acquire</em>' to rehost images`)

	return nil
}
