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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gnames/fungidb/internal/iodb"
	"github.com/gnames/fungidb/pkg/db"
	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
)

// signalContext is cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
}

// openStore connects to the document store selected by store.uri.
func openStore(ctx context.Context) (db.Store, error) {
	store, err := iodb.New(&cfg.Store)
	if err != nil {
		return nil, err
	}
	if err = store.Connect(ctx, &cfg.Store); err != nil {
		return nil, err
	}
	gn.Info("Connected to <em>%s</em> store, collection <em>%s</em>",
		cfg.Store.Backend(), cfg.Store.Collection)
	return store, nil
}

// checkCollection makes sure the collection was created.
func checkCollection(ctx context.Context, store db.Store) error {
	if _, err := store.Count(ctx, db.Query{}); err != nil {
		return &gn.Error{
			Code: errcode.StoreSchemaError,
			Msg: `<err>Collection <em>%s</em> is not available.</err>
   Run <em>'fungidb create'</em> first to initialize it.`,
			Vars: []any{cfg.Store.Collection},
			Err:  fmt.Errorf("collection %s: %w", cfg.Store.Collection, err),
		}
	}
	return nil
}
