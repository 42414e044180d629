//go:build js && wasm

// Command borderwasm activates cut-corner borders on the hosting page.
//
// Build with GOOS=js GOARCH=wasm and load it with wasm_exec.js once the
// document is parsed.
package main

import (
	"log/slog"
	"os"
	"syscall/js"

	"github.com/gogpu/cutborder"
	"github.com/gogpu/cutborder/jsdom"
)

func main() {
	if js.Global().Get("location").Get("search").String() == "?debug" {
		cutborder.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	start := func() {
		r := cutborder.New(jsdom.New())
		if _, err := r.Activate(); err != nil {
			cutborder.Logger().Error("activate failed", "err", err)
		}
	}

	doc := js.Global().Get("document")
	if doc.Get("readyState").String() == "loading" {
		var onReady js.Func
		onReady = js.FuncOf(func(js.Value, []js.Value) any {
			start()
			onReady.Release()
			return nil
		})
		doc.Call("addEventListener", "DOMContentLoaded", onReady)
	} else {
		start()
	}

	// Resize callbacks run on this program; keep it alive.
	select {}
}
