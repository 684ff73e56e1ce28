// Command hamrctl is a thin CLI wrapper around the daemon's JSON-RPC
// surface: it issues one call per invocation and prints the result
// (spec.md §6 "CLI surface").
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hamr-launcher/hamr/internal/config"
	"github.com/hamr-launcher/hamr/internal/rpc"
	"github.com/hamr-launcher/hamr/pkg/hamrproto"
	"github.com/sourcegraph/jsonrpc2"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	dirs, err := config.ResolveDirs()
	if err != nil {
		fmt.Fprintln(os.Stderr, "hamrctl:", err)
		os.Exit(1)
	}
	socketPath := os.Getenv("HAMR_SOCKET")
	if socketPath == "" {
		socketPath = dirs.CacheDir + "/hamr.sock"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := rpc.Dial(ctx, socketPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hamrctl: cannot reach hamrd:", err)
		os.Exit(1)
	}
	defer conn.Close()

	switch os.Args[1] {
	case "toggle":
		// The CLI's "toggle" shows/hides the launcher window, a
		// front-end concern outside this core's scope (spec.md's
		// Non-goals exclude UI rendering); hamrctl only round-trips a
		// home reset so the next show starts from a clean view.
		call(ctx, conn, hamrproto.MethodHome, nil, &hamrproto.Ack{})

	case "plugin":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		call(ctx, conn, hamrproto.MethodSelectItem, hamrproto.SelectItemParams{Key: os.Args[2]}, &hamrproto.Ack{})

	case "status", "plugins":
		var result hamrproto.AuditResult
		call(ctx, conn, hamrproto.MethodAudit, nil, &result)
		printJSON(result)

	default:
		usage()
		os.Exit(2)
	}
}

func call(ctx context.Context, conn *jsonrpc2.Conn, method string, params, result interface{}) {
	if err := conn.Call(ctx, method, params, result); err != nil {
		fmt.Fprintln(os.Stderr, "hamrctl:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: hamrctl <toggle|plugin <id>|status|plugins audit>")
}
