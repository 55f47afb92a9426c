package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/posthook"
	"github.com/marcelsud/posthook/config"
	"github.com/marcelsud/posthook/hook"
	"github.com/marcelsud/posthook/hook/payload"
	"github.com/marcelsud/posthook/hook/signature"
	"github.com/marcelsud/posthook/manifest"
)

/* posthook - command line access to the hooks API
 * Usage:
 *   posthook schedule <manifest.yaml> [name]
 *   posthook get <id>
 *   posthook list [status]
 *   posthook delete <id>
 *   posthook bulk <retry|replay|cancel> <id>...
 *   posthook sign <path> [json-data]
 * Keys come from POSTHOOK_API_KEY / POSTHOOK_SIGNING_KEY or POSTHOOK_CONFIG_FILE
 */

const usage = `usage: posthook <command> [args]

commands:
  schedule <manifest.yaml> [name]   schedule every hook in a manifest, or only the named one
  get <id>                          show a hook
  list [status]                     list hooks, optionally by status
  delete <id>                       delete a hook
  bulk <retry|replay|cancel> <id>.. run a bulk action on hook ids
  sign <path> [json-data]           print a signed sample delivery`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, newClient); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient() (*posthook.Client, error) {
	return posthook.NewClient(posthook.WithConfigFile(os.Getenv("POSTHOOK_CONFIG_FILE")))
}

func run(ctx context.Context, args []string, out io.Writer, connect func() (*posthook.Client, error)) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", usage)
	}
	cmd, args := args[0], args[1:]

	// sign works offline and needs only the signing key
	if cmd == "sign" {
		return sign(out, args, time.Now())
	}

	c, err := connect()
	if err != nil {
		return err
	}
	defer c.Close()

	switch cmd {
	case "schedule":
		return schedule(ctx, c, out, args)
	case "get":
		if len(args) != 1 {
			return fmt.Errorf("usage: posthook get <id>")
		}
		h, err := c.Hooks.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(out, h)
	case "list":
		params := hook.ListParams{}
		if len(args) > 0 {
			params.Status = hook.NewStatus(args[0])
			if err := params.Status.Validate(); err != nil {
				return err
			}
		}
		n := 0
		for h, err := range c.Hooks.ListAll(ctx, params) {
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", h.ID, h.Status, h.PostAt.Format(time.RFC3339), h.Path)
			n++
		}
		fmt.Fprintf(out, "%d hook(s)\n", n)
		return nil
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: posthook delete <id>")
		}
		if err := c.Hooks.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", args[0])
		return nil
	case "bulk":
		if len(args) < 2 {
			return fmt.Errorf("usage: posthook bulk <retry|replay|cancel> <id>...")
		}
		res, err := c.Hooks.Bulk.ByIDs(ctx, hook.Action(args[0]), args[1:])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d hook(s) affected\n", args[0], res.Affected)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func schedule(ctx context.Context, c *posthook.Client, out io.Writer, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: posthook schedule <manifest.yaml> [name]")
	}
	loader := manifest.NewLoader()
	if err := loader.Load(args[0]); err != nil {
		return err
	}

	items := loader.List()
	if len(args) == 2 {
		item, err := loader.Get(args[1])
		if err != nil {
			return err
		}
		items = []manifest.Item{item}
	}

	for _, item := range items {
		h, err := c.Hooks.Schedule(ctx, item.Request)
		if err != nil {
			return fmt.Errorf("scheduling %s: %w", item.Request.Path, err)
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", h.ID, h.PostAt.Format(time.RFC3339), h.Path)
	}
	if q, ok := c.Quota(ctx); ok {
		fmt.Fprintf(out, "quota: %d of %d remaining\n", q.Remaining, q.Limit)
	}
	return nil
}

// sign prints headers and body of a delivery signed with the configured key
func sign(out io.Writer, args []string, now time.Time) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: posthook sign <path> [json-data]")
	}
	cfg, err := config.Resolve(config.Overrides{ConfigFile: os.Getenv("POSTHOOK_CONFIG_FILE")})
	if err != nil {
		return err
	}
	if cfg.SigningKey == "" {
		return posthook.ErrNoSigningKey
	}

	var data any
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &data); err != nil {
			return fmt.Errorf("parsing json-data: %w", err)
		}
	}
	b, err := payload.New(args[0], data, now)
	if err != nil {
		return err
	}
	body, err := b.Bytes()
	if err != nil {
		return err
	}

	ts := now.Unix()
	fmt.Fprintf(out, "%s: %s\n", signature.HeaderID, uuid.NewString())
	fmt.Fprintf(out, "%s: %s\n", signature.HeaderTimestamp, strconv.FormatInt(ts, 10))
	fmt.Fprintf(out, "%s: %s\n\n", signature.HeaderSignature, signature.Sign(cfg.SigningKey, ts, body))
	_, err = fmt.Fprintln(out, string(body))
	return err
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
