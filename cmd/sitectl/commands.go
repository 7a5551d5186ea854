package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mindfulpath/practicesite/internal/client/admin"
	"github.com/mindfulpath/practicesite/internal/client/mutation"
	"github.com/mindfulpath/practicesite/internal/models"
	"github.com/mindfulpath/practicesite/internal/ordering"
	"github.com/mindfulpath/practicesite/internal/siteconfig"
)

type commands struct {
	client *admin.Client
	out    io.Writer
}

// collection erases the entity type of one pipeline.
type collection struct {
	list    func(context.Context) (any, error)
	public  func(context.Context) (any, error)
	reorder func(context.Context, []ordering.Pair) (any, error)
	delete  func(context.Context, int64) error
}

func collectionFor[T ordering.Entity[T]](c *admin.Client, r admin.Resource, p *mutation.Pipeline[T]) collection {
	return collection{
		list: func(ctx context.Context) (any, error) {
			return p.List(ctx)
		},
		public: func(ctx context.Context) (any, error) {
			return admin.PublicList[T](ctx, c, r)
		},
		reorder: func(ctx context.Context, pairs []ordering.Pair) (any, error) {
			// Load the admin list first so the reorder is applied to it optimistically.
			if _, err := p.List(ctx); err != nil {
				return nil, err
			}
			return p.Reorder(ctx, pairs)
		},
		delete: func(ctx context.Context, id int64) error {
			return p.Delete(ctx, id)
		},
	}
}

func (c *commands) collection(name string) (collection, error) {
	r, err := admin.ParseResource(name)
	if err != nil {
		return collection{}, err
	}
	switch r {
	case admin.Testimonials:
		return collectionFor[*models.Testimonial](c.client, r, c.client.Testimonials), nil
	case admin.Articles:
		return collectionFor[*models.Article](c.client, r, c.client.Articles), nil
	case admin.FAQ:
		return collectionFor[*models.FAQItem](c.client, r, c.client.FAQ), nil
	default:
		return collectionFor[*models.Photo](c.client, r, c.client.Photos), nil
	}
}

func (c *commands) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "config":
		return c.config(ctx, args[1:])
	case "list":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("usage: list <resource> [public]")
		}
		coll, err := c.collection(args[1])
		if err != nil {
			return err
		}
		fetch := coll.list
		if len(args) == 3 {
			if args[2] != "public" {
				return fmt.Errorf("unknown list view %q", args[2])
			}
			fetch = coll.public
		}
		items, err := fetch(ctx)
		if err != nil {
			return err
		}
		return c.print(items)
	case "reorder":
		if len(args) < 3 {
			return fmt.Errorf("usage: reorder <resource> id=order...")
		}
		coll, err := c.collection(args[1])
		if err != nil {
			return err
		}
		pairs, err := parsePairs(args[2:])
		if err != nil {
			return err
		}
		items, err := coll.reorder(ctx, pairs)
		if err != nil {
			return err
		}
		return c.print(items)
	case "delete":
		if len(args) != 3 {
			return fmt.Errorf("usage: delete <resource> <id>")
		}
		coll, err := c.collection(args[1])
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid id %q", args[2])
		}
		if err := coll.delete(ctx, id); err != nil {
			return err
		}
		return c.print(map[string]any{"deleted": true, "id": id})
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (c *commands) config(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: config list|get|set|delete")
	}
	cfg := c.client.Config

	switch args[0] {
	case "list":
		entries, err := cfg.Entries(ctx)
		if err != nil {
			return err
		}
		return c.print(entries)
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: config get <key>")
		}
		entries, err := cfg.Entries(ctx)
		if err != nil {
			return err
		}
		raw := json.RawMessage(nil)
		for _, entry := range entries {
			if strings.EqualFold(entry.Key, args[1]) {
				raw = entry.Value
				break
			}
		}
		section, err := siteconfig.Decode(args[1], raw)
		if err != nil {
			return err
		}
		return c.print(section)
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: config set <key> <json>")
		}
		if !json.Valid([]byte(args[2])) {
			return fmt.Errorf("value for %s is not valid JSON", args[1])
		}
		entry, err := cfg.Save(ctx, args[1], json.RawMessage(args[2]))
		if err != nil {
			return err
		}
		return c.print(entry)
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: config delete <key>")
		}
		if err := cfg.Delete(ctx, args[1]); err != nil {
			return err
		}
		return c.print(map[string]any{"deleted": true, "key": args[1]})
	default:
		return fmt.Errorf("unknown config command %q", args[0])
	}
}

func (c *commands) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parsePairs reads id=order arguments.
func parsePairs(args []string) ([]ordering.Pair, error) {
	pairs := make([]ordering.Pair, 0, len(args))
	for _, arg := range args {
		idPart, orderPart, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected id=order, got %q", arg)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id in %q", arg)
		}
		order, err := strconv.Atoi(strings.TrimSpace(orderPart))
		if err != nil || order < 0 {
			return nil, fmt.Errorf("invalid order in %q", arg)
		}
		pairs = append(pairs, ordering.Pair{ID: id, Order: order})
	}
	return pairs, nil
}
