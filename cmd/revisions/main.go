package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/goliatone/go-command/dispatcher"
	revisions "github.com/goliatone/go-revisions"
	"github.com/goliatone/go-revisions/internal/pages"
	"github.com/goliatone/go-revisions/internal/runtimeconfig"
)

const usage = `usage: revisions [global flags] <command> [flags]

commands:
  migrate      create the revision tables
  seed         register templates from a YAML definition file
  create-page  create a page owner
  write        write field data into a revision and locale
  meta         write one untranslated meta value
  show         print the content of a revision
  publish      publish a revision in every enabled locale
  purge        delete the data of a superseded revision
  delete       delete every revision of an owner
`

// moduleBuilder builds the module and returns the function that releases it.
var moduleBuilder = buildModule

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("revisions: %v", err)
	}
}

func buildModule(ctx context.Context, cfg revisions.Config) (*revisions.Module, func() error, error) {
	module, err := revisions.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return module, module.Close, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("revisions", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "Path to a YAML config file")
	envFiles := fs.String("env", ".env.local,.env", "Comma separated .env files to load when present")
	driver := fs.String("driver", "", "Database driver (sqlite or postgres)")
	dsn := fs.String("dsn", "", "Database connection string")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w\n%s", err, usage)
	}
	if fs.NArg() == 0 {
		return errors.New(usage)
	}

	if files := splitList(*envFiles); len(files) > 0 {
		runtimeconfig.LoadDotEnv(files...)
	}
	cfg, err := revisions.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(*driver) != "" {
		cfg.Storage.Driver = *driver
	}
	if strings.TrimSpace(*dsn) != "" {
		cfg.Storage.DSN = *dsn
	}
	if !cfg.UsesBun() {
		cfg.Storage.Provider = "bun"
	}
	cfg.Commands.Enabled = true
	cfg.Commands.AutoRegisterDispatcher = false

	name, rest := fs.Arg(0), fs.Args()[1:]
	commandFn, ok := subcommands[name]
	if !ok {
		return fmt.Errorf("unknown command %q\n%s", name, usage)
	}

	if name == "migrate" {
		cfg.Storage.Migrate = true
	}
	module, release, err := moduleBuilder(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer release()

	for _, sub := range revisions.SubscribeDispatcher(module.CommandHandlers(), cfg.Commands.MaxRetries) {
		defer sub.Unsubscribe()
	}
	return commandFn(&cli{module: module, out: out}, ctx, rest)
}

type cli struct {
	module *revisions.Module
	out    io.Writer
}

var subcommands = map[string]func(*cli, context.Context, []string) error{
	"migrate":     (*cli).migrate,
	"seed":        (*cli).seed,
	"create-page": (*cli).createPage,
	"write":       (*cli).write,
	"meta":        (*cli).meta,
	"show":        (*cli).show,
	"publish":     (*cli).publish,
	"purge":       (*cli).purge,
	"delete":      (*cli).delete,
}

func (c *cli) migrate(ctx context.Context, _ []string) error {
	if err := c.module.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "migrations applied")
	return nil
}

func (c *cli) seed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	file := fs.String("file", "templates.yaml", "YAML template definition file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	registered, err := c.module.Templates().LoadDefinitions(ctx, f)
	if err != nil {
		return err
	}
	for _, template := range registered {
		fmt.Fprintf(c.out, "template %s (%d fields)\n", template.Slug, len(template.Fields))
	}
	return nil
}

func (c *cli) createPage(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-page", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.String("title", "", "Page title")
	slug := fs.String("slug", "", "Page slug, derived from the title when empty")
	template := fs.String("template", "", "Template slug, the kind default when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page, err := c.module.Pages().Create(ctx, revisions.CreatePageRequest{
		Title:    *title,
		Slug:     *slug,
		Template: *template,
	})
	if err != nil {
		return err
	}
	return c.print(page)
}

// ownerFlags registers the flags every owner scoped command shares.
type ownerFlags struct {
	kind  *string
	owner *string
}

func newOwnerFlags(fs *flag.FlagSet) ownerFlags {
	return ownerFlags{
		kind:  fs.String("kind", pages.Kind, "Owner kind"),
		owner: fs.String("owner", "", "Owner id, or page slug for the pages kind"),
	}
}

func (c *cli) ref(ctx context.Context, flags ownerFlags) (revisions.OwnerRef, error) {
	ref := revisions.OwnerRef{Kind: strings.TrimSpace(*flags.kind), OwnerID: strings.TrimSpace(*flags.owner)}
	if ref.OwnerID == "" {
		return ref, errors.New("-owner is required")
	}
	if ref.Kind == pages.Kind {
		page, err := c.module.Pages().Lookup(ctx, ref.OwnerID)
		if err != nil {
			return ref, err
		}
		ref.OwnerID = page.ID.String()
	}
	return ref, nil
}

func (c *cli) write(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("write", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	owner := newOwnerFlags(fs)
	locale := fs.String("locale", "", "Locale, the default locale when empty")
	revision := fs.Int("revision", 0, "Revision, the current draft when zero")
	data := fs.String("data", "", "Field data as a JSON object")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ref, err := c.ref(ctx, owner)
	if err != nil {
		return err
	}
	var fields revisions.FieldData
	if err := json.Unmarshal([]byte(*data), &fields); err != nil {
		return fmt.Errorf("parse -data: %w", err)
	}
	if err := dispatcher.Dispatch(ctx, revisions.UpdateContentCommand{
		OwnerRef: ref,
		Revision: *revision,
		Locale:   *locale,
		Fields:   fields,
	}); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "wrote %d fields\n", fields.Len())
	return nil
}

func (c *cli) meta(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("meta", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	owner := newOwnerFlags(fs)
	revision := fs.Int("revision", 0, "Revision, the current draft when zero")
	key := fs.String("key", "", "Meta key")
	value := fs.String("value", "null", "Meta value as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ref, err := c.ref(ctx, owner)
	if err != nil {
		return err
	}
	var decoded any
	if err := json.Unmarshal([]byte(*value), &decoded); err != nil {
		return fmt.Errorf("parse -value: %w", err)
	}
	return dispatcher.Dispatch(ctx, revisions.UpdateMetaCommand{
		OwnerRef: ref,
		Revision: *revision,
		Key:      *key,
		Value:    decoded,
	})
}

func (c *cli) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	owner := newOwnerFlags(fs)
	locale := fs.String("locale", "", "Locale, the default locale when empty")
	revision := fs.Int("revision", 0, "Revision, the current draft when zero")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ref, err := c.ref(ctx, owner)
	if err != nil {
		return err
	}
	content, err := c.module.GetFieldContent(ctx, ref.Owner(), *revision, *locale)
	if err != nil {
		return err
	}
	state, err := c.module.State(ctx, ref.Owner())
	if err != nil {
		return err
	}
	return c.print(map[string]any{
		"owner":   ref,
		"state":   state,
		"content": content,
		"fields":  sortedKeys(content),
	})
}

func (c *cli) publish(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	owner := newOwnerFlags(fs)
	revision := fs.Int("revision", 0, "Revision, the current draft when zero")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ref, err := c.ref(ctx, owner)
	if err != nil {
		return err
	}
	if err := dispatcher.Dispatch(ctx, revisions.PublishRevisionCommand{OwnerRef: ref, Revision: *revision}); err != nil {
		return err
	}
	state, err := c.module.State(ctx, ref.Owner())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "published revision %d\n", state.Revision)
	return nil
}

func (c *cli) purge(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("purge", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	owner := newOwnerFlags(fs)
	revision := fs.Int("revision", 0, "Revision to purge")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ref, err := c.ref(ctx, owner)
	if err != nil {
		return err
	}
	return dispatcher.Dispatch(ctx, revisions.PurgeRevisionCommand{OwnerRef: ref, Revision: *revision})
}

func (c *cli) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	owner := newOwnerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ref, err := c.ref(ctx, owner)
	if err != nil {
		return err
	}
	return dispatcher.Dispatch(ctx, revisions.DeleteOwnerCommand{OwnerRef: ref})
}

func (c *cli) print(value any) error {
	encoder := json.NewEncoder(c.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func sortedKeys(content revisions.Content) []string {
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
