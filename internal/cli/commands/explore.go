package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/ssot/internal/cli/output"
	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/leapstack-labs/ssot/pkg/crossfilter"
	"github.com/leapstack-labs/ssot/pkg/grid"
	"github.com/spf13/cobra"
)

// NewExploreCommand creates the explore command.
func NewExploreCommand() *cobra.Command {
	opts := &FilterOptions{}

	cmd := &cobra.Command{
		Use:   "explore <dataset>",
		Short: "Interactively filter a dataset",
		Long: `Open an interactive session over one dataset.

The session keeps the same selection state as a dashboard table: toggling a
value narrows the options of every other dimension and the visible rows.
Type .help inside the session for the list of commands.`,
		Example: `  # Explore the Radia plan of one agency
  ssot explore radia-plan --agency OMD`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplore(cmd, args[0], opts)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runExplore(cmd *cobra.Command, name string, opts *FilterOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	spec, ds, err := cmdCtx.Load(ctx, name)
	if err != nil {
		return err
	}

	ex := newExplorer(spec, ds, cmdCtx.Renderer, cmdCtx.Cfg.GetUIConfig().PageSize)
	ex.reload = func(ctx context.Context) (*core.Dataset, error) {
		return cmdCtx.Cache.Reload(ctx, spec.ID)
	}
	warnings, err := opts.apply(ex.filter)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		cmdCtx.Renderer.Warning(w)
	}

	// History lives next to the state database
	historyFile := ""
	if cmdCtx.Cfg.StatePath != ":memory:" {
		historyFile = filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "explore_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ssot> ",
		HistoryFile:     historyFile,
		AutoComplete:    ex.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := cmdCtx.Renderer
	r.Printf("SSOT explorer (%s, %d rows)\n", spec.Label, ds.Len())
	r.Println("Type .help for commands, .quit to exit")
	r.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if ex.exec(ctx, line) {
			break
		}
	}
	return nil
}

// explorer is the state of one interactive session.
type explorer struct {
	spec     core.DatasetSpec
	ds       *core.Dataset
	filter   *crossfilter.Filter
	r        *output.Renderer
	sortCol  string
	desc     bool
	page     int
	pageSize int
	reload   func(context.Context) (*core.Dataset, error)
}

func newExplorer(spec core.DatasetSpec, ds *core.Dataset, r *output.Renderer, pageSize int) *explorer {
	return &explorer{
		spec:     spec,
		ds:       ds,
		filter:   crossfilter.NewFilter(ds.Rows, spec.Dimensions),
		r:        r,
		pageSize: grid.NormalizePageSize(pageSize),
	}
}

// exec runs one command line and reports whether the session should end.
func (e *explorer) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return false
	}
	command := strings.ToLower(strings.TrimPrefix(fields[0], "."))
	args := fields[1:]

	var err error
	switch command {
	case "quit", "exit":
		return true
	case "help":
		printExploreHelp(e.r.Writer())
	case "dims":
		printSelections(e.r, e.filter)
	case "options":
		err = e.options(args)
	case "toggle":
		err = e.toggle(args)
	case "set":
		err = e.set(args)
	case "preset":
		err = e.preset(args)
	case "reset":
		e.filter.ResetAll()
		e.page = 0
	case "clear":
		e.filter.ClearAll()
		e.page = 0
	case "sort":
		err = e.sort(args)
	case "page":
		err = e.setPage(args)
	case "show":
		e.show()
	case "export":
		err = e.export(args)
	case "reload":
		err = e.doReload(ctx)
	default:
		err = fmt.Errorf("unknown command: %s (type .help for commands)", fields[0])
	}
	if err != nil {
		e.r.Error(err.Error())
	}
	return false
}

func (e *explorer) dimension(name string) (core.Dimension, error) {
	d, ok := e.filter.Dimension(name)
	if !ok {
		names := make([]string, 0, len(e.filter.Dimensions()))
		for _, d := range e.filter.Dimensions() {
			names = append(names, d.Name)
		}
		return core.Dimension{}, fmt.Errorf("unknown dimension %q (available: %s)", name, strings.Join(names, ", "))
	}
	return d, nil
}

func (e *explorer) options(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: .options <dimension> [search]")
	}
	d, err := e.dimension(args[0])
	if err != nil {
		return err
	}
	search := strings.Join(args[1:], " ")
	values := crossfilter.MatchOptions(e.filter.Options(d.Name), search)
	if len(values) == 0 {
		e.r.Muted("No options")
		return nil
	}
	for _, v := range values {
		mark := "[ ]"
		if e.filter.Selected(d.Name, v) {
			mark = "[x]"
		}
		e.r.Printf("%s %s\n", mark, v)
	}
	return nil
}

func (e *explorer) toggle(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: .toggle <dimension> <value>")
	}
	d, err := e.dimension(args[0])
	if err != nil {
		return err
	}
	value := strings.Join(args[1:], " ")
	if e.filter.Disabled(d.Name) {
		return fmt.Errorf("%s has no options under the current filters", d.Label)
	}
	e.filter.Toggle(d.Name, value)
	e.page = 0
	return nil
}

func (e *explorer) set(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: .set <dimension>=v1,v2")
	}
	name, values, err := parseFilter(strings.Join(args, " "))
	if err != nil {
		return err
	}
	unknown, err := e.filter.SetSelection(name, values)
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		e.r.Warning(fmt.Sprintf("%s: ignoring unknown values %s", name, strings.Join(unknown, ", ")))
	}
	e.page = 0
	return nil
}

func (e *explorer) preset(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: .preset <dimension>=<value> ...")
	}
	presets := make(map[string]string)
	for _, a := range args {
		name, value, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid preset %q", a)
		}
		presets[name] = value
	}
	e.filter.Preselect(presets)
	e.page = 0
	return nil
}

func (e *explorer) sort(args []string) error {
	if len(args) == 0 {
		e.sortCol, e.desc = "", false
		return nil
	}
	e.sortCol = args[0]
	e.desc = len(args) > 1 && strings.EqualFold(args[1], "desc")
	return nil
}

func (e *explorer) setPage(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: .page <n> [size]")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("invalid page %q", args[0])
	}
	e.page = n - 1
	if len(args) > 1 {
		size, err := strconv.Atoi(args[1])
		if err != nil || !grid.ValidPageSize(size) {
			return fmt.Errorf("page size must be one of %v", grid.PageSizes)
		}
		e.pageSize = size
	}
	return nil
}

// current returns the visible rows in display order.
func (e *explorer) current() []core.Row {
	rows := e.filter.Visible()
	if e.sortCol != "" {
		rows = grid.Sort(rows, e.sortCol, e.desc)
	}
	return rows
}

func (e *explorer) show() {
	rows := e.current()
	if len(rows) == 0 {
		e.r.Muted(emptyViewMessage)
		return
	}
	page := grid.Paginate(rows, e.page, e.pageSize)
	e.page = page.Index

	columns := grid.Visible(e.ds.Columns, e.spec.Hidden)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = grid.HeaderLabel(c, e.spec.HeaderOverrides)
	}
	body := make([][]string, 0, len(page.Rows))
	for _, row := range page.Rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = row.Get(c)
		}
		body = append(body, cells)
	}
	e.r.Table(header, body)
	e.r.Muted(fmt.Sprintf("%s (page %d of %d)", page.Summary(), page.Index+1, page.Count))
}

func (e *explorer) export(args []string) error {
	path := crossfilter.ExportFilename(e.spec.ID, time.Now())
	if len(args) > 0 {
		path = args[0]
	}
	rows := e.current()
	if err := writeFile(path, func(w io.Writer) error {
		return crossfilter.ExportCSV(w, rows, e.ds.Columns)
	}); err != nil {
		return err
	}
	e.r.Success(fmt.Sprintf("Exported %d rows to %s", len(rows), path))
	return nil
}

func (e *explorer) doReload(ctx context.Context) error {
	if e.reload == nil {
		return errors.New("reload is not available")
	}
	ds, err := e.reload(ctx)
	if err != nil {
		return err
	}
	e.ds = ds
	e.filter.Rebase(ds.Rows)
	e.r.Success(fmt.Sprintf("Reloaded %d rows", ds.Len()))
	return nil
}

func (e *explorer) completer() *readline.PrefixCompleter {
	dims := func(string) []string {
		names := make([]string, 0, len(e.filter.Dimensions()))
		for _, d := range e.filter.Dimensions() {
			names = append(names, d.Name)
		}
		return names
	}
	columns := func(string) []string { return e.ds.Columns }

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".dims"),
		readline.PcItem(".options", readline.PcItemDynamic(dims)),
		readline.PcItem(".toggle", readline.PcItemDynamic(dims)),
		readline.PcItem(".set", readline.PcItemDynamic(dims)),
		readline.PcItem(".preset"),
		readline.PcItem(".reset"),
		readline.PcItem(".clear"),
		readline.PcItem(".sort", readline.PcItemDynamic(columns)),
		readline.PcItem(".page"),
		readline.PcItem(".show"),
		readline.PcItem(".export"),
		readline.PcItem(".reload"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

func printExploreHelp(w io.Writer) {
	help := `
Commands:
  .dims                        Show every dimension and its selection
  .options <dim> [search]      List the selectable values of a dimension
  .toggle <dim> <value>        Select or deselect one value
  .set <dim>=v1,v2             Replace a dimension's selection
  .preset <dim>=<value> ...    Drill down as the landing page does
  .reset                       Select everything
  .clear                       Deselect everything
  .sort [column [desc]]        Sort the rows (no column clears the sort)
  .page <n> [size]             Go to a page, optionally changing its size
  .show                        Print the current page
  .export [file]               Write the visible rows as CSV
  .reload                      Fetch the dataset again
  .quit / .exit                Leave the session
`
	_, _ = fmt.Fprintln(w, help)
}
